package reveal

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Init code deploying a contract whose runtime is a single STOP.
var acceptAllInitCode = common.FromHex("600060005360016000f3")

// Init code deploying a contract whose runtime always reverts.
var revertAllInitCode = common.FromHex("6460006000fd6000526005601bf3")

func TestRevealKey(t *testing.T) {
	contract := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	chainID := big.NewInt(1337)
	index := big.NewInt(7)

	var packed []byte
	packed = append(packed, []byte("pw")...)
	packed = append(packed, common.BigToHash(chainID).Bytes()...)
	packed = append(packed, common.BigToHash(index).Bytes()...)
	packed = append(packed, contract.Bytes()...)

	key := RevealKey("pw", chainID, index, contract)
	assert.Equal(t, crypto.Keccak256(packed), key)
	assert.Len(t, key, 32)

	assert.NotEqual(t, key, RevealKey("pw", big.NewInt(1), index, contract))
	assert.NotEqual(t, key, RevealKey("pw", chainID, big.NewInt(8), contract))
	assert.NotEqual(t, key, RevealKey("other", chainID, index, contract))
}

func TestDropRevealer_RequiresTransactOpts(t *testing.T) {
	revealer, err := NewDropRevealer(nil, nil, common.Address{}, big.NewInt(1))
	require.NoError(t, err)

	err = revealer.Reveal(context.Background(), interfaces.RevealRequest{BatchID: "0", Password: "pw"})
	assert.ErrorIs(t, err, ErrNoTransactOpts)
}

func TestDropRevealer_InvalidBatchID(t *testing.T) {
	revealer, err := NewDropRevealer(nil, nil, common.Address{}, big.NewInt(1))
	require.NoError(t, err)
	revealer.SetTransactOpts(&bind.TransactOpts{})

	for _, id := range []string{"", "b1", "-1", "0x10"} {
		err := revealer.Reveal(context.Background(), interfaces.RevealRequest{BatchID: id, Password: "pw"})
		assert.ErrorIs(t, err, ErrInvalidBatchID, id)
	}
}

func TestDropRevealer_Simulated(t *testing.T) {
	backend, auth := setupTestChain(t)

	accepting := deployCode(t, backend, auth, acceptAllInitCode)
	reverting := deployCode(t, backend, auth, revertAllInitCode)

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		commitBlocks(ctx, backend)
	}()

	revealer, err := NewDropRevealer(backend.Client(), backend.Client(), accepting, big.NewInt(1337))
	require.NoError(t, err)
	revealer.SetTransactOpts(auth)
	require.NoError(t, revealer.Reveal(ctx, interfaces.RevealRequest{BatchID: "1", Password: "pw"}))

	revealer, err = NewDropRevealer(backend.Client(), backend.Client(), reverting, big.NewInt(1337))
	require.NoError(t, err)
	revealer.SetTransactOpts(auth)
	assert.Error(t, revealer.Reveal(ctx, interfaces.RevealRequest{BatchID: "1", Password: "pw"}))
}

func setupTestChain(t *testing.T) (*simulated.Backend, *bind.TransactOpts) {
	t.Helper()

	privateKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(1337))
	require.NoError(t, err)

	balance, _ := new(big.Int).SetString("10000000000000000000", 10)
	backend := simulated.NewBackend(types.GenesisAlloc{
		auth.From: {Balance: balance},
	}, simulated.WithBlockGasLimit(8000000))
	t.Cleanup(func() { backend.Close() })

	return backend, auth
}

func deployCode(t *testing.T, backend *simulated.Backend, auth *bind.TransactOpts, code []byte) common.Address {
	t.Helper()

	address, tx, _, err := bind.DeployContract(auth, abi.ABI{}, code, backend.Client())
	require.NoError(t, err)
	backend.Commit()

	receipt, err := backend.Client().TransactionReceipt(context.Background(), tx.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	return address
}

func commitBlocks(ctx context.Context, backend *simulated.Backend) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			backend.Commit()
		}
	}
}
