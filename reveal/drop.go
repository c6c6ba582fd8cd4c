package reveal

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// DropRevealABI is the reveal entry point of deferred-reveal drop contracts.
const DropRevealABI = `[{"inputs":[{"internalType":"uint256","name":"_index","type":"uint256"},{"internalType":"bytes","name":"_key","type":"bytes"}],"name":"reveal","outputs":[{"internalType":"string","name":"revealedURI","type":"string"}],"stateMutability":"nonpayable","type":"function"}]`

var (
	// ErrNoTransactOpts is returned when a reveal is attempted without first
	// setting transaction options.
	ErrNoTransactOpts = errors.New("no authorized transactor available")

	// ErrInvalidBatchID is returned for batch ids that are not decimal uint256.
	ErrInvalidBatchID = errors.New("invalid batch id")

	// ErrRevealReverted is returned when the reveal transaction reverted.
	ErrRevealReverted = errors.New("reveal transaction reverted")
)

// DropRevealer implements interfaces.Revealer against a drop contract.
type DropRevealer struct {
	contract *bind.BoundContract
	backend  bind.DeployBackend
	address  common.Address
	chainID  *big.Int
	auth     *bind.TransactOpts
}

// NewDropRevealer creates a revealer for the drop contract at address on the
// chain identified by chainID. client is used to send the transaction and
// backend to wait for its receipt.
func NewDropRevealer(client bind.ContractBackend, backend bind.DeployBackend, address common.Address, chainID *big.Int) (*DropRevealer, error) {
	parsed, err := abi.JSON(strings.NewReader(DropRevealABI))
	if err != nil {
		return nil, err
	}

	return &DropRevealer{
		contract: bind.NewBoundContract(address, parsed, client, client, client),
		backend:  backend,
		address:  address,
		chainID:  new(big.Int).Set(chainID),
	}, nil
}

// NewKeyedDropRevealer creates a revealer signing with privateKey.
func NewKeyedDropRevealer(client bind.ContractBackend, backend bind.DeployBackend, address common.Address, chainID *big.Int, privateKey *ecdsa.PrivateKey) (*DropRevealer, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, err
	}

	revealer, err := NewDropRevealer(client, backend, address, chainID)
	if err != nil {
		return nil, err
	}
	revealer.SetTransactOpts(auth)
	return revealer, nil
}

// SetTransactOpts sets the transaction options used to sign reveals.
func (r *DropRevealer) SetTransactOpts(auth *bind.TransactOpts) {
	r.auth = auth
}

// Reveal derives the reveal key of req and sends the reveal transaction,
// waiting until it is mined.
func (r *DropRevealer) Reveal(ctx context.Context, req interfaces.RevealRequest) error {
	if r.auth == nil {
		return ErrNoTransactOpts
	}

	index, ok := new(big.Int).SetString(req.BatchID, 10)
	if !ok || index.Sign() < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidBatchID, req.BatchID)
	}

	key := RevealKey(req.Password, r.chainID, index, r.address)

	opts := *r.auth
	opts.Context = ctx
	tx, err := r.contract.Transact(&opts, "reveal", index, key)
	if err != nil {
		return fmt.Errorf("could not send reveal transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, r.backend, tx)
	if err != nil {
		return fmt.Errorf("could not wait for reveal transaction %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s", ErrRevealReverted, tx.Hash().Hex())
	}
	return nil
}

// RevealKey computes keccak256(abi.encodePacked(password, chainId, batchIndex, contract)).
func RevealKey(password string, chainID, batchIndex *big.Int, contract common.Address) []byte {
	packed := make([]byte, 0, len(password)+32+32+common.AddressLength)
	packed = append(packed, password...)
	packed = append(packed, common.LeftPadBytes(chainID.Bytes(), 32)...)
	packed = append(packed, common.LeftPadBytes(batchIndex.Bytes(), 32)...)
	packed = append(packed, contract.Bytes()...)
	return crypto.Keccak256(packed)
}
