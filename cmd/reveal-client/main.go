// Command reveal-client reveals a batch of deferred-reveal metadata on a drop
// contract, signing the transaction with a local key.
//
//	REVEAL_PRIVATE_KEY=... reveal-client --rpc-addr https://rpc.example \
//	  --drop-contract 0x... --batch-id 0 --password secret
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/devnet-dashboard-backend/cmd/flags"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/ruteri/devnet-dashboard-backend/reveal"
	"github.com/urfave/cli/v2"
)

var flagBatchID = &cli.StringFlag{
	Name:     "batch-id",
	Required: true,
	Usage:    "index of the batch to reveal",
}

var flagPassword = &cli.StringFlag{
	Name:    "password",
	EnvVars: []string{"REVEAL_PASSWORD"},
	Usage:   "password the batch was encrypted with",
}

var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 5 * time.Minute,
	Usage: "maximum time to wait for the reveal transaction",
}

func main() {
	app := &cli.App{
		Name:  "reveal-client",
		Usage: "Reveal a batch of uploaded metadata",
		Flags: append([]cli.Flag{
			flags.RpcAddrFlag,
			flags.DropContractFlag,
			flags.RevealKeyFlag,
			flagBatchID,
			flagPassword,
			flagTimeout,
			flags.LogServiceFlagFn("reveal-client"),
		}, flags.LogFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			password := cCtx.String(flagPassword.Name)
			if password == "" {
				return reveal.ErrPasswordRequired
			}

			contract := cCtx.String(flags.DropContractFlag.Name)
			if !common.IsHexAddress(contract) {
				return errors.New("drop-contract must be a hex address")
			}

			privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cCtx.String(flags.RevealKeyFlag.Name), "0x"))
			if err != nil {
				logger.Error("Invalid private key", "err", err)
				return err
			}

			ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(flagTimeout.Name))
			defer cancel()

			client, err := ethclient.DialContext(ctx, cCtx.String(flags.RpcAddrFlag.Name))
			if err != nil {
				logger.Error("Failed to dial RPC", "err", err)
				return err
			}
			defer client.Close()

			chainID, err := client.ChainID(ctx)
			if err != nil {
				logger.Error("Failed to query chain id", "err", err)
				return err
			}

			revealer, err := reveal.NewKeyedDropRevealer(client, client, common.HexToAddress(contract), chainID, privateKey)
			if err != nil {
				return err
			}

			batchID := cCtx.String(flagBatchID.Name)
			logger.Info("Revealing batch", "batchId", batchID, "contract", contract, "chainId", chainID.String())
			if err := revealer.Reveal(ctx, interfaces.RevealRequest{BatchID: batchID, Password: password}); err != nil {
				logger.Error("Reveal failed", "err", err)
				return err
			}

			logger.Info("Batch revealed successfully", "batchId", batchID)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
