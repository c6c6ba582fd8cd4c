package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/devnet-dashboard-backend/api/batches"
	"github.com/ruteri/devnet-dashboard-backend/api/networks"
	"github.com/ruteri/devnet-dashboard-backend/api/servers"
	"github.com/ruteri/devnet-dashboard-backend/api/stealthtest"
	"github.com/ruteri/devnet-dashboard-backend/chains"
	"github.com/ruteri/devnet-dashboard-backend/cmd/flags"
	"github.com/ruteri/devnet-dashboard-backend/events"
	"github.com/ruteri/devnet-dashboard-backend/interfaces"
	"github.com/ruteri/devnet-dashboard-backend/metrics"
	"github.com/ruteri/devnet-dashboard-backend/reveal"
	"github.com/ruteri/devnet-dashboard-backend/selector"
	"github.com/ruteri/devnet-dashboard-backend/storage"
	"github.com/ruteri/devnet-dashboard-backend/wallet"
	"github.com/urfave/cli/v2"
)

var flagListenAddr = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var flagStateURI = &cli.StringSliceFlag{
	Name:  "state-uri",
	Value: cli.NewStringSlice("memory://"),
	Usage: "user state backend URI (memory://, file://, s3://, vault://), may be repeated",
}

var flagCatalogFile = &cli.StringFlag{
	Name:  "catalog-file",
	Usage: "JSON chain catalog replacing the built-in one",
}

var flagProvisioningURL = &cli.StringFlag{
	Name:  "provisioning-proxy-url",
	Usage: "base URL of the provisioning proxy used by the network selector, defaults to this server",
}

var flagDisabledChains = &cli.StringFlag{
	Name:  "disabled-chains",
	Usage: "comma separated chain ids hidden from the network selector",
}

var flagEnabledChains = &cli.StringFlag{
	Name:  "enabled-chains",
	Usage: "comma separated chain ids the network selector is restricted to",
}

var flagRecentLimit = &cli.IntFlag{
	Name:  "recent-chains",
	Value: chains.DefaultRecentLimit,
	Usage: "number of recently used chains remembered per user",
}

var flagVerifyRPC = &cli.BoolFlag{
	Name:  "verify-rpc",
	Value: false,
	Usage: "query eth_chainId of the target chain RPC before switching",
}

var flagProvisioningTimeout = &cli.DurationFlag{
	Name:  "provisioning-timeout",
	Value: 60 * time.Second,
	Usage: "timeout of private network provisioning requests",
}

func main() {
	app := &cli.App{
		Name:  "dashboard-server",
		Usage: "Serve the devnet dashboard backend",
		Flags: append([]cli.Flag{
			flagListenAddr,
			flagStateURI,
			flagCatalogFile,
			flagProvisioningURL,
			flagProvisioningTimeout,
			flagDisabledChains,
			flagEnabledChains,
			flagRecentLimit,
			flagVerifyRPC,
			flags.RpcAddrFlag,
			flags.DropContractFlag,
			flags.RevealKeyFlag,
			flags.LogServiceFlagFn("dashboard-server"),
		}, flags.CommonFlags...),
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	listenAddr := cCtx.String(flagListenAddr.Name)

	proxyCfg, err := stealthtest.ConfigFromEnv()
	if err != nil {
		logger.Error("Invalid provisioning proxy configuration", "err", err)
		return err
	}
	proxyHandler, err := stealthtest.NewHandler(proxyCfg, logger)
	if err != nil {
		logger.Error("Failed to create provisioning proxy", "err", err)
		return err
	}

	backend, err := storage.NewStateBackendFactory(logger).CreateMultiBackend(cCtx.StringSlice(flagStateURI.Name))
	if err != nil {
		logger.Error("Failed to create state backend", "err", err)
		return err
	}
	logger.Info("Using state backend", "location", backend.LocationURI())

	catalog := chains.DefaultCatalog()
	if path := cCtx.String(flagCatalogFile.Name); path != "" {
		catalog, err = chains.LoadCatalogFile(path)
		if err != nil {
			logger.Error("Failed to load chain catalog", "err", err, "file", path)
			return err
		}
	}

	filter, err := parseFilter(cCtx)
	if err != nil {
		logger.Error("Invalid chain filter", "err", err)
		return err
	}

	proxyURL := cCtx.String(flagProvisioningURL.Name)
	if proxyURL == "" {
		proxyURL = "http://" + listenAddr
	}

	var rpcChain wallet.RPCChainIDFunc
	if cCtx.Bool(flagVerifyRPC.Name) {
		rpcChain = wallet.EthChainID
	}

	m := metrics.New("dashboard")
	hub := events.NewHub(logger)
	notifier := m.Notifier(hub)

	registry := selector.NewRegistry(selector.Config{Filter: filter}, selector.Dependencies{
		Catalog:    catalog,
		Configured: chains.NewConfiguredChains(backend, logger),
		Recent:     chains.NewRecentlyUsed(backend, cCtx.Int(flagRecentLimit.Name)),
		Provisioner: &stealthtest.Client{
			ServerAddr: strings.TrimSuffix(proxyURL, "/"),
			HTTPClient: &http.Client{Timeout: cCtx.Duration(flagProvisioningTimeout.Name)},
		},
		Notifier: notifier,
		Log:      logger,
	}, rpcChain)
	defer registry.Close()

	handlers := []servers.RouteRegistrar{
		proxyHandler,
		networks.NewHandler(registry, hub, logger),
	}

	if cCtx.String(flags.DropContractFlag.Name) != "" {
		revealer, err := setupRevealer(cCtx, logger)
		if err != nil {
			logger.Error("Failed to set up batch reveals", "err", err)
			return err
		}
		handlers = append(handlers, batches.NewHandler(revealer, notifier, logger))
	} else {
		logger.Info("No drop contract configured, batch reveals disabled")
	}

	server, err := servers.New(flags.ConfigureServer(cCtx, logger, listenAddr), m, handlers...)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")
	return nil
}

func parseFilter(cCtx *cli.Context) (chains.Filter, error) {
	disabled, err := interfaces.ParseChainIDList(cCtx.String(flagDisabledChains.Name))
	if err != nil {
		return chains.Filter{}, fmt.Errorf("disabled chains: %w", err)
	}
	enabled, err := interfaces.ParseChainIDList(cCtx.String(flagEnabledChains.Name))
	if err != nil {
		return chains.Filter{}, fmt.Errorf("enabled chains: %w", err)
	}
	return chains.Filter{Disabled: disabled, Enabled: enabled}, nil
}

func setupRevealer(cCtx *cli.Context, logger *slog.Logger) (*reveal.DropRevealer, error) {
	contract := cCtx.String(flags.DropContractFlag.Name)
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid drop contract address %q", contract)
	}

	keyHex := strings.TrimPrefix(cCtx.String(flags.RevealKeyFlag.Name), "0x")
	if keyHex == "" {
		return nil, errors.New("reveal-private-key is required with drop-contract")
	}
	privateKey, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid reveal private key: %w", err)
	}

	rpcAddress := cCtx.String(flags.RpcAddrFlag.Name)
	logger.Info("Connecting to Ethereum RPC", "address", rpcAddress)
	client, err := ethclient.Dial(rpcAddress)
	if err != nil {
		return nil, fmt.Errorf("could not dial rpc: %w", err)
	}

	ctx, cancel := context.WithTimeout(cCtx.Context, 10*time.Second)
	defer cancel()
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not query chain id: %w", err)
	}

	return reveal.NewKeyedDropRevealer(client, client, common.HexToAddress(contract), chainID, privateKey)
}
