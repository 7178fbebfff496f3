package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dsbgw/dsb-client-gateway/broker"
	"github.com/dsbgw/dsb-client-gateway/cmd/flags"
	"github.com/dsbgw/dsb-client-gateway/cron"
	"github.com/dsbgw/dsb-client-gateway/httpserver"
	"github.com/dsbgw/dsb-client-gateway/identity"
	"github.com/dsbgw/dsb-client-gateway/interfaces"
	"github.com/dsbgw/dsb-client-gateway/registry"
	"github.com/dsbgw/dsb-client-gateway/storage"
)

func main() {
	app := &cli.App{
		Name:  "dsb-gateway",
		Usage: "Serve the DSB client gateway API with identity enrolment",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.SecretsURLFlag,
			flags.PrivateKeyFlag,
			flags.IdentityFileFlag,
			flags.BrokerURLFlag,
			flags.BrokerRetryMaxFlag,
			flags.PollIntervalFlag,
			flags.KeyCheckIntervalFlag,
		}, append(flags.RegistryFlags, flags.CommonFlags...)...),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	ctx := cCtx.Context

	// Secret store holding the gateway private key
	secretFactory := storage.NewSecretStoreFactory(logger)
	secrets, err := secretFactory.SecretStoreFor(cCtx.String(flags.SecretsURLFlag.Name))
	if err != nil {
		logger.Error("Failed to create secret store", "err", err)
		return err
	}

	privateKey, err := secrets.GetPrivateKey(ctx)
	if errors.Is(err, interfaces.ErrNoPrivateKey) {
		seed := cCtx.String(flags.PrivateKeyFlag.Name)
		if seed == "" {
			logger.Error("Secret store is empty and no --private-key was given", "store", secrets.Name())
			return errors.New("no private key available")
		}
		if err := secrets.SetPrivateKey(ctx, seed); err != nil {
			logger.Error("Failed to seed secret store", "err", err)
			return err
		}
		privateKey = seed
		logger.Info("Seeded secret store with configured private key", "store", secrets.Name())
	} else if err != nil {
		logger.Error("Failed to read private key", "err", err)
		return err
	}

	// Claims registry (on-chain DID registry + cache server)
	regCfg := flags.ConfigureRegistry(cCtx)
	logger.Info("Connecting to claims registry", "rpc", regCfg.RPCURL, "cacheServer", regCfg.CacheServerURL)
	regClient, err := registry.NewClient(ctx, regCfg, logger)
	if err != nil {
		logger.Error("Failed to create registry client", "err", err)
		return err
	}

	// Gateway identity
	manager, err := identity.NewManager(ctx, privateKey, regClient, regClient.Roles(), logger)
	if err != nil {
		logger.Error("Failed to initialize gateway identity", "err", err)
		return err
	}

	identities := &identity.Holder{}
	identities.Store(manager)

	identityStore, err := storage.NewFileIdentityStore(cCtx.String(flags.IdentityFileFlag.Name), logger)
	if err != nil {
		logger.Error("Failed to create identity store", "err", err)
		return err
	}
	if err := identityStore.Write(ctx, manager.Record()); err != nil {
		logger.Error("Failed to persist identity record", "err", err)
		return err
	}

	brokerClient := broker.NewClient(broker.Config{
		BaseURL:  cCtx.String(flags.BrokerURLFlag.Name),
		DID:      manager.DID(),
		RetryMax: cCtx.Int(flags.BrokerRetryMaxFlag.Name),
	}, logger)

	// HTTP API
	handler := httpserver.NewHandler(identities, identityStore, brokerClient, logger)
	server, err := httpserver.New(flags.ConfigureServer(cCtx, logger), handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}
	server.RunInBackground()

	// Periodic jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	managerFactory := func(ctx context.Context, privateKey string) (*identity.Manager, error) {
		return identity.NewManager(ctx, privateKey, regClient, regClient.Roles(), logger)
	}

	scheduler := cron.NewScheduler(logger)
	scheduler.Register(cron.NewEnrolmentJob(identities, identityStore,
		cCtx.Duration(flags.PollIntervalFlag.Name), logger))
	scheduler.Register(cron.NewPrivateKeyJob(identities, secrets, managerFactory,
		cCtx.Duration(flags.KeyCheckIntervalFlag.Name), logger))
	scheduler.Start(jobCtx)

	// Wait for termination signal
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Gateway is running", "did", manager.DID())
	<-exit
	logger.Info("Shutdown signal received")

	cancelJobs()
	scheduler.Wait()
	server.Shutdown()
	logger.Info("Shutdown complete")

	return nil
}
