package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/dsbgw/dsb-client-gateway/common"
	"github.com/dsbgw/dsb-client-gateway/httpserver"
	"github.com/dsbgw/dsb-client-gateway/registry"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJSONFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUIDFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

func ConfigureRegistry(cCtx *cli.Context) registry.Config {
	return registry.Config{
		RPCURL:             cCtx.String(RPCURLFlag.Name),
		ChainID:            cCtx.Int64(ChainIDFlag.Name),
		DIDRegistryAddress: cCtx.String(DIDRegistryFlag.Name),
		CacheServerURL:     cCtx.String(CacheServerURLFlag.Name),
		ParentNamespace:    cCtx.String(ParentNamespaceFlag.Name),
	}
}

var RPCURLFlag = &cli.StringFlag{
	Name:  "rpc-url",
	Value: "http://127.0.0.1:8545",
	Usage: "Ethereum RPC endpoint of the chain hosting the DID registry",
}
var ChainIDFlag = &cli.Int64Flag{
	Name:  "chain-id",
	Value: 73799,
	Usage: "expected chain ID (Volta testnet by default)",
}
var DIDRegistryFlag = &cli.StringFlag{
	Name:  "did-registry-addr",
	Value: "0xc15d5a57a8eb0e1dcbe5d88b8f9a82017e5cc4af",
	Usage: "ERC1056 DID registry contract address",
}
var CacheServerURLFlag = &cli.StringFlag{
	Name:  "cache-server-url",
	Value: "https://identitycache.org/v1",
	Usage: "claims cache server base URL",
}
var ParentNamespaceFlag = &cli.StringFlag{
	Name:  "parent-namespace",
	Value: "dsb.apps.energyweb.iam.ewc",
	Usage: "parent namespace the gateway roles live under",
}
var SecretsURLFlag = &cli.StringFlag{
	Name:  "secrets-url",
	Value: "file://./data/private.key",
	Usage: "secret store location for the gateway private key (file://, vault://, awssm://)",
}
var PrivateKeyFlag = &cli.StringFlag{
	Name:    "private-key",
	Usage:   "hex private key used to seed an empty secret store",
	EnvVars: []string{"DSB_GW_PRIVATE_KEY"},
}
var IdentityFileFlag = &cli.StringFlag{
	Name:  "identity-file",
	Value: "./data/identity.json",
	Usage: "path of the persisted identity record",
}
var BrokerURLFlag = &cli.StringFlag{
	Name:  "broker-url",
	Value: "http://127.0.0.1:3000",
	Usage: "DSB message broker base URL",
}
var BrokerRetryMaxFlag = &cli.IntFlag{
	Name:  "broker-retry-max",
	Value: 3,
	Usage: "transport-level retries per broker request",
}
var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}
var PollIntervalFlag = &cli.DurationFlag{
	Name:  "poll-interval",
	Value: time.Minute,
	Usage: "interval between enrolment state polls",
}
var KeyCheckIntervalFlag = &cli.DurationFlag{
	Name:  "key-check-interval",
	Value: 5 * time.Minute,
	Usage: "interval between private key rotation checks",
}

var LogJSONFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUIDFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}
var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJSONFlag,
	LogDebugFlag,
	LogUIDFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

var RegistryFlags = []cli.Flag{
	RPCURLFlag,
	ChainIDFlag,
	DIDRegistryFlag,
	CacheServerURLFlag,
	ParentNamespaceFlag,
}
