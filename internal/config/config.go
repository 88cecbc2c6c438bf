package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	// DebugModeEnv is the environment variable for debug mode.
	DebugModeEnv = "DEBUG_MODE"

	// DBHostEnv is the environment variable for database host.
	DBHostEnv = "DB_HOST"

	// DBPortEnv is the environment variable for database port.
	DBPortEnv = "DB_PORT"

	// DBUserEnv is the environment variable for database user.
	DBUserEnv = "DB_USER"

	// DBPassEnv is the environment variable for database password.
	DBPassEnv = "DB_PASS"

	// DBNameEnv is the environment variable for database name.
	DBNameEnv = "DB_NAME"

	// HTTPServerPortEnv is the environment variable for HTTP server port.
	HTTPServerPortEnv = "HTTP_SERVER_PORT"

	// MetricsServerPortEnv is the environment variable for metrics server port.
	MetricsServerPortEnv = "METRICS_SERVER_PORT"

	// EnvFilePath is the environment variable for .env file path (only for local/test environment).
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is the default path to the .env file.
	DefaultEnvFilePath = ".env"

	// AWSRegionEnv is the environment variable for AWS region.
	AWSRegionEnv = "AWS_REGION"

	// AWSEndpointEnv is the environment variable for AWS endpoint.
	AWSEndpointEnv = "AWS_ENDPOINT"

	// SQSQueueURLEnv is the environment variable for the reconcile queue URL.
	SQSQueueURLEnv = "SQS_QUEUE_URL"

	// ChainRPCURLEnv is the environment variable for the ledger JSON-RPC endpoint.
	ChainRPCURLEnv = "CHAIN_RPC_URL"

	// ChainPrivateKeyEnv is the environment variable for the hex-encoded signing key.
	// Optional: read-only deployments (reconcile worker, verification) omit it.
	ChainPrivateKeyEnv = "CHAIN_PRIVATE_KEY"

	// ContractArtifactsDirEnv is the environment variable for the directory holding
	// the contract ABI files produced by the deploy step.
	ContractArtifactsDirEnv = "CONTRACT_ARTIFACTS_DIR"

	// ContractAddressesPathEnv is the environment variable for the deployed-address
	// mapping file produced by the deploy step.
	ContractAddressesPathEnv = "CONTRACT_ADDRESSES_PATH"

	// ScannerBlocksPerDayEnv is the environment variable for the blocks-per-day
	// estimate used by the transaction history scanner.
	ScannerBlocksPerDayEnv = "SCANNER_BLOCKS_PER_DAY"

	// DefaultChainRPCURL is used when no RPC endpoint is configured.
	DefaultChainRPCURL = "http://localhost:8545"

	// DefaultBlocksPerDay approximates a 13.3s block interval. Timeframe filters
	// derived from it are only approximately correct.
	DefaultBlocksPerDay = 6500
)

var (
	// ErrMissingConfig is returned when required configuration values are missing.
	ErrMissingConfig = errors.New("missing config data")
)

// Config represents the application configuration.
type Config struct {
	DebugMode     bool
	Database      DB
	HTTPServer    Server
	MetricsServer Server
	AWS           AWSConfig
	Chain         ChainConfig
	Scanner       ScannerConfig
}

// AWSConfig represents AWS-specific configuration settings.
type AWSConfig struct {
	Region      string
	Endpoint    string
	SQSQueueURL string
}

// ChainConfig represents ledger connection settings.
type ChainConfig struct {
	RPCURL        string
	PrivateKey    string
	ArtifactsDir  string
	AddressesPath string
}

// ScannerConfig represents transaction history scanner settings.
type ScannerConfig struct {
	BlocksPerDay int
}

// DB represents database configuration settings.
type DB struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

// Server represents server configuration settings.
type Server struct {
	Port string
}

func allNonEmpty(keyValues map[string]string) error {
	for key, value := range keyValues {
		if value == "" {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("error", "value is empty"))
			return fmt.Errorf("%w for key: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

func allNumbers(keyValues map[string]string) error {
	for key, value := range keyValues {
		_, err := strconv.Atoi(value)
		if err != nil {
			slog.Error("configuration validation failed", slog.String("key", key), slog.String("value", value), slog.String("error", err.Error()))
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	// Validate database configuration
	if err := allNonEmpty(map[string]string{
		DBHostEnv: c.Database.Host,
		DBUserEnv: c.Database.User,
		DBNameEnv: c.Database.Name,
	}); err != nil {
		return fmt.Errorf("database configuration incomplete: %w", err)
	}

	// Validate server ports
	if err := allNonEmpty(map[string]string{
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("server port configuration incomplete: %w", err)
	}

	// Validate port numbers
	if err := allNumbers(map[string]string{
		DBPortEnv:            c.Database.Port,
		HTTPServerPortEnv:    c.HTTPServer.Port,
		MetricsServerPortEnv: c.MetricsServer.Port,
	}); err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	// Validate AWS configuration
	if err := allNonEmpty(map[string]string{
		SQSQueueURLEnv: c.AWS.SQSQueueURL,
	}); err != nil {
		return fmt.Errorf("AWS configuration incomplete: %w", err)
	}

	// Validate ledger configuration. The private key is optional: without it the
	// service can still read and verify, but state-changing calls will fail.
	if err := allNonEmpty(map[string]string{
		ContractArtifactsDirEnv:  c.Chain.ArtifactsDir,
		ContractAddressesPathEnv: c.Chain.AddressesPath,
	}); err != nil {
		return fmt.Errorf("ledger configuration incomplete: %w", err)
	}

	if c.Scanner.BlocksPerDay <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrMissingConfig, ScannerBlocksPerDayEnv)
	}

	return nil
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if val, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return val
	}
	return defaultValue
}

func getEnvWithDefault(name, defaultValue string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return defaultValue
}

// ApplyEnvFile loads environment variables from the specified .env files.
func ApplyEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables and validates it.
func LoadFromEnv() (*Config, error) {
	envPath := os.Getenv(EnvFilePath)
	if envPath == "" {
		envPath = DefaultEnvFilePath
	}
	err := ApplyEnvFile(envPath)
	if err != nil {
		// just log the error, maybe all envs are set in another way
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	conf := &Config{
		DebugMode: getEnvAsBool(DebugModeEnv, false),
		Database: DB{
			Host:     os.Getenv(DBHostEnv),
			User:     os.Getenv(DBUserEnv),
			Password: os.Getenv(DBPassEnv),
			Name:     os.Getenv(DBNameEnv),
			Port:     os.Getenv(DBPortEnv),
		},
		HTTPServer: Server{
			Port: os.Getenv(HTTPServerPortEnv),
		},
		MetricsServer: Server{
			Port: os.Getenv(MetricsServerPortEnv),
		},
		AWS: AWSConfig{
			Region:      os.Getenv(AWSRegionEnv),
			Endpoint:    os.Getenv(AWSEndpointEnv),
			SQSQueueURL: os.Getenv(SQSQueueURLEnv),
		},
		Chain: ChainConfig{
			RPCURL:        getEnvWithDefault(ChainRPCURLEnv, DefaultChainRPCURL),
			PrivateKey:    os.Getenv(ChainPrivateKeyEnv),
			ArtifactsDir:  os.Getenv(ContractArtifactsDirEnv),
			AddressesPath: os.Getenv(ContractAddressesPathEnv),
		},
		Scanner: ScannerConfig{
			BlocksPerDay: getEnvAsInt(ScannerBlocksPerDayEnv, DefaultBlocksPerDay),
		},
	}

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return conf, nil
}
