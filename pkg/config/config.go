package config

import (
	"fmt"
	"os"
	"time"
)

// Environment variables that override values loaded from the config file.
const (
	EnvRPCURL     = "FILEVAULT_RPC_URL"
	EnvKeystore   = "FILEVAULT_KEYSTORE"
	EnvSigner     = "FILEVAULT_SIGNER"
	EnvPassphrase = "FILEVAULT_PASSPHRASE"
)

// Config represents the main configuration for filevault
type Config struct {
	Network  NetworkConfig  `yaml:"network"`
	Contract ContractConfig `yaml:"contract"`
	Wallet   WalletConfig   `yaml:"wallet"`
	IPFS     IPFSConfig     `yaml:"ipfs"`
	Logging  LoggingConfig  `yaml:"logging"`
	Gateway  GatewayConfig  `yaml:"gateway"`
}

// ContractConfig locates the deployed FileIntegrity contract
type ContractConfig struct {
	Address string `yaml:"address"` // 0x-prefixed contract address
}

// WalletConfig selects the wallet backends the provider is built from.
// At least one of KeystoreDir or ExternalSigner must be set for a provider
// to be detected.
type WalletConfig struct {
	KeystoreDir    string `yaml:"keystore_dir"`    // go-ethereum keystore directory
	ExternalSigner string `yaml:"external_signer"` // Clef-compatible signer endpoint (ipc path or http url)
	ScryptLight    bool   `yaml:"scrypt_light"`    // Use light scrypt parameters for new keys

	// Passphrase is only ever set from the environment.
	Passphrase string `yaml:"-"`
}

// IPFSConfig contains IPFS Cluster storage configuration
type IPFSConfig struct {
	// ClusterAPIURL is the IPFS Cluster HTTP API URL (e.g., "http://localhost:9094").
	// If empty, files are not uploaded and the literal placeholder CID is stored.
	ClusterAPIURL string `yaml:"cluster_api_url"`

	// Timeout for IPFS operations. If zero, defaults to 60 seconds.
	Timeout time.Duration `yaml:"timeout"`

	// ReplicationFactor is the replication factor for pinned content
	ReplicationFactor int `yaml:"replication_factor"`
}

// LoggingConfig controls the zap logger built by logging.New
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputFile string `yaml:"output_file"` // Empty for stdout
	NoColor    bool   `yaml:"no_color"`    // Disable ANSI colors on console output
}

// Enabled reports whether IPFS uploads are configured.
func (c IPFSConfig) Enabled() bool {
	return c.ClusterAPIURL != ""
}

// DefaultConfig returns a default configuration targeting Sepolia
func DefaultConfig() *Config {
	return &Config{
		Network: SepoliaNetwork(),
		Contract: ContractConfig{
			Address: "0x2D1FB38A63dF7f9e0Fe55beCE97F2981C32febCB",
		},
		Wallet: WalletConfig{},
		IPFS: IPFSConfig{
			ClusterAPIURL:     "", // Empty = disabled
			Timeout:           60 * time.Second,
			ReplicationFactor: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Gateway: GatewayConfig{
			Enabled:        true,
			ListenAddr:     "127.0.0.1:8545",
			RequestTimeout: 2 * time.Minute,
			MaxUploadBytes: 64 << 20,
			HTTPS: HTTPSConfig{
				HTTPPort:  80,
				HTTPSPort: 443,
			},
		},
	}
}

// Load reads the config file at path on top of DefaultConfig and applies
// environment overrides. A missing file is not an error when allowMissing is set.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := DecodeStrict(f, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && allowMissing:
	default:
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides config values with the FILEVAULT_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvRPCURL); v != "" {
		c.Network.RPCURLs = append([]string{v}, c.Network.RPCURLs...)
	}
	if v := getenv(EnvKeystore); v != "" {
		c.Wallet.KeystoreDir = v
	}
	if v := getenv(EnvSigner); v != "" {
		c.Wallet.ExternalSigner = v
	}
	if v := getenv(EnvPassphrase); v != "" {
		c.Wallet.Passphrase = v
	}
}
