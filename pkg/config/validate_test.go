package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Fatalf("default config should validate, got: %v", errs)
	}
	if cfg.Network.ChainID != 11155111 {
		t.Errorf("expected Sepolia chain id, got %d", cfg.Network.ChainID)
	}
	if cfg.Network.NativeCurrency.Symbol != "SEP" || cfg.Network.NativeCurrency.Decimals != 18 {
		t.Errorf("unexpected native currency %+v", cfg.Network.NativeCurrency)
	}
}

func TestValidateRPCURLs(t *testing.T) {
	tests := []struct {
		name        string
		urls        []string
		shouldError bool
	}{
		{"https", []string{"https://rpc.sepolia.org"}, false},
		{"websocket", []string{"wss://sepolia.example/ws"}, false},
		{"empty", []string{}, true},
		{"missing host", []string{"https://"}, true},
		{"bad scheme", []string{"ftp://rpc.example"}, true},
		{"second entry invalid", []string{"https://rpc.sepolia.org", "rpc.sepolia.org"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Network.RPCURLs = tt.urls
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateContractAddress(t *testing.T) {
	tests := []struct {
		name        string
		address     string
		shouldError bool
	}{
		{"checksummed", "0x2D1FB38A63dF7f9e0Fe55beCE97F2981C32febCB", false},
		{"lowercase", "0x2d1fb38a63df7f9e0fe55bece97f2981c32febcb", false},
		{"empty", "", true},
		{"short", "0x1234", true},
		{"not hex", "0xZZ1FB38A63dF7f9e0Fe55beCE97F2981C32febCB", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Contract.Address = tt.address
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		shouldError bool
	}{
		{"valid info console", "info", "console", false},
		{"valid debug json", "debug", "json", false},
		{"invalid level", "verbose", "console", true},
		{"invalid format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Logging.Level = tt.level
			cfg.Logging.Format = tt.format
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateGateway(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*GatewayConfig)
		shouldError bool
	}{
		{"defaults", func(g *GatewayConfig) {}, false},
		{"listen without host", func(g *GatewayConfig) { g.ListenAddr = ":9000" }, false},
		{"listen without port", func(g *GatewayConfig) { g.ListenAddr = "localhost" }, true},
		{"port out of range", func(g *GatewayConfig) { g.ListenAddr = "localhost:99999" }, true},
		{"disabled skips checks", func(g *GatewayConfig) { g.Enabled = false; g.ListenAddr = "" }, false},
		{"https without domain", func(g *GatewayConfig) {
			g.HTTPS.Enabled = true
			g.HTTPS.AutoCert = true
		}, true},
		{"https autocert", func(g *GatewayConfig) {
			g.HTTPS.Enabled = true
			g.HTTPS.AutoCert = true
			g.HTTPS.Domain = "vault.example.com"
		}, false},
		{"https without certs", func(g *GatewayConfig) {
			g.HTTPS.Enabled = true
			g.HTTPS.Domain = "vault.example.com"
		}, true},
		{"https self-signed", func(g *GatewayConfig) {
			g.HTTPS.Enabled = true
			g.HTTPS.SelfSigned = true
			g.HTTPS.Domain = "localhost"
		}, false},
		{"https self-signed and autocert", func(g *GatewayConfig) {
			g.HTTPS.Enabled = true
			g.HTTPS.SelfSigned = true
			g.HTTPS.AutoCert = true
			g.HTTPS.Domain = "vault.example.com"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg.Gateway)
			errs := cfg.Validate()
			if tt.shouldError && len(errs) == 0 {
				t.Errorf("expected error, got none")
			}
			if !tt.shouldError && len(errs) > 0 {
				t.Errorf("unexpected errors: %v", errs)
			}
		})
	}
}

func TestValidateSOCKS5Proxy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.SOCKS5Proxy = "127.0.0.1:9050"
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("unexpected errors: %v", errs)
	}

	cfg.Network.SOCKS5Proxy = "127.0.0.1"
	errs := cfg.Validate()
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	if !strings.HasPrefix(errs[0].Error(), "network.socks5_proxy") {
		t.Errorf("unexpected error path: %v", errs[0])
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.ChainID = 0
	cfg.Contract.Address = ""
	cfg.Logging.Level = "loud"

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file allowed", func(t *testing.T) {
		cfg, err := Load(filepath.Join(dir, "absent.yaml"), true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Contract.Address != DefaultConfig().Contract.Address {
			t.Errorf("expected defaults, got %+v", cfg.Contract)
		}
	})

	t.Run("missing file required", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "absent.yaml"), false); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("overrides defaults", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		data := "network:\n  rpc_urls: [\"https://rpc.sepolia.org\"]\nipfs:\n  cluster_api_url: http://localhost:9094\n  timeout: 30s\n"
		if err := os.WriteFile(path, []byte(data), 0600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Network.RPCURL() != "https://rpc.sepolia.org" {
			t.Errorf("expected rpc override, got %q", cfg.Network.RPCURL())
		}
		if cfg.Network.ChainID != 11155111 {
			t.Errorf("expected default chain id to survive, got %d", cfg.Network.ChainID)
		}
		if !cfg.IPFS.Enabled() || cfg.IPFS.Timeout != 30*time.Second {
			t.Errorf("unexpected ipfs config %+v", cfg.IPFS)
		}
	})

	t.Run("unknown keys rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("network:\n  chainid: 1\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, false); err == nil {
			t.Error("expected strict decoding to reject unknown key")
		}
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvRPCURL:     "https://override.example",
		EnvKeystore:   "/tmp/keys",
		EnvPassphrase: "secret",
	}

	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Network.RPCURL() != "https://override.example" {
		t.Errorf("expected env rpc url first, got %v", cfg.Network.RPCURLs)
	}
	if cfg.Wallet.KeystoreDir != "/tmp/keys" {
		t.Errorf("expected keystore override, got %q", cfg.Wallet.KeystoreDir)
	}
	if cfg.Wallet.ExternalSigner != "" {
		t.Errorf("expected no signer, got %q", cfg.Wallet.ExternalSigner)
	}
	if cfg.Wallet.Passphrase != "secret" {
		t.Error("expected passphrase from env")
	}
}

func TestSaveDoesNotPersistPassphrase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Wallet.Passphrase = "secret"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("passphrase must never be written to disk")
	}

	loaded, err := Load(path, false)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Contract.Address != cfg.Contract.Address {
		t.Errorf("expected saved address, got %q", loaded.Contract.Address)
	}
}
