package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "network.rpc_urls[0]"
	Message string // e.g., "invalid URL"
	Hint    string // e.g., "expected http(s):// or ws(s)://"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNetwork()...)
	errs = append(errs, c.validateContract()...)
	errs = append(errs, c.validateIPFS()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateGateway()...)

	return errs
}

func (c *Config) validateNetwork() []error {
	var errs []error
	nc := c.Network

	if nc.ChainID == 0 {
		errs = append(errs, ValidationError{
			Path:    "network.chain_id",
			Message: "must be > 0",
			Hint:    "Sepolia is 11155111",
		})
	}

	if nc.ChainName == "" {
		errs = append(errs, ValidationError{
			Path:    "network.chain_name",
			Message: "must not be empty",
		})
	}

	if len(nc.RPCURLs) == 0 {
		errs = append(errs, ValidationError{
			Path:    "network.rpc_urls",
			Message: "must not be empty",
			Hint:    fmt.Sprintf("set %s or add an endpoint to the config file", EnvRPCURL),
		})
	}
	for i, raw := range nc.RPCURLs {
		if err := validateURL(raw, "http", "https", "ws", "wss"); err != nil {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("network.rpc_urls[%d]", i),
				Message: err.Error(),
				Hint:    "expected http(s):// or ws(s)://",
			})
		}
	}

	if nc.BlockExplorerURL != "" {
		if err := validateURL(nc.BlockExplorerURL, "http", "https"); err != nil {
			errs = append(errs, ValidationError{
				Path:    "network.block_explorer_url",
				Message: err.Error(),
			})
		}
	}

	if nc.NativeCurrency.Symbol == "" {
		errs = append(errs, ValidationError{
			Path:    "network.native_currency.symbol",
			Message: "must not be empty",
		})
	}
	if nc.NativeCurrency.Decimals == 0 {
		errs = append(errs, ValidationError{
			Path:    "network.native_currency.decimals",
			Message: "must be > 0",
			Hint:    "ether-like currencies use 18",
		})
	}

	if nc.SOCKS5Proxy != "" {
		if err := validateHostPort(nc.SOCKS5Proxy); err != nil {
			errs = append(errs, ValidationError{
				Path:    "network.socks5_proxy",
				Message: err.Error(),
				Hint:    "expected host:port, e.g. 127.0.0.1:9050",
			})
		}
	}

	return errs
}

func (c *Config) validateContract() []error {
	if !common.IsHexAddress(c.Contract.Address) {
		return []error{ValidationError{
			Path:    "contract.address",
			Message: fmt.Sprintf("invalid address %q", c.Contract.Address),
			Hint:    "expected a 0x-prefixed 20-byte hex address",
		}}
	}
	return nil
}

func (c *Config) validateIPFS() []error {
	var errs []error
	ic := c.IPFS

	if ic.ClusterAPIURL == "" {
		return nil
	}
	if err := validateURL(ic.ClusterAPIURL, "http", "https"); err != nil {
		errs = append(errs, ValidationError{
			Path:    "ipfs.cluster_api_url",
			Message: err.Error(),
		})
	}
	if ic.Timeout < 0 {
		errs = append(errs, ValidationError{
			Path:    "ipfs.timeout",
			Message: fmt.Sprintf("must be >= 0; got %s", ic.Timeout),
		})
	}
	if ic.ReplicationFactor < 0 {
		errs = append(errs, ValidationError{
			Path:    "ipfs.replication_factor",
			Message: fmt.Sprintf("must be >= 0; got %d", ic.ReplicationFactor),
		})
	}
	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	log := c.Logging

	// Validate level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[log.Level] {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("invalid value %q", log.Level),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	// Validate format
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[log.Format] {
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("invalid value %q", log.Format),
			Hint:    "allowed values: json, console",
		})
	}

	// Validate output_file
	if log.OutputFile != "" {
		dir := filepath.Dir(log.OutputFile)
		if dir != "" && dir != "." {
			if err := validateDirWritable(dir); err != nil {
				errs = append(errs, ValidationError{
					Path:    "logging.output_file",
					Message: fmt.Sprintf("parent directory not writable: %v", err),
				})
			}
		}
	}

	return errs
}

func (c *Config) validateGateway() []error {
	var errs []error
	gc := c.Gateway

	if !gc.Enabled {
		return nil
	}

	if err := validateHostPort(gc.ListenAddr); err != nil {
		errs = append(errs, ValidationError{
			Path:    "gateway.listen_addr",
			Message: err.Error(),
			Hint:    "expected host:port, e.g. 127.0.0.1:8545",
		})
	}

	if gc.MaxUploadBytes <= 0 {
		errs = append(errs, ValidationError{
			Path:    "gateway.max_upload_bytes",
			Message: fmt.Sprintf("must be > 0; got %d", gc.MaxUploadBytes),
		})
	}

	if gc.HTTPS.Enabled {
		if gc.HTTPS.Domain == "" {
			errs = append(errs, ValidationError{
				Path:    "gateway.https.domain",
				Message: "must not be empty when HTTPS is enabled",
			})
		}
		if !gc.HTTPS.AutoCert && !gc.HTTPS.SelfSigned && (gc.HTTPS.CertFile == "" || gc.HTTPS.KeyFile == "") {
			errs = append(errs, ValidationError{
				Path:    "gateway.https",
				Message: "cert_file and key_file are required without auto_cert or self_signed",
				Hint:    "set auto_cert: true to use Let's Encrypt",
			})
		}
		if gc.HTTPS.AutoCert && gc.HTTPS.SelfSigned {
			errs = append(errs, ValidationError{
				Path:    "gateway.https",
				Message: "auto_cert and self_signed are mutually exclusive",
			})
		}
		if !gc.HTTPS.AutoCert {
			for path, file := range map[string]string{
				"gateway.https.cert_file": gc.HTTPS.CertFile,
				"gateway.https.key_file":  gc.HTTPS.KeyFile,
			} {
				if file == "" {
					continue
				}
				if err := validateFileReadable(file); err != nil {
					errs = append(errs, ValidationError{Path: path, Message: err.Error()})
				}
			}
		}
	}

	return errs
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}

func validateDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access directory: %v", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory")
	}

	// Try to write a test file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte(""), 0644); err != nil {
		return fmt.Errorf("directory not writable: %v", err)
	}
	os.Remove(testFile)

	return nil
}

func validateFileReadable(path string) error {
	_, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read file: %v", err)
	}
	return nil
}

func validateHostPort(hostPort string) error {
	_, port, err := net.SplitHostPort(hostPort)
	if err != nil {
		return fmt.Errorf("expected format host:port")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535; got %q", port)
	}

	return nil
}
