package config

import "time"

// GatewayConfig contains the local HTTP gateway configuration
type GatewayConfig struct {
	Enabled        bool          `yaml:"enabled"`          // Enable the HTTP gateway for `fvault serve`
	ListenAddr     string        `yaml:"listen_addr"`      // Address to listen on (e.g., "127.0.0.1:8545")
	RequestTimeout time.Duration `yaml:"request_timeout"`  // Per-request timeout, covers waiting for a receipt
	MaxUploadBytes int64         `yaml:"max_upload_bytes"` // Upper bound for multipart hash uploads
	AllowedOrigins []string      `yaml:"allowed_origins"`  // WebSocket origins; empty allows same-host only
	HTTPS          HTTPSConfig   `yaml:"https"`            // HTTPS/TLS configuration
}

// HTTPSConfig contains HTTPS/TLS configuration for the gateway
type HTTPSConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Serve over HTTPS
	Domain     string `yaml:"domain"`      // Domain the certificate is issued for
	AutoCert   bool   `yaml:"auto_cert"`   // Use Let's Encrypt for automatic certificate
	SelfSigned bool   `yaml:"self_signed"` // Generate a self-signed certificate for Domain
	CertFile   string `yaml:"cert_file"`   // Path to certificate file (if not using auto_cert)
	KeyFile    string `yaml:"key_file"`    // Path to key file (if not using auto_cert)
	CacheDir   string `yaml:"cache_dir"`   // Directory for Let's Encrypt or self-signed certificates
	HTTPPort   int    `yaml:"http_port"`   // HTTP port for ACME challenge (default: 80)
	HTTPSPort  int    `yaml:"https_port"`  // HTTPS port (default: 443)
	Email      string `yaml:"email"`       // Email for Let's Encrypt account
}
