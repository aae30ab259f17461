// Package certutil provides self-signed certificates for the HTTPS gateway
// when neither certificate files nor ACME are configured.
package certutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Validity is how long a generated certificate lasts.
const Validity = 365 * 24 * time.Hour

// CertificateManager stores self-signed certificates under a directory.
type CertificateManager struct {
	baseDir string
	now     func() time.Time
}

// NewCertificateManager creates a manager rooted at baseDir.
func NewCertificateManager(baseDir string) *CertificateManager {
	return &CertificateManager{baseDir: baseDir, now: time.Now}
}

// Paths returns where the certificate and key for hostname are kept.
func (cm *CertificateManager) Paths(hostname string) (certPath, keyPath string) {
	name := hostname
	if name == "" {
		name = "localhost"
	}
	return filepath.Join(cm.baseDir, name+".crt"), filepath.Join(cm.baseDir, name+".key")
}

// EnsureCertificate loads the certificate for hostname, generating a new one
// when none exists or the stored one has expired.
func (cm *CertificateManager) EnsureCertificate(hostname string) (tls.Certificate, error) {
	if hostname == "" {
		hostname = "localhost"
	}
	certPath, keyPath := cm.Paths(hostname)

	if certPEM, err := os.ReadFile(certPath); err == nil {
		keyPEM, err := os.ReadFile(keyPath)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to read key: %w", err)
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load certificate %s: %w", certPath, err)
		}
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err == nil && cm.now().Before(leaf.NotAfter) {
			cert.Leaf = leaf
			return cert, nil
		}
	}

	certPEM, keyPEM, err := cm.generate(hostname)
	if err != nil {
		return tls.Certificate{}, err
	}
	if err := os.MkdirAll(cm.baseDir, 0700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create cert directory: %w", err)
	}
	if err := os.WriteFile(certPath, certPEM, 0644); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0600); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to write key: %w", err)
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}

func (cm *CertificateManager) generate(hostname string) ([]byte, []byte, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := cm.now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   hostname,
			Organization: []string{"File Integrity Vault"},
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(Validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	if ip := net.ParseIP(hostname); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{hostname}
		if hostname == "localhost" {
			template.IPAddresses = []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}
		}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}
