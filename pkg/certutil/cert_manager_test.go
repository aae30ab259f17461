package certutil

import (
	"crypto/x509"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCertificateGeneratesAndReuses(t *testing.T) {
	cm := NewCertificateManager(t.TempDir())

	first, err := cm.EnsureCertificate("vault.example.com")
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(first.Certificate[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"vault.example.com"}, leaf.DNSNames)
	assert.NoError(t, leaf.VerifyHostname("vault.example.com"))

	certPath, keyPath := cm.Paths("vault.example.com")
	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	_, err = os.Stat(certPath)
	require.NoError(t, err)

	second, err := cm.EnsureCertificate("vault.example.com")
	require.NoError(t, err)
	assert.Equal(t, first.Certificate[0], second.Certificate[0])
}

func TestEnsureCertificateDefaults(t *testing.T) {
	cm := NewCertificateManager(t.TempDir())

	cert, err := cm.EnsureCertificate("")
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.NoError(t, leaf.VerifyHostname("localhost"))
	assert.NoError(t, leaf.VerifyHostname("127.0.0.1"))

	cert, err = cm.EnsureCertificate("10.0.0.5")
	require.NoError(t, err)
	leaf, err = x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.Empty(t, leaf.DNSNames)
	assert.NoError(t, leaf.VerifyHostname("10.0.0.5"))
}

func TestEnsureCertificateRenewsExpired(t *testing.T) {
	cm := NewCertificateManager(t.TempDir())

	old, err := cm.EnsureCertificate("localhost")
	require.NoError(t, err)

	cm.now = func() time.Time { return time.Now().Add(2 * Validity) }
	renewed, err := cm.EnsureCertificate("localhost")
	require.NoError(t, err)
	assert.NotEqual(t, old.Certificate[0], renewed.Certificate[0])
}
