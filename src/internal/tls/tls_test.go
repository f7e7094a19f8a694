// FILE: trafficview/src/internal/tls/tls_test.go
package tls

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"path/filepath"
	"testing"

	"trafficview/src/internal/config"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func writeTestPair(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	cmd := &CertGeneratorCommand{output: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	require.NoError(t, cmd.Execute([]string{"-cert-out", certFile, "-key-out", keyFile, "-hosts", "localhost,127.0.0.1"}))
	return certFile, keyFile
}

func TestGenerateSelfSigned(t *testing.T) {
	der, key, err := GenerateSelfSigned("example.local", "Test", "example.local, 10.0.0.1", 30)
	require.NoError(t, err)
	require.NotNil(t, key)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	assert.Equal(t, "example.local", cert.Subject.CommonName)
	assert.Equal(t, []string{"example.local"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.Equal(t, "10.0.0.1", cert.IPAddresses[0].String())
}

func TestNewManager(t *testing.T) {
	logger := newTestLogger()

	t.Run("Disabled", func(t *testing.T) {
		m, err := NewManager(&config.TLSConfig{}, logger)
		require.NoError(t, err)
		assert.Nil(t, m)
		assert.Nil(t, m.GetHTTPConfig())
		assert.Equal(t, false, m.GetStats()["enabled"])
	})

	t.Run("MissingFiles", func(t *testing.T) {
		_, err := NewManager(&config.TLSConfig{Enabled: true, CertFile: "/nonexistent.crt", KeyFile: "/nonexistent.key"}, logger)
		assert.Error(t, err)
	})

	t.Run("Loaded", func(t *testing.T) {
		certFile, keyFile := writeTestPair(t)
		m, err := NewManager(&config.TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile, MinVersion: "TLS1.3"}, logger)
		require.NoError(t, err)

		cfg := m.GetHTTPConfig()
		require.NotNil(t, cfg)
		assert.Len(t, cfg.Certificates, 1)
		assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
		assert.Equal(t, []string{"http/1.1"}, cfg.NextProtos)

		stats := m.GetStats()
		assert.Equal(t, "TLS 1.3", stats["min_version"])
		assert.Equal(t, "localhost", stats["subject"])
		assert.NotEmpty(t, stats["expires"])

		// Copies are independent
		cfg.NextProtos = nil
		assert.Equal(t, []string{"http/1.1"}, m.GetHTTPConfig().NextProtos)
	})
}

func TestCertGeneratorCommand_RejectsBadDays(t *testing.T) {
	cmd := &CertGeneratorCommand{output: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	assert.Error(t, cmd.Execute([]string{"-days", "0"}))
}
