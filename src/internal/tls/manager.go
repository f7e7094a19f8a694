// FILE: trafficview/src/internal/tls/manager.go
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"trafficview/src/internal/config"

	"github.com/dustin/go-humanize"
	"github.com/lixenwraith/log"
)

// Certificates closer than this to expiry are warned about at startup
const expiryWarning = 30 * 24 * time.Hour

var versions = map[string]uint16{
	"TLS1.2": tls.VersionTLS12,
	"TLS12":  tls.VersionTLS12,
	"TLS1.3": tls.VersionTLS13,
	"TLS13":  tls.VersionTLS13,
}

// Manager serves the API certificate
type Manager struct {
	tlsConfig *tls.Config
	subject   string
	notAfter  time.Time
	now       func() time.Time
}

// NewManager loads the configured key pair. A nil Manager means plain HTTP.
func NewManager(cfg *config.TLSConfig, logger *log.Logger) (*Manager, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	pair, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load cert/key: %w", err)
	}
	leaf := pair.Leaf
	if leaf == nil {
		if leaf, err = x509.ParseCertificate(pair.Certificate[0]); err != nil {
			return nil, fmt.Errorf("failed to parse certificate %s: %w", cfg.CertFile, err)
		}
	}

	minVersion := uint16(tls.VersionTLS12)
	if v, ok := versions[strings.ToUpper(cfg.MinVersion)]; ok {
		minVersion = v
	}

	m := &Manager{
		tlsConfig: &tls.Config{
			Certificates: []tls.Certificate{pair},
			MinVersion:   minVersion,
			// TLS 1.3 suites are fixed by crypto/tls; this list covers 1.2
			CipherSuites: []uint16{
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
			},
			Renegotiation: tls.RenegotiateNever,
			// fasthttp speaks HTTP/1.1 only
			NextProtos: []string{"http/1.1"},
		},
		subject:  leaf.Subject.CommonName,
		notAfter: leaf.NotAfter,
		now:      time.Now,
	}

	logger.Info("msg", "Serving HTTPS",
		"component", "tls",
		"cert_file", cfg.CertFile,
		"subject", m.subject,
		"expires", m.notAfter.UTC().Format(time.RFC3339),
		"min_version", tls.VersionName(minVersion))

	if left := m.notAfter.Sub(m.now()); left < expiryWarning {
		logger.Warn("msg", "TLS certificate expires soon",
			"component", "tls",
			"subject", m.subject,
			"expires", humanize.Time(m.notAfter))
	}

	return m, nil
}

// GetHTTPConfig returns a private copy for one server.
func (m *Manager) GetHTTPConfig() *tls.Config {
	if m == nil {
		return nil
	}
	return m.tlsConfig.Clone()
}

func (m *Manager) GetStats() map[string]any {
	if m == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled":     true,
		"subject":     m.subject,
		"expires":     m.notAfter.UTC().Format(time.RFC3339),
		"expires_in":  humanize.RelTime(m.now(), m.notAfter, "ago", ""),
		"min_version": tls.VersionName(m.tlsConfig.MinVersion),
	}
}
