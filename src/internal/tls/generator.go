// FILE: trafficview/src/internal/tls/generator.go
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"strings"
	"time"
)

// CertGeneratorCommand writes a self-signed server certificate for local deployments
type CertGeneratorCommand struct {
	output io.Writer
	errOut io.Writer
}

func NewCertGeneratorCommand() *CertGeneratorCommand {
	return &CertGeneratorCommand{
		output: os.Stdout,
		errOut: os.Stderr,
	}
}

func (cg *CertGeneratorCommand) Execute(args []string) error {
	cmd := flag.NewFlagSet("tls", flag.ContinueOnError)
	cmd.SetOutput(cg.errOut)

	var (
		commonName = cmd.String("cn", "localhost", "Common name")
		org        = cmd.String("org", "TrafficView", "Organization")
		hosts      = cmd.String("hosts", "localhost,127.0.0.1", "Comma-separated hostnames/IPs")
		validDays  = cmd.Int("days", 365, "Validity period in days")
		certOut    = cmd.String("cert-out", "server.crt", "Output certificate file")
		keyOut     = cmd.String("key-out", "server.key", "Output key file")
	)

	cmd.Usage = func() {
		fmt.Fprintln(cg.errOut, "Generate a self-signed TLS certificate for TrafficView")
		fmt.Fprintln(cg.errOut, "\nUsage: trafficview tls [options]")
		fmt.Fprintln(cg.errOut, "\nExample:")
		fmt.Fprintln(cg.errOut, "  trafficview tls --cn dashboard.local --hosts dashboard.local,10.0.0.5")
		fmt.Fprintln(cg.errOut, "\nOptions:")
		cmd.PrintDefaults()
		fmt.Fprintln(cg.errOut)
	}

	if err := cmd.Parse(args); err != nil {
		return err
	}

	if *commonName == "" {
		cmd.Usage()
		return fmt.Errorf("common name (--cn) is required")
	}
	if *validDays <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	certDER, key, err := GenerateSelfSigned(*commonName, *org, *hosts, *validDays)
	if err != nil {
		return err
	}
	if err := saveCert(*certOut, certDER); err != nil {
		return err
	}
	if err := saveKey(*keyOut, key); err != nil {
		return err
	}

	fmt.Fprintf(cg.output, "Self-signed certificate generated:\n")
	fmt.Fprintf(cg.output, "  Certificate: %s\n", *certOut)
	fmt.Fprintf(cg.output, "  Private key: %s (mode 0600)\n", *keyOut)
	fmt.Fprintf(cg.output, "  Valid for:   %d days\n", *validDays)
	fmt.Fprintf(cg.output, "  Hosts:       %s\n", *hosts)
	return nil
}

// GenerateSelfSigned returns a DER certificate and its ECDSA P-256 key
func GenerateSelfSigned(cn, org, hosts string, days int) ([]byte, *ecdsa.PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial: %w", err)
	}

	dnsNames, ipAddrs := parseHosts(hosts)
	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{org},
		},
		NotBefore:   now.Add(-time.Minute),
		NotAfter:    now.AddDate(0, 0, days),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:    dnsNames,
		IPAddresses: ipAddrs,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	return certDER, priv, nil
}

func parseHosts(hostList string) ([]string, []net.IP) {
	var dnsNames []string
	var ipAddrs []net.IP

	for _, h := range strings.Split(hostList, ",") {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if ip := net.ParseIP(h); ip != nil {
			ipAddrs = append(ipAddrs, ip)
		} else {
			dnsNames = append(dnsNames, h)
		}
	}

	return dnsNames, ipAddrs
}

func saveCert(filename string, certDER []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	return nil
}

func saveKey(filename string, key *ecdsa.PrivateKey) error {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}
