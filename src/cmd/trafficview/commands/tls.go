// FILE: trafficview/src/cmd/trafficview/commands/tls.go
package commands

import (
	"trafficview/src/internal/tls"
)

// TLSCommand writes a self-signed certificate pair
type TLSCommand struct{}

func NewTLSCommand() *TLSCommand {
	return &TLSCommand{}
}

func (c *TLSCommand) Execute(args []string) error {
	return tls.NewCertGeneratorCommand().Execute(args)
}

func (c *TLSCommand) Description() string {
	return "Generate a self-signed TLS certificate"
}

func (c *TLSCommand) Help() string {
	return `TLS Command - Generate a self-signed certificate for the API server

Usage:
  trafficview tls [--cn <name>] [--hosts <h1,h2>] [--days <n>]
                  [--cert-out <file>] [--key-out <file>]

Point [server.tls] cert_file and key_file at the generated files.
`
}
