// FILE: trafficview/src/cmd/trafficview/commands/auth.go
package commands

import (
	"trafficview/src/internal/auth"
)

// AuthCommand generates API credentials
type AuthCommand struct{}

func NewAuthCommand() *AuthCommand {
	return &AuthCommand{}
}

func (c *AuthCommand) Execute(args []string) error {
	return auth.NewGeneratorCommand().Execute(args)
}

func (c *AuthCommand) Description() string {
	return "Generate API credentials (password hashes, bearer tokens)"
}

func (c *AuthCommand) Help() string {
	return `Auth Command - Generate API credentials

Usage:
  trafficview auth -u <user> [-p <password>]   Argon2id hash for [server.auth.basic_auth]
  trafficview auth -t [-l <bytes>]             Random bearer token

The password is prompted for when -p is omitted. Output is a TOML fragment
ready to paste into the configuration file.
`
}
