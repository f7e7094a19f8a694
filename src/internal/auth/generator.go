// FILE: trafficview/src/internal/auth/generator.go
package auth

import (
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"trafficview/src/internal/core"

	"golang.org/x/term"
)

// GeneratorCommand prints credentials ready to paste into the config
type GeneratorCommand struct {
	output io.Writer
	errOut io.Writer

	// Reads a password without echo; replaced in tests
	readPassword func(prompt string) (string, error)
}

func NewGeneratorCommand() *GeneratorCommand {
	g := &GeneratorCommand{
		output: os.Stdout,
		errOut: os.Stderr,
	}
	g.readPassword = g.promptPassword
	return g
}

func (g *GeneratorCommand) Execute(args []string) error {
	cmd := flag.NewFlagSet("auth", flag.ContinueOnError)
	cmd.SetOutput(g.errOut)

	var (
		username = cmd.String("u", "", "Username for basic auth")
		password = cmd.String("p", "", "Password to hash (will prompt if not provided)")
		genToken = cmd.Bool("t", false, "Generate random bearer token")
		tokenLen = cmd.Int("l", core.DefaultTokenLength, "Token length in bytes")
	)

	cmd.Usage = func() {
		fmt.Fprintln(g.errOut, "Generate API credentials for trafficview")
		fmt.Fprintln(g.errOut, "\nUsage: trafficview auth [options]")
		fmt.Fprintln(g.errOut, "\nExamples:")
		fmt.Fprintln(g.errOut, "  # Generate Argon2id hash for user")
		fmt.Fprintln(g.errOut, "  trafficview auth -u admin")
		fmt.Fprintln(g.errOut, "  ")
		fmt.Fprintln(g.errOut, "  # Generate 64-byte bearer token")
		fmt.Fprintln(g.errOut, "  trafficview auth -t -l 64")
		fmt.Fprintln(g.errOut, "\nOptions:")
		cmd.PrintDefaults()
	}

	if err := cmd.Parse(args); err != nil {
		return err
	}

	if *genToken {
		return g.generateToken(*tokenLen)
	}

	if *username == "" {
		cmd.Usage()
		return fmt.Errorf("username required for password hash generation")
	}

	return g.generatePasswordHash(*username, *password)
}

func (g *GeneratorCommand) generatePasswordHash(username, password string) error {
	if password == "" {
		pass1, err := g.readPassword("Enter password: ")
		if err != nil {
			return err
		}
		pass2, err := g.readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if pass1 != pass2 {
			return fmt.Errorf("passwords don't match")
		}
		password = pass1
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	phcHash, err := HashPassword(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(g.output, "\n# TOML Configuration (add to trafficview.toml):")
	fmt.Fprintln(g.output, "[[server.auth.basic_auth.users]]")
	fmt.Fprintf(g.output, "username = %q\n", username)
	fmt.Fprintf(g.output, "password_hash = %q\n\n", phcHash)

	fmt.Fprintln(g.output, "# Users File Format (for server.auth.basic_auth.users_file):")
	fmt.Fprintf(g.output, "%s:%s\n", username, phcHash)

	return nil
}

func (g *GeneratorCommand) generateToken(length int) error {
	if length < 16 {
		fmt.Fprintln(g.errOut, "Warning: tokens < 16 bytes are cryptographically weak")
	}
	if length > 512 {
		return fmt.Errorf("token length exceeds maximum (512 bytes)")
	}

	token, err := GenerateToken(length)
	if err != nil {
		return fmt.Errorf("failed to generate random bytes: %w", err)
	}
	raw, _ := base64.RawURLEncoding.DecodeString(token)

	fmt.Fprintln(g.output, "\n# TOML Configuration (add to trafficview.toml):")
	fmt.Fprintln(g.output, "[server.auth.bearer_auth]")
	fmt.Fprintf(g.output, "tokens = [%q]\n\n", token)

	fmt.Fprintln(g.output, "# Generated Token:")
	fmt.Fprintf(g.output, "Base64: %s\n", token)
	fmt.Fprintf(g.output, "Hex:    %s\n", hex.EncodeToString(raw))

	return nil
}

func (g *GeneratorCommand) promptPassword(prompt string) (string, error) {
	fmt.Fprint(g.errOut, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(g.errOut)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
