// FILE: trafficview/src/cmd/trafficview/commands/version.go
package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"trafficview/src/internal/version"
)

// VersionCommand prints build information.
type VersionCommand struct {
	output io.Writer
}

func NewVersionCommand() *VersionCommand {
	return &VersionCommand{output: os.Stdout}
}

func (c *VersionCommand) Execute(args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	short := fs.Bool("short", false, "")
	asJSON := fs.Bool("json", false, "")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *asJSON:
		enc := json.NewEncoder(c.output)
		enc.SetIndent("", "  ")
		return enc.Encode(version.Get())
	case *short:
		fmt.Fprintln(c.output, version.Short())
	default:
		fmt.Fprintln(c.output, version.String())
	}
	return nil
}

func (c *VersionCommand) Description() string {
	return "Print version, commit and build details"
}

func (c *VersionCommand) Help() string {
	return `Version Command

Usage:
  trafficview version [--short | --json]

  --short   version tag only
  --json    the same document /status reports under "version"
`
}
