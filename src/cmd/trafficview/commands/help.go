// FILE: trafficview/src/cmd/trafficview/commands/help.go
package commands

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
)

const generalHelpTemplate = `trafficview - browse NDJSON traffic logs merged from object storage

Usage:
  trafficview [-c file] [-q] [section.key=value ...]
  trafficview <command> [arguments]

Commands:
%s

Serve flags:
  -c, --config <path>   configuration file (default: trafficview.toml)
  -q, --quiet           no console output
  -v, --version         print version and exit
  -h, --help            this text

Overrides take the form --fetch.range=last_day or storage.container=logs
and win over TRAFFICVIEW_* environment variables, which win over the file.
The legacy variables AZURE_STORAGE_ACCOUNT, AZURE_STORAGE_KEY,
AZURE_CONTAINER, PORT, MAX_BLOBS and OUTPUT_DIR fill keys nothing else set.

HTTP endpoints:
  GET  /data[.json|.csv|.ndjson]   merged records (?view=all|curated)
  POST /reload[?wait=1]            rebuild the dataset
  GET  /status                     controller state and counters
  GET|PUT|PATCH /config            read or update storage, fetch and view
  POST /config/test                probe a candidate configuration

Signals: SIGHUP or SIGUSR1 reloads, SIGINT or SIGTERM stops.

Run 'trafficview help <command>' for command arguments.
`

// HelpCommand prints the overview or one command's help.
type HelpCommand struct {
	router *CommandRouter
}

func NewHelpCommand(router *CommandRouter) *HelpCommand {
	return &HelpCommand{router: router}
}

func (c *HelpCommand) Execute(args []string) error {
	if len(args) == 0 || args[0] == "" {
		fmt.Fprintf(c.router.output, generalHelpTemplate, c.formatCommandList())
		return nil
	}

	handler, ok := c.router.GetCommand(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	fmt.Fprint(c.router.output, handler.Help())
	return nil
}

func (c *HelpCommand) Description() string {
	return "Show usage for trafficview or one of its commands"
}

func (c *HelpCommand) Help() string {
	return `Help Command

Usage:
  trafficview help [command]
`
}

func (c *HelpCommand) formatCommandList() string {
	commands := c.router.GetCommands()
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, commands[name].Description())
	}
	tw.Flush()
	return strings.TrimRight(sb.String(), "\n")
}
