// FILE: trafficview/src/cmd/trafficview/flags.go
package main

import (
	"fmt"
	"strings"
)

// FlagConfig holds the options handled before configuration is loaded
type FlagConfig struct {
	ConfigFile  string
	Quiet       bool
	ShowVersion bool

	// Everything else, forwarded to the config builder as overrides
	ConfigArgs []string
}

// parseFlags extracts application flags from args (without the program
// name). Unrecognised arguments pass through; bare "section.key=value"
// overrides get a "--" prefix.
func parseFlags(args []string) (*FlagConfig, error) {
	fc := &FlagConfig{}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		isFlag := strings.HasPrefix(arg, "-")

		switch {
		case isFlag && (name == "c" || name == "config"):
			if !hasValue {
				if i+1 >= len(args) {
					return nil, fmt.Errorf("%s requires a path", arg)
				}
				i++
				value = args[i]
			}
			if value == "" {
				return nil, fmt.Errorf("%s requires a path", arg)
			}
			fc.ConfigFile = value

		case isFlag && (name == "q" || name == "quiet"):
			fc.Quiet = !hasValue || value == "true"

		case isFlag && (name == "v" || name == "version"):
			fc.ShowVersion = true

		case !isFlag && hasValue && name != "":
			fc.ConfigArgs = append(fc.ConfigArgs, "--"+arg)

		default:
			fc.ConfigArgs = append(fc.ConfigArgs, arg)
		}
	}

	return fc, nil
}
