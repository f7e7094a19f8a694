// FILE: trafficview/src/cmd/trafficview/commands/commands_test.go
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"trafficview/src/internal/config"
	"trafficview/src/internal/core"
	"trafficview/src/internal/objstore"
	"trafficview/src/internal/version"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*CommandRouter, *bytes.Buffer) {
	var out bytes.Buffer
	r := NewCommandRouter()
	r.output = &out
	return r, &out
}

func TestCommandRouter_Route(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		handled bool
		wantErr bool
		output  string
	}{
		{"NoArgs", []string{"trafficview"}, false, false, ""},
		{"Flag", []string{"trafficview", "-c", "x.toml"}, false, false, ""},
		{"Override", []string{"trafficview", "fetch.range=last_hour"}, false, false, ""},
		{"Unknown", []string{"trafficview", "serve"}, false, true, ""},
		{"GeneralHelp", []string{"trafficview", "--help"}, true, false, "Commands:"},
		{"HelpCommand", []string{"trafficview", "help"}, true, false, "check"},
		{"CommandHelp", []string{"trafficview", "check", "-h"}, true, false, "Check Command"},
		{"HelpForCommand", []string{"trafficview", "help", "tls"}, true, false, "TLS Command"},
		{"HelpForUnknown", []string{"trafficview", "help", "nope"}, true, true, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, out := newTestRouter()
			handled, err := r.Route(tc.args)
			assert.Equal(t, tc.handled, handled)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tc.output != "" {
				assert.Contains(t, out.String(), tc.output)
			}
		})
	}
}

func TestHelpCommand_ListsAllCommands(t *testing.T) {
	r, _ := newTestRouter()
	list := NewHelpCommand(r).formatCommandList()
	for _, name := range []string{"auth", "check", "help", "tls", "version"} {
		assert.Contains(t, list, name)
	}
}

func newTestCheck(mem *objstore.MemoryStore) (*CheckCommand, *bytes.Buffer) {
	var out bytes.Buffer
	return &CheckCommand{
		output: &out,
		errOut: &bytes.Buffer{},
		openStore: func(config.StorageConfig, *log.Logger) (objstore.Store, error) {
			return mem, nil
		},
	}, &out
}

func checkConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Type = "directory"
	cfg.Storage.Directory = "unused"
	return cfg
}

func TestCheckCommand_Run(t *testing.T) {
	now := time.Now()
	mem := objstore.NewMemoryStore()
	mem.Put("old.ndjson", now.Add(-48*time.Hour), []byte("{}\n"))
	mem.Put("new.ndjson", now.Add(-time.Minute), []byte("{\"a\":1}\n"))
	mem.Put("newer.ndjson", now.Add(-30*time.Second), []byte("{\"a\":2}\n"))

	t.Run("Summary", func(t *testing.T) {
		c, out := newTestCheck(mem)
		cfg := checkConfig()
		cfg.Fetch.Range = "last_day"
		cfg.Fetch.MaxObjects = 1

		require.NoError(t, c.run(context.Background(), cfg, log.NewLogger(), true))
		s := out.String()
		assert.Contains(t, s, "Listed:    3 objects")
		assert.Contains(t, s, "In range:  2 objects")
		assert.Contains(t, s, "Selected:  1 objects")
		assert.Contains(t, s, "capped")
		assert.Contains(t, s, "newer.ndjson")
		assert.NotContains(t, s, "old.ndjson")
	})

	t.Run("ConfigError", func(t *testing.T) {
		c, _ := newTestCheck(mem)
		cfg := checkConfig()
		cfg.Storage.Directory = ""

		err := c.run(context.Background(), cfg, log.NewLogger(), false)
		var cfgErr *core.ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("Unreachable", func(t *testing.T) {
		broken := objstore.NewMemoryStore()
		broken.ListErr = errors.New("access denied")
		c, _ := newTestCheck(broken)

		err := c.run(context.Background(), checkConfig(), log.NewLogger(), false)
		var connErr *core.ConnectivityError
		assert.True(t, errors.As(err, &connErr))
	})
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := &VersionCommand{output: &out}

	require.NoError(t, cmd.Execute(nil))
	assert.True(t, strings.HasPrefix(out.String(), "trafficview "), out.String())

	out.Reset()
	require.NoError(t, cmd.Execute([]string{"--short"}))
	assert.Equal(t, version.Short()+"\n", out.String())

	out.Reset()
	require.NoError(t, cmd.Execute([]string{"--json"}))
	var info version.Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "trafficview", info.Name)
	assert.NotEmpty(t, info.GoVersion)

	assert.Error(t, cmd.Execute([]string{"--bogus"}))
}
