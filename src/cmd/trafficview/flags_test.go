// FILE: trafficview/src/cmd/trafficview/flags_test.go
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected FlagConfig
	}{
		{
			name:     "Empty",
			args:     nil,
			expected: FlagConfig{},
		},
		{
			name:     "ShortConfig",
			args:     []string{"-c", "/etc/tv.toml"},
			expected: FlagConfig{ConfigFile: "/etc/tv.toml"},
		},
		{
			name:     "LongConfigWithEquals",
			args:     []string{"--config=/etc/tv.toml", "-q"},
			expected: FlagConfig{ConfigFile: "/etc/tv.toml", Quiet: true},
		},
		{
			name:     "QuietFalse",
			args:     []string{"--quiet=false"},
			expected: FlagConfig{},
		},
		{
			name:     "Version",
			args:     []string{"--version"},
			expected: FlagConfig{ShowVersion: true},
		},
		{
			name: "OverridesForwarded",
			args: []string{"--fetch.range=last_hour", "server.port=9000", "-c", "a.toml", "--storage.container", "logs"},
			expected: FlagConfig{
				ConfigFile: "a.toml",
				ConfigArgs: []string{"--fetch.range=last_hour", "--server.port=9000", "--storage.container", "logs"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fc, err := parseFlags(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, *fc)
		})
	}
}

func TestParseFlags_MissingConfigPath(t *testing.T) {
	_, err := parseFlags([]string{"-c"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--config="})
	assert.Error(t, err)
}
