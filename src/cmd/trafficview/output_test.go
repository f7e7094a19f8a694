// FILE: trafficview/src/cmd/trafficview/output_test.go
package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_Quiet(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &console{out: &out, err: &errOut}

	c.printf("listening on %s\n", ":8080")
	c.errorf("shutdown: %v\n", "timeout")
	assert.Equal(t, "listening on :8080\n", out.String())
	assert.Equal(t, "shutdown: timeout\n", errOut.String())

	out.Reset()
	errOut.Reset()
	c.setQuiet(true)
	c.printf("banner\n")
	c.errorf("noise\n")
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}
