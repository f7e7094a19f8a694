// FILE: trafficview/src/cmd/trafficview/output.go
package main

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// console carries the few messages printed outside the logger: the
// startup banner and errors raised before logging is up.
type console struct {
	out   io.Writer
	err   io.Writer
	quiet atomic.Bool
}

var stdio = &console{out: os.Stdout, err: os.Stderr}

func (c *console) setQuiet(quiet bool) {
	c.quiet.Store(quiet)
}

func (c *console) printf(format string, args ...any) {
	if !c.quiet.Load() {
		fmt.Fprintf(c.out, format, args...)
	}
}

func (c *console) errorf(format string, args ...any) {
	if !c.quiet.Load() {
		fmt.Fprintf(c.err, format, args...)
	}
}

// fatalf prints even in quiet mode; a process that refuses to start says why.
func (c *console) fatalf(code int, format string, args ...any) {
	fmt.Fprintf(c.err, format, args...)
	os.Exit(code)
}
