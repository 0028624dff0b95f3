//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop a build --watch or a serve.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
