//go:build windows

package main

import "os"

// shutdownSignals stop a build --watch or a serve.
// syscall.SIGTERM is never delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
