//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"sioba/iface"
)

// installResizeHandler watches SIGWINCH and forwards the controlling
// terminal's new size to endpoint, so a resized window reaches the backing
// pty/interface.
func installResizeHandler(endpoint iface.Interface, stdinFd int) {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)

	applySize := func() {
		if cols, rows, err := term.GetSize(stdinFd); err == nil {
			endpoint.UpdateTerminalMetadata("stdio", rows, cols)
		}
	}
	applySize()

	go func() {
		for range winch {
			applySize()
		}
	}()
}
