//go:build windows

package main

import (
	"golang.org/x/term"

	"sioba/iface"
)

// installResizeHandler applies the current terminal size once; Windows has
// no SIGWINCH, and polling the console for resize events is out of scope.
func installResizeHandler(endpoint iface.Interface, stdinFd int) {
	if cols, rows, err := term.GetSize(stdinFd); err == nil {
		endpoint.UpdateTerminalMetadata("stdio", rows, cols)
	}
}
