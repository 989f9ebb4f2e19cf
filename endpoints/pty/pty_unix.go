//go:build !windows

package pty

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/bash"
}

type unixPTY struct {
	ptmx *os.File
	cmd  *exec.Cmd
}

func spawnPTY(argv []string, cwd string, rows, cols int) (pty_ pty, err error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, err
	}
	return &unixPTY{ptmx: ptmx, cmd: cmd}, nil
}

func (u *unixPTY) Read(p []byte) (int, error)  { return u.ptmx.Read(p) }
func (u *unixPTY) Write(p []byte) (int, error) { return u.ptmx.Write(p) }

func (u *unixPTY) Resize(rows, cols int) error {
	return pty.Setsize(u.ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

func (u *unixPTY) Close() error {
	if u.cmd.Process != nil {
		u.cmd.Process.Kill()
	}
	return u.ptmx.Close()
}

func runShutdownCommand(command, cwd string) {
	cmd := exec.Command(defaultShell(), "-c", command)
	if cwd != "" {
		cmd.Dir = cwd
	}
	cmd.Run()
}
