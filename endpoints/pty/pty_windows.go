//go:build windows

package pty

import (
	"os/exec"
	"strings"

	"github.com/UserExistsError/conpty"
)

func defaultShell() string {
	return "cmd.exe"
}

type windowsPTY struct {
	cpty *conpty.ConPty
}

// quoteArg wraps arg in double quotes if it contains whitespace, the way
// Windows command-line parsing expects multi-word arguments to be quoted.
func quoteArg(arg string) string {
	if strings.ContainsAny(arg, " \t") {
		return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
	}
	return arg
}

func spawnPTY(argv []string, cwd string, rows, cols int) (pty_ pty, err error) {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = quoteArg(a)
	}
	cmdLine := strings.Join(quoted, " ")
	opts := []conpty.ConPtyOption{conpty.ConPtyDimensions(cols, rows)}
	if cwd != "" {
		opts = append(opts, conpty.ConPtyWorkDir(cwd))
	}
	cpty, err := conpty.Start(cmdLine, opts...)
	if err != nil {
		return nil, err
	}
	return &windowsPTY{cpty: cpty}, nil
}

func (w *windowsPTY) Read(p []byte) (int, error)  { return w.cpty.Read(p) }
func (w *windowsPTY) Write(p []byte) (int, error) { return w.cpty.Write(p) }

func (w *windowsPTY) Resize(rows, cols int) error {
	return w.cpty.Resize(cols, rows)
}

func (w *windowsPTY) Close() error {
	return w.cpty.Close()
}

func runShutdownCommand(command, cwd string) {
	cmd := exec.Command("cmd.exe", "/C", command)
	if cwd != "" {
		cmd.Dir = cwd
	}
	cmd.Run()
}
