// Package pty implements the "exec" endpoint scheme: it spawns a shell (or
// any command) connected to a pseudo-terminal and relays bytes between the
// child process and the frontend, the terminal equivalent of the teacher's
// SSH session backing a shell. Platform-specific spawn/resize/write live in
// pty_unix.go (github.com/creack/pty) and pty_windows.go
// (github.com/UserExistsError/conpty); this file holds everything shared.
package pty

import (
	sioctx "sioba/context"
	sioerr "sioba/errors"
	"sioba/iface"
)

func init() {
	iface.RegisterScheme(New, "exec")
}

var defaultContext = sioctx.WithDefaults(nil, sioctx.WithConvertEol(false), sioctx.WithLocalEcho(false))

// pty abstracts the platform-specific pseudo-terminal handle.
type pty interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Resize(rows, cols int) error
	Close() error
}

// Endpoint spawns argv in a pty and relays bytes in both directions.
type Endpoint struct {
	*iface.Base

	argv            []string
	shutdownCommand string
	cwd             string

	handle pty
}

// New builds a pty Endpoint. The command to run is taken from the URI path
// plus any repeated "arg" query parameters (exec:///bin/bash?arg=-c&arg=pwd
// spawns "/bin/bash -c pwd"); if the URI carries no path, it falls back to
// the "cmd" query parameter run through the default shell's -c, and finally
// to the default shell with no arguments. "shutdown_cmd" and "cwd" configure
// shutdown behavior and the working directory; everything else falls
// through to the common Context fields (rows, cols, scrollback, ...).
func New(uri string, overrides ...sioctx.Option) (iface.Interface, error) {
	ctx, err := sioctx.FromURI(uri, defaultContext, overrides...)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{
		argv:            buildArgv(ctx),
		shutdownCommand: stringField(ctx, "shutdown_cmd", ""),
		cwd:             stringField(ctx, "cwd", ""),
	}

	base, err := iface.New(e, ctx)
	if err != nil {
		return nil, err
	}
	e.Base = base
	return e, nil
}

func stringField(ctx *sioctx.Context, key, def string) string {
	if v, ok := ctx.Get(key, nil).(string); ok {
		return v
	}
	return def
}

// buildArgv resolves the child command's argv from the URI. A non-empty
// path is the command itself, with repeated "arg" query values as its
// arguments. Otherwise the legacy "cmd" query parameter is run through the
// default shell's -c, and absent that the default shell runs with no
// arguments.
func buildArgv(ctx *sioctx.Context) []string {
	if ctx.Path != nil && *ctx.Path != "" {
		argv := []string{*ctx.Path}
		if args := ctx.Query["arg"]; len(args) > 0 {
			argv = append(argv, args...)
		}
		return argv
	}
	if cmd := stringField(ctx, "cmd", ""); cmd != "" {
		return []string{defaultShell(), "-c", cmd}
	}
	return []string{defaultShell()}
}

func (e *Endpoint) StartInterface() error {
	handle, err := spawnPTY(e.argv, e.cwd, e.Base.Rows(), e.Base.Cols())
	if err != nil {
		return sioerr.Wrap("StartInterface", sioerr.ConnectionFailed, err)
	}
	e.handle = handle
	go e.readLoop()
	return nil
}

func (e *Endpoint) readLoop() {
	buf := make([]byte, 10240)
	for {
		n, err := e.handle.Read(buf)
		if n > 0 {
			if sendErr := e.Base.SendToFrontend(append([]byte(nil), buf[:n]...)); sendErr != nil {
				return
			}
		}
		if err != nil {
			go e.Base.Shutdown()
			return
		}
	}
}

// WriteToEndpoint writes frontend keystrokes to the child process's stdin.
func (e *Endpoint) WriteToEndpoint(data []byte) error {
	if e.handle == nil {
		return nil
	}
	if _, err := e.handle.Write(data); err != nil {
		return sioerr.Wrap("WriteToEndpoint", sioerr.TransportError, err)
	}
	return nil
}

// ResizeInterface implements iface.Resizer, propagating terminal geometry
// changes to the child's pty (SIGWINCH on unix, a ConPTY resize on Windows).
func (e *Endpoint) ResizeInterface(rows, cols int) error {
	if e.handle == nil {
		return nil
	}
	return e.handle.Resize(rows, cols)
}

func (e *Endpoint) ShutdownInterface() error {
	if e.handle == nil {
		return nil
	}
	err := e.handle.Close()
	if e.shutdownCommand != "" {
		runShutdownCommand(e.shutdownCommand, e.cwd)
	}
	return err
}
