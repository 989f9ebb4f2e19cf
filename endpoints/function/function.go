// Package function implements the "function" endpoint: a caller-supplied Go
// function runs on its own goroutine and talks to the terminal through
// Print/Input/Getpass, the same way a Python generator-style REPL would
// print prompts and block on raw keystrokes. There is no URI scheme for it
// (a function value cannot be named by a URI), so construction goes through
// New directly rather than the iface scheme registry.
package function

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	sioctx "sioba/context"
	sioerr "sioba/errors"
	"sioba/iface"
)

// CaptureMode controls how WriteToEndpoint interprets incoming bytes.
type CaptureMode int32

const (
	// Discard drops everything except Ctrl-C, which shuts the interface down.
	Discard CaptureMode = iota
	// Echo reflects every byte straight back to the frontend, turning a lone
	// CR into CRLF; Ctrl-C also shuts the interface down.
	Echo
	// Input collects a line into an editable buffer, echoing each keystroke,
	// and delivers the line to the blocked Capture/Input caller on Enter.
	Input
	// Getpass is Input without echoing typed characters back.
	Getpass
)

func (m CaptureMode) String() string {
	switch m {
	case Discard:
		return "discard"
	case Echo:
		return "echo"
	case Input:
		return "input"
	case Getpass:
		return "getpass"
	default:
		return "unknown"
	}
}

// Func is the shape of a function endpoint's body. It receives the Endpoint
// so it can call Print/Input/Getpass, and runs until it returns or the
// interface shuts down.
type Func func(e *Endpoint)

// Endpoint runs fn on a dedicated goroutine, bridging its blocking
// Print/Input/Getpass calls to the async dispatch-loop-driven Base.
type Endpoint struct {
	*iface.Base

	fn Func

	captureMode     atomic.Int32
	lastCaptureMode atomic.Int32

	inputMu     sync.Mutex
	inputBuffer []byte

	inputReady chan []byte
}

var defaultContext = sioctx.WithDefaults(nil, sioctx.WithConvertEol(false), sioctx.WithLocalEcho(false))

// New builds a function Endpoint around fn, which begins running on its own
// goroutine once Start is called.
func New(fn Func, defaultMode CaptureMode, overrides ...sioctx.Option) (*Endpoint, error) {
	ctx := sioctx.WithDefaults(defaultContext, overrides...)

	e := &Endpoint{
		fn:         fn,
		inputReady: make(chan []byte),
	}
	e.captureMode.Store(int32(defaultMode))
	e.lastCaptureMode.Store(int32(defaultMode))

	base, err := iface.New(e, ctx)
	if err != nil {
		return nil, err
	}
	e.Base = base
	return e, nil
}

func (e *Endpoint) StartInterface() error {
	go e.run()
	return nil
}

func (e *Endpoint) run() {
	defer func() {
		if r := recover(); r != nil {
			e.Base.Shutdown()
		}
	}()
	e.fn(e)
}

func (e *Endpoint) ShutdownInterface() error {
	return nil
}

func (e *Endpoint) mode() CaptureMode     { return CaptureMode(e.captureMode.Load()) }
func (e *Endpoint) setMode(m CaptureMode) { e.captureMode.Store(int32(m)) }

// Print formats like fmt.Sprint, rewrites "\n" to "\r\n" for terminal
// display, and sends the result to the frontend. Safe to call from the
// function's own goroutine at any time after Start.
func (e *Endpoint) Print(a ...any) error {
	return e.print(fmt.Sprint(a...))
}

// Printf is Print with fmt.Sprintf-style formatting.
func (e *Endpoint) Printf(format string, a ...any) error {
	return e.print(fmt.Sprintf(format, a...))
}

func (e *Endpoint) print(text string) error {
	switch e.Base.State() {
	case iface.StateInitialized:
		return sioerr.Wrap("Print", sioerr.NotStarted, sioerr.ErrNotStarted)
	case iface.StateShutdown:
		return sioerr.Wrap("Print", sioerr.TerminalClosed, sioerr.ErrTerminalClosed)
	}
	text = strings.ReplaceAll(text, "\n", "\r\n")
	return e.Base.SendToFrontend([]byte(text))
}

// Capture prints prompt, switches to mode, and blocks the calling goroutine
// until a full line is captured (Enter pressed) or the interface shuts
// down, then restores the previous capture mode.
func (e *Endpoint) Capture(prompt string, mode CaptureMode) (string, error) {
	switch e.Base.State() {
	case iface.StateInitialized:
		return "", sioerr.Wrap("Capture", sioerr.NotStarted, sioerr.ErrNotStarted)
	case iface.StateShutdown:
		return "", sioerr.Wrap("Capture", sioerr.TerminalClosed, sioerr.ErrTerminalClosed)
	}

	e.inputMu.Lock()
	e.inputBuffer = nil
	e.inputMu.Unlock()

	e.lastCaptureMode.Store(int32(e.mode()))
	e.setMode(mode)

	if prompt != "" {
		if err := e.print(prompt); err != nil {
			return "", err
		}
	}

	// On Ctrl-C, WriteToEndpoint sends nil here rather than closing the
	// channel: Capture returns the empty string with no error, exactly
	// like a completed line, instead of surfacing shutdown as a failure.
	data := <-e.inputReady
	e.setMode(CaptureMode(e.lastCaptureMode.Load()))
	return string(data), nil
}

// Input reads one line of terminal input, echoing every keystroke.
func (e *Endpoint) Input(prompt string) (string, error) {
	return e.Capture(prompt, Input)
}

// Getpass reads one line of terminal input without echoing it.
func (e *Endpoint) Getpass(prompt string) (string, error) {
	return e.Capture(prompt, Getpass)
}

const (
	ctrlC      = 0x03
	backspace  = 0x7f
	backspace2 = 0x08
)

// WriteToEndpoint is the dispatch-loop-driven half of the state machine:
// every byte a frontend sends lands here, interpreted according to the
// current CaptureMode.
func (e *Endpoint) WriteToEndpoint(data []byte) error {
	switch e.mode() {
	case Discard:
		if len(data) == 1 && data[0] == ctrlC {
			go e.Base.Shutdown()
		}
		return nil

	case Echo:
		if len(data) == 1 && data[0] == '\r' {
			data = []byte("\r\n")
		} else if len(data) == 1 && data[0] == ctrlC {
			go e.Base.Shutdown()
		}
		return e.Base.SendToFrontend(data)
	}

	// Input / Getpass
	for _, b := range data {
		switch b {
		case '\r':
			e.inputMu.Lock()
			line := e.inputBuffer
			e.inputBuffer = nil
			e.inputMu.Unlock()

			if err := e.Base.SendToFrontend([]byte("\r\n")); err != nil {
				return err
			}
			e.inputReady <- line

		case ctrlC:
			go e.Base.Shutdown()
			e.inputReady <- nil
			return nil

		case backspace, backspace2:
			e.inputMu.Lock()
			if n := len(e.inputBuffer); n > 0 {
				e.inputBuffer = e.inputBuffer[:n-1]
			}
			e.inputMu.Unlock()
			if e.mode() == Input {
				if err := e.Base.SendToFrontend([]byte("\b \b")); err != nil {
					return err
				}
			}

		default:
			e.inputMu.Lock()
			e.inputBuffer = append(e.inputBuffer, b)
			e.inputMu.Unlock()
			if e.mode() == Input {
				if err := e.Base.SendToFrontend([]byte{b}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
