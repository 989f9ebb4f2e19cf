package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/term"

	"gitlab.hive.thyth.com/chronostruct/go-mosh/pkg/mosh"

	sioctx "sioba/context"
	_ "sioba/endpoints/echo"
	_ "sioba/endpoints/pty"
	_ "sioba/endpoints/serial"
	_ "sioba/endpoints/socket"
	_ "sioba/endpoints/websocket"
	"sioba/iface"
)

func main() {
	var uri string
	var rows, cols int
	var printVersion, listSchemes bool

	flag.StringVar(&uri, "uri", "", "Endpoint `URI` to attach to (e.g. exec://, echo://, tcp://host:port)")
	flag.IntVar(&rows, "rows", 0, "Override terminal rows")
	flag.IntVar(&cols, "cols", 0, "Override terminal cols")
	flag.BoolVar(&printVersion, "version", false, "Print the embedded terminal emulation backend version")
	flag.BoolVar(&listSchemes, "schemes", false, "List registered endpoint URI schemes")
	flag.Parse()

	if printVersion {
		fmt.Printf("Terminal Emulation Backend Version: %v\n", mosh.GetVersion())
	}

	if listSchemes {
		for _, scheme := range iface.ListSchemes() {
			fmt.Println(scheme)
		}
	}

	if printVersion || listSchemes {
		return
	}

	if uri == "" {
		flag.Usage()
		os.Exit(2)
	}

	var overrides []sioctx.Option
	if rows > 0 {
		overrides = append(overrides, sioctx.WithRows(rows))
	}
	if cols > 0 {
		overrides = append(overrides, sioctx.WithCols(cols))
	}

	endpoint, err := iface.FromURI(uri, overrides...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sioba: %v\n", err)
		os.Exit(1)
	}

	stdinFd := int(os.Stdin.Fd())
	var restore func()
	if term.IsTerminal(stdinFd) {
		prior, err := term.MakeRaw(stdinFd)
		if err == nil {
			restore = func() { term.Restore(stdinFd, prior) }
			defer restore()
		}
	}

	shutdown := make(chan struct{})
	endpoint.OnSendToFrontend(func(i *iface.Base, data []byte) {
		os.Stdout.Write(data)
	})
	endpoint.OnShutdown(func(i *iface.Base) {
		close(shutdown)
	})

	if err := endpoint.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "sioba: failed to start %q: %v\n", uri, err)
		os.Exit(1)
	}

	installResizeHandler(endpoint, stdinFd)

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)
	go func() {
		<-sigint
		endpoint.Shutdown()
	}()

	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				endpoint.ReceiveFromFrontend(append([]byte(nil), buf[:n]...))
			}
			if err != nil {
				if err != io.EOF {
					fmt.Fprintf(os.Stderr, "sioba: stdin read error: %v\n", err)
				}
				endpoint.Shutdown()
				return
			}
		}
	}()

	<-shutdown
}
