// Package echo implements the "echo" endpoint scheme: every byte received
// from the frontend is written straight back out, turning an Interface into
// a server-side loopback. Useful for testing and for terminal demos that
// need a live endpoint without a real backing process.
package echo

import (
	sioctx "sioba/context"
	"sioba/iface"
)

func init() {
	iface.RegisterScheme(New, "echo")
}

// Endpoint is the echo Impl. It carries no state of its own beyond the
// embedded Base.
type Endpoint struct {
	*iface.Base
}

var defaultContext = sioctx.WithDefaults(nil, sioctx.WithConvertEol(true))

// New builds an echo Endpoint from a URI of the form "echo://" (no
// scheme-specific parameters beyond the common Context fields).
func New(uri string, overrides ...sioctx.Option) (iface.Interface, error) {
	ctx, err := sioctx.FromURI(uri, defaultContext, overrides...)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{}
	base, err := iface.New(e, ctx)
	if err != nil {
		return nil, err
	}
	e.Base = base
	return e, nil
}

func (e *Endpoint) StartInterface() error    { return nil }
func (e *Endpoint) ShutdownInterface() error { return nil }

// WriteToEndpoint reflects everything it receives straight back out to the
// frontend, the defining behavior of an echo endpoint.
func (e *Endpoint) WriteToEndpoint(data []byte) error {
	return e.Base.SendToFrontend(data)
}
