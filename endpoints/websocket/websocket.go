// Package websocket implements the "ws" and "wss" endpoint schemes: each
// dials a remote websocket server and relays binary messages between it and
// the frontend, the same relay shape as the socket endpoint but framed as
// websocket messages via gorilla/websocket rather than raw bytes.
package websocket

import (
	"github.com/gorilla/websocket"

	sioctx "sioba/context"
	sioerr "sioba/errors"
	"sioba/iface"
)

func init() {
	iface.RegisterScheme(New, "ws", "wss")
}

var defaultContext = sioctx.WithDefaults(nil, sioctx.WithConvertEol(false), sioctx.WithLocalEcho(false))

// Endpoint relays bytes between a websocket connection and the frontend.
type Endpoint struct {
	*iface.Base

	uri  string
	conn *websocket.Conn
}

// New builds a websocket Endpoint that dials uri (a ws:// or wss:// URL) on
// Start.
func New(uri string, overrides ...sioctx.Option) (iface.Interface, error) {
	ctx, err := sioctx.FromURI(uri, defaultContext, overrides...)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{uri: uri}
	base, err := iface.New(e, ctx)
	if err != nil {
		return nil, err
	}
	e.Base = base
	return e, nil
}

func (e *Endpoint) StartInterface() error {
	conn, _, err := websocket.DefaultDialer.Dial(e.uri, nil)
	if err != nil {
		return sioerr.Wrap("StartInterface", sioerr.ConnectionFailed, err)
	}
	e.conn = conn
	go e.readLoop()
	return nil
}

func (e *Endpoint) readLoop() {
	for {
		_, data, err := e.conn.ReadMessage()
		if len(data) > 0 {
			if sendErr := e.Base.SendToFrontend(data); sendErr != nil {
				return
			}
		}
		if err != nil {
			go e.Base.Shutdown()
			return
		}
	}
}

// WriteToEndpoint forwards frontend data as a single binary websocket
// message.
func (e *Endpoint) WriteToEndpoint(data []byte) error {
	if e.conn == nil {
		return nil
	}
	if err := e.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return sioerr.Wrap("WriteToEndpoint", sioerr.TransportError, err)
	}
	return nil
}

func (e *Endpoint) ShutdownInterface() error {
	if e.conn == nil {
		return nil
	}
	e.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return e.conn.Close()
}
