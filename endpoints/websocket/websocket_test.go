package websocket_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sioba/endpoints/websocket"
	"sioba/iface"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := gorilla.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func TestWebsocketEchoesMessage(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	uri := "ws" + strings.TrimPrefix(srv.URL, "http")
	ep, err := websocket.New(uri)
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()

	out := make(chan []byte, 1)
	ep.OnSendToFrontend(func(i *iface.Base, data []byte) { out <- data })

	require.NoError(t, ep.ReceiveFromFrontend([]byte("ping")))

	select {
	case data := <-out:
		assert.Equal(t, []byte("ping"), data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for websocket echo")
	}
}

func TestWebsocketRegisteredByScheme(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	uri := "ws" + strings.TrimPrefix(srv.URL, "http")
	ep, err := iface.FromURI(uri)
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()
	assert.True(t, ep.IsRunning())
}
