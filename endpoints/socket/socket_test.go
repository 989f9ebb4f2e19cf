package socket_test

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sioba/endpoints/socket"
	"sioba/iface"
)

func TestTCPRelaysBothDirections(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	uri := fmt.Sprintf("tcp://127.0.0.1:%d", addr.Port)

	ep, err := socket.NewTCP(uri)
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("server never accepted connection")
	}
	defer conn.Close()

	received := make(chan []byte, 4)
	ep.OnSendToFrontend(func(i *iface.Base, data []byte) { received <- data })

	require.NoError(t, ep.ReceiveFromFrontend([]byte("ping")))

	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	select {
	case data := <-received:
		assert.Equal(t, []byte("ping"), data)
	case <-time.After(time.Second):
		t.Fatal("no local echo received")
	}

	_, err = conn.Write([]byte("pong"))
	require.NoError(t, err)

	select {
	case data := <-received:
		assert.Equal(t, []byte("pong"), data)
	case <-time.After(time.Second):
		t.Fatal("no data relayed from remote")
	}
}

func TestTCPLocalEchoFalseDisablesEcho(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	uri := fmt.Sprintf("tcp://127.0.0.1:%d?local_echo=0", addr.Port)

	ep, err := socket.NewTCP(uri)
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("server never accepted connection")
	}
	defer conn.Close()

	received := make(chan []byte, 4)
	ep.OnSendToFrontend(func(i *iface.Base, data []byte) { received <- data })

	require.NoError(t, ep.ReceiveFromFrontend([]byte("ping")))

	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	select {
	case data := <-received:
		t.Fatalf("unexpected local echo with local_echo=0: %q", data)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTCPStartFailsWhenUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	uri := fmt.Sprintf("tcp://127.0.0.1:%d", addr.Port)
	ep, err := socket.NewTCP(uri)
	require.NoError(t, err)

	err = ep.Start()
	require.Error(t, err)
}

func TestTCPDelayMsDelaysDelivery(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	uri := fmt.Sprintf("tcp://127.0.0.1:%d?delay_ms=200", addr.Port)

	ep, err := socket.NewTCP(uri)
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()

	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("server never accepted connection")
	}
	defer conn.Close()

	start := time.Now()
	require.NoError(t, ep.ReceiveFromFrontend([]byte("ping")))

	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestUDPRegisteredByScheme(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	addr := pc.LocalAddr().(*net.UDPAddr)
	uri := fmt.Sprintf("udp://127.0.0.1:%d", addr.Port)

	ep, err := iface.FromURI(uri)
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()
	assert.True(t, ep.IsRunning())
}
