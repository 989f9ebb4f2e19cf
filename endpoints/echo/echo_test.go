package echo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sioba/endpoints/echo"
	"sioba/iface"
)

func TestEchoReflectsReceivedData(t *testing.T) {
	ep, err := echo.New("echo://")
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()

	done := make(chan []byte, 1)
	ep.OnSendToFrontend(func(i *iface.Base, data []byte) { done <- data })

	require.NoError(t, ep.ReceiveFromFrontend([]byte("hello")))

	select {
	case data := <-done:
		assert.Equal(t, []byte("hello"), data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for echo")
	}
}

func TestEchoRegisteredByScheme(t *testing.T) {
	ep, err := iface.FromURI("echo://")
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()
	assert.True(t, ep.IsRunning())
}
