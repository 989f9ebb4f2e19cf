package serial_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sioba/endpoints/serial"
	"sioba/iface"
)

func TestLoopbackReflectsWrittenData(t *testing.T) {
	ep, err := serial.NewLoopback("serial+loop://?baudrate=10")
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()

	out := make(chan []byte, 1)
	ep.OnSendToFrontend(func(i *iface.Base, data []byte) { out <- data })

	require.NoError(t, ep.ReceiveFromFrontend([]byte("Hello, serial!")))

	select {
	case data := <-out:
		assert.Equal(t, []byte("Hello, serial!"), data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for loopback echo")
	}
}

func TestLoopbackRegisteredByScheme(t *testing.T) {
	ep, err := iface.FromURI("serial+loop://?baudrate=9600")
	require.NoError(t, err)
	require.NoError(t, ep.Start())
	defer ep.Shutdown()
	assert.True(t, ep.IsRunning())
}
