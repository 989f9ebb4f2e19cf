package buffer_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sioba/buffer"
)

func TestTerminalBufferFeedAndDump(t *testing.T) {
	b := buffer.NewTerminalBuffer(24, 80, 10_000)

	_, err := b.Feed([]byte("hello\r\n"))
	require.NoError(t, err)

	dump := b.DumpScreenState()
	assert.NotEmpty(t, dump)
	assert.Contains(t, string(dump), "hello")
}

func TestTerminalBufferResize(t *testing.T) {
	b := buffer.NewTerminalBuffer(24, 80, 10_000)
	assert.NoError(t, b.SetTerminalSize(40, 120))

	dump := b.DumpScreenState()
	assert.NotEmpty(t, dump)
}

func TestTerminalBufferCursorPositionNonNegative(t *testing.T) {
	b := buffer.NewTerminalBuffer(24, 80, 10_000)
	_, err := b.Feed([]byte("abc"))
	require.NoError(t, err)

	row, col := b.CursorPosition()
	assert.GreaterOrEqual(t, row, 0)
	assert.GreaterOrEqual(t, col, 0)
}

func TestTerminalBufferRetainsBoundedScrollback(t *testing.T) {
	b := buffer.NewTerminalBuffer(24, 80, 10)

	for i := 1; i <= 20; i++ {
		_, err := b.Feed([]byte(fmt.Sprintf("<%d>\n", i)))
		require.NoError(t, err)
	}

	dump := string(b.DumpScreenState())
	for i := 1; i <= 10; i++ {
		assert.NotContains(t, dump, fmt.Sprintf("<%d>\n", i))
	}
	for i := 11; i <= 20; i++ {
		assert.Contains(t, dump, fmt.Sprintf("<%d>\n", i))
	}
}

func TestTerminalBufferFromURI(t *testing.T) {
	b, err := buffer.FromURI("terminal://?rows=30&cols=100")
	require.NoError(t, err)
	assert.NotNil(t, b)
}
