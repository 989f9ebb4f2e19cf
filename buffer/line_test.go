package buffer_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sioba/buffer"
)

func TestLineBufferAppendsAndDumps(t *testing.T) {
	b := buffer.NewLineBuffer(1024)

	reply, err := b.Feed([]byte("hello "))
	require.NoError(t, err)
	assert.Nil(t, reply)

	_, err = b.Feed([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, []byte("hello world"), b.DumpScreenState())
}

func TestLineBufferEvictsFromFront(t *testing.T) {
	b := buffer.NewLineBuffer(10)

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

func TestLineBufferHasNoCursorOrGeometry(t *testing.T) {
	b := buffer.NewLineBuffer(10)
	row, col := b.CursorPosition()
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
	assert.NoError(t, b.SetTerminalSize(40, 120))
}

func TestLineBufferFromURI(t *testing.T) {
	b, err := buffer.FromURI("line://?scrollback_buffer_size=3")
	require.NoError(t, err)

	_, err = b.Feed([]byte("a\nb\nc\nd\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("b\nc\nd\n"), b.DumpScreenState())
}
