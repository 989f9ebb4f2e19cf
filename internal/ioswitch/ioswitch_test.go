package ioswitch_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sioba/internal/ioswitch"
)

type fakeRWC struct {
	bytes.Buffer
	closed bool
}

func (f *fakeRWC) Close() error { f.closed = true; return nil }

func TestSwitchDispatchesToPassthroughByDefault(t *testing.T) {
	pt := &fakeRWC{}
	s := ioswitch.New(pt)

	_, err := s.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", pt.String())
}

func TestEnableAlternateRedirectsCalls(t *testing.T) {
	pt := &fakeRWC{}
	alt := &fakeRWC{}
	s := ioswitch.New(pt)

	s.EnableAlternate(alt)
	_, err := s.Write([]byte("world"))
	require.NoError(t, err)

	assert.Empty(t, pt.String())
	assert.Equal(t, "world", alt.String())
}

func TestEnableAlternateIsOneShot(t *testing.T) {
	pt := &fakeRWC{}
	alt1 := &fakeRWC{}
	alt2 := &fakeRWC{}
	s := ioswitch.New(pt)

	s.EnableAlternate(alt1)
	s.EnableAlternate(alt2)

	_, _ = s.Write([]byte("x"))
	assert.Equal(t, "x", alt1.String())
	assert.Empty(t, alt2.String())
}

func TestCloseClosesActiveImplementation(t *testing.T) {
	pt := &fakeRWC{}
	alt := &fakeRWC{}
	s := ioswitch.New(pt)
	s.EnableAlternate(alt)

	require.NoError(t, s.Close())
	assert.True(t, alt.closed)
	assert.False(t, pt.closed)
}

var _ io.ReadWriteCloser = (*fakeRWC)(nil)
