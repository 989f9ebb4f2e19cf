package dispatch_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sioba/dispatch"
)

func TestSubmitRunsInOrder(t *testing.T) {
	l := dispatch.New()
	defer l.Close()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		if i == 4 {
			l.SubmitAsync(func() {
				order = append(order, i)
				close(done)
			})
			continue
		}
		l.SubmitAsync(func() { order = append(order, i) })
	}
	<-done
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSubmitBlocksUntilDone(t *testing.T) {
	l := dispatch.New()
	defer l.Close()

	var ran int32
	l.Submit(func() { atomic.StoreInt32(&ran, 1) })
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestSubmitCtxTimeout(t *testing.T) {
	l := dispatch.New()
	defer l.Close()

	block := make(chan struct{})
	l.SubmitAsync(func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.SubmitCtx(ctx, func() {})
	require.Error(t, err)
	close(block)
}

func TestCloseDrainsQueued(t *testing.T) {
	l := dispatch.New()
	var ran int32
	l.SubmitAsync(func() { atomic.AddInt32(&ran, 1) })
	l.SubmitAsync(func() { atomic.AddInt32(&ran, 1) })
	l.Close()
	assert.Equal(t, int32(2), atomic.LoadInt32(&ran))
}
