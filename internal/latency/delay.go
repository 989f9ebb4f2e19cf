/*
 * nosshtradamus: predictive terminal emulation for SSH
 * Copyright 2019-2023 Daniel Selifonov
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

// Package latency provides RingDelay, an io.ReadWriteCloser decorator that
// holds writes in a fixed-size ring for a fixed delay before releasing them
// to the wrapped connection. Adapted from the teacher's RingDelayer
// (internal/predictive/delay.go), which paced simulated round-trip latency
// for predictive echo; retargeted here to let a socket endpoint simulate a
// slow remote peer without real network jitter.
package latency

import (
	"io"
	"sync"
	"time"
)

// RingDelay wraps upstream so every Write is released only after delay has
// elapsed, in submission order. Reads pass straight through.
type RingDelay struct {
	upstream io.ReadWriteCloser
	delay    time.Duration

	ring     [][]byte
	sendTime []time.Time
	head     int
	tail     int

	cond *sync.Cond

	termination error
	notifyChan  chan struct{}
	closeChan   sync.Once
}

// NewRingDelay builds a RingDelay around upstream, buffering up to ringSize
// pending writes before Write starts blocking for room.
func NewRingDelay(upstream io.ReadWriteCloser, delay time.Duration, ringSize int) *RingDelay {
	rd := &RingDelay{
		upstream: upstream,
		delay:    delay,

		ring:     make([][]byte, ringSize),
		sendTime: make([]time.Time, ringSize),

		cond: sync.NewCond(&sync.Mutex{}),

		notifyChan: make(chan struct{}, ringSize),
	}
	go rd.drain()
	return rd
}

func (rd *RingDelay) drain() {
	for range rd.notifyChan {
		rd.cond.L.Lock()

		now := time.Now()
		wait := rd.sendTime[rd.head].Sub(now)
		buffer := rd.ring[rd.head]

		if wait > 0 {
			rd.cond.L.Unlock()
			time.Sleep(wait)
			rd.cond.L.Lock()
		}

		rd.ring[rd.head] = nil
		rd.head = (rd.head + 1) % len(rd.ring)
		rd.cond.Signal()
		rd.cond.L.Unlock()

		_, err := rd.upstream.Write(buffer)
		if err != nil {
			rd.cond.L.Lock()
			rd.termination = err
			rd.cond.L.Unlock()
			rd.closeChan.Do(func() { close(rd.notifyChan) })
			return
		}
	}
}

func (rd *RingDelay) Read(p []byte) (int, error) {
	return rd.upstream.Read(p)
}

func (rd *RingDelay) Write(p []byte) (int, error) {
	rd.cond.L.Lock()
	if rd.termination != nil {
		err := rd.termination
		rd.cond.L.Unlock()
		return 0, err
	}

	buffer := make([]byte, len(p))
	copy(buffer, p)

	for rd.ring[rd.tail] != nil {
		rd.cond.Wait()
		if rd.termination != nil {
			err := rd.termination
			rd.cond.L.Unlock()
			return 0, err
		}
	}

	rd.ring[rd.tail] = buffer
	rd.sendTime[rd.tail] = time.Now().Add(rd.delay)
	rd.tail = (rd.tail + 1) % len(rd.ring)
	rd.cond.L.Unlock()

	rd.notifyChan <- struct{}{}
	return len(p), nil
}

func (rd *RingDelay) Close() error {
	rd.cond.L.Lock()
	if rd.termination != nil {
		err := rd.termination
		rd.cond.L.Unlock()
		return err
	}
	rd.termination = io.EOF
	rd.cond.L.Unlock()
	rd.closeChan.Do(func() { close(rd.notifyChan) })
	return rd.upstream.Close()
}
