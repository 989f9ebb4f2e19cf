package iface

import (
	"io"
	"runtime"
	"sync"
)

// FileWriter is an async buffering io.WriteCloser: writes return immediately
// as long as buffer capacity remains, decoupling a fast producer (a pty
// reader, a user function's print()) from SendToFrontend's dispatch-loop
// round trip. Adapted from the teacher's Asynk
// (internal/predictive/asynk.go), retargeted from writing to an arbitrary
// io.Writer to posting each flushed chunk through an Interface's
// SendToFrontend.
type FileWriter struct {
	target *Base

	cond        *sync.Cond
	buffer      []byte
	bufferIndex int

	writeNotify chan struct{}
	err         error
}

// NewFileWriter returns a FileWriter that relays everything written to it
// onward to target.SendToFrontend, buffering up to capacity bytes before a
// Write call blocks.
func NewFileWriter(target *Base, capacity int) *FileWriter {
	fw := &FileWriter{
		target:      target,
		cond:        sync.NewCond(&sync.Mutex{}),
		buffer:      make([]byte, capacity),
		writeNotify: make(chan struct{}, 1),
	}
	go fw.drain()
	return fw
}

func (fw *FileWriter) drain() {
	lastSent := 0
	for range fw.writeNotify {
		fw.cond.L.Lock()
		nextIndex := fw.bufferIndex
		chunk := append([]byte(nil), fw.buffer[lastSent:nextIndex]...)
		fw.cond.L.Unlock()

		if err := fw.target.SendToFrontend(chunk); err != nil {
			fw.err = err
			return
		}
		lastSent = nextIndex

		fw.cond.L.Lock()
		if fw.bufferIndex == nextIndex {
			fw.bufferIndex = 0
			lastSent = 0
		}
		fw.cond.Signal()
		fw.cond.L.Unlock()
	}
}

func (fw *FileWriter) Close() error {
	if fw.err == nil {
		fw.err = io.EOF
	}
	close(fw.writeNotify)
	fw.cond.Broadcast()
	return nil
}

func (fw *FileWriter) Write(p []byte) (int, error) {
	if fw.err != nil {
		return 0, fw.err
	}
	fw.cond.L.Lock()
	n := copy(fw.buffer[fw.bufferIndex:], p)
	fw.bufferIndex += n
	fw.cond.L.Unlock()

	select {
	case fw.writeNotify <- struct{}{}:
		if len(p) > n {
			runtime.Gosched()
			return fw.Write(p[n:])
		}
		return n, nil
	default:
		if len(p) > n {
			fw.cond.L.Lock()
			fw.cond.Wait()
			fw.cond.L.Unlock()
			return fw.Write(p[n:])
		}
		return n, nil
	}
}
