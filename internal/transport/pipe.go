package transport

import (
	"io"
	"sync"

	"github.com/jeff0926/webinsight-sub001/internal/wire"
)

// pipeEnd is one side of an in-process frame pipe.
type pipeEnd struct {
	in   chan wire.Frame
	out  chan wire.Frame
	done chan struct{}
	once *sync.Once
}

// NewPipe returns two connected in-process Conns. Frames written to one end
// are read from the other. Closing either end fails both ends, mirroring how
// a dropped websocket looks to each side.
//
// The pipe backs tests and the single-process demo mode, where the three
// contexts run as goroutines instead of separate binaries.
func NewPipe() (Conn, Conn) {
	ab := make(chan wire.Frame, 64)
	ba := make(chan wire.Frame, 64)
	done := make(chan struct{})
	once := &sync.Once{}

	a := &pipeEnd{in: ba, out: ab, done: done, once: once}
	b := &pipeEnd{in: ab, out: ba, done: done, once: once}
	return a, b
}

func (p *pipeEnd) ReadFrame() (wire.Frame, error) {
	select {
	case f := <-p.in:
		return f, nil
	case <-p.done:
		// Drain anything that raced with the close before reporting EOF.
		select {
		case f := <-p.in:
			return f, nil
		default:
			return wire.Frame{}, io.EOF
		}
	}
}

func (p *pipeEnd) WriteFrame(f wire.Frame) error {
	select {
	case p.out <- f:
		return nil
	case <-p.done:
		return io.ErrClosedPipe
	}
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
