package ioport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// ChannelReader is a bounded, single-producer/single-consumer keyboard
// source. A feeder goroutine pushes bytes typed at a terminal (or replayed
// from a script) into in; ReadByte drains it without ever blocking, the
// non-blocking discipline the core's interrupt poll requires.
type ChannelReader struct {
	in     chan byte
	closed chan struct{}
}

// NewChannelReader allocates a ChannelReader with the given buffer depth.
func NewChannelReader(depth int) *ChannelReader {
	return &ChannelReader{
		in:     make(chan byte, depth),
		closed: make(chan struct{}),
	}
}

// Push delivers one byte to the reader. It blocks only if the buffer is
// full, which is a feeder-side concern, not the CPU's.
func (r *ChannelReader) Push(b byte) {
	select {
	case r.in <- b:
	case <-r.closed:
	}
}

// Close marks the stream as finished; subsequent ReadByte calls return
// EndOfStream once the buffer drains.
func (r *ChannelReader) Close() {
	select {
	case <-r.closed:
	default:
		close(r.closed)
	}
}

// ReadByte implements Reader. It never blocks.
func (r *ChannelReader) ReadByte() (byte, ReadStatus, error) {
	select {
	case b := <-r.in:
		return b, Ready, nil
	default:
	}
	select {
	case <-r.closed:
		return 0, EndOfStream, nil
	default:
		return 0, WouldBlock, nil
	}
}

var _ Reader = (*ChannelReader)(nil)

// StreamWriter adapts any io.Writer (os.Stdout, a bytes.Buffer, ...) to the
// Writer contract, formatting PRN's decimal output as plain digits with
// no padding.
type StreamWriter struct {
	w *bufio.Writer
}

// NewStreamWriter wraps w in a buffer that is flushed on every call, since
// the CPU writes one instruction's worth of output at a time and hosts
// expect to see it immediately.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: bufio.NewWriter(w)}
}

// Write implements Writer.
func (sw *StreamWriter) Write(p []byte) (int, error) {
	n, err := sw.w.Write(p)
	if ferr := sw.w.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return n, fmt.Errorf("%w: %s", ErrIO, err.Error())
	}
	return n, nil
}

// PrintDecimal implements Writer.
func (sw *StreamWriter) PrintDecimal(v byte) error {
	_, err := sw.Write([]byte(strconv.Itoa(int(v))))
	return err
}

var _ Writer = (*StreamWriter)(nil)
