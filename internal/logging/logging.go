// Package logging builds the process logger: a rotating log file, optionally
// mirrored into a channel that feeds the UI log panel.
package logging

import (
	"bytes"
	"io"
	"log"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// UILogBuffer is the capacity of the channel returned by NewUIChannel
const UILogBuffer = 256

// Options configures New
type Options struct {
	File       string // Empty disables the log file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// UI receives one message per log line. Lines are dropped when it is full.
	UI chan<- string

	// Extra receives a copy of every line, e.g. stderr in headless mode
	Extra io.Writer
}

// NewUIChannel returns a channel sized for the UI log panel
func NewUIChannel() chan string {
	return make(chan string, UILogBuffer)
}

// New returns a logger writing to the outputs named in opts and a closer for
// the log file
func New(opts Options) (*log.Logger, io.Closer) {
	writers := make([]io.Writer, 0, 3)
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		writers = append(writers, rotating)
		closer = rotating
	}
	if opts.UI != nil {
		writers = append(writers, NewChannelWriter(opts.UI))
	}
	if opts.Extra != nil {
		writers = append(writers, opts.Extra)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}
	return log.New(out, "", log.LstdFlags|log.Lmicroseconds), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ChannelWriter splits written bytes into lines and sends each line to a
// channel without blocking. A partial trailing line is held until its newline
// arrives.
type ChannelWriter struct {
	mu      sync.Mutex
	ch      chan<- string
	pending []byte
	dropped int
}

func NewChannelWriter(ch chan<- string) *ChannelWriter {
	if ch == nil {
		panic("ChannelWriter: channel cannot be nil")
	}
	return &ChannelWriter{ch: ch}
}

// Write never fails and never blocks
func (w *ChannelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.pending[:i]), "\r")
		w.pending = w.pending[i+1:]

		select {
		case w.ch <- line:
		default:
			w.dropped++
		}
	}
	return len(p), nil
}

// Dropped returns how many lines were discarded because the channel was full
func (w *ChannelWriter) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}
