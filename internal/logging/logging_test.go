package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelWriter_SplitsLines(t *testing.T) {
	ch := make(chan string, 10)
	w := NewChannelWriter(ch)

	n, err := w.Write([]byte("first\nsecond\r\nthi"))
	require.NoError(t, err)
	assert.Equal(t, 17, n)
	assert.Equal(t, "first", <-ch)
	assert.Equal(t, "second", <-ch)
	assert.Empty(t, ch)

	_, _ = w.Write([]byte("rd\n"))
	assert.Equal(t, "third", <-ch)
}

func TestChannelWriter_DropsWhenFull(t *testing.T) {
	ch := make(chan string, 1)
	w := NewChannelWriter(ch)

	_, err := w.Write([]byte("a\nb\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, "a", <-ch)
	assert.Equal(t, 2, w.Dropped())
}

func TestNewChannelWriter_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewChannelWriter(nil) })
}

func TestNew_WritesToAllOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hiit.log")
	ui := NewUIChannel()
	var extra bytes.Buffer

	logger, closer := New(Options{File: path, MaxSizeMB: 1, UI: ui, Extra: &extra})
	logger.Printf("WorkoutSession: Routine %s loaded", "Core")
	require.NoError(t, closer.Close())

	line := <-ui
	assert.True(t, strings.HasSuffix(line, "WorkoutSession: Routine Core loaded"), line)
	assert.Contains(t, extra.String(), "Routine Core loaded")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Routine Core loaded")
}

func TestNew_NoOutputs(t *testing.T) {
	logger, closer := New(Options{})
	logger.Println("discarded")
	assert.NoError(t, closer.Close())
}
