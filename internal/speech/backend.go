package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrNoPlayer is returned when no audio player or speech command is available
	ErrNoPlayer = errors.New("no audio player available")
	// ErrClipNotFound is returned when there is no recorded clip for a text
	ErrClipNotFound = errors.New("announcement clip not found")
)

// Backend turns text into sound. Say blocks until playback ends or ctx is done.
type Backend interface {
	Name() string
	Say(ctx context.Context, text string) error
}

// runFunc runs an external command to completion
type runFunc func(ctx context.Context, name string, args ...string) error

// runCommand reports the context error when ctx ended the command, so a
// killed player reads as cancelled rather than failed
func runCommand(ctx context.Context, name string, args ...string) error {
	err := exec.CommandContext(ctx, name, args...).Run()
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%s: %w", filepath.Base(name), ctx.Err())
	}
	return err
}

// command is a program plus the arguments placed before the text or file
type command struct {
	path string
	args []string
}

// lookupFunc resolves a program name to a path
type lookupFunc func(name string) (string, error)

// detect returns the first candidate found on PATH
func detect(lookup lookupFunc, candidates [][]string) (command, bool) {
	for _, candidate := range candidates {
		path, err := lookup(candidate[0])
		if err != nil {
			continue
		}
		return command{path: path, args: candidate[1:]}, true
	}
	return command{}, false
}

// parseCommand splits a configured command line. An empty line auto-detects.
func parseCommand(line string, lookup lookupFunc, candidates [][]string) (command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return detect(lookup, candidates)
	}
	path, err := lookup(fields[0])
	if err != nil {
		return command{}, false
	}
	return command{path: path, args: fields[1:]}, true
}

// ClipPath returns where the recorded clip for text lives under dir
func ClipPath(dir, text string) string {
	name := strings.ReplaceAll(strings.ToLower(text), " ", "_")
	return filepath.Join(dir, name+"_freya.mp3")
}

// Players tried in order when no player is configured
var playerCandidates = [][]string{
	{"mpg123", "-q"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"afplay"},
	{"paplay"},
}

// ClipBackend plays pre-recorded clips from a directory
type ClipBackend struct {
	dir    string
	player command
	ok     bool
	run    runFunc
}

// NewClipBackend plays clips from dir with player, a command line such as
// "mpg123 -q". An empty player picks the first known player on PATH.
func NewClipBackend(dir, player string) *ClipBackend {
	return newClipBackend(dir, player, exec.LookPath, runCommand)
}

func newClipBackend(dir, player string, lookup lookupFunc, run runFunc) *ClipBackend {
	cmd, ok := parseCommand(player, lookup, playerCandidates)
	return &ClipBackend{dir: dir, player: cmd, ok: ok, run: run}
}

// Available reports whether a player was found
func (b *ClipBackend) Available() bool {
	return b.ok
}

func (b *ClipBackend) Name() string {
	return "clip"
}

func (b *ClipBackend) Say(ctx context.Context, text string) error {
	if b.dir == "" {
		return ErrClipNotFound
	}
	path := ClipPath(b.dir, text)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrClipNotFound, path)
	}
	if !b.ok {
		return ErrNoPlayer
	}
	args := append(append([]string{}, b.player.args...), path)
	if err := b.run(ctx, b.player.path, args...); err != nil {
		return fmt.Errorf("play %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Speech synthesizers tried in order when none is configured
var synthesizerCandidates = [][]string{
	{"espeak-ng"},
	{"espeak"},
	{"say"},
	{"spd-say", "--wait"},
}

// CommandBackend speaks through a text-to-speech command, passing the text
// as the last argument
type CommandBackend struct {
	cmd command
	ok  bool
	run runFunc
}

// NewCommandBackend uses commandLine, or the first known synthesizer on PATH
// when it is empty
func NewCommandBackend(commandLine string) *CommandBackend {
	return newCommandBackend(commandLine, exec.LookPath, runCommand)
}

func newCommandBackend(commandLine string, lookup lookupFunc, run runFunc) *CommandBackend {
	cmd, ok := parseCommand(commandLine, lookup, synthesizerCandidates)
	return &CommandBackend{cmd: cmd, ok: ok, run: run}
}

// Available reports whether a synthesizer was found
func (b *CommandBackend) Available() bool {
	return b.ok
}

func (b *CommandBackend) Name() string {
	return "tts"
}

func (b *CommandBackend) Say(ctx context.Context, text string) error {
	if !b.ok {
		return ErrNoPlayer
	}
	args := append(append([]string{}, b.cmd.args...), text)
	if err := b.run(ctx, b.cmd.path, args...); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(b.cmd.path), err)
	}
	return nil
}

// FallbackBackend tries Primary and, when it fails, Secondary
type FallbackBackend struct {
	Primary   Backend
	Secondary Backend
}

func (b FallbackBackend) Name() string {
	return b.Primary.Name() + "+" + b.Secondary.Name()
}

func (b FallbackBackend) Say(ctx context.Context, text string) error {
	primaryErr := b.Primary.Say(ctx, text)
	if primaryErr == nil {
		return nil
	}
	if ctx.Err() != nil {
		return primaryErr
	}
	secondaryErr := b.Secondary.Say(ctx, text)
	if secondaryErr == nil {
		return nil
	}
	return errors.Join(primaryErr, secondaryErr)
}

// MuteBackend discards everything
type MuteBackend struct{}

func (MuteBackend) Name() string                      { return "mute" }
func (MuteBackend) Say(context.Context, string) error { return nil }
