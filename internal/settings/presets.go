package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPreset is returned when a preset name does not exist
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named combination of the four duration parameters
type Preset struct {
	Name                string
	WorkSeconds         uint32
	ExerciseRestSeconds uint32
	SetRestSeconds      uint32
	Sets                uint32
}

// Presets in the order they are offered
var Presets = []Preset{
	{Name: "low", WorkSeconds: 30, ExerciseRestSeconds: 15, SetRestSeconds: 30, Sets: 3},
	{Name: "mid", WorkSeconds: 45, ExerciseRestSeconds: 10, SetRestSeconds: 15, Sets: 4},
	{Name: "high", WorkSeconds: 60, ExerciseRestSeconds: 0, SetRestSeconds: 15, Sets: 6},
}

// PresetByName looks up a preset, ignoring case
func PresetByName(name string) (Preset, error) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Apply returns s with the preset durations; completions are kept
func (p Preset) Apply(s Settings) Settings {
	c := s.Clone()
	c.WorkSeconds = p.WorkSeconds
	c.ExerciseRestSeconds = p.ExerciseRestSeconds
	c.SetRestSeconds = p.SetRestSeconds
	c.Sets = p.Sets
	return c
}

// Matches reports whether s uses exactly the preset durations
func (p Preset) Matches(s Settings) bool {
	return s.WorkSeconds == p.WorkSeconds &&
		s.ExerciseRestSeconds == p.ExerciseRestSeconds &&
		s.SetRestSeconds == p.SetRestSeconds &&
		s.Sets == p.Sets
}

// MatchPreset returns the preset s currently corresponds to, if any
func MatchPreset(s Settings) (Preset, bool) {
	for _, p := range Presets {
		if p.Matches(s) {
			return p, true
		}
	}
	return Preset{}, false
}
