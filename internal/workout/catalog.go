package workout

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrRoutineNotFound is returned when a routine id is not in the catalog
var ErrRoutineNotFound = errors.New("routine not found")

// BuiltinRoutines returns the routines shipped with the app
func BuiltinRoutines() []Routine {
	return []Routine{
		{
			ID:          "2",
			Name:        "Strength Training",
			Description: "Build muscle and increase strength with this routine.",
			Exercises:   []string{"Pushups", "Overhead Triceps", "Tricep Curl"},
		},
		{
			ID:          "3",
			Name:        "Core",
			Description: "Improve flexibility and reduce muscle tension.",
			Exercises:   []string{"Low Plank", "Russian Twists", "Leg Raises"},
		},
	}
}

// Catalog is an ordered, read-only set of routines
type Catalog struct {
	routines []Routine
}

// NewCatalog returns a catalog of the builtin routines followed by extra.
// An extra routine with the id of an earlier one replaces it in place.
func NewCatalog(extra ...Routine) *Catalog {
	c := &Catalog{routines: BuiltinRoutines()}
	for _, r := range extra {
		c.add(r)
	}
	return c
}

func (c *Catalog) add(r Routine) {
	r.Exercises = slices.Clone(r.Exercises)
	for i := range c.routines {
		if c.routines[i].ID == r.ID {
			c.routines[i] = r
			return
		}
	}
	c.routines = append(c.routines, r)
}

// All returns a copy of every routine in catalog order
func (c *Catalog) All() []Routine {
	out := make([]Routine, len(c.routines))
	for i, r := range c.routines {
		r.Exercises = slices.Clone(r.Exercises)
		out[i] = r
	}
	return out
}

// Lookup returns the routine with the given id
func (c *Catalog) Lookup(id string) (Routine, bool) {
	for _, r := range c.routines {
		if r.ID == id {
			r.Exercises = slices.Clone(r.Exercises)
			return r, true
		}
	}
	return Routine{}, false
}

// Find is Lookup with an error for unknown ids
func (c *Catalog) Find(id string) (Routine, error) {
	r, ok := c.Lookup(id)
	if !ok {
		return Routine{}, fmt.Errorf("%w: %q", ErrRoutineNotFound, id)
	}
	return r, nil
}

// catalogFile is the layout of a routines YAML file
type catalogFile struct {
	// ReplaceBuiltin drops the builtin routines instead of extending them
	ReplaceBuiltin bool      `yaml:"replace_builtin"`
	Routines       []Routine `yaml:"routines"`
}

// LoadCatalogFile reads routines from a YAML file and returns a catalog
// containing them, on top of the builtin routines unless the file sets
// replace_builtin.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routines file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse routines yaml: %w", err)
	}

	for i, r := range file.Routines {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("routine %d: id is required", i)
		}
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("routine %q: name is required", r.ID)
		}
		if len(r.Exercises) == 0 {
			return nil, fmt.Errorf("routine %q: at least one exercise is required", r.ID)
		}
	}

	if file.ReplaceBuiltin {
		c := &Catalog{}
		for _, r := range file.Routines {
			c.add(r)
		}
		return c, nil
	}
	return NewCatalog(file.Routines...), nil
}
