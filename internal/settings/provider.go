package settings

import (
	"log"
	"sync"
	"time"
)

// Store loads and saves a settings snapshot
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// MemoryStore keeps the last saved snapshot in memory only
type MemoryStore struct {
	mu    sync.Mutex
	saved *Settings
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return Default(), nil
	}
	return m.saved.Clone(), nil
}

func (m *MemoryStore) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := s.Clone()
	m.saved = &c
	m.saves++
	return nil
}

// SaveCount returns how many times Save was called
func (m *MemoryStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Provider owns the current settings snapshot. Reads are served from memory;
// writes replace the snapshot and are persisted through the Store.
type Provider struct {
	mu      sync.RWMutex // guards current
	current Settings

	// saveMu serializes each snapshot change with its Save so the store
	// always ends with the newest snapshot
	saveMu sync.Mutex
	store  Store
	logger *log.Logger
}

// NewProvider loads the stored settings. A load failure is logged and the
// defaults are used so the app stays usable.
func NewProvider(store Store, logger *log.Logger) *Provider {
	if store == nil {
		panic("Provider: store cannot be nil")
	}
	if logger == nil {
		panic("Provider: logger cannot be nil")
	}

	loaded, err := store.Load()
	if err != nil {
		logger.Printf("Provider: Failed to load settings, using defaults: %v", err)
		loaded = Default()
	}

	return &Provider{
		current: loaded.Clamp(),
		store:   store,
		logger:  logger,
	}
}

// Read returns a copy of the current snapshot
func (p *Provider) Read() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current.Clone()
}

// update applies change to the current snapshot and saves the result.
// change returns false to leave the snapshot alone.
func (p *Provider) update(change func(Settings) (Settings, bool)) (bool, error) {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	next, ok := change(p.current.Clone())
	if !ok {
		p.mu.Unlock()
		return false, nil
	}
	next = next.Clamp()
	p.current = next
	p.mu.Unlock()

	return true, p.store.Save(next.Clone())
}

// Write replaces the snapshot and persists it. The in-memory snapshot is
// updated even when persisting fails.
func (p *Provider) Write(s Settings) error {
	_, err := p.update(func(Settings) (Settings, bool) { return s, true })
	if err != nil {
		p.logger.Printf("Provider: Failed to save settings: %v", err)
	}
	return err
}

// RecordCompletion stores now as the routine's last completion unless one was
// recorded within CompletionDebounce. It reports whether a record was written.
func (p *Provider) RecordCompletion(routineName string, now time.Time) (bool, error) {
	recorded, err := p.update(func(cur Settings) (Settings, bool) {
		if !cur.ShouldRecordCompletion(routineName, now) {
			return cur, false
		}
		return cur.WithCompletion(routineName, now), true
	})
	if err != nil {
		p.logger.Printf("Provider: Failed to save completion of %s: %v", routineName, err)
	}
	return recorded, err
}

// MarkCompletion stores now as the routine's last completion without the
// debounce
func (p *Provider) MarkCompletion(routineName string, now time.Time) error {
	_, err := p.update(func(cur Settings) (Settings, bool) {
		return cur.WithCompletion(routineName, now), true
	})
	if err != nil {
		p.logger.Printf("Provider: Failed to save completion of %s: %v", routineName, err)
	}
	return err
}

// ApplyPreset writes the named preset, keeping the completion history
func (p *Provider) ApplyPreset(name string) error {
	preset, err := PresetByName(name)
	if err != nil {
		return err
	}
	p.logger.Printf("Provider: Applying preset %s", preset.Name)
	_, err = p.update(func(cur Settings) (Settings, bool) { return preset.Apply(cur), true })
	if err != nil {
		p.logger.Printf("Provider: Failed to save settings: %v", err)
	}
	return err
}
