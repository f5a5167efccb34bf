package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, uint32(30), s.WorkSeconds)
	assert.Equal(t, uint32(15), s.ExerciseRestSeconds)
	assert.Equal(t, uint32(30), s.SetRestSeconds)
	assert.Equal(t, uint32(3), s.Sets)
	assert.NotNil(t, s.Completions)
	assert.Empty(t, s.Completions)
}

func TestClone_DoesNotShareCompletions(t *testing.T) {
	s := Default()
	s.Completions["Core"] = time.Unix(100, 0)

	c := s.Clone()
	c.Completions["Strength Training"] = time.Unix(200, 0)

	assert.Len(t, s.Completions, 1)
	assert.Len(t, c.Completions, 2)
}

func TestClamp(t *testing.T) {
	s := Settings{WorkSeconds: 1, ExerciseRestSeconds: 500, SetRestSeconds: 60, Sets: 0}
	c := s.Clamp()
	assert.Equal(t, uint32(5), c.WorkSeconds)
	assert.Equal(t, uint32(120), c.ExerciseRestSeconds)
	assert.Equal(t, uint32(60), c.SetRestSeconds)
	assert.Equal(t, uint32(1), c.Sets)
	assert.NotNil(t, c.Completions)
}

func TestShouldRecordCompletion(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		last *time.Time
		want bool
	}{
		{name: "never completed", last: nil, want: true},
		{name: "two seconds ago", last: ptr(now.Add(-2 * time.Second)), want: false},
		{name: "exactly ten seconds ago", last: ptr(now.Add(-10 * time.Second)), want: false},
		{name: "eleven seconds ago", last: ptr(now.Add(-11 * time.Second)), want: true},
		{name: "yesterday", last: ptr(now.Add(-24 * time.Hour)), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			if tt.last != nil {
				s.Completions["Core"] = *tt.last
			}
			assert.Equal(t, tt.want, s.ShouldRecordCompletion("Core", now))
		})
	}
}

func TestWithCompletion_LeavesOriginalUntouched(t *testing.T) {
	s := Default()
	at := time.Unix(1000, 0)
	c := s.WithCompletion("Core", at)

	_, ok := s.LastCompletion("Core")
	assert.False(t, ok)
	got, ok := c.LastCompletion("Core")
	require.True(t, ok)
	assert.True(t, got.Equal(at))
}

func TestPresets(t *testing.T) {
	s := Default()
	s.Completions["Core"] = time.Unix(5, 0)

	mid, err := PresetByName("MID")
	require.NoError(t, err)
	applied := mid.Apply(s)

	assert.Equal(t, uint32(45), applied.WorkSeconds)
	assert.Equal(t, uint32(10), applied.ExerciseRestSeconds)
	assert.Equal(t, uint32(15), applied.SetRestSeconds)
	assert.Equal(t, uint32(4), applied.Sets)
	assert.Len(t, applied.Completions, 1)

	matched, ok := MatchPreset(applied)
	require.True(t, ok)
	assert.Equal(t, "mid", matched.Name)

	low, ok := MatchPreset(Default())
	require.True(t, ok)
	assert.Equal(t, "low", low.Name)

	_, ok = MatchPreset(Settings{WorkSeconds: 35, Sets: 3})
	assert.False(t, ok)

	_, err = PresetByName("extreme")
	assert.True(t, errors.Is(err, ErrUnknownPreset))
}

func TestYAMLStore_MissingFileGivesDefaults(t *testing.T) {
	store := NewYAMLStore(filepath.Join(t.TempDir(), "nope", "settings.yaml"))
	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestYAMLStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hiit", "settings.yaml")
	store := NewYAMLStore(path)

	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	in := Settings{WorkSeconds: 45, ExerciseRestSeconds: 0, SetRestSeconds: 15, Sets: 6,
		Completions: map[string]time.Time{"Core": at}}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(45), out.WorkSeconds)
	assert.Equal(t, uint32(0), out.ExerciseRestSeconds)
	assert.Equal(t, uint32(15), out.SetRestSeconds)
	assert.Equal(t, uint32(6), out.Sets)
	require.Contains(t, out.Completions, "Core")
	assert.True(t, out.Completions["Core"].Equal(at))
}

func TestYAMLStore_MissingAndMalformedFieldsFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "high_intensity_duration_secs: 60\n" +
		"rest_exercise_duration_secs: lots\n" +
		"sets: -2\n" +
		"routine_completions:\n" +
		"  Core: 2024-01-02T03:04:05Z\n" +
		"  Broken: yesterday\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := NewYAMLStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(60), s.WorkSeconds)
	assert.Equal(t, uint32(DefaultExerciseRestSeconds), s.ExerciseRestSeconds)
	assert.Equal(t, uint32(DefaultSetRestSeconds), s.SetRestSeconds)
	assert.Equal(t, uint32(DefaultSets), s.Sets)
	assert.Contains(t, s.Completions, "Core")
	assert.NotContains(t, s.Completions, "Broken")
}

func TestYAMLStore_NotAMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- 1\n- 2\n"), 0o644))

	s, err := NewYAMLStore(path).Load()
	assert.Error(t, err)
	assert.Equal(t, Default(), s)
}

func TestDecodeJSON_PartialRecord(t *testing.T) {
	s, err := decodeJSON([]byte(`{"sets": 5, "rest_set_duration_secs": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, uint32(5), s.Sets)
	assert.Equal(t, uint32(DefaultSetRestSeconds), s.SetRestSeconds)
	assert.Equal(t, uint32(DefaultWorkSeconds), s.WorkSeconds)

	_, err = decodeJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "hiit.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), s)

	mid, _ := PresetByName("mid")
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(mid.Apply(Default()).WithCompletion("Core", at)))

	// second save updates the same row
	high, _ := PresetByName("high")
	require.NoError(t, store.Save(high.Apply(Default()).WithCompletion("Core", at)))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.True(t, high.Matches(loaded))
	assert.True(t, loaded.Completions["Core"].Equal(at))
}

func TestSQLiteStore_History(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "hiit.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendCompletion(ctx, Completion{Routine: "Core", RunID: "a", CompletedAt: base}))
	require.NoError(t, store.AppendCompletion(ctx, Completion{Routine: "Core", RunID: "b", CompletedAt: base.Add(time.Hour)}))
	require.NoError(t, store.AppendCompletion(ctx, Completion{Routine: "Strength Training", RunID: "c", CompletedAt: base}))

	history, err := store.History(ctx, "Core")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].RunID)
	assert.Equal(t, "a", history[1].RunID)
	assert.True(t, history[1].CompletedAt.Equal(base))

	none, err := store.History(ctx, "Unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

type failingStore struct {
	loadErr error
	saveErr error
}

func (f failingStore) Load() (Settings, error) { return Settings{}, f.loadErr }
func (f failingStore) Save(Settings) error     { return f.saveErr }

func TestProvider_LoadFailureUsesDefaults(t *testing.T) {
	p := NewProvider(failingStore{loadErr: errors.New("disk on fire")}, testLogger())
	assert.Equal(t, Default(), p.Read())
}

func TestProvider_WriteUpdatesSnapshotEvenWhenSaveFails(t *testing.T) {
	p := NewProvider(failingStore{saveErr: errors.New("read-only")}, testLogger())
	s := Default()
	s.WorkSeconds = 45

	err := p.Write(s)
	assert.Error(t, err)
	assert.Equal(t, uint32(45), p.Read().WorkSeconds)
}

func TestProvider_ReadReturnsCopies(t *testing.T) {
	p := NewProvider(NewMemoryStore(), testLogger())
	first := p.Read()
	first.Completions["Core"] = time.Now()
	first.Sets = 20

	second := p.Read()
	assert.Empty(t, second.Completions)
	assert.Equal(t, uint32(DefaultSets), second.Sets)
}

func TestProvider_WritePersistsClampedValues(t *testing.T) {
	store := NewMemoryStore()
	p := NewProvider(store, testLogger())

	require.NoError(t, p.Write(Settings{WorkSeconds: 999, Sets: 0}))
	assert.Equal(t, uint32(300), p.Read().WorkSeconds)
	assert.Equal(t, uint32(1), p.Read().Sets)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(300), saved.WorkSeconds)
	assert.Equal(t, 1, store.SaveCount())
}

func TestProvider_ApplyPreset(t *testing.T) {
	p := NewProvider(NewMemoryStore(), testLogger())
	require.NoError(t, p.Write(Default().WithCompletion("Core", time.Unix(10, 0))))

	require.NoError(t, p.ApplyPreset("high"))
	s := p.Read()
	assert.Equal(t, uint32(60), s.WorkSeconds)
	assert.Equal(t, uint32(0), s.ExerciseRestSeconds)
	assert.Contains(t, s.Completions, "Core")

	assert.ErrorIs(t, p.ApplyPreset("nope"), ErrUnknownPreset)
}

func TestProvider_RecordCompletionDebounce(t *testing.T) {
	store := NewMemoryStore()
	p := NewProvider(store, testLogger())
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	recorded, err := p.RecordCompletion("Core", now)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = p.RecordCompletion("Core", now.Add(3*time.Second))
	require.NoError(t, err)
	assert.False(t, recorded)

	last, ok := p.Read().LastCompletion("Core")
	require.True(t, ok)
	assert.True(t, last.Equal(now))

	recorded, err = p.RecordCompletion("Core", now.Add(11*time.Second))
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Equal(t, 2, store.SaveCount())
}

func TestProvider_MarkCompletionIgnoresDebounce(t *testing.T) {
	store := NewMemoryStore()
	p := NewProvider(store, testLogger())
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	recorded, err := p.RecordCompletion("Core", now)
	require.NoError(t, err)
	require.True(t, recorded)

	require.NoError(t, p.MarkCompletion("Core", now.Add(2*time.Second)))
	last, ok := p.Read().LastCompletion("Core")
	require.True(t, ok)
	assert.True(t, last.Equal(now.Add(2*time.Second)))
	assert.Equal(t, 2, store.SaveCount())
}

// slowStore stalls every save so concurrent updates overlap
type slowStore struct {
	*MemoryStore
}

func (s slowStore) Save(settings Settings) error {
	time.Sleep(time.Millisecond)
	return s.MemoryStore.Save(settings)
}

func TestProvider_ConcurrentUpdatesSaveNewestSnapshot(t *testing.T) {
	store := slowStore{NewMemoryStore()}
	p := NewProvider(store, testLogger())
	start := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = p.RecordCompletion(fmt.Sprintf("Routine %d", i), start.Add(time.Duration(i)*time.Minute))
		}()
		go func() {
			defer wg.Done()
			_ = p.ApplyPreset(Presets[i%len(Presets)].Name)
		}()
	}
	wg.Wait()

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, p.Read(), saved)
	assert.Len(t, saved.Completions, 20)
}

func ptr[T any](v T) *T {
	return &v
}
