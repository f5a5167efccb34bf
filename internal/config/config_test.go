package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/hiit-timer/internal/settings"
)

// isolate points the user config and cache dirs at a temp dir
func isolate(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.ConfigFile)
	assert.Equal(t, "", cfg.Routine)
	assert.Equal(t, 25*time.Millisecond, cfg.TickPeriod)
	assert.Equal(t, BackendYAML, cfg.SettingsBackend)
	assert.Equal(t, filepath.Join(dir, "config", AppName, "settings.yaml"), cfg.SettingsPath)
	assert.Equal(t, filepath.Join(dir, "cache", AppName, AppName+".log"), cfg.LogFile)
	assert.Equal(t, 5, cfg.LogMaxSizeMB)
	assert.Equal(t, 3, cfg.LogMaxBackups)
	assert.Equal(t, 28, cfg.LogMaxAgeDays)
	assert.False(t, cfg.Mute)
	assert.Equal(t, 10*time.Second, cfg.SpeechTimeout)
	assert.False(t, cfg.Headless)
	assert.False(t, cfg.Autostart)
}

func TestLoad_Flags(t *testing.T) {
	isolate(t)

	cfg, err := Load([]string{
		"-r", "3",
		"--tick-period", "50ms",
		"--settings-backend", "SQLite",
		"--preset", "High",
		"--mute",
		"--speech-timeout", "3s",
		"--headless",
		"--autostart",
		"--metrics-addr", ":9090",
	})
	require.NoError(t, err)

	assert.Equal(t, "3", cfg.Routine)
	assert.Equal(t, 50*time.Millisecond, cfg.TickPeriod)
	assert.Equal(t, BackendSQLite, cfg.SettingsBackend)
	assert.Equal(t, "hiit.sqlite", filepath.Base(cfg.SettingsPath))
	assert.Equal(t, "high", cfg.Preset)
	assert.True(t, cfg.Mute)
	assert.Equal(t, 3*time.Second, cfg.SpeechTimeout)
	assert.True(t, cfg.Headless)
	assert.True(t, cfg.Autostart)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("HIIT_ROUTINE", "2")
	t.Setenv("HIIT_TICK_PERIOD", "100ms")
	t.Setenv("HIIT_SETTINGS_BACKEND", "memory")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "2", cfg.Routine)
	assert.Equal(t, 100*time.Millisecond, cfg.TickPeriod)
	assert.Equal(t, BackendMemory, cfg.SettingsBackend)
	assert.Equal(t, "", cfg.SettingsPath)

	// an explicit flag beats the environment
	cfg, err = Load([]string{"--routine", "3"})
	require.NoError(t, err)
	assert.Equal(t, "3", cfg.Routine)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	content := "routine: \"3\"\n" +
		"tick-period: 40ms\n" +
		"audio-dir: /srv/audio\n" +
		"log-max-backups: 9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "3", cfg.Routine)
	assert.Equal(t, 40*time.Millisecond, cfg.TickPeriod)
	assert.Equal(t, "/srv/audio", cfg.AudioDir)
	assert.Equal(t, 9, cfg.LogMaxBackups)
}

func TestLoad_DefaultConfigFileIsOptional(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config", AppName, "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("mute: true\n"), 0o644))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.True(t, cfg.Mute)
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing explicit config", args: []string{"--config", filepath.Join(dir, "missing.yaml")}},
		{name: "zero tick period", args: []string{"--tick-period", "0s"}},
		{name: "zero speech timeout", args: []string{"--speech-timeout", "0s"}},
		{name: "unknown backend", args: []string{"--settings-backend", "postgres"}},
		{name: "unknown preset", args: []string{"--preset", "extreme"}},
		{name: "negative log size", args: []string{"--log-max-size-mb", "-1"}},
		{name: "unknown flag", args: []string{"--bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLoad_UnknownPresetWrapsSentinel(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--preset", "extreme"})
	assert.ErrorIs(t, err, settings.ErrUnknownPreset)
}

func TestLoad_Help(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--help"})
	assert.ErrorIs(t, err, ErrHelp)
	assert.Contains(t, Usage(), "--tick-period")
}
