package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowaak/hiit-timer/internal/clock"
	"github.com/lowaak/hiit-timer/internal/settings"
	"github.com/lowaak/hiit-timer/internal/speech"
)

// AppName names the config directory and the environment prefix
const AppName = "hiit-timer"

const envPrefix = "HIIT"

// Settings backends
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Flag and config keys
const (
	KeyConfig          = "config"
	KeyRoutine         = "routine"
	KeyTickPeriod      = "tick-period"
	KeySettingsBackend = "settings-backend"
	KeySettingsPath    = "settings-path"
	KeyPreset          = "preset"
	KeyRoutinesFile    = "routines-file"
	KeyAudioDir        = "audio-dir"
	KeyAudioPlayer     = "audio-player"
	KeyTTSCommand      = "tts-command"
	KeyMute            = "mute"
	KeySpeechTimeout   = "speech-timeout"
	KeyLogFile         = "log-file"
	KeyLogMaxSizeMB    = "log-max-size-mb"
	KeyLogMaxBackups   = "log-max-backups"
	KeyLogMaxAgeDays   = "log-max-age-days"
	KeyMetricsAddr     = "metrics-addr"
	KeyHeadless        = "headless"
	KeyAutostart       = "autostart"
)

// ErrHelp is returned when --help was requested
var ErrHelp = pflag.ErrHelp

// Config is the resolved application configuration
type Config struct {
	ConfigFile      string // Config file that was read, empty if none
	Routine         string
	TickPeriod      time.Duration
	SettingsBackend string
	SettingsPath    string
	Preset          string
	RoutinesFile    string
	AudioDir        string
	AudioPlayer     string
	TTSCommand      string
	Mute            bool
	SpeechTimeout   time.Duration
	LogFile         string
	LogMaxSizeMB    int
	LogMaxBackups   int
	LogMaxAgeDays   int
	MetricsAddr     string
	Headless        bool
	Autostart       bool
}

// newFlagSet declares every flag with its default
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.String(KeyConfig, "", "config file (default $XDG_CONFIG_HOME/hiit-timer/config.yaml)")
	fs.StringP(KeyRoutine, "r", "", "routine id to open, empty shows the routine list")
	fs.Duration(KeyTickPeriod, clock.DefaultTickPeriod, "clock tick period")
	fs.String(KeySettingsBackend, BackendYAML, "settings storage: yaml, sqlite or memory")
	fs.String(KeySettingsPath, "", "settings file or database (default under the user config dir)")
	fs.StringP(KeyPreset, "p", "", "apply a preset at startup: low, mid or high")
	fs.String(KeyRoutinesFile, "", "YAML file with additional routines")
	fs.String(KeyAudioDir, "", "directory with recorded announcement clips")
	fs.String(KeyAudioPlayer, "", "command used to play clips (default: first of mpg123, ffplay, afplay, paplay)")
	fs.String(KeyTTSCommand, "", "speech synthesis command (default: first of espeak-ng, espeak, say, spd-say)")
	fs.Bool(KeyMute, false, "disable announcements")
	fs.Duration(KeySpeechTimeout, speech.DefaultSayTimeout, "longest a single announcement may play")
	fs.String(KeyLogFile, "", "log file (default under the user cache dir)")
	fs.Int(KeyLogMaxSizeMB, 5, "rotate the log file after this many megabytes")
	fs.Int(KeyLogMaxBackups, 3, "rotated log files to keep")
	fs.Int(KeyLogMaxAgeDays, 28, "days to keep rotated log files")
	fs.String(KeyMetricsAddr, "", "serve Prometheus metrics on this address, e.g. :9090")
	fs.Bool(KeyHeadless, false, "print progress as plain lines instead of the terminal UI")
	fs.Bool(KeyAutostart, false, "start the routine immediately")
	return fs
}

// Load resolves the configuration from args, the environment and the
// config file, in decreasing precedence
func Load(args []string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	configFile := v.GetString(KeyConfig)
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if explicit || !missing {
				return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
			}
			configFile = ""
		}
	}

	cfg := Config{
		ConfigFile:      configFile,
		Routine:         v.GetString(KeyRoutine),
		TickPeriod:      v.GetDuration(KeyTickPeriod),
		SettingsBackend: strings.ToLower(v.GetString(KeySettingsBackend)),
		SettingsPath:    v.GetString(KeySettingsPath),
		Preset:          strings.ToLower(v.GetString(KeyPreset)),
		RoutinesFile:    v.GetString(KeyRoutinesFile),
		AudioDir:        v.GetString(KeyAudioDir),
		AudioPlayer:     v.GetString(KeyAudioPlayer),
		TTSCommand:      v.GetString(KeyTTSCommand),
		Mute:            v.GetBool(KeyMute),
		SpeechTimeout:   v.GetDuration(KeySpeechTimeout),
		LogFile:         v.GetString(KeyLogFile),
		LogMaxSizeMB:    v.GetInt(KeyLogMaxSizeMB),
		LogMaxBackups:   v.GetInt(KeyLogMaxBackups),
		LogMaxAgeDays:   v.GetInt(KeyLogMaxAgeDays),
		MetricsAddr:     v.GetString(KeyMetricsAddr),
		Headless:        v.GetBool(KeyHeadless),
		Autostart:       v.GetBool(KeyAutostart),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.withDefaultPaths(), nil
}

// Usage returns the flag help text
func Usage() string {
	return newFlagSet().FlagUsages()
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.TickPeriod <= 0 {
		return fmt.Errorf("%s must be positive, got %v", KeyTickPeriod, c.TickPeriod)
	}
	if c.SpeechTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %v", KeySpeechTimeout, c.SpeechTimeout)
	}
	switch c.SettingsBackend {
	case BackendYAML, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown %s %q", KeySettingsBackend, c.SettingsBackend)
	}
	if c.Preset != "" {
		if _, err := settings.PresetByName(c.Preset); err != nil {
			return fmt.Errorf("%s: %w", KeyPreset, err)
		}
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 || c.LogMaxAgeDays < 0 {
		return errors.New("log rotation limits cannot be negative")
	}
	return nil
}

// withDefaultPaths fills the settings and log paths that were left empty
func (c Config) withDefaultPaths() Config {
	if c.SettingsPath == "" && c.SettingsBackend != BackendMemory {
		if path, err := settings.DefaultYAMLPath(AppName); err == nil {
			if c.SettingsBackend == BackendSQLite {
				path = filepath.Join(filepath.Dir(path), "hiit.sqlite")
			}
			c.SettingsPath = path
		}
	}
	if c.LogFile == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			c.LogFile = filepath.Join(dir, AppName, AppName+".log")
		}
	}
	return c
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, "config.yaml")
}
