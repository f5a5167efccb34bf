package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

// YAMLStore persists settings as a YAML file
type YAMLStore struct {
	path string
}

func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// DefaultYAMLPath returns the settings file under the user config directory
func DefaultYAMLPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// Path returns the file the store reads and writes
func (s *YAMLStore) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields the defaults.
func (s *YAMLStore) Load() (Settings, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read settings file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Default(), fmt.Errorf("parse settings yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return Default(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Default(), fmt.Errorf("parse settings yaml: expected a mapping at the top level")
	}

	fields := make(map[string]*yaml.Node, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		fields[root.Content[i].Value] = root.Content[i+1]
	}

	return decodeFields(func(key string, dst any) bool {
		node, ok := fields[key]
		if !ok {
			return false
		}
		return node.Decode(dst) == nil
	}), nil
}

// Save writes the settings file, creating its directory if needed
func (s *YAMLStore) Save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(toRecord(settings))
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(s.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}
