package settings

import (
	"encoding/json"
	"fmt"
	"time"
)

// Keys of the persisted settings record
const (
	keyWork         = "high_intensity_duration_secs"
	keyExerciseRest = "rest_exercise_duration_secs"
	keySetRest      = "rest_set_duration_secs"
	keySets         = "sets"
	keyCompletions  = "routine_completions"
)

// record is the persisted form of Settings
type record struct {
	HighIntensityDurationSecs uint32            `yaml:"high_intensity_duration_secs" json:"high_intensity_duration_secs"`
	RestExerciseDurationSecs  uint32            `yaml:"rest_exercise_duration_secs" json:"rest_exercise_duration_secs"`
	RestSetDurationSecs       uint32            `yaml:"rest_set_duration_secs" json:"rest_set_duration_secs"`
	Sets                      uint32            `yaml:"sets" json:"sets"`
	RoutineCompletions        map[string]string `yaml:"routine_completions" json:"routine_completions"`
}

func toRecord(s Settings) record {
	r := record{
		HighIntensityDurationSecs: s.WorkSeconds,
		RestExerciseDurationSecs:  s.ExerciseRestSeconds,
		RestSetDurationSecs:       s.SetRestSeconds,
		Sets:                      s.Sets,
		RoutineCompletions:        make(map[string]string, len(s.Completions)),
	}
	for name, at := range s.Completions {
		r.RoutineCompletions[name] = at.UTC().Format(time.RFC3339Nano)
	}
	return r
}

// fieldDecoder decodes the stored value for key into dst. It returns false
// when the key is absent or its value cannot be decoded into dst.
type fieldDecoder func(key string, dst any) bool

// decodeFields builds Settings field by field so one missing or malformed
// field falls back to its default without discarding the others
func decodeFields(get fieldDecoder) Settings {
	s := Default()

	var n uint32
	if get(keyWork, &n) {
		s.WorkSeconds = n
	}
	if get(keyExerciseRest, &n) {
		s.ExerciseRestSeconds = n
	}
	if get(keySetRest, &n) {
		s.SetRestSeconds = n
	}
	if get(keySets, &n) {
		s.Sets = n
	}

	var completions map[string]string
	if get(keyCompletions, &completions) {
		for name, raw := range completions {
			at, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				continue
			}
			s.Completions[name] = at
		}
	}

	return s.Clamp()
}

func decodeJSON(raw []byte) (Settings, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Default(), fmt.Errorf("parse settings json: %w", err)
	}
	return decodeFields(func(key string, dst any) bool {
		value, ok := fields[key]
		if !ok {
			return false
		}
		return json.Unmarshal(value, dst) == nil
	}), nil
}

func encodeJSON(s Settings) ([]byte, error) {
	raw, err := json.Marshal(toRecord(s))
	if err != nil {
		return nil, fmt.Errorf("marshal settings json: %w", err)
	}
	return raw, nil
}
