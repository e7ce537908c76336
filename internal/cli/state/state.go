package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PrefState stores sticky run preferences between sessions.
type PrefState struct {
	ToolchainPath     string   `json:"toolchain_path,omitempty"`
	OptimizationLevel string   `json:"optimization_level,omitempty"`
	LanguageStandard  string   `json:"language_standard,omitempty"`
	ExtraFlags        []string `json:"extra_flags,omitempty"`
	TimeLimitMs       int64    `json:"time_limit_ms,omitempty"`
	MemoryMB          int64    `json:"memory_mb,omitempty"`
}

func Load(path string) (PrefState, error) {
	var st PrefState
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("read pref state failed: %w", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse pref state failed: %w", err)
	}
	return st, nil
}

func Save(path string, st PrefState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pref state dir failed: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pref state failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write pref state failed: %w", err)
	}
	return nil
}

func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove pref state failed: %w", err)
	}
	return nil
}
