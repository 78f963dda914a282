package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadWhitelist reads a JSON array of macro-name glob patterns (spec §6
// -w/--whitelist: "JSON array of macro names eligible for symbolic
// execution"). Patterns use doublestar glob syntax so a project can write
// "FEATURE_*" to cover a family of macros without enumerating each one.
func LoadWhitelist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read whitelist %s: %w", path, err)
	}
	var patterns []string
	if err := json.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("failed to parse whitelist %s: %w", path, err)
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid whitelist pattern %q in %s", p, path)
		}
	}
	return patterns, nil
}

// Whitelisted reports whether name is eligible for symbolic execution. An
// empty pattern set means "treat every macro symbolically" (spec: "others
// are treated concretely" only applies once a whitelist is given).
func Whitelisted(patterns []string, name string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
