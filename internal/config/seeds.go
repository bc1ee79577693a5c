package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSeeds reads the starting league points per user id from a YAML
// mapping. Values that are not whole numbers are logged and read as 0. An
// empty path yields an empty table.
func LoadSeeds(path string) (map[string]int, error) {
	if path == "" {
		return map[string]int{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seeds file: %w", err)
	}
	return ParseSeeds(data)
}

func ParseSeeds(data []byte) (map[string]int, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing seeds file: %w", err)
	}

	seeds := make(map[string]int, len(raw))
	for userID, v := range raw {
		score, ok := seedValue(v)
		if !ok {
			slog.Warn("Invalid seed score, using 0", "user_id", userID, "value", v)
		}
		seeds[userID] = score
	}
	return seeds, nil
}

func seedValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
