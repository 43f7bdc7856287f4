// Package featureflags evaluates rollout flags configured as a key=value list,
// e.g. "event_stream=on,response_cache=25%".
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags consulted by the server.
const (
	// EventStream allows a user to open /ws/users/:id.
	EventStream = "event_stream"
)

type rule struct {
	raw     string
	percent int // 0 = off, 100 = on
}

// Manager holds parsed flag rules. A nil Manager reports every flag disabled.
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated flag list. Malformed entries are skipped.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		pct, ok := parsePercent(value)
		if !ok {
			continue
		}
		rules[key] = rule{raw: value, percent: pct}
	}
	return &Manager{rules: rules}
}

func parsePercent(value string) (int, bool) {
	switch value {
	case "on", "true", "1":
		return 100, true
	case "off", "false", "0":
		return 0, true
	}
	digits, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	pct, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return min(max(pct, 0), 100), true
}

// Enabled reports whether name is on for userID. Partial rollouts place each
// user in a stable bucket; an empty userID is never in a partial rollout.
func (m *Manager) Enabled(name, userID string) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}
	switch {
	case r.percent <= 0:
		return false
	case r.percent >= 100:
		return true
	case userID == "":
		return false
	default:
		return bucket(name, userID) < r.percent
	}
}

// Names returns the configured flag names in sorted order.
func (m *Manager) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.rules))
	for name := range m.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns each configured flag's raw value and its state for userID.
func (m *Manager) Snapshot(userID string) map[string]any {
	out := make(map[string]any, len(m.Names()))
	for _, name := range m.Names() {
		out[name] = map[string]any{
			"value":   m.rules[name].raw,
			"enabled": m.Enabled(name, userID),
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name, userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + userID))
	return int(h.Sum32() % 100)
}
