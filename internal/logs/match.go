package logs

import (
	"encoding/json"
	"strings"
)

// Matcher reports whether a raw log line should be shown.
type Matcher func(line string) bool

type record struct {
	Level string `json:"level"`
	RunID string `json:"run_id"`
}

var levelRank = map[string]int{
	"debug":   0,
	"verbose": 1,
	"info":    2,
	"warn":    3,
	"error":   4,
}

// All combines matchers; nil entries are ignored.
func All(matchers ...Matcher) Matcher {
	active := make([]Matcher, 0, len(matchers))
	for _, m := range matchers {
		if m != nil {
			active = append(active, m)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, m := range active {
			if !m(line) {
				return false
			}
		}
		return true
	}
}

// RunMatcher keeps JSON records whose run_id starts with id. An empty id
// matches everything.
func RunMatcher(id string) Matcher {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return func(line string) bool {
		rec, ok := decode(line)
		return ok && rec.RunID != "" && strings.HasPrefix(rec.RunID, id)
	}
}

// LevelMatcher keeps JSON records at or above level. Unknown levels match
// everything.
func LevelMatcher(level string) Matcher {
	minRank, ok := levelRank[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return nil
	}
	return func(line string) bool {
		rec, ok := decode(line)
		if !ok {
			return false
		}
		rank, known := levelRank[rec.Level]
		return !known || rank >= minRank
	}
}

func decode(line string) (record, bool) {
	var rec record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return record{}, false
	}
	return rec, true
}
