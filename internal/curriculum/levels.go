package curriculum

import (
	"strings"

	"github.com/example/lexitrack/pkg/models"
)

// LevelScale is a totally ordered sequence of reference levels, weakest first
type LevelScale []string

// DefaultLevels is the CEFR scale
var DefaultLevels = LevelScale{"A1", "A2", "B1", "B2", "C1", "C2"}

// NewLevelScale validates a level ordering: non-empty, no blanks, no duplicates
func NewLevelScale(levels ...string) (LevelScale, error) {
	if len(levels) == 0 {
		return nil, models.InvalidInput("level scale is empty")
	}
	seen := make(map[string]bool, len(levels))
	scale := make(LevelScale, 0, len(levels))
	for _, level := range levels {
		level = strings.TrimSpace(level)
		if level == "" {
			return nil, models.InvalidInput("level scale contains a blank level")
		}
		if seen[level] {
			return nil, models.InvalidInput("level %q appears twice in scale", level)
		}
		seen[level] = true
		scale = append(scale, level)
	}
	return scale, nil
}

// ParseLevelScale reads a comma separated level list such as "N5,N4,N3,N2,N1"
func ParseLevelScale(s string) (LevelScale, error) {
	return NewLevelScale(strings.Split(s, ",")...)
}

// Index returns the ordinal of level, or -1 when it is not on the scale
func (s LevelScale) Index(level string) int {
	for i, l := range s {
		if l == level {
			return i
		}
	}
	return -1
}

func (s LevelScale) Contains(level string) bool {
	return s.Index(level) >= 0
}

func (s LevelScale) Weakest() string {
	return s[0]
}

func (s LevelScale) Strongest() string {
	return s[len(s)-1]
}

// Next returns the level above level, clamped to the strongest
func (s LevelScale) Next(level string) string {
	idx := s.Index(level)
	if idx < 0 || idx+1 >= len(s) {
		return s.Strongest()
	}
	return s[idx+1]
}

// Normalize maps an untagged item to the weakest level
func (s LevelScale) Normalize(level string) string {
	if level == "" {
		return s.Weakest()
	}
	return level
}

// Higher returns whichever of a and b is ordinally higher; ties favour a
func (s LevelScale) Higher(a, b string) string {
	if s.Index(b) > s.Index(a) {
		return b
	}
	return a
}
