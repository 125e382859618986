package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ItemKind distinguishes vocabulary from grammar items
type ItemKind string

const (
	KindLexical ItemKind = "lexical"
	KindGrammar ItemKind = "grammar"
)

// ParseItemKind validates a kind name
func ParseItemKind(s string) (ItemKind, error) {
	switch k := ItemKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLexical, KindGrammar:
		return k, nil
	default:
		return "", InvalidInput("unknown item kind %q", s)
	}
}

// Skill is the direction of a review
type Skill string

const (
	SkillRecognition Skill = "recognition"
	SkillProduction  Skill = "production"
	SkillCloze       Skill = "cloze"
)

// ParseSkill validates a skill name
func ParseSkill(s string) (Skill, error) {
	switch k := Skill(strings.ToLower(strings.TrimSpace(s))); k {
	case SkillRecognition, SkillProduction, SkillCloze:
		return k, nil
	default:
		return "", InvalidInput("unknown skill %q", s)
	}
}

// ContextTypes is the ordered set of distinct interaction contexts an item has been seen in
type ContextTypes []string

// Contains reports whether the context type was already seen
func (c ContextTypes) Contains(contextType string) bool {
	for _, existing := range c {
		if existing == contextType {
			return true
		}
	}
	return false
}

func (c ContextTypes) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(c))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (c *ContextTypes) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case nil:
		*c = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ContextTypes", src)
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*c = values
	return nil
}

// LearnableItem is a vocabulary word or grammar pattern in the learner's inventory
type LearnableItem struct {
	ID            int64        `json:"id" db:"id"`
	Kind          ItemKind     `json:"kind" db:"kind"`
	SurfaceForm   string       `json:"surface_form" db:"surface_form"` // word, or pattern name for grammar
	PatternID     string       `json:"pattern_id,omitempty" db:"pattern_id"`
	Reading       string       `json:"reading,omitempty" db:"reading"`
	Meaning       string       `json:"meaning" db:"meaning"`
	Level         string       `json:"level" db:"level"`
	FrequencyRank int          `json:"frequency_rank" db:"frequency_rank"`
	Stage         MasteryStage `json:"stage" db:"stage"`
	Recognition   MemoryState  `json:"recognition" db:"recognition_state"`
	Production    MemoryState  `json:"production" db:"production_state"`

	ProductionWeight  float64      `json:"production_weight" db:"production_weight"`
	ProductionCount   int          `json:"production_count" db:"production_count"`
	ExposureCount     int          `json:"exposure_count" db:"exposure_count"`
	ContextTypes      ContextTypes `json:"context_types" db:"context_types"`
	ContextCount      int          `json:"context_count" db:"context_count"`
	NovelContextCount int          `json:"novel_context_count" db:"novel_context_count"` // grammar only

	ReadingExposures    int `json:"reading_exposures" db:"reading_exposures"`
	WritingProductions  int `json:"writing_productions" db:"writing_productions"`
	ListeningExposures  int `json:"listening_exposures" db:"listening_exposures"`
	SpeakingProductions int `json:"speaking_productions" db:"speaking_productions"`

	LastReviewed *time.Time `json:"last_reviewed,omitempty" db:"last_reviewed"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Memory returns the memory state that reviews of the given skill schedule.
// Cloze reviews exercise recognition.
func (i *LearnableItem) Memory(skill Skill) *MemoryState {
	if skill == SkillProduction {
		return &i.Production
	}
	return &i.Recognition
}

// Key identifies the item by its surface form or pattern id
func (i *LearnableItem) Key() string {
	if i.Kind == KindGrammar {
		return i.PatternID
	}
	return i.SurfaceForm
}
