package models

import (
	"time"

	"github.com/google/uuid"
)

// LevelBreakdown summarises coverage of one reference level
type LevelBreakdown struct {
	Level               string  `json:"level"`
	TotalReferenceItems int     `json:"total_reference_items"`
	KnownItems          int     `json:"known_items"`
	ProductionReady     int     `json:"production_ready"`
	Coverage            float64 `json:"coverage"`
}

// GapSeverity ranks how urgently a gap should be closed
type GapSeverity string

const (
	SeverityHigh   GapSeverity = "high"
	SeverityMedium GapSeverity = "medium"
	SeverityLow    GapSeverity = "low"
)

// Gap is an item at (or near) the learner's level that is missing or weak
type Gap struct {
	Kind        ItemKind    `json:"kind"`
	ItemID      int64       `json:"item_id,omitempty"` // zero for reference entries absent from the inventory
	SurfaceForm string      `json:"surface_form,omitempty"`
	PatternID   string      `json:"pattern_id,omitempty"`
	Reason      string      `json:"reason"`
	Severity    GapSeverity `json:"severity,omitempty"`
}

// KnowledgeBubble is the coverage of the learner's inventory against the reference corpus
type KnowledgeBubble struct {
	LevelBreakdowns    []LevelBreakdown `json:"level_breakdowns"`
	CurrentLevel       string           `json:"current_level"`
	FrontierLevel      string           `json:"frontier_level"`
	GapsInCurrentLevel []Gap            `json:"gaps_in_current_level"`
	OverallCoverage    float64          `json:"overall_coverage"`
}

// RecommendationStatus tracks what the learner did with a recommendation
type RecommendationStatus string

const (
	StatusQueued     RecommendationStatus = "queued"
	StatusIntroduced RecommendationStatus = "introduced"
	StatusSkipped    RecommendationStatus = "skipped"
)

// Recommendation is a ranked candidate for introduction
type Recommendation struct {
	ID               int64     `json:"id,omitempty" db:"id"`
	BatchID          uuid.UUID `json:"batch_id" db:"batch_id"`
	Kind             ItemKind  `json:"kind" db:"kind"`
	SurfaceForm      string    `json:"surface_form,omitempty" db:"surface_form"`
	Reading          string    `json:"reading,omitempty" db:"reading"`
	Meaning          string    `json:"meaning,omitempty" db:"meaning"`
	PatternID        string    `json:"pattern_id,omitempty" db:"pattern_id"`
	Name             string    `json:"name,omitempty" db:"name"`
	Level            string    `json:"level" db:"level"`
	FrequencyRank    int       `json:"frequency_rank" db:"frequency_rank"`
	Priority         float64   `json:"priority" db:"priority"`
	Reason           string    `json:"reason" db:"reason"`
	PrerequisitesMet bool      `json:"prerequisites_met" db:"prerequisites_met"`

	Status       RecommendationStatus `json:"status,omitempty" db:"status"`
	IntroducedAt *time.Time           `json:"introduced_at,omitempty" db:"introduced_at"`
}
