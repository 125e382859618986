package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReviewSubmission is a single graded review coming from the review UI
type ReviewSubmission struct {
	ItemID      int64
	Kind        ItemKind
	Grade       Grade
	Skill       Skill
	SessionID   string
	ContextType string   // defaults to "srs_review"
	Weight      *float64 // explicit production weight override
}

// ReviewEvent is the persisted record of a submission
type ReviewEvent struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	ItemID           int64        `json:"item_id" db:"item_id"`
	Kind             ItemKind     `json:"kind" db:"kind"`
	Grade            string       `json:"grade" db:"grade"`
	Skill            Skill        `json:"skill" db:"skill"`
	SessionID        string       `json:"session_id,omitempty" db:"session_id"`
	ContextType      string       `json:"context_type" db:"context_type"`
	ProductionWeight float64      `json:"production_weight" db:"production_weight"`
	StageBefore      MasteryStage `json:"stage_before" db:"stage_before"`
	StageAfter       MasteryStage `json:"stage_after" db:"stage_after"`
	ReviewedAt       time.Time    `json:"reviewed_at" db:"reviewed_at"`
}

// DefaultContextType tags reviews submitted without a context
const DefaultContextType = "srs_review"

// Modality is the channel an item was encountered or produced in
type Modality string

const (
	ModalityReading   Modality = "reading"
	ModalityWriting   Modality = "writing"
	ModalityListening Modality = "listening"
	ModalitySpeaking  Modality = "speaking"
)

// ParseModality validates a modality name
func ParseModality(s string) (Modality, error) {
	switch m := Modality(strings.ToLower(strings.TrimSpace(s))); m {
	case ModalityReading, ModalityWriting, ModalityListening, ModalitySpeaking:
		return m, nil
	default:
		return "", InvalidInput("unknown modality %q", s)
	}
}

// ContextLogEntry records an item appearing in an interaction context
type ContextLogEntry struct {
	ID            int64     `json:"id" db:"id"`
	ItemID        int64     `json:"item_id" db:"item_id"`
	Kind          ItemKind  `json:"kind" db:"kind"`
	ContextType   string    `json:"context_type" db:"context_type"`
	Modality      Modality  `json:"modality" db:"modality"`
	WasProduction bool      `json:"was_production" db:"was_production"`
	WasSuccessful *bool     `json:"was_successful,omitempty" db:"was_successful"`
	Quote         string    `json:"quote,omitempty" db:"quote"`
	SessionID     string    `json:"session_id,omitempty" db:"session_id"`
	LoggedAt      time.Time `json:"logged_at" db:"logged_at"`
}

// ReviewQueueItem is one due (item, skill) pair
type ReviewQueueItem struct {
	ItemID      int64        `json:"item_id"`
	Kind        ItemKind     `json:"kind"`
	SurfaceForm string       `json:"surface_form"`
	Reading     string       `json:"reading,omitempty"`
	Meaning     string       `json:"meaning"`
	Skill       Skill        `json:"skill"`
	Stage       MasteryStage `json:"stage"`
	OverdueDays int          `json:"overdue_days"`

	Retrievability float64 `json:"retrievability"`
}

// Activity is everything one learner action writes. Nil parts are skipped;
// the parts are stored together or not at all.
type Activity struct {
	Item    *LearnableItem
	Event   *ReviewEvent
	Context *ContextLogEntry
}
