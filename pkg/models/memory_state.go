package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MemoryPhase is the FSRS card phase
type MemoryPhase int

const (
	PhaseNew MemoryPhase = iota
	PhaseLearning
	PhaseReview
	PhaseRelearning
)

func (p MemoryPhase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseLearning:
		return "learning"
	case PhaseReview:
		return "review"
	case PhaseRelearning:
		return "relearning"
	default:
		return "unknown"
	}
}

// MemoryState is the spaced-repetition state of one skill of one item
type MemoryState struct {
	Due           time.Time   `json:"due"`
	Stability     float64     `json:"stability"` // days
	Difficulty    float64     `json:"difficulty"`
	ElapsedDays   int         `json:"elapsed_days"`
	ScheduledDays int         `json:"scheduled_days"`
	Reps          int         `json:"reps"`
	Lapses        int         `json:"lapses"`
	State         MemoryPhase `json:"state"`
	LastReview    *time.Time  `json:"last_review,omitempty"`
}

// Value stores the state as a JSON document
func (m MemoryState) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan reads a state stored as a JSON document
func (m *MemoryState) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case nil:
		*m = MemoryState{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MemoryState", src)
	}
	return json.Unmarshal(data, m)
}
