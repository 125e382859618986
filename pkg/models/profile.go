package models

import "time"

// LearnerProfile is the periodically recomputed level snapshot of the learner
type LearnerProfile struct {
	ID                   int64      `json:"id" db:"id"`
	ComputedLevel        string     `json:"computed_level" db:"computed_level"`
	ComprehensionCeiling string     `json:"comprehension_ceiling" db:"comprehension_ceiling"`
	ProductionCeiling    string     `json:"production_ceiling" db:"production_ceiling"`
	ReadingLevel         float64    `json:"reading_level" db:"reading_level"`
	ListeningLevel       float64    `json:"listening_level" db:"listening_level"`
	SpeakingLevel        float64    `json:"speaking_level" db:"speaking_level"`
	WritingLevel         float64    `json:"writing_level" db:"writing_level"`
	CurrentStreak        int        `json:"current_streak" db:"current_streak"`
	LongestStreak        int        `json:"longest_streak" db:"longest_streak"`
	TotalReviewEvents    int        `json:"total_review_events" db:"total_review_events"`
	DailyNewItemLimit    int        `json:"daily_new_item_limit" db:"daily_new_item_limit"`
	LastActiveDate       *time.Time `json:"last_active_date,omitempty" db:"last_active_date"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}
