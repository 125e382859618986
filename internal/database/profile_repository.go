package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/lexitrack/pkg/models"
	"github.com/jmoiron/sqlx"
)

// learnerProfileID is the row holding the single learner's profile
const learnerProfileID = 1

// ProfileRepository handles database operations for the learner profile
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new repository instance
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the learner profile
func (r *ProfileRepository) Get(ctx context.Context) (*models.LearnerProfile, error) {
	query := r.db.Rebind(`
		SELECT id, computed_level, comprehension_ceiling, production_ceiling,
		       reading_level, listening_level, speaking_level, writing_level,
		       current_streak, longest_streak, total_review_events, daily_new_item_limit,
		       last_active_date, updated_at
		FROM learner_profile
		WHERE id = ?`)

	var p models.LearnerProfile
	if err := r.db.GetContext(ctx, &p, query, learnerProfileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("learner profile: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get learner profile: %w", err)
	}
	return &p, nil
}

// Save inserts or replaces the learner profile
func (r *ProfileRepository) Save(ctx context.Context, p *models.LearnerProfile) error {
	p.ID = learnerProfileID

	query := r.db.Rebind(`
		INSERT INTO learner_profile (
			id, computed_level, comprehension_ceiling, production_ceiling,
			reading_level, listening_level, speaking_level, writing_level,
			current_streak, longest_streak, total_review_events, daily_new_item_limit,
			last_active_date, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			computed_level = excluded.computed_level,
			comprehension_ceiling = excluded.comprehension_ceiling,
			production_ceiling = excluded.production_ceiling,
			reading_level = excluded.reading_level,
			listening_level = excluded.listening_level,
			speaking_level = excluded.speaking_level,
			writing_level = excluded.writing_level,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			total_review_events = excluded.total_review_events,
			daily_new_item_limit = excluded.daily_new_item_limit,
			last_active_date = excluded.last_active_date,
			updated_at = excluded.updated_at`)

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.ComputedLevel,
		p.ComprehensionCeiling,
		p.ProductionCeiling,
		p.ReadingLevel,
		p.ListeningLevel,
		p.SpeakingLevel,
		p.WritingLevel,
		p.CurrentStreak,
		p.LongestStreak,
		p.TotalReviewEvents,
		p.DailyNewItemLimit,
		utcPtr(p.LastActiveDate),
		utc(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save learner profile: %w", err)
	}
	return nil
}

// SetDailyNewItemLimit changes how many new items are recommended per day
func (r *ProfileRepository) SetDailyNewItemLimit(ctx context.Context, limit int) error {
	if limit <= 0 {
		return models.InvalidInput("daily new item limit must be positive, got %d", limit)
	}

	p, err := r.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		p = &models.LearnerProfile{}
	} else if err != nil {
		return err
	}
	p.DailyNewItemLimit = limit
	return r.Save(ctx, p)
}
