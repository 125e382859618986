package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lexitrack/pkg/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const recommendationColumns = `id, batch_id, kind, surface_form, reading, meaning, pattern_id, name,
	level, frequency_rank, priority, reason, prerequisites_met, status, introduced_at`

// RecommendationRepository handles database operations for queued recommendations
type RecommendationRepository struct {
	db *sqlx.DB
}

// NewRecommendationRepository creates a new repository instance
func NewRecommendationRepository(db *sqlx.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// SaveBatch stores a ranked batch under one new batch id, setting ids, batch id and status on recs
func (r *RecommendationRepository) SaveBatch(ctx context.Context, recs []models.Recommendation) (uuid.UUID, error) {
	batchID := uuid.New()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO recommendations (
			batch_id, kind, surface_form, reading, meaning, pattern_id, name,
			level, frequency_rank, priority, reason, prerequisites_met, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range recs {
		rec := &recs[i]
		rec.BatchID = batchID
		rec.Status = models.StatusQueued

		id, err := insertReturningID(ctx, tx, query,
			rec.BatchID,
			rec.Kind,
			rec.SurfaceForm,
			rec.Reading,
			rec.Meaning,
			rec.PatternID,
			rec.Name,
			rec.Level,
			rec.FrequencyRank,
			rec.Priority,
			rec.Reason,
			rec.PrerequisitesMet,
			rec.Status,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to save recommendation: %w", err)
		}
		rec.ID = id
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit recommendations: %w", err)
	}
	return batchID, nil
}

// GetByID returns one recommendation
func (r *RecommendationRepository) GetByID(ctx context.Context, id int64) (*models.Recommendation, error) {
	var rec models.Recommendation
	query := r.db.Rebind("SELECT " + recommendationColumns + " FROM recommendations WHERE id = ?")
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("recommendation %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return &rec, nil
}

// ListQueued returns the queued recommendations, best first
func (r *RecommendationRepository) ListQueued(ctx context.Context) ([]models.Recommendation, error) {
	recs := []models.Recommendation{}
	query := r.db.Rebind("SELECT " + recommendationColumns + " FROM recommendations WHERE status = ? ORDER BY priority DESC, id")
	if err := r.db.SelectContext(ctx, &recs, query, models.StatusQueued); err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

// MarkIntroduced records that a queued recommendation was added to the inventory
func (r *RecommendationRepository) MarkIntroduced(ctx context.Context, id int64, at time.Time) error {
	query := r.db.Rebind("UPDATE recommendations SET status = ?, introduced_at = ? WHERE id = ? AND status = ?")
	return r.transition(ctx, id, query, models.StatusIntroduced, utc(at), id, models.StatusQueued)
}

// Skip marks a queued recommendation as skipped
func (r *RecommendationRepository) Skip(ctx context.Context, id int64) error {
	query := r.db.Rebind("UPDATE recommendations SET status = ? WHERE id = ? AND status = ?")
	return r.transition(ctx, id, query, models.StatusSkipped, id, models.StatusQueued)
}

func (r *RecommendationRepository) transition(ctx context.Context, id int64, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update recommendation %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("queued recommendation %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteQueued drops every still-queued recommendation and returns how many were removed
func (r *RecommendationRepository) DeleteQueued(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM recommendations WHERE status = ?"), models.StatusQueued)
	if err != nil {
		return 0, fmt.Errorf("failed to delete queued recommendations: %w", err)
	}
	return result.RowsAffected()
}
