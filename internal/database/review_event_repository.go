package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/lexitrack/pkg/models"
	"github.com/jmoiron/sqlx"
)

const reviewEventColumns = `id, item_id, kind, grade, skill, session_id, context_type,
	production_weight, stage_before, stage_after, reviewed_at`

// ReviewEventRepository handles database operations for review events
type ReviewEventRepository struct {
	db *sqlx.DB
}

// NewReviewEventRepository creates a new repository instance
func NewReviewEventRepository(db *sqlx.DB) *ReviewEventRepository {
	return &ReviewEventRepository{db: db}
}

// Create inserts a new review event
func (r *ReviewEventRepository) Create(ctx context.Context, ev *models.ReviewEvent) error {
	return createReviewEvent(ctx, r.db, ev)
}

func createReviewEvent(ctx context.Context, ext sqlx.ExtContext, ev *models.ReviewEvent) error {
	query := ext.Rebind(`
		INSERT INTO review_events (` + reviewEventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := ext.ExecContext(ctx, query,
		ev.ID,
		ev.ItemID,
		ev.Kind,
		ev.Grade,
		ev.Skill,
		ev.SessionID,
		ev.ContextType,
		ev.ProductionWeight,
		ev.StageBefore,
		ev.StageAfter,
		utc(ev.ReviewedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create review event: %w", err)
	}
	return nil
}

// Since returns the events reviewed at or after since, oldest first
func (r *ReviewEventRepository) Since(ctx context.Context, since time.Time) ([]models.ReviewEvent, error) {
	events := []models.ReviewEvent{}
	query := r.db.Rebind("SELECT " + reviewEventColumns + " FROM review_events WHERE reviewed_at >= ? ORDER BY reviewed_at")
	if err := r.db.SelectContext(ctx, &events, query, utc(since)); err != nil {
		return nil, fmt.Errorf("failed to get review events: %w", err)
	}
	return events, nil
}

// ListByItem returns an item's review history, oldest first
func (r *ReviewEventRepository) ListByItem(ctx context.Context, kind models.ItemKind, itemID int64) ([]models.ReviewEvent, error) {
	events := []models.ReviewEvent{}
	query := r.db.Rebind("SELECT " + reviewEventColumns + " FROM review_events WHERE item_id = ? AND kind = ? ORDER BY reviewed_at")
	if err := r.db.SelectContext(ctx, &events, query, itemID, kind); err != nil {
		return nil, fmt.Errorf("failed to get review events: %w", err)
	}
	return events, nil
}

// Count returns the total number of review events
func (r *ReviewEventRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM review_events"); err != nil {
		return 0, fmt.Errorf("failed to count review events: %w", err)
	}
	return n, nil
}
