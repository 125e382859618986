package database

import (
	"context"
	"fmt"

	"github.com/example/lexitrack/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ContextLogRepository handles database operations for the item context log
type ContextLogRepository struct {
	db *sqlx.DB
}

// NewContextLogRepository creates a new repository instance
func NewContextLogRepository(db *sqlx.DB) *ContextLogRepository {
	return &ContextLogRepository{db: db}
}

// Create inserts a new context log entry and sets its ID
func (r *ContextLogRepository) Create(ctx context.Context, entry *models.ContextLogEntry) error {
	return createContextEntry(ctx, r.db, entry)
}

func createContextEntry(ctx context.Context, ext sqlx.ExtContext, entry *models.ContextLogEntry) error {
	query := `
		INSERT INTO context_log (
			item_id, kind, context_type, modality, was_production,
			was_successful, quote, session_id, logged_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := insertReturningID(ctx, ext, query,
		entry.ItemID,
		entry.Kind,
		entry.ContextType,
		entry.Modality,
		entry.WasProduction,
		entry.WasSuccessful,
		entry.Quote,
		entry.SessionID,
		utc(entry.LoggedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create context log entry: %w", err)
	}
	entry.ID = id
	return nil
}

// ListByItem pages through an item's context log, newest first, and returns the total count
func (r *ContextLogRepository) ListByItem(ctx context.Context, kind models.ItemKind, itemID int64, limit, offset int) ([]models.ContextLogEntry, int, error) {
	var total int
	countQuery := r.db.Rebind("SELECT COUNT(*) FROM context_log WHERE item_id = ? AND kind = ?")
	if err := r.db.GetContext(ctx, &total, countQuery, itemID, kind); err != nil {
		return nil, 0, fmt.Errorf("failed to count context log: %w", err)
	}

	entries := []models.ContextLogEntry{}
	query := r.db.Rebind(`
		SELECT id, item_id, kind, context_type, modality, was_production,
		       was_successful, quote, session_id, logged_at
		FROM context_log
		WHERE item_id = ? AND kind = ?
		ORDER BY logged_at DESC, id DESC
		LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &entries, query, itemID, kind, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to get context log: %w", err)
	}
	return entries, total, nil
}
