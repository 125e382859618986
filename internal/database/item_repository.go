package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/lexitrack/pkg/models"
	"github.com/jmoiron/sqlx"
)

const itemColumns = `id, kind, surface_form, pattern_id, reading, meaning, level, frequency_rank, stage,
	recognition_state, production_state, production_weight, production_count, exposure_count,
	context_types, context_count, novel_context_count, reading_exposures, writing_productions,
	listening_exposures, speaking_productions, last_reviewed, created_at, updated_at`

// ItemRepository handles database operations for learnable items
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new item and sets its ID
func (r *ItemRepository) Create(ctx context.Context, item *models.LearnableItem) error {
	if item.Key() == "" {
		return models.InvalidInput("item has no surface form or pattern id")
	}
	if item.ContextTypes == nil {
		item.ContextTypes = models.ContextTypes{}
	}

	query := `
		INSERT INTO items (
			kind, item_key, surface_form, pattern_id, reading, meaning, level, frequency_rank, stage,
			recognition_state, production_state, production_weight, production_count, exposure_count,
			context_types, context_count, novel_context_count, reading_exposures, writing_productions,
			listening_exposures, speaking_productions, last_reviewed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := insertReturningID(ctx, r.db, query,
		item.Kind,
		item.Key(),
		item.SurfaceForm,
		item.PatternID,
		item.Reading,
		item.Meaning,
		item.Level,
		item.FrequencyRank,
		item.Stage,
		item.Recognition,
		item.Production,
		item.ProductionWeight,
		item.ProductionCount,
		item.ExposureCount,
		item.ContextTypes,
		item.ContextCount,
		item.NovelContextCount,
		item.ReadingExposures,
		item.WritingProductions,
		item.ListeningExposures,
		item.SpeakingProductions,
		utcPtr(item.LastReviewed),
		utc(item.CreatedAt),
		utc(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create item %q: %w", item.Key(), err)
	}
	item.ID = id
	return nil
}

// Update writes the mutable state of an existing item
func (r *ItemRepository) Update(ctx context.Context, item *models.LearnableItem) error {
	return updateItem(ctx, r.db, item)
}

func updateItem(ctx context.Context, ext sqlx.ExtContext, item *models.LearnableItem) error {
	query := ext.Rebind(`
		UPDATE items SET
			stage = ?,
			recognition_state = ?,
			production_state = ?,
			production_weight = ?,
			production_count = ?,
			exposure_count = ?,
			context_types = ?,
			context_count = ?,
			novel_context_count = ?,
			reading_exposures = ?,
			writing_productions = ?,
			listening_exposures = ?,
			speaking_productions = ?,
			last_reviewed = ?,
			updated_at = ?
		WHERE id = ? AND kind = ?`)

	result, err := ext.ExecContext(ctx, query,
		item.Stage,
		item.Recognition,
		item.Production,
		item.ProductionWeight,
		item.ProductionCount,
		item.ExposureCount,
		item.ContextTypes,
		item.ContextCount,
		item.NovelContextCount,
		item.ReadingExposures,
		item.WritingProductions,
		item.ListeningExposures,
		item.SpeakingProductions,
		utcPtr(item.LastReviewed),
		utc(item.UpdatedAt),
		item.ID,
		item.Kind,
	)
	if err != nil {
		return fmt.Errorf("failed to update item %d: %w", item.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

// GetByID returns an item of the given kind
func (r *ItemRepository) GetByID(ctx context.Context, kind models.ItemKind, id int64) (*models.LearnableItem, error) {
	var item models.LearnableItem
	query := r.db.Rebind("SELECT " + itemColumns + " FROM items WHERE id = ? AND kind = ?")
	if err := r.db.GetContext(ctx, &item, query, id, kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s item %d: %w", kind, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// GetByKey returns an item by surface form (lexical) or pattern id (grammar)
func (r *ItemRepository) GetByKey(ctx context.Context, kind models.ItemKind, key string) (*models.LearnableItem, error) {
	var item models.LearnableItem
	query := r.db.Rebind("SELECT " + itemColumns + " FROM items WHERE kind = ? AND item_key = ?")
	if err := r.db.GetContext(ctx, &item, query, kind, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s item %q: %w", kind, key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// List returns every item, in creation order
func (r *ItemRepository) List(ctx context.Context) ([]models.LearnableItem, error) {
	items := []models.LearnableItem{}
	if err := r.db.SelectContext(ctx, &items, "SELECT "+itemColumns+" FROM items ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// ListActive returns every item past the unseen stage, in creation order
func (r *ItemRepository) ListActive(ctx context.Context) ([]models.LearnableItem, error) {
	items := []models.LearnableItem{}
	query := r.db.Rebind("SELECT " + itemColumns + " FROM items WHERE stage <> ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &items, query, models.StageUnseen); err != nil {
		return nil, fmt.Errorf("failed to list active items: %w", err)
	}
	return items, nil
}
