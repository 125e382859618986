package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/example/lexitrack/pkg/models"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = models.ErrNotFound

// Config selects the database backend
type Config struct {
	Type string // sqlite or postgres
	Path string // sqlite file
	URL  string // postgres connection string
}

// Connect opens the database and creates the schema if needed
func Connect(cfg Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch cfg.Type {
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	case "sqlite", "sqlite3", "":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		db, err = sqlx.Connect("sqlite3", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isPostgres(db *sqlx.DB) bool {
	return db.DriverName() == "postgres"
}

// initializeSchema creates the tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if isPostgres(db) {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"items", `
			CREATE TABLE IF NOT EXISTS items (
				id ` + serial + `,
				kind TEXT NOT NULL,
				item_key TEXT NOT NULL,
				surface_form TEXT NOT NULL,
				pattern_id TEXT NOT NULL DEFAULT '',
				reading TEXT NOT NULL DEFAULT '',
				meaning TEXT NOT NULL DEFAULT '',
				level TEXT NOT NULL DEFAULT '',
				frequency_rank INTEGER NOT NULL DEFAULT 0,
				stage TEXT NOT NULL,
				recognition_state TEXT NOT NULL,
				production_state TEXT NOT NULL,
				production_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
				production_count INTEGER NOT NULL DEFAULT 0,
				exposure_count INTEGER NOT NULL DEFAULT 0,
				context_types TEXT NOT NULL DEFAULT '[]',
				context_count INTEGER NOT NULL DEFAULT 0,
				novel_context_count INTEGER NOT NULL DEFAULT 0,
				reading_exposures INTEGER NOT NULL DEFAULT 0,
				writing_productions INTEGER NOT NULL DEFAULT 0,
				listening_exposures INTEGER NOT NULL DEFAULT 0,
				speaking_productions INTEGER NOT NULL DEFAULT 0,
				last_reviewed TIMESTAMP NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				UNIQUE(kind, item_key)
			)`},
		{"learner_profile", `
			CREATE TABLE IF NOT EXISTS learner_profile (
				id INTEGER PRIMARY KEY,
				computed_level TEXT NOT NULL DEFAULT '',
				comprehension_ceiling TEXT NOT NULL DEFAULT '',
				production_ceiling TEXT NOT NULL DEFAULT '',
				reading_level DOUBLE PRECISION NOT NULL DEFAULT 0,
				listening_level DOUBLE PRECISION NOT NULL DEFAULT 0,
				speaking_level DOUBLE PRECISION NOT NULL DEFAULT 0,
				writing_level DOUBLE PRECISION NOT NULL DEFAULT 0,
				current_streak INTEGER NOT NULL DEFAULT 0,
				longest_streak INTEGER NOT NULL DEFAULT 0,
				total_review_events INTEGER NOT NULL DEFAULT 0,
				daily_new_item_limit INTEGER NOT NULL DEFAULT 10,
				last_active_date TIMESTAMP NULL,
				updated_at TIMESTAMP NOT NULL
			)`},
		{"review_events", `
			CREATE TABLE IF NOT EXISTS review_events (
				id TEXT PRIMARY KEY,
				item_id INTEGER NOT NULL REFERENCES items(id),
				kind TEXT NOT NULL,
				grade TEXT NOT NULL,
				skill TEXT NOT NULL,
				session_id TEXT NOT NULL DEFAULT '',
				context_type TEXT NOT NULL,
				production_weight DOUBLE PRECISION NOT NULL,
				stage_before TEXT NOT NULL,
				stage_after TEXT NOT NULL,
				reviewed_at TIMESTAMP NOT NULL
			)`},
		{"context_log", `
			CREATE TABLE IF NOT EXISTS context_log (
				id ` + serial + `,
				item_id INTEGER NOT NULL REFERENCES items(id),
				kind TEXT NOT NULL,
				context_type TEXT NOT NULL,
				modality TEXT NOT NULL,
				was_production BOOLEAN NOT NULL DEFAULT false,
				was_successful BOOLEAN NULL,
				quote TEXT NOT NULL DEFAULT '',
				session_id TEXT NOT NULL DEFAULT '',
				logged_at TIMESTAMP NOT NULL
			)`},
		{"recommendations", `
			CREATE TABLE IF NOT EXISTS recommendations (
				id ` + serial + `,
				batch_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				surface_form TEXT NOT NULL DEFAULT '',
				reading TEXT NOT NULL DEFAULT '',
				meaning TEXT NOT NULL DEFAULT '',
				pattern_id TEXT NOT NULL DEFAULT '',
				name TEXT NOT NULL DEFAULT '',
				level TEXT NOT NULL,
				frequency_rank INTEGER NOT NULL,
				priority DOUBLE PRECISION NOT NULL,
				reason TEXT NOT NULL,
				prerequisites_met BOOLEAN NOT NULL,
				status TEXT NOT NULL,
				introduced_at TIMESTAMP NULL
			)`},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}
	return nil
}

// insertReturningID runs an INSERT written with ? placeholders and returns the new row id
func insertReturningID(ctx context.Context, ext sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	if ext.DriverName() == "postgres" {
		var id int64
		err := ext.QueryRowxContext(ctx, ext.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// utc normalises timestamps so sqlite text comparisons order correctly
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// Store bundles the repositories over one connection
type Store struct {
	DB              *sqlx.DB
	Items           *ItemRepository
	Profiles        *ProfileRepository
	Events          *ReviewEventRepository
	Contexts        *ContextLogRepository
	Recommendations *RecommendationRepository
}

// NewStore wires every repository to db
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		DB:              db,
		Items:           NewItemRepository(db),
		Profiles:        NewProfileRepository(db),
		Events:          NewReviewEventRepository(db),
		Contexts:        NewContextLogRepository(db),
		Recommendations: NewRecommendationRepository(db),
	}
}

// SaveActivity writes the item update, review event and context entry in one transaction
func (s *Store) SaveActivity(ctx context.Context, a models.Activity) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if a.Item != nil {
		if err := updateItem(ctx, tx, a.Item); err != nil {
			return err
		}
	}
	if a.Event != nil {
		if err := createReviewEvent(ctx, tx, a.Event); err != nil {
			return err
		}
	}
	if a.Context != nil {
		if err := createContextEntry(ctx, tx, a.Context); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activity: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
