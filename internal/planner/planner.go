// Package planner turns the inventory and the reference corpus into the learner's
// coverage picture and the next batch of items to introduce.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/lexitrack/internal/curriculum"
	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/pkg/models"
	"github.com/google/uuid"
)

// ItemStore is the inventory side of the store
type ItemStore interface {
	List(ctx context.Context) ([]models.LearnableItem, error)
	GetByKey(ctx context.Context, kind models.ItemKind, key string) (*models.LearnableItem, error)
	Create(ctx context.Context, item *models.LearnableItem) error
}

// RecommendationStore keeps queued recommendations between requests
type RecommendationStore interface {
	SaveBatch(ctx context.Context, recs []models.Recommendation) (uuid.UUID, error)
	GetByID(ctx context.Context, id int64) (*models.Recommendation, error)
	ListQueued(ctx context.Context) ([]models.Recommendation, error)
	MarkIntroduced(ctx context.Context, id int64, at time.Time) error
	Skip(ctx context.Context, id int64) error
	DeleteQueued(ctx context.Context) (int64, error)
}

// ProfileStore provides the learner's daily new item limit
type ProfileStore interface {
	Get(ctx context.Context) (*models.LearnerProfile, error)
}

// CorpusSource yields the reference corpus
type CorpusSource interface {
	Load() (*curriculum.Corpus, error)
}

// Planner computes coverage and manages recommendation batches
type Planner struct {
	items    ItemStore
	recs     RecommendationStore
	profiles ProfileStore
	corpus   CorpusSource
	log      *logger.Logger

	defaultLimit int
	clock        func() time.Time
}

func New(items ItemStore, recs RecommendationStore, profiles ProfileStore, corpus CorpusSource, defaultLimit int, log *logger.Logger) *Planner {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &Planner{
		items:        items,
		recs:         recs,
		profiles:     profiles,
		corpus:       corpus,
		log:          log,
		defaultLimit: defaultLimit,
		clock:        time.Now,
	}
}

// Frontier is the dashboard view of the learner's coverage
type Frontier struct {
	Bubble       models.KnowledgeBubble `json:"bubble"`
	Gaps         []models.Gap           `json:"gaps"`
	Distribution map[string]int         `json:"mastery_distribution"`
}

// Bubble computes the knowledge bubble of the current inventory
func (p *Planner) Bubble(ctx context.Context) (models.KnowledgeBubble, error) {
	_, _, bubble, err := p.snapshot(ctx)
	return bubble, err
}

// Frontier computes the bubble together with ranked gaps and the stage distribution
func (p *Planner) Frontier(ctx context.Context) (*Frontier, error) {
	items, corpus, bubble, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	dist := make(map[string]int)
	for _, item := range items {
		dist[item.Stage.String()]++
	}

	return &Frontier{
		Bubble:       bubble,
		Gaps:         curriculum.IdentifyGaps(bubble, items, corpus.Levels),
		Distribution: dist,
	}, nil
}

// Recommend ranks a new batch and queues it
func (p *Planner) Recommend(ctx context.Context, signals curriculum.BehaviorSignals) ([]models.Recommendation, error) {
	items, corpus, bubble, err := p.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	limit, err := p.dailyLimit(ctx)
	if err != nil {
		return nil, err
	}

	surfaces, patterns := curriculum.KnownSets(items)
	recs := curriculum.Recommend(curriculum.RecommendInput{
		Bubble:            bubble,
		KnownSurfaceForms: surfaces,
		KnownPatternIDs:   patterns,
		Cap:               limit,
		Signals:           signals,
	}, corpus)

	if len(recs) == 0 {
		return recs, nil
	}
	batch, err := p.recs.SaveBatch(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("queue recommendations: %w", err)
	}

	p.log.Info("recommendations queued",
		"batch_id", batch,
		"count", len(recs),
		"current_level", bubble.CurrentLevel,
		"frontier_level", bubble.FrontierLevel)
	return recs, nil
}

// Regenerate drops the queued recommendations and ranks a fresh batch
func (p *Planner) Regenerate(ctx context.Context, signals curriculum.BehaviorSignals) ([]models.Recommendation, error) {
	removed, err := p.recs.DeleteQueued(ctx)
	if err != nil {
		return nil, fmt.Errorf("clear queued recommendations: %w", err)
	}
	p.log.Debug("queued recommendations cleared", "removed", removed)
	return p.Recommend(ctx, signals)
}

// Queued lists the recommendations awaiting a decision
func (p *Planner) Queued(ctx context.Context) ([]models.Recommendation, error) {
	return p.recs.ListQueued(ctx)
}

// Introduce adds a queued recommendation to the inventory at stage Introduced
func (p *Planner) Introduce(ctx context.Context, id int64) (*models.LearnableItem, error) {
	rec, err := p.recs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.StatusQueued {
		return nil, models.InvalidInput("recommendation %d is %s, not queued", id, rec.Status)
	}

	now := p.clock()
	item, err := curriculum.IntroduceItem(*rec, now)
	if err != nil {
		return nil, err
	}
	switch _, err := p.items.GetByKey(ctx, item.Kind, item.Key()); {
	case err == nil:
		return nil, models.InvalidInput("%s %q is already in the inventory", item.Kind, item.Key())
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("look up item: %w", err)
	}
	if err := p.items.Create(ctx, &item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	if err := p.recs.MarkIntroduced(ctx, id, now); err != nil {
		return nil, err
	}

	p.log.Info("item introduced", "recommendation_id", id, "item_id", item.ID, "kind", item.Kind, "key", item.Key())
	return &item, nil
}

// Skip dismisses a queued recommendation
func (p *Planner) Skip(ctx context.Context, id int64) error {
	rec, err := p.recs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != models.StatusQueued {
		return models.InvalidInput("recommendation %d is %s, not queued", id, rec.Status)
	}
	if err := p.recs.Skip(ctx, id); err != nil {
		return err
	}
	p.log.Debug("recommendation skipped", "recommendation_id", id)
	return nil
}

func (p *Planner) snapshot(ctx context.Context) ([]models.LearnableItem, *curriculum.Corpus, models.KnowledgeBubble, error) {
	corpus, err := p.corpus.Load()
	if err != nil {
		return nil, nil, models.KnowledgeBubble{}, fmt.Errorf("load reference corpus: %w", err)
	}
	items, err := p.items.List(ctx)
	if err != nil {
		return nil, nil, models.KnowledgeBubble{}, fmt.Errorf("list items: %w", err)
	}
	return items, corpus, curriculum.ComputeBubble(items, corpus), nil
}

func (p *Planner) dailyLimit(ctx context.Context) (int, error) {
	profile, err := p.profiles.Get(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return p.defaultLimit, nil
	case err != nil:
		return 0, fmt.Errorf("load profile: %w", err)
	case profile.DailyNewItemLimit <= 0:
		return p.defaultLimit, nil
	default:
		return profile.DailyNewItemLimit, nil
	}
}
