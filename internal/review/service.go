// Package review applies graded reviews and context events to the learner's inventory.
package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/lexitrack/internal/curriculum"
	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/internal/mastery"
	"github.com/example/lexitrack/internal/profile"
	"github.com/example/lexitrack/internal/spaced_repetition"
	"github.com/example/lexitrack/pkg/models"
	"github.com/google/uuid"
)

const (
	DefaultQueueLimit        = 200
	DefaultRecomputeEvery    = 10
	DefaultDailyNewItemLimit = 10
	DefaultHistoryLimit      = 50
)

// ItemStore persists the learner's inventory
type ItemStore interface {
	GetByID(ctx context.Context, kind models.ItemKind, id int64) (*models.LearnableItem, error)
	ListActive(ctx context.Context) ([]models.LearnableItem, error)
}

// EventStore reads review events
type EventStore interface {
	Since(ctx context.Context, since time.Time) ([]models.ReviewEvent, error)
	ListByItem(ctx context.Context, kind models.ItemKind, itemID int64) ([]models.ReviewEvent, error)
	Count(ctx context.Context) (int, error)
}

// ContextStore reads the item context log
type ContextStore interface {
	ListByItem(ctx context.Context, kind models.ItemKind, itemID int64, limit, offset int) ([]models.ContextLogEntry, int, error)
}

// ProfileStore persists the single learner profile
type ProfileStore interface {
	Get(ctx context.Context) (*models.LearnerProfile, error)
	Save(ctx context.Context, p *models.LearnerProfile) error
}

// ActivityWriter stores the writes of one review or context event atomically
type ActivityWriter interface {
	SaveActivity(ctx context.Context, a models.Activity) error
}

// Stores groups the persistence the service depends on
type Stores struct {
	Items    ItemStore
	Events   EventStore
	Contexts ContextStore
	Profiles ProfileStore
	Activity ActivityWriter
}

// Options tunes the service
type Options struct {
	Levels            curriculum.LevelScale
	QueueLimit        int
	RecomputeEvery    int
	DailyNewItemLimit int
	Clock             func() time.Time
}

// Service orchestrates review submission, context logging and profile recomputation.
// Submissions and context events are serialized so that concurrent writers never
// advance the same stale item.
type Service struct {
	items    ItemStore
	events   EventStore
	contexts ContextStore
	profiles ProfileStore
	activity ActivityWriter

	scheduler *spaced_repetition.Scheduler
	opts      Options
	log       *logger.Logger

	mu        sync.Mutex
	submitted int
	wg        sync.WaitGroup
}

// NewService creates a review service; zero options take their defaults
func NewService(stores Stores, opts Options, log *logger.Logger) *Service {
	if len(opts.Levels) == 0 {
		opts.Levels = curriculum.DefaultLevels
	}
	if opts.QueueLimit <= 0 {
		opts.QueueLimit = DefaultQueueLimit
	}
	if opts.RecomputeEvery <= 0 {
		opts.RecomputeEvery = DefaultRecomputeEvery
	}
	if opts.DailyNewItemLimit <= 0 {
		opts.DailyNewItemLimit = DefaultDailyNewItemLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Service{
		items:     stores.Items,
		events:    stores.Events,
		contexts:  stores.Contexts,
		profiles:  stores.Profiles,
		activity:  stores.Activity,
		scheduler: spaced_repetition.NewScheduler(),
		opts:      opts,
		log:       log,
	}
}

// Result describes the effect of one submission
type Result struct {
	ItemID       int64               `json:"item_id"`
	Kind         models.ItemKind     `json:"kind"`
	Skill        models.Skill        `json:"skill"`
	StageBefore  models.MasteryStage `json:"stage_before"`
	StageAfter   models.MasteryStage `json:"stage_after"`
	IntervalDays int                 `json:"interval_days"`
	NextDue      time.Time           `json:"next_due"`
	EventID      uuid.UUID           `json:"event_id"`
}

// Submit applies a graded review to an item
func (s *Service) Submit(ctx context.Context, sub models.ReviewSubmission) (*Result, error) {
	if !sub.Grade.Valid() {
		return nil, models.InvalidInput("unknown grade %d", int(sub.Grade))
	}
	if _, err := models.ParseSkill(string(sub.Skill)); err != nil {
		return nil, err
	}
	if _, err := models.ParseItemKind(string(sub.Kind)); err != nil {
		return nil, err
	}

	weight := 1.0
	switch {
	case sub.Weight != nil:
		weight = *sub.Weight
	case sub.Skill == models.SkillProduction:
		weight = 0.5
	}
	if weight < 0 {
		return nil, models.InvalidInput("negative production weight %v", weight)
	}

	contextType := sub.ContextType
	if contextType == "" {
		contextType = models.DefaultContextType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Clock()

	item, err := s.items.GetByID(ctx, sub.Kind, sub.ItemID)
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", sub.ItemID, err)
	}

	memory := item.Memory(sub.Skill)
	next, interval, err := s.scheduler.Schedule(*memory, sub.Grade, now)
	if err != nil {
		return nil, err
	}
	*memory = next

	production := sub.Skill == models.SkillProduction
	if production {
		item.ProductionWeight += weight
		item.WritingProductions++
	} else {
		item.ReadingExposures++
	}
	if item.Kind == models.KindLexical {
		item.ExposureCount++
		if production {
			item.ProductionCount++
		}
	}
	recordContext(item, contextType)

	before := item.Stage
	after, err := mastery.Advance(before, sub.Grade, mastery.EvidenceFor(item))
	if err != nil {
		return nil, err
	}
	item.Stage = after
	item.LastReviewed = &now
	item.UpdatedAt = now

	event := &models.ReviewEvent{
		ID:               uuid.New(),
		ItemID:           item.ID,
		Kind:             item.Kind,
		Grade:            sub.Grade.String(),
		Skill:            sub.Skill,
		SessionID:        sub.SessionID,
		ContextType:      contextType,
		ProductionWeight: weight,
		StageBefore:      before,
		StageAfter:       after,
		ReviewedAt:       now,
	}
	success := sub.Grade.IsSuccess()
	entry := &models.ContextLogEntry{
		ItemID:        item.ID,
		Kind:          item.Kind,
		ContextType:   contextType,
		Modality:      modalityFor(sub.Skill),
		WasProduction: production,
		WasSuccessful: &success,
		SessionID:     sub.SessionID,
		LoggedAt:      now,
	}
	if err := s.activity.SaveActivity(ctx, models.Activity{Item: item, Event: event, Context: entry}); err != nil {
		return nil, fmt.Errorf("save review of item %d: %w", item.ID, err)
	}

	s.log.Debug("review applied",
		"item_id", item.ID,
		"kind", item.Kind,
		"grade", sub.Grade.String(),
		"skill", sub.Skill,
		"stage_before", before.String(),
		"stage_after", after.String(),
		"interval_days", interval)

	s.submitted++
	if s.submitted%s.opts.RecomputeEvery == 0 {
		s.recomputeAsync(ctx)
	}

	return &Result{
		ItemID:       item.ID,
		Kind:         item.Kind,
		Skill:        sub.Skill,
		StageBefore:  before,
		StageAfter:   after,
		IntervalDays: interval,
		NextDue:      next.Due,
		EventID:      event.ID,
	}, nil
}

// LogContext records an item appearing in an interaction context outside a review
func (s *Service) LogContext(ctx context.Context, entry models.ContextLogEntry) (*models.ContextLogEntry, error) {
	if _, err := models.ParseItemKind(string(entry.Kind)); err != nil {
		return nil, err
	}
	if _, err := models.ParseModality(string(entry.Modality)); err != nil {
		return nil, err
	}
	if entry.ContextType == "" {
		return nil, models.InvalidInput("context type is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.items.GetByID(ctx, entry.Kind, entry.ItemID)
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", entry.ItemID, err)
	}

	entry.LoggedAt = s.opts.Clock()
	activity := models.Activity{Context: &entry}
	if recordContext(item, entry.ContextType) {
		item.UpdatedAt = entry.LoggedAt
		activity.Item = item
	}
	if err := s.activity.SaveActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("record context for item %d: %w", item.ID, err)
	}

	return &entry, nil
}

// ContextHistory pages through an item's context log, newest first
func (s *Service) ContextHistory(ctx context.Context, kind models.ItemKind, itemID int64, limit, offset int) ([]models.ContextLogEntry, int, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.contexts.ListByItem(ctx, kind, itemID, limit, offset)
}

// History returns an item's review events, oldest first
func (s *Service) History(ctx context.Context, kind models.ItemKind, itemID int64) ([]models.ReviewEvent, error) {
	return s.events.ListByItem(ctx, kind, itemID)
}

// Queue returns the due reviews, most overdue first, capped at the queue limit
func (s *Service) Queue(ctx context.Context) ([]models.ReviewQueueItem, error) {
	items, err := s.items.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	queue := spaced_repetition.DueQueue(items, s.opts.Clock())
	if len(queue) > s.opts.QueueLimit {
		queue = queue[:s.opts.QueueLimit]
	}
	for i := range queue {
		if queue[i].Meaning == "" {
			queue[i].Meaning = queue[i].SurfaceForm
		}
	}
	return queue, nil
}

// StageChange is one mastery transition recorded today
type StageChange struct {
	ItemID int64               `json:"item_id"`
	Kind   models.ItemKind     `json:"kind"`
	From   models.MasteryStage `json:"from"`
	To     models.MasteryStage `json:"to"`
}

// Summary describes today's review activity
type Summary struct {
	TotalReviewed  int           `json:"total_reviewed"`
	Accuracy       float64       `json:"accuracy"`
	MasteryChanges []StageChange `json:"mastery_changes"`
}

// Summary reports the reviews made since local midnight
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	now := s.opts.Clock()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	events, err := s.events.Since(ctx, midnight)
	if err != nil {
		return nil, fmt.Errorf("list review events: %w", err)
	}

	summary := &Summary{TotalReviewed: len(events), MasteryChanges: []StageChange{}}
	correct := 0
	for _, e := range events {
		if e.Grade == models.GradeGood.String() || e.Grade == models.GradeEasy.String() {
			correct++
		}
		if e.StageBefore != e.StageAfter {
			summary.MasteryChanges = append(summary.MasteryChanges, StageChange{
				ItemID: e.ItemID, Kind: e.Kind, From: e.StageBefore, To: e.StageAfter,
			})
		}
	}
	if len(events) > 0 {
		summary.Accuracy = float64(correct) / float64(len(events))
	}
	return summary, nil
}

// Recompute refreshes the learner profile from the current inventory
func (s *Service) Recompute(ctx context.Context) (*models.LearnerProfile, error) {
	items, err := s.items.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	total, err := s.events.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count review events: %w", err)
	}

	prev, err := s.profiles.Get(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
		prev = &models.LearnerProfile{ID: 1, DailyNewItemLimit: s.opts.DailyNewItemLimit}
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var since time.Time
	if prev.LastActiveDate != nil {
		since = *prev.LastActiveDate
	}
	recent, err := s.events.Since(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list review events: %w", err)
	}
	activity := make([]time.Time, len(recent))
	for i, e := range recent {
		activity[i] = e.ReviewedAt
	}

	next := profile.Recalculate(*prev, items, s.opts.Levels, total, activity, s.opts.Clock())
	if err := s.profiles.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	s.log.Info("learner profile recomputed",
		"computed_level", next.ComputedLevel,
		"comprehension_ceiling", next.ComprehensionCeiling,
		"production_ceiling", next.ProductionCeiling,
		"streak", next.CurrentStreak,
		"items", len(items))
	return &next, nil
}

// Profile returns the stored learner profile without recomputing it
func (s *Service) Profile(ctx context.Context) (*models.LearnerProfile, error) {
	p, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// recomputeAsync runs a best-effort recompute detached from the triggering request
func (s *Service) recomputeAsync(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Recompute(ctx); err != nil {
			s.log.Warn("profile recompute failed", "error", err)
		}
	}()
}

// Wait blocks until background recomputes have finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// recordContext adds a context type to the item's distinct set and reports whether it was new.
// For grammar, every context after the first is novel.
func recordContext(item *models.LearnableItem, contextType string) bool {
	if item.ContextTypes.Contains(contextType) {
		return false
	}
	if item.Kind == models.KindGrammar && len(item.ContextTypes) > 0 {
		item.NovelContextCount++
	}
	item.ContextTypes = append(item.ContextTypes, contextType)
	item.ContextCount = len(item.ContextTypes)
	return true
}

func modalityFor(skill models.Skill) models.Modality {
	if skill == models.SkillProduction {
		return models.ModalityWriting
	}
	return models.ModalityReading
}
