package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/internal/spaced_repetition"
	"github.com/example/lexitrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func lexical(id int64, stage models.MasteryStage) models.LearnableItem {
	return models.LearnableItem{
		ID:          id,
		Kind:        models.KindLexical,
		SurfaceForm: "word",
		Meaning:     "meaning",
		Level:       "A1",
		Stage:       stage,
		Recognition: spaced_repetition.NewMemoryState(now.Add(-24 * time.Hour)),
		Production:  spaced_repetition.NewMemoryState(now.Add(-24 * time.Hour)),
	}
}

func grammar(id int64, stage models.MasteryStage, contexts ...string) models.LearnableItem {
	item := lexical(id, stage)
	item.Kind = models.KindGrammar
	item.PatternID = "te-iru"
	item.SurfaceForm = "〜ている"
	item.ContextTypes = contexts
	item.ContextCount = len(contexts)
	return item
}

func newTestService(store *memoryStore, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return now }
	}
	return NewService(Stores{
		Items:    store,
		Events:   eventStore{store},
		Contexts: contextStore{store},
		Profiles: profileStore{store},
		Activity: store,
	}, opts, logger.Nop())
}

func grade(g models.Grade, skill models.Skill) models.ReviewSubmission {
	return models.ReviewSubmission{ItemID: 1, Kind: models.KindLexical, Grade: g, Skill: skill}
}

func TestSubmitRecognition(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1))
	svc := newTestService(store, Options{})

	res, err := svc.Submit(context.Background(), grade(models.GradeGood, models.SkillRecognition))
	require.NoError(t, err)

	assert.Equal(t, models.StageApprentice1, res.StageBefore)
	assert.Equal(t, models.StageApprentice2, res.StageAfter)
	assert.True(t, res.NextDue.After(now))

	item := store.item(1)
	assert.Equal(t, models.StageApprentice2, item.Stage)
	assert.Equal(t, 1, item.Recognition.Reps)
	assert.Equal(t, 0, item.Production.Reps)
	assert.Equal(t, 1, item.ReadingExposures)
	assert.Equal(t, 0, item.WritingProductions)
	assert.Equal(t, 1, item.ExposureCount)
	assert.Zero(t, item.ProductionWeight)
	assert.Equal(t, models.ContextTypes{models.DefaultContextType}, item.ContextTypes)
	assert.Equal(t, 1, item.ContextCount)
	require.NotNil(t, item.LastReviewed)
	assert.Equal(t, now, *item.LastReviewed)

	require.Len(t, store.events, 1)
	ev := store.events[0]
	assert.Equal(t, res.EventID, ev.ID)
	assert.Equal(t, "good", ev.Grade)
	assert.Equal(t, 1.0, ev.ProductionWeight)
	assert.Equal(t, models.DefaultContextType, ev.ContextType)

	require.Len(t, store.contexts, 1)
	assert.Equal(t, models.ModalityReading, store.contexts[0].Modality)
	assert.False(t, store.contexts[0].WasProduction)
	require.NotNil(t, store.contexts[0].WasSuccessful)
	assert.True(t, *store.contexts[0].WasSuccessful)
}

func TestSubmitProductionWeightOpensGate(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice4))
	svc := newTestService(store, Options{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, grade(models.GradeGood, models.SkillProduction))
	require.NoError(t, err)
	assert.Equal(t, models.StageApprentice4, res.StageAfter)
	assert.Equal(t, 0.5, store.item(1).ProductionWeight)

	res, err = svc.Submit(ctx, grade(models.GradeGood, models.SkillProduction))
	require.NoError(t, err)
	assert.Equal(t, models.StageJourneyman, res.StageAfter)

	item := store.item(1)
	assert.Equal(t, 1.0, item.ProductionWeight)
	assert.Equal(t, 2, item.ProductionCount)
	assert.Equal(t, 2, item.WritingProductions)
	assert.Equal(t, 2, item.Production.Reps)
	assert.Equal(t, 0, item.Recognition.Reps)
	assert.Equal(t, models.ModalityWriting, store.contexts[1].Modality)
}

func TestSubmitWeightOverride(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice4))
	svc := newTestService(store, Options{})
	ctx := context.Background()

	heavy := 1.2
	sub := grade(models.GradeEasy, models.SkillRecognition)
	sub.Weight = &heavy
	res, err := svc.Submit(ctx, sub)
	require.NoError(t, err)
	// weight only accumulates on production reviews
	assert.Equal(t, models.StageApprentice4, res.StageAfter)
	assert.Equal(t, 1.2, store.events[0].ProductionWeight)

	sub.Skill = models.SkillProduction
	res, err = svc.Submit(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, models.StageJourneyman, res.StageAfter)
	assert.Equal(t, 1.2, store.item(1).ProductionWeight)
}

func TestSubmitClozeSchedulesRecognition(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageIntroduced))
	svc := newTestService(store, Options{})

	_, err := svc.Submit(context.Background(), grade(models.GradeHard, models.SkillCloze))
	require.NoError(t, err)

	item := store.item(1)
	assert.Equal(t, models.StageIntroduced, item.Stage)
	assert.Equal(t, 1, item.Recognition.Reps)
	assert.Equal(t, 0, item.Production.Reps)
	assert.Equal(t, 1, item.ReadingExposures)
}

func TestSubmitAgainDemotes(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageJourneyman))
	svc := newTestService(store, Options{})

	res, err := svc.Submit(context.Background(), grade(models.GradeAgain, models.SkillRecognition))
	require.NoError(t, err)
	assert.Equal(t, models.StageApprentice4, res.StageAfter)
	assert.False(t, *store.contexts[0].WasSuccessful)
}

func TestGrammarNovelContexts(t *testing.T) {
	store := newMemoryStore(grammar(1, models.StageExpert, "lesson", "srs_review", "chat"))
	svc := newTestService(store, Options{})
	ctx := context.Background()

	review := models.ReviewSubmission{ItemID: 1, Kind: models.KindGrammar, Grade: models.GradeGood, Skill: models.SkillRecognition}
	res, err := svc.Submit(ctx, review)
	require.NoError(t, err)
	assert.Equal(t, models.StageExpert, res.StageAfter, "no novel contexts yet")

	_, err = svc.LogContext(ctx, models.ContextLogEntry{
		ItemID: 1, Kind: models.KindGrammar, ContextType: "story", Modality: models.ModalityReading, Quote: "本を読んでいる",
	})
	require.NoError(t, err)
	_, err = svc.LogContext(ctx, models.ContextLogEntry{
		ItemID: 1, Kind: models.KindGrammar, ContextType: "story", Modality: models.ModalityReading,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.item(1).NovelContextCount)

	review.ContextType = "conversation"
	res, err = svc.Submit(ctx, review)
	require.NoError(t, err)
	assert.Equal(t, models.StageMaster, res.StageAfter)

	item := store.item(1)
	assert.Equal(t, 2, item.NovelContextCount)
	assert.Equal(t, 5, item.ContextCount)
	assert.Zero(t, item.ExposureCount)
}

func TestLexicalContextsAreNeverNovel(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice2))
	svc := newTestService(store, Options{})

	for _, c := range []string{"lesson", "chat", "story"} {
		_, err := svc.LogContext(context.Background(), models.ContextLogEntry{
			ItemID: 1, Kind: models.KindLexical, ContextType: c, Modality: models.ModalityListening,
		})
		require.NoError(t, err)
	}

	item := store.item(1)
	assert.Equal(t, 3, item.ContextCount)
	assert.Zero(t, item.NovelContextCount)
	assert.Equal(t, models.StageApprentice2, item.Stage)
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1))
	svc := newTestService(store, Options{})
	ctx := context.Background()
	negative := -1.0

	tests := map[string]models.ReviewSubmission{
		"grade":  {ItemID: 1, Kind: models.KindLexical, Grade: 0, Skill: models.SkillRecognition},
		"skill":  {ItemID: 1, Kind: models.KindLexical, Grade: models.GradeGood, Skill: "speaking"},
		"kind":   {ItemID: 1, Kind: "phrase", Grade: models.GradeGood, Skill: models.SkillRecognition},
		"weight": {ItemID: 1, Kind: models.KindLexical, Grade: models.GradeGood, Skill: models.SkillProduction, Weight: &negative},
	}
	for name, sub := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Submit(ctx, sub)
			assert.True(t, errors.Is(err, models.ErrInvalidInput), "got %v", err)
		})
	}

	_, err := svc.Submit(ctx, models.ReviewSubmission{ItemID: 1, Kind: models.KindGrammar, Grade: models.GradeGood, Skill: models.SkillRecognition})
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.LogContext(ctx, models.ContextLogEntry{ItemID: 1, Kind: models.KindLexical, ContextType: "chat", Modality: "smell"})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = svc.LogContext(ctx, models.ContextLogEntry{ItemID: 1, Kind: models.KindLexical, Modality: models.ModalityReading})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	assert.Empty(t, store.events)
	assert.Equal(t, models.StageApprentice1, store.item(1).Stage)
}

func TestQueue(t *testing.T) {
	overdue := lexical(1, models.StageApprentice2)
	overdue.Recognition.Due = now.Add(-72 * time.Hour)
	overdue.Production.Due = now.Add(48 * time.Hour)

	unseen := lexical(2, models.StageUnseen)

	noMeaning := grammar(3, models.StageApprentice1)
	noMeaning.Meaning = ""

	store := newMemoryStore(overdue, unseen, noMeaning)
	svc := newTestService(store, Options{})

	queue, err := svc.Queue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 3)

	assert.Equal(t, int64(1), queue[0].ItemID)
	assert.Equal(t, 3, queue[0].OverdueDays)
	assert.Equal(t, int64(3), queue[1].ItemID)
	assert.Equal(t, models.SkillRecognition, queue[1].Skill)
	assert.Equal(t, "〜ている", queue[1].Meaning)
	assert.Equal(t, models.SkillProduction, queue[2].Skill)

	limited := newTestService(store, Options{QueueLimit: 2})
	queue, err = limited.Queue(context.Background())
	require.NoError(t, err)
	assert.Len(t, queue, 2)
}

func TestSummary(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1))
	clock := now.Add(-24 * time.Hour)
	svc := newTestService(store, Options{Clock: func() time.Time { return clock }})
	ctx := context.Background()

	_, err := svc.Submit(ctx, grade(models.GradeGood, models.SkillRecognition))
	require.NoError(t, err)

	clock = now
	for _, g := range []models.Grade{models.GradeGood, models.GradeAgain, models.GradeHard, models.GradeEasy} {
		_, err := svc.Submit(ctx, grade(g, models.SkillRecognition))
		require.NoError(t, err)
	}

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalReviewed)
	assert.Equal(t, 0.5, summary.Accuracy)
	require.Len(t, summary.MasteryChanges, 3)
	assert.Equal(t, StageChange{ItemID: 1, Kind: models.KindLexical, From: models.StageApprentice2, To: models.StageApprentice3}, summary.MasteryChanges[0])
}

func TestRecomputeEveryN(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1))
	svc := newTestService(store, Options{RecomputeEvery: 3, DailyNewItemLimit: 7})
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.Submit(ctx, grade(models.GradeGood, models.SkillRecognition))
		require.NoError(t, err)
	}
	svc.Wait()

	assert.Equal(t, 2, store.saves)
	require.NotNil(t, store.profile)
	assert.Equal(t, int64(1), store.profile.ID)
	assert.Equal(t, 7, store.profile.DailyNewItemLimit)
	assert.Equal(t, 1, store.profile.CurrentStreak)
	assert.GreaterOrEqual(t, store.profile.TotalReviewEvents, 3)
}

func TestRecomputeFailureDoesNotFailReview(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1))
	store.profileErr = errStoreDown
	svc := newTestService(store, Options{RecomputeEvery: 1})

	res, err := svc.Submit(context.Background(), grade(models.GradeGood, models.SkillRecognition))
	require.NoError(t, err)
	assert.Equal(t, models.StageApprentice2, res.StageAfter)
	svc.Wait()

	assert.Zero(t, store.saves)
	_, err = svc.Recompute(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestContextHistory(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1))
	svc := newTestService(store, Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, grade(models.GradeGood, models.SkillRecognition))
		require.NoError(t, err)
	}

	entries, total, err := svc.ContextHistory(ctx, models.KindLexical, 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[0].ID)

	entries, _, err = svc.ContextHistory(ctx, models.KindLexical, 1, 0, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistory(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1), lexical(2, models.StageApprentice1))
	svc := newTestService(store, Options{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, grade(models.GradeGood, models.SkillRecognition))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, grade(models.GradeHard, models.SkillProduction))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, models.ReviewSubmission{ItemID: 2, Kind: models.KindLexical, Grade: models.GradeGood, Skill: models.SkillRecognition})
	require.NoError(t, err)

	history, err := svc.History(ctx, models.KindLexical, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.SkillRecognition, history[0].Skill)
	assert.Equal(t, models.SkillProduction, history[1].Skill)
}

func TestRecomputeStreakIgnoresIdleDays(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1))
	clock := now
	svc := newTestService(store, Options{Clock: func() time.Time { return clock }})
	ctx := context.Background()

	_, err := svc.Submit(ctx, grade(models.GradeGood, models.SkillRecognition))
	require.NoError(t, err)

	for d := 0; d <= 4; d++ {
		clock = now.AddDate(0, 0, d)
		p, err := svc.Recompute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, p.CurrentStreak, "day %d", d)
		assert.Equal(t, 1, p.LongestStreak, "day %d", d)
		require.NotNil(t, p.LastActiveDate)
		assert.True(t, now.Equal(*p.LastActiveDate), "day %d", d)
	}

	// back after a gap, then two days in a row
	clock = now.AddDate(0, 0, 5)
	_, err = svc.Submit(ctx, grade(models.GradeGood, models.SkillRecognition))
	require.NoError(t, err)
	p, err := svc.Recompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentStreak)

	clock = now.AddDate(0, 0, 6)
	_, err = svc.Submit(ctx, grade(models.GradeGood, models.SkillRecognition))
	require.NoError(t, err)
	p, err = svc.Recompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, 2, p.LongestStreak)

	stored, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentStreak)
}

func TestSubmitLeavesItemUntouchedWhenSaveFails(t *testing.T) {
	store := newMemoryStore(lexical(1, models.StageApprentice1))
	store.activityErr = errStoreDown
	svc := newTestService(store, Options{})

	_, err := svc.Submit(context.Background(), grade(models.GradeGood, models.SkillRecognition))
	require.ErrorIs(t, err, errStoreDown)

	item := store.item(1)
	assert.Equal(t, models.StageApprentice1, item.Stage)
	assert.Zero(t, item.Recognition.Reps)
	assert.Empty(t, store.events)
	assert.Empty(t, store.contexts)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalReviewed)
}
