package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/lexitrack/internal/curriculum"
	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeItems struct{ items []models.LearnableItem }

func (f *fakeItems) List(context.Context) ([]models.LearnableItem, error) { return f.items, nil }

func (f *fakeItems) GetByKey(_ context.Context, kind models.ItemKind, key string) (*models.LearnableItem, error) {
	for i := range f.items {
		if f.items[i].Kind == kind && f.items[i].Key() == key {
			return &f.items[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeItems) Create(_ context.Context, item *models.LearnableItem) error {
	item.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *item)
	return nil
}

type fakeRecs struct {
	recs    []models.Recommendation
	batches int
}

func (f *fakeRecs) SaveBatch(_ context.Context, recs []models.Recommendation) (uuid.UUID, error) {
	f.batches++
	batch := uuid.New()
	for i := range recs {
		recs[i].ID = int64(len(f.recs) + 1)
		recs[i].BatchID = batch
		f.recs = append(f.recs, recs[i])
	}
	return batch, nil
}

func (f *fakeRecs) find(id int64) *models.Recommendation {
	for i := range f.recs {
		if f.recs[i].ID == id {
			return &f.recs[i]
		}
	}
	return nil
}

func (f *fakeRecs) GetByID(_ context.Context, id int64) (*models.Recommendation, error) {
	if r := f.find(id); r != nil {
		copied := *r
		return &copied, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeRecs) ListQueued(context.Context) ([]models.Recommendation, error) {
	var out []models.Recommendation
	for _, r := range f.recs {
		if r.Status == models.StatusQueued {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecs) MarkIntroduced(_ context.Context, id int64, at time.Time) error {
	r := f.find(id)
	if r == nil || r.Status != models.StatusQueued {
		return models.ErrNotFound
	}
	r.Status = models.StatusIntroduced
	r.IntroducedAt = &at
	return nil
}

func (f *fakeRecs) Skip(_ context.Context, id int64) error {
	r := f.find(id)
	if r == nil || r.Status != models.StatusQueued {
		return models.ErrNotFound
	}
	r.Status = models.StatusSkipped
	return nil
}

func (f *fakeRecs) DeleteQueued(context.Context) (int64, error) {
	var kept []models.Recommendation
	var removed int64
	for _, r := range f.recs {
		if r.Status == models.StatusQueued {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	f.recs = kept
	return removed, nil
}

type fakeProfiles struct{ profile *models.LearnerProfile }

func (f fakeProfiles) Get(context.Context) (*models.LearnerProfile, error) {
	if f.profile == nil {
		return nil, models.ErrNotFound
	}
	return f.profile, nil
}

type staticCorpus struct {
	corpus *curriculum.Corpus
	err    error
}

func (s staticCorpus) Load() (*curriculum.Corpus, error) { return s.corpus, s.err }

func testPlanner(t *testing.T, items *fakeItems, recs *fakeRecs, profiles fakeProfiles) *Planner {
	t.Helper()
	corpus, err := curriculum.NewCorpus(curriculum.DefaultLevels,
		[]models.VocabularyEntry{
			{SurfaceForm: "水", Reading: "みず", Meaning: "water", Level: "A1", FrequencyRank: 10},
			{SurfaceForm: "火", Reading: "ひ", Meaning: "fire", Level: "A1", FrequencyRank: 20},
			{SurfaceForm: "経験", Meaning: "experience", Level: "A2", FrequencyRank: 300},
		},
		[]models.GrammarEntry{
			{PatternID: "te-form", Name: "〜て", Description: "connective", Level: "A1", FrequencyRank: 5},
			{PatternID: "te-iru", Name: "〜ている", Description: "progressive", Level: "A2", FrequencyRank: 40, PrerequisiteIDs: []string{"te-form"}},
		})
	require.NoError(t, err)

	p := New(items, recs, profiles, staticCorpus{corpus: corpus}, 10, logger.Nop())
	p.clock = func() time.Time { return now }
	return p
}

func TestRecommendQueuesBatch(t *testing.T) {
	items := &fakeItems{items: []models.LearnableItem{
		{ID: 1, Kind: models.KindLexical, SurfaceForm: "水", Level: "A1", Stage: models.StageJourneyman},
	}}
	recs := &fakeRecs{}
	p := testPlanner(t, items, recs, fakeProfiles{profile: &models.LearnerProfile{DailyNewItemLimit: 3}})

	got, err := p.Recommend(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, recs.batches)
	for _, r := range got {
		assert.NotEqual(t, "水", r.SurfaceForm)
		assert.NotZero(t, r.ID)
	}
	assert.Equal(t, "te-form", got[0].PatternID)
}

func TestIntroduceRejectsDuplicate(t *testing.T) {
	items := &fakeItems{items: []models.LearnableItem{
		{ID: 1, Kind: models.KindLexical, SurfaceForm: "水", Level: "A1", Stage: models.StageApprentice2},
	}}
	recs := &fakeRecs{}
	p := testPlanner(t, items, recs, fakeProfiles{})
	ctx := context.Background()

	stale := []models.Recommendation{{Kind: models.KindLexical, SurfaceForm: "水", Level: "A1", Status: models.StatusQueued}}
	_, err := recs.SaveBatch(ctx, stale)
	require.NoError(t, err)

	_, err = p.Introduce(ctx, stale[0].ID)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	assert.Len(t, items.items, 1)
}

func TestIntroduceAndSkip(t *testing.T) {
	items := &fakeItems{}
	recs := &fakeRecs{}
	p := testPlanner(t, items, recs, fakeProfiles{})
	ctx := context.Background()

	queued, err := p.Recommend(ctx, nil)
	require.NoError(t, err)
	require.Len(t, queued, 5)

	item, err := p.Introduce(ctx, queued[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageIntroduced, item.Stage)
	assert.Equal(t, queued[0].Level, item.Level)
	assert.Len(t, items.items, 1)

	_, err = p.Introduce(ctx, queued[0].ID)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	require.NoError(t, p.Skip(ctx, queued[1].ID))
	assert.True(t, errors.Is(p.Skip(ctx, queued[1].ID), models.ErrInvalidInput))
	assert.True(t, errors.Is(p.Skip(ctx, queued[0].ID), models.ErrInvalidInput), "introduced recommendations stay introduced")
	assert.True(t, errors.Is(p.Skip(ctx, 999), models.ErrNotFound))

	remaining, err := p.Queued(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)

	fresh, err := p.Regenerate(ctx, nil)
	require.NoError(t, err)
	// the introduced item is now known; the skipped one is eligible again
	assert.Len(t, fresh, 4)
	remaining, err = p.Queued(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 4)
}

func TestFrontier(t *testing.T) {
	items := &fakeItems{items: []models.LearnableItem{
		{ID: 1, Kind: models.KindLexical, SurfaceForm: "水", Level: "A1", Stage: models.StageIntroduced},
		{ID: 2, Kind: models.KindGrammar, PatternID: "te-iru", Level: "A2", Stage: models.StageApprentice4},
	}}
	p := testPlanner(t, items, &fakeRecs{}, fakeProfiles{})

	f, err := p.Frontier(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A1", f.Bubble.CurrentLevel)
	assert.Equal(t, map[string]int{"introduced": 1, "apprentice_4": 1}, f.Distribution)
	assert.NotEmpty(t, f.Gaps)
	assert.Equal(t, models.SeverityLow, f.Gaps[len(f.Gaps)-1].Severity)
}

func TestCorpusFailure(t *testing.T) {
	p := New(&fakeItems{}, &fakeRecs{}, fakeProfiles{}, staticCorpus{err: errors.New("missing file")}, 0, logger.Nop())
	_, err := p.Bubble(context.Background())
	assert.Error(t, err)
}
