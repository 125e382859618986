package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/lexitrack/pkg/models"
)

type memoryStore struct {
	mu       sync.Mutex
	items    map[int64]models.LearnableItem
	order    []int64
	events   []models.ReviewEvent
	contexts []models.ContextLogEntry
	profile  *models.LearnerProfile
	saves    int

	profileErr  error
	activityErr error
}

func newMemoryStore(items ...models.LearnableItem) *memoryStore {
	m := &memoryStore{items: map[int64]models.LearnableItem{}}
	for _, item := range items {
		m.items[item.ID] = item
		m.order = append(m.order, item.ID)
	}
	return m
}

func (m *memoryStore) GetByID(_ context.Context, kind models.ItemKind, id int64) (*models.LearnableItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.Kind != kind {
		return nil, models.ErrNotFound
	}
	item.ContextTypes = append(models.ContextTypes(nil), item.ContextTypes...)
	return &item, nil
}

// SaveActivity applies every part or none of them
func (m *memoryStore) SaveActivity(_ context.Context, a models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activityErr != nil {
		return m.activityErr
	}
	if a.Item != nil {
		m.items[a.Item.ID] = *a.Item
	}
	if a.Event != nil {
		m.events = append(m.events, *a.Event)
	}
	if a.Context != nil {
		a.Context.ID = int64(len(m.contexts) + 1)
		m.contexts = append(m.contexts, *a.Context)
	}
	return nil
}

func (m *memoryStore) ListActive(_ context.Context) ([]models.LearnableItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LearnableItem
	for _, id := range m.order {
		if item := m.items[id]; item.Stage != models.StageUnseen {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryStore) item(id int64) models.LearnableItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

type eventStore struct{ *memoryStore }

func (e eventStore) Since(_ context.Context, since time.Time) ([]models.ReviewEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []models.ReviewEvent
	for _, ev := range e.events {
		if !ev.ReviewedAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (e eventStore) ListByItem(_ context.Context, kind models.ItemKind, itemID int64) ([]models.ReviewEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []models.ReviewEvent
	for _, ev := range e.events {
		if ev.ItemID == itemID && ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (e eventStore) Count(_ context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events), nil
}

type contextStore struct{ *memoryStore }

func (c contextStore) ListByItem(_ context.Context, kind models.ItemKind, itemID int64, limit, offset int) ([]models.ContextLogEntry, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var matching []models.ContextLogEntry
	for _, e := range c.contexts {
		if e.ItemID == itemID && e.Kind == kind {
			matching = append(matching, e)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].ID > matching[j].ID })
	total := len(matching)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matching[offset:end], total, nil
}

type profileStore struct{ *memoryStore }

func (p profileStore) Get(_ context.Context) (*models.LearnerProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	if p.profile == nil {
		return nil, models.ErrNotFound
	}
	copied := *p.profile
	return &copied, nil
}

func (p profileStore) Save(_ context.Context, profile *models.LearnerProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	copied := *profile
	p.profile = &copied
	p.saves++
	return nil
}

var errStoreDown = errors.New("store unavailable")
