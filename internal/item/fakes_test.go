package item

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/shareit-backend/internal/booking"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu       sync.RWMutex
	items    map[string]*Item
	comments []*Comment
	names    map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]*Item{}, names: map[string]string{}}
}

func (m *memRepo) Create(_ context.Context, it *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it.ID = uuid.NewString()
	it.CreatedAt = time.Now()
	it.UpdatedAt = it.CreatedAt
	cp := *it
	m.items[it.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memRepo) Update(_ context.Context, it *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; !ok {
		return ErrNotFound
	}
	cp := *it
	m.items[it.ID] = &cp
	return nil
}

func (m *memRepo) filter(keep func(*Item) bool) []*Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Item
	for _, it := range m.items {
		if keep(it) {
			cp := *it
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *Item) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (m *memRepo) ListByOwner(_ context.Context, ownerID string) ([]*Item, error) {
	return m.filter(func(it *Item) bool { return it.OwnerID == ownerID }), nil
}

func (m *memRepo) Search(_ context.Context, text string) ([]*Item, error) {
	text = strings.ToLower(text)
	return m.filter(func(it *Item) bool {
		return it.Available && (strings.Contains(strings.ToLower(it.Name), text) ||
			strings.Contains(strings.ToLower(it.Description), text))
	}), nil
}

func (m *memRepo) ListByRequestIDs(_ context.Context, requestIDs []string) ([]*Item, error) {
	return m.filter(func(it *Item) bool {
		return it.RequestID != nil && slices.Contains(requestIDs, *it.RequestID)
	}), nil
}

func (m *memRepo) SetPhoto(_ context.Context, id, photoPath, thumbnailPath, photoType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	it.PhotoPath, it.ThumbnailPath, it.PhotoType = &photoPath, &thumbnailPath, &photoType
	return nil
}

func (m *memRepo) CreateComment(_ context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.AuthorName = m.names[c.AuthorID]
	c.CreatedAt = time.Now()
	cp := *c
	m.comments = append(m.comments, &cp)
	return nil
}

func (m *memRepo) ListComments(_ context.Context, itemIDs []string) ([]*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Comment
	for _, c := range m.comments {
		if slices.Contains(itemIDs, c.ItemID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// directory answers Exists for both users and item requests.
type directory map[string]bool

func (d directory) Exists(_ context.Context, id string) (bool, error) {
	return d[id], nil
}

// fakeHistory serves canned booking annotations and records calls.
type fakeHistory struct {
	nearest      map[string]booking.Nearest
	finished     map[string]bool // key: user + "/" + item
	singleCalls  int
	batchedCalls int
}

func (f *fakeHistory) NearestBookings(_ context.Context, itemID string, viewerIsOwner bool) (booking.Nearest, error) {
	f.singleCalls++
	if !viewerIsOwner {
		return booking.Nearest{}, nil
	}
	return f.nearest[itemID], nil
}

func (f *fakeHistory) NearestForItems(_ context.Context, itemIDs []string) (map[string]booking.Nearest, error) {
	f.batchedCalls++
	out := make(map[string]booking.Nearest, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = f.nearest[id]
	}
	return out, nil
}

func (f *fakeHistory) HasFinishedBooking(_ context.Context, userID, itemID string) (bool, error) {
	return f.finished[userID+"/"+itemID], nil
}
