package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nekogravitycat/shareit-backend/internal/events"
)

// memStore backs Repository, UserDirectory and ItemCatalog with maps.
type memStore struct {
	mu       sync.RWMutex
	seq      int
	users    map[string]string
	items    map[string]ItemRef
	bookings map[string]*Booking
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]string{},
		items:    map[string]ItemRef{},
		bookings: map[string]*Booking{},
	}
}

func (m *memStore) addUser(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = name
}

func (m *memStore) addItem(ref ItemRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[ref.ID] = ref
}

// seed stores b as-is, filling the joined fields.
func (m *memStore) seed(b Booking) *Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := m.items[b.ItemID]
	b.ItemName = item.Name
	b.ItemOwnerID = item.OwnerID
	b.BookerName = m.users[b.BookerID]
	m.bookings[b.ID] = &b
	cp := b
	return &cp
}

func (m *memStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *memStore) Lookup(_ context.Context, id string) (ItemRef, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.items[id]
	return ref, ok, nil
}

func (m *memStore) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	b.ID = fmt.Sprintf("b-%04d", m.seq)
	b.BookerName = m.users[b.BookerID]
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) filter(keep func(*Booking) bool) []*Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Booking
	for _, b := range m.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memStore) ListByBooker(_ context.Context, bookerID string) ([]*Booking, error) {
	return m.filter(func(b *Booking) bool { return b.BookerID == bookerID }), nil
}

func (m *memStore) ListByOwner(_ context.Context, ownerID string) ([]*Booking, error) {
	return m.filter(func(b *Booking) bool { return b.ItemOwnerID == ownerID }), nil
}

func (m *memStore) ListByItems(_ context.Context, itemIDs []string, status Status) ([]*Booking, error) {
	return m.filter(func(b *Booking) bool {
		return b.Status == status && slices.Contains(itemIDs, b.ItemID)
	}), nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, from, to Status) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return time.Time{}, ErrAlreadyProcessed
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	return b.UpdatedAt, nil
}

func (m *memStore) HasFinished(_ context.Context, bookerID, itemID string, status Status, t time.Time) (bool, error) {
	found := m.filter(func(b *Booking) bool {
		return b.BookerID == bookerID && b.ItemID == itemID && b.Status == status && b.End.Before(t)
	})
	return len(found) > 0, nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var errBrokerDown = errors.New("broker down")
