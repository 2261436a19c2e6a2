package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

type memSession struct {
	cart    *model.CartSelection
	items   []model.MultiCartItem
	receipt *model.Receipt
	touched time.Time
}

// MemoryStore is the process-local Store used when Redis is unavailable.
// Sessions idle for longer than the TTL are dropped on access.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memSession
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{sessions: make(map[string]*memSession), ttl: ttl, now: time.Now}
}

// get returns the live session, creating it when create is true.  Callers
// hold s.mu.
func (s *MemoryStore) get(sessionID string, create bool) *memSession {
	now := s.now()
	ms, ok := s.sessions[sessionID]
	if ok && now.Sub(ms.touched) > s.ttl {
		delete(s.sessions, sessionID)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		ms = &memSession{}
		s.sessions[sessionID] = ms
	}
	ms.touched = now
	return ms
}

func (s *MemoryStore) SetCart(_ context.Context, sessionID string, sel model.CartSelection) (model.CartSelection, error) {
	if sessionID == "" {
		return model.CartSelection{}, ErrNoSession
	}
	sel, err := Derive(sel, s.now())
	if err != nil {
		return model.CartSelection{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := sel
	s.get(sessionID, true).cart = &cp
	return sel, nil
}

func (s *MemoryStore) GetCart(_ context.Context, sessionID string) (*model.CartSelection, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.get(sessionID, false)
	if ms == nil || ms.cart == nil {
		return nil, nil
	}
	cp := *ms.cart
	return &cp, nil
}

func (s *MemoryStore) ClearCart(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms := s.get(sessionID, false); ms != nil {
		ms.cart = nil
	}
	return nil
}

func (s *MemoryStore) AddItem(_ context.Context, sessionID string, item model.MultiCartItem) (string, error) {
	if sessionID == "" {
		return "", ErrNoSession
	}
	item, err := deriveItem(item)
	if err != nil {
		return "", err
	}
	item.ID = uuid.NewString()
	item.AddedAt = s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.get(sessionID, true)
	ms.items = append(ms.items, item)
	return item.ID, nil
}

func (s *MemoryStore) RemoveItem(_ context.Context, sessionID, id string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.get(sessionID, false)
	if ms == nil {
		return nil
	}
	for i, it := range ms.items {
		if it.ID == id {
			ms.items = append(ms.items[:i], ms.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Items(_ context.Context, sessionID string) ([]model.MultiCartItem, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.get(sessionID, false)
	if ms == nil {
		return []model.MultiCartItem{}, nil
	}
	out := make([]model.MultiCartItem, len(ms.items))
	copy(out, ms.items)
	return out, nil
}

func (s *MemoryStore) Contains(ctx context.Context, sessionID, slug, date string, adults, children int) (bool, error) {
	items, err := s.Items(ctx, sessionID)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.SameSelection(slug, date, adults, children) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) SaveReceipt(_ context.Context, sessionID string, r model.Receipt) error {
	if sessionID == "" {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := r
	s.get(sessionID, true).receipt = &cp
	return nil
}

func (s *MemoryStore) ConsumeReceipt(_ context.Context, sessionID string) (*model.Receipt, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.get(sessionID, false)
	if ms == nil || ms.receipt == nil {
		return nil, nil
	}
	r := ms.receipt
	ms.receipt = nil
	return r, nil
}

func (s *MemoryStore) PeekReceipt(_ context.Context, sessionID string) (*model.Receipt, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.get(sessionID, false)
	if ms == nil || ms.receipt == nil {
		return nil, nil
	}
	cp := *ms.receipt
	return &cp, nil
}

func (s *MemoryStore) ClearSession(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms := s.get(sessionID, false); ms != nil {
		ms.cart = nil
		ms.items = nil
	}
	return nil
}
