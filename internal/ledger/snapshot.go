package ledger

import (
	"sort"
	"sync"
)

// Snapshot is the authoritative in-memory copy of the product collection. It
// is updated only from confirmed remote results (write-through) and by the
// full-refetch path; a fetch failure leaves the prior state in place.
type Snapshot struct {
	mu        sync.RWMutex
	state     CollectionState
	prevState CollectionState
	products  map[int64]Product
	inFlight  map[int64]struct{}
}

// NewSnapshot builds an empty Unloaded snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		state:    StateUnloaded,
		products: make(map[int64]Product),
		inFlight: make(map[int64]struct{}),
	}
}

// State returns the coarse collection state.
func (s *Snapshot) State() CollectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// BeginLoad transitions to Loading, remembering the prior state so a failed
// fetch can fall back to it.
func (s *Snapshot) BeginLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		s.prevState = s.state
	}
	s.state = StateLoading
}

// CompleteLoad replaces the collection with the fetched result.
func (s *Snapshot) CompleteLoad(products []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[int64]Product, len(products))
	for _, p := range products {
		next[p.ID] = p
	}
	s.products = next
	s.state = StateLoaded
}

// FailLoad restores the pre-Loading state. Existing data is kept; there is no
// error terminal for the collection.
func (s *Snapshot) FailLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLoading {
		s.state = s.prevState
	}
}

// Products returns a stable-ordered copy of the collection.
func (s *Snapshot) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns one product from the snapshot.
func (s *Snapshot) Get(id int64) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// Upsert mirrors a confirmed remote write into memory.
func (s *Snapshot) Upsert(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// Remove mirrors a confirmed remote delete into memory.
func (s *Snapshot) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// MarkInFlight flags a pending mutation for one product id so the surface can
// disable its controls.
func (s *Snapshot) MarkInFlight(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[id] = struct{}{}
}

// ClearInFlight removes the pending marker.
func (s *Snapshot) ClearInFlight(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// InFlight reports whether a mutation is pending for the product id.
func (s *Snapshot) InFlight(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inFlight[id]
	return ok
}
