package invoices

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStore is a file-backed invoice fallback used while the remote
// invoices relation is unavailable. The JSON document on disk is the
// source of truth between process restarts.
type LocalStore struct {
	mu   sync.Mutex
	path string
}

// NewLocalStore constructs a LocalStore persisting at path.
func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path}
}

// Load reads all locally persisted invoices. A missing file is an empty store.
func (s *LocalStore) Load() ([]Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add appends an invoice to the local file.
func (s *LocalStore) Add(inv Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.load()
	if err != nil {
		return err
	}
	inv.Local = true
	existing = append(existing, inv)
	return s.save(existing)
}

// Remove deletes the invoice with the given id from the local file. Removing
// an absent id is a no-op.
func (s *LocalStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.load()
	if err != nil {
		return err
	}
	kept := existing[:0]
	for _, inv := range existing {
		if inv.ID != id {
			kept = append(kept, inv)
		}
	}
	return s.save(kept)
}

// Replace overwrites the whole local file, used after reconciliation.
func (s *LocalStore) Replace(invoices []Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(invoices)
}

func (s *LocalStore) load() ([]Invoice, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Invoice{}, nil
		}
		return nil, fmt.Errorf("read local invoices: %w", err)
	}
	var out []Invoice
	if err := json.Unmarshal(raw, &out); err != nil {
		// A corrupt fallback file must not block invoicing.
		return []Invoice{}, nil
	}
	return out, nil
}

func (s *LocalStore) save(invoices []Invoice) error {
	raw, err := json.MarshalIndent(invoices, "", "  ")
	if err != nil {
		return fmt.Errorf("encode local invoices: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure local invoice dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write local invoices: %w", err)
	}
	return os.Rename(tmp, s.path)
}
