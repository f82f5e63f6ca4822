package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/contentforge/siteimport/internal/content"
)

var errMissingID = errors.New("record id is required")

// Store provides an in-memory implementation for development/testing.
type Store struct {
	mu      sync.RWMutex
	records []content.SiteContent
}

// New constructs an empty Store.
func New() *Store {
	return &Store{}
}

// Create appends a record. The record keeps whatever metadata the caller
// already stamped on it.
func (s *Store) Create(_ context.Context, rec content.SiteContent) (content.SiteContent, error) {
	if rec.ID == "" {
		return content.SiteContent{}, &content.StoreError{Op: "create", Err: errMissingID}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, cloneRecord(rec))
	return rec, nil
}

// Latest returns up to limit records ordered newest-first by creation time.
// Returned records are copies, so callers can mutate them freely.
func (s *Store) Latest(_ context.Context, limit int) ([]content.SiteContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]content.SiteContent, len(s.records))
	for i, rec := range s.records {
		recs[i] = cloneRecord(rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})

	if limit < 0 {
		limit = 0
	}
	if limit > len(recs) {
		limit = len(recs)
	}
	return recs[:limit], nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Name identifies the provider.
func (s *Store) Name() string {
	return "memory"
}

// Close is a no-op.
func (s *Store) Close(context.Context) error {
	return nil
}

func cloneRecord(rec content.SiteContent) content.SiteContent {
	out := rec
	if rec.Sections != nil {
		out.Sections = make(content.Sections, len(rec.Sections))
		for k, v := range rec.Sections {
			out.Sections[k] = append([]string(nil), v...)
		}
	}
	if rec.Navigation != nil {
		out.Navigation = append([]content.NavLink(nil), rec.Navigation...)
	}
	return out
}
