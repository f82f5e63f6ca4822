package mongostore

import (
	"context"
	"errors"
	"testing"

	"github.com/contentforge/siteimport/internal/content"
)

func TestNewRequiresURI(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing uri")
	}
}

func TestCreateRequiresID(t *testing.T) {
	t.Parallel()

	s := &Store{}
	_, err := s.Create(context.Background(), content.SiteContent{SourceURL: "https://example.com"})
	var se *content.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if se.Op != "create" {
		t.Fatalf("unexpected op %q", se.Op)
	}
}

func TestLatestNonPositiveLimit(t *testing.T) {
	t.Parallel()

	s := &Store{}
	recs, err := s.Latest(context.Background(), 0)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %d", len(recs))
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	s := &Store{}
	if s.Name() != "mongo" {
		t.Fatalf("unexpected provider name %q", s.Name())
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close() on unconnected store error = %v", err)
	}
}
