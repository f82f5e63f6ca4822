package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/contentforge/siteimport/internal/content"
)

func TestCreateInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_content")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()

	rec := content.SiteContent{
		ID:        "uuid-v7",
		SourceURL: "https://example.com",
		Language:  "en",
		RawHTML:   "<html></html>",
		RawText:   "hello",
		Sections: content.Sections{
			content.SectionHero: {"hello"},
		},
		Navigation: []content.NavLink{
			{Label: "Home", Href: "/"},
		},
		StatusCode:  200,
		ContentHash: "abc123",
		FetchedAt:   now,
		CreatedAt:   now,
	}

	mock.ExpectExec("INSERT INTO site_content").
		WithArgs(
			rec.ID,
			rec.SourceURL,
			rec.Language,
			rec.RawHTML,
			rec.RawText,
			[]byte(`{"hero":["hello"]}`),
			[]byte(`[{"label":"Home","href":"/"}]`),
			rec.StatusCode,
			rec.ContentHash,
			rec.FetchedAt,
			rec.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	stored, err := store.Create(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, rec, stored)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMarshalsEmptyCollections(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_content")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := content.SiteContent{
		ID:        "uuid-v7",
		SourceURL: "https://example.com",
		FetchedAt: now,
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO site_content").
		WithArgs(
			rec.ID,
			rec.SourceURL,
			"",
			"",
			"",
			[]byte(`{}`),
			[]byte(`[]`),
			0,
			"",
			now,
			now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	_, err = store.Create(context.Background(), rec)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	_, err = store.Create(context.Background(), content.SiteContent{SourceURL: "https://example.com"})
	var se *content.StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "create", se.Op)
}

func TestLatestScansRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_content")
	require.NoError(t, err)

	newer := time.Unix(1700000100, 0).UTC()
	older := time.Unix(1700000000, 0).UTC()

	cols := []string{
		"id", "source_url", "language", "raw_html", "raw_text",
		"sections", "navigation", "status_code", "content_hash",
		"fetched_at", "created_at",
	}
	mock.ExpectQuery("(?s)SELECT (.+) FROM site_content").
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(
				"rec-2", "https://example.com/b", "en", "<p>b</p>", "b",
				[]byte(`{"hero":["b"]}`), []byte(`[]`), 200, "hash-b",
				newer, newer,
			).
			AddRow(
				"rec-1", "https://example.com/a", "", "<p>a</p>", "a",
				[]byte(`{}`), []byte(`[{"label":"Home","href":"/"}]`), 200, "hash-a",
				older, older,
			))

	recs, err := store.Latest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "rec-2", recs[0].ID)
	require.Equal(t, content.Sections{content.SectionHero: {"b"}}, recs[0].Sections)
	require.Equal(t, []content.NavLink{{Label: "Home", Href: "/"}}, recs[1].Navigation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestPropagatesQueryError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_content")
	require.NoError(t, err)

	mock.ExpectQuery("(?s)SELECT (.+) FROM site_content").
		WithArgs(1).
		WillReturnError(errors.New("boom"))

	_, err = store.Latest(context.Background(), 1)
	var se *content.StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "latest", se.Op)
}

func TestEnsureSchemaCreatesTableAndIndex(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "site_content")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS site_content").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS site_content_created_at_idx").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "bad-name;drop")
	require.Error(t, err)

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "site_content", store.table)

	_, err = NewWithPool(nil, "site_content")
	require.Error(t, err)
}
