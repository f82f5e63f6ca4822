package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentforge/siteimport/internal/content"
	"github.com/contentforge/siteimport/internal/extract"
	"github.com/contentforge/siteimport/internal/metrics"
)

type stubFetcher struct {
	res     *content.FetchResult
	err     error
	gotURLs []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*content.FetchResult, error) {
	s.gotURLs = append(s.gotURLs, url)
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

type stubStore struct {
	created     []content.SiteContent
	createErr   error
	latest      []content.SiteContent
	latestErr   error
	latestCalls int
	lastLimit   int
}

func (s *stubStore) Create(_ context.Context, rec content.SiteContent) (content.SiteContent, error) {
	if s.createErr != nil {
		return content.SiteContent{}, s.createErr
	}
	s.created = append(s.created, rec)
	return rec, nil
}

func (s *stubStore) Latest(_ context.Context, limit int) ([]content.SiteContent, error) {
	s.latestCalls++
	s.lastLimit = limit
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.latest, nil
}

func (s *stubStore) Ping(context.Context) error  { return nil }
func (s *stubStore) Name() string                { return "stub" }
func (s *stubStore) Close(context.Context) error { return nil }

type stubIDs struct {
	id  string
	err error
}

func (s stubIDs) NewID() (string, error) { return s.id, s.err }

type stubClock struct{ now time.Time }

func (s stubClock) Now() time.Time { return s.now }

type stubHasher struct {
	hash string
	err  error
}

func (s stubHasher) Hash([]byte) (string, error) { return s.hash, s.err }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestImporter(f *stubFetcher, st *stubStore) *Importer {
	return New(
		f,
		extract.New(extract.Config{}),
		st,
		stubIDs{id: "content-1"},
		stubClock{now: testNow},
		stubHasher{hash: "deadbeef"},
		nil,
	)
}

func TestImportSuccess(t *testing.T) {
	t.Parallel()
	metrics.Init()

	page := `<html><body><nav><a href="/">Home</a></nav><h1>Hello</h1><p>World</p></body></html>`
	f := &stubFetcher{res: &content.FetchResult{
		URL:        "https://example.com",
		StatusCode: 200,
		Body:       []byte(page),
		Duration:   120 * time.Millisecond,
	}}
	st := &stubStore{}
	imp := newTestImporter(f, st)

	rec, err := imp.Import(context.Background(), content.ImportRequest{URL: "https://example.com", Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, "content-1", rec.ID)
	assert.Equal(t, "https://example.com", rec.SourceURL)
	assert.Equal(t, "en", rec.Language)
	assert.Equal(t, page, rec.RawHTML)
	assert.Equal(t, "Home\nHello\nWorld", rec.RawText)
	assert.Equal(t, []string{"Hello", "World"}, rec.Sections[content.SectionHero])
	assert.Equal(t, []content.NavLink{{Label: "Home", Href: "/"}}, rec.Navigation)
	assert.Equal(t, 200, rec.StatusCode)
	assert.Equal(t, "deadbeef", rec.ContentHash)
	assert.Equal(t, testNow, rec.FetchedAt)
	assert.Equal(t, testNow, rec.CreatedAt)

	require.Len(t, st.created, 1)
	assert.Equal(t, rec, st.created[0])
}

func TestImportTrimsWhitespace(t *testing.T) {
	t.Parallel()
	metrics.Init()

	f := &stubFetcher{res: &content.FetchResult{StatusCode: 200, Body: []byte("<p>hi</p>")}}
	st := &stubStore{}
	imp := newTestImporter(f, st)

	rec, err := imp.Import(context.Background(), content.ImportRequest{URL: "  https://example.com/page  "})
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/page"}, f.gotURLs)
	assert.Equal(t, "https://example.com/page", rec.SourceURL)
}

func TestImportRejectsInvalidURLs(t *testing.T) {
	t.Parallel()
	metrics.Init()

	cases := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"unsupported scheme", "ftp://example.com/x"},
		{"missing host", "https://"},
		{"missing scheme", "example.com"},
		{"unparseable", "://bad"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := &stubFetcher{}
			st := &stubStore{}
			imp := newTestImporter(f, st)

			_, err := imp.Import(context.Background(), content.ImportRequest{URL: tc.url})
			var ve *content.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Empty(t, f.gotURLs, "fetcher must not be called for invalid urls")
			assert.Empty(t, st.created, "nothing may be stored for invalid urls")
		})
	}
}

func TestImportFetchFailureLeavesNoRecord(t *testing.T) {
	t.Parallel()
	metrics.Init()

	f := &stubFetcher{err: &content.FetchError{URL: "https://example.com", StatusCode: 404}}
	st := &stubStore{}
	imp := newTestImporter(f, st)

	_, err := imp.Import(context.Background(), content.ImportRequest{URL: "https://example.com"})
	var fe *content.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.StatusCode)
	assert.Empty(t, st.created)
}

func TestImportStoreFailure(t *testing.T) {
	t.Parallel()
	metrics.Init()

	f := &stubFetcher{res: &content.FetchResult{StatusCode: 200, Body: []byte("<p>hi</p>")}}
	st := &stubStore{createErr: &content.StoreError{Op: "create", Err: errors.New("down")}}
	imp := newTestImporter(f, st)

	_, err := imp.Import(context.Background(), content.ImportRequest{URL: "https://example.com"})
	var se *content.StoreError
	require.ErrorAs(t, err, &se)
}

func TestImportIDGenerationFailure(t *testing.T) {
	t.Parallel()
	metrics.Init()

	f := &stubFetcher{res: &content.FetchResult{StatusCode: 200, Body: []byte("<p>hi</p>")}}
	st := &stubStore{}
	imp := New(
		f,
		extract.New(extract.Config{}),
		st,
		stubIDs{err: errors.New("entropy exhausted")},
		stubClock{now: testNow},
		stubHasher{hash: "deadbeef"},
		nil,
	)

	_, err := imp.Import(context.Background(), content.ImportRequest{URL: "https://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate content id")
	assert.Empty(t, st.created)
}

func TestLatestValidatesLimit(t *testing.T) {
	t.Parallel()

	st := &stubStore{}
	imp := newTestImporter(&stubFetcher{}, st)

	for _, limit := range []int{0, -3} {
		_, err := imp.Latest(context.Background(), limit)
		var ve *content.ValidationError
		require.ErrorAs(t, err, &ve, "limit %d", limit)
	}
	assert.Zero(t, st.latestCalls, "store must not be queried for invalid limits")
}

func TestLatestNormalizesRecords(t *testing.T) {
	t.Parallel()

	st := &stubStore{latest: []content.SiteContent{{ID: "a"}}}
	imp := newTestImporter(&stubFetcher{}, st)

	recs, err := imp.Latest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 5, st.lastLimit)
	assert.NotNil(t, recs[0].Sections)
	assert.NotNil(t, recs[0].Navigation)
}

func TestLatestPropagatesStoreError(t *testing.T) {
	t.Parallel()

	st := &stubStore{latestErr: &content.StoreError{Op: "latest", Err: errors.New("down")}}
	imp := newTestImporter(&stubFetcher{}, st)

	_, err := imp.Latest(context.Background(), 1)
	var se *content.StoreError
	require.ErrorAs(t, err, &se)
}
