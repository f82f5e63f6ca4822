// Package importer coordinates fetching, extraction and persistence of
// imported pages.
package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/contentforge/siteimport/internal/content"
	"github.com/contentforge/siteimport/internal/extract"
	"github.com/contentforge/siteimport/internal/metrics"
)

// Outcome labels recorded on the import counter.
const (
	outcomeSuccess    = "success"
	outcomeInvalid    = "invalid_request"
	outcomeFetchError = "fetch_error"
	outcomeStoreError = "store_error"
)

// Importer runs the import pipeline: fetch a page, extract its sections and
// persist the result alongside the raw markup.
type Importer struct {
	fetcher   content.Fetcher
	extractor *extract.Extractor
	store     content.Store
	ids       content.IDGenerator
	clock     content.Clock
	hasher    content.Hasher
	logger    *zap.Logger
}

// New wires an Importer from its collaborators.
func New(
	fetcher content.Fetcher,
	extractor *extract.Extractor,
	store content.Store,
	ids content.IDGenerator,
	clock content.Clock,
	hasher content.Hasher,
	logger *zap.Logger,
) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		ids:       ids,
		clock:     clock,
		hasher:    hasher,
		logger:    logger.Named("importer"),
	}
}

// Import fetches the requested URL, extracts its structure and stores the
// record. Nothing is written when the fetch fails, so a failed import leaves
// no trace in the store. The returned record is exactly what later Latest
// calls will serve.
func (i *Importer) Import(ctx context.Context, req content.ImportRequest) (content.SiteContent, error) {
	start := i.clock.Now()

	rawURL := strings.TrimSpace(req.URL)
	if err := validateURL(rawURL); err != nil {
		i.finish(outcomeInvalid, start)
		return content.SiteContent{}, err
	}

	res, err := i.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		i.logger.Warn("fetch failed", zap.String("url", rawURL), zap.Error(err))
		i.finish(outcomeFetchError, start)
		return content.SiteContent{}, err
	}
	fetchedAt := i.clock.Now().UTC()
	metrics.AddFetchedBytes(rawURL, len(res.Body))

	extraction := i.extractor.Extract(string(res.Body))
	for section := range extraction.Sections {
		metrics.ObserveSection(section)
	}

	id, err := i.ids.NewID()
	if err != nil {
		i.finish(outcomeStoreError, start)
		return content.SiteContent{}, fmt.Errorf("generate content id: %w", err)
	}
	hash, err := i.hasher.Hash(res.Body)
	if err != nil {
		i.finish(outcomeStoreError, start)
		return content.SiteContent{}, fmt.Errorf("hash content: %w", err)
	}

	rec := content.SiteContent{
		ID:          id,
		SourceURL:   rawURL,
		Language:    strings.TrimSpace(req.Language),
		RawHTML:     string(res.Body),
		RawText:     extraction.RawText,
		Sections:    extraction.Sections,
		Navigation:  extraction.Navigation,
		StatusCode:  res.StatusCode,
		ContentHash: hash,
		FetchedAt:   fetchedAt,
		CreatedAt:   i.clock.Now().UTC(),
	}

	stored, err := i.store.Create(ctx, rec)
	if err != nil {
		i.logger.Error("store create failed", zap.String("url", rawURL), zap.Error(err))
		i.finish(outcomeStoreError, start)
		return content.SiteContent{}, err
	}

	i.logger.Info("page imported",
		zap.String("url", rawURL),
		zap.String("id", stored.ID),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(res.Body)),
		zap.Int("sections", len(extraction.Sections)),
		zap.Duration("fetch_duration", res.Duration),
	)
	i.finish(outcomeSuccess, start)
	return normalizeRecord(stored), nil
}

// Latest returns the most recently imported records, newest first.
func (i *Importer) Latest(ctx context.Context, limit int) ([]content.SiteContent, error) {
	if limit < 1 {
		return nil, &content.ValidationError{Msg: "limit must be a positive integer"}
	}
	recs, err := i.store.Latest(ctx, limit)
	if err != nil {
		i.logger.Error("store read failed", zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}
	out := make([]content.SiteContent, len(recs))
	for idx, rec := range recs {
		out[idx] = normalizeRecord(rec)
	}
	return out, nil
}

func (i *Importer) finish(outcome string, start time.Time) {
	metrics.ObserveImport(outcome, i.clock.Now().Sub(start))
}

func validateURL(raw string) error {
	if raw == "" {
		return &content.ValidationError{Msg: "url is required"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &content.ValidationError{Msg: "url is not valid"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &content.ValidationError{Msg: "url scheme must be http or https"}
	}
	if u.Host == "" {
		return &content.ValidationError{Msg: "url host is required"}
	}
	return nil
}

// normalizeRecord keeps API payloads stable: sections always encode as an
// object and navigation as an array, even for records stored before either
// was populated.
func normalizeRecord(rec content.SiteContent) content.SiteContent {
	if rec.Sections == nil {
		rec.Sections = content.Sections{}
	}
	if rec.Navigation == nil {
		rec.Navigation = []content.NavLink{}
	}
	return rec
}
