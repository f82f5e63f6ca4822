// Package content defines core types shared across the import service.
package content

import "time"

// Section names the extractor may emit. Sections carries a subset of these
// keys; a missing key means the section was not detected.
const (
	SectionHero         = "hero"
	SectionServices     = "services"
	SectionTestimonials = "testimonials"
	SectionContact      = "contact"
)

// NavLink is a single navigation entry extracted from a nav element.
// Href is empty when the anchor has no href attribute.
type NavLink struct {
	Label string `json:"label" bson:"label"`
	Href  string `json:"href" bson:"href"`
}

// Sections maps a section name to its blocks. Hero blocks are single lines;
// services/testimonials/contact blocks may span multiple lines.
type Sections map[string][]string

// Extraction is the result of running the heuristic extractor over one
// HTML document. Sections and Navigation are never nil.
type Extraction struct {
	RawText    string    `json:"raw_text"`
	Sections   Sections  `json:"sections"`
	Navigation []NavLink `json:"navigation"`
}

// ImportRequest captures one import call. Language is an optional caller
// hint stored verbatim alongside the record.
type ImportRequest struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

// SiteContent is the record persisted once per successful import. The
// imported fields (SourceURL through Navigation) round-trip unchanged
// between the import response and later content queries; the remaining
// fields are storage metadata assigned by the importer.
type SiteContent struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	SourceURL   string    `json:"source_url" bson:"source_url"`
	Language    string    `json:"language,omitempty" bson:"language,omitempty"`
	RawHTML     string    `json:"raw_html,omitempty" bson:"raw_html,omitempty"`
	RawText     string    `json:"raw_text,omitempty" bson:"raw_text,omitempty"`
	Sections    Sections  `json:"sections" bson:"sections"`
	Navigation  []NavLink `json:"navigation" bson:"navigation"`
	StatusCode  int       `json:"status_code,omitempty" bson:"status_code,omitempty"`
	ContentHash string    `json:"content_hash,omitempty" bson:"content_hash,omitempty"`
	FetchedAt   time.Time `json:"fetched_at" bson:"fetched_at"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// FetchResult is returned by a Fetcher implementation on success.
type FetchResult struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}
