// Package extract turns raw HTML into the structured content blocks the
// import service persists. The extractor is heuristic rather than
// schema-driven: it keys off common page landmarks (nav, the first h1,
// keyword-bearing headings, forms) and collects nearby text.
//
// The extractor is pure. It performs no I/O, holds no state between calls,
// and is safe for concurrent use.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/contentforge/siteimport/internal/content"
)

// Config tunes the keyword lists used to classify sections. Empty slices
// fall back to the package defaults.
type Config struct {
	ServiceKeywords     []string
	TestimonialKeywords []string
	ContactKeywords     []string
}

// Extractor derives navigation links and named sections from an HTML
// document. Build one with New and share it freely.
type Extractor struct {
	services     []string
	testimonials []string
	contacts     []string
}

// New returns an Extractor using the keywords in cfg, lowercased so that
// matching stays case-insensitive regardless of how callers spell them.
func New(cfg Config) *Extractor {
	return &Extractor{
		services:     lowerAll(cfg.ServiceKeywords, DefaultServiceKeywords),
		testimonials: lowerAll(cfg.TestimonialKeywords, DefaultTestimonialKeywords),
		contacts:     lowerAll(cfg.ContactKeywords, DefaultContactKeywords),
	}
}

// Extract parses rawHTML and returns the structured view of the page.
// Malformed or empty markup never fails: the parser repairs what it can and
// the result degrades to empty sections. Sections that match nothing are
// omitted from the map entirely.
func (e *Extractor) Extract(rawHTML string) content.Extraction {
	out := content.Extraction{
		Sections:   content.Sections{},
		Navigation: []content.NavLink{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return out
	}

	// Drop non-content subtrees before anything looks at text.
	doc.Find("script, style, noscript").Remove()

	out.Navigation = navigation(doc)
	if hero, ok := hero(doc); ok {
		out.Sections[content.SectionHero] = hero
	}
	if blocks := e.headingBlocks(doc, "h2, h3", e.services); len(blocks) > 0 {
		out.Sections[content.SectionServices] = blocks
	}
	if blocks := e.testimonialBlocks(doc); len(blocks) > 0 {
		out.Sections[content.SectionTestimonials] = blocks
	}
	if blocks := e.contactBlocks(doc); len(blocks) > 0 {
		out.Sections[content.SectionContact] = blocks
	}
	out.RawText = rawText(doc)
	return out
}

// navigation collects every anchor under a nav element, in document order.
// Anchors whose visible text trims to nothing are skipped; a missing href
// yields an empty Href rather than dropping the link.
func navigation(doc *goquery.Document) []content.NavLink {
	links := []content.NavLink{}
	doc.Find("nav a").Each(func(_ int, a *goquery.Selection) {
		label := selectionText(a, " ")
		if label == "" {
			return
		}
		href, _ := a.Attr("href")
		links = append(links, content.NavLink{Label: label, Href: href})
	})
	return links
}

// hero builds the hero section from the first h1 on the page: the heading
// text itself, then the non-empty texts of up to heroSiblingLimit element
// siblings that follow it.
func hero(doc *goquery.Document) ([]string, bool) {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return nil, false
	}
	texts := []string{selectionText(h1, " ")}
	texts = append(texts, siblingTexts(h1, heroSiblingLimit)...)
	return texts, true
}

// headingBlocks finds headings matched by selector whose text contains one
// of keywords and renders each as a newline-joined block: the heading text
// followed by the non-empty texts of up to blockSiblingLimit siblings.
func (e *Extractor) headingBlocks(doc *goquery.Document, selector string, keywords []string) []string {
	var blocks []string
	doc.Find(selector).Each(func(_ int, hdr *goquery.Selection) {
		title := selectionText(hdr, " ")
		if !containsAny(strings.ToLower(title), keywords) {
			return
		}
		lines := append([]string{title}, siblingTexts(hdr, blockSiblingLimit)...)
		blocks = append(blocks, strings.Join(lines, "\n"))
	})
	return blocks
}

// testimonialBlocks scans every text node in the document for testimonial
// keywords and captures the full text of the matching node's parent element.
// Parent texts are deduplicated exactly and the result is capped at
// testimonialLimit blocks.
func (e *Extractor) testimonialBlocks(doc *goquery.Document) []string {
	var blocks []string
	seen := make(map[string]struct{})
	for _, root := range doc.Selection.Nodes {
		walkTextNodes(root, func(n *html.Node) {
			if !containsAny(strings.ToLower(strings.TrimSpace(n.Data)), e.testimonials) {
				return
			}
			parent := n.Parent
			if parent == nil {
				return
			}
			block := nodeText(parent, " ")
			if block == "" {
				return
			}
			if _, dup := seen[block]; dup {
				return
			}
			seen[block] = struct{}{}
			blocks = append(blocks, block)
		})
	}
	if len(blocks) > testimonialLimit {
		blocks = blocks[:testimonialLimit]
	}
	return blocks
}

// contactBlocks collects the text of every form on the page, then appends
// keyword-matched h2/h3/h4 heading blocks. Forms come first so that an
// actual contact form outranks a heading that merely mentions contacts.
func (e *Extractor) contactBlocks(doc *goquery.Document) []string {
	var blocks []string
	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		if t := selectionText(form, " "); t != "" {
			blocks = append(blocks, t)
		}
	})
	return append(blocks, e.headingBlocks(doc, "h2, h3, h4", e.contacts)...)
}

// rawText renders the visible text of the body, one trimmed fragment per
// line. Documents without a body fall back to the whole tree.
func rawText(doc *goquery.Document) string {
	if body := doc.Find("body").First(); body.Length() > 0 {
		return selectionText(body, "\n")
	}
	return selectionText(doc.Selection, "\n")
}

// siblingTexts returns the non-empty trimmed texts of up to limit element
// siblings immediately following sel. The limit counts siblings examined,
// not texts kept, so trailing content never slides into the window when an
// earlier sibling is empty.
func siblingTexts(sel *goquery.Selection, limit int) []string {
	var out []string
	sel.NextAll().EachWithBreak(func(i int, sib *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		if t := selectionText(sib, " "); t != "" {
			out = append(out, t)
		}
		return true
	})
	return out
}

// selectionText flattens sel into a single string: each descendant text
// node is trimmed, empties are dropped, and the remainder is joined with
// sep. This keeps inter-element whitespace stable no matter how the source
// document was indented.
func selectionText(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(parts, sep)
}

func nodeText(n *html.Node, sep string) string {
	var parts []string
	collectText(n, &parts)
	return strings.Join(parts, sep)
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func walkTextNodes(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.TextNode {
		fn(n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkTextNodes(c, fn)
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func lowerAll(keywords, fallback []string) []string {
	if len(keywords) == 0 {
		keywords = fallback
	}
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = strings.ToLower(k)
	}
	return out
}
