// Package collyfetch implements content.Fetcher using gocolly.
package collyfetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/contentforge/siteimport/internal/content"
)

const defaultTimeout = 20 * time.Second

var errNoResponse = errors.New("no response received")

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher performs single-page HTTP GETs through a Colly collector. Error
// statuses are parsed rather than aborted so the upstream status code can be
// reported back to the caller, and URL revisits are allowed because the same
// page may be imported any number of times.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled transport shared by all requests.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and returns the downloaded page. Any
// terminal status other than 200, and any transport failure, comes back as a
// *content.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*content.FetchResult, error) {
	var (
		result   *content.FetchResult
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(url, start, &result, &fetchErr)
	return f.runCollector(ctx, collector, url, &result, &fetchErr)
}

func (f *Fetcher) buildCollector(
	url string,
	start time.Time,
	result **content.FetchResult,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	if f.cfg.MaxBodyBytes > 0 {
		collector.MaxBodySize = f.cfg.MaxBodyBytes
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	collector.SetRequestTimeout(timeout)

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode != http.StatusOK {
			*fetchErr = &content.FetchError{URL: url, StatusCode: r.StatusCode}
			return
		}
		*result = &content.FetchResult{
			URL:        url,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = &content.FetchError{URL: url, StatusCode: r.StatusCode, Err: err}
			return
		}
		*fetchErr = &content.FetchError{URL: url, Err: err}
	})

	return collector
}

func (f *Fetcher) runCollector(
	ctx context.Context,
	collector *colly.Collector,
	url string,
	result **content.FetchResult,
	fetchErr *error,
) (*content.FetchResult, error) {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, &content.FetchError{URL: url, Err: ctx.Err()}
	case err := <-done:
		if *fetchErr != nil {
			return nil, *fetchErr
		}
		if err != nil {
			return nil, &content.FetchError{URL: url, Err: err}
		}
		if *result == nil {
			return nil, &content.FetchError{URL: url, Err: errNoResponse}
		}
		return *result, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
