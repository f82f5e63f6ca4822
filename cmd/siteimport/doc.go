// Package main hosts the site import service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes the import and content endpoints plus health, store diagnostics, and
//     metrics. POST /api/import fetches a page synchronously and answers with the stored record; GET /api/content
//     returns the newest records.
//   - Import pipeline: internal/importer validates the URL, fetches through the Colly-based fetcher, runs the
//     goquery section extractor, and persists one SiteContent record per call. There is no queue; the caller
//     waits for the store write and gets the exact record later reads will serve.
//   - Extraction: internal/extract strips script/style/noscript, collects nav links, and classifies hero,
//     services, testimonials, and contact sections by keyword landmarks. Keyword lists are configurable.
//   - Persistence: internal/store provides Mongo (documents), Postgres (JSONB columns), and in-memory providers
//     behind the content.Store interface, selected via store.provider.
//   - Configuration & plumbing: Viper populates config from env/files (SITEIMPORT_ prefix; legacy PORT,
//     DATABASE_URL, and DATABASE_NAME still honored); zap provides structured logging; Prometheus metrics are
//     exported via the metrics middleware and the /metrics handler.
//
// Operational notes:
//   - Concurrency model: one synchronous fetch per request; the server request timeout bounds each import.
//     Shutdown is coordinated via signal.NotifyContext and http.Server.Shutdown.
//   - Observability: zap logs carry URLs and record IDs at key transitions; Prometheus counters/histograms track
//     imports, fetched bytes, detected sections, and HTTP activity. Tracing is not wired in.
//   - Cloud Run: the HTTP server listens on the configured port (overridable via PORT). Health endpoints
//     (/healthz, /readyz) remain lightweight; the process reacts to SIGTERM for graceful drain.
//
// Quick checklist:
//   - Configure env vars: SITEIMPORT_SERVER_PORT or PORT, SITEIMPORT_STORE_PROVIDER, the matching store
//     connection settings (SITEIMPORT_STORE_MONGO_URI or DATABASE_URL, SITEIMPORT_STORE_POSTGRES_DSN), and
//     SITEIMPORT_FETCH_* knobs when the defaults do not fit.
//   - Run locally: go run ./cmd/siteimport -config config.yaml (or rely solely on env overrides).
package main
