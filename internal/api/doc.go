// Package api hosts the HTTP server, middleware, and REST handlers for the
// import service. Notable routes:
//   - POST /api/import to fetch a page and store its extracted content.
//   - GET /api/content for the most recently imported records.
//   - GET /test for storage diagnostics.
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
package api
