// Package http provides the read-only status transport for the watcher
package http

import (
	stdhttp "net/http"

	phttp "mintwatch/internal/platform/net/http"
	"mintwatch/internal/services/watcher/domain"
)

// Register mounts watcher endpoints on the given router
func Register(r phttp.Router, reader domain.ReaderPort, stats domain.StatsPort) {
	h := &handlers{reader: reader, stats: stats}

	// persisted records in append order
	r.Get("/records", phttp.JSONHandler(h.records))

	// pipeline counters
	r.Get("/stats", phttp.JSONHandler(h.statsSnapshot))
}

type handlers struct {
	reader domain.ReaderPort
	stats  domain.StatsPort
}

func (h *handlers) records(r *stdhttp.Request) (any, error) {
	return h.reader.Records(r.Context())
}

func (h *handlers) statsSnapshot(*stdhttp.Request) (any, error) {
	return h.stats.Stats(), nil
}
