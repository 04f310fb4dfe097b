// Package status serves health, metrics and module read endpoints
package status

import (
	stdhttp "net/http"
	"strings"
	"time"

	"mintwatch/internal/modkit"
	"mintwatch/internal/platform/config"
	phttp "mintwatch/internal/platform/net/http"
	"mintwatch/internal/platform/net/middleware"
	"mintwatch/internal/platform/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the status server
type Options struct {
	Enabled     bool
	Addr        string
	CORSOrigins []string
	SlowRequest time.Duration
}

// FromConfig reads with STATUS_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("STATUS_")
	var origins []string
	for o := range strings.SplitSeq(c.MayString("CORS_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return Options{
		Enabled:     c.MayBool("ENABLED", true),
		Addr:        c.MayString("ADDR", ":4000"),
		CORSOrigins: origins,
		SlowRequest: c.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
	}
}

type health struct {
	Status string            `json:"status"`
	Build  version.BuildInfo `json:"build"`
}

// Mount attaches the middleware stack, probes, metrics and every module under /v1
func Mount(r phttp.Router, opt Options, gatherer prometheus.Gatherer, mods ...modkit.Module) {
	for _, mw := range middleware.Defaults(middleware.AccessLogOptions{
		Slow:  opt.SlowRequest,
		Quiet: []string{"/healthz", "/metrics"},
	}) {
		r.Use(mw)
	}
	if len(opt.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins, MaxAge: 300}))
	}

	r.Get("/healthz", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		phttp.RespondOK(w, req, health{Status: "ok", Build: version.Info()})
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(v1 phttp.Router) {
		for _, m := range mods {
			m.MountRoutes(v1)
		}
	})
}
