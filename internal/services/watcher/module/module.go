// Package module wires the watcher pipeline and exposes its ports
package module

import (
	"context"

	"mintwatch/internal/adapters/browser"
	"mintwatch/internal/adapters/explorer"
	"mintwatch/internal/adapters/ingest/solana"
	"mintwatch/internal/modkit"
	perr "mintwatch/internal/platform/errors"
	phttp "mintwatch/internal/platform/net/http"
	"mintwatch/internal/platform/validate"
	"mintwatch/internal/services/watcher/domain"
	whttp "mintwatch/internal/services/watcher/http"
	"mintwatch/internal/services/watcher/repo"
	"mintwatch/internal/services/watcher/service"
)

// Module defines the watcher module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

var _ modkit.Module = (*Module)(nil)

// New constructs the watcher from config plus non-zero overrides
// the pg backend needs deps.Store with postgres enabled
func New(ctx context.Context, deps modkit.Deps, overrides Options) (*Module, error) {
	opts := FromConfig(deps.Cfg).apply(overrides)
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}

	store, err := openStore(ctx, deps, opts)
	if err != nil {
		return nil, err
	}

	ext, err := explorer.New(opts.Variant, browser.New(browser.Options{
		Headless: opts.BrowserHeadless,
		ExecPath: opts.BrowserExecPath,
	}), explorer.Options{
		Timeout:         opts.ExtractionTimeout,
		NavigateTimeout: opts.NavigateTimeout,
	})
	if err != nil {
		return nil, err
	}

	svc := service.New(service.Deps{
		Subscriber: solana.NewSubscriber(solana.Options{Endpoint: opts.Endpoint}),
		Extractor:  ext,
		Store:      store,
		Registry:   deps.Metrics,
	}, service.Config{
		Account:     opts.Account,
		Commitment:  opts.Commitment,
		LogMarker:   opts.LogMarker,
		MaxInFlight: opts.MaxInFlight,
	})

	deps.Log.Info().
		Str("variant", string(opts.Variant)).
		Str("backend", opts.StoreBackend).
		Str("store_path", opts.StorePath).
		Str("endpoint", opts.Endpoint).
		Msg("watcher configured")

	return &Module{
		deps: deps,
		opts: opts,
		ports: Ports{
			Worker: svc,
			Stats:  svc,
			Reader: svc,
		},
	}, nil
}

func openStore(ctx context.Context, deps modkit.Deps, opts Options) (domain.RecordStore, error) {
	if opts.StoreBackend != BackendPG {
		return repo.NewFile(opts.StorePath), nil
	}
	if deps.Store == nil || deps.Store.PG == nil {
		return nil, perr.Unavailablef("store backend pg requires SERVICE_PGSQL_ENABLED")
	}
	return repo.NewPG(ctx, deps.Store.PG.Pool)
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Ports returns the module ports (Worker, Stats, Reader)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "watcher" }

// MountRoutes mounts the read-only status endpoints
func (m *Module) MountRoutes(r phttp.Router) {
	whttp.Register(r, m.ports.Reader, m.ports.Stats)
}
