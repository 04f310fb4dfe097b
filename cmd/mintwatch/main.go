package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"mintwatch/internal/modkit"
	"mintwatch/internal/modkit/module"
	"mintwatch/internal/platform/config"
	"mintwatch/internal/platform/logger"
	phttp "mintwatch/internal/platform/net/http"
	"mintwatch/internal/platform/store"
	"mintwatch/internal/platform/version"
	"mintwatch/internal/services/status"
	"mintwatch/internal/services/watcher/domain"
	watchermod "mintwatch/internal/services/watcher/module"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() { os.Exit(run()) }

// run owns every deferred cleanup so exit codes never skip them
func run() int {
	var (
		fVariant = flag.String("variant", "", "extraction variant: solana-explorer or solscan (overrides WATCHER_VARIANT)")
		fStore   = flag.String("store", "", "record file path (overrides WATCHER_STORE_PATH)")
	)
	flag.Parse()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bi := version.Info()
	l.Info().Str("version", bi.Version).Str("commit", bi.Commit).Msg("mintwatch starting")

	st, err := store.Open(ctx, store.Config{
		AppName: "mintwatch",
		PG: store.PGConfig{
			Enabled:     pgCfg.MayBool("ENABLED", false),
			URL:         pgCfg.MayString("DBURL", ""),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Error().Err(err).Msg("store.Open failed")
		return 1
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := modkit.Deps{
		Log:     *l,
		Cfg:     root,
		Store:   st,
		Metrics: reg,
	}

	// non-empty flags override WATCHER_* env
	mod, err := watchermod.New(ctx, deps, watchermod.Options{
		Variant:   domain.Variant(*fVariant),
		StorePath: *fStore,
	})
	if err != nil {
		l.Error().Err(err).Msg("watcher module failed")
		return 1
	}
	worker := module.MustPortsOf[watchermod.Ports](mod).Worker

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// a transport failure ends the process; a signal or a dead status server ends it cleanly
		return worker.Run(gctx)
	})

	statusOpts := status.FromConfig(root)
	if statusOpts.Enabled {
		srv := phttp.NewServer(statusOpts.Addr)
		status.Mount(srv.Router(), statusOpts, reg, mod)
		g.Go(func() error { return srv.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("mintwatch stopped")
		return 1
	}
	l.Info().Msg("mintwatch stopped")
	return 0
}
