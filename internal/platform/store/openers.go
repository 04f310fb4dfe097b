package store

import (
	"context"
	"fmt"
	"time"

	"mintwatch/internal/platform/store/pg"

	"github.com/jackc/pgx/v5/pgxpool"
)

// sleep is a seam so tests don't wait on backoff
var sleep = time.Sleep

// openPG opens the pool and pings it with exponential backoff before publishing it
func openPG(ctx context.Context, cfg Config, s *Store) (*pg.PG, error) {
	var mut func(*pgxpool.Config)
	if cfg.PG.LogSQL || cfg.AppName != "" {
		mut = func(pc *pgxpool.Config) {
			if cfg.PG.LogSQL {
				pc.ConnConfig.Tracer = pg.Tracer(s.Log, cfg.PG.SlowQueryMs)
			}
			if cfg.AppName != "" {
				if pc.ConnConfig.RuntimeParams == nil {
					pc.ConnConfig.RuntimeParams = map[string]string{}
				}
				pc.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
			}
		}
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, mut)
	if err != nil {
		return nil, err
	}

	maxAttempts := cfg.PG.ConnectRetries
	if maxAttempts <= 0 {
		maxAttempts = 6
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return p, nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		s.Log.Warn().Err(lastErr).Int("attempt", i+1).Dur("backoff", backoff).Msg("postgres not ready")
		sleep(backoff)
		backoff = min(backoff*2, backoffCeiling)
	}

	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", maxAttempts, lastErr)
}
