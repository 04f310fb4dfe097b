package pg

import (
	"context"
	"time"

	"mintwatch/internal/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type traceKey struct{}

type traceStart struct {
	sql   string
	args  []any
	start time.Time
}

// Tracer returns a pgx.QueryTracer that ALWAYS prints SQL, independent of the root level
// queries at or above slowMs are logged at warn
func Tracer(root logger.Logger, slowMs int) pgx.QueryTracer {
	ll := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return &zlTracer{log: ll, slow: time.Duration(slowMs) * time.Millisecond, now: time.Now}
}

type zlTracer struct {
	log  logger.Logger
	slow time.Duration
	now  func() time.Time
}

func (z *zlTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: data.SQL, args: data.Args, start: z.now()})
}

func (z *zlTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	st, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	elapsed := z.now().Sub(st.start)
	slow := z.slow > 0 && elapsed >= z.slow

	evt := z.log.Info()
	if slow {
		evt = z.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000.0).
		Bool("slow", slow).
		Str("sql", compact(st.sql)).
		Interface("args", st.args).
		Err(data.Err).
		Msg("pg query")
}

func compact(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || r == ' ' {
			if !space && len(out) > 0 {
				out = append(out, ' ')
				space = true
			}
			continue
		}
		space = false
		out = append(out, r)
	}
	if n := len(out); n > 0 && out[n-1] == ' ' {
		out = out[:n-1]
	}
	return string(out)
}
