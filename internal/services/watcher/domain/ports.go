package domain

import "context"

// Extractor turns a transaction signature into a mint address
// Extract never returns an error: every failure is logged by the implementation and reported as ok=false
type Extractor interface {
	Variant() Variant
	SourceURL(signature string) string
	Extract(ctx context.Context, signature string) (mint string, ok bool)
}

// Subscription is one live logsSubscribe stream
// Next blocks until the next log notification; any error is terminal
type Subscription interface {
	Next(ctx context.Context) (RawLogEvent, error)
	Close() error
}

// Subscriber opens subscriptions for a watched account
type Subscriber interface {
	Subscribe(ctx context.Context, account, commitment string) (Subscription, error)
}

// RecordStore persists ResultRecords in append order
type RecordStore interface {
	Append(ctx context.Context, rec ResultRecord) error
	List(ctx context.Context) ([]ResultRecord, error)
}

// WorkerPort runs the long-lived pipeline until the subscription ends or ctx is cancelled
type WorkerPort interface {
	Run(ctx context.Context) error
}

// StatsPort exposes pipeline counters
type StatsPort interface {
	Stats() Stats
}

// ReaderPort reads persisted records
type ReaderPort interface {
	Records(ctx context.Context) ([]ResultRecord, error)
}
