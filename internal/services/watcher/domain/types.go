// Package domain defines the types and ports of the mint watcher
package domain

import (
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision, e.g. 2024-05-01T12:00:00.000Z
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// RawLogEvent is one logsNotification value as delivered by the subscription
type RawLogEvent struct {
	Signature string
	Logs      []string
	Err       any // nil when the transaction succeeded
	Slot      uint64
}

// ResultRecord is the persisted outcome of a successful extraction
type ResultRecord struct {
	SourceURL   string `json:"sourceUrl" validate:"required"`
	Signature   string `json:"signature"`
	MintAddress string `json:"mintAddress" validate:"required"`
	Timestamp   string `json:"timestamp" validate:"required"`
}

// NewRecord builds a record stamped with at (converted to UTC)
func NewRecord(sourceURL, signature, mint string, at time.Time) ResultRecord {
	return ResultRecord{
		SourceURL:   sourceURL,
		Signature:   signature,
		MintAddress: mint,
		Timestamp:   at.UTC().Format(TimestampLayout),
	}
}

// Variant names an extraction strategy
type Variant string

const (
	// VariantSolanaExplorer reads the JSON instruction panel on explorer.solana.com
	VariantSolanaExplorer Variant = "solana-explorer"
	// VariantSolscan scans token links on solscan.io
	VariantSolscan Variant = "solscan"
)

// Commitment levels accepted by logsSubscribe
const (
	CommitmentProcessed = string(rpc.CommitmentProcessed)
	CommitmentConfirmed = string(rpc.CommitmentConfirmed)
	CommitmentFinalized = string(rpc.CommitmentFinalized)
)

// Stats is a point-in-time view of pipeline counters
type Stats struct {
	EventsSeen        uint64 `json:"events_seen"`
	EventsRelevant    uint64 `json:"events_relevant"`
	ExtractionsOK     uint64 `json:"extractions_ok"`
	ExtractionsAbsent uint64 `json:"extractions_absent"`
	RecordsAppended   uint64 `json:"records_appended"`
	StoreErrors       uint64 `json:"store_errors"`
	InFlight          int64  `json:"in_flight"`
}
