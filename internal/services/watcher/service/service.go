// Package service implements the mint watcher pipeline
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mintwatch/internal/platform/logger"
	dom "mintwatch/internal/services/watcher/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Service implements every port the watcher module exposes
type Service interface {
	dom.WorkerPort
	dom.StatsPort
	dom.ReaderPort
}

// Config controls the pipeline
type Config struct {
	Account    string
	Commitment string
	// LogMarker overrides DefaultLogMarker when set
	LogMarker string
	// MaxInFlight caps concurrent extractions; 0 means unbounded
	MaxInFlight int
}

// Deps are the collaborators the pipeline drives
type Deps struct {
	Subscriber dom.Subscriber
	Extractor  dom.Extractor
	Store      dom.RecordStore
	// Registry receives the pipeline metrics; nil uses a private registry
	Registry prometheus.Registerer
}

// Svc runs one subscription and its extraction tasks
type Svc struct {
	cfg     Config
	sub     dom.Subscriber
	ext     dom.Extractor
	store   dom.RecordStore
	metrics *Metrics
	log     logger.Logger

	sem      chan struct{}
	inflight sync.WaitGroup
	counters counters

	now      func() time.Time
	validate func(any) error
}

type counters struct {
	seen, relevant, found, absent, appended, storeErrs atomic.Uint64
	inFlight                                           atomic.Int64
}

var _ Service = (*Svc)(nil)

// New constructs the pipeline
func New(deps Deps, cfg Config) *Svc {
	if cfg.LogMarker == "" {
		cfg.LogMarker = DefaultLogMarker
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Svc{
		cfg:      cfg,
		sub:      deps.Subscriber,
		ext:      deps.Extractor,
		store:    deps.Store,
		metrics:  NewMetrics(reg),
		log:      logger.Named("watcher").With().Str("variant", string(deps.Extractor.Variant())).Logger(),
		now:      time.Now,
		validate: validateRecord,
	}
	if cfg.MaxInFlight > 0 {
		s.sem = make(chan struct{}, cfg.MaxInFlight)
	}
	return s
}

// Stats returns a snapshot of the pipeline counters
func (s *Svc) Stats() dom.Stats {
	return dom.Stats{
		EventsSeen:        s.counters.seen.Load(),
		EventsRelevant:    s.counters.relevant.Load(),
		ExtractionsOK:     s.counters.found.Load(),
		ExtractionsAbsent: s.counters.absent.Load(),
		RecordsAppended:   s.counters.appended.Load(),
		StoreErrors:       s.counters.storeErrs.Load(),
		InFlight:          s.counters.inFlight.Load(),
	}
}

// Records lists what the store holds
func (s *Svc) Records(ctx context.Context) ([]dom.ResultRecord, error) {
	return s.store.List(ctx)
}
