package service

import (
	"context"
	"errors"
	"time"

	perr "mintwatch/internal/platform/errors"
	"mintwatch/internal/platform/validate"
	dom "mintwatch/internal/services/watcher/domain"
)

func validateRecord(v any) error { return validate.Struct(v) }

// Run subscribes and processes notifications until the stream fails or ctx is cancelled
// it waits for every admitted extraction before returning
// a cancelled ctx returns nil; a transport failure is returned as is
func (s *Svc) Run(ctx context.Context) error {
	sub, err := s.sub.Subscribe(ctx, s.cfg.Account, s.cfg.Commitment)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sub.Close(); cerr != nil {
			s.log.Debug().Err(cerr).Msg("subscription close")
		}
	}()

	s.log.Info().
		Str("account", s.cfg.Account).
		Str("commitment", s.cfg.Commitment).
		Int("max_inflight", s.cfg.MaxInFlight).
		Msg("watching logs")

	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			s.log.Info().Msg("waiting for in-flight extractions")
			s.inflight.Wait()
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				s.log.Info().Msg("watcher stopped")
				return nil
			}
			s.log.Error().Err(err).Msg("subscription ended")
			return err
		}
		s.handle(ev)
	}
}

// handle applies the filter and spawns an extraction for relevant events
// it never blocks on admission so delivery keeps flowing
func (s *Svc) handle(ev dom.RawLogEvent) {
	s.counters.seen.Add(1)
	s.metrics.Events.Inc()

	if !matches(ev, s.cfg.LogMarker) {
		return
	}
	s.counters.relevant.Add(1)
	s.metrics.Relevant.Inc()
	s.log.Info().Str("signature", ev.Signature).Uint64("slot", ev.Slot).Msg("creation seen")

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		// extractions outlive the run context; only their own timeouts bound them
		s.process(context.Background(), ev.Signature)
	}()
}

func (s *Svc) process(ctx context.Context, signature string) {
	if s.sem != nil {
		s.sem <- struct{}{}
		defer func() { <-s.sem }()
	}
	s.counters.inFlight.Add(1)
	s.metrics.InFlight.Inc()
	defer func() {
		s.counters.inFlight.Add(-1)
		s.metrics.InFlight.Dec()
	}()

	variant := string(s.ext.Variant())
	start := time.Now()
	mint, ok := s.ext.Extract(ctx, signature)
	s.metrics.ExtractionTime.WithLabelValues(variant).Observe(time.Since(start).Seconds())

	log := s.log.With().Str("signature", signature).Logger()
	if !ok {
		s.absent(variant)
		log.Info().Msg("no mint address, dropping")
		return
	}

	rec := dom.NewRecord(s.ext.SourceURL(signature), signature, mint, s.now())
	if err := s.validate(rec); err != nil {
		s.absent(variant)
		log.Warn().Err(err).Str("mint", mint).Msg("record rejected")
		return
	}
	s.counters.found.Add(1)
	s.metrics.Extractions.WithLabelValues(variant, outcomeFound).Inc()

	if err := s.store.Append(ctx, rec); err != nil {
		s.counters.storeErrs.Add(1)
		s.metrics.StoreErrors.Inc()
		evt := log.Error()
		if perr.IsCode(err, perr.ErrorCodeCorrupt) {
			evt = evt.Bool("corrupt", true)
		}
		evt.Err(err).Str("mint", mint).Msg("append failed")
		return
	}
	s.counters.appended.Add(1)
	s.metrics.RecordsAppended.Inc()
	log.Info().Str("mint", mint).Str("source_url", rec.SourceURL).Msg("record appended")
}

func (s *Svc) absent(variant string) {
	s.counters.absent.Add(1)
	s.metrics.Extractions.WithLabelValues(variant, outcomeAbsent).Inc()
}
