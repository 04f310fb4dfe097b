// Package explorer extracts mint addresses from block explorer transaction pages
package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mintwatch/internal/adapters/browser"
	perr "mintwatch/internal/platform/errors"
	"mintwatch/internal/platform/logger"
	"mintwatch/internal/services/watcher/domain"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds the wait for the page marker
	DefaultTimeout = 20 * time.Second
	// DefaultNavigateTimeout bounds the page load
	DefaultNavigateTimeout = 45 * time.Second
)

// Options configures a Strategy
type Options struct {
	Timeout         time.Duration
	NavigateTimeout time.Duration
}

// page describes one explorer site
type page struct {
	variant domain.Variant
	marker  string
	url     func(signature string) string
	read    func(ctx context.Context, s browser.Session) (string, error)
}

// Strategy is a domain.Extractor backed by a browser session per call
type Strategy struct {
	page   page
	opener browser.Opener
	opts   Options
	newID  func() string
}

var _ domain.Extractor = (*Strategy)(nil)

// New returns the strategy for variant
func New(variant domain.Variant, opener browser.Opener, o Options) (*Strategy, error) {
	var p page
	switch variant {
	case domain.VariantSolanaExplorer:
		p = solanaExplorer()
	case domain.VariantSolscan:
		p = solscan()
	default:
		return nil, perr.InvalidArgf("unknown extraction variant %q", variant)
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = DefaultNavigateTimeout
	}
	return &Strategy{page: p, opener: opener, opts: o, newID: uuid.NewString}, nil
}

// Variant names the strategy
func (s *Strategy) Variant() domain.Variant { return s.page.variant }

// SourceURL is the transaction page the strategy reads
func (s *Strategy) SourceURL(signature string) string { return s.page.url(signature) }

// Extract loads the transaction page and reads the mint from it
// every failure is logged and reported as ok=false
func (s *Strategy) Extract(ctx context.Context, signature string) (string, bool) {
	ctx = logger.WithExtraction(ctx, s.newID(), signature)
	url := s.page.url(signature)
	log := logger.C(ctx).With().Str("variant", string(s.page.variant)).Str("url", url).Logger()

	start := time.Now()
	mint, err := s.extract(ctx, url)
	took := time.Since(start)

	if err != nil {
		switch perr.CodeOf(err) {
		case perr.ErrorCodeTimeout:
			log.Info().Err(err).Dur("took", took).Msg("marker not found before timeout")
		case perr.ErrorCodeParse:
			log.Warn().Err(err).Dur("took", took).Msg("could not read mint from page")
		default:
			log.Error().Err(err).Dur("took", took).Msg("extraction failed")
		}
		return "", false
	}
	log.Info().Str("mint", mint).Dur("took", took).Msg("mint extracted")
	return mint, true
}

func (s *Strategy) extract(ctx context.Context, url string) (mint string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = perr.PanicErrf("browser panic: %v", r)
		}
	}()

	sess, err := s.opener.Open(ctx)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "open browser session")
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.C(ctx).Debug().Err(cerr).Msg("browser session close")
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigateTimeout)
	err = sess.Navigate(navCtx, url)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", perr.Wrap(err, perr.ErrorCodeTimeout, "navigate")
		}
		return "", perr.Wrap(err, perr.ErrorCodeTransport, "navigate")
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	err = sess.WaitFor(waitCtx, s.page.marker)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", perr.Wrapf(err, perr.ErrorCodeTimeout, "wait for %s after %s", s.page.marker, s.opts.Timeout)
		}
		return "", perr.Wrapf(err, perr.ErrorCodeTransport, "wait for %s", s.page.marker)
	}

	return s.page.read(ctx, sess)
}

func errRead(err error, what string) error {
	return perr.Wrap(err, perr.ErrorCodeTransport, fmt.Sprintf("read %s", what))
}
