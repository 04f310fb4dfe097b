// Package browser drives headless Chrome sessions through chromedp
package browser

import (
	"context"
	"sync"

	"mintwatch/internal/platform/logger"

	"github.com/chromedp/chromedp"
)

// Session is one isolated browser tab with its own browser process
// Close must be called exactly once by the owner
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches a node or ctx ends
	WaitFor(ctx context.Context, selector string) error
	// Text returns the visible text of the first node matching selector
	Text(ctx context.Context, selector string) (string, error)
	// Attributes returns attr of every node matching selector in document order
	Attributes(ctx context.Context, selector, attr string) ([]string, error)
	Close() error
}

// Opener creates sessions
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// Options configures the Chrome process
type Options struct {
	Headless bool
	ExecPath string
	// UserAgent overrides Chrome's default when set
	UserAgent string
}

// Chrome opens a fresh Chrome process per session; nothing is pooled
type Chrome struct {
	opts Options
	log  logger.Logger
}

var _ Opener = (*Chrome)(nil)

// New returns a Chrome opener
func New(o Options) *Chrome {
	return &Chrome{opts: o, log: *logger.Named("browser")}
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if c.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.ExecPath))
	}
	if c.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.opts.UserAgent))
	}
	return opts
}

// startBrowser launches the browser bound to tab
// chromedp ties the process to the context of the first Run, so it must be tab itself
var startBrowser = func(tab context.Context) error { return chromedp.Run(tab) }

// Open starts a browser process and a tab bound to it
// the process lives until Close; ctx only bounds startup
func (c *Chrome) Open(ctx context.Context) (Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), c.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &chromeSession{tab: tabCtx, cancel: func() { cancelTab(); cancelAlloc() }}

	stop := context.AfterFunc(ctx, cancelTab)
	err := startBrowser(tabCtx)
	// false means ctx already tore the tab down
	live := stop()
	if err != nil || !live {
		_ = s.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	c.log.Debug().Msg("browser session opened")
	return s, nil
}

type chromeSession struct {
	tab    context.Context
	cancel func()
	once   sync.Once
}

// run executes actions on the tab, bounded by ctx cancellation and deadline
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithCancel(s.tab)
	if dl, ok := ctx.Deadline(); ok {
		cancel()
		opCtx, cancel = context.WithDeadline(s.tab, dl)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(opCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitFor(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *chromeSession) Text(ctx context.Context, selector string) (string, error) {
	var out string
	err := s.run(ctx, chromedp.Text(selector, &out, chromedp.ByQuery))
	return out, err
}

func (s *chromeSession) Attributes(ctx context.Context, selector, attr string) ([]string, error) {
	var all []map[string]string
	if err := s.run(ctx, chromedp.AttributesAll(selector, &all, chromedp.ByQueryAll)); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, m := range all {
		if v, ok := m[attr]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// Close tears down the tab and kills the browser process
func (s *chromeSession) Close() error {
	s.once.Do(s.cancel)
	return nil
}
