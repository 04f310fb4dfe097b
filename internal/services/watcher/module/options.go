package module

import (
	"time"

	"mintwatch/internal/platform/config"
	"mintwatch/internal/services/watcher/domain"
	"mintwatch/internal/services/watcher/service"
)

// store backends
const (
	BackendFile = "file"
	BackendPG   = "pg"
)

const (
	defaultEndpoint        = "wss://api.mainnet-beta.solana.com"
	defaultAccount         = "TSLvdd1pWpHVjahSpsvCXUbgwsL3JAcvokwaKt1eokM"
	defaultExtractTimeout  = 20 * time.Second
	defaultNavigateTimeout = 45 * time.Second
	defaultMaxInFlight     = 4
)

// DefaultStorePath is the file a variant writes to when no path is configured
func DefaultStorePath(v domain.Variant) string {
	if v == domain.VariantSolscan {
		return "./dataSOLSCAN.json"
	}
	return "./data.json"
}

// Options controls the watcher
type Options struct {
	Endpoint          string         `validate:"required,url"`
	Account           string         `validate:"required,solpubkey"`
	Commitment        string         `validate:"oneof=processed confirmed finalized"`
	Variant           domain.Variant `validate:"oneof=solana-explorer solscan"`
	ExtractionTimeout time.Duration  `validate:"gt=0"`
	NavigateTimeout   time.Duration  `validate:"gt=0"`
	StoreBackend      string         `validate:"oneof=file pg"`
	StorePath         string         `validate:"required_if=StoreBackend file"`
	MaxInFlight       int            `validate:"gte=0"`
	LogMarker         string         `validate:"required"`

	BrowserHeadless bool
	BrowserExecPath string
}

// FromConfig reads with WATCHER_ prefix
// a missing store path resolves to the variant default
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("WATCHER_")
	o := Options{
		Endpoint: c.MayURL("WS_ENDPOINT", defaultEndpoint).String(),
		Account:  c.MayString("ACCOUNT", defaultAccount),
		Commitment: c.MayEnum("COMMITMENT", domain.CommitmentProcessed,
			domain.CommitmentProcessed, domain.CommitmentConfirmed, domain.CommitmentFinalized),
		Variant: domain.Variant(c.MayEnum("VARIANT", string(domain.VariantSolanaExplorer),
			string(domain.VariantSolanaExplorer), string(domain.VariantSolscan))),
		ExtractionTimeout: c.MayMillis("EXTRACTION_TIMEOUT_MS", defaultExtractTimeout),
		NavigateTimeout:   c.MayDuration("NAVIGATE_TIMEOUT", defaultNavigateTimeout),
		StoreBackend:      c.MayEnum("STORE_BACKEND", BackendFile, BackendFile, BackendPG),
		StorePath:         c.MayString("STORE_PATH", ""),
		MaxInFlight:       c.MayInt("MAX_INFLIGHT", defaultMaxInFlight),
		LogMarker:         c.MayString("LOG_MARKER", service.DefaultLogMarker),
		BrowserHeadless:   c.MayBool("BROWSER_HEADLESS", true),
		BrowserExecPath:   c.MayString("BROWSER_EXEC_PATH", ""),
	}
	return o
}

// apply layers non-zero overrides on o and fills derived defaults
func (o Options) apply(over Options) Options {
	if over.Variant != "" {
		o.Variant = over.Variant
	}
	if over.StorePath != "" {
		o.StorePath = over.StorePath
	}
	if over.StoreBackend != "" {
		o.StoreBackend = over.StoreBackend
	}
	if over.MaxInFlight != 0 {
		o.MaxInFlight = over.MaxInFlight
	}
	if o.StoreBackend == BackendFile && o.StorePath == "" {
		o.StorePath = DefaultStorePath(o.Variant)
	}
	return o
}
