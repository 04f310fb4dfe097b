package module

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mintwatch/internal/modkit"
	modreg "mintwatch/internal/modkit/module"
	"mintwatch/internal/platform/config"
	perr "mintwatch/internal/platform/errors"
	"mintwatch/internal/platform/testkit"
	"mintwatch/internal/services/watcher/domain"
	"mintwatch/internal/services/watcher/service"

	"github.com/prometheus/client_golang/prometheus"
)

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New()).apply(Options{})
	if o.Endpoint != "wss://api.mainnet-beta.solana.com" ||
		o.Account != "TSLvdd1pWpHVjahSpsvCXUbgwsL3JAcvokwaKt1eokM" ||
		o.Commitment != domain.CommitmentProcessed ||
		o.Variant != domain.VariantSolanaExplorer ||
		o.ExtractionTimeout != 20*time.Second ||
		o.NavigateTimeout != 45*time.Second ||
		o.StoreBackend != BackendFile ||
		o.StorePath != "./data.json" ||
		o.MaxInFlight != 4 ||
		o.LogMarker != service.DefaultLogMarker ||
		!o.BrowserHeadless {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("WATCHER_WS_ENDPOINT", "ws://127.0.0.1:8900")
	t.Setenv("WATCHER_COMMITMENT", "Confirmed")
	t.Setenv("WATCHER_VARIANT", "solscan")
	t.Setenv("WATCHER_EXTRACTION_TIMEOUT_MS", "1500")
	t.Setenv("WATCHER_MAX_INFLIGHT", "0")
	t.Setenv("WATCHER_BROWSER_HEADLESS", "false")

	o := FromConfig(config.New()).apply(Options{})
	if o.Endpoint != "ws://127.0.0.1:8900" || o.Commitment != "confirmed" || o.Variant != domain.VariantSolscan {
		t.Fatalf("options = %+v", o)
	}
	if o.ExtractionTimeout != 1500*time.Millisecond || o.MaxInFlight != 0 || o.BrowserHeadless {
		t.Fatalf("options = %+v", o)
	}
	if o.StorePath != "./dataSOLSCAN.json" {
		t.Fatalf("solscan default path = %q", o.StorePath)
	}
}

func TestFromConfig_InvalidEnumPanics(t *testing.T) {
	t.Setenv("WATCHER_VARIANT", "etherscan")
	testkit.MustPanic(t, func() { FromConfig(config.New()) })
}

func TestApply_OverridesWin(t *testing.T) {
	base := Options{Variant: domain.VariantSolanaExplorer, StoreBackend: BackendFile, MaxInFlight: 4}
	o := base.apply(Options{Variant: domain.VariantSolscan, StorePath: "/tmp/x.json", MaxInFlight: 8})
	if o.Variant != domain.VariantSolscan || o.StorePath != "/tmp/x.json" || o.MaxInFlight != 8 {
		t.Fatalf("apply = %+v", o)
	}
}

func TestApply_VariantOverrideOverEnv(t *testing.T) {
	t.Setenv("WATCHER_VARIANT", "solana-explorer")

	o := FromConfig(config.New()).apply(Options{Variant: domain.VariantSolscan})
	if o.Variant != domain.VariantSolscan {
		t.Fatalf("variant = %q", o.Variant)
	}
	if o.StorePath != "./dataSOLSCAN.json" {
		t.Fatalf("store path should follow the overriding variant, got %q", o.StorePath)
	}

	t.Setenv("WATCHER_STORE_PATH", "/var/lib/env.json")
	o = FromConfig(config.New()).apply(Options{Variant: domain.VariantSolscan})
	if o.StorePath != "/var/lib/env.json" {
		t.Fatalf("env store path should survive a variant override, got %q", o.StorePath)
	}
}

func TestNew_FileBackendExposesPorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	m, err := New(context.Background(), modkit.Deps{Cfg: config.New(), Metrics: prometheus.NewRegistry()}, Options{StorePath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Name() != "watcher" || m.Options().StorePath != path {
		t.Fatalf("module = %s %+v", m.Name(), m.Options())
	}

	worker := modreg.MustPortsOf[domain.WorkerPort](m)
	reader := modreg.MustPortsOf[domain.ReaderPort](m)
	_ = modreg.MustPortsOf[domain.StatsPort](m)
	if worker == nil {
		t.Fatalf("nil worker")
	}
	recs, err := reader.Records(context.Background())
	if err != nil || len(recs) != 0 {
		t.Fatalf("Records on a fresh store = %v, %v", recs, err)
	}
}

func TestNew_InvalidAccount(t *testing.T) {
	t.Setenv("WATCHER_ACCOUNT", "not-a-key")
	_, err := New(context.Background(), modkit.Deps{Cfg: config.New()}, Options{StorePath: filepath.Join(t.TempDir(), "x.json")})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestNew_PGBackendWithoutStore(t *testing.T) {
	_, err := New(context.Background(), modkit.Deps{Cfg: config.New()}, Options{StoreBackend: BackendPG})
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
}
