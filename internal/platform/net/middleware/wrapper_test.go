package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	perr "mintwatch/internal/platform/errors"
	pnet "mintwatch/internal/platform/net"
	"mintwatch/internal/platform/net/middleware"
)

func TestWrappers_ReturnHandlers(t *testing.T) {
	if middleware.RequestID() == nil ||
		middleware.RealIP() == nil ||
		middleware.Timeout(time.Second) == nil ||
		middleware.NoCache() == nil {
		t.Fatal("expected non nil handlers from wrappers")
	}
}

func TestCORS_PreflightAllowsConfiguredOrigin(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://dash.example"}})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") }),
	)

	req := httptest.NewRequest(http.MethodOptions, "/v1/records", nil)
	req.Header.Set("Origin", "https://dash.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/v1/records", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestDefaults_ChainSetsRequestIDAndRecovers(t *testing.T) {
	var seen string
	final := http.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = pnet.RequestID(r.Context())
		panic("kaboom")
	}))
	chain := middleware.Defaults(middleware.AccessLogOptions{})
	for i := len(chain) - 1; i >= 0; i-- {
		final = chain[i](final)
	}

	rr := httptest.NewRecorder()
	final.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if seen == "" {
		t.Fatalf("request id not set")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Code      perr.ErrorCode `json:"code"`
		RequestID string         `json:"request_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Code != perr.ErrorCodePanic || body.RequestID != seen {
		t.Fatalf("body = %+v, seen %q", body, seen)
	}
}
