package http_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "mintwatch/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestNewServer_OptionsAndRouter(t *testing.T) {
	optCalled := false
	srv := phttp.NewServer(":0", func(*chi.Mux) { optCalled = true })
	if !optCalled {
		t.Fatalf("expected NewServer option to be called")
	}
	if srv.Addr() != ":0" {
		t.Fatalf("addr = %q", srv.Addr())
	}

	r := srv.Router()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-MW", "yes")
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })
	r.Head("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Group(func(g phttp.Router) {
		g.Get("/group", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "g") })
	})
	r.Route("/v1", func(v phttp.Router) {
		v.Get("/x", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "x") })
	})
	r.Handle("/raw", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "raw") }))

	cases := []struct {
		method, path, body string
		code               int
	}{
		{"GET", "/ping", "pong", http.StatusOK},
		{"HEAD", "/ping", "", http.StatusNoContent},
		{"GET", "/group", "g", http.StatusOK},
		{"GET", "/v1/x", "x", http.StatusOK},
		{"GET", "/raw", "raw", http.StatusOK},
		{"GET", "/nope", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.code {
			t.Fatalf("%s %s: status %d want %d", tc.method, tc.path, rec.Code, tc.code)
		}
		if tc.body != "" && rec.Body.String() != tc.body {
			t.Fatalf("%s %s: body %q want %q", tc.method, tc.path, rec.Body.String(), tc.body)
		}
		if tc.code == http.StatusOK && rec.Header().Get("X-MW") != "yes" {
			t.Fatalf("%s %s: middleware not applied", tc.method, tc.path)
		}
	}
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	srv := phttp.NewServer("127.0.0.1:0")
	srv.Router().Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
}

func TestServer_RunListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	srv := phttp.NewServer(ln.Addr().String())
	if err := srv.Run(context.Background()); err == nil {
		t.Fatalf("expected address in use error")
	}
}
