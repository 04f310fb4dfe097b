package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "mintwatch/internal/platform/errors"
	pnet "mintwatch/internal/platform/net"
	phttp "mintwatch/internal/platform/net/http"
)

func reqWithReqID(method, path, rid string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(pnet.WithRequestID(req.Context(), rid))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestJSON_SetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.JSON(rec, http.StatusTeapot, map[string]any{"k": "v"})
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRespondOK_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.RespondOK(rec, reqWithReqID("GET", "/x", "rid-1"), map[string]any{"k": "v"})

	env := decode(t, rec)
	if env.StatusCode != http.StatusOK || env.Status != "OK" || env.RequestID != "rid-1" {
		t.Fatalf("bad envelope: %+v", env)
	}
	if m, ok := env.Data.(map[string]any); !ok || m["k"] != "v" {
		t.Fatalf("data = %#v", env.Data)
	}
}

func TestRespondError_MapsCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{perr.NotFoundf("missing"), http.StatusNotFound},
		{perr.Corruptf("bad file"), http.StatusInternalServerError},
		{perr.Transportf("socket closed"), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		phttp.RespondError(rec, reqWithReqID("GET", "/x", "rid-e"), tc.err)
		if rec.Code != tc.want {
			t.Fatalf("%v: status = %d want %d", tc.err, rec.Code, tc.want)
		}
		env := decode(t, rec)
		if env.Error == "" || env.RequestID != "rid-e" || env.Data != nil {
			t.Fatalf("%v: bad envelope %+v", tc.err, env)
		}
	}
}

func TestHandle_ReturnStyle(t *testing.T) {
	ok := phttp.Handle(func(*http.Request) phttp.Response { return phttp.OK([]int{1, 2}) })
	rec := httptest.NewRecorder()
	ok(rec, reqWithReqID("GET", "/", "r"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	bad := phttp.Handle(func(*http.Request) phttp.Response { return phttp.Error(perr.InvalidArgf("nope")) })
	rec = httptest.NewRecorder()
	bad(rec, reqWithReqID("GET", "/", "r"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := decode(t, rec); env.Code != perr.ErrorCodeInvalidArgument {
		t.Fatalf("code = %v", env.Code)
	}

	zero := phttp.Handle(func(*http.Request) phttp.Response { return phttp.Response{Body: "x"} })
	rec = httptest.NewRecorder()
	zero(rec, reqWithReqID("GET", "/", "r"))
	if rec.Code != http.StatusOK {
		t.Fatalf("zero status should default to 200, got %d", rec.Code)
	}
}

func TestJSONHandler(t *testing.T) {
	h := phttp.JSONHandler(func(*http.Request) (any, error) { return map[string]int{"n": 3}, nil })
	rec := httptest.NewRecorder()
	h(rec, reqWithReqID("GET", "/", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	h = phttp.JSONHandler(func(*http.Request) (any, error) { return nil, perr.Unavailablef("down") })
	rec = httptest.NewRecorder()
	h(rec, reqWithReqID("GET", "/", ""))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
