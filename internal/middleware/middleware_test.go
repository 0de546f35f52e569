package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestForceHTTPSRedirects(t *testing.T) {
	h := ForceHTTPS(true)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://sho.rt/qr/download?x=1", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://sho.rt/qr/download?x=1" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestForceHTTPSPassThrough(t *testing.T) {
	cases := map[string]*http.Request{
		"localhost": httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil),
		"loopback":  httptest.NewRequest(http.MethodGet, "http://127.0.0.1:8080/", nil),
	}
	proxied := httptest.NewRequest(http.MethodGet, "http://sho.rt/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	cases["proxied"] = proxied

	for name, req := range cases {
		rec := httptest.NewRecorder()
		ForceHTTPS(true)(ok).ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("%s: status = %d", name, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	ForceHTTPS(false)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://sho.rt/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("disabled: status = %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "img-src 'self' https: data:") {
		t.Fatalf("CSP = %q", rec.Header().Get("Content-Security-Policy"))
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("X-Frame-Options missing")
	}
}
