package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/yanizio/shortly/internal/logger"
)

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := clientIP(r).String(); got != "10.0.0.9" {
		t.Fatalf("remote addr ip = %s", got)
	}

	r.Header.Set("X-Real-Ip", "198.51.100.7")
	if got := clientIP(r).String(); got != "198.51.100.7" {
		t.Fatalf("x-real-ip = %s", got)
	}

	r.Header.Set("X-Forwarded-For", "garbage, 203.0.113.5, 10.0.0.1")
	if got := clientIP(r).String(); got != "203.0.113.5" {
		t.Fatalf("x-forwarded-for = %s", got)
	}
}

func TestPrimaryLang(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"en-CA,en;q=0.9,fr;q=0.8": "en-ca",
		"FR;q=0.7":                "fr",
	}
	for in, want := range cases {
		if got := primaryLang(in); got != want {
			t.Errorf("primaryLang(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnrichAttachesInfoAndLogger(t *testing.T) {
	var (
		info   *RequestInfo
		hasLog bool
	)
	h := Enrich(zap.NewNop().Sugar(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info = FromContext(r.Context())
		hasLog = logger.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	if info == nil || info.UA.Browser != "Firefox" || info.PrimaryLang != "de-de" {
		t.Fatalf("info = %+v", info)
	}
	if !hasLog {
		t.Fatalf("request logger missing")
	}
}

func TestNilGeoDB(t *testing.T) {
	var g *GeoDB
	if geo := g.Lookup(nil); geo.CountryISO != "" {
		t.Fatalf("nil db returned data")
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
}
