// internal/apiclient/client_test.go
//
// Unit-tests for the API adapter against httptest servers.
//
// Covered behaviours:
//
//   • request bodies and paths for every operation,
//   • both QR response shapes,
//   • error normalisation precedence (server message, transport text,
//     generic fallback),
//   • programming errors passing through unwrapped.

package apiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, Token: "tok"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func intPtr(i int) *int { return &i }

func TestShortenURL(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/url/shorten" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"shortUrl":"https://sho.rt/abc","originalUrl":"https://a.co","expireAt":"2026-10-18T00:00:00Z"}`)
	})

	link, err := c.ShortenURL(context.Background(), ShortenRequest{
		OriginalURL:     "https://a.co",
		CustomAlias:     "abc",
		ExpireAfterDays: intPtr(1),
	})
	if err != nil {
		t.Fatalf("ShortenURL: %v", err)
	}

	want := ShortenedLink{ShortURL: "https://sho.rt/abc", OriginalURL: "https://a.co", ExpireAt: "2026-10-18T00:00:00Z"}
	if diff := cmp.Diff(want, link); diff != "" {
		t.Fatalf("link (-want +got):\n%s", diff)
	}
	wantBody := map[string]any{"originalUrl": "https://a.co", "customAlias": "abc", "expireAfterDays": float64(1)}
	if diff := cmp.Diff(wantBody, gotBody); diff != "" {
		t.Fatalf("request body (-want +got):\n%s", diff)
	}
}

func TestShortenURLOmitsOptionalFields(t *testing.T) {
	var raw []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"shortUrl":"https://sho.rt/x","originalUrl":"https://a.co","expireAt":""}`)
	})
	if _, err := c.ShortenURL(context.Background(), ShortenRequest{OriginalURL: "https://a.co"}); err != nil {
		t.Fatalf("ShortenURL: %v", err)
	}
	if string(raw) != `{"originalUrl":"https://a.co"}` {
		t.Fatalf("body = %s", raw)
	}
}

func TestGenerateQRCodeHostedShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/qr" {
			t.Errorf("path = %s, want /qr", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if v, ok := body["logoUrl"]; !ok || v != nil {
			t.Errorf("logoUrl should be an explicit null, got %v (present=%v)", v, ok)
		}
		_, _ = io.WriteString(w, `{"success":true,"qrCodeUrl":"https://cdn.example/qr.png"}`)
	})

	qr, err := c.GenerateQRCode(context.Background(), QRRequest{URL: "https://a.co", Width: 200, Height: 200})
	if err != nil {
		t.Fatalf("GenerateQRCode: %v", err)
	}
	if qr.Embedded() || qr.ImageURL != "https://cdn.example/qr.png" || !qr.Success {
		t.Fatalf("unexpected result %+v", qr)
	}
}

func TestGenerateQRCodeEmbeddedShape(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	for name, data := range map[string]string{
		"bare base64": base64.StdEncoding.EncodeToString(png),
		"data uri":    "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
			})
			qr, err := c.GenerateQRCode(context.Background(), QRRequest{URL: "https://a.co"})
			if err != nil {
				t.Fatalf("GenerateQRCode: %v", err)
			}
			if !bytes.Equal(qr.Image, png) || qr.ContentType != "image/png" {
				t.Fatalf("image = %q (%s)", qr.Image, qr.ContentType)
			}
		})
	}
}

func TestGenerateQRCodeCustomPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/dynamic/qr" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"success":true,"qrCodeUrl":"u"}`)
	}))
	defer srv.Close()

	c, _ := New(Options{BaseURL: srv.URL + "/v2/", QRPath: "/dynamic/qr"})
	if _, err := c.GenerateQRCode(context.Background(), QRRequest{}); err != nil {
		t.Fatalf("GenerateQRCode: %v", err)
	}
}

func TestFetchQRImage(t *testing.T) {
	gif := []byte("GIF89a\x01\x00\x01\x00")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/qr/image" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(gif)
	})
	img, err := c.FetchQRImage(context.Background(), QRRequest{URL: "https://a.co"})
	if err != nil {
		t.Fatalf("FetchQRImage: %v", err)
	}
	if !bytes.Equal(img.Data, gif) || img.ContentType != "image/gif" {
		t.Fatalf("image = %q (%s)", img.Data, img.ContentType)
	}
}

func TestFetchAnalyticsPassThrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.EscapedPath() != "/analytics/abc" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.EscapedPath())
		}
		_, _ = io.WriteString(w, `{"clicks":42,"byCountry":{"CA":40}}`)
	})
	got, err := c.FetchAnalytics(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FetchAnalytics: %v", err)
	}
	if string(got) != `{"clicks":42,"byCountry":{"CA":40}}` {
		t.Fatalf("analytics = %s", got)
	}
}

func TestErrorPrefersServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"alias taken"}`)
	})
	_, err := c.ShortenURL(context.Background(), ShortenRequest{OriginalURL: "https://a.co"})

	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("want *Error, got %T (%v)", err, err)
	}
	if ae.Message != "alias taken" || ae.Status != http.StatusConflict || ae.Op != OpShorten {
		t.Fatalf("unexpected error %+v", ae)
	}
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("status error not wrapped")
	}
}

func TestErrorFallsBackToGeneric(t *testing.T) {
	for name, body := range map[string]string{
		"empty":    "",
		"html":     "<h1>Bad Gateway</h1>",
		"no field": `{"error":"nope"}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, body)
			})
			_, err := c.ShortenURL(context.Background(), ShortenRequest{OriginalURL: "https://a.co"})
			var ae *Error
			if !errors.As(err, &ae) || ae.Message != GenericMessage {
				t.Fatalf("got %v, want %q", err, GenericMessage)
			}
		})
	}
}

func TestErrorUsesTransportMessage(t *testing.T) {
	// Grab a free port and close it so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c, _ := New(Options{BaseURL: "http://" + addr})
	_, err = c.ShortenURL(context.Background(), ShortenRequest{OriginalURL: "https://a.co"})

	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("want *Error, got %T", err)
	}
	if ae.Status != 0 || ae.Message == GenericMessage || ae.Message == "" {
		t.Fatalf("expected transport text, got %+v", ae)
	}
}

func TestMalformedBodyIsAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true}`)
	})
	_, err := c.GenerateQRCode(context.Background(), QRRequest{})
	if !IsAPIError(err) || !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("want malformed *Error, got %v", err)
	}
	if err.Error() != GenericMessage {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestUnsuccessfulQRUsesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"url blocked"}`)
	})
	_, err := c.GenerateQRCode(context.Background(), QRRequest{})
	if !IsAPIError(err) || err.Error() != "url blocked" {
		t.Fatalf("got %v", err)
	}
}

func TestProgrammingErrorsPassThrough(t *testing.T) {
	c, _ := New(Options{BaseURL: "http://example.invalid"})

	// A nil context makes request construction fail before any I/O.
	var ctx context.Context
	_, err := c.ShortenURL(ctx, ShortenRequest{OriginalURL: "https://a.co"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if IsAPIError(err) {
		t.Fatalf("programming error was normalised: %v", err)
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	for _, base := range []string{"", "api.example.com", "/api"} {
		if _, err := New(Options{BaseURL: base}); !errors.Is(err, ErrBaseURL) {
			t.Errorf("base %q: err = %v", base, err)
		}
	}
}
