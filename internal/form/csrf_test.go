// internal/form/csrf_test.go
//
// Unit-tests for stateless CSRF tokens.

package form

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func testKeyring(t *testing.T, at time.Time) *Keyring {
	t.Helper()
	key := base64.RawURLEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	k, err := NewKeyring(key)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	k.now = func() time.Time { return at }
	return k
}

func TestCSRFRoundTrip(t *testing.T) {
	issued := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	k := testKeyring(t, issued)

	tok, err := k.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if !k.VerifyToken(tok) {
		t.Fatalf("fresh token rejected")
	}

	k.now = func() time.Time { return issued.Add(MaxAge + time.Second) }
	if k.VerifyToken(tok) {
		t.Fatalf("expired token accepted")
	}
}

func TestCSRFRejectsTampering(t *testing.T) {
	k := testKeyring(t, time.Now())
	tok, _ := k.GenerateToken()

	raw, _ := base64.RawURLEncoding.DecodeString(tok)
	raw[0] ^= 0xff
	if k.VerifyToken(base64.RawURLEncoding.EncodeToString(raw)) {
		t.Fatalf("tampered token accepted")
	}
	if k.VerifyToken("") || k.VerifyToken("!!!") {
		t.Fatalf("garbage token accepted")
	}

	other := testKeyring(t, time.Now())
	other.secret = []byte(strings.Repeat("z", 32))
	if other.VerifyToken(tok) {
		t.Fatalf("token verified under a different key")
	}
}

func TestNewKeyringRejectsShortKey(t *testing.T) {
	if _, err := NewKeyring(base64.RawURLEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Fatalf("expected error for short key")
	}
	if _, err := NewKeyring(""); err != nil {
		t.Fatalf("ephemeral keyring: %v", err)
	}
}
