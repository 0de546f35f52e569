package vault

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mapGetter map[string]string

func (m mapGetter) GetKV(_ context.Context, path, key string, _ time.Duration) (string, error) {
	v, ok := m[path+"#"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("vault:secret/shortly#api_token")
	if err != nil {
		t.Fatalf("ParseRef: %v", err)
	}
	if ref.Path != "secret/shortly" || ref.Key != "api_token" {
		t.Fatalf("ref = %+v", ref)
	}

	for _, bad := range []string{"vault:secret/shortly", "vault:#k", "vault:secret#k", "secret/shortly#k"} {
		if _, err := ParseRef(bad); !errors.Is(err, ErrBadRef) {
			t.Errorf("ParseRef(%q) err = %v", bad, err)
		}
	}
}

func TestResolve(t *testing.T) {
	g := mapGetter{"secret/shortly#dsn": "user:pw@tcp(db:3306)/shortly"}
	ctx := context.Background()

	if got, err := Resolve(ctx, nil, "plain-token", 0); err != nil || got != "plain-token" {
		t.Fatalf("plain value = %q, %v", got, err)
	}
	if got, err := Resolve(ctx, g, "vault:secret/shortly#dsn", time.Minute); err != nil || got != "user:pw@tcp(db:3306)/shortly" {
		t.Fatalf("ref value = %q, %v", got, err)
	}
	if _, err := Resolve(ctx, nil, "vault:secret/shortly#dsn", 0); err == nil {
		t.Fatalf("reference resolved without a client")
	}
}

func TestSplitMount(t *testing.T) {
	if m, r := splitMount("secret/apps/shortly"); m != "secret" || r != "apps/shortly" {
		t.Fatalf("splitMount = %q %q", m, r)
	}
}
