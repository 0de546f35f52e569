package ua

import "testing"

func TestParseDesktopChrome(t *testing.T) {
	got := Parse("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.6422.60 Safari/537.36")
	if got.Browser != "Chrome" || got.OS != "macOS" || got.Device != "Desktop" || got.IsBot {
		t.Fatalf("unexpected info: %+v", got)
	}
	if got.Version == "" {
		t.Fatalf("browser version not parsed")
	}
}

func TestParseBot(t *testing.T) {
	got := Parse("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	if !got.IsBot || got.Device != "Bot" {
		t.Fatalf("bot not detected: %+v", got)
	}
}

func TestSummary(t *testing.T) {
	i := Info{Browser: "Firefox", Version: "128", OS: "Linux", Device: "Desktop"}
	if s := i.Summary(); s != "Firefox 128 / Linux / Desktop" {
		t.Fatalf("Summary = %q", s)
	}
}
