// internal/config/model.go
//
// Typed configuration model for shortly.
//
// Context
// -------
// These structs define the configuration tree that `loader.go` builds from
// three overlay layers:
//
//   • optional `conf/.env`                      – dotenv values,
//   • optional `conf/global.yaml`               – primary static file,
//   • `SHORTLY_`-prefixed environment overrides – highest precedence.
//
// String values beginning with `vault:` (api.token, history.dsn) are left
// as-is here and resolved by cmd/web through internal/vault, so secrets never
// need to live in flat files.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`.  Durations accept Go syntax ("2s", "30m").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	CSRFKey      string        `koanf:"csrf_key"`
	CookieName   string        `koanf:"cookie_name"   validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
}

//
// Upstream API section
//

// API points at the remote shortening / QR service.
type API struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	QRPath  string `koanf:"qr_path"  validate:"required,startswith=/"`
	Token   string `koanf:"token"`
}

//
// Presentation section
//

// Notify controls toast lifetime.
type Notify struct {
	Duration time.Duration `koanf:"duration" validate:"gt=0"`
}

//
// Session section
//

// Sessions bounds the per-visitor workspace store.
type Sessions struct {
	IdleTTL       time.Duration `koanf:"idle_ttl"       validate:"gt=0"`
	MaxEntries    int           `koanf:"max_entries"    validate:"gte=0"`
	EvictInterval time.Duration `koanf:"evict_interval" validate:"gt=0"`
}

//
// Optional integrations
//

// History enables the MySQL link history when DSN is non-empty.
type History struct {
	DSN string `koanf:"dsn"`
}

// GeoIP enables request geolocation when DBPath is non-empty.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

// Log sets the log directory.  Relative paths are resolved against Root.
type Log struct {
	Dir string `koanf:"dir"`
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	API      API      `koanf:"api"`
	Notify   Notify   `koanf:"notify"`
	Sessions Sessions `koanf:"sessions"`
	History  History  `koanf:"history"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}

// applyDefaults fills zero values with production defaults.
func applyDefaults(c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.HTTP.CookieName == "" {
		c.HTTP.CookieName = "shortly_session"
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 60 * time.Second
	}
	if c.API.QRPath == "" {
		c.API.QRPath = "/qr"
	}
	if c.Notify.Duration == 0 {
		c.Notify.Duration = 2 * time.Second
	}
	if c.Sessions.IdleTTL == 0 {
		c.Sessions.IdleTTL = 30 * time.Minute
	}
	if c.Sessions.MaxEntries == 0 {
		c.Sessions.MaxEntries = 10000
	}
	if c.Sessions.EvictInterval == 0 {
		c.Sessions.EvictInterval = time.Minute
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
}
