// cmd/web/main.go
//
// shortly – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load configuration (conf/.env → conf/global.yaml → SHORTLY_* env).
//
//  2. Start the daily rotating logger (tees to console when running in a
//     TTY).
//
//  3. Resolve `vault:` references in api.token and history.dsn.  The Vault
//     client is only built when a reference is present.
//
//  4. Optional integrations: MySQL link history (history.dsn) and GeoIP
//     lookups (geoip.db_path).  Either may be absent.
//
//  5. Build the upstream API client, the CSRF keyring, and the per-visitor
//     workspace store.
//
//  6. Serve until SIGINT/SIGTERM, then drain: stop accepting, finish
//     in-flight requests, stop the evictor, close the store.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/shortly/internal/apiclient"
	"github.com/yanizio/shortly/internal/config"
	"github.com/yanizio/shortly/internal/flow"
	"github.com/yanizio/shortly/internal/form"
	"github.com/yanizio/shortly/internal/history"
	"github.com/yanizio/shortly/internal/logger"
	"github.com/yanizio/shortly/internal/requestinfo"
	"github.com/yanizio/shortly/internal/server"
	"github.com/yanizio/shortly/internal/session"
	"github.com/yanizio/shortly/internal/vault"
	"github.com/yanizio/shortly/internal/web"
)

const (
	shutdownGrace = 15 * time.Second
	secretTTL     = 10 * time.Minute
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Log.Dir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logOut); err != nil {
		logOut.Fatalw("shortly stopped", "err", err)
	}
	logOut.Infow("shortly stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config, logOut *zap.SugaredLogger) error {
	//
	// ── 1.  Secrets ─────────────────────────────────────────────────────
	//
	var secrets vault.Getter
	if vault.IsRef(cfg.API.Token) || vault.IsRef(cfg.History.DSN) {
		vc, err := vault.New(ctx, logOut)
		if err != nil {
			return err
		}
		secrets = vc
	}
	token, err := vault.Resolve(ctx, secrets, cfg.API.Token, secretTTL)
	if err != nil {
		return err
	}
	dsn, err := vault.Resolve(ctx, secrets, cfg.History.DSN, secretTTL)
	if err != nil {
		return err
	}

	//
	// ── 2.  Optional integrations ───────────────────────────────────────
	//
	var (
		hooks flow.Hooks
		hist  web.History
	)
	if dsn != "" {
		logOut.Infow("connecting to history DB")
		db, err := history.Open(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		rec := history.New(db)
		if err := rec.Migrate(ctx); err != nil {
			return err
		}
		hooks, hist = history.Hooks(rec), rec
		logOut.Infow("history DB online")
	}

	var geo *requestinfo.GeoDB
	if cfg.GeoIP.DBPath != "" {
		g, err := requestinfo.OpenGeo(cfg.GeoIP.DBPath)
		if err != nil {
			// Geolocation only enriches logs; run without it.
			logOut.Warnw("geoip disabled", "err", err)
		} else {
			geo = g
			defer geo.Close()
		}
	}

	//
	// ── 3.  Core wiring ─────────────────────────────────────────────────
	//
	api, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		QRPath:  cfg.API.QRPath,
		Token:   token,
	})
	if err != nil {
		return err
	}

	keys, err := form.NewKeyring(cfg.HTTP.CSRFKey)
	if err != nil {
		return err
	}

	store := session.NewStore(func() *flow.Workspace {
		return flow.NewWorkspace(api, flow.Options{
			NotifyDuration: cfg.Notify.Duration,
			Hooks:          hooks,
		})
	}, session.Options{
		IdleTTL:       cfg.Sessions.IdleTTL,
		MaxEntries:    cfg.Sessions.MaxEntries,
		EvictInterval: cfg.Sessions.EvictInterval,
		Log:           logOut,
	})

	srv := web.New(web.Options{
		API:            api,
		Store:          store,
		Keyring:        keys,
		History:        hist,
		Geo:            geo,
		Cookie:         session.CookieOptions{Name: cfg.HTTP.CookieName, Secure: cfg.HTTP.ForceHTTPS},
		ForceHTTPS:     cfg.HTTP.ForceHTTPS,
		NotifyDuration: cfg.Notify.Duration,
		Log:            logOut,
	})
	httpSrv := server.New(cfg.HTTP.ListenAddr, srv.Routes(), cfg.HTTP.WriteTimeout)

	//
	// ── 4.  Serve until signalled ───────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error { return store.Run(gctx) })

	g.Go(func() error {
		<-gctx.Done()
		logOut.Infow("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	return g.Wait()
}
