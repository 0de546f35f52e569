// internal/web/server.go
//
// shortly – HTTP surface.
//
// Context
//   Server-rendered pages over chi.  Each visitor's flows live in a
//   flow.Workspace resolved by the session middleware; handlers translate
//   form posts into controller intents (Edit, Submit, Dismiss) and then
//   redirect back to the page (post/redirect/get), which renders a fresh
//   present.Page snapshot.
//
// Middleware order
//   RequestID → Recoverer → requestinfo.Enrich → ForceHTTPS → Security →
//   (UI routes only) session workspace.
//
// Routes
//   GET  /                      home, both flows
//   GET  /dashboard             history totals and recent links
//   POST /shorten               submit the shortening form
//   POST /shorten/dismiss       discard the shortening result
//   POST /shorten/close         close the result overlay, keep the result
//   POST /qr                    submit the QR form (multipart, logo upload)
//   POST /qr/dismiss            discard the QR result
//   POST /qr/close              close the result overlay, keep the result
//   GET  /qr/download           QR image as an attachment
//   GET  /notifications         live notification as JSON (204 when none)
//   POST /notifications/dismiss early dismissal
//   POST /copy                  clipboard outcome reported by the browser
//   GET  /analytics/{code}      upstream analytics, passed through
//   GET  /healthz, GET /metrics
//
//------------------------------------------------------------------------------

package web

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/shortly/internal/apiclient"
	"github.com/yanizio/shortly/internal/flow"
	"github.com/yanizio/shortly/internal/form"
	"github.com/yanizio/shortly/internal/history"
	"github.com/yanizio/shortly/internal/middleware"
	"github.com/yanizio/shortly/internal/present"
	"github.com/yanizio/shortly/internal/requestinfo"
	"github.com/yanizio/shortly/internal/session"
)

// API is everything the web layer calls upstream.  *apiclient.Client
// satisfies it.
type API interface {
	flow.API
	present.ImageFetcher
	FetchAnalytics(ctx context.Context, shortURL string) (apiclient.Analytics, error)
}

// History is the dashboard's read side.  *history.Recorder satisfies it.
type History interface {
	Stats(ctx context.Context) (history.Stats, error)
	Recent(ctx context.Context, limit int) ([]history.Link, error)
}

// Options wires a Server.  History and Geo may be nil.
type Options struct {
	API            API
	Store          *session.Store
	Keyring        *form.Keyring
	History        History
	Geo            *requestinfo.GeoDB
	Cookie         session.CookieOptions
	ForceHTTPS     bool
	NotifyDuration time.Duration
	Log            *zap.SugaredLogger
}

// Server holds the dependencies of every handler.
type Server struct {
	api     API
	store   *session.Store
	keys    *form.Keyring
	history History
	notify  time.Duration
	log     *zap.SugaredLogger
	opts    Options
}

// New returns a Server.  API, Store, and Keyring are required.
func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.S()
	}
	return &Server{
		api:     opts.API,
		store:   opts.Store,
		keys:    opts.Keyring,
		history: opts.History,
		notify:  opts.NotifyDuration,
		log:     opts.Log,
		opts:    opts,
	}
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.Enrich(s.log, s.opts.Geo))
	r.Use(middleware.ForceHTTPS(s.opts.ForceHTTPS))
	r.Use(middleware.Security)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/analytics/{code}", s.handleAnalytics)

	r.Group(func(r chi.Router) {
		r.Use(s.store.Middleware(s.opts.Cookie))

		r.Get("/", s.handleHome)
		r.Get("/dashboard", s.handleDashboard)

		r.Post("/shorten", s.handleShorten)
		r.Post("/shorten/dismiss", s.handleShortenDismiss)
		r.Post("/shorten/close", s.handleShortenClose)
		r.Post("/qr", s.handleQR)
		r.Post("/qr/dismiss", s.handleQRDismiss)
		r.Post("/qr/close", s.handleQRClose)
		r.Get("/qr/download", s.handleQRDownload)

		r.Get("/notifications", s.handleNotification)
		r.Post("/notifications/dismiss", s.handleNotificationDismiss)
		r.Post("/copy", s.handleCopy)
	})
	return r
}
