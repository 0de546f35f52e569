// internal/session/store.go
//
// shortly – Workspace store.
//
// Context
//   Every visitor gets one flow.Workspace, created lazily on first request
//   and kept in a sync.Map keyed by visitor ID.  Concurrent first requests
//   for the same ID collapse into one construction through singleflight.
//   Entries record a lastSeen timestamp; the evictor (evictor.go) drops
//   idle entries and trims the map under LRU pressure.
//
// Instrumentation
//   • shortly_active_workspaces gauge
//   • shortly_workspace_evict_total counter
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/shortly/internal/flow"
	"github.com/yanizio/shortly/internal/metrics"
)

// Defaults applied by NewStore for zero Options fields.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 10000
	EvictInterval = time.Minute
)

// Options tunes a Store.
type Options struct {
	IdleTTL       time.Duration
	MaxEntries    int
	EvictInterval time.Duration
	Now           func() time.Time
	Log           *zap.SugaredLogger
}

type entry struct {
	ws       *flow.Workspace
	lastSeen int64 // UnixNano
}

// Store holds live workspaces.  Safe for concurrent use.
type Store struct {
	newWS func() *flow.Workspace

	sfg singleflight.Group
	m   sync.Map

	idleTTL       time.Duration
	maxEntries    int
	evictInterval time.Duration
	now           func() time.Time
	log           *zap.SugaredLogger
}

// NewStore returns an empty Store that builds workspaces with newWS.  Call
// Run to start eviction.
func NewStore(newWS func() *flow.Workspace, opts Options) *Store {
	s := &Store{
		newWS:         newWS,
		idleTTL:       opts.IdleTTL,
		maxEntries:    opts.MaxEntries,
		evictInterval: opts.EvictInterval,
		now:           opts.Now,
		log:           opts.Log,
	}
	if s.idleTTL <= 0 {
		s.idleTTL = IdleTTL
	}
	if s.maxEntries <= 0 {
		s.maxEntries = MaxEntries
	}
	if s.evictInterval <= 0 {
		s.evictInterval = EvictInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.S()
	}
	return s
}

// Get returns the workspace for id, if it is live.
func (s *Store) Get(id string) (*flow.Workspace, bool) {
	v, ok := s.m.Load(id)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	atomic.StoreInt64(&ent.lastSeen, s.now().UnixNano())
	return ent.ws, true
}

// GetOrCreate returns the workspace for id, building it on demand.
func (s *Store) GetOrCreate(id string) *flow.Workspace {
	if ws, ok := s.Get(id); ok {
		return ws
	}
	v, _, _ := s.sfg.Do(id, func() (any, error) {
		// Double-check after the singleflight barrier.
		if ws, ok := s.Get(id); ok {
			return ws, nil
		}
		ent := &entry{ws: s.newWS(), lastSeen: s.now().UnixNano()}
		s.m.Store(id, ent)
		metrics.ActiveWorkspaces.Inc()
		return ent.ws, nil
	})
	return v.(*flow.Workspace)
}

// Len reports the number of live workspaces.
func (s *Store) Len() int {
	n := 0
	s.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Close drops every workspace and stops their timers.
func (s *Store) Close() {
	s.m.Range(func(key, value any) bool {
		s.remove(key.(string), value.(*entry))
		return true
	})
}

func (s *Store) remove(id string, ent *entry) bool {
	if !s.m.CompareAndDelete(id, ent) {
		return false
	}
	ent.ws.Close()
	metrics.ActiveWorkspaces.Dec()
	return true
}

/*──────────────────────────── HTTP glue ───────────────────────────────────*/

type ctxKey struct{}

// WithWorkspace stores ws in ctx.
func WithWorkspace(ctx context.Context, ws *flow.Workspace) context.Context {
	return context.WithValue(ctx, ctxKey{}, ws)
}

// FromContext returns the workspace stored by Middleware, or nil.
func FromContext(ctx context.Context) *flow.Workspace {
	ws, _ := ctx.Value(ctxKey{}).(*flow.Workspace)
	return ws
}

// Middleware resolves the visitor cookie to a workspace, issuing a new
// cookie for first-time or unrecognised visitors.
func (s *Store) Middleware(opts CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := ID(r, opts)
			if !ok {
				id = NewID()
				SetID(w, r, opts, id)
			}
			ws := s.GetOrCreate(id)
			next.ServeHTTP(w, r.WithContext(WithWorkspace(r.Context(), ws)))
		})
	}
}
