// evictor.go houses the eviction loop for Store.  Every evictInterval it
// scans the map and removes:
//
//   - workspaces idle longer than idleTTL
//   - least-recently-used workspaces when map size exceeds maxEntries
//
// Evicted workspaces have their notification timers stopped.
package session

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/yanizio/shortly/internal/metrics"
)

// Run evicts on a ticker until ctx is cancelled, then drops every
// workspace.  It always returns nil so it can sit in an errgroup.
func (s *Store) Run(ctx context.Context) error {
	t := time.NewTicker(s.evictInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return nil
		case <-t.C:
			s.Sweep()
		}
	}
}

// Sweep runs one idle pass and one LRU pass.
func (s *Store) Sweep() {
	now := s.now().UnixNano()
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	s.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
		if idle > s.idleTTL {
			if s.remove(key.(string), ent) {
				s.log.Debugw("workspace evicted", "reason", "idle", "idle", idle.Truncate(time.Second))
				metrics.WorkspaceEvictTotal.Inc()
			}
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if count <= s.maxEntries {
		return
	}
	type kv struct {
		key string
		ent *entry
		at  int64
	}
	all := make([]kv, 0, count)
	s.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		all = append(all, kv{key: key.(string), ent: ent, at: atomic.LoadInt64(&ent.lastSeen)})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < len(all)-s.maxEntries; i++ {
		if s.remove(all[i].key, all[i].ent) {
			s.log.Debugw("workspace evicted", "reason", "lru")
			metrics.WorkspaceEvictTotal.Inc()
		}
	}
}
