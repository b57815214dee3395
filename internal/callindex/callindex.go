// Package callindex tracks third-party Telegram group mentions of token
// addresses within a rolling window, used by the conviction engine to
// detect multi-group call convergence. It is process-local and in-memory:
// durability of individual calls lives in Postgres via internal/storage/db,
// this index only answers "how many distinct groups mentioned this token
// recently."
package callindex

import (
	"strings"
	"sync"
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// callEntry is one recorded mention, kept only long enough to fall out of
// the rolling window.
type callEntry struct {
	groupID   string
	messageID string
	at        time.Time
}

// Index answers "which groups called this token, and when" for a rolling
// window of recent history.
type Index struct {
	mu     sync.Mutex
	window time.Duration
	calls  map[models.TokenAddress][]callEntry
	seen   map[string]bool // dedup key -> recorded
}

// New builds a call index retaining entries for window.
func New(window time.Duration) *Index {
	return &Index{
		window: window,
		calls:  make(map[models.TokenAddress][]callEntry),
		seen:   make(map[string]bool),
	}
}

// Record adds a call event, idempotently: a duplicate (token, group,
// message) triple is a no-op, since ingress may redeliver messages at
// least once.
func (idx *Index) Record(event models.TelegramCallEvent) {
	key := event.Key()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.seen[key] {
		return
	}
	idx.seen[key] = true

	idx.calls[event.Token] = append(idx.calls[event.Token], callEntry{
		groupID:   event.GroupID,
		messageID: event.MessageID,
		at:        event.Timestamp,
	})
}

// liveEntries drops entries for token older than the rolling window and
// returns the survivors along with the distinct group IDs among them.
// Caller holds idx.mu.
func (idx *Index) liveEntries(token models.TokenAddress, now time.Time) ([]callEntry, map[string]bool) {
	entries := idx.calls[token]
	cutoff := now.Add(-idx.window)

	live := entries[:0]
	groups := make(map[string]bool)
	for _, e := range entries {
		if e.at.Before(cutoff) {
			continue
		}
		live = append(live, e)
		groups[e.groupID] = true
	}
	return live, groups
}

// Mentions returns the distinct group IDs that called token within the
// rolling window, as of now. Expired entries are pruned lazily.
func (idx *Index) Mentions(token models.TokenAddress, now time.Time) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	live, groups := idx.liveEntries(token, now)
	idx.calls[token] = live

	result := make([]string, 0, len(groups))
	for g := range groups {
		result = append(result, g)
	}
	return result
}

// Count returns the number of distinct groups that called token within
// the rolling window.
func (idx *Index) Count(token models.TokenAddress, now time.Time) int {
	return len(idx.Mentions(token, now))
}

// Stats returns both the distinct-group count and the total mention count
// for token within the rolling window — the pair the conviction engine's
// telegram-calls score component consumes every poll.
func (idx *Index) Stats(token models.TokenAddress, now time.Time) (distinctGroups, totalMentions int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	live, groups := idx.liveEntries(token, now)
	idx.calls[token] = live
	return len(groups), len(live)
}

// Prune drops stale dedup keys for tokens not in active, bounding memory
// growth. The tracker does not call it; callers pass the tokens to keep.
func (idx *Index) Prune(active map[models.TokenAddress]bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for token := range idx.calls {
		if !active[token] {
			delete(idx.calls, token)
		}
	}
	for key := range idx.seen {
		token := models.TokenAddress(key[:strings.IndexByte(key, '|')])
		if !active[token] {
			delete(idx.seen, key)
		}
	}
}
