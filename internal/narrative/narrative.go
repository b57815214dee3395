// Package narrative matches the text a caller passes (the engine passes a
// token's symbol and name) against a curated list of trending narrative
// keywords (e.g. "AI agent", "dog", "political"), contributing a small
// bonus to the conviction score when a token rides a currently hot theme.
// The keyword list is replaced whenever Refresh is called (by the ingress
// narrative-refresh processor); matching itself is a pure, lock-light
// operation against an atomically-swapped snapshot.
package narrative

import (
	"strings"
	"sync/atomic"
)

// Keyword is one tracked narrative term with its score contribution.
type Keyword struct {
	Term  string
	Bonus int
}

// snapshot is the immutable keyword list swapped in on refresh.
type snapshot struct {
	keywords []Keyword
}

// Index matches token text against a live narrative keyword list.
type Index struct {
	current atomic.Pointer[snapshot]
}

// New builds an empty narrative index. Call Refresh to populate it.
func New() *Index {
	idx := &Index{}
	idx.current.Store(&snapshot{})
	return idx
}

// Refresh atomically replaces the tracked keyword list.
func (idx *Index) Refresh(keywords []Keyword) {
	idx.current.Store(&snapshot{keywords: keywords})
}

// Match returns the keywords found in text (case-insensitive substring
// match against whatever text the caller concatenated) and
// their combined bonus.
func (idx *Index) Match(text string) ([]string, int) {
	snap := idx.current.Load()
	if snap == nil || len(snap.keywords) == 0 {
		return nil, 0
	}

	lower := strings.ToLower(text)
	var matched []string
	var bonus int
	for _, kw := range snap.keywords {
		if strings.Contains(lower, strings.ToLower(kw.Term)) {
			matched = append(matched, kw.Term)
			bonus += kw.Bonus
		}
	}
	return matched, bonus
}

// Len reports how many keywords are currently tracked.
func (idx *Index) Len() int {
	snap := idx.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.keywords)
}
