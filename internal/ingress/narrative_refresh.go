package ingress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sentinelsignal/sentinel/internal/narrative"
)

// NarrativeIndex is the subset of narrative.Index the refresh processor
// drives.
type NarrativeIndex interface {
	Refresh(keywords []narrative.Keyword)
}

// NarrativeRefreshProcessor atomically swaps in a new narrative keyword
// list published by the external trend feed.
type NarrativeRefreshProcessor struct {
	index NarrativeIndex
}

// NewNarrativeRefreshProcessor builds a NarrativeRefreshProcessor.
func NewNarrativeRefreshProcessor(index NarrativeIndex) *NarrativeRefreshProcessor {
	return &NarrativeRefreshProcessor{index: index}
}

func (p *NarrativeRefreshProcessor) Name() string { return "narrative_refresh_processor" }

func (p *NarrativeRefreshProcessor) Process(ctx context.Context, values map[string]interface{}) error {
	raw, ok := stringField(values, "keywords")
	if !ok {
		return fmt.Errorf("narrative_refresh message missing keywords")
	}

	var keywords []narrative.Keyword
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		return fmt.Errorf("decoding narrative keywords: %w", err)
	}

	p.index.Refresh(keywords)
	return nil
}
