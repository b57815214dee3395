package ingress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/internal/narrative"
	"github.com/sentinelsignal/sentinel/pkg/models"
)

type fakeTokenTracker struct {
	admitted []models.KOLBuyEvent
}

func (f *fakeTokenTracker) AdmitKOLBuy(ctx context.Context, event models.KOLBuyEvent, now time.Time) {
	f.admitted = append(f.admitted, event)
}

type fakeWalletRegistry struct {
	recorded []models.KOLBuyEvent
}

func (f *fakeWalletRegistry) RecordActivity(ctx context.Context, event models.KOLBuyEvent) error {
	f.recorded = append(f.recorded, event)
	return nil
}

func TestKOLBuyProcessorDecodesAndAdmits(t *testing.T) {
	tracker := &fakeTokenTracker{}
	registry := &fakeWalletRegistry{}
	p := NewKOLBuyProcessor(tracker, registry)

	err := p.Process(context.Background(), map[string]interface{}{
		"wallet":      "Wallet1",
		"token":       "Tok1",
		"sol_amount":  "12.5",
		"timestamp":   "2026-01-01T00:00:00Z",
		"tx_signature": "sig1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "kol_buy_processor", p.Name())
	if assert.Len(t, tracker.admitted, 1) {
		assert.Equal(t, models.WalletAddress("Wallet1"), tracker.admitted[0].Wallet)
		assert.Equal(t, 12.5, tracker.admitted[0].SolAmount)
	}
	assert.Len(t, registry.recorded, 1)
}

func TestKOLBuyProcessorRejectsMissingFields(t *testing.T) {
	p := NewKOLBuyProcessor(&fakeTokenTracker{}, &fakeWalletRegistry{})

	err := p.Process(context.Background(), map[string]interface{}{"token": "Tok1"})
	assert.Error(t, err)

	err = p.Process(context.Background(), map[string]interface{}{"wallet": "Wallet1"})
	assert.Error(t, err)
}

type fakeCallTracker struct {
	admitted []models.TelegramCallEvent
}

func (f *fakeCallTracker) AdmitTelegramCall(ctx context.Context, event models.TelegramCallEvent, now time.Time) {
	f.admitted = append(f.admitted, event)
}

type fakeCallIndex struct {
	recorded []models.TelegramCallEvent
}

func (f *fakeCallIndex) Record(event models.TelegramCallEvent) {
	f.recorded = append(f.recorded, event)
}

type fakeCallStore struct {
	saved []models.TelegramCallEvent
}

func (f *fakeCallStore) RecordTelegramCall(ctx context.Context, event models.TelegramCallEvent) error {
	f.saved = append(f.saved, event)
	return nil
}

func TestTelegramCallProcessorDecodesAndRecords(t *testing.T) {
	tracker := &fakeCallTracker{}
	calls := &fakeCallIndex{}
	store := &fakeCallStore{}
	p := NewTelegramCallProcessor(tracker, calls, store)

	err := p.Process(context.Background(), map[string]interface{}{
		"token":      "Tok1",
		"group_id":   "g1",
		"group_name": "Alpha Calls",
		"message_id": "m1",
	})

	assert.NoError(t, err)
	assert.Len(t, tracker.admitted, 1)
	assert.Len(t, calls.recorded, 1)
	assert.Len(t, store.saved, 1)
}

func TestTelegramCallProcessorRejectsMissingGroup(t *testing.T) {
	p := NewTelegramCallProcessor(&fakeCallTracker{}, &fakeCallIndex{}, &fakeCallStore{})
	err := p.Process(context.Background(), map[string]interface{}{"token": "Tok1"})
	assert.Error(t, err)
}

type fakeNarrativeIndex struct {
	refreshed []narrative.Keyword
}

func (f *fakeNarrativeIndex) Refresh(keywords []narrative.Keyword) {
	f.refreshed = keywords
}

func TestNarrativeRefreshProcessorDecodesJSON(t *testing.T) {
	idx := &fakeNarrativeIndex{}
	p := NewNarrativeRefreshProcessor(idx)

	err := p.Process(context.Background(), map[string]interface{}{
		"keywords": `[{"Term":"ai agent","Bonus":15},{"Term":"dog","Bonus":5}]`,
	})

	assert.NoError(t, err)
	if assert.Len(t, idx.refreshed, 2) {
		assert.Equal(t, "ai agent", idx.refreshed[0].Term)
		assert.Equal(t, 15, idx.refreshed[0].Bonus)
	}
}

func TestNarrativeRefreshProcessorRejectsBadJSON(t *testing.T) {
	p := NewNarrativeRefreshProcessor(&fakeNarrativeIndex{})
	err := p.Process(context.Background(), map[string]interface{}{"keywords": "not json"})
	assert.Error(t, err)
}

func TestNarrativeRefreshProcessorRejectsMissingField(t *testing.T) {
	p := NewNarrativeRefreshProcessor(&fakeNarrativeIndex{})
	err := p.Process(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}
