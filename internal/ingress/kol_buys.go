package ingress

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// TokenTracker is the subset of the tracker the KOL-buy processor admits
// events into.
type TokenTracker interface {
	AdmitKOLBuy(ctx context.Context, event models.KOLBuyEvent, now time.Time)
}

// WalletRegistry records durable KOL activity alongside the in-memory
// admission the tracker performs.
type WalletRegistry interface {
	RecordActivity(ctx context.Context, event models.KOLBuyEvent) error
}

// KOLBuyProcessor admits curated-wallet buys into the tracker and records
// them in the durable kol_activity log.
type KOLBuyProcessor struct {
	tracker  TokenTracker
	registry WalletRegistry
}

// NewKOLBuyProcessor builds a KOLBuyProcessor.
func NewKOLBuyProcessor(tracker TokenTracker, registry WalletRegistry) *KOLBuyProcessor {
	return &KOLBuyProcessor{tracker: tracker, registry: registry}
}

func (p *KOLBuyProcessor) Name() string { return "kol_buy_processor" }

func (p *KOLBuyProcessor) Process(ctx context.Context, values map[string]interface{}) error {
	event, err := decodeKOLBuyEvent(values)
	if err != nil {
		return err
	}

	now := time.Now()
	p.tracker.AdmitKOLBuy(ctx, event, now)
	return p.registry.RecordActivity(ctx, event)
}

func decodeKOLBuyEvent(values map[string]interface{}) (models.KOLBuyEvent, error) {
	wallet, ok := stringField(values, "wallet")
	if !ok {
		return models.KOLBuyEvent{}, fmt.Errorf("kol_buy message missing wallet")
	}
	token, ok := stringField(values, "token")
	if !ok {
		return models.KOLBuyEvent{}, fmt.Errorf("kol_buy message missing token")
	}
	amount, _ := floatField(values, "sol_amount")
	ts, _ := stringField(values, "timestamp")
	sig, _ := stringField(values, "tx_signature")

	return models.KOLBuyEvent{
		Wallet:      models.WalletAddress(wallet),
		Token:       models.TokenAddress(token),
		SolAmount:   amount,
		Timestamp:   parseTimestamp(ts),
		TxSignature: sig,
	}, nil
}
