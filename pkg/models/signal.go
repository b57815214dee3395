package models

import "time"

// Signal is the record of a single published conviction signal. At
// most one is created per token per process lifetime.
type Signal struct {
	Token          TokenAddress
	Symbol         string
	Score          float64
	Breakdown      *ScoreBreakdown
	PostedAt       time.Time
	MessageID      string
	EntryPrice     float64
	EntryLiquidity float64
	BuyPercentage  float64
	KOLWallets     []KOLBuyRecord
	Narratives     []string

	// DeliveryPending is set when the publisher exhausted its retries and
	// the signal was saved to the signals store instead of posted.
	DeliveryPending bool
}

// ExitAlert is the post-call monitor's single possible alert per signal.
type ExitAlert struct {
	Token          TokenAddress
	SignalPrice    float64
	ObservedPrice  float64
	DropPct        float64
	ElapsedSeconds float64
	AlertedAt      time.Time
}
