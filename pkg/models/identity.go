// Package models holds SENTINEL's shared domain entities:
// the wallet/token identifiers, event types, tracked-token state, and the
// scoring/signal/alert records produced by the pipeline.
package models

// TokenAddress is an opaque Solana token mint identifier. Equality is
// byte-exact; callers should not assume any particular casing has been
// applied, only that two TokenAddress values compare equal iff they name
// the same mint.
type TokenAddress string

// WalletAddress is an opaque Solana wallet identifier.
type WalletAddress string

// WalletTier classifies a curated wallet's trust level.
type WalletTier string

const (
	TierElite    WalletTier = "elite"
	TierTopKOL   WalletTier = "top_kol"
	TierEmerging WalletTier = "emerging"
	TierWhale    WalletTier = "whale"
	TierUnknown  WalletTier = "unknown"
)

// TierMultiplier returns the smart-wallet scoring multiplier for a tier
//.
func TierMultiplier(tier WalletTier) float64 {
	switch tier {
	case TierElite:
		return 1.5
	case TierTopKOL:
		return 1.0
	case TierEmerging:
		return 0.5
	case TierWhale:
		return 0.3
	default:
		return 0
	}
}

// WalletInfo is the registry's view of a wallet.
type WalletInfo struct {
	Address       WalletAddress
	Tier          WalletTier
	DisplayName   string
	WinRate       float64 // in [0,1]
	IsEarlyWhale  bool
	Known         bool // false means "unknown" — tier/winrate are zero values
}

// TokenSource names how a token first entered the tracker.
type TokenSource string

const (
	SourceKOLBuy        TokenSource = "kol_buy"
	SourceTelegramCall  TokenSource = "telegram_call"
	SourceWhaleBuy      TokenSource = "whale_buy"
)

// LifecycleState is a TrackedToken's place in the tracker state machine.
type LifecycleState string

const (
	StateTracking LifecycleState = "tracking"
	StateSignaled LifecycleState = "signaled"
	StateMonitored LifecycleState = "monitored"
	StateRetired  LifecycleState = "retired"
)
