package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// SaveSignal persists a published conviction signal and its score
// breakdown for later audit and outcome tracking.
func (c *Connection) SaveSignal(ctx context.Context, signal models.Signal) error {
	breakdown, err := json.Marshal(signal.Breakdown)
	if err != nil {
		return fmt.Errorf("encoding score breakdown: %w", err)
	}
	wallets, err := json.Marshal(signal.KOLWallets)
	if err != nil {
		return fmt.Errorf("encoding kol wallets: %w", err)
	}
	narratives, err := json.Marshal(signal.Narratives)
	if err != nil {
		return fmt.Errorf("encoding narratives: %w", err)
	}

	query := `
		INSERT INTO signals (
			token_address, symbol, score, breakdown, posted_at, message_id,
			entry_price, entry_liquidity, buy_percentage, kol_wallets, narratives,
			delivery_pending
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`
	_, err = c.pool.Exec(ctx, query,
		string(signal.Token), signal.Symbol, signal.Score, breakdown, signal.PostedAt,
		signal.MessageID, signal.EntryPrice, signal.EntryLiquidity, signal.BuyPercentage,
		wallets, narratives, signal.DeliveryPending,
	)
	if err != nil {
		return fmt.Errorf("saving signal for %s: %w", signal.Token, err)
	}
	return nil
}

// SaveExitAlert persists the post-call monitor's single exit alert for a
// signal, the outcome record used to evaluate signal quality later.
func (c *Connection) SaveExitAlert(ctx context.Context, alert models.ExitAlert) error {
	query := `
		INSERT INTO outcomes (token_address, signal_price, observed_price, drop_pct, elapsed_seconds, alerted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := c.pool.Exec(ctx, query,
		string(alert.Token), alert.SignalPrice, alert.ObservedPrice, alert.DropPct,
		alert.ElapsedSeconds, alert.AlertedAt,
	)
	if err != nil {
		return fmt.Errorf("saving exit alert for %s: %w", alert.Token, err)
	}
	return nil
}

// RecordTelegramCall persists a third-party group's mention of a token. A
// repeat of the same (token, group, message) is dropped by the ON CONFLICT
// clause.
func (c *Connection) RecordTelegramCall(ctx context.Context, event models.TelegramCallEvent) error {
	query := `
		INSERT INTO telegram_calls (token_address, group_id, group_name, message_id, observed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token_address, group_id, message_id) DO NOTHING
	`
	_, err := c.pool.Exec(ctx, query, string(event.Token), event.GroupID, event.GroupName, event.MessageID, event.Timestamp)
	if err != nil {
		return fmt.Errorf("recording telegram call: %w", err)
	}
	return nil
}
