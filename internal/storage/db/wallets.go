package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// ErrWalletNotFound is returned when a wallet address has no registry row.
var ErrWalletNotFound = errors.New("wallet not found in registry")

// GetWallet loads a curated wallet's registry row by address.
func (c *Connection) GetWallet(ctx context.Context, address models.WalletAddress) (models.WalletInfo, error) {
	query := `
		SELECT address, tier, display_name, win_rate, is_early_whale
		FROM wallets
		WHERE address = $1
	`

	var info models.WalletInfo
	err := c.pool.QueryRow(ctx, query, string(address)).Scan(
		&info.Address, &info.Tier, &info.DisplayName, &info.WinRate, &info.IsEarlyWhale,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WalletInfo{}, ErrWalletNotFound
	}
	if err != nil {
		return models.WalletInfo{}, fmt.Errorf("querying wallet %s: %w", address, err)
	}
	info.Known = true
	return info, nil
}

// ListWallets loads the full curated wallet registry, used to build the
// in-memory mirror on startup and on periodic refresh.
func (c *Connection) ListWallets(ctx context.Context) ([]models.WalletInfo, error) {
	query := `SELECT address, tier, display_name, win_rate, is_early_whale FROM wallets`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.WalletInfo
	for rows.Next() {
		var w models.WalletInfo
		if err := rows.Scan(&w.Address, &w.Tier, &w.DisplayName, &w.WinRate, &w.IsEarlyWhale); err != nil {
			return nil, fmt.Errorf("scanning wallet row: %w", err)
		}
		w.Known = true
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// UpsertWallet inserts or updates a curated wallet's registry row.
func (c *Connection) UpsertWallet(ctx context.Context, info models.WalletInfo) error {
	query := `
		INSERT INTO wallets (address, tier, display_name, win_rate, is_early_whale)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE SET
			tier = $2,
			display_name = $3,
			win_rate = $4,
			is_early_whale = $5
	`
	_, err := c.pool.Exec(ctx, query, string(info.Address), info.Tier, info.DisplayName, info.WinRate, info.IsEarlyWhale)
	if err != nil {
		return fmt.Errorf("upserting wallet %s: %w", info.Address, err)
	}
	return nil
}

// RecordKOLActivity appends a curated-wallet buy to the kol_activity table,
// the durable log backing the tracker's admission decisions.
func (c *Connection) RecordKOLActivity(ctx context.Context, event models.KOLBuyEvent, tier models.WalletTier) error {
	query := `
		INSERT INTO kol_activity (wallet_address, token_address, tier, sol_amount, tx_signature, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tx_signature) DO NOTHING
	`
	_, err := c.pool.Exec(ctx, query, string(event.Wallet), string(event.Token), tier, event.SolAmount, event.TxSignature, event.Timestamp)
	if err != nil {
		return fmt.Errorf("recording kol activity: %w", err)
	}
	return nil
}
