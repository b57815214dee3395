package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

func withWallets(wallets map[models.WalletAddress]models.WalletInfo) *Registry {
	return &Registry{wallets: wallets}
}

func TestLookupKnownWallet(t *testing.T) {
	r := withWallets(map[models.WalletAddress]models.WalletInfo{
		"wallet1": {Address: "wallet1", Tier: models.TierElite, Known: true, WinRate: 0.72},
	})

	info := r.Lookup("wallet1")
	assert.True(t, info.Known)
	assert.Equal(t, models.TierElite, info.Tier)
	assert.Equal(t, 0.72, info.WinRate)
}

func TestLookupUnknownWalletDefaultsToTierUnknown(t *testing.T) {
	r := withWallets(map[models.WalletAddress]models.WalletInfo{})

	info := r.Lookup("ghost")
	assert.False(t, info.Known)
	assert.Equal(t, models.TierUnknown, info.Tier)
	assert.Equal(t, models.WalletAddress("ghost"), info.Address)
}

func TestSizeReflectsMirror(t *testing.T) {
	r := withWallets(map[models.WalletAddress]models.WalletInfo{
		"a": {Address: "a"},
		"b": {Address: "b"},
	})

	assert.Equal(t, 2, r.Size())
}
