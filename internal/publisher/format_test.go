package publisher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

func TestFormatEscapesAndFallsBackToUnknown(t *testing.T) {
	signal := models.Signal{
		Token:         "Tok<1>",
		Symbol:        "",
		Score:         62.5,
		BuyPercentage: 81,
		EntryPrice:    0.000042,
		EntryLiquidity: 1_250_000,
	}

	out := format(signal)
	assert.Contains(t, out, "UNKNOWN")
	assert.Contains(t, out, "Tok&lt;1&gt;")
	assert.Contains(t, out, "Score: <b>62.5</b>")
	assert.Contains(t, out, "1.25M")
	assert.NotContains(t, out, "<1>")
}

func TestFormatIncludesKOLsAndNarratives(t *testing.T) {
	signal := models.Signal{
		Token:  "Tok1",
		Symbol: "DOG",
		KOLWallets: []models.KOLBuyRecord{
			{Wallet: "Wallet1111111111111111111111111111", Tier: models.TierElite},
		},
		Narratives: []string{"ai_agents", "dog_memes"},
	}

	out := format(signal)
	assert.Contains(t, out, "KOLs:")
	assert.Contains(t, out, "\U0001F451")
	assert.Contains(t, out, "ai_agents, dog_memes")
}

func TestFormatSkipsZeroComponents(t *testing.T) {
	breakdown := &models.ScoreBreakdown{}
	breakdown.Add("smart_wallets", 15)
	breakdown.Add("narrative", 0)

	signal := models.Signal{Token: "Tok1", Breakdown: breakdown}
	out := format(signal)

	assert.Contains(t, out, "smart_wallets")
	assert.NotContains(t, out, "narrative")
}

func TestFormatExitAlert(t *testing.T) {
	alert := models.ExitAlert{
		Token:          "Tok1",
		SignalPrice:    0.0002,
		ObservedPrice:  0.00016,
		DropPct:        -0.20,
		ElapsedSeconds: 185,
	}

	out := formatExitAlert(alert)
	assert.Contains(t, out, "Exit alert")
	assert.Contains(t, out, "-20.0%")
	assert.True(t, strings.Contains(out, "Elapsed: 185s"))
}
