package publisher

import (
	"fmt"
	"strings"

	"github.com/sentinelsignal/sentinel/pkg/models"
)

// tierBadge returns the short glyph shown next to a KOL wallet's display name.
func tierBadge(tier models.WalletTier) string {
	switch tier {
	case models.TierElite:
		return "\U0001F451" // crown
	case models.TierTopKOL:
		return "⭐" // star
	case models.TierEmerging:
		return "\U0001F331" // seedling
	case models.TierWhale:
		return "\U0001F40B" // whale
	default:
		return "❓"
	}
}

// format renders a Signal as an HTML-parse-mode Telegram message. Only the
// tags go-telegram/bot's HTML mode supports are used: <b>, <code>, <a>.
func format(signal models.Signal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b> conviction signal\n", escapeHTML(displaySymbol(signal.Symbol)))
	fmt.Fprintf(&b, "<code>%s</code>\n\n", escapeHTML(string(signal.Token)))

	fmt.Fprintf(&b, "Score: <b>%.1f</b>\n", signal.Score)
	if signal.Breakdown != nil {
		for _, c := range signal.Breakdown.Components {
			if c.Value == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %s: %+.1f\n", escapeHTML(c.Name), c.Value)
		}
	}

	if len(signal.KOLWallets) > 0 {
		b.WriteString("\nKOLs:\n")
		for _, k := range signal.KOLWallets {
			fmt.Fprintf(&b, "  %s <code>%s</code>\n", tierBadge(k.Tier), escapeHTML(shortenWallet(string(k.Wallet))))
		}
	}

	if len(signal.Narratives) > 0 {
		fmt.Fprintf(&b, "\nNarrative: %s\n", escapeHTML(strings.Join(signal.Narratives, ", ")))
	}

	fmt.Fprintf(&b, "\nBuy%%: <b>%.0f%%</b>\n", signal.BuyPercentage)
	fmt.Fprintf(&b, "Entry price: <b>$%s</b>\n", formatPrice(signal.EntryPrice))
	fmt.Fprintf(&b, "Liquidity: <b>$%s</b>\n", formatUSD(signal.EntryLiquidity))

	b.WriteString("\n")
	b.WriteString(explorerLinks(signal.Token))

	return b.String()
}

func displaySymbol(symbol string) string {
	if symbol == "" {
		return "UNKNOWN"
	}
	return symbol
}

func shortenWallet(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}

func formatPrice(price float64) string {
	if price < 0.01 {
		return fmt.Sprintf("%.8f", price)
	}
	return fmt.Sprintf("%.4f", price)
}

func formatUSD(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func explorerLinks(token models.TokenAddress) string {
	addr := escapeHTML(string(token))
	return fmt.Sprintf(
		`<a href="https://solscan.io/token/%s">Solscan</a> | <a href="https://dexscreener.com/solana/%s">DexScreener</a>`,
		addr, addr,
	)
}

// escapeHTML escapes the handful of characters Telegram's HTML parse mode
// treats specially.
func escapeHTML(s string) string {
	replacer := strings.NewReplacer(
		`&`, "&amp;",
		`<`, "&lt;",
		`>`, "&gt;",
	)
	return replacer.Replace(s)
}

// formatExitAlert renders an ExitAlert as an HTML-parse-mode message.
func formatExitAlert(alert models.ExitAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Exit alert</b> <code>%s</code>\n", escapeHTML(string(alert.Token)))
	fmt.Fprintf(&b, "Drop: <b>%.1f%%</b> since signal\n", alert.DropPct*100)
	fmt.Fprintf(&b, "Entry: $%s → Now: $%s\n", formatPrice(alert.SignalPrice), formatPrice(alert.ObservedPrice))
	fmt.Fprintf(&b, "Elapsed: %.0fs\n", alert.ElapsedSeconds)
	return b.String()
}
