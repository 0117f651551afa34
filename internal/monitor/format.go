package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"boostbot/internal/dexscreener"
	"boostbot/pkg/tgui"
)

// noLinksPlaceholder renders when metrics exist but carry no usable links.
const noLinksPlaceholder = "No social links available"

var platformIcons = map[string]string{
	"twitter":  "🐦",
	"telegram": "📱",
	"discord":  "💬",
	"medium":   "📝",
	"github":   "💻",
}

// FormatMoney abbreviates a dollar amount: $3.20B, $2.50M, $1.50K, $999.00.
func FormatMoney(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.2fK", v/1_000)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// FormatPrice renders the pairs-API price string with fixed 8 decimals.
// Unparseable input renders as zero; micro-cap prices need the precision,
// so no abbreviation here.
func FormatPrice(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		f = 0
	}
	return fmt.Sprintf("$%.8f", f)
}

// BoostMessage renders the Telegram HTML notification for one boost.
// With metrics it produces the full card (token identity, market numbers,
// boost amounts, optional description and links). Without metrics it falls
// back to the reduced form: chain, address and the two boost amounts only.
func BoostMessage(b dexscreener.Boost, m *dexscreener.TokenMetrics) string {
	var sb strings.Builder
	sb.Grow(1024)

	sb.WriteString("🔥 <b>NEW TOKEN BOOST DETECTED</b> 🔥\n\n")

	if m == nil {
		sb.WriteString("<b>Chain:</b> " + tgui.Esc(b.ChainID).String() + "\n")
		sb.WriteString("<b>Token Address:</b> " + tgui.Code(b.TokenAddress).String() + "\n")
		sb.WriteString("<b>Boost Amount:</b> " + FormatMoney(b.Amount) + "\n")
		sb.WriteString("<b>Total Amount:</b> " + FormatMoney(b.TotalAmount) + "\n")
		return sb.String()
	}

	sb.WriteString("<b>Token:</b> " + tgui.Esc(m.Name).String() + " (" + tgui.Esc(m.Symbol).String() + ")\n")
	sb.WriteString("<b>Chain:</b> " + tgui.Esc(b.ChainID).String() + "\n")
	sb.WriteString("<b>Address:</b> " + tgui.Code(b.TokenAddress).String() + "\n\n")

	sb.WriteString("<b>💰 Token Metrics:</b>\n")
	sb.WriteString("• Market Cap: " + FormatMoney(m.MarketCap) + "\n")
	sb.WriteString("• FDV: " + FormatMoney(m.FDV) + "\n")
	sb.WriteString("• Price: " + FormatPrice(m.PriceUsd) + "\n")
	sb.WriteString("• Liquidity: " + FormatMoney(m.LiquidityUsd) + "\n\n")

	sb.WriteString("<b>🚀 Boost Details:</b>\n")
	sb.WriteString("• Boost Amount: " + FormatMoney(b.Amount) + "\n")
	sb.WriteString("• Total Amount: " + FormatMoney(b.TotalAmount) + "\n")

	if strings.TrimSpace(b.Description) != "" {
		sb.WriteString("\n<b>📝 Description:</b>\n" + tgui.Esc(b.Description).String() + "\n")
	}

	sb.WriteString("\n<b>🔗 Important Links:</b>\n")
	if strings.TrimSpace(b.URL) != "" {
		sb.WriteString("• " + tgui.Link("DexScreener", b.URL).String() + "\n")
	}

	sb.WriteString("\n<b>Social Links:</b>\n")
	sb.WriteString(socialLinks(m).String())

	return sb.String()
}

// socialLinks renders one line per website and one per social entry.
// Twitter and Telegram handles become profile URLs, Discord and everything
// else use the handle verbatim (the API publishes full invite URLs there).
func socialLinks(m *dexscreener.TokenMetrics) tgui.H {
	lines := make([]tgui.H, 0, len(m.Websites)+len(m.Socials))

	for _, w := range m.Websites {
		if strings.TrimSpace(w.URL) == "" {
			continue
		}
		lines = append(lines, tgui.JoinH(" ", tgui.Esc("🌐"), tgui.Link("Website", w.URL)))
	}

	for _, soc := range m.Socials {
		platform := strings.ToLower(strings.TrimSpace(soc.Platform))
		handle := strings.TrimSpace(soc.Handle)
		if platform == "" || handle == "" {
			continue
		}
		icon, ok := platformIcons[platform]
		if !ok {
			icon = "🔗"
		}
		var link tgui.H
		switch platform {
		case "twitter":
			link = tgui.Link("Twitter", "https://twitter.com/"+handle)
		case "telegram":
			link = tgui.Link("Telegram", "https://t.me/"+handle)
		case "discord":
			link = tgui.Link("Discord", handle)
		default:
			link = tgui.Link(titleFirst(platform), handle)
		}
		lines = append(lines, tgui.JoinH(" ", tgui.Esc(icon), link))
	}

	if len(lines) == 0 {
		return tgui.Esc(noLinksPlaceholder)
	}
	return tgui.JoinH("\n", lines...)
}

// titleFirst uppercases the first rune. Platform ids arrive lowercased and
// single-word, so this matches the label style of the known platforms.
func titleFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// StatusMessage renders the /status reply.
func StatusMessage(st Status) string {
	last := "never"
	if !st.LastCheck.IsZero() {
		last = st.LastCheck.Format("2006-01-02 15:04:05")
	}
	var sb strings.Builder
	sb.WriteString("📊 Monitor Status:\n")
	sb.WriteString("Last check: " + last + "\n")
	sb.WriteString(fmt.Sprintf("Known boosts: %d\n", st.KnownBoosts))
	sb.WriteString(fmt.Sprintf("Check interval: %d seconds", int(st.Interval/time.Second)))
	return sb.String()
}

// GreetingMessage renders the /start reply.
func GreetingMessage() string {
	return "🚀 DexScreener Boost Monitor started!\n" +
		"I'll notify you when new token boosts are detected.\n" +
		"Use /status to check the monitoring status."
}
