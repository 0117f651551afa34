package monitor

import (
	"strings"
	"testing"
	"time"

	"boostbot/internal/dexscreener"
)

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{0.5, "$0.50"},
		{999, "$999.00"},
		{1_000, "$1.00K"},
		{1_500, "$1.50K"},
		{999_999, "$1000.00K"},
		{1_000_000, "$1.00M"},
		{2_500_000, "$2.50M"},
		{1_000_000_000, "$1.00B"},
		{3_200_000_000, "$3.20B"},
	}
	for _, tc := range cases {
		if got := FormatMoney(tc.in); got != tc.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"0", "$0.00000000"},
		{"0.00001234", "$0.00001234"},
		{"1.5", "$1.50000000"},
		{" 2.25 ", "$2.25000000"},
		{"", "$0.00000000"},
		{"not-a-number", "$0.00000000"},
	}
	for _, tc := range cases {
		if got := FormatPrice(tc.in); got != tc.want {
			t.Errorf("FormatPrice(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBoostMessageReduced(t *testing.T) {
	t.Parallel()

	b := dexscreener.Boost{
		ChainID:      "solana",
		TokenAddress: "ABC",
		Amount:       100,
		TotalAmount:  500,
	}
	got := BoostMessage(b, nil)

	want := "🔥 <b>NEW TOKEN BOOST DETECTED</b> 🔥\n\n" +
		"<b>Chain:</b> solana\n" +
		"<b>Token Address:</b> <code>ABC</code>\n" +
		"<b>Boost Amount:</b> $100.00\n" +
		"<b>Total Amount:</b> $500.00\n"
	if got != want {
		t.Fatalf("reduced message mismatch\n got: %q\nwant: %q", got, want)
	}
	for _, absent := range []string{"Token Metrics", "Social Links", "Important Links"} {
		if strings.Contains(got, absent) {
			t.Errorf("reduced message must not contain %q", absent)
		}
	}
}

func TestBoostMessageFull(t *testing.T) {
	t.Parallel()

	b := dexscreener.Boost{
		ChainID:      "solana",
		TokenAddress: "So11111111111111111111111111111111111111112",
		Amount:       100,
		TotalAmount:  2_500_000,
		Description:  "To the moon",
		URL:          "https://dexscreener.com/solana/xyz",
	}
	m := &dexscreener.TokenMetrics{
		Name:         "Wrapped SOL",
		Symbol:       "SOL",
		PriceUsd:     "0.00001234",
		MarketCap:    1_500,
		FDV:          3_200_000_000,
		LiquidityUsd: 999,
		Websites:     []dexscreener.Website{{Label: "Homepage", URL: "https://example.org"}},
		Socials: []dexscreener.Social{
			{Platform: "twitter", Handle: "wrappedsol"},
			{Platform: "telegram", Handle: "wsolchat"},
		},
	}
	got := BoostMessage(b, m)

	for _, want := range []string{
		"🔥 <b>NEW TOKEN BOOST DETECTED</b> 🔥",
		"<b>Token:</b> Wrapped SOL (SOL)",
		"<b>Chain:</b> solana",
		"<b>Address:</b> <code>So11111111111111111111111111111111111111112</code>",
		"<b>💰 Token Metrics:</b>",
		"• Market Cap: $1.50K",
		"• FDV: $3.20B",
		"• Price: $0.00001234",
		"• Liquidity: $999.00",
		"<b>🚀 Boost Details:</b>",
		"• Boost Amount: $100.00",
		"• Total Amount: $2.50M",
		"<b>📝 Description:</b>\nTo the moon",
		"<b>🔗 Important Links:</b>",
		`• <a href="https://dexscreener.com/solana/xyz">DexScreener</a>`,
		"<b>Social Links:</b>",
		`🌐 <a href="https://example.org">Website</a>`,
		`🐦 <a href="https://twitter.com/wrappedsol">Twitter</a>`,
		`📱 <a href="https://t.me/wsolchat">Telegram</a>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("full message missing %q\nmessage:\n%s", want, got)
		}
	}
	if strings.Contains(got, noLinksPlaceholder) {
		t.Errorf("placeholder must not render when links exist")
	}
}

func TestBoostMessagePlaceholderWhenNoLinks(t *testing.T) {
	t.Parallel()

	b := dexscreener.Boost{ChainID: "base", TokenAddress: "0xdead", Amount: 50, TotalAmount: 50}
	m := &dexscreener.TokenMetrics{Name: "Thing", Symbol: "THG", PriceUsd: "0"}

	got := BoostMessage(b, m)
	if !strings.Contains(got, "<b>Social Links:</b>\n"+noLinksPlaceholder) {
		t.Fatalf("expected placeholder under Social Links, got:\n%s", got)
	}
}

func TestBoostMessageOmitsEmptyOptionals(t *testing.T) {
	t.Parallel()

	b := dexscreener.Boost{ChainID: "ton", TokenAddress: "EQabc", Amount: 10, TotalAmount: 20}
	m := &dexscreener.TokenMetrics{Name: "T", Symbol: "T", PriceUsd: "1"}

	got := BoostMessage(b, m)
	if strings.Contains(got, "Description") {
		t.Errorf("description block rendered for empty description")
	}
	if strings.Contains(got, "DexScreener</a>") {
		t.Errorf("link line rendered for empty url")
	}
	// Header still renders even when there is nothing to list under it.
	if !strings.Contains(got, "<b>🔗 Important Links:</b>") {
		t.Errorf("links header missing")
	}
}

func TestBoostMessageEscapesUserText(t *testing.T) {
	t.Parallel()

	b := dexscreener.Boost{
		ChainID:      "eth",
		TokenAddress: "0x1",
		Description:  "buy <now> & profit",
	}
	m := &dexscreener.TokenMetrics{Name: "Cats & Dogs", Symbol: "C<D", PriceUsd: "0"}

	got := BoostMessage(b, m)
	for _, want := range []string{
		"Cats &amp; Dogs",
		"C&lt;D",
		"buy &lt;now&gt; &amp; profit",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing escaped text %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<now>") {
		t.Errorf("unescaped user text leaked into HTML")
	}
}

func TestSocialLinkPlatforms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		platform string
		handle   string
		want     string
	}{
		{"twitter", "alice", `🐦 <a href="https://twitter.com/alice">Twitter</a>`},
		{"telegram", "alicechat", `📱 <a href="https://t.me/alicechat">Telegram</a>`},
		{"discord", "https://discord.gg/abc", `💬 <a href="https://discord.gg/abc">Discord</a>`},
		{"medium", "https://medium.com/@a", `📝 <a href="https://medium.com/@a">Medium</a>`},
		{"github", "https://github.com/a", `💻 <a href="https://github.com/a">Github</a>`},
		{"linktree", "https://linktr.ee/a", `🔗 <a href="https://linktr.ee/a">Linktree</a>`},
		{"TWITTER", "bob", `🐦 <a href="https://twitter.com/bob">Twitter</a>`},
	}
	for _, tc := range cases {
		t.Run(tc.platform, func(t *testing.T) {
			m := &dexscreener.TokenMetrics{
				Socials: []dexscreener.Social{{Platform: tc.platform, Handle: tc.handle}},
			}
			got := socialLinks(m).String()
			if got != tc.want {
				t.Errorf("socialLinks(%s) = %q, want %q", tc.platform, got, tc.want)
			}
		})
	}
}

func TestSocialLinksSkipsIncompleteEntries(t *testing.T) {
	t.Parallel()

	m := &dexscreener.TokenMetrics{
		Websites: []dexscreener.Website{{Label: "x", URL: ""}},
		Socials: []dexscreener.Social{
			{Platform: "", Handle: "orphan"},
			{Platform: "twitter", Handle: ""},
		},
	}
	if got := socialLinks(m).String(); got != noLinksPlaceholder {
		t.Fatalf("socialLinks = %q, want placeholder", got)
	}
}

func TestStatusMessage(t *testing.T) {
	t.Parallel()

	st := Status{
		LastCheck:   time.Date(2025, 6, 1, 9, 30, 5, 0, time.UTC),
		KnownBoosts: 12,
		Interval:    time.Minute,
	}
	got := StatusMessage(st)
	want := "📊 Monitor Status:\n" +
		"Last check: 2025-06-01 09:30:05\n" +
		"Known boosts: 12\n" +
		"Check interval: 60 seconds"
	if got != want {
		t.Fatalf("StatusMessage = %q, want %q", got, want)
	}
}

func TestStatusMessageNeverChecked(t *testing.T) {
	t.Parallel()

	got := StatusMessage(Status{Interval: 30 * time.Second})
	if !strings.Contains(got, "Last check: never") {
		t.Fatalf("zero LastCheck should render as never, got %q", got)
	}
	if !strings.Contains(got, "Check interval: 30 seconds") {
		t.Fatalf("interval line wrong, got %q", got)
	}
}

func TestGreetingMessage(t *testing.T) {
	t.Parallel()

	got := GreetingMessage()
	if !strings.Contains(got, "DexScreener Boost Monitor started!") {
		t.Fatalf("greeting missing intro: %q", got)
	}
	if !strings.Contains(got, "/status") {
		t.Fatalf("greeting should point at /status: %q", got)
	}
}
