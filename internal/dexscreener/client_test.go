package dexscreener

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	logx "boostbot/pkg/logx"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		FeedURL:  srv.URL + "/boosts",
		PairsURL: srv.URL + "/tokens",
	}, logx.Nop())
	return c, srv
}

func TestLatestBoostsArray(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/boosts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"chainId":"solana","tokenAddress":"So1111","amount":500,"totalAmount":1500,"url":"https://dexscreener.com/solana/So1111"},
			{"chainId":"bsc","tokenAddress":"0xabc","amount":100,"totalAmount":100,"description":"memecoin"}
		]`))
	}))

	got, err := c.LatestBoosts(context.Background())
	if err != nil {
		t.Fatalf("LatestBoosts error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ChainID != "solana" || got[0].TokenAddress != "So1111" {
		t.Fatalf("first boost = %+v", got[0])
	}
	if got[0].Key() != "solana_So1111" {
		t.Fatalf("Key() = %q, want %q", got[0].Key(), "solana_So1111")
	}
	if got[1].Description != "memecoin" || got[1].Amount != 100 {
		t.Fatalf("second boost = %+v", got[1])
	}
}

func TestLatestBoostsSingleObject(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chainId":"ton","tokenAddress":"EQxyz","amount":25,"totalAmount":75}`))
	}))

	got, err := c.LatestBoosts(context.Background())
	if err != nil {
		t.Fatalf("LatestBoosts error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Key() != "ton_EQxyz" || got[0].TotalAmount != 75 {
		t.Fatalf("boost = %+v", got[0])
	}
}

func TestLatestBoostsStatusError(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))

	_, err := c.LatestBoosts(context.Background())
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not *StatusError", err)
	}
	if se.Code != http.StatusTooManyRequests || se.Endpoint != "boosts" {
		t.Fatalf("StatusError = %+v", se)
	}
}

func TestLatestBoostsMalformed(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chainId": `))
	}))

	if _, err := c.LatestBoosts(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestTokenMetricsFirstPairWins(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tokens/So1111" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"pairs":[
			{"baseToken":{"name":"Alpha","symbol":"ALP"},"priceUsd":"0.00012345","marketCap":2500000,"fdv":3000000,
			 "liquidity":{"usd":120000},
			 "info":{"websites":[{"label":"Website","url":"https://alpha.example"}],
			         "socials":[{"platform":"twitter","handle":"alpha"}]}},
			{"baseToken":{"name":"Shadow","symbol":"SHD"},"priceUsd":"9.99","marketCap":1,"fdv":1,"liquidity":{"usd":1}}
		]}`))
	}))

	m, err := c.TokenMetrics(context.Background(), "solana", "So1111")
	if err != nil {
		t.Fatalf("TokenMetrics error: %v", err)
	}
	if m == nil {
		t.Fatal("metrics = nil, want first pair")
	}
	if m.Name != "Alpha" || m.Symbol != "ALP" {
		t.Fatalf("base token = %s (%s)", m.Name, m.Symbol)
	}
	if m.PriceUsd != "0.00012345" || m.MarketCap != 2500000 || m.FDV != 3000000 || m.LiquidityUsd != 120000 {
		t.Fatalf("metrics = %+v", m)
	}
	if len(m.Websites) != 1 || m.Websites[0].URL != "https://alpha.example" {
		t.Fatalf("websites = %+v", m.Websites)
	}
	if len(m.Socials) != 1 || m.Socials[0].Platform != "twitter" || m.Socials[0].Handle != "alpha" {
		t.Fatalf("socials = %+v", m.Socials)
	}
}

func TestTokenMetricsNoPairs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{name: "empty array", body: `{"pairs":[]}`},
		{name: "null pairs", body: `{"pairs":null}`},
		{name: "missing key", body: `{}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			m, err := c.TokenMetrics(context.Background(), "bsc", "0xabc")
			if err != nil {
				t.Fatalf("TokenMetrics error: %v", err)
			}
			if m != nil {
				t.Fatalf("metrics = %+v, want nil", m)
			}
		})
	}
}

func TestTokenMetricsDefaults(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pairs":[{"baseToken":{"name":"Bare","symbol":"BR"}}]}`))
	}))

	m, err := c.TokenMetrics(context.Background(), "bsc", "0xabc")
	if err != nil {
		t.Fatalf("TokenMetrics error: %v", err)
	}
	if m == nil {
		t.Fatal("metrics = nil")
	}
	if m.PriceUsd != "0" {
		t.Fatalf("PriceUsd = %q, want \"0\"", m.PriceUsd)
	}
	if m.MarketCap != 0 || m.FDV != 0 || m.LiquidityUsd != 0 {
		t.Fatalf("numeric defaults = %+v", m)
	}
	if len(m.Websites) != 0 || len(m.Socials) != 0 {
		t.Fatalf("links should be empty, got %+v / %+v", m.Websites, m.Socials)
	}
}

func TestTokenMetricsEmptyAddress(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{}, logx.Nop())
	if _, err := c.TokenMetrics(context.Background(), "bsc", "  "); err == nil {
		t.Fatal("expected error for empty address")
	}
}
