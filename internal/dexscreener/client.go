package dexscreener

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	logx "boostbot/pkg/logx"
)

const (
	defaultFeedURL  = "https://api.dexscreener.com/token-boosts/latest/v1"
	defaultPairsURL = "https://api.dexscreener.com/latest/dex/tokens"

	defaultTimeout = 10 * time.Second

	// maxBodyBytes bounds response reads; the feed is small but unowned.
	maxBodyBytes = 4 << 20
)

// StatusError reports a non-2xx response from the API.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dexscreener: %s returned status %d", e.Endpoint, e.Code)
}

type Config struct {
	// FeedURL overrides the token-boosts feed endpoint (tests, mirrors).
	FeedURL string
	// PairsURL overrides the pairs endpoint base; the token address is
	// appended as a path segment.
	PairsURL string
	Timeout  time.Duration
}

type Client struct {
	feedURL  string
	pairsURL string
	http     *http.Client
	log      logx.Logger
}

func NewClient(cfg Config, log logx.Logger) *Client {
	feed := strings.TrimSpace(cfg.FeedURL)
	if feed == "" {
		feed = defaultFeedURL
	}
	pairs := strings.TrimRight(strings.TrimSpace(cfg.PairsURL), "/")
	if pairs == "" {
		pairs = defaultPairsURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		feedURL:  feed,
		pairsURL: pairs,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// LatestBoosts fetches the current boosts feed. The feed publishes either a
// JSON array or a single object; both normalize to a slice.
func (c *Client) LatestBoosts(ctx context.Context) ([]Boost, error) {
	body, err := c.get(ctx, c.feedURL, "boosts")
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errors.New("dexscreener: empty boosts response")
	}
	if trimmed[0] == '[' {
		var out []Boost
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("dexscreener: decode boosts: %w", err)
		}
		c.log.Debug("boosts fetched", logx.Int("count", len(out)))
		return out, nil
	}

	var one Boost
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, fmt.Errorf("dexscreener: decode boost: %w", err)
	}
	c.log.Debug("boosts fetched", logx.Int("count", 1))
	return []Boost{one}, nil
}

// TokenMetrics fetches pair data for a token and reduces it to the metrics
// the notification needs. The pairs endpoint is keyed by address only;
// chainID is used for logging. A token with no pairs yet returns (nil, nil):
// absent metrics is not an error.
func (c *Client) TokenMetrics(ctx context.Context, chainID, tokenAddress string) (*TokenMetrics, error) {
	addr := strings.TrimSpace(tokenAddress)
	if addr == "" {
		return nil, errors.New("dexscreener: token address is empty")
	}

	body, err := c.get(ctx, c.pairsURL+"/"+url.PathEscape(addr), "pairs")
	if err != nil {
		return nil, err
	}

	var resp pairsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener: decode pairs: %w", err)
	}
	if len(resp.Pairs) == 0 {
		c.log.Debug("no pairs for token", logx.String("chain", chainID), logx.String("token", addr))
		return nil, nil
	}

	// Pairs arrive ordered by relevance; the first one wins.
	p := resp.Pairs[0]
	m := &TokenMetrics{
		Name:         p.BaseToken.Name,
		Symbol:       p.BaseToken.Symbol,
		PriceUsd:     strings.TrimSpace(p.PriceUsd),
		MarketCap:    p.MarketCap,
		FDV:          p.FDV,
		LiquidityUsd: p.Liquidity.USD,
		Websites:     p.Info.Websites,
		Socials:      p.Info.Socials,
	}
	if m.PriceUsd == "" {
		m.PriceUsd = "0"
	}
	return m, nil
}

func (c *Client) get(ctx context.Context, rawURL, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dexscreener: build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener: %s request: %w", endpoint, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("dexscreener: read %s response: %w", endpoint, err)
	}
	return body, nil
}
