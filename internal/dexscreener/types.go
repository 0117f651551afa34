package dexscreener

// Boost is one entry of the token-boosts feed. Fields the bot does not use
// (icons, headers, open-graph images) are ignored on decode.
type Boost struct {
	ChainID      string  `json:"chainId"`
	TokenAddress string  `json:"tokenAddress"`
	Amount       float64 `json:"amount"`
	TotalAmount  float64 `json:"totalAmount"`
	Description  string  `json:"description,omitempty"`
	URL          string  `json:"url,omitempty"`
}

// Key is the identity of a boost event: one boost per chain+token for the
// lifetime of the process.
func (b Boost) Key() string { return b.ChainID + "_" + b.TokenAddress }

// TokenMetrics is the enrichment data taken from the first pair returned by
// the pairs endpoint. PriceUsd stays a string: the API publishes it as a
// decimal string and reformatting happens at render time.
type TokenMetrics struct {
	Name         string
	Symbol       string
	PriceUsd     string
	MarketCap    float64
	FDV          float64
	LiquidityUsd float64
	Websites     []Website
	Socials      []Social
}

type Website struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Social struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
}

// pairsResponse mirrors the slice of the pairs payload the bot reads.
type pairsResponse struct {
	Pairs []pairEntry `json:"pairs"`
}

type pairEntry struct {
	BaseToken struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	PriceUsd  string  `json:"priceUsd"`
	MarketCap float64 `json:"marketCap"`
	FDV       float64 `json:"fdv"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Info struct {
		Websites []Website `json:"websites"`
		Socials  []Social  `json:"socials"`
	} `json:"info"`
}
