package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	http_client "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/fhttp/cookiejar"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// DexClientConfig configures the browser-shaped DEX aggregator client. The
// source ecosystem's public aggregator APIs front-end their data behind
// bot-detection middleware, so the client presents as a real browser
// session the way a browser would.
type DexClientConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RateLimitDelay time.Duration
}

// dexClient implements DexAggregator over a TLS-fingerprinted HTTP client.
type dexClient struct {
	cfg         DexClientConfig
	tlsClient   tls_client.HttpClient
	lastRequest time.Time
}

// NewDexClient builds the DEX aggregator client.
func NewDexClient(cfg DexClientConfig) DexAggregator {
	jar, _ := cookiejar.New(nil)
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(cfg.RequestTimeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithCookieJar(jar),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithRandomTLSExtensionOrder(),
	}
	tlsClient, _ := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)

	return &dexClient{
		cfg:         cfg,
		tlsClient:   tlsClient,
		lastRequest: time.Now().Add(-cfg.RateLimitDelay),
	}
}

type dexTokenResponse struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	PriceUSD       float64 `json:"price_usd"`
	MarketCap      float64 `json:"market_cap"`
	LiquidityUSD   float64 `json:"liquidity_usd"`
	Volume24h      float64 `json:"volume_24h"`
	Buys24h        int     `json:"buys_24h"`
	Sells24h       int     `json:"sells_24h"`
	UniqueBuyers   int     `json:"unique_buyers_24h"`
	PriceChange1h  float64 `json:"price_change_1h"`
	PriceChange6h  float64 `json:"price_change_6h"`
	PriceChange24h float64 `json:"price_change_24h"`
	Twitter        string  `json:"twitter"`
	Website        string  `json:"website"`
	Telegram       string  `json:"telegram"`
}

// TokenData fetches the DEX aggregator's view of a token.
func (c *dexClient) TokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error) {
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RateLimitDelay {
		select {
		case <-time.After(c.cfg.RateLimitDelay - elapsed):
		case <-ctx.Done():
			return providers.TokenData{}, ctx.Err()
		}
	}
	c.lastRequest = time.Now()

	url := fmt.Sprintf("%s/api/v1/tokens/%s", c.cfg.BaseURL, token)
	req, err := http_client.NewRequestWithContext(ctx, http_client.MethodGet, url, nil)
	if err != nil {
		return providers.TokenData{}, fmt.Errorf("building dex request: %w", err)
	}
	req.Header = c.headers()

	resp, err := c.tlsClient.Do(req)
	if err != nil {
		return providers.TokenData{}, fmt.Errorf("dex request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.TokenData{}, fmt.Errorf("reading dex response: %w", err)
	}

	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "text/html") {
		return providers.TokenData{}, fmt.Errorf("dex aggregator returned an html challenge page")
	}

	var parsed dexTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return providers.TokenData{}, fmt.Errorf("decoding dex response: %w", err)
	}

	return providers.TokenData{
		Symbol:         parsed.Symbol,
		Name:           parsed.Name,
		PriceUSD:       parsed.PriceUSD,
		MarketCap:      parsed.MarketCap,
		LiquidityUSD:   parsed.LiquidityUSD,
		Volume24h:      parsed.Volume24h,
		Buys24h:        parsed.Buys24h,
		Sells24h:       parsed.Sells24h,
		UniqueBuyers:   parsed.UniqueBuyers,
		PriceChange1h:  parsed.PriceChange1h,
		PriceChange6h:  parsed.PriceChange6h,
		PriceChange24h: parsed.PriceChange24h,
		Socials: providers.Socials{
			Twitter:  parsed.Twitter,
			Website:  parsed.Website,
			Telegram: parsed.Telegram,
		},
	}, nil
}

func (c *dexClient) headers() http_client.Header {
	return http_client.Header{
		"accept":          []string{"application/json"},
		"accept-language": []string{"en-US,en;q=0.9"},
		"user-agent":      []string{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	}
}
