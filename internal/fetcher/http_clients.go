package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sentinelsignal/sentinel/pkg/models"
	"github.com/sentinelsignal/sentinel/pkg/providers"
)

// retryBackoff is the fixed exponential backoff applied to every simple
// HTTP provider client: the first attempt plus three retries after 200ms,
// 400ms, 800ms.
var retryBackoff = []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}

// doJSON issues a GET against url and decodes the JSON body into out,
// retrying transient failures (non-2xx, network error) on the fixed
// backoff schedule. The final attempt's error is returned on exhaustion.
func doJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= len(retryBackoff); attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff[attempt-1]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("upstream returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted retries: %w", lastErr)
}

// onChainClient is the secondary market-data source and the sole source of
// GetMetadata, queried directly against chain-indexed data rather than a
// DEX aggregator's view.
type onChainClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewOnChainClient builds the on-chain data provider client.
func NewOnChainClient(baseURL string, timeout time.Duration) OnChainProvider {
	return &onChainClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type onChainTokenResponse struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	PriceUSD       float64 `json:"price_usd"`
	MarketCap      float64 `json:"market_cap"`
	LiquidityUSD   float64 `json:"liquidity_usd"`
	Volume24h      float64 `json:"volume_24h"`
	Buys24h        int     `json:"buys_24h"`
	Sells24h       int     `json:"sells_24h"`
	PriceChange1h  float64 `json:"price_change_1h"`
	PriceChange6h  float64 `json:"price_change_6h"`
	PriceChange24h float64 `json:"price_change_24h"`
}

func (c *onChainClient) TokenData(ctx context.Context, token models.TokenAddress) (providers.TokenData, error) {
	var parsed onChainTokenResponse
	url := fmt.Sprintf("%s/tokens/%s", c.baseURL, token)
	if err := doJSON(ctx, c.httpClient, url, &parsed); err != nil {
		return providers.TokenData{}, err
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
		PriceChange1h:  parsed.PriceChange1h,
		PriceChange6h:  parsed.PriceChange6h,
		PriceChange24h: parsed.PriceChange24h,
	}, nil
}

type onChainMetadataResponse struct {
	Tokens []struct {
		Address     string `json:"address"`
		Symbol      string `json:"symbol"`
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"tokens"`
}

// Metadata fetches descriptive records for a batch of tokens in one call.
func (c *onChainClient) Metadata(ctx context.Context, tokens []models.TokenAddress) (map[models.TokenAddress]providers.Metadata, error) {
	if len(tokens) == 0 {
		return map[models.TokenAddress]providers.Metadata{}, nil
	}

	addrs := make([]byte, 0, len(tokens)*45)
	for i, t := range tokens {
		if i > 0 {
			addrs = append(addrs, ',')
		}
		addrs = append(addrs, []byte(t)...)
	}

	var parsed onChainMetadataResponse
	url := fmt.Sprintf("%s/tokens/metadata?addresses=%s", c.baseURL, string(addrs))
	if err := doJSON(ctx, c.httpClient, url, &parsed); err != nil {
		return nil, err
	}

	result := make(map[models.TokenAddress]providers.Metadata, len(parsed.Tokens))
	for _, tok := range parsed.Tokens {
		result[models.TokenAddress(tok.Address)] = providers.Metadata{
			Symbol:      tok.Symbol,
			Name:        tok.Name,
			Description: tok.Description,
		}
	}
	return result, nil
}

// bondingCurveClient exposes pre-graduation launchpad curve state.
type bondingCurveClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewBondingCurveClient builds the bonding-curve API client.
func NewBondingCurveClient(baseURL string, timeout time.Duration) BondingCurveAPI {
	return &bondingCurveClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type bondingCurveResponse struct {
	ProgressPct float64 `json:"progress_pct"`
	Reserves    float64 `json:"reserves"`
	Graduated   bool    `json:"graduated"`
}

func (c *bondingCurveClient) BondingCurve(ctx context.Context, token models.TokenAddress) (providers.BondingCurve, error) {
	var parsed bondingCurveResponse
	url := fmt.Sprintf("%s/curve/%s", c.baseURL, token)
	if err := doJSON(ctx, c.httpClient, url, &parsed); err != nil {
		return providers.BondingCurve{}, err
	}
	return providers.BondingCurve{
		ProgressPct: parsed.ProgressPct,
		Reserves:    parsed.Reserves,
		Graduated:   parsed.Graduated,
	}, nil
}

// securityScoreClient exposes holder concentration and rug-risk scoring.
type securityScoreClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewSecurityScoreClient builds the security-score API client.
func NewSecurityScoreClient(baseURL string, timeout time.Duration) SecurityScoreAPI {
	return &securityScoreClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

type holdersResponse struct {
	HolderCount int     `json:"holder_count"`
	Top10Pct    float64 `json:"top_10_pct"`
	Top3Pct     float64 `json:"top_3_pct"`
	Top1Pct     float64 `json:"top_1_pct"`
}

func (c *securityScoreClient) Holders(ctx context.Context, token models.TokenAddress) (providers.HolderDistribution, error) {
	var parsed holdersResponse
	url := fmt.Sprintf("%s/holders/%s", c.baseURL, token)
	if err := doJSON(ctx, c.httpClient, url, &parsed); err != nil {
		return providers.HolderDistribution{}, err
	}
	return providers.HolderDistribution{
		HolderCount: parsed.HolderCount,
		Top10Pct:    parsed.Top10Pct,
		Top3Pct:     parsed.Top3Pct,
		Top1Pct:     parsed.Top1Pct,
	}, nil
}

type rugCheckResponse struct {
	Score float64 `json:"score"`
}

func (c *securityScoreClient) RugCheck(ctx context.Context, token models.TokenAddress) (providers.RugScore, error) {
	var parsed rugCheckResponse
	url := fmt.Sprintf("%s/rugcheck/%s", c.baseURL, token)
	if err := doJSON(ctx, c.httpClient, url, &parsed); err != nil {
		return providers.RugScore{}, err
	}
	return providers.RugScore{
		Score:     parsed.Score,
		FetchedAt: time.Now(),
	}, nil
}
