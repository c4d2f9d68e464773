package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Oracle resolves the current USD price of one token unit. The endpoint
// is idempotent and safe to call redundantly.
type Oracle interface {
	FetchUSDPrice(ctx context.Context, symbol string) (float64, error)
}

// OracleClient calls a CoinGecko-style simple-price endpoint: GET keyed
// by lowercase symbol, response JSON mapping symbol -> {"usd": n}.
type OracleClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewOracleClient(endpoint string, timeout time.Duration) *OracleClient {
	return &OracleClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (o *OracleClient) FetchUSDPrice(ctx context.Context, symbol string) (float64, error) {
	sym := strings.ToLower(symbol)

	q := url.Values{}
	q.Set("symbols", sym)
	q.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price oracle returned status: %d", resp.StatusCode)
	}

	var result map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode oracle response: %w", err)
	}

	entry, ok := result[sym]
	if !ok {
		return 0, fmt.Errorf("no quote for symbol %q", sym)
	}
	return entry.USD, nil
}
