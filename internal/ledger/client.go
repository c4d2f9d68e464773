package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"wallet-monitor/internal/models"
)

// ErrUnavailable marks a transport-level failure (DNS, timeout,
// connection refused). The caller retries on its next poll cycle; no
// retry happens inside the client.
var ErrUnavailable = errors.New("ledger unavailable")

const (
	nativeSymbol   = "ETH"
	nativeDecimals = 18
)

// Client is a typed wrapper over an Etherscan-compatible transaction
// ledger API. Every call fetches the full history for one address,
// newest first, with pagination disabled.
type Client struct {
	endpoint    string
	apiKey      string
	rateLimiter *rate.Limiter
	httpClient  *http.Client
	logger      *zerolog.Logger
}

// NewClient creates a ledger client with a bounded timeout and a
// client-side rate limit on outbound requests.
func NewClient(endpoint, apiKey string, rateLimit float64, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		endpoint:    endpoint,
		apiKey:      apiKey,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// apiResponse is the ledger API envelope. Result stays raw so that a
// non-success status with a message payload still decodes.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// apiTransfer mirrors one row of the ledger result. All fields arrive
// as strings.
type apiTransfer struct {
	Hash         string `json:"hash"`
	TimeStamp    string `json:"timeStamp"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenDecimal string `json:"tokenDecimal"`
}

// FetchTransfers returns the address's transfer history, newest first.
// An address with no history yields an empty slice. A transport failure
// returns ErrUnavailable; an API-reported non-success status or a
// malformed body is logged as a warning and treated as an empty result.
func (c *Client) FetchTransfers(ctx context.Context, address string) ([]models.TransferEvent, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("sort", "desc")
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address).Msg("Ledger request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("address", address).
			Msg("Ledger returned non-OK HTTP status")
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.logger.Warn().Err(err).Str("address", address).Msg("Malformed ledger response")
		return []models.TransferEvent{}, nil
	}

	if envelope.Status != "1" {
		// "No transactions found" arrives as status 0; both it and real
		// upstream errors degrade to an empty history.
		c.logger.Warn().
			Str("address", address).
			Str("apiStatus", envelope.Status).
			Str("apiMessage", envelope.Message).
			Msg("Ledger reported non-success status")
		return []models.TransferEvent{}, nil
	}

	var rows []apiTransfer
	if err := json.Unmarshal(envelope.Result, &rows); err != nil {
		c.logger.Warn().Err(err).Str("address", address).Msg("Malformed ledger result")
		return []models.TransferEvent{}, nil
	}

	transfers := make([]models.TransferEvent, 0, len(rows))
	for _, row := range rows {
		transfers = append(transfers, row.toEvent())
	}
	return transfers, nil
}

func (r apiTransfer) toEvent() models.TransferEvent {
	ts, _ := strconv.ParseInt(r.TimeStamp, 10, 64)

	symbol := r.TokenSymbol
	decimals := int32(nativeDecimals)
	if symbol == "" {
		// Plain value transfers carry no token metadata.
		symbol = nativeSymbol
	} else if d, err := strconv.Atoi(r.TokenDecimal); err == nil {
		decimals = int32(d)
	}

	return models.TransferEvent{
		Hash:          r.Hash,
		Timestamp:     ts,
		From:          r.From,
		To:            r.To,
		TokenSymbol:   symbol,
		TokenDecimals: decimals,
		RawValue:      r.Value,
	}
}
