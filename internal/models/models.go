package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a monitored address with its display label and the hash of
// the newest transfer already notified. An empty LastSeenTxHash means
// the wallet has never been checked successfully.
type Wallet struct {
	Address        string `json:"address"`
	Label          string `json:"label"`
	LastSeenTxHash string `json:"last_seen_tx_hash"`
}

// TransferEvent is a single on-chain value movement as reported by the
// ledger API. RawValue is an integer string in the token's smallest unit.
type TransferEvent struct {
	Hash          string `json:"hash"`
	Timestamp     int64  `json:"timestamp"`
	From          string `json:"from"`
	To            string `json:"to"`
	TokenSymbol   string `json:"token_symbol"`
	TokenDecimals int32  `json:"token_decimals"`
	RawValue      string `json:"raw_value"`
}

// Amount converts RawValue to token units, exact to the token's decimals.
func (t TransferEvent) Amount() (decimal.Decimal, error) {
	raw, err := decimal.NewFromString(t.RawValue)
	if err != nil {
		return decimal.Zero, err
	}
	return raw.Shift(-t.TokenDecimals), nil
}

// Time returns the transfer timestamp in UTC.
func (t TransferEvent) Time() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}

// Inbound reports whether the transfer moves value into the given
// address. Addresses compare case-insensitively.
func (t TransferEvent) Inbound(address string) bool {
	return strings.EqualFold(t.To, address)
}

// PriceQuote is a cached fiat price for one unit of a token.
type PriceQuote struct {
	Symbol       string
	UnitPriceUSD float64
	FetchedAt    time.Time
	TTL          time.Duration
}

// Expired reports whether the quote is older than its TTL at the given
// instant. Expired quotes are never served.
func (q PriceQuote) Expired(now time.Time) bool {
	return now.Sub(q.FetchedAt) >= q.TTL
}

// Direction classifies a transfer relative to the monitored wallet.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// TransferNotification is the payload built by the monitor for each new
// transfer and handed to the emitter chain.
type TransferNotification struct {
	WalletAddress string          `json:"wallet_address"`
	WalletLabel   string          `json:"wallet_label"`
	Direction     Direction       `json:"direction"`
	TokenSymbol   string          `json:"token_symbol"`
	Amount        decimal.Decimal `json:"amount"`
	FiatUSD       decimal.Decimal `json:"fiat_usd"`
	FiatKnown     bool            `json:"fiat_known"`
	Timestamp     time.Time       `json:"timestamp"`
	TxHash        string          `json:"tx_hash"`
}

// HoldingReport is one line of a cost-basis report. It lives only for
// the duration of a single calculator invocation. PriceKnown is false
// when the current quote was unavailable; NetAmount is still reported
// but the profit/loss is unknown.
type HoldingReport struct {
	Symbol        string
	NetAmount     decimal.Decimal
	AverageCost   decimal.Decimal
	ProfitLossUSD decimal.Decimal
	PriceKnown    bool
}
