package report

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wallet-monitor/internal/interfaces"
	"wallet-monitor/internal/models"
)

// Calculator rebuilds per-token holdings and average cost from the full
// transfer history of an address, on demand. It re-pulls the ledger
// independently of the monitor's stored state.
type Calculator struct {
	ledger interfaces.LedgerSource
	prices interfaces.PriceSource
	logger *zerolog.Logger
}

func NewCalculator(source interfaces.LedgerSource, prices interfaces.PriceSource, logger *zerolog.Logger) *Calculator {
	return &Calculator{ledger: source, prices: prices, logger: logger}
}

type position struct {
	symbol string
	net    decimal.Decimal
	inflow decimal.Decimal
}

// ComputeReport returns one entry per token with a positive net amount,
// ordered by first appearance in the history (oldest transfer first).
// Average cost is the cost-weighted mean over the inflow transfers,
// priced at the current quote; this is a deliberate simplification, not
// a historical cost basis. Token amounts are decimal-exact; rounding
// happens only at presentation time.
func (c *Calculator) ComputeReport(ctx context.Context, address string) ([]models.HoldingReport, error) {
	transfers, err := c.ledger.FetchTransfers(ctx, address)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]*position)
	var order []string

	// The ledger returns newest first; walk backwards so symbols are
	// discovered in chronological order.
	for i := len(transfers) - 1; i >= 0; i-- {
		t := transfers[i]

		amount, err := t.Amount()
		if err != nil {
			c.logger.Warn().Err(err).Str("txHash", t.Hash).Msg("Skipping unparseable transfer value")
			continue
		}

		pos, ok := positions[t.TokenSymbol]
		if !ok {
			pos = &position{symbol: t.TokenSymbol}
			positions[t.TokenSymbol] = pos
			order = append(order, t.TokenSymbol)
		}

		if t.Inbound(address) {
			pos.net = pos.net.Add(amount)
			pos.inflow = pos.inflow.Add(amount)
		} else {
			pos.net = pos.net.Sub(amount)
		}
	}

	reports := make([]models.HoldingReport, 0, len(order))
	for _, symbol := range order {
		pos := positions[symbol]

		// Closed or empty positions are not reported.
		if pos.net.Sign() <= 0 {
			continue
		}

		entry := models.HoldingReport{Symbol: symbol, NetAmount: pos.net}

		quote, ok := c.prices.GetPrice(ctx, symbol)
		if !ok {
			reports = append(reports, entry)
			continue
		}

		price := decimal.NewFromFloat(quote.UnitPriceUSD)

		// Every inflow is costed at the current quote, so the weighted
		// mean collapses to the quote itself; spelled out anyway to
		// keep the contract explicit.
		totalCost := pos.inflow.Mul(price)
		entry.AverageCost = totalCost.Div(pos.inflow)
		entry.ProfitLossUSD = price.Sub(entry.AverageCost).Mul(pos.net)
		entry.PriceKnown = true

		reports = append(reports, entry)
	}
	return reports, nil
}
