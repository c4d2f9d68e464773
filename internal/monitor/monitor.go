package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wallet-monitor/internal/interfaces"
	"wallet-monitor/internal/ledger"
	"wallet-monitor/internal/models"
)

// Monitor is the per-wallet transaction-diff poller. A single fixed
// period ticker drives it across all wallets; wallets are processed
// sequentially within a tick, so no two ticks for the same wallet ever
// overlap.
type Monitor struct {
	store      interfaces.WalletStore
	ledger     interfaces.LedgerSource
	prices     interfaces.PriceSource
	emitter    interfaces.EventEmitter
	interval   time.Duration
	maxPerTick int
	logger     *zerolog.Logger

	// onTick, when set, is invoked after each completed tick with the
	// number of wallets processed. Wired to the health endpoints.
	onTick func(wallets int)
}

func New(store interfaces.WalletStore, source interfaces.LedgerSource, prices interfaces.PriceSource,
	emitter interfaces.EventEmitter, interval time.Duration, maxPerTick int, logger *zerolog.Logger) *Monitor {
	if maxPerTick < 1 {
		maxPerTick = 1
	}
	return &Monitor{
		store:      store,
		ledger:     source,
		prices:     prices,
		emitter:    emitter,
		interval:   interval,
		maxPerTick: maxPerTick,
		logger:     logger,
	}
}

// OnTick registers a completion hook. Must be called before Run.
func (m *Monitor) OnTick(fn func(wallets int)) {
	m.onTick = fn
}

// Run drives ticks at the configured interval until the context is
// cancelled. Upstream failures degrade individual wallets to a no-op;
// nothing here is fatal.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info().Dur("interval", m.interval).Msg("Starting wallet monitor")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Stopping wallet monitor")
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick polls every wallet once, sequentially.
func (m *Monitor) Tick(ctx context.Context) {
	wallets, err := m.store.List(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to list wallets")
		return
	}

	for _, w := range wallets {
		m.checkWallet(ctx, w)
	}

	if m.onTick != nil {
		m.onTick(len(wallets))
	}
}

// checkWallet fetches the wallet's history, emits one notification per
// transfer not yet seen (oldest first), then advances the stored hash
// to the newest. The hash is persisted after the delivery attempt, so a
// crash in between may duplicate a notification on the next tick; that
// is the accepted at-least-once failure mode.
func (m *Monitor) checkWallet(ctx context.Context, w models.Wallet) {
	transfers, err := m.ledger.FetchTransfers(ctx, w.Address)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			m.logger.Warn().Err(err).Str("address", w.Address).Msg("Ledger unavailable, skipping wallet")
		} else {
			m.logger.Error().Err(err).Str("address", w.Address).Msg("Failed to fetch transfers")
		}
		return
	}
	if len(transfers) == 0 {
		return
	}

	newest := transfers[0]
	if newest.Hash == w.LastSeenTxHash {
		return
	}

	for _, t := range m.unseen(transfers, w.LastSeenTxHash) {
		event := m.buildNotification(ctx, w, t)
		if err := m.emitter.EmitEvent(ctx, event); err != nil {
			m.logger.Warn().
				Err(err).
				Str("address", w.Address).
				Str("txHash", t.Hash).
				Msg("Notification delivery failed")
		}
	}

	if err := m.store.SetLastSeenTxHash(ctx, w.Address, newest.Hash); err != nil {
		m.logger.Error().Err(err).Str("address", w.Address).Msg("Failed to persist last seen hash")
	}
}

// unseen returns the transfers strictly newer than lastSeen in
// chronological order. A wallet checked for the first time surfaces
// only its newest transfer, so freshly registered wallets do not replay
// their whole history. If the stored hash fell out of the fetched
// window, everything up to the per-tick cap counts as new.
func (m *Monitor) unseen(transfers []models.TransferEvent, lastSeen string) []models.TransferEvent {
	if lastSeen == "" {
		return transfers[:1]
	}

	cut := len(transfers)
	for i, t := range transfers {
		if t.Hash == lastSeen {
			cut = i
			break
		}
	}
	if cut > m.maxPerTick {
		m.logger.Warn().
			Int("new", cut).
			Int("cap", m.maxPerTick).
			Msg("More new transfers than per-tick cap, dropping oldest")
		cut = m.maxPerTick
	}

	fresh := make([]models.TransferEvent, 0, cut)
	for i := cut - 1; i >= 0; i-- {
		fresh = append(fresh, transfers[i])
	}
	return fresh
}

func (m *Monitor) buildNotification(ctx context.Context, w models.Wallet, t models.TransferEvent) models.TransferNotification {
	direction := models.DirectionOut
	if t.Inbound(w.Address) {
		direction = models.DirectionIn
	}

	amount, err := t.Amount()
	if err != nil {
		m.logger.Warn().Err(err).Str("txHash", t.Hash).Msg("Unparseable transfer value")
	}

	event := models.TransferNotification{
		WalletAddress: w.Address,
		WalletLabel:   w.Label,
		Direction:     direction,
		TokenSymbol:   t.TokenSymbol,
		Amount:        amount,
		Timestamp:     t.Time(),
		TxHash:        t.Hash,
	}

	if quote, ok := m.prices.GetPrice(ctx, t.TokenSymbol); ok {
		event.FiatUSD = amount.Mul(decimal.NewFromFloat(quote.UnitPriceUSD))
		event.FiatKnown = true
	}
	return event
}
