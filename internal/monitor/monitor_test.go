package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wallet-monitor/internal/ledger"
	"wallet-monitor/internal/models"
	"wallet-monitor/internal/store"
)

// fakeLedger serves canned histories per address, or a fixed error.
type fakeLedger struct {
	histories map[string][]models.TransferEvent
	err       error
}

func (f *fakeLedger) FetchTransfers(_ context.Context, address string) ([]models.TransferEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.histories[address], nil
}

// staticPrices serves a fixed price for every symbol, or misses entirely.
type staticPrices struct {
	price float64
	miss  bool
}

func (s *staticPrices) GetPrice(_ context.Context, symbol string) (models.PriceQuote, bool) {
	if s.miss {
		return models.PriceQuote{}, false
	}
	return models.PriceQuote{Symbol: symbol, UnitPriceUSD: s.price, FetchedAt: time.Now(), TTL: time.Minute}, true
}

// mockEmitter records emitted events, optionally failing every emit.
type mockEmitter struct {
	mu        sync.Mutex
	events    []models.TransferNotification
	emitError error
}

func (m *mockEmitter) EmitEvent(_ context.Context, event models.TransferNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emitError != nil {
		return m.emitError
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockEmitter) Events() []models.TransferNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]models.TransferNotification, len(m.events))
	copy(events, m.events)
	return events
}

func setupTestMonitor(t *testing.T, histories map[string][]models.TransferEvent) (*Monitor, *store.Memory, *fakeLedger, *mockEmitter) {
	t.Helper()
	logger := zerolog.New(nil)
	walletStore := store.NewMemory()
	source := &fakeLedger{histories: histories}
	emitter := &mockEmitter{}
	m := New(walletStore, source, &staticPrices{price: 2}, emitter, time.Second, 10, &logger)
	return m, walletStore, source, emitter
}

func transfer(hash string, ts int64, to string) models.TransferEvent {
	return models.TransferEvent{
		Hash:          hash,
		Timestamp:     ts,
		From:          "0xdef",
		To:            to,
		TokenSymbol:   "ETH",
		TokenDecimals: 18,
		RawValue:      "1000000000000000000",
	}
}

func TestTickNotifiesNewTransferAndAdvancesHash(t *testing.T) {
	history := []models.TransferEvent{transfer("h1", 1700000000, "0xA")}
	m, walletStore, _, emitter := setupTestMonitor(t, map[string][]models.TransferEvent{"0xa": history})

	ctx := context.Background()
	if err := walletStore.Put(ctx, "0xA", "Wallet1"); err != nil {
		t.Fatal(err)
	}

	m.Tick(ctx)

	events := emitter.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(events))
	}
	if events[0].TxHash != "h1" {
		t.Errorf("unexpected tx hash: %s", events[0].TxHash)
	}
	if events[0].Direction != models.DirectionIn {
		t.Errorf("expected inbound direction, got %s", events[0].Direction)
	}
	if events[0].Amount.String() != "1" {
		t.Errorf("expected amount 1, got %s", events[0].Amount.String())
	}
	if !events[0].FiatKnown || events[0].FiatUSD.StringFixed(2) != "2.00" {
		t.Errorf("unexpected fiat value: %s known=%v", events[0].FiatUSD.String(), events[0].FiatKnown)
	}

	w, ok, _ := walletStore.Get(ctx, "0xa")
	if !ok || w.LastSeenTxHash != "h1" {
		t.Errorf("expected stored hash h1, got %q", w.LastSeenTxHash)
	}
}

func TestTickIsIdempotentOnUnchangedLedger(t *testing.T) {
	history := []models.TransferEvent{transfer("h1", 1700000000, "0xA")}
	m, walletStore, _, emitter := setupTestMonitor(t, map[string][]models.TransferEvent{"0xa": history})

	ctx := context.Background()
	_ = walletStore.Put(ctx, "0xA", "Wallet1")

	m.Tick(ctx)
	m.Tick(ctx)

	if got := len(emitter.Events()); got != 1 {
		t.Fatalf("second poll with unchanged ledger must emit nothing, got %d total", got)
	}
}

func TestTickTransportFailureChangesNothing(t *testing.T) {
	m, walletStore, source, emitter := setupTestMonitor(t, nil)
	source.err = ledger.ErrUnavailable

	ctx := context.Background()
	_ = walletStore.Put(ctx, "0xA", "Wallet1")

	m.Tick(ctx)

	if len(emitter.Events()) != 0 {
		t.Error("no notification expected on transport failure")
	}
	w, _, _ := walletStore.Get(ctx, "0xa")
	if w.LastSeenTxHash != "" {
		t.Errorf("store must not be mutated on failure, got %q", w.LastSeenTxHash)
	}
}

func TestTickEmptyHistoryIsNoop(t *testing.T) {
	m, walletStore, _, emitter := setupTestMonitor(t, map[string][]models.TransferEvent{"0xa": {}})

	ctx := context.Background()
	_ = walletStore.Put(ctx, "0xA", "Wallet1")

	m.Tick(ctx)

	if len(emitter.Events()) != 0 {
		t.Error("empty history must emit nothing")
	}
}

func TestTickEmitsAllUnseenOldestFirst(t *testing.T) {
	first := []models.TransferEvent{transfer("h1", 1700000000, "0xA")}
	m, walletStore, source, emitter := setupTestMonitor(t, map[string][]models.TransferEvent{"0xa": first})

	ctx := context.Background()
	_ = walletStore.Put(ctx, "0xA", "Wallet1")
	m.Tick(ctx)

	// Three more transfers arrive between polls.
	source.histories["0xa"] = []models.TransferEvent{
		transfer("h4", 1700000300, "0xdef"),
		transfer("h3", 1700000200, "0xA"),
		transfer("h2", 1700000100, "0xA"),
		transfer("h1", 1700000000, "0xA"),
	}
	m.Tick(ctx)

	events := emitter.Events()
	if len(events) != 4 {
		t.Fatalf("expected 4 notifications in total, got %d", len(events))
	}
	got := []string{events[1].TxHash, events[2].TxHash, events[3].TxHash}
	want := []string{"h2", "h3", "h4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected oldest-first emission %v, got %v", want, got)
		}
	}
	if events[3].Direction != models.DirectionOut {
		t.Errorf("transfer to another address must be outbound, got %s", events[3].Direction)
	}

	w, _, _ := walletStore.Get(ctx, "0xa")
	if w.LastSeenTxHash != "h4" {
		t.Errorf("expected stored hash h4, got %q", w.LastSeenTxHash)
	}
}

func TestTickCapsTransfersPerWallet(t *testing.T) {
	history := []models.TransferEvent{
		transfer("h5", 1700000400, "0xA"),
		transfer("h4", 1700000300, "0xA"),
		transfer("h3", 1700000200, "0xA"),
		transfer("h2", 1700000100, "0xA"),
		transfer("h1", 1700000000, "0xA"),
	}
	logger := zerolog.New(nil)
	walletStore := store.NewMemory()
	emitter := &mockEmitter{}
	m := New(walletStore, &fakeLedger{histories: map[string][]models.TransferEvent{"0xa": history}},
		&staticPrices{price: 2}, emitter, time.Second, 2, &logger)

	ctx := context.Background()
	_ = walletStore.Put(ctx, "0xA", "Wallet1")
	_ = walletStore.SetLastSeenTxHash(ctx, "0xA", "h1")

	m.Tick(ctx)

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("expected cap of 2 notifications, got %d", len(events))
	}
	// The newest transfers win; the oldest beyond the cap are dropped.
	if events[0].TxHash != "h4" || events[1].TxHash != "h5" {
		t.Errorf("expected h4 then h5, got %s then %s", events[0].TxHash, events[1].TxHash)
	}
}

func TestTickPersistsHashEvenWhenDeliveryFails(t *testing.T) {
	history := []models.TransferEvent{transfer("h1", 1700000000, "0xA")}
	m, walletStore, _, emitter := setupTestMonitor(t, map[string][]models.TransferEvent{"0xa": history})
	emitter.emitError = errors.New("sink down")

	ctx := context.Background()
	_ = walletStore.Put(ctx, "0xA", "Wallet1")

	m.Tick(ctx)

	// At-least-once: the hash advances after the delivery attempt, even
	// a failed one; delivery is not retried by the monitor.
	w, _, _ := walletStore.Get(ctx, "0xa")
	if w.LastSeenTxHash != "h1" {
		t.Errorf("expected stored hash h1 after delivery attempt, got %q", w.LastSeenTxHash)
	}
}

func TestTickFreshWalletSurfacesOnlyNewest(t *testing.T) {
	history := []models.TransferEvent{
		transfer("h3", 1700000200, "0xA"),
		transfer("h2", 1700000100, "0xA"),
		transfer("h1", 1700000000, "0xA"),
	}
	m, walletStore, _, emitter := setupTestMonitor(t, map[string][]models.TransferEvent{"0xa": history})

	ctx := context.Background()
	_ = walletStore.Put(ctx, "0xA", "Wallet1")

	m.Tick(ctx)

	events := emitter.Events()
	if len(events) != 1 || events[0].TxHash != "h3" {
		t.Fatalf("fresh wallet must surface only the newest transfer, got %d events", len(events))
	}
}

func TestTickPriceMissStillNotifies(t *testing.T) {
	history := []models.TransferEvent{transfer("h1", 1700000000, "0xA")}
	logger := zerolog.New(nil)
	walletStore := store.NewMemory()
	emitter := &mockEmitter{}
	m := New(walletStore, &fakeLedger{histories: map[string][]models.TransferEvent{"0xa": history}},
		&staticPrices{miss: true}, emitter, time.Second, 10, &logger)

	ctx := context.Background()
	_ = walletStore.Put(ctx, "0xA", "Wallet1")

	m.Tick(ctx)

	events := emitter.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(events))
	}
	if events[0].FiatKnown {
		t.Error("fiat value must be unknown on a price-cache miss")
	}
}
