package bot

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"wallet-monitor/internal/emitters"
	"wallet-monitor/internal/models"
	"wallet-monitor/internal/report"
	"wallet-monitor/internal/store"
)

type replySink struct {
	mu      sync.Mutex
	replies []string
}

func (s *replySink) Send(_ context.Context, _ int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, text)
	return nil
}

func (s *replySink) last(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		t.Fatal("expected a reply")
	}
	return s.replies[len(s.replies)-1]
}

type fakeLedger struct {
	transfers []models.TransferEvent
}

func (f *fakeLedger) FetchTransfers(_ context.Context, _ string) ([]models.TransferEvent, error) {
	return f.transfers, nil
}

type noPrices struct{}

func (noPrices) GetPrice(_ context.Context, _ string) (models.PriceQuote, bool) {
	return models.PriceQuote{}, false
}

func setupTestBot(transfers []models.TransferEvent) (*Bot, *replySink, *store.Memory, *emitters.Registry) {
	logger := zerolog.New(nil)
	sink := &replySink{}
	walletStore := store.NewMemory()
	registry := emitters.NewRegistry()
	calc := report.NewCalculator(&fakeLedger{transfers: transfers}, noPrices{}, &logger)
	b := New("http://unused", "token", sink, walletStore, registry, calc, &logger)
	return b, sink, walletStore, registry
}

const goodAddress = "0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5"

func TestStartSubscribesChat(t *testing.T) {
	b, _, _, registry := setupTestBot(nil)

	b.HandleCommand(context.Background(), 42, "/start")

	subs := registry.Subscribers()
	if len(subs) != 1 || subs[0] != 42 {
		t.Fatalf("expected chat 42 subscribed, got %v", subs)
	}
}

func TestAddRegistersWallet(t *testing.T) {
	b, sink, walletStore, _ := setupTestBot(nil)
	ctx := context.Background()

	b.HandleCommand(ctx, 42, "/add "+goodAddress+" My Wallet")

	w, ok, _ := walletStore.Get(ctx, goodAddress)
	if !ok {
		t.Fatal("expected wallet to be stored")
	}
	if w.Label != "My Wallet" {
		t.Errorf("unexpected label: %s", w.Label)
	}
	if w.Address != strings.ToLower(goodAddress) {
		t.Errorf("expected canonical lowercase address, got %s", w.Address)
	}
	if !strings.Contains(sink.last(t), "registered") {
		t.Errorf("unexpected reply: %s", sink.last(t))
	}
}

func TestAddRejectsMalformedAddress(t *testing.T) {
	b, sink, walletStore, _ := setupTestBot(nil)
	ctx := context.Background()

	b.HandleCommand(ctx, 42, "/add 0x123 Label")

	wallets, _ := walletStore.List(ctx)
	if len(wallets) != 0 {
		t.Fatal("malformed address must never reach the store")
	}
	if !strings.Contains(sink.last(t), "Invalid") {
		t.Errorf("unexpected reply: %s", sink.last(t))
	}
}

func TestAddRequiresLabel(t *testing.T) {
	b, sink, _, _ := setupTestBot(nil)

	b.HandleCommand(context.Background(), 42, "/add "+goodAddress)

	if !strings.Contains(sink.last(t), "Usage") {
		t.Errorf("unexpected reply: %s", sink.last(t))
	}
}

func TestListShowsWallets(t *testing.T) {
	b, sink, walletStore, _ := setupTestBot(nil)
	ctx := context.Background()
	_ = walletStore.Put(ctx, goodAddress, "Wallet1")

	b.HandleCommand(ctx, 42, "/list")

	reply := sink.last(t)
	if !strings.Contains(reply, "Wallet1") || !strings.Contains(reply, strings.ToLower(goodAddress)) {
		t.Errorf("unexpected reply: %s", reply)
	}
}

func TestReportRendersUnknownProfitLoss(t *testing.T) {
	transfers := []models.TransferEvent{{
		Hash:          "h1",
		Timestamp:     1700000000,
		From:          "0xB",
		To:            goodAddress,
		TokenSymbol:   "FOO",
		TokenDecimals: 0,
		RawValue:      "10",
	}}
	b, sink, _, _ := setupTestBot(transfers)

	b.HandleCommand(context.Background(), 42, "/report "+goodAddress)

	reply := sink.last(t)
	if !strings.Contains(reply, "FOO") || !strings.Contains(reply, "P/L unknown") {
		t.Errorf("unexpected reply: %s", reply)
	}
}

func TestUnknownCommand(t *testing.T) {
	b, sink, _, _ := setupTestBot(nil)

	b.HandleCommand(context.Background(), 42, "/frobnicate")

	if !strings.Contains(sink.last(t), "Unknown command") {
		t.Errorf("unexpected reply: %s", sink.last(t))
	}
}
