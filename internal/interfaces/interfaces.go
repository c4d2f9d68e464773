package interfaces

import (
	"context"

	"wallet-monitor/internal/models"
)

// WalletStore persists monitored wallets. Implementations must
// serialize writes to LastSeenTxHash per address.
type WalletStore interface {
	// Get returns the wallet for a (lowercase) address.
	Get(ctx context.Context, address string) (models.Wallet, bool, error)

	// Put upserts a wallet and resets its last-seen transaction hash.
	Put(ctx context.Context, address, label string) error

	// List returns all wallets in registration order.
	List(ctx context.Context) ([]models.Wallet, error)

	// SetLastSeenTxHash records the newest notified transfer hash.
	SetLastSeenTxHash(ctx context.Context, address, hash string) error
}

// LedgerSource returns an address's transfer history, newest first.
// An address with no history yields an empty slice, not an error.
type LedgerSource interface {
	FetchTransfers(ctx context.Context, address string) ([]models.TransferEvent, error)
}

// PriceSource resolves the current fiat quote for a token symbol.
// A failed lookup returns ok=false and is never fatal.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) (models.PriceQuote, bool)
}

// EventEmitter receives one event per newly detected transfer.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event models.TransferNotification) error
}

// ChatSink delivers a formatted text payload to a chat.
type ChatSink interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// SubscriberRegistry tracks the chats that receive transfer
// notifications. It replaces the mutable process-wide current-chat.
type SubscriberRegistry interface {
	Subscribe(chatID int64)
	Unsubscribe(chatID int64)
	Subscribers() []int64
}
