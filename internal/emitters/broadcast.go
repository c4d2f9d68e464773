package emitters

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"wallet-monitor/internal/interfaces"
	"wallet-monitor/internal/models"
)

// Broadcaster formats each transfer notification and fans it out to
// every subscribed chat, then forwards the raw event to the wrapped
// emitter when one is configured. A failed delivery to one chat never
// blocks the others.
type Broadcaster struct {
	Sink           interfaces.ChatSink
	Registry       interfaces.SubscriberRegistry
	WrappedEmitter interfaces.EventEmitter
	Logger         *zerolog.Logger
}

func (b *Broadcaster) EmitEvent(ctx context.Context, event models.TransferNotification) error {
	subscribers := b.Registry.Subscribers()
	if len(subscribers) == 0 {
		b.Logger.Warn().
			Str("txHash", event.TxHash).
			Msg("No subscribed chats, notification not delivered")
	}

	text := FormatNotification(event)
	for _, chatID := range subscribers {
		if err := b.Sink.Send(ctx, chatID, text); err != nil {
			b.Logger.Warn().
				Err(err).
				Int64("chatID", chatID).
				Str("txHash", event.TxHash).
				Msg("Failed to deliver notification to chat")
		}
	}

	if b.WrappedEmitter != nil {
		return b.WrappedEmitter.EmitEvent(ctx, event)
	}
	return nil
}

// FormatNotification renders the outbound chat text for one transfer.
// The fiat amount reads "unavailable" on a price-cache miss; monetary
// values are rounded here, at presentation time only.
func FormatNotification(event models.TransferNotification) string {
	direction := "outgoing"
	if event.Direction == models.DirectionIn {
		direction = "incoming"
	}

	fiat := "unavailable"
	if event.FiatKnown {
		fiat = "$" + event.FiatUSD.StringFixed(2)
	}

	return fmt.Sprintf(
		"🔔 New transfer for %s:\n"+
			"• Type: %s\n"+
			"• Amount: %s %s\n"+
			"• Value: %s\n"+
			"• Time: %s\n"+
			"• Tx: %s",
		event.WalletLabel,
		direction,
		event.Amount.String(), event.TokenSymbol,
		fiat,
		event.Timestamp.Format("2006-01-02 15:04:05"),
		event.TxHash,
	)
}
