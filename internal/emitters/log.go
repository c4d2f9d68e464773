package emitters

import (
	"context"

	"wallet-monitor/internal/interfaces"
	"wallet-monitor/internal/logger"
	"wallet-monitor/internal/models"
)

// LogEmitter wraps another emitter and logs every event before
// forwarding it.
type LogEmitter struct {
	WrappedEmitter interfaces.EventEmitter
}

// EmitEvent logs the event details and forwards to the wrapped emitter
func (d *LogEmitter) EmitEvent(ctx context.Context, event models.TransferNotification) error {
	logger.GetLogger().Info().
		Str("wallet", event.WalletAddress).
		Str("label", event.WalletLabel).
		Str("direction", string(event.Direction)).
		Str("token", event.TokenSymbol).
		Str("amount", event.Amount.String()).
		Str("txHash", event.TxHash).
		Time("timestamp", event.Timestamp).
		Msg("New transfer detected")

	if d.WrappedEmitter != nil {
		return d.WrappedEmitter.EmitEvent(ctx, event)
	}
	return nil
}
