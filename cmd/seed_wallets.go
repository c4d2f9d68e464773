package main

import (
	"context"
	"os"
	"strings"

	"wallet-monitor/internal/interfaces"
	"wallet-monitor/internal/logger"
	"wallet-monitor/internal/validation"
)

// seedWallets preloads wallets from the SEED_WALLETS environment
// variable, formatted as "address=Label,address=Label". Invalid entries
// are logged and skipped.
func seedWallets(ctx context.Context, walletStore interfaces.WalletStore) {
	raw := os.Getenv("SEED_WALLETS")
	if raw == "" {
		return
	}

	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), "=", 2)
		if len(parts) != 2 || parts[1] == "" {
			logger.GetLogger().Warn().Str("entry", entry).Msg("Skipping malformed seed wallet entry")
			continue
		}

		address, label := parts[0], parts[1]
		if err := validation.ValidateAddress(address); err != nil {
			logger.GetLogger().Warn().
				Err(err).
				Str("address", address).
				Msg("Skipping seed wallet with invalid address")
			continue
		}

		if err := walletStore.Put(ctx, validation.Normalize(address), label); err != nil {
			logger.GetLogger().Error().
				Err(err).
				Str("address", address).
				Msg("Error seeding wallet")
		}
	}
}
