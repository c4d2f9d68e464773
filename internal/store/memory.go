package store

import (
	"context"
	"sync"

	"wallet-monitor/internal/models"
	"wallet-monitor/internal/validation"
)

// Memory is a mutex-guarded in-process wallet store. Used for tests and
// ephemeral runs; the Postgres store is the durable implementation.
type Memory struct {
	mu      sync.RWMutex
	wallets map[string]models.Wallet
	order   []string
}

func NewMemory() *Memory {
	return &Memory{wallets: make(map[string]models.Wallet)}
}

func (m *Memory) Get(_ context.Context, address string) (models.Wallet, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.wallets[validation.Normalize(address)]
	return w, ok, nil
}

// Put upserts a wallet and resets its last-seen transaction hash.
func (m *Memory) Put(_ context.Context, address, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr := validation.Normalize(address)
	if _, exists := m.wallets[addr]; !exists {
		m.order = append(m.order, addr)
	}
	m.wallets[addr] = models.Wallet{Address: addr, Label: label}
	return nil
}

func (m *Memory) List(_ context.Context) ([]models.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wallets := make([]models.Wallet, 0, len(m.order))
	for _, addr := range m.order {
		wallets = append(wallets, m.wallets[addr])
	}
	return wallets, nil
}

func (m *Memory) SetLastSeenTxHash(_ context.Context, address, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	addr := validation.Normalize(address)
	w, ok := m.wallets[addr]
	if !ok {
		return nil
	}
	w.LastSeenTxHash = hash
	m.wallets[addr] = w
	return nil
}
