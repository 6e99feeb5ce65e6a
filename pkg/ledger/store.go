package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Batch is one atomic commit: the accounts a transaction (or faucet operation) changed,
// plus its record.
type Batch struct {
	Slot      uint64
	Signature solana.Signature
	Accounts  map[solana.PublicKey]Account
	Logs      []string
	Err       error
	Time      time.Time
}

// Store persists committed ledger state.
type Store interface {
	// Load returns every stored account and the last committed slot.
	Load(ctx context.Context) (map[solana.PublicKey]Account, uint64, error)
	// Commit persists a batch atomically.
	Commit(ctx context.Context, batch Batch) error
}

// MemoryStore keeps committed batches in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]Account
	slot     uint64
	batches  []Batch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[solana.PublicKey]Account)}
}

func (s *MemoryStore) Load(ctx context.Context) (map[solana.PublicKey]Account, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[solana.PublicKey]Account, len(s.accounts))
	for k, v := range s.accounts {
		out[k] = v.Clone()
	}
	return out, s.slot, nil
}

func (s *MemoryStore) Commit(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range batch.Accounts {
		s.accounts[k] = v.Clone()
	}
	if batch.Slot > s.slot {
		s.slot = batch.Slot
	}
	s.batches = append(s.batches, batch)
	return nil
}

// Batches returns every batch committed so far.
func (s *MemoryStore) Batches() []Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Batch(nil), s.batches...)
}
