package config

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"

	"crowdfund/pkg/ledger"
	"crowdfund/pkg/solana/fundraiser"
)

var (
	Ledger  *ledger.Bank
	Program *fundraiser.Processor
)

// InitLedger builds the ledger with the fundraiser program registered. State is kept in
// postgres when InitDB ran first, in memory otherwise.
func InitLedger(ctx context.Context, cfg Config, reg prometheus.Registerer) (*fundraiser.Processor, error) {
	programID, err := solana.PublicKeyFromBase58(cfg.Fundraiser.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid FUNDRAISER_PROGRAM_ID %q: %w", cfg.Fundraiser.ProgramID, err)
	}

	proc, err := fundraiser.NewProcessor(programID, fundraiser.WithBounds(fundraiser.Bounds{
		MinBps: cfg.Fundraiser.MinContributionBps,
		MaxBps: cfg.Fundraiser.MaxContributionBps,
	}))
	if err != nil {
		return nil, err
	}

	var store ledger.Store = ledger.NewMemoryStore()
	if DB != nil {
		store = ledger.NewGormStore(DB)
	}

	bank, err := ledger.NewBank(ctx,
		ledger.WithStore(store),
		ledger.WithMetrics(ledger.NewMetrics(reg)),
		ledger.WithFaucet(cfg.Faucet.Enabled),
		ledger.WithProgram(proc),
	)
	if err != nil {
		return nil, err
	}

	Ledger = bank
	Program = proc
	return proc, nil
}
