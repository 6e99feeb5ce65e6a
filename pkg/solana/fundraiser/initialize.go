package fundraiser

import (
	"fmt"

	"crowdfund/pkg/solana/program"
)

func (p *Processor) initialize(rt program.Runtime, accounts []*program.AccountInfo, data []byte) error {
	if len(accounts) < initializeAccountsLen {
		return fmt.Errorf("initialize needs %d accounts, got %d: %w", initializeAccountsLen, len(accounts), ErrMissingAccounts)
	}
	owner := accounts[initializeOwner]
	mint := accounts[initializeMint]
	campaign := accounts[initializeCampaign]
	pool := accounts[initializePool]

	args, err := DecodeInitializeArgs(data)
	if err != nil {
		return err
	}

	if err := p.validator.RequireSigner(owner); err != nil {
		return err
	}
	if err := p.validator.RequireUnclaimed(campaign); err != nil {
		return err
	}

	// the pool is created by the token program ahead of us, already owned by the
	// campaign address that does not exist yet
	vault, err := p.validator.TokenAccount(pool)
	if err != nil {
		return err
	}
	if err := p.validator.RequireTokenOwner(pool.Key, vault, campaign.Key); err != nil {
		return err
	}
	if _, err := p.validator.InitializedMint(mint); err != nil {
		return err
	}
	if err := p.validator.RequireMint("pool", vault.Mint, mint.Key); err != nil {
		return err
	}

	pda, err := p.validator.RequireCampaignAddress(campaign, owner.Key)
	if err != nil {
		return err
	}
	if !p.bounds.Admits(args.TargetAmount) {
		return fmt.Errorf("target %d admits no contribution under %d..%d bps: %w",
			args.TargetAmount, p.bounds.MinBps, p.bounds.MaxBps, ErrInvalidCampaignTarget)
	}

	err = rt.CreateAccount(program.CreateAccountParams{
		From:        owner,
		To:          campaign,
		Lamports:    rt.MinimumBalance(CampaignLen),
		Space:       CampaignLen,
		Owner:       p.programID,
		SignerSeeds: CampaignSignerSeeds(owner.Key, pda.Bump),
	})
	if err != nil {
		return fmt.Errorf("create campaign account: %w", err)
	}

	state := Campaign{
		Owner:         owner.Key,
		Mint:          mint.Key,
		TargetAmount:  args.TargetAmount,
		CurrentAmount: 0,
		CreatedAt:     rt.Now(),
		Duration:      args.Duration,
		Bump:          pda.Bump,
	}
	if err := state.Encode(campaign.Data); err != nil {
		return err
	}

	rt.Log("initialize: campaign %s owner %s target %d duration %d", campaign.Key, owner.Key, args.TargetAmount, args.Duration)
	return nil
}
