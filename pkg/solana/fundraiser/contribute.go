package fundraiser

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"crowdfund/pkg/solana/program"
)

type slotState int

const (
	slotAbsent slotState = iota
	slotPresent
)

// contributorSlot is the contributor record as found at the top of contribute.
type contributorSlot struct {
	state  slotState
	record Contributor
	pda    PDAResult
}

func (p *Processor) contribute(rt program.Runtime, accounts []*program.AccountInfo, data []byte) error {
	if len(accounts) < contributeAccountsLen {
		return fmt.Errorf("contribute needs %d accounts, got %d: %w", contributeAccountsLen, len(accounts), ErrMissingAccounts)
	}
	contributor := accounts[contributeContributor]
	mint := accounts[contributeMint]
	campaignAcc := accounts[contributeCampaign]
	pool := accounts[contributePool]
	funding := accounts[contributeFunding]
	recordAcc := accounts[contributeRecord]

	args, err := DecodeContributeArgs(data)
	if err != nil {
		return err
	}

	if err := p.validator.RequireSigner(contributor); err != nil {
		return err
	}

	if err := p.validator.RequireProgramOwned(campaignAcc); err != nil {
		return err
	}
	campaign, err := DecodeCampaign(campaignAcc.Data)
	if err != nil {
		return err
	}

	if err := p.validator.RequireMint("supplied", mint.Key, campaign.Mint); err != nil {
		return err
	}
	vault, err := p.validator.TokenAccount(pool)
	if err != nil {
		return err
	}
	if err := p.validator.RequireTokenOwner(pool.Key, vault, campaignAcc.Key); err != nil {
		return err
	}
	if err := p.validator.RequireMint("pool", vault.Mint, campaign.Mint); err != nil {
		return err
	}
	source, err := p.validator.TokenAccount(funding)
	if err != nil {
		return err
	}
	if err := p.validator.RequireMint("funding", source.Mint, campaign.Mint); err != nil {
		return err
	}
	if err := p.validator.RequireTokenOwner(funding.Key, source, contributor.Key); err != nil {
		return err
	}

	pda, err := p.validator.RequireCampaignAddress(campaignAcc, campaign.Owner)
	if err != nil {
		return err
	}
	if pda.Bump != campaign.Bump {
		return fmt.Errorf("campaign bump %d, want %d: %w", campaign.Bump, pda.Bump, ErrWrongDerivedAddress)
	}
	slot, err := p.resolveContributor(recordAcc, campaignAcc.Key, contributor.Key)
	if err != nil {
		return err
	}

	if status := campaign.Status(rt.Now()); status != StatusActive {
		return fmt.Errorf("campaign %s is %s: %w", campaignAcc.Key, status, ErrCampaignEnded)
	}
	if source.Amount < args.Amount {
		return fmt.Errorf("balance %d, amount %d: %w", source.Amount, args.Amount, ErrInsufficientFunds)
	}
	minSendable, maxSendable := p.bounds.MinSendable(campaign.TargetAmount), p.bounds.MaxSendable(campaign.TargetAmount)
	if args.Amount < minSendable || args.Amount > maxSendable {
		return fmt.Errorf("amount %d outside [%d, %d]: %w", args.Amount, minSendable, maxSendable, ErrAmountOutOfBounds)
	}
	collected, err := checkedAdd(campaign.CurrentAmount, args.Amount)
	if err != nil {
		return fmt.Errorf("campaign total: %w", err)
	}
	total, err := checkedAdd(slot.record.Amount, args.Amount)
	if err != nil {
		return fmt.Errorf("contributor total: %w", err)
	}

	if slot.state == slotAbsent {
		err = rt.CreateAccount(program.CreateAccountParams{
			From:        contributor,
			To:          recordAcc,
			Lamports:    rt.MinimumBalance(ContributorLen),
			Space:       ContributorLen,
			Owner:       p.programID,
			SignerSeeds: ContributorSignerSeeds(campaignAcc.Key, contributor.Key, slot.pda.Bump),
		})
		if err != nil {
			return fmt.Errorf("create contributor account: %w", err)
		}
	}

	err = rt.Transfer(program.TransferParams{
		From:      funding,
		To:        pool,
		Authority: contributor,
		Amount:    args.Amount,
	})
	if err != nil {
		return fmt.Errorf("transfer to pool: %w", err)
	}

	if err := (Contributor{Amount: total}).Encode(recordAcc.Data); err != nil {
		return err
	}
	campaign.CurrentAmount = collected
	if err := campaign.Encode(campaignAcc.Data); err != nil {
		return err
	}

	rt.Log("contribute: campaign %s contributor %s amount %d total %d", campaignAcc.Key, contributor.Key, args.Amount, total)
	return nil
}

// resolveContributor checks the record address and reads the record if one exists.
func (p *Processor) resolveContributor(acc *program.AccountInfo, campaign, contributor solana.PublicKey) (contributorSlot, error) {
	pda, err := p.validator.RequireContributorAddress(acc, campaign, contributor)
	if err != nil {
		return contributorSlot{}, err
	}
	if acc.IsClaimable() {
		return contributorSlot{state: slotAbsent, pda: pda}, nil
	}

	if err := p.validator.RequireProgramOwned(acc); err != nil {
		return contributorSlot{}, err
	}
	record, err := DecodeContributor(acc.Data)
	if err != nil {
		return contributorSlot{}, err
	}
	return contributorSlot{state: slotPresent, record: record, pda: pda}, nil
}
