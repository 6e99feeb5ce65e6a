// Package events turns committed fundraiser transactions into events for websocket
// subscribers and the fundraiser_events queue.
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"crowdfund/pkg/ledger"
	"crowdfund/pkg/solana/fundraiser"
)

type Type string

const (
	TypeCampaignCreated  Type = "campaign_created"
	TypeContributionMade Type = "contribution_made"
)

// Event is one fundraiser instruction that was committed.
type Event struct {
	ID                string `json:"id"`
	Type              Type   `json:"type"`
	Signature         string `json:"signature"`
	Instruction       int    `json:"instruction"`
	Slot              uint64 `json:"slot"`
	Campaign          string `json:"campaign"`
	Owner             string `json:"owner,omitempty"`
	Contributor       string `json:"contributor,omitempty"`
	ContributorRecord string `json:"contributor_record,omitempty"`
	Mint              string `json:"mint"`
	Pool              string `json:"pool"`
	Amount            uint64 `json:"amount,omitempty"`
	TargetAmount      uint64 `json:"target_amount,omitempty"`
	Duration          uint64 `json:"duration,omitempty"`
	Timestamp         int64  `json:"timestamp"`
}

// FromTransaction extracts fundraiser events from a committed transaction. Failed
// transactions and faucet operations yield nothing.
func FromTransaction(programID solana.PublicKey, receipt *ledger.Receipt, tx *solana.Transaction, at time.Time) []Event {
	if tx == nil || receipt == nil || !receipt.Succeeded() {
		return nil
	}

	keys := tx.Message.AccountKeys
	var out []Event
	for i, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(keys) || !keys[ix.ProgramIDIndex].Equals(programID) {
			continue
		}
		accounts := make([]solana.PublicKey, 0, len(ix.Accounts))
		for _, idx := range ix.Accounts {
			if int(idx) < len(keys) {
				accounts = append(accounts, keys[idx])
			}
		}
		parsed, err := fundraiser.DecodeInstruction(accounts, ix.Data)
		if err != nil {
			continue
		}

		evt := Event{
			ID:          uuid.NewString(),
			Signature:   receipt.Signature.String(),
			Instruction: i,
			Slot:        receipt.Slot,
			Campaign:    parsed.Campaign.String(),
			Mint:        parsed.Mint.String(),
			Pool:        parsed.Pool.String(),
			Timestamp:   at.Unix(),
		}
		switch parsed.Opcode {
		case fundraiser.OpInitialize:
			evt.Type = TypeCampaignCreated
			evt.Owner = parsed.Signer.String()
			evt.TargetAmount = parsed.Initialize.TargetAmount
			evt.Duration = parsed.Initialize.Duration
		case fundraiser.OpContribute:
			evt.Type = TypeContributionMade
			evt.Contributor = parsed.Signer.String()
			evt.ContributorRecord = parsed.ContributorRecord.String()
			evt.Amount = parsed.Contribute.Amount
		default:
			continue
		}
		out = append(out, evt)
	}
	return out
}
