package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"crowdfund/pkg/solana/program"
)

// invocation is the runtime handed to one instruction. Program-signed calls are honoured
// only when the seeds derive the target address under the invoking program.
type invocation struct {
	programID solana.PublicKey
	now       uint64
	rent      Rent
	logs      *[]string
}

func (inv *invocation) Now() uint64 {
	return inv.now
}

func (inv *invocation) MinimumBalance(dataLen uint64) uint64 {
	return inv.rent.MinimumBalance(dataLen)
}

func (inv *invocation) Log(format string, args ...interface{}) {
	*inv.logs = append(*inv.logs, "Program log: "+fmt.Sprintf(format, args...))
}

func (inv *invocation) CreateAccount(p program.CreateAccountParams) error {
	if err := inv.authorize(p.To, p.SignerSeeds); err != nil {
		return err
	}
	if err := initAccount(p.From, p.To, p.Lamports, p.Space, p.Owner); err != nil {
		return err
	}
	*inv.logs = append(*inv.logs, fmt.Sprintf("Program %s invoke [2]", solana.SystemProgramID), fmt.Sprintf("Program %s success", solana.SystemProgramID))
	return nil
}

func (inv *invocation) Transfer(p program.TransferParams) error {
	if err := inv.authorize(p.Authority, p.SignerSeeds); err != nil {
		return err
	}
	if err := transferTokens(p.From, p.To, p.Authority, p.Amount); err != nil {
		return err
	}
	*inv.logs = append(*inv.logs, fmt.Sprintf("Program %s invoke [2]", solana.TokenProgramID), fmt.Sprintf("Program %s success", solana.TokenProgramID))
	return nil
}

func (inv *invocation) authorize(acc *program.AccountInfo, seeds [][]byte) error {
	if len(seeds) == 0 {
		if !acc.IsSigner {
			return fmt.Errorf("%s: %w", acc.Key, ErrMissingSignature)
		}
		return nil
	}
	addr, err := solana.CreateProgramAddress(seeds, inv.programID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidSeeds)
	}
	if !addr.Equals(acc.Key) {
		return fmt.Errorf("seeds derive %s, not %s: %w", addr, acc.Key, ErrInvalidSeeds)
	}
	return nil
}

var _ program.Runtime = (*invocation)(nil)
