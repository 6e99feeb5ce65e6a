package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"crowdfund/pkg/solana/program"
)

const (
	ataCreate           uint8 = 0
	ataCreateIdempotent uint8 = 1
)

// associatedTokenProgram creates the canonical token account of a wallet for a mint. The
// wallet may be a program-derived address, which is how campaign pools are opened.
type associatedTokenProgram struct{}

func (associatedTokenProgram) ID() solana.PublicKey {
	return solana.SPLAssociatedTokenAccountProgramID
}

func (associatedTokenProgram) Process(rt program.Runtime, accounts []*program.AccountInfo, data []byte) error {
	if len(accounts) < 4 {
		return fmt.Errorf("associated token: %w", ErrAccountIndex)
	}
	payer, ata, wallet, mint := accounts[0], accounts[1], accounts[2], accounts[3]

	mode := ataCreate
	if len(data) > 0 {
		mode = data[0]
	}
	if mode != ataCreate && mode != ataCreateIdempotent {
		return fmt.Errorf("associated token: unsupported instruction %d: %w", mode, ErrInvalidInstruction)
	}

	expected, _, err := solana.FindAssociatedTokenAddress(wallet.Key, mint.Key)
	if err != nil {
		return fmt.Errorf("derive associated token address: %w", err)
	}
	if !expected.Equals(ata.Key) {
		return fmt.Errorf("associated token address %s, want %s: %w", ata.Key, expected, ErrInvalidSeeds)
	}

	if ata.IsAllocated() && mode == ataCreateIdempotent {
		existing, err := liveTokenAccount(ata)
		if err != nil {
			return err
		}
		if !existing.Owner.Equals(wallet.Key) || !existing.Mint.Equals(mint.Key) {
			return fmt.Errorf("associated token account %s: %w", ata.Key, ErrAccountInUse)
		}
		return nil
	}

	if err := createAccount(payer, ata, rt.MinimumBalance(program.TokenAccountLen), program.TokenAccountLen, solana.TokenProgramID); err != nil {
		return err
	}
	if err := initTokenAccount(ata, mint, wallet.Key); err != nil {
		return err
	}
	rt.Log("created associated token account %s for %s", ata.Key, wallet.Key)
	return nil
}

// TokenAccountState is a convenience read of a committed token account.
func TokenAccountState(acc Account) (token.Account, error) {
	return program.DecodeTokenAccount(acc.view(solana.PublicKey{}, false, false))
}

// MintState is a convenience read of a committed mint.
func MintState(acc Account) (token.Mint, error) {
	return program.DecodeMint(acc.view(solana.PublicKey{}, false, false))
}
