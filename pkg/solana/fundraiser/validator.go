package fundraiser

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"crowdfund/pkg/solana/program"
)

// AccountValidator cross-checks caller-supplied accounts before any state is touched.
// Every method is a pure read.
type AccountValidator struct {
	programID solana.PublicKey
	deriver   AddressDeriver
}

// NewAccountValidator returns a validator for programID.
func NewAccountValidator(programID solana.PublicKey) AccountValidator {
	return AccountValidator{
		programID: programID,
		deriver:   NewAddressDeriver(programID),
	}
}

// RequireSigner fails unless acc signed the transaction.
func (v AccountValidator) RequireSigner(acc *program.AccountInfo) error {
	if !acc.IsSigner {
		return fmt.Errorf("%s did not sign: %w", acc.Key, ErrNotSigner)
	}
	return nil
}

// RequireProgramOwned fails unless acc is owned by this program.
func (v AccountValidator) RequireProgramOwned(acc *program.AccountInfo) error {
	if !acc.IsOwnedBy(v.programID) {
		return fmt.Errorf("%s is owned by %s: %w", acc.Key, acc.Owner, ErrWrongOwner)
	}
	return nil
}

// RequireUnclaimed fails if acc already carries data or was assigned to a program.
// Lamports alone do not count.
func (v AccountValidator) RequireUnclaimed(acc *program.AccountInfo) error {
	if !acc.IsClaimable() {
		return fmt.Errorf("%s: %w", acc.Key, ErrAccountAlreadyInitialized)
	}
	return nil
}

// TokenAccount decodes acc as an SPL token account.
func (v AccountValidator) TokenAccount(acc *program.AccountInfo) (token.Account, error) {
	ta, err := program.DecodeTokenAccount(acc)
	if err != nil {
		return ta, fmt.Errorf("%v: %w", err, ErrInvalidAccountData)
	}
	return ta, nil
}

// InitializedMint decodes acc as an SPL mint and requires it to be initialized.
func (v AccountValidator) InitializedMint(acc *program.AccountInfo) (token.Mint, error) {
	mint, err := program.DecodeMint(acc)
	if err != nil {
		return mint, fmt.Errorf("%v: %w", err, ErrUninitializedMint)
	}
	if !mint.IsInitialized {
		return mint, fmt.Errorf("%s: %w", acc.Key, ErrUninitializedMint)
	}
	return mint, nil
}

// RequireTokenOwner fails unless the token account held at key is owned by expected.
func (v AccountValidator) RequireTokenOwner(key solana.PublicKey, ta token.Account, expected solana.PublicKey) error {
	if !ta.Owner.Equals(expected) {
		return fmt.Errorf("token account %s is owned by %s, want %s: %w", key, ta.Owner, expected, ErrIllegalOwner)
	}
	return nil
}

// RequireMint fails unless actual equals the expected asset type.
func (v AccountValidator) RequireMint(what string, actual, expected solana.PublicKey) error {
	if !actual.Equals(expected) {
		return fmt.Errorf("%s mint %s, want %s: %w", what, actual, expected, ErrWrongMint)
	}
	return nil
}

// RequireDerived fails unless acc sits at the expected derived address.
func (v AccountValidator) RequireDerived(acc *program.AccountInfo, expected PDAResult) error {
	if !acc.Key.Equals(expected.Address) {
		return fmt.Errorf("%s, want %s: %w", acc.Key, expected.Address, ErrWrongDerivedAddress)
	}
	return nil
}

// RequireCampaignAddress derives the campaign PDA for owner and checks acc against it.
func (v AccountValidator) RequireCampaignAddress(acc *program.AccountInfo, owner solana.PublicKey) (PDAResult, error) {
	pda, err := v.deriver.CampaignPDA(owner)
	if err != nil {
		return pda, err
	}
	return pda, v.RequireDerived(acc, pda)
}

// RequireContributorAddress derives the contributor PDA and checks acc against it.
func (v AccountValidator) RequireContributorAddress(acc *program.AccountInfo, campaign, contributor solana.PublicKey) (PDAResult, error) {
	pda, err := v.deriver.ContributorPDA(campaign, contributor)
	if err != nil {
		return pda, err
	}
	return pda, v.RequireDerived(acc, pda)
}
