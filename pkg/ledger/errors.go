package ledger

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrSignatureVerification = errors.New("signature verification failed")
	ErrDuplicateSignature    = errors.New("transaction already processed")
	ErrDuplicateAccountKey   = errors.New("account key listed twice in message")
	ErrNoInstructions        = errors.New("transaction has no instructions")
	ErrAccountIndex          = errors.New("account index out of range")
	ErrUnknownProgram        = errors.New("program is not registered")
	ErrReadonlyModified      = errors.New("instruction modified a read-only account")
	ErrUnbalancedLamports    = errors.New("sum of account balances changed")
	ErrMissingSignature      = errors.New("missing required signature")
	ErrInvalidSeeds          = errors.New("signer seeds do not derive the account address")
	ErrAccountInUse          = errors.New("account already in use")
	ErrInsufficientLamports  = errors.New("insufficient lamports")
	ErrInvalidInstruction    = errors.New("invalid instruction")
	ErrInvalidTokenAccount   = errors.New("invalid token account")
	ErrInvalidMint           = errors.New("invalid mint")
	ErrMintMismatch          = errors.New("token accounts hold different mints")
	ErrOwnerMismatch         = errors.New("authority does not own the token account")
	ErrInsufficientTokens    = errors.New("insufficient token balance")
	ErrAccountFrozen         = errors.New("token account is frozen")
	ErrOverflow              = errors.New("balance overflow")
	ErrFaucetDisabled        = errors.New("faucet is disabled")
)

// InstructionError reports which instruction of a transaction failed.
type InstructionError struct {
	Index   int
	Program solana.PublicKey
	Err     error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d (%s): %v", e.Index, e.Program, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}
