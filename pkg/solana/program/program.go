// Package program defines the contract between on-ledger programs and the
// host that executes them: the account view handed to an instruction and the
// capabilities a program may call back into while it runs.
package program

import (
	"github.com/gagliardetto/solana-go"
)

// AccountInfo is a program's view of one account passed to an instruction.
// Programs change Lamports, Owner and Data in place; the host decides whether
// those changes are committed once the instruction returns.
type AccountInfo struct {
	Key        solana.PublicKey
	Owner      solana.PublicKey
	Lamports   uint64
	Data       []byte
	IsSigner   bool
	IsWritable bool
	Executable bool
}

// IsOwnedBy reports whether the account's recorded owner is the given program.
func (a *AccountInfo) IsOwnedBy(programID solana.PublicKey) bool {
	return a.Owner.Equals(programID)
}

// DataIsEmpty reports whether the account carries no data.
func (a *AccountInfo) DataIsEmpty() bool {
	return len(a.Data) == 0
}

// IsAllocated reports whether the account has ever been created.
func (a *AccountInfo) IsAllocated() bool {
	return a.Lamports > 0 || !a.DataIsEmpty()
}

// IsClaimable reports whether a program may still create acc: it holds no data and, if it
// was funded, nobody but the system program owns it.
func (a *AccountInfo) IsClaimable() bool {
	return a.DataIsEmpty() && (a.Lamports == 0 || a.IsOwnedBy(solana.SystemProgramID))
}

// CreateAccountParams describes a system-level account allocation requested by a program.
// SignerSeeds, when set, are the full program-address seeds (bump included) that let the
// calling program sign for To.
type CreateAccountParams struct {
	From        *AccountInfo
	To          *AccountInfo
	Lamports    uint64
	Space       uint64
	Owner       solana.PublicKey
	SignerSeeds [][]byte
}

// TransferParams describes a token transfer between two token accounts.
type TransferParams struct {
	From        *AccountInfo
	To          *AccountInfo
	Authority   *AccountInfo
	Amount      uint64
	SignerSeeds [][]byte
}

// Runtime is what the host offers a program during a single invocation.
type Runtime interface {
	// Now returns the host clock in unix seconds.
	Now() uint64
	// MinimumBalance returns the lamports needed to keep dataLen bytes stored permanently.
	MinimumBalance(dataLen uint64) uint64
	// CreateAccount allocates To, funds it from From and assigns it to Owner. A To that
	// already holds lamports but no data and is still system-owned is topped up to Lamports
	// and taken over.
	CreateAccount(p CreateAccountParams) error
	// Transfer moves tokens between two token accounts.
	Transfer(p TransferParams) error
	// Log appends a line to the invocation's program log.
	Log(format string, args ...interface{})
}

// Program is an instruction processor the host can dispatch to.
type Program interface {
	ID() solana.PublicKey
	Process(rt Runtime, accounts []*AccountInfo, data []byte) error
}
