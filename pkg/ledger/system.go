package ledger

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"crowdfund/pkg/solana/program"
)

// MaxPermittedDataLength caps the size of a single account.
const MaxPermittedDataLength = 10 * 1024 * 1024

// system program instruction tags, u32 little endian
const (
	systemCreateAccount uint32 = 0
	systemTransfer      uint32 = 2
)

// systemProgram is the built-in account allocator and lamport mover.
type systemProgram struct{}

func (systemProgram) ID() solana.PublicKey {
	return solana.SystemProgramID
}

func (systemProgram) Process(rt program.Runtime, accounts []*program.AccountInfo, data []byte) error {
	dec := bin.NewBinDecoder(data)
	tag, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("system: read tag: %v: %w", err, ErrInvalidInstruction)
	}

	switch tag {
	case systemCreateAccount:
		if len(accounts) < 2 {
			return fmt.Errorf("system create account: %w", ErrAccountIndex)
		}
		lamports, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("system create account: %v: %w", err, ErrInvalidInstruction)
		}
		space, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("system create account: %v: %w", err, ErrInvalidInstruction)
		}
		owner, err := dec.ReadNBytes(32)
		if err != nil {
			return fmt.Errorf("system create account: %v: %w", err, ErrInvalidInstruction)
		}
		if !accounts[1].IsSigner {
			return fmt.Errorf("new account %s: %w", accounts[1].Key, ErrMissingSignature)
		}
		return createAccount(accounts[0], accounts[1], lamports, space, solana.PublicKeyFromBytes(owner))

	case systemTransfer:
		if len(accounts) < 2 {
			return fmt.Errorf("system transfer: %w", ErrAccountIndex)
		}
		lamports, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("system transfer: %v: %w", err, ErrInvalidInstruction)
		}
		return transferLamports(accounts[0], accounts[1], lamports)

	default:
		return fmt.Errorf("system: unsupported instruction %d: %w", tag, ErrInvalidInstruction)
	}
}

// createAccount funds and allocates to. Authority over to is checked by the caller.
func createAccount(from, to *program.AccountInfo, lamports, space uint64, owner solana.PublicKey) error {
	if !from.IsSigner {
		return fmt.Errorf("funder %s: %w", from.Key, ErrMissingSignature)
	}
	if !from.IsWritable || !to.IsWritable {
		return fmt.Errorf("create account %s: %w", to.Key, ErrReadonlyModified)
	}
	if !from.IsOwnedBy(solana.SystemProgramID) || !from.DataIsEmpty() {
		return fmt.Errorf("funder %s carries data: %w", from.Key, ErrInvalidInstruction)
	}
	if to.IsAllocated() {
		return fmt.Errorf("create account %s: %w", to.Key, ErrAccountInUse)
	}
	if space > MaxPermittedDataLength {
		return fmt.Errorf("space %d: %w", space, ErrInvalidInstruction)
	}
	if from.Lamports < lamports {
		return fmt.Errorf("funder %s has %d, needs %d: %w", from.Key, from.Lamports, lamports, ErrInsufficientLamports)
	}

	from.Lamports -= lamports
	to.Lamports = lamports
	to.Owner = owner
	to.Data = make([]byte, space)
	return nil
}

// initAccount is createAccount for program-signed addresses. Anyone can send lamports to a
// derived address before its program creates it, so a system-owned account without data is
// topped up to lamports, allocated and assigned instead of being rejected.
func initAccount(from, to *program.AccountInfo, lamports, space uint64, owner solana.PublicKey) error {
	if !to.IsAllocated() {
		return createAccount(from, to, lamports, space, owner)
	}
	if !to.IsOwnedBy(solana.SystemProgramID) || !to.DataIsEmpty() {
		return fmt.Errorf("create account %s: %w", to.Key, ErrAccountInUse)
	}
	if space > MaxPermittedDataLength {
		return fmt.Errorf("space %d: %w", space, ErrInvalidInstruction)
	}
	if to.Lamports < lamports {
		if err := transferLamports(from, to, lamports-to.Lamports); err != nil {
			return err
		}
	} else if !from.IsWritable || !to.IsWritable {
		return fmt.Errorf("create account %s: %w", to.Key, ErrReadonlyModified)
	}

	to.Owner = owner
	to.Data = make([]byte, space)
	return nil
}

func transferLamports(from, to *program.AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return fmt.Errorf("sender %s: %w", from.Key, ErrMissingSignature)
	}
	if !from.IsWritable || !to.IsWritable {
		return fmt.Errorf("transfer %s -> %s: %w", from.Key, to.Key, ErrReadonlyModified)
	}
	if !from.IsOwnedBy(solana.SystemProgramID) || !from.DataIsEmpty() {
		return fmt.Errorf("sender %s carries data: %w", from.Key, ErrInvalidInstruction)
	}
	if from.Lamports < lamports {
		return fmt.Errorf("sender %s has %d, needs %d: %w", from.Key, from.Lamports, lamports, ErrInsufficientLamports)
	}
	if from == to {
		return nil
	}
	if to.Lamports+lamports < to.Lamports {
		return ErrOverflow
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}
