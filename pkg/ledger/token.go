package ledger

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"crowdfund/pkg/solana/program"
)

// SPL token instruction tags, single byte
const (
	tokenInitializeAccount  uint8 = 1
	tokenTransfer           uint8 = 3
	tokenMintTo             uint8 = 7
	tokenInitializeAccount3 uint8 = 18
)

// tokenProgram is the built-in subset of the SPL token program: account setup, minting
// and plain transfers.
type tokenProgram struct{}

func (tokenProgram) ID() solana.PublicKey {
	return solana.TokenProgramID
}

func (tokenProgram) Process(rt program.Runtime, accounts []*program.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("token: empty instruction: %w", ErrInvalidInstruction)
	}
	dec := bin.NewBinDecoder(data[1:])

	switch data[0] {
	case tokenInitializeAccount:
		if len(accounts) < 3 {
			return fmt.Errorf("token initialize account: %w", ErrAccountIndex)
		}
		return initTokenAccount(accounts[0], accounts[1], accounts[2].Key)

	case tokenInitializeAccount3:
		if len(accounts) < 2 {
			return fmt.Errorf("token initialize account: %w", ErrAccountIndex)
		}
		owner, err := dec.ReadNBytes(32)
		if err != nil {
			return fmt.Errorf("token initialize account: %v: %w", err, ErrInvalidInstruction)
		}
		return initTokenAccount(accounts[0], accounts[1], solana.PublicKeyFromBytes(owner))

	case tokenTransfer:
		if len(accounts) < 3 {
			return fmt.Errorf("token transfer: %w", ErrAccountIndex)
		}
		amount, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("token transfer: %v: %w", err, ErrInvalidInstruction)
		}
		if !accounts[2].IsSigner {
			return fmt.Errorf("token authority %s: %w", accounts[2].Key, ErrMissingSignature)
		}
		return transferTokens(accounts[0], accounts[1], accounts[2], amount)

	case tokenMintTo:
		if len(accounts) < 3 {
			return fmt.Errorf("token mint to: %w", ErrAccountIndex)
		}
		amount, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("token mint to: %v: %w", err, ErrInvalidInstruction)
		}
		if !accounts[2].IsSigner {
			return fmt.Errorf("mint authority %s: %w", accounts[2].Key, ErrMissingSignature)
		}
		return mintTokens(accounts[0], accounts[1], accounts[2], amount)

	default:
		return fmt.Errorf("token: unsupported instruction %d: %w", data[0], ErrInvalidInstruction)
	}
}

func initTokenAccount(acc, mint *program.AccountInfo, owner solana.PublicKey) error {
	if !acc.IsWritable {
		return fmt.Errorf("token account %s: %w", acc.Key, ErrReadonlyModified)
	}
	current, err := program.DecodeTokenAccount(acc)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidTokenAccount)
	}
	if current.State != token.Uninitialized {
		return fmt.Errorf("token account %s: %w", acc.Key, ErrAccountInUse)
	}
	m, err := program.DecodeMint(mint)
	if err != nil || !m.IsInitialized {
		return fmt.Errorf("mint %s: %w", mint.Key, ErrInvalidMint)
	}

	data, err := program.EncodeTokenAccount(token.Account{
		Mint:  mint.Key,
		Owner: owner,
		State: token.Initialized,
	})
	if err != nil {
		return err
	}
	acc.Data = data
	return nil
}

// transferTokens moves amount between two token accounts of the same mint. Whether authority
// may act is decided by the caller.
func transferTokens(from, to, authority *program.AccountInfo, amount uint64) error {
	if !from.IsWritable || !to.IsWritable {
		return fmt.Errorf("token transfer %s -> %s: %w", from.Key, to.Key, ErrReadonlyModified)
	}
	src, err := liveTokenAccount(from)
	if err != nil {
		return err
	}
	dst, err := liveTokenAccount(to)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%s holds %s, %s holds %s: %w", from.Key, src.Mint, to.Key, dst.Mint, ErrMintMismatch)
	}
	if !src.Owner.Equals(authority.Key) {
		return fmt.Errorf("%s is owned by %s, not %s: %w", from.Key, src.Owner, authority.Key, ErrOwnerMismatch)
	}
	if src.Amount < amount {
		return fmt.Errorf("%s has %d, needs %d: %w", from.Key, src.Amount, amount, ErrInsufficientTokens)
	}
	if from.Key.Equals(to.Key) {
		return nil
	}
	if dst.Amount+amount < dst.Amount {
		return ErrOverflow
	}

	src.Amount -= amount
	dst.Amount += amount
	return writeTokenAccounts(from, src, to, dst)
}

func mintTokens(mint, dest, authority *program.AccountInfo, amount uint64) error {
	if !mint.IsWritable || !dest.IsWritable {
		return fmt.Errorf("mint to %s: %w", dest.Key, ErrReadonlyModified)
	}
	m, err := program.DecodeMint(mint)
	if err != nil || !m.IsInitialized {
		return fmt.Errorf("mint %s: %w", mint.Key, ErrInvalidMint)
	}
	if m.MintAuthority == nil || !m.MintAuthority.Equals(authority.Key) {
		return fmt.Errorf("mint authority of %s is not %s: %w", mint.Key, authority.Key, ErrOwnerMismatch)
	}
	dst, err := liveTokenAccount(dest)
	if err != nil {
		return err
	}
	if !dst.Mint.Equals(mint.Key) {
		return fmt.Errorf("%s holds %s: %w", dest.Key, dst.Mint, ErrMintMismatch)
	}
	if m.Supply+amount < m.Supply || dst.Amount+amount < dst.Amount {
		return ErrOverflow
	}

	m.Supply += amount
	dst.Amount += amount
	mintData, err := program.EncodeMint(m)
	if err != nil {
		return err
	}
	destData, err := program.EncodeTokenAccount(dst)
	if err != nil {
		return err
	}
	mint.Data = mintData
	dest.Data = destData
	return nil
}

func liveTokenAccount(acc *program.AccountInfo) (token.Account, error) {
	ta, err := program.DecodeTokenAccount(acc)
	if err != nil {
		return ta, fmt.Errorf("%v: %w", err, ErrInvalidTokenAccount)
	}
	switch ta.State {
	case token.Initialized:
		return ta, nil
	case token.Frozen:
		return ta, fmt.Errorf("%s: %w", acc.Key, ErrAccountFrozen)
	default:
		return ta, fmt.Errorf("%s is not initialized: %w", acc.Key, ErrInvalidTokenAccount)
	}
}

func writeTokenAccounts(a *program.AccountInfo, aState token.Account, b *program.AccountInfo, bState token.Account) error {
	aData, err := program.EncodeTokenAccount(aState)
	if err != nil {
		return err
	}
	bData, err := program.EncodeTokenAccount(bState)
	if err != nil {
		return err
	}
	a.Data = aData
	b.Data = bData
	return nil
}
