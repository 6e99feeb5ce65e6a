package ledger

import (
	"bytes"

	"github.com/gagliardetto/solana-go"

	"crowdfund/pkg/solana/program"
)

// NativeLoaderID owns every built-in and registered program account.
var NativeLoaderID = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")

// Account is the committed state of a ledger address. The zero value is an address that
// was never funded.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Data       []byte           `json:"data"`
	Executable bool             `json:"executable"`
}

// Exists reports whether the account holds lamports or data.
func (a Account) Exists() bool {
	return a.Lamports > 0 || len(a.Data) > 0
}

// Clone returns a deep copy.
func (a Account) Clone() Account {
	out := a
	if a.Data != nil {
		out.Data = append([]byte(nil), a.Data...)
	}
	return out
}

// Equal compares two account states.
func (a Account) Equal(b Account) bool {
	return a.Lamports == b.Lamports &&
		a.Owner.Equals(b.Owner) &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}

func (a Account) view(key solana.PublicKey, signer, writable bool) *program.AccountInfo {
	c := a.Clone()
	return &program.AccountInfo{
		Key:        key,
		Owner:      c.Owner,
		Lamports:   c.Lamports,
		Data:       c.Data,
		IsSigner:   signer,
		IsWritable: writable,
		Executable: c.Executable,
	}
}

func accountFromView(info *program.AccountInfo) Account {
	return Account{
		Lamports:   info.Lamports,
		Owner:      info.Owner,
		Data:       append([]byte(nil), info.Data...),
		Executable: info.Executable,
	}
}
