package program

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// SPL token account sizes
const (
	TokenAccountLen = 165
	MintLen         = 82
)

var ErrNotTokenAccount = errors.New("account is not a token program account")

// DecodeTokenAccount reads an SPL token account held by acc.
func DecodeTokenAccount(acc *AccountInfo) (token.Account, error) {
	var out token.Account
	if !acc.IsOwnedBy(solana.TokenProgramID) || len(acc.Data) != TokenAccountLen {
		return out, fmt.Errorf("%s: %w", acc.Key, ErrNotTokenAccount)
	}
	if err := bin.NewBinDecoder(acc.Data).Decode(&out); err != nil {
		return out, fmt.Errorf("decode token account %s: %w", acc.Key, err)
	}
	return out, nil
}

// DecodeMint reads an SPL mint held by acc.
func DecodeMint(acc *AccountInfo) (token.Mint, error) {
	var out token.Mint
	if !acc.IsOwnedBy(solana.TokenProgramID) || len(acc.Data) != MintLen {
		return out, fmt.Errorf("%s: %w", acc.Key, ErrNotTokenAccount)
	}
	if err := bin.NewBinDecoder(acc.Data).Decode(&out); err != nil {
		return out, fmt.Errorf("decode mint %s: %w", acc.Key, err)
	}
	return out, nil
}

// EncodeTokenAccount serializes a token account in SPL layout.
func EncodeTokenAccount(ta token.Account) ([]byte, error) {
	return encodeFixed(&ta, TokenAccountLen)
}

// EncodeMint serializes a mint in SPL layout.
func EncodeMint(m token.Mint) ([]byte, error) {
	return encodeFixed(&m, MintLen)
}

func encodeFixed(v interface{}, size int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	if buf.Len() != size {
		return nil, fmt.Errorf("encoded %d bytes, want %d", buf.Len(), size)
	}
	return buf.Bytes(), nil
}
