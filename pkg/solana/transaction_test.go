package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignTransaction(t *testing.T) {
	payer, other := solana.NewWallet().PrivateKey, solana.NewWallet().PrivateKey
	transfer := func(from solana.PublicKey) solana.Instruction {
		return system.NewTransferInstruction(1, from, solana.NewWallet().PublicKey()).Build()
	}

	t.Run("Signs Every Required Signer", func(t *testing.T) {
		tx, err := SignTransaction([]solana.Instruction{transfer(payer.PublicKey()), transfer(other.PublicKey())},
			solana.Hash{1}, payer, other)
		require.NoError(t, err)
		assert.Len(t, tx.Signatures, 2)
		assert.Equal(t, payer.PublicKey(), tx.Message.AccountKeys[0])
		assert.NoError(t, tx.VerifySignatures())
	})

	t.Run("Missing Signer", func(t *testing.T) {
		_, err := SignTransaction([]solana.Instruction{transfer(other.PublicKey())}, solana.Hash{}, payer)
		assert.ErrorIs(t, err, ErrMissingSigner)

		_, err = SignTransaction([]solana.Instruction{transfer(payer.PublicKey())}, solana.Hash{})
		assert.ErrorIs(t, err, ErrMissingSigner)
	})

	t.Run("Encode Decode", func(t *testing.T) {
		tx, err := SignTransaction([]solana.Instruction{transfer(payer.PublicKey())}, solana.Hash{7}, payer)
		require.NoError(t, err)
		encoded, err := EncodeTransaction(tx)
		require.NoError(t, err)

		decoded, err := DecodeTransaction(encoded)
		require.NoError(t, err)
		assert.Equal(t, tx.Signatures, decoded.Signatures)
		assert.Equal(t, tx.Message.RecentBlockhash, decoded.Message.RecentBlockhash)
		assert.NoError(t, decoded.VerifySignatures())

		_, err = DecodeTransaction("%%%")
		assert.Error(t, err)
		_, err = DecodeTransaction("AQID")
		assert.Error(t, err)
	})
}
