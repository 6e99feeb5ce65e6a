package fundraiser

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressDeriver(t *testing.T) {
	programID := newKey()
	deriver := NewAddressDeriver(programID)

	t.Run("Campaign PDA Is Deterministic", func(t *testing.T) {
		owner := newKey()
		first, err := deriver.CampaignPDA(owner)
		require.NoError(t, err)
		second, err := deriver.CampaignPDA(owner)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, programID, deriver.ProgramID())
	})

	t.Run("Campaign PDA Differs Per Owner", func(t *testing.T) {
		a, err := deriver.CampaignPDA(newKey())
		require.NoError(t, err)
		b, err := deriver.CampaignPDA(newKey())
		require.NoError(t, err)
		assert.NotEqual(t, a.Address, b.Address)
	})

	t.Run("Campaign PDA Differs Per Program", func(t *testing.T) {
		owner := newKey()
		a, err := deriver.CampaignPDA(owner)
		require.NoError(t, err)
		b, err := NewAddressDeriver(newKey()).CampaignPDA(owner)
		require.NoError(t, err)
		assert.NotEqual(t, a.Address, b.Address)
	})

	t.Run("Bump Is The Smallest Valid Salt", func(t *testing.T) {
		owner := newKey()
		pda, err := deriver.CampaignPDA(owner)
		require.NoError(t, err)

		for bump := 0; bump < int(pda.Bump); bump++ {
			_, err := solana.CreateProgramAddress(CampaignSignerSeeds(owner, uint8(bump)), programID)
			assert.Error(t, err, "bump %d should be on curve", bump)
		}
		addr, err := solana.CreateProgramAddress(CampaignSignerSeeds(owner, pda.Bump), programID)
		require.NoError(t, err)
		assert.Equal(t, pda.Address, addr)
	})

	t.Run("Contributor PDA Is Keyed By Campaign And Contributor", func(t *testing.T) {
		campaign, contributor := newKey(), newKey()
		pda, err := deriver.ContributorPDA(campaign, contributor)
		require.NoError(t, err)

		addr, err := solana.CreateProgramAddress(ContributorSignerSeeds(campaign, contributor, pda.Bump), programID)
		require.NoError(t, err)
		assert.Equal(t, pda.Address, addr)

		other, err := deriver.ContributorPDA(newKey(), contributor)
		require.NoError(t, err)
		assert.NotEqual(t, pda.Address, other.Address)

		swapped, err := deriver.ContributorPDA(contributor, campaign)
		require.NoError(t, err)
		assert.NotEqual(t, pda.Address, swapped.Address)
	})

	t.Run("Rejects Oversized Seeds", func(t *testing.T) {
		_, err := deriver.Derive(bytes.Repeat([]byte{1}, 33))
		assert.Error(t, err)

		seeds := make([][]byte, 16)
		for i := range seeds {
			seeds[i] = []byte{byte(i)}
		}
		_, err = deriver.Derive(seeds...)
		assert.Error(t, err)
	})

	t.Run("Signer Seeds Do Not Alias Inputs", func(t *testing.T) {
		owner := newKey()
		seeds := CampaignSignerSeeds(owner, 7)
		require.Len(t, seeds, 3)
		assert.Equal(t, SeedCampaign, seeds[0])
		assert.Equal(t, owner[:], seeds[1])
		assert.Equal(t, []byte{7}, seeds[2])
	})
}
