package fundraiser

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PDA seed namespaces
var (
	SeedCampaign    = []byte("campaign")
	SeedContributor = []byte("contributor")
)

const (
	maxSeedLength = 32
	maxSeeds      = 16
	maxBumpTries  = 256
)

// PDAResult is a derived program address together with the bump that produced it.
type PDAResult struct {
	Address solana.PublicKey
	Bump    uint8
}

// AddressDeriver computes program-derived addresses for a single program.
type AddressDeriver struct {
	programID solana.PublicKey
}

// NewAddressDeriver returns a deriver bound to programID.
func NewAddressDeriver(programID solana.PublicKey) AddressDeriver {
	return AddressDeriver{programID: programID}
}

// ProgramID returns the program the deriver is bound to.
func (d AddressDeriver) ProgramID() solana.PublicKey {
	return d.programID
}

// Derive tries bumps 0, 1, ... 255 and returns the first one whose address falls off the
// ed25519 curve.
func (d AddressDeriver) Derive(seeds ...[]byte) (PDAResult, error) {
	if len(seeds) >= maxSeeds {
		return PDAResult{}, fmt.Errorf("too many seeds: %d", len(seeds))
	}
	for i, seed := range seeds {
		if len(seed) > maxSeedLength {
			return PDAResult{}, fmt.Errorf("seed %d exceeds %d bytes", i, maxSeedLength)
		}
	}

	for bump := 0; bump < maxBumpTries; bump++ {
		address, err := solana.CreateProgramAddress(withBump(seeds, uint8(bump)), d.programID)
		if err != nil {
			continue
		}
		return PDAResult{Address: address, Bump: uint8(bump)}, nil
	}
	return PDAResult{}, ErrDerivationExhausted
}

// CampaignPDA derives the campaign record address for owner.
func (d AddressDeriver) CampaignPDA(owner solana.PublicKey) (PDAResult, error) {
	res, err := d.Derive(SeedCampaign, owner[:])
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find campaign PDA: %w", err)
	}
	return res, nil
}

// ContributorPDA derives the contributor record address for a contributor in campaign.
func (d AddressDeriver) ContributorPDA(campaign, contributor solana.PublicKey) (PDAResult, error) {
	res, err := d.Derive(SeedContributor, campaign[:], contributor[:])
	if err != nil {
		return PDAResult{}, fmt.Errorf("failed to find contributor PDA: %w", err)
	}
	return res, nil
}

// CampaignSignerSeeds are the seeds, bump included, the program signs with for a campaign.
func CampaignSignerSeeds(owner solana.PublicKey, bump uint8) [][]byte {
	return withBump([][]byte{SeedCampaign, owner[:]}, bump)
}

// ContributorSignerSeeds are the seeds, bump included, the program signs with for a
// contributor record.
func ContributorSignerSeeds(campaign, contributor solana.PublicKey, bump uint8) [][]byte {
	return withBump([][]byte{SeedContributor, campaign[:], contributor[:]}, bump)
}

func withBump(seeds [][]byte, bump uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{bump})
}
