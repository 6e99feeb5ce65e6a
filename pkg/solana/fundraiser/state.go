package fundraiser

import (
	"bytes"
	"fmt"
	"math/bits"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Record sizes in bytes.
const (
	CampaignLen    = 32 + 32 + 8 + 8 + 8 + 8 + 1
	ContributorLen = 8
)

// Campaign is the fundraising record stored at the campaign PDA.
type Campaign struct {
	Owner         solana.PublicKey `json:"owner"`
	Mint          solana.PublicKey `json:"mint"`
	TargetAmount  uint64           `json:"target_amount"`
	CurrentAmount uint64           `json:"current_amount"`
	CreatedAt     uint64           `json:"created_at"`
	Duration      uint64           `json:"duration"`
	Bump          uint8            `json:"bump"`
}

func (c Campaign) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(c.Owner[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(c.Mint[:], false); err != nil {
		return err
	}
	for _, v := range []uint64{c.TargetAmount, c.CurrentAmount, c.CreatedAt, c.Duration} {
		if err := enc.WriteUint64(v, bin.LE); err != nil {
			return err
		}
	}
	return enc.WriteUint8(c.Bump)
}

func (c *Campaign) UnmarshalWithDecoder(dec *bin.Decoder) error {
	owner, err := dec.ReadNBytes(32)
	if err != nil {
		return err
	}
	c.Owner = solana.PublicKeyFromBytes(owner)

	mint, err := dec.ReadNBytes(32)
	if err != nil {
		return err
	}
	c.Mint = solana.PublicKeyFromBytes(mint)

	for _, dst := range []*uint64{&c.TargetAmount, &c.CurrentAmount, &c.CreatedAt, &c.Duration} {
		if *dst, err = dec.ReadUint64(bin.LE); err != nil {
			return err
		}
	}

	c.Bump, err = dec.ReadUint8()
	return err
}

// Encode writes the campaign into an account buffer of exactly CampaignLen bytes.
func (c Campaign) Encode(dst []byte) error {
	if len(dst) != CampaignLen {
		return fmt.Errorf("campaign buffer is %d bytes: %w", len(dst), ErrInvalidAccountData)
	}
	buf := new(bytes.Buffer)
	if err := c.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return fmt.Errorf("encode campaign: %w", err)
	}
	copy(dst, buf.Bytes())
	return nil
}

// DecodeCampaign reads a campaign from account data.
func DecodeCampaign(data []byte) (Campaign, error) {
	var c Campaign
	if len(data) != CampaignLen {
		return c, fmt.Errorf("campaign data is %d bytes: %w", len(data), ErrInvalidAccountData)
	}
	if err := c.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return c, fmt.Errorf("decode campaign: %v: %w", err, ErrInvalidAccountData)
	}
	return c, nil
}

// EndsAt returns the unix second the campaign stops accepting contributions.
func (c Campaign) EndsAt() uint64 {
	end, carry := bits.Add64(c.CreatedAt, c.Duration, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return end
}

// CampaignStatus is the logical lifecycle phase of a campaign.
type CampaignStatus string

const (
	StatusActive     CampaignStatus = "active"
	StatusSuccessful CampaignStatus = "successful"
	StatusExpired    CampaignStatus = "expired"
)

// Status computes the lifecycle phase at now.
func (c Campaign) Status(now uint64) CampaignStatus {
	switch {
	case now < c.EndsAt():
		return StatusActive
	case c.CurrentAmount >= c.TargetAmount:
		return StatusSuccessful
	default:
		return StatusExpired
	}
}

// Contributor is the per-contributor accounting record.
type Contributor struct {
	Amount uint64 `json:"amount"`
}

func (c Contributor) MarshalWithEncoder(enc *bin.Encoder) error {
	return enc.WriteUint64(c.Amount, bin.LE)
}

func (c *Contributor) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	c.Amount, err = dec.ReadUint64(bin.LE)
	return err
}

// Encode writes the record into an account buffer of exactly ContributorLen bytes.
func (c Contributor) Encode(dst []byte) error {
	if len(dst) != ContributorLen {
		return fmt.Errorf("contributor buffer is %d bytes: %w", len(dst), ErrInvalidAccountData)
	}
	buf := new(bytes.Buffer)
	if err := c.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return fmt.Errorf("encode contributor: %w", err)
	}
	copy(dst, buf.Bytes())
	return nil
}

// DecodeContributor reads a contributor record from account data.
func DecodeContributor(data []byte) (Contributor, error) {
	var c Contributor
	if len(data) != ContributorLen {
		return c, fmt.Errorf("contributor data is %d bytes: %w", len(data), ErrInvalidAccountData)
	}
	if err := c.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return c, fmt.Errorf("decode contributor: %v: %w", err, ErrInvalidAccountData)
	}
	return c, nil
}

const bpsDenominator = 10_000

// Bounds is the contribution policy, expressed in basis points of the campaign target.
type Bounds struct {
	MinBps uint64
	MaxBps uint64
}

// DefaultBounds accepts single contributions between 0.1% and 10% of the target.
var DefaultBounds = Bounds{MinBps: 10, MaxBps: 1_000}

// Validate checks the policy is usable.
func (b Bounds) Validate() error {
	if b.MaxBps > bpsDenominator || b.MinBps > b.MaxBps {
		return fmt.Errorf("invalid contribution bounds: min %d bps, max %d bps", b.MinBps, b.MaxBps)
	}
	return nil
}

// MinSendable is the smallest single contribution accepted for target, never below one unit.
func (b Bounds) MinSendable(target uint64) uint64 {
	if v := bpsOf(target, b.MinBps); v > 0 {
		return v
	}
	return 1
}

// MaxSendable is the largest single contribution accepted for target.
func (b Bounds) MaxSendable(target uint64) uint64 {
	return bpsOf(target, b.MaxBps)
}

// Admits reports whether a campaign with this target can accept any contribution at all.
// Under the default policy that means a target of at least 10 units.
func (b Bounds) Admits(target uint64) bool {
	return target > 0 && b.MaxSendable(target) >= b.MinSendable(target)
}

func bpsOf(amount, bps uint64) uint64 {
	if bps > bpsDenominator {
		bps = bpsDenominator
	}
	hi, lo := bits.Mul64(amount, bps)
	q, _ := bits.Div64(hi, lo, bpsDenominator)
	return q
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}
