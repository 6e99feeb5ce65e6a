package fundraiser

import (
	"github.com/gagliardetto/solana-go"
)

// Settlement is how a finished campaign is unwound. No implementation is registered on the
// ledger yet; OpCheckContributions and OpRefund are rejected by the processor until one is.
//
// Claim moves the whole pool to the campaign owner once the campaign is successful and
// closes the campaign record. Refund returns a contributor's recorded amount from the pool
// once the campaign has expired short of its target and closes the contributor record.
type Settlement interface {
	Claim(campaign solana.PublicKey, owner solana.PublicKey) error
	Refund(campaign solana.PublicKey, contributor solana.PublicKey) error
}

// CanClaim reports whether the owner may collect the pool at now.
func CanClaim(c Campaign, now uint64) bool {
	return c.Status(now) == StatusSuccessful
}

// CanRefund reports whether contributors may take their funds back at now.
func CanRefund(c Campaign, now uint64) bool {
	return c.Status(now) == StatusExpired
}
