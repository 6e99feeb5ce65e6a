// Package fundraiser implements the crowdfunding program: campaign creation and bounded
// contributions into a token pool owned by the campaign's derived address.
//
// Every handler validates the full account set before it mutates anything, so a failed
// instruction leaves no trace even before the host rolls back its working set.
package fundraiser

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"crowdfund/pkg/solana/program"
)

// Processor dispatches fundraiser instructions.
type Processor struct {
	programID solana.PublicKey
	validator AccountValidator
	bounds    Bounds
}

// Option configures a Processor.
type Option func(*Processor)

// WithBounds overrides the contribution bounds policy.
func WithBounds(b Bounds) Option {
	return func(p *Processor) {
		p.bounds = b
	}
}

// NewProcessor returns the program bound to programID.
func NewProcessor(programID solana.PublicKey, opts ...Option) (*Processor, error) {
	p := &Processor{
		programID: programID,
		validator: NewAccountValidator(programID),
		bounds:    DefaultBounds,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.bounds.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the program identity.
func (p *Processor) ID() solana.PublicKey {
	return p.programID
}

// Bounds returns the contribution policy in force.
func (p *Processor) Bounds() Bounds {
	return p.bounds
}

// Process decodes the opcode and runs the matching handler.
func (p *Processor) Process(rt program.Runtime, accounts []*program.AccountInfo, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty instruction: %w", ErrInvalidInstructionData)
	}

	op, payload := Opcode(data[0]), data[1:]
	switch op {
	case OpInitialize:
		return p.initialize(rt, accounts, payload)
	case OpContribute:
		return p.contribute(rt, accounts, payload)
	default:
		return fmt.Errorf("%s: %w", op, ErrInvalidInstructionData)
	}
}

var _ program.Program = (*Processor)(nil)
