package fundraiser

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Opcode is the leading byte of every fundraiser instruction.
type Opcode uint8

const (
	OpInitialize         Opcode = 0
	OpContribute         Opcode = 1
	OpCheckContributions Opcode = 2
	OpRefund             Opcode = 3
)

func (o Opcode) String() string {
	switch o {
	case OpInitialize:
		return "initialize"
	case OpContribute:
		return "contribute"
	case OpCheckContributions:
		return "check_contributions"
	case OpRefund:
		return "refund"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(o))
	}
}

// Account positions for initialize.
const (
	initializeOwner = iota
	initializeMint
	initializeCampaign
	initializePool
	initializeAccountsLen
)

// Account positions for contribute.
const (
	contributeContributor = iota
	contributeMint
	contributeCampaign
	contributePool
	contributeFunding
	contributeRecord
	contributeAccountsLen
)

const (
	initializeArgsLen = 16
	contributeArgsLen = 8
)

// InitializeArgs is the initialize payload.
type InitializeArgs struct {
	TargetAmount uint64
	Duration     uint64
}

// Bytes encodes the payload without the opcode.
func (a InitializeArgs) Bytes() []byte {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteUint64(a.TargetAmount, bin.LE)
	_ = enc.WriteUint64(a.Duration, bin.LE)
	return buf.Bytes()
}

// DecodeInitializeArgs parses an initialize payload of exactly 16 bytes.
func DecodeInitializeArgs(data []byte) (InitializeArgs, error) {
	var a InitializeArgs
	if len(data) != initializeArgsLen {
		return a, fmt.Errorf("initialize payload is %d bytes: %w", len(data), ErrInvalidInstructionData)
	}
	dec := bin.NewBinDecoder(data)
	var err error
	if a.TargetAmount, err = dec.ReadUint64(bin.LE); err != nil {
		return a, fmt.Errorf("target amount: %v: %w", err, ErrInvalidInstructionData)
	}
	if a.Duration, err = dec.ReadUint64(bin.LE); err != nil {
		return a, fmt.Errorf("duration: %v: %w", err, ErrInvalidInstructionData)
	}
	return a, nil
}

// ContributeArgs is the contribute payload.
type ContributeArgs struct {
	Amount uint64
}

// Bytes encodes the payload without the opcode.
func (a ContributeArgs) Bytes() []byte {
	buf := new(bytes.Buffer)
	_ = bin.NewBinEncoder(buf).WriteUint64(a.Amount, bin.LE)
	return buf.Bytes()
}

// DecodeContributeArgs parses a contribute payload of exactly 8 bytes.
func DecodeContributeArgs(data []byte) (ContributeArgs, error) {
	var a ContributeArgs
	if len(data) != contributeArgsLen {
		return a, fmt.Errorf("contribute payload is %d bytes: %w", len(data), ErrInvalidInstructionData)
	}
	amount, err := bin.NewBinDecoder(data).ReadUint64(bin.LE)
	if err != nil {
		return a, fmt.Errorf("amount: %v: %w", err, ErrInvalidInstructionData)
	}
	a.Amount = amount
	return a, nil
}

// NewInitializeInstruction builds an initialize instruction for owner's campaign. The pool
// must already exist as a token account owned by the campaign PDA.
func NewInitializeInstruction(
	programID solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	pool solana.PublicKey,
	args InitializeArgs,
) (solana.Instruction, error) {
	campaign, err := NewAddressDeriver(programID).CampaignPDA(owner)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: owner, IsWritable: true, IsSigner: true},
		{PublicKey: mint, IsWritable: false, IsSigner: false},
		{PublicKey: campaign.Address, IsWritable: true, IsSigner: false},
		{PublicKey: pool, IsWritable: false, IsSigner: false},
		{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
	}

	data := append([]byte{byte(OpInitialize)}, args.Bytes()...)
	return solana.NewInstruction(programID, accounts, data), nil
}

// NewContributeInstruction builds a contribute instruction from contributor's funding
// account into the pool of owner's campaign.
func NewContributeInstruction(
	programID solana.PublicKey,
	contributor solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	pool solana.PublicKey,
	funding solana.PublicKey,
	amount uint64,
) (solana.Instruction, error) {
	deriver := NewAddressDeriver(programID)
	campaign, err := deriver.CampaignPDA(owner)
	if err != nil {
		return nil, err
	}
	record, err := deriver.ContributorPDA(campaign.Address, contributor)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: contributor, IsWritable: true, IsSigner: true},
		{PublicKey: mint, IsWritable: false, IsSigner: false},
		{PublicKey: campaign.Address, IsWritable: true, IsSigner: false},
		{PublicKey: pool, IsWritable: true, IsSigner: false},
		{PublicKey: funding, IsWritable: true, IsSigner: false},
		{PublicKey: record.Address, IsWritable: true, IsSigner: false},
		{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
	}

	data := append([]byte{byte(OpContribute)}, ContributeArgs{Amount: amount}.Bytes()...)
	return solana.NewInstruction(programID, accounts, data), nil
}

// ParsedInstruction is a decoded fundraiser instruction, used by indexers and the API.
type ParsedInstruction struct {
	Opcode     Opcode
	Initialize *InitializeArgs
	Contribute *ContributeArgs

	Signer            solana.PublicKey
	Mint              solana.PublicKey
	Campaign          solana.PublicKey
	Pool              solana.PublicKey
	Funding           solana.PublicKey
	ContributorRecord solana.PublicKey
}

// DecodeInstruction parses raw instruction data with its ordered account keys.
func DecodeInstruction(accounts []solana.PublicKey, data []byte) (*ParsedInstruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty instruction: %w", ErrInvalidInstructionData)
	}
	parsed := &ParsedInstruction{Opcode: Opcode(data[0])}

	switch parsed.Opcode {
	case OpInitialize:
		if len(accounts) < initializeAccountsLen {
			return nil, ErrMissingAccounts
		}
		args, err := DecodeInitializeArgs(data[1:])
		if err != nil {
			return nil, err
		}
		parsed.Initialize = &args
		parsed.Signer = accounts[initializeOwner]
		parsed.Mint = accounts[initializeMint]
		parsed.Campaign = accounts[initializeCampaign]
		parsed.Pool = accounts[initializePool]
	case OpContribute:
		if len(accounts) < contributeAccountsLen {
			return nil, ErrMissingAccounts
		}
		args, err := DecodeContributeArgs(data[1:])
		if err != nil {
			return nil, err
		}
		parsed.Contribute = &args
		parsed.Signer = accounts[contributeContributor]
		parsed.Mint = accounts[contributeMint]
		parsed.Campaign = accounts[contributeCampaign]
		parsed.Pool = accounts[contributePool]
		parsed.Funding = accounts[contributeFunding]
		parsed.ContributorRecord = accounts[contributeRecord]
	default:
		return nil, fmt.Errorf("%s: %w", parsed.Opcode, ErrInvalidInstructionData)
	}
	return parsed, nil
}
