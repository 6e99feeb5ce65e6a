package fundraiser

import (
	"errors"
	"fmt"
)

// ProgramError is a failure raised by the fundraiser program. The numeric value is stable
// and is what clients see as the custom error code.
type ProgramError uint32

const (
	ErrMissingAccounts ProgramError = iota + 1
	ErrNotSigner
	ErrWrongOwner
	ErrIllegalOwner
	ErrWrongMint
	ErrWrongDerivedAddress
	ErrInsufficientFunds
	ErrAmountOutOfBounds
	ErrArithmeticOverflow
	ErrInvalidInstructionData
	ErrDerivationExhausted
	ErrInvalidAccountData
	ErrUninitializedMint
	ErrAccountAlreadyInitialized
	ErrInvalidCampaignTarget
	ErrCampaignEnded
)

var programErrorNames = map[ProgramError]string{
	ErrMissingAccounts:           "MissingAccounts",
	ErrNotSigner:                 "NotSigner",
	ErrWrongOwner:                "WrongOwner",
	ErrIllegalOwner:              "IllegalOwner",
	ErrWrongMint:                 "WrongMint",
	ErrWrongDerivedAddress:       "WrongDerivedAddress",
	ErrInsufficientFunds:         "InsufficientFunds",
	ErrAmountOutOfBounds:         "AmountOutOfBounds",
	ErrArithmeticOverflow:        "ArithmeticOverflow",
	ErrInvalidInstructionData:    "InvalidInstructionData",
	ErrDerivationExhausted:       "DerivationExhausted",
	ErrInvalidAccountData:        "InvalidAccountData",
	ErrUninitializedMint:         "UninitializedMint",
	ErrAccountAlreadyInitialized: "AccountAlreadyInitialized",
	ErrInvalidCampaignTarget:     "InvalidCampaignTarget",
	ErrCampaignEnded:             "CampaignEnded",
}

// Name returns the symbolic name of the error.
func (e ProgramError) Name() string {
	if name, ok := programErrorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint32(e))
}

// Code returns the numeric custom error code.
func (e ProgramError) Code() uint32 {
	return uint32(e)
}

func (e ProgramError) Error() string {
	return "fundraiser: " + e.Name()
}

// ErrorCode extracts the ProgramError carried by err, if any.
func ErrorCode(err error) (ProgramError, bool) {
	var pe ProgramError
	if errors.As(err, &pe) {
		return pe, true
	}
	return 0, false
}
