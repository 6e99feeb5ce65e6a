package utils

import "errors"

var (
	errNegativeAmount  = errors.New("amount must not be negative")
	errAmountOverflow  = errors.New("amount does not fit in u64")
	errExcessPrecision = errors.New("amount has more decimal places than the mint")
)
