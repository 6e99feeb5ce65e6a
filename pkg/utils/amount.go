package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// UiAmount 把链上最小单位的数量换算成带小数位的展示数量
func UiAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// FormatUiAmount 按代币精度输出固定小数位的字符串
func FormatUiAmount(amount uint64, decimals uint8) string {
	return UiAmount(amount, decimals).StringFixed(int32(decimals))
}

// ParseUiAmount 把展示数量换算回最小单位，小数位超过代币精度时报错
func ParseUiAmount(s string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, errNegativeAmount
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, errExcessPrecision
	}
	raw := shifted.BigInt()
	if !raw.IsUint64() {
		return 0, errAmountOverflow
	}
	return raw.Uint64(), nil
}

// ProgressPercent 计算已筹金额占目标的百分比，保留两位小数；目标为 0 时返回 0
func ProgressPercent(current, target uint64) decimal.Decimal {
	if target == 0 {
		return decimal.Zero
	}
	c := decimal.NewFromBigInt(new(big.Int).SetUint64(current), 0)
	t := decimal.NewFromBigInt(new(big.Int).SetUint64(target), 0)
	return c.Mul(decimal.NewFromInt(100)).DivRound(t, 2)
}
