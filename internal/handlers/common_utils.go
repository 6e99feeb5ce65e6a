package handlers

import (
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"crowdfund/pkg/config"
	"crowdfund/pkg/ledger"
	"crowdfund/pkg/solana/fundraiser"
)

// parseAddress 解析 base58 地址，失败时直接写 400
func parseAddress(c *gin.Context, field, value string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + field + " address"})
		return solana.PublicKey{}, false
	}
	return key, true
}

func deriver() fundraiser.AddressDeriver {
	return fundraiser.NewAddressDeriver(config.Program.ID())
}

// rejectedStatus 交易在执行前被拒绝时的 HTTP 状态码
func rejectedStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrSignatureVerification),
		errors.Is(err, ledger.ErrNoInstructions),
		errors.Is(err, ledger.ErrDuplicateSignature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// faucetStatus 水龙头操作失败时的 HTTP 状态码
func faucetStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrFaucetDisabled):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidMint),
		errors.Is(err, ledger.ErrInvalidTokenAccount),
		errors.Is(err, ledger.ErrMintMismatch),
		errors.Is(err, ledger.ErrOwnerMismatch),
		errors.Is(err, ledger.ErrAccountFrozen),
		errors.Is(err, ledger.ErrOverflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// mintDecimals 读取 mint 精度，mint 不存在时按 0 处理
func mintDecimals(mint solana.PublicKey) uint8 {
	acc, ok := config.Ledger.Account(mint)
	if !ok {
		return 0
	}
	m, err := ledger.MintState(acc)
	if err != nil {
		return 0
	}
	return m.Decimals
}

// tokenBalance 读取代币账户余额，账户不存在时返回 0
func tokenBalance(address solana.PublicKey) uint64 {
	acc, ok := config.Ledger.Account(address)
	if !ok {
		return 0
	}
	ta, err := ledger.TokenAccountState(acc)
	if err != nil {
		return 0
	}
	return ta.Amount
}
