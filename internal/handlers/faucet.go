package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crowdfund/pkg/config"
)

type AirdropRequest struct {
	Address  string `json:"address" binding:"required"`
	Lamports uint64 `json:"lamports" binding:"required"`
}

type CreateMintRequest struct {
	Authority string `json:"authority" binding:"required"`
	Decimals  uint8  `json:"decimals"`
}

type CreateTokenAccountRequest struct {
	Owner string `json:"owner" binding:"required"`
	Mint  string `json:"mint" binding:"required"`
}

type MintToRequest struct {
	Mint        string `json:"mint" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Amount      uint64 `json:"amount" binding:"required"`
}

// Airdrop credits lamports to an address
func Airdrop(c *gin.Context) {
	var request AirdropRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, ok := parseAddress(c, "destination", request.Address)
	if !ok {
		return
	}
	receipt, err := config.Ledger.Airdrop(c.Request.Context(), to, request.Lamports)
	if err != nil {
		c.JSON(faucetStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": newReceiptResp(receipt)})
}

// CreateMint creates a new SPL mint
func CreateMint(c *gin.Context) {
	var request CreateMintRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseAddress(c, "authority", request.Authority)
	if !ok {
		return
	}
	mint, receipt, err := config.Ledger.CreateMint(c.Request.Context(), authority, request.Decimals)
	if err != nil {
		c.JSON(faucetStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"mint": mint.String(), "receipt": newReceiptResp(receipt)})
}

// CreateTokenAccount opens the owner's associated token account. It is idempotent.
func CreateTokenAccount(c *gin.Context) {
	var request CreateTokenAccountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	owner, ok := parseAddress(c, "owner", request.Owner)
	if !ok {
		return
	}
	mint, ok := parseAddress(c, "mint", request.Mint)
	if !ok {
		return
	}
	address, receipt, err := config.Ledger.CreateTokenAccount(c.Request.Context(), owner, mint)
	if err != nil {
		c.JSON(faucetStatus(err), gin.H{"error": err.Error()})
		return
	}
	if receipt == nil {
		c.JSON(http.StatusOK, gin.H{"address": address.String(), "created": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"address": address.String(), "created": true, "receipt": newReceiptResp(receipt)})
}

// MintTo mints tokens into a token account
func MintTo(c *gin.Context) {
	var request MintToRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mint, ok := parseAddress(c, "mint", request.Mint)
	if !ok {
		return
	}
	dest, ok := parseAddress(c, "destination", request.Destination)
	if !ok {
		return
	}
	receipt, err := config.Ledger.MintTo(c.Request.Context(), mint, dest, request.Amount)
	if err != nil {
		c.JSON(faucetStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": newReceiptResp(receipt)})
}
