package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"crowdfund/pkg/config"
	solanautil "crowdfund/pkg/solana"
)

type SubmitTransactionRequest struct {
	// base64 编码的已签名交易
	Transaction string `json:"transaction" binding:"required"`
}

// SubmitTransaction 执行一笔已签名交易
func SubmitTransaction(c *gin.Context) {
	var request SubmitTransactionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := solanautil.DecodeTransaction(request.Transaction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := config.Ledger.ProcessTransaction(c.Request.Context(), tx)
	if receipt == nil {
		status := rejectedStatus(err)
		if status == http.StatusInternalServerError {
			log.WithError(err).Error("transaction could not be committed")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	resp := newReceiptResp(receipt)
	if !receipt.Succeeded() {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetLatestBlockhash 返回客户端签名用的 blockhash
func GetLatestBlockhash(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"blockhash": config.Ledger.LatestBlockhash().String(),
		"slot":      config.Ledger.Slot(),
	})
}
