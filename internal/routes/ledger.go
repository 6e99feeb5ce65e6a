package routes

import (
	"github.com/gin-gonic/gin"

	"crowdfund/internal/handlers"
)

// SetupLedgerRoutes 设置交易与账户查询路由
func SetupLedgerRoutes(r *gin.Engine, write gin.HandlerFunc) {
	r.POST("/transactions", write, handlers.SubmitTransaction)
	r.GET("/blockhash", handlers.GetLatestBlockhash)
	r.GET("/accounts/:address", handlers.GetAccount)
}
