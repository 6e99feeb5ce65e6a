package routes

import (
	"github.com/gin-gonic/gin"

	"crowdfund/internal/handlers"
)

// SetupFaucetRoutes 设置测试水龙头路由
func SetupFaucetRoutes(r *gin.Engine, write gin.HandlerFunc) {
	faucet := r.Group("/faucet", write)
	{
		faucet.POST("/airdrop", handlers.Airdrop)
		faucet.POST("/mints", handlers.CreateMint)
		faucet.POST("/token-accounts", handlers.CreateTokenAccount)
		faucet.POST("/mint-to", handlers.MintTo)
	}
}
