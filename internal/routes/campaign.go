package routes

import (
	"github.com/gin-gonic/gin"

	"crowdfund/internal/handlers"
	"crowdfund/pkg/config"
)

// SetupCampaignRoutes 设置众筹活动相关路由
func SetupCampaignRoutes(r *gin.Engine) {
	campaigns := r.Group("/campaigns")
	{
		campaigns.GET("/:owner", handlers.GetCampaign)
		campaigns.GET("/:owner/contributors/:contributor", handlers.GetContributor)
	}

	r.GET("/programs/fundraiser/pda", handlers.DerivePDA)

	// 投影表只在配置了数据库时存在
	if config.DB == nil {
		return
	}
	stats := r.Group("/campaign-stats")
	{
		stats.GET("", handlers.ListCampaignStats)
		stats.GET("/:campaign", handlers.GetCampaignStat)
		stats.GET("/:campaign/contributions", handlers.ListContributionRecords)
	}
}
