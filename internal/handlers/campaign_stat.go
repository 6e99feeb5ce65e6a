package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crowdfund/internal/models"
	dbconfig "crowdfund/pkg/config"
)

// ListCampaignStats 返回投影表里的全部众筹统计，可按 status 过滤
func ListCampaignStats(c *gin.Context) {
	var stats []models.CampaignStat
	query := dbconfig.DB.Order("id desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&stats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetCampaignStat 按活动地址返回统计
func GetCampaignStat(c *gin.Context) {
	var stat models.CampaignStat
	if err := dbconfig.DB.Where("campaign = ?", c.Param("campaign")).First(&stat).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, stat)
}

// ListContributionRecords 按活动地址分页返回出资流水
func ListContributionRecords(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if err != nil || pageSize < 1 || pageSize > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page_size"})
		return
	}

	var total int64
	query := dbconfig.DB.Model(&models.ContributionRecord{}).Where("campaign = ?", c.Param("campaign"))
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var records []models.ContributionRecord
	if err := query.Order("slot asc, instruction asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"records":   records,
	})
}
