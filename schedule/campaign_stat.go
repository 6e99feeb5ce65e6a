// Package schedule holds the periodic jobs that run inside the API process.
package schedule

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crowdfund/internal/handlers/business"
)

// CampaignStatSchedule 每分钟第 0 秒执行
const CampaignStatSchedule = "0 * * * * *"

const reconcileTimeout = 50 * time.Second

// ReconcileJob 返回校准活动统计的任务函数
func ReconcileJob(db *gorm.DB, bank business.LedgerReader, programID solana.PublicKey) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		start := time.Now()
		res, err := business.ReconcileCampaignStats(ctx, db, bank, programID)
		if err != nil {
			logger.Errorf("> 校准活动统计失败: %v", err)
			return
		}
		entry := logger.WithFields(logger.Fields{
			"checked":  res.Checked,
			"diverged": res.Diverged,
			"missing":  res.Missing,
			"elapsed":  time.Since(start).String(),
		})
		if res.Diverged > 0 || res.Missing > 0 {
			entry.Warn("> 活动统计校准完成，存在不一致")
			return
		}
		entry.Info("> 活动统计校准完成")
	}
}

// StartCampaignStat 创建并启动定时任务，调用方负责 Stop
func StartCampaignStat(db *gorm.DB, bank business.LedgerReader, programID solana.PublicKey) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(CampaignStatSchedule, ReconcileJob(db, bank, programID)); err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("> 定时任务已启动，每分钟校准一次活动统计")
	return c, nil
}
