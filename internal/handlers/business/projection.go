package business

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crowdfund/internal/events"
	"crowdfund/internal/models"
	"crowdfund/pkg/solana/fundraiser"
)

var ErrUnknownEventType = errors.New("unknown event type")

// ApplyEvent 把一条链上事件投影到统计表，重复投递不会重复计数
func ApplyEvent(db *gorm.DB, evt events.Event) error {
	switch evt.Type {
	case events.TypeCampaignCreated:
		return applyCampaignCreated(db, evt)
	case events.TypeContributionMade:
		return applyContributionMade(db, evt)
	default:
		return fmt.Errorf("%q: %w", evt.Type, ErrUnknownEventType)
	}
}

func applyCampaignCreated(db *gorm.DB, evt events.Event) error {
	stat := models.CampaignStat{
		Campaign:     evt.Campaign,
		Owner:        evt.Owner,
		Mint:         evt.Mint,
		Pool:         evt.Pool,
		TargetAmount: evt.TargetAmount,
		Duration:     evt.Duration,
		StartedAt:    uint64(evt.Timestamp),
		Status:       string(fundraiser.StatusActive),
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign"}},
		DoNothing: true,
	}).Create(&stat)
	if result.Error != nil {
		return fmt.Errorf("failed to create campaign stat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		logrus.WithField("campaign", evt.Campaign).Debug("> 活动统计已存在，跳过")
	}
	return nil
}

func applyContributionMade(db *gorm.DB, evt events.Event) error {
	return db.Transaction(func(tx *gorm.DB) error {
		record := models.ContributionRecord{
			Signature:   evt.Signature,
			Instruction: evt.Instruction,
			Slot:        evt.Slot,
			Campaign:    evt.Campaign,
			Contributor: evt.Contributor,
			Record:      evt.ContributorRecord,
			Amount:      evt.Amount,
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "signature"}, {Name: "instruction"}},
			DoNothing: true,
		}).Create(&record)
		if result.Error != nil {
			return fmt.Errorf("failed to create contribution record: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			logrus.WithFields(logrus.Fields{
				"signature":   evt.Signature,
				"instruction": evt.Instruction,
			}).Debug("> 出资记录已存在，跳过")
			return nil
		}

		var contributors int64
		if err := tx.Model(&models.ContributionRecord{}).
			Where("campaign = ?", evt.Campaign).
			Distinct("contributor").
			Count(&contributors).Error; err != nil {
			return err
		}

		updated := tx.Model(&models.CampaignStat{}).
			Where("campaign = ?", evt.Campaign).
			Updates(map[string]interface{}{
				"current_amount":    gorm.Expr("current_amount + ?", evt.Amount),
				"contributor_sum":   gorm.Expr("contributor_sum + ?", evt.Amount),
				"contributor_count": contributors,
			})
		if updated.Error != nil {
			return fmt.Errorf("failed to update campaign stat: %w", updated.Error)
		}
		if updated.RowsAffected == 0 {
			logrus.WithField("campaign", evt.Campaign).Warn("> 出资对应的活动统计不存在，等待定时任务校准")
		}
		return nil
	})
}
