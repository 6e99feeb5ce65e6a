package business

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crowdfund/internal/models"
	"crowdfund/pkg/ledger"
	"crowdfund/pkg/solana/fundraiser"
)

// LedgerReader 是校准需要的账本只读视图
type LedgerReader interface {
	Account(key solana.PublicKey) (ledger.Account, bool)
	Now() time.Time
}

// ReconcileResult 一次校准的汇总
type ReconcileResult struct {
	Checked  int
	Diverged int
	Missing  int
}

// ReconcileCampaignStats 用账本状态校准投影表：刷新状态、池子余额和出资汇总，
// 与账本不一致的活动会被标记为 diverged
func ReconcileCampaignStats(ctx context.Context, db *gorm.DB, bank LedgerReader, programID solana.PublicKey) (ReconcileResult, error) {
	var result ReconcileResult

	var stats []models.CampaignStat
	if err := db.WithContext(ctx).Find(&stats).Error; err != nil {
		return result, err
	}

	now := bank.Now()
	for i := range stats {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		stat := &stats[i]
		result.Checked++

		campaign, ok := readCampaign(bank, programID, stat.Campaign)
		if !ok {
			result.Missing++
			logrus.WithField("campaign", stat.Campaign).Warn("> 账本中找不到活动账户")
			if err := db.WithContext(ctx).Model(stat).Updates(map[string]interface{}{
				"diverged":      true,
				"reconciled_at": now,
			}).Error; err != nil {
				return result, err
			}
			continue
		}

		var sum struct {
			Total int64
			Count int64
		}
		if err := db.WithContext(ctx).Model(&models.ContributionRecord{}).
			Select("COALESCE(SUM(amount), 0) AS total, COUNT(DISTINCT contributor) AS count").
			Where("campaign = ?", stat.Campaign).
			Scan(&sum).Error; err != nil {
			return result, err
		}

		poolBalance := readPoolBalance(bank, stat.Pool)
		contributorSum := uint64(sum.Total)
		diverged := campaign.CurrentAmount != contributorSum || campaign.CurrentAmount != poolBalance
		if diverged {
			result.Diverged++
			logrus.WithFields(logrus.Fields{
				"campaign":        stat.Campaign,
				"current_amount":  campaign.CurrentAmount,
				"contributor_sum": contributorSum,
				"pool_balance":    poolBalance,
			}).Warn("> 活动统计与账本不一致")
		}

		if err := db.WithContext(ctx).Model(stat).Updates(map[string]interface{}{
			"current_amount":    campaign.CurrentAmount,
			"target_amount":     campaign.TargetAmount,
			"started_at":        campaign.CreatedAt,
			"duration":          campaign.Duration,
			"status":            string(campaign.Status(uint64(now.Unix()))),
			"pool_balance":      poolBalance,
			"contributor_sum":   contributorSum,
			"contributor_count": sum.Count,
			"diverged":          diverged,
			"reconciled_at":     now,
		}).Error; err != nil {
			return result, err
		}
	}
	return result, nil
}

func readCampaign(bank LedgerReader, programID solana.PublicKey, address string) (fundraiser.Campaign, bool) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return fundraiser.Campaign{}, false
	}
	acc, ok := bank.Account(key)
	if !ok || !acc.Owner.Equals(programID) {
		return fundraiser.Campaign{}, false
	}
	campaign, err := fundraiser.DecodeCampaign(acc.Data)
	if err != nil {
		return fundraiser.Campaign{}, false
	}
	return campaign, true
}

func readPoolBalance(bank LedgerReader, address string) uint64 {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0
	}
	acc, ok := bank.Account(key)
	if !ok {
		return 0
	}
	ta, err := ledger.TokenAccountState(acc)
	if err != nil {
		return 0
	}
	return ta.Amount
}
