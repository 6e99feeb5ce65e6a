package models

import (
	"time"
)

// CampaignStat 活动统计，由事件投影并由定时任务校准
type CampaignStat struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Campaign         string    `json:"campaign" gorm:"size:64;uniqueIndex;not null"`
	Owner            string    `json:"owner" gorm:"size:64;not null;index"`
	Mint             string    `json:"mint" gorm:"size:64;not null"`
	Pool             string    `json:"pool" gorm:"size:64"`
	TargetAmount     uint64    `json:"target_amount"`
	CurrentAmount    uint64    `json:"current_amount"`
	PoolBalance      uint64    `json:"pool_balance"`
	ContributorSum   uint64    `json:"contributor_sum"`
	ContributorCount int64     `json:"contributor_count"`
	Duration         uint64    `json:"duration"`
	StartedAt        uint64    `json:"started_at"`
	Status           string    `json:"status" gorm:"size:20;index"`
	Diverged         bool      `json:"diverged" gorm:"default:false"`
	ReconciledAt     time.Time `json:"reconciled_at"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CampaignStat) TableName() string {
	return "campaign_stats"
}

// ContributionRecord 单笔出资记录，按交易签名和指令序号去重
type ContributionRecord struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Signature   string    `json:"signature" gorm:"size:100;not null;uniqueIndex:idx_contribution_signature_ix"`
	Instruction int       `json:"instruction" gorm:"not null;default:0;uniqueIndex:idx_contribution_signature_ix"`
	Slot        uint64    `json:"slot" gorm:"index"`
	Campaign    string    `json:"campaign" gorm:"size:64;not null;index"`
	Contributor string    `json:"contributor" gorm:"size:64;not null;index"`
	Record      string    `json:"record" gorm:"size:64"`
	Amount      uint64    `json:"amount"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ContributionRecord) TableName() string {
	return "contribution_records"
}
