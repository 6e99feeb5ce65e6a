package models

import "time"

// LedgerAccount is the persisted state of one ledger account.
type LedgerAccount struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Address    string    `gorm:"size:64;uniqueIndex;not null" json:"address"`
	Owner      string    `gorm:"size:64;not null;index" json:"owner"`
	Lamports   uint64    `gorm:"not null;default:0" json:"lamports"`
	Data       []byte    `gorm:"type:bytea" json:"data"`
	Executable bool      `gorm:"default:false" json:"executable"`
	Slot       uint64    `gorm:"not null;default:0" json:"slot"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (LedgerAccount) TableName() string {
	return "ledger_account"
}

// TransactionRecord 已处理交易
type TransactionRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Signature string    `gorm:"size:100;uniqueIndex;not null" json:"signature"`
	Slot      uint64    `gorm:"not null;index" json:"slot"`
	Success   bool      `gorm:"not null" json:"success"`
	Error     string    `gorm:"type:text" json:"error"`
	Logs      string    `gorm:"type:text" json:"logs"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TransactionRecord) TableName() string {
	return "transaction_record"
}
