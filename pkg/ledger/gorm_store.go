package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crowdfund/internal/models"
)

// GormStore persists the ledger into ledger_account and transaction_record.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Load(ctx context.Context) (map[solana.PublicKey]Account, uint64, error) {
	var rows []models.LedgerAccount
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load ledger accounts: %w", err)
	}

	accounts := make(map[solana.PublicKey]Account, len(rows))
	for _, row := range rows {
		key, err := solana.PublicKeyFromBase58(row.Address)
		if err != nil {
			log.WithField("address", row.Address).Warn("skipping ledger account with malformed address")
			continue
		}
		owner, err := solana.PublicKeyFromBase58(row.Owner)
		if err != nil {
			return nil, 0, fmt.Errorf("account %s has malformed owner %q: %w", row.Address, row.Owner, err)
		}
		accounts[key] = Account{
			Lamports:   row.Lamports,
			Owner:      owner,
			Data:       row.Data,
			Executable: row.Executable,
		}
	}

	// faucet batches only touch ledger_account, so the last slot is the larger of the two
	var txSlot, accountSlot uint64
	err := s.db.WithContext(ctx).Model(&models.TransactionRecord{}).
		Select("COALESCE(MAX(slot), 0)").Scan(&txSlot).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load last slot: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&models.LedgerAccount{}).
		Select("COALESCE(MAX(slot), 0)").Scan(&accountSlot).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load last slot: %w", err)
	}
	if accountSlot > txSlot {
		return accounts, accountSlot, nil
	}
	return accounts, txSlot, nil
}

func (s *GormStore) Commit(ctx context.Context, batch Batch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(batch.Accounts) > 0 {
			rows := make([]models.LedgerAccount, 0, len(batch.Accounts))
			for key, acc := range batch.Accounts {
				rows = append(rows, models.LedgerAccount{
					Address:    key.String(),
					Owner:      acc.Owner.String(),
					Lamports:   acc.Lamports,
					Data:       acc.Data,
					Executable: acc.Executable,
					Slot:       batch.Slot,
				})
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "address"}},
				DoUpdates: clause.AssignmentColumns([]string{"owner", "lamports", "data", "executable", "slot", "updated_at"}),
			}).Create(&rows).Error
			if err != nil {
				return fmt.Errorf("failed to upsert ledger accounts: %w", err)
			}
		}

		if batch.Signature == (solana.Signature{}) {
			return nil
		}
		logs, err := json.Marshal(batch.Logs)
		if err != nil {
			return err
		}
		record := models.TransactionRecord{
			Signature: batch.Signature.String(),
			Slot:      batch.Slot,
			Success:   batch.Err == nil,
			Logs:      string(logs),
		}
		if batch.Err != nil {
			record.Error = batch.Err.Error()
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to save transaction record: %w", err)
		}
		return nil
	})
}
