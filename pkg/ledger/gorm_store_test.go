package ledger_test

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crowdfund/internal/models"
	"crowdfund/pkg/ledger"
)

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.LedgerAccount{}, &models.TransactionRecord{}))
	return db
}

func TestGormStore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := ledger.NewGormStore(db)

	bank, err := ledger.NewBank(ctx, ledger.WithStore(store))
	require.NoError(t, err)

	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	_, err = bank.Airdrop(ctx, payer.PublicKey(), solana.LAMPORTS_PER_SOL)
	require.NoError(t, err)
	mint, _, err := bank.CreateMint(ctx, payer.PublicKey(), 9)
	require.NoError(t, err)

	recipient := solana.NewWallet().PublicKey()
	send := func(lamports uint64) (*ledger.Receipt, error) {
		tx, err := solana.NewTransaction(
			[]solana.Instruction{system.NewTransferInstruction(lamports, payer.PublicKey(), recipient).Build()},
			bank.LatestBlockhash(),
			solana.TransactionPayer(payer.PublicKey()),
		)
		require.NoError(t, err)
		_, err = tx.Sign(func(solana.PublicKey) *solana.PrivateKey { return &payer })
		require.NoError(t, err)
		return bank.ProcessTransaction(ctx, tx)
	}

	ok, err := send(1_000)
	require.NoError(t, err)
	failed, err := send(10 * solana.LAMPORTS_PER_SOL)
	require.Error(t, err)
	require.NotNil(t, failed)

	t.Run("Records Every Signed Transaction", func(t *testing.T) {
		var records []models.TransactionRecord
		require.NoError(t, db.Order("slot asc").Find(&records).Error)
		require.Len(t, records, 2)

		assert.Equal(t, ok.Signature.String(), records[0].Signature)
		assert.True(t, records[0].Success)
		assert.Contains(t, records[0].Logs, "invoke [1]")

		assert.Equal(t, failed.Signature.String(), records[1].Signature)
		assert.False(t, records[1].Success)
		assert.NotEmpty(t, records[1].Error)
	})

	t.Run("Reload Restores Accounts And Slot", func(t *testing.T) {
		reopened, err := ledger.NewBank(ctx, ledger.WithStore(ledger.NewGormStore(db)))
		require.NoError(t, err)
		assert.Equal(t, bank.Slot(), reopened.Slot())

		got, found := reopened.Account(recipient)
		require.True(t, found)
		assert.Equal(t, uint64(1_000), got.Lamports)

		mintAcc, found := reopened.Account(mint)
		require.True(t, found)
		state, err := ledger.MintState(mintAcc)
		require.NoError(t, err)
		assert.Equal(t, uint8(9), state.Decimals)
	})

	t.Run("Faucet Slots Survive Reload", func(t *testing.T) {
		_, err := bank.Airdrop(ctx, recipient, 5)
		require.NoError(t, err)

		reopened, err := ledger.NewBank(ctx, ledger.WithStore(ledger.NewGormStore(db)))
		require.NoError(t, err)
		assert.Equal(t, bank.Slot(), reopened.Slot())
	})
}
