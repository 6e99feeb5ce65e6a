package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund/pkg/ledger"
	"crowdfund/pkg/solana/fundraiser"
)

var genesis = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type env struct {
	t         *testing.T
	ctx       context.Context
	bank      *ledger.Bank
	store     *ledger.MemoryStore
	clock     *ledger.ManualClock
	programID solana.PublicKey
	deriver   fundraiser.AddressDeriver
}

func newEnv(t *testing.T) *env {
	return newEnvWithStore(t, ledger.NewMemoryStore())
}

func newEnvWithStore(t *testing.T, store *ledger.MemoryStore) *env {
	programID := solana.NewWallet().PublicKey()
	proc, err := fundraiser.NewProcessor(programID)
	require.NoError(t, err)

	clock := ledger.NewManualClock(genesis)
	bank, err := ledger.NewBank(context.Background(),
		ledger.WithStore(store),
		ledger.WithClock(clock),
		ledger.WithMetrics(ledger.NewMetrics(prometheus.NewRegistry())),
		ledger.WithProgram(proc),
	)
	require.NoError(t, err)

	return &env{
		t:         t,
		ctx:       context.Background(),
		bank:      bank,
		store:     store,
		clock:     clock,
		programID: programID,
		deriver:   fundraiser.NewAddressDeriver(programID),
	}
}

func (e *env) wallet(lamports uint64) solana.PrivateKey {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(e.t, err)
	_, err = e.bank.Airdrop(e.ctx, key.PublicKey(), lamports)
	require.NoError(e.t, err)
	return key
}

func (e *env) send(signers []solana.PrivateKey, ixs ...solana.Instruction) (*ledger.Receipt, error) {
	tx, err := solana.NewTransaction(ixs, e.bank.LatestBlockhash(), solana.TransactionPayer(signers[0].PublicKey()))
	require.NoError(e.t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	require.NoError(e.t, err)
	return e.bank.ProcessTransaction(e.ctx, tx)
}

func (e *env) tokenBalance(address solana.PublicKey) uint64 {
	acc, ok := e.bank.Account(address)
	require.True(e.t, ok, "token account %s missing", address)
	ta, err := ledger.TokenAccountState(acc)
	require.NoError(e.t, err)
	return ta.Amount
}

func (e *env) campaign(owner solana.PublicKey) fundraiser.Campaign {
	pda, err := e.deriver.CampaignPDA(owner)
	require.NoError(e.t, err)
	acc, ok := e.bank.Account(pda.Address)
	require.True(e.t, ok, "campaign %s missing", pda.Address)
	c, err := fundraiser.DecodeCampaign(acc.Data)
	require.NoError(e.t, err)
	return c
}

func (e *env) contributed(owner, contributor solana.PublicKey) (uint64, bool) {
	campaign, err := e.deriver.CampaignPDA(owner)
	require.NoError(e.t, err)
	record, err := e.deriver.ContributorPDA(campaign.Address, contributor)
	require.NoError(e.t, err)
	acc, ok := e.bank.Account(record.Address)
	if !ok {
		return 0, false
	}
	c, err := fundraiser.DecodeContributor(acc.Data)
	require.NoError(e.t, err)
	return c.Amount, true
}

// campaignSetup is an initialized campaign with its mint and pool.
type campaignSetup struct {
	owner solana.PrivateKey
	mint  solana.PublicKey
	pool  solana.PublicKey
}

func (e *env) openCampaign(target, duration uint64) campaignSetup {
	owner := e.wallet(10 * solana.LAMPORTS_PER_SOL)
	mint, _, err := e.bank.CreateMint(e.ctx, owner.PublicKey(), 6)
	require.NoError(e.t, err)

	campaign, err := e.deriver.CampaignPDA(owner.PublicKey())
	require.NoError(e.t, err)
	pool, _, err := solana.FindAssociatedTokenAddress(campaign.Address, mint)
	require.NoError(e.t, err)

	initIx, err := fundraiser.NewInitializeInstruction(e.programID, owner.PublicKey(), mint, pool,
		fundraiser.InitializeArgs{TargetAmount: target, Duration: duration})
	require.NoError(e.t, err)

	receipt, err := e.send([]solana.PrivateKey{owner},
		associatedtokenaccount.NewCreateInstruction(owner.PublicKey(), campaign.Address, mint).Build(),
		initIx,
	)
	require.NoError(e.t, err)
	require.True(e.t, receipt.Succeeded())
	return campaignSetup{owner: owner, mint: mint, pool: pool}
}

type contributorSetup struct {
	key     solana.PrivateKey
	funding solana.PublicKey
}

func (e *env) fundContributor(c campaignSetup, tokens uint64) contributorSetup {
	key := e.wallet(solana.LAMPORTS_PER_SOL)
	funding, _, err := e.bank.CreateTokenAccount(e.ctx, key.PublicKey(), c.mint)
	require.NoError(e.t, err)
	_, err = e.bank.MintTo(e.ctx, c.mint, funding, tokens)
	require.NoError(e.t, err)
	return contributorSetup{key: key, funding: funding}
}

func (e *env) contributeIx(c campaignSetup, who contributorSetup, amount uint64) solana.Instruction {
	ix, err := fundraiser.NewContributeInstruction(e.programID, who.key.PublicKey(), c.owner.PublicKey(), c.mint, c.pool, who.funding, amount)
	require.NoError(e.t, err)
	return ix
}

func requireProgramError(t *testing.T, err error, want fundraiser.ProgramError) {
	t.Helper()
	require.Error(t, err)
	var ixErr *ledger.InstructionError
	require.ErrorAs(t, err, &ixErr)
	code, ok := fundraiser.ErrorCode(err)
	require.True(t, ok, "expected a program error, got %v", err)
	assert.Equal(t, want.Name(), code.Name(), "error: %v", err)
}

func TestCampaignLifecycle(t *testing.T) {
	t.Run("Initialize Records Campaign", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 3_600)

		state := e.campaign(c.owner.PublicKey())
		assert.Equal(t, c.owner.PublicKey(), state.Owner)
		assert.Equal(t, c.mint, state.Mint)
		assert.Equal(t, uint64(1_000_000), state.TargetAmount)
		assert.Equal(t, uint64(0), state.CurrentAmount)
		assert.Equal(t, uint64(genesis.Unix()), state.CreatedAt)
		assert.Equal(t, uint64(3_600), state.Duration)
		assert.Equal(t, uint64(0), e.tokenBalance(c.pool))
	})

	t.Run("Contribute Moves Tokens Into Pool", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 3_600)
		alice := e.fundContributor(c, 500_000)

		receipt, err := e.send([]solana.PrivateKey{alice.key}, e.contributeIx(c, alice, 10_000))
		require.NoError(t, err)
		assert.NotEmpty(t, receipt.Logs)

		amount, ok := e.contributed(c.owner.PublicKey(), alice.key.PublicKey())
		require.True(t, ok)
		assert.Equal(t, uint64(10_000), amount)
		assert.Equal(t, uint64(10_000), e.tokenBalance(c.pool))
		assert.Equal(t, uint64(490_000), e.tokenBalance(alice.funding))
		assert.Equal(t, uint64(10_000), e.campaign(c.owner.PublicKey()).CurrentAmount)
	})

	t.Run("Contributions Accumulate Per Contributor", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 3_600)
		alice := e.fundContributor(c, 500_000)
		bob := e.fundContributor(c, 500_000)

		for _, step := range []struct {
			who    contributorSetup
			amount uint64
		}{{alice, 10_000}, {bob, 2_000}, {alice, 5_000}} {
			_, err := e.send([]solana.PrivateKey{step.who.key}, e.contributeIx(c, step.who, step.amount))
			require.NoError(t, err)
		}

		a, _ := e.contributed(c.owner.PublicKey(), alice.key.PublicKey())
		b, _ := e.contributed(c.owner.PublicKey(), bob.key.PublicKey())
		assert.Equal(t, uint64(15_000), a)
		assert.Equal(t, uint64(2_000), b)
		assert.Equal(t, uint64(17_000), e.tokenBalance(c.pool))
		assert.Equal(t, uint64(17_000), e.campaign(c.owner.PublicKey()).CurrentAmount)
	})

	t.Run("Second Initialize Fails", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 3_600)
		before := e.campaign(c.owner.PublicKey())

		ix, err := fundraiser.NewInitializeInstruction(e.programID, c.owner.PublicKey(), c.mint, c.pool,
			fundraiser.InitializeArgs{TargetAmount: 5, Duration: 5})
		require.NoError(t, err)
		_, err = e.send([]solana.PrivateKey{c.owner}, ix)
		requireProgramError(t, err, fundraiser.ErrAccountAlreadyInitialized)
		assert.Equal(t, before, e.campaign(c.owner.PublicKey()))
	})

	t.Run("Pool Must Belong To Campaign", func(t *testing.T) {
		e := newEnv(t)
		owner := e.wallet(10 * solana.LAMPORTS_PER_SOL)
		mint, _, err := e.bank.CreateMint(e.ctx, owner.PublicKey(), 6)
		require.NoError(t, err)
		ownPool, _, err := e.bank.CreateTokenAccount(e.ctx, owner.PublicKey(), mint)
		require.NoError(t, err)

		ix, err := fundraiser.NewInitializeInstruction(e.programID, owner.PublicKey(), mint, ownPool,
			fundraiser.InitializeArgs{TargetAmount: 1_000, Duration: 60})
		require.NoError(t, err)
		_, err = e.send([]solana.PrivateKey{owner}, ix)
		requireProgramError(t, err, fundraiser.ErrIllegalOwner)

		pda, err := e.deriver.CampaignPDA(owner.PublicKey())
		require.NoError(t, err)
		_, exists := e.bank.Account(pda.Address)
		assert.False(t, exists)
	})

	t.Run("Contribution After Deadline Fails", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 60)
		alice := e.fundContributor(c, 500_000)
		e.clock.Advance(61 * time.Second)

		_, err := e.send([]solana.PrivateKey{alice.key}, e.contributeIx(c, alice, 10_000))
		requireProgramError(t, err, fundraiser.ErrCampaignEnded)
		assert.Equal(t, uint64(500_000), e.tokenBalance(alice.funding))
	})

	t.Run("Failed Instruction Rolls Back Whole Transaction", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 3_600)
		alice := e.fundContributor(c, 500_000)

		_, err := e.send([]solana.PrivateKey{alice.key},
			e.contributeIx(c, alice, 10_000),
			e.contributeIx(c, alice, 100_001),
		)
		requireProgramError(t, err, fundraiser.ErrAmountOutOfBounds)

		_, recorded := e.contributed(c.owner.PublicKey(), alice.key.PublicKey())
		assert.False(t, recorded)
		assert.Equal(t, uint64(500_000), e.tokenBalance(alice.funding))
		assert.Equal(t, uint64(0), e.tokenBalance(c.pool))
		assert.Equal(t, uint64(0), e.campaign(c.owner.PublicKey()).CurrentAmount)
	})

	t.Run("Insufficient Balance Fails", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 3_600)
		alice := e.fundContributor(c, 5_000)

		_, err := e.send([]solana.PrivateKey{alice.key}, e.contributeIx(c, alice, 10_000))
		requireProgramError(t, err, fundraiser.ErrInsufficientFunds)
		assert.Equal(t, uint64(0), e.tokenBalance(c.pool))
		assert.Equal(t, uint64(5_000), e.tokenBalance(alice.funding))
		assert.Equal(t, uint64(0), e.campaign(c.owner.PublicKey()).CurrentAmount)
		_, recorded := e.contributed(c.owner.PublicKey(), alice.key.PublicKey())
		assert.False(t, recorded)
	})

	t.Run("Three Backers Reach Thirty Million", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(400_000_000, 100_000_000)

		for i := 0; i < 3; i++ {
			who := e.fundContributor(c, 10_000_000)
			_, err := e.send([]solana.PrivateKey{who.key}, e.contributeIx(c, who, 10_000_000))
			require.NoError(t, err)

			amount, ok := e.contributed(c.owner.PublicKey(), who.key.PublicKey())
			require.True(t, ok)
			assert.Equal(t, uint64(10_000_000), amount)
			assert.Equal(t, uint64(0), e.tokenBalance(who.funding))
		}

		state := e.campaign(c.owner.PublicKey())
		assert.Equal(t, uint64(30_000_000), e.tokenBalance(c.pool))
		assert.Equal(t, uint64(30_000_000), state.CurrentAmount)
		assert.Equal(t, fundraiser.StatusActive, state.Status(uint64(e.bank.Now().Unix())))
	})
}

func TestPreFundedDerivedAddresses(t *testing.T) {
	t.Run("Campaign Address", func(t *testing.T) {
		e := newEnv(t)
		owner := e.wallet(10 * solana.LAMPORTS_PER_SOL)
		mallory := e.wallet(solana.LAMPORTS_PER_SOL)
		mint, _, err := e.bank.CreateMint(e.ctx, owner.PublicKey(), 6)
		require.NoError(t, err)
		campaign, err := e.deriver.CampaignPDA(owner.PublicKey())
		require.NoError(t, err)
		pool, _, err := solana.FindAssociatedTokenAddress(campaign.Address, mint)
		require.NoError(t, err)

		_, err = e.send([]solana.PrivateKey{mallory}, system.NewTransferInstruction(1, mallory.PublicKey(), campaign.Address).Build())
		require.NoError(t, err)

		initIx, err := fundraiser.NewInitializeInstruction(e.programID, owner.PublicKey(), mint, pool,
			fundraiser.InitializeArgs{TargetAmount: 1_000_000, Duration: 3_600})
		require.NoError(t, err)
		_, err = e.send([]solana.PrivateKey{owner},
			associatedtokenaccount.NewCreateInstruction(owner.PublicKey(), campaign.Address, mint).Build(),
			initIx,
		)
		require.NoError(t, err)

		acc, ok := e.bank.Account(campaign.Address)
		require.True(t, ok)
		assert.Equal(t, e.programID, acc.Owner)
		assert.Equal(t, e.bank.Rent().MinimumBalance(fundraiser.CampaignLen), acc.Lamports)
		assert.Equal(t, uint64(1_000_000), e.campaign(owner.PublicKey()).TargetAmount)
	})

	t.Run("Contributor Address", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 3_600)
		alice := e.fundContributor(c, 500_000)
		mallory := e.wallet(solana.LAMPORTS_PER_SOL)

		campaign, err := e.deriver.CampaignPDA(c.owner.PublicKey())
		require.NoError(t, err)
		record, err := e.deriver.ContributorPDA(campaign.Address, alice.key.PublicKey())
		require.NoError(t, err)
		_, err = e.send([]solana.PrivateKey{mallory}, system.NewTransferInstruction(1, mallory.PublicKey(), record.Address).Build())
		require.NoError(t, err)

		_, err = e.send([]solana.PrivateKey{alice.key}, e.contributeIx(c, alice, 10_000))
		require.NoError(t, err)

		amount, ok := e.contributed(c.owner.PublicKey(), alice.key.PublicKey())
		require.True(t, ok)
		assert.Equal(t, uint64(10_000), amount)
		acc, _ := e.bank.Account(record.Address)
		assert.Equal(t, e.programID, acc.Owner)
		assert.Equal(t, e.bank.Rent().MinimumBalance(fundraiser.ContributorLen), acc.Lamports)
		assert.Equal(t, uint64(10_000), e.tokenBalance(c.pool))
	})
}

func TestForgedCampaign(t *testing.T) {
	store := ledger.NewMemoryStore()
	e := newEnvWithStore(t, store)
	c := e.openCampaign(1_000_000, 3_600)
	alice := e.fundContributor(c, 500_000)

	// a program-owned record at an address that is not the owner's campaign PDA
	forged := solana.NewWallet().PublicKey()
	data := make([]byte, fundraiser.CampaignLen)
	require.NoError(t, e.campaign(c.owner.PublicKey()).Encode(data))
	require.NoError(t, store.Commit(e.ctx, ledger.Batch{
		Accounts: map[solana.PublicKey]ledger.Account{
			forged: {Lamports: 1_566_000, Owner: e.programID, Data: data},
		},
	}))
	reopened, err := ledger.NewBank(e.ctx, ledger.WithStore(store), ledger.WithClock(e.clock), ledger.WithProgram(mustProcessor(t, e.programID)))
	require.NoError(t, err)
	e.bank = reopened

	forgedPool, _, err := e.bank.CreateTokenAccount(e.ctx, forged, c.mint)
	require.NoError(t, err)
	record, err := e.deriver.ContributorPDA(forged, alice.key.PublicKey())
	require.NoError(t, err)

	accounts := []*solana.AccountMeta{
		{PublicKey: alice.key.PublicKey(), IsWritable: true, IsSigner: true},
		{PublicKey: c.mint},
		{PublicKey: forged, IsWritable: true},
		{PublicKey: forgedPool, IsWritable: true},
		{PublicKey: alice.funding, IsWritable: true},
		{PublicKey: record.Address, IsWritable: true},
		{PublicKey: solana.SystemProgramID},
		{PublicKey: solana.TokenProgramID},
	}
	data = append([]byte{byte(fundraiser.OpContribute)}, fundraiser.ContributeArgs{Amount: 10_000}.Bytes()...)

	_, err = e.send([]solana.PrivateKey{alice.key}, solana.NewInstruction(e.programID, accounts, data))
	requireProgramError(t, err, fundraiser.ErrWrongDerivedAddress)
	assert.Equal(t, uint64(500_000), e.tokenBalance(alice.funding))
	assert.Equal(t, uint64(0), e.tokenBalance(forgedPool))
}

func mustProcessor(t *testing.T, programID solana.PublicKey) *fundraiser.Processor {
	proc, err := fundraiser.NewProcessor(programID)
	require.NoError(t, err)
	return proc
}

func TestTransactionProcessing(t *testing.T) {
	t.Run("System Transfer", func(t *testing.T) {
		e := newEnv(t)
		from := e.wallet(solana.LAMPORTS_PER_SOL)
		to := solana.NewWallet().PublicKey()

		receipt, err := e.send([]solana.PrivateKey{from}, system.NewTransferInstruction(1_000, from.PublicKey(), to).Build())
		require.NoError(t, err)
		assert.Len(t, receipt.Changed, 2)

		acc, ok := e.bank.Account(to)
		require.True(t, ok)
		assert.Equal(t, uint64(1_000), acc.Lamports)
	})

	t.Run("Token Transfer Requires Owner", func(t *testing.T) {
		e := newEnv(t)
		c := e.openCampaign(1_000_000, 3_600)
		alice := e.fundContributor(c, 100)
		mallory := e.fundContributor(c, 0)

		ix := token.NewTransferInstruction(50, alice.funding, mallory.funding, mallory.key.PublicKey(), nil).Build()
		_, err := e.send([]solana.PrivateKey{mallory.key}, ix)
		assert.ErrorIs(t, err, ledger.ErrOwnerMismatch)
		assert.Equal(t, uint64(100), e.tokenBalance(alice.funding))
	})

	t.Run("Rejects Tampered Signature", func(t *testing.T) {
		e := newEnv(t)
		from := e.wallet(solana.LAMPORTS_PER_SOL)
		tx, err := solana.NewTransaction(
			[]solana.Instruction{system.NewTransferInstruction(1, from.PublicKey(), solana.NewWallet().PublicKey()).Build()},
			e.bank.LatestBlockhash(), solana.TransactionPayer(from.PublicKey()))
		require.NoError(t, err)
		_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey { return &from })
		require.NoError(t, err)
		tx.Signatures[0][0] ^= 0xff

		receipt, err := e.bank.ProcessTransaction(e.ctx, tx)
		assert.Nil(t, receipt)
		assert.ErrorIs(t, err, ledger.ErrSignatureVerification)
	})

	t.Run("Rejects Replay", func(t *testing.T) {
		e := newEnv(t)
		from := e.wallet(solana.LAMPORTS_PER_SOL)
		tx, err := solana.NewTransaction(
			[]solana.Instruction{system.NewTransferInstruction(1, from.PublicKey(), solana.NewWallet().PublicKey()).Build()},
			e.bank.LatestBlockhash(), solana.TransactionPayer(from.PublicKey()))
		require.NoError(t, err)
		_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey { return &from })
		require.NoError(t, err)

		_, err = e.bank.ProcessTransaction(e.ctx, tx)
		require.NoError(t, err)
		_, err = e.bank.ProcessTransaction(e.ctx, tx)
		assert.ErrorIs(t, err, ledger.ErrDuplicateSignature)
	})

	t.Run("Rejects Unknown Program", func(t *testing.T) {
		e := newEnv(t)
		from := e.wallet(solana.LAMPORTS_PER_SOL)
		ix := solana.NewInstruction(solana.NewWallet().PublicKey(), []*solana.AccountMeta{
			{PublicKey: from.PublicKey(), IsWritable: true, IsSigner: true},
		}, []byte{0})

		receipt, err := e.send([]solana.PrivateKey{from}, ix)
		assert.ErrorIs(t, err, ledger.ErrUnknownProgram)
		require.NotNil(t, receipt)
		assert.False(t, receipt.Succeeded())
	})

	t.Run("State Survives Reload", func(t *testing.T) {
		store := ledger.NewMemoryStore()
		e := newEnvWithStore(t, store)
		c := e.openCampaign(1_000_000, 3_600)
		slot := e.bank.Slot()

		reloaded, err := ledger.NewBank(e.ctx, ledger.WithStore(store), ledger.WithProgram(mustProcessor(t, e.programID)))
		require.NoError(t, err)
		e.bank = reloaded

		assert.Equal(t, slot, reloaded.Slot())
		assert.Equal(t, uint64(1_000_000), e.campaign(c.owner.PublicKey()).TargetAmount)
	})

	t.Run("Listeners See Committed Transactions", func(t *testing.T) {
		e := newEnv(t)
		var receipts []*ledger.Receipt
		e.bank.AddListener(ledger.ListenerFunc(func(r *ledger.Receipt, tx *solana.Transaction) {
			if tx != nil {
				receipts = append(receipts, r)
			}
		}))

		e.openCampaign(1_000, 60)
		require.Len(t, receipts, 1)
		assert.True(t, receipts[0].Succeeded())
	})

	t.Run("Faucet Can Be Disabled", func(t *testing.T) {
		bank, err := ledger.NewBank(context.Background(), ledger.WithFaucet(false))
		require.NoError(t, err)
		_, err = bank.Airdrop(context.Background(), solana.NewWallet().PublicKey(), 1)
		assert.ErrorIs(t, err, ledger.ErrFaucetDisabled)
	})
}

func TestRent(t *testing.T) {
	assert.Equal(t, uint64(2_039_280), ledger.DefaultRent.MinimumBalance(165))
	assert.Equal(t, uint64(890_880), ledger.DefaultRent.MinimumBalance(0))
}
