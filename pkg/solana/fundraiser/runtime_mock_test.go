package fundraiser

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crowdfund/pkg/solana/program"
)

type mockRuntime struct {
	mock.Mock
	logs []string
}

func (m *mockRuntime) Now() uint64 {
	return m.Called().Get(0).(uint64)
}

func (m *mockRuntime) MinimumBalance(dataLen uint64) uint64 {
	return m.Called(dataLen).Get(0).(uint64)
}

func (m *mockRuntime) CreateAccount(p program.CreateAccountParams) error {
	return m.Called(p).Error(0)
}

func (m *mockRuntime) Transfer(p program.TransferParams) error {
	return m.Called(p).Error(0)
}

func (m *mockRuntime) Log(format string, args ...interface{}) {
	m.logs = append(m.logs, fmt.Sprintf(format, args...))
}

// allocates like the system program would
func allocate(args mock.Arguments) {
	p := args.Get(0).(program.CreateAccountParams)
	p.To.Lamports = p.Lamports
	p.To.Owner = p.Owner
	p.To.Data = make([]byte, p.Space)
}

// moves token balances like the token program would
func moveTokens(t *testing.T) func(mock.Arguments) {
	return func(args mock.Arguments) {
		p := args.Get(0).(program.TransferParams)
		from, err := program.DecodeTokenAccount(p.From)
		require.NoError(t, err)
		to, err := program.DecodeTokenAccount(p.To)
		require.NoError(t, err)
		from.Amount -= p.Amount
		to.Amount += p.Amount
		p.From.Data = mustTokenData(t, from)
		p.To.Data = mustTokenData(t, to)
	}
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func mustTokenData(t *testing.T, ta token.Account) []byte {
	data, err := program.EncodeTokenAccount(ta)
	require.NoError(t, err)
	return data
}

func newMintAccount(t *testing.T, authority solana.PublicKey, initialized bool) *program.AccountInfo {
	data, err := program.EncodeMint(token.Mint{
		MintAuthority: &authority,
		Decimals:      6,
		IsInitialized: initialized,
	})
	require.NoError(t, err)
	return &program.AccountInfo{
		Key:      newKey(),
		Owner:    solana.TokenProgramID,
		Lamports: 1_461_600,
		Data:     data,
	}
}

func newTokenAccount(t *testing.T, mint, owner solana.PublicKey, amount uint64) *program.AccountInfo {
	return &program.AccountInfo{
		Key:      newKey(),
		Owner:    solana.TokenProgramID,
		Lamports: 2_039_280,
		Data: mustTokenData(t, token.Account{
			Mint:   mint,
			Owner:  owner,
			Amount: amount,
			State:  token.Initialized,
		}),
		IsWritable: true,
	}
}

type fixture struct {
	t         *testing.T
	programID solana.PublicKey
	proc      *Processor
	deriver   AddressDeriver

	owner    *program.AccountInfo
	mint     *program.AccountInfo
	campaign *program.AccountInfo
	pool     *program.AccountInfo
}

func newFixture(t *testing.T) *fixture {
	programID := newKey()
	proc, err := NewProcessor(programID)
	require.NoError(t, err)

	deriver := NewAddressDeriver(programID)
	owner := &program.AccountInfo{Key: newKey(), Owner: solana.SystemProgramID, Lamports: 10_000_000_000, IsSigner: true, IsWritable: true}
	pda, err := deriver.CampaignPDA(owner.Key)
	require.NoError(t, err)

	mint := newMintAccount(t, owner.Key, true)
	return &fixture{
		t:         t,
		programID: programID,
		proc:      proc,
		deriver:   deriver,
		owner:     owner,
		mint:      mint,
		campaign:  &program.AccountInfo{Key: pda.Address, Owner: solana.SystemProgramID, IsWritable: true},
		pool:      newTokenAccount(t, mint.Key, pda.Address, 0),
	}
}

func (f *fixture) initializeAccounts() []*program.AccountInfo {
	return []*program.AccountInfo{f.owner, f.mint, f.campaign, f.pool}
}

// seedCampaign writes an existing campaign record straight into the campaign account.
func (f *fixture) seedCampaign(target, createdAt, duration uint64) Campaign {
	pda, err := f.deriver.CampaignPDA(f.owner.Key)
	require.NoError(f.t, err)
	c := Campaign{
		Owner:        f.owner.Key,
		Mint:         f.mint.Key,
		TargetAmount: target,
		CreatedAt:    createdAt,
		Duration:     duration,
		Bump:         pda.Bump,
	}
	f.campaign.Owner = f.programID
	f.campaign.Lamports = 1_566_000
	f.campaign.Data = make([]byte, CampaignLen)
	require.NoError(f.t, c.Encode(f.campaign.Data))
	return c
}

type backer struct {
	signer  *program.AccountInfo
	funding *program.AccountInfo
	record  *program.AccountInfo
}

func (f *fixture) newBacker(balance uint64) *backer {
	signer := &program.AccountInfo{Key: newKey(), Owner: solana.SystemProgramID, Lamports: 1_000_000_000, IsSigner: true, IsWritable: true}
	pda, err := f.deriver.ContributorPDA(f.campaign.Key, signer.Key)
	require.NoError(f.t, err)
	return &backer{
		signer:  signer,
		funding: newTokenAccount(f.t, f.mint.Key, signer.Key, balance),
		record:  &program.AccountInfo{Key: pda.Address, Owner: solana.SystemProgramID, IsWritable: true},
	}
}

func (f *fixture) contributeAccounts(b *backer) []*program.AccountInfo {
	return []*program.AccountInfo{b.signer, f.mint, f.campaign, f.pool, b.funding, b.record}
}

func (f *fixture) campaignState() Campaign {
	c, err := DecodeCampaign(f.campaign.Data)
	require.NoError(f.t, err)
	return c
}

func tokenBalance(t *testing.T, acc *program.AccountInfo) uint64 {
	ta, err := program.DecodeTokenAccount(acc)
	require.NoError(t, err)
	return ta.Amount
}

func initializeData(target, duration uint64) []byte {
	return append([]byte{byte(OpInitialize)}, InitializeArgs{TargetAmount: target, Duration: duration}.Bytes()...)
}

func contributeData(amount uint64) []byte {
	return append([]byte{byte(OpContribute)}, ContributeArgs{Amount: amount}.Bytes()...)
}
