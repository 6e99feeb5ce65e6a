package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	log "github.com/sirupsen/logrus"

	"crowdfund/pkg/solana/program"
)

// Faucet operations write state directly, the way a local test validator's admin helpers
// do. They are committed as unsigned batches and reach listeners with a nil transaction.

// Airdrop credits lamports to to.
func (b *Bank) Airdrop(ctx context.Context, to solana.PublicKey, lamports uint64) (*Receipt, error) {
	return b.admin(ctx, func() (map[solana.PublicKey]Account, string, error) {
		acc := b.accounts[to].Clone()
		if acc.Lamports+lamports < acc.Lamports {
			return nil, "", ErrOverflow
		}
		acc.Lamports += lamports
		return map[solana.PublicKey]Account{to: acc}, fmt.Sprintf("airdrop %d lamports to %s", lamports, to), nil
	})
}

// CreateMint creates an initialized mint controlled by authority.
func (b *Bank) CreateMint(ctx context.Context, authority solana.PublicKey, decimals uint8) (solana.PublicKey, *Receipt, error) {
	mint := solana.NewWallet().PublicKey()
	receipt, err := b.admin(ctx, func() (map[solana.PublicKey]Account, string, error) {
		data, err := program.EncodeMint(token.Mint{
			MintAuthority: &authority,
			Decimals:      decimals,
			IsInitialized: true,
		})
		if err != nil {
			return nil, "", err
		}
		acc := Account{Lamports: b.rent.MinimumBalance(program.MintLen), Owner: solana.TokenProgramID, Data: data}
		return map[solana.PublicKey]Account{mint: acc}, fmt.Sprintf("created mint %s (authority %s, decimals %d)", mint, authority, decimals), nil
	})
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return mint, receipt, nil
}

// CreateTokenAccount opens owner's associated token account for mint. Calling it again for
// the same pair returns the existing address.
func (b *Bank) CreateTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, *Receipt, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("derive associated token address: %w", err)
	}

	receipt, err := b.admin(ctx, func() (map[solana.PublicKey]Account, string, error) {
		mintAcc := b.accounts[mint]
		if m, err := MintState(mintAcc); err != nil || !m.IsInitialized {
			return nil, "", fmt.Errorf("mint %s: %w", mint, ErrInvalidMint)
		}
		if existing, ok := b.accounts[address]; ok && existing.Exists() {
			return nil, "", nil
		}
		data, err := program.EncodeTokenAccount(token.Account{Mint: mint, Owner: owner, State: token.Initialized})
		if err != nil {
			return nil, "", err
		}
		acc := Account{Lamports: b.rent.MinimumBalance(program.TokenAccountLen), Owner: solana.TokenProgramID, Data: data}
		return map[solana.PublicKey]Account{address: acc}, fmt.Sprintf("created token account %s for %s", address, owner), nil
	})
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return address, receipt, nil
}

// MintTo mints amount into dest on behalf of the mint authority.
func (b *Bank) MintTo(ctx context.Context, mint, dest solana.PublicKey, amount uint64) (*Receipt, error) {
	return b.admin(ctx, func() (map[solana.PublicKey]Account, string, error) {
		m, err := MintState(b.accounts[mint])
		if err != nil || m.MintAuthority == nil {
			return nil, "", fmt.Errorf("mint %s: %w", mint, ErrInvalidMint)
		}
		mintView := b.accounts[mint].view(mint, false, true)
		destView := b.accounts[dest].view(dest, false, true)
		authority := &program.AccountInfo{Key: *m.MintAuthority, IsSigner: true}
		if err := mintTokens(mintView, destView, authority, amount); err != nil {
			return nil, "", err
		}
		changed := map[solana.PublicKey]Account{
			mint: accountFromView(mintView),
			dest: accountFromView(destView),
		}
		return changed, fmt.Sprintf("minted %d of %s to %s", amount, mint, dest), nil
	})
}

// admin commits the changes produced by fn. An empty change set commits nothing.
func (b *Bank) admin(ctx context.Context, fn func() (map[solana.PublicKey]Account, string, error)) (*Receipt, error) {
	if !b.faucet {
		return nil, ErrFaucetDisabled
	}

	receipt, err := func() (*Receipt, error) {
		b.mu.Lock()
		defer b.mu.Unlock()

		changed, line, err := fn()
		if err != nil || len(changed) == 0 {
			return nil, err
		}
		batch := Batch{
			Slot:     b.slot + 1,
			Accounts: changed,
			Logs:     []string{line},
			Time:     b.clock.Now(),
		}
		if err := b.store.Commit(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to persist slot %d: %w", batch.Slot, err)
		}

		b.slot = batch.Slot
		receipt := &Receipt{Slot: batch.Slot, Logs: batch.Logs}
		for key, acc := range changed {
			b.accounts[key] = acc
			receipt.Changed = append(receipt.Changed, key)
		}
		b.metrics.setState(len(b.accounts), b.slot)
		log.WithField("slot", batch.Slot).Info(line)
		return receipt, nil
	}()
	if err != nil || receipt == nil {
		return nil, err
	}

	b.notify(receipt, nil)
	return receipt, nil
}
