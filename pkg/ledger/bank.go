// Package ledger is an in-process account ledger that executes signed transactions against
// registered programs. It keeps the account model of a Solana cluster: lamport balances,
// owner programs, raw data, and program-derived addresses.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"

	"crowdfund/pkg/solana/program"
)

// Receipt is the outcome of one executed transaction.
type Receipt struct {
	Signature solana.Signature   `json:"signature"`
	Slot      uint64             `json:"slot"`
	Logs      []string           `json:"logs"`
	Changed   []solana.PublicKey `json:"changed_accounts"`
	Err       error              `json:"-"`
}

// Succeeded reports whether the transaction's changes were committed.
func (r *Receipt) Succeeded() bool {
	return r.Err == nil
}

// Listener observes executed transactions after they are committed. tx is nil for faucet
// operations.
type Listener interface {
	OnTransaction(receipt *Receipt, tx *solana.Transaction)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(receipt *Receipt, tx *solana.Transaction)

func (f ListenerFunc) OnTransaction(receipt *Receipt, tx *solana.Transaction) {
	f(receipt, tx)
}

// Bank owns ledger state. Transactions are executed one at a time.
type Bank struct {
	mu        sync.Mutex
	accounts  map[solana.PublicKey]Account
	programs  map[solana.PublicKey]program.Program
	processed map[solana.Signature]struct{}
	slot      uint64

	clock   Clock
	rent    Rent
	store   Store
	metrics *Metrics
	faucet  bool

	listenerMu sync.RWMutex
	listeners  []Listener
}

// Option configures a Bank.
type Option func(*Bank)

func WithClock(c Clock) Option {
	return func(b *Bank) { b.clock = c }
}

func WithRent(r Rent) Option {
	return func(b *Bank) { b.rent = r }
}

func WithStore(s Store) Option {
	return func(b *Bank) { b.store = s }
}

func WithMetrics(m *Metrics) Option {
	return func(b *Bank) { b.metrics = m }
}

// WithFaucet enables or disables the admin funding operations.
func WithFaucet(enabled bool) Option {
	return func(b *Bank) { b.faucet = enabled }
}

// WithProgram registers an additional program at construction.
func WithProgram(p program.Program) Option {
	return func(b *Bank) { b.programs[p.ID()] = p }
}

// NewBank loads committed state from the store and registers the built-in programs.
func NewBank(ctx context.Context, opts ...Option) (*Bank, error) {
	b := &Bank{
		accounts:  make(map[solana.PublicKey]Account),
		programs:  make(map[solana.PublicKey]program.Program),
		processed: make(map[solana.Signature]struct{}),
		clock:     SystemClock{},
		rent:      DefaultRent,
		faucet:    true,
	}
	for _, p := range []program.Program{systemProgram{}, tokenProgram{}, associatedTokenProgram{}} {
		b.programs[p.ID()] = p
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.store == nil {
		b.store = NewMemoryStore()
	}

	accounts, slot, err := b.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	b.accounts = accounts
	b.slot = slot
	for id := range b.programs {
		b.installProgramAccount(id)
	}
	b.metrics.setState(len(b.accounts), b.slot)

	log.WithFields(log.Fields{
		"accounts": len(b.accounts),
		"slot":     b.slot,
		"programs": len(b.programs),
	}).Info("ledger loaded")
	return b, nil
}

// RegisterProgram makes p callable by transactions.
func (b *Bank) RegisterProgram(p program.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.programs[p.ID()] = p
	b.installProgramAccount(p.ID())
}

func (b *Bank) installProgramAccount(id solana.PublicKey) {
	b.accounts[id] = Account{Lamports: 1, Owner: NativeLoaderID, Executable: true}
}

// AddListener subscribes l to executed transactions.
func (b *Bank) AddListener(l Listener) {
	b.listenerMu.Lock()
	defer b.listenerMu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Account returns the committed state of key.
func (b *Bank) Account(key solana.PublicKey) (Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[key]
	if !ok || !acc.Exists() {
		return Account{}, false
	}
	return acc.Clone(), true
}

// Slot returns the last committed slot.
func (b *Bank) Slot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slot
}

// Now returns the ledger clock.
func (b *Bank) Now() time.Time {
	return b.clock.Now()
}

// Rent returns the rent schedule.
func (b *Bank) Rent() Rent {
	return b.rent
}

// LatestBlockhash returns a hash that changes with every slot. Transactions are not
// checked against it; it only gives clients something to sign over.
func (b *Bank) LatestBlockhash() solana.Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], b.Slot())
	return solana.Hash(sha256.Sum256(append([]byte("crowdfund-blockhash"), buf[:]...)))
}

// ProcessTransaction verifies, executes and commits tx. A transaction that executed but
// failed still returns its receipt, alongside the failure.
func (b *Bank) ProcessTransaction(ctx context.Context, tx *solana.Transaction) (*Receipt, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := verifyTransaction(tx); err != nil {
		b.metrics.observeTransaction("rejected", time.Since(start).Seconds())
		return nil, err
	}

	receipt, err := b.process(ctx, tx)
	if receipt == nil {
		b.metrics.observeTransaction("rejected", time.Since(start).Seconds())
		return nil, err
	}

	status := "success"
	if !receipt.Succeeded() {
		status = "failed"
	}
	b.metrics.observeTransaction(status, time.Since(start).Seconds())

	log.WithFields(log.Fields{
		"signature": receipt.Signature.String(),
		"slot":      receipt.Slot,
		"status":    status,
		"changed":   len(receipt.Changed),
	}).Debug("transaction processed")

	b.notify(receipt, tx)
	return receipt, receipt.Err
}

func verifyTransaction(tx *solana.Transaction) error {
	if tx == nil || len(tx.Signatures) == 0 {
		return fmt.Errorf("no signatures: %w", ErrSignatureVerification)
	}
	if len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		return fmt.Errorf("%d signatures for %d required signers: %w",
			len(tx.Signatures), tx.Message.Header.NumRequiredSignatures, ErrSignatureVerification)
	}
	if len(tx.Message.Instructions) == 0 {
		return ErrNoInstructions
	}
	if err := tx.VerifySignatures(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrSignatureVerification)
	}
	return nil
}

func (b *Bank) process(ctx context.Context, tx *solana.Transaction) (*Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sig := tx.Signatures[0]
	if _, ok := b.processed[sig]; ok {
		return nil, fmt.Errorf("%s: %w", sig, ErrDuplicateSignature)
	}

	changed, logs, execErr := b.execute(tx)
	receipt := &Receipt{Signature: sig, Slot: b.slot + 1, Logs: logs, Err: execErr}

	batch := Batch{
		Slot:      receipt.Slot,
		Signature: sig,
		Accounts:  changed,
		Logs:      logs,
		Err:       execErr,
		Time:      b.clock.Now(),
	}
	if err := b.store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to persist slot %d: %w", batch.Slot, err)
	}

	b.slot = receipt.Slot
	b.processed[sig] = struct{}{}
	for key, acc := range changed {
		b.accounts[key] = acc
		receipt.Changed = append(receipt.Changed, key)
	}
	b.metrics.setState(len(b.accounts), b.slot)
	return receipt, nil
}

// execute runs every instruction against a private working set and returns the accounts
// to commit. Nothing in b.accounts is touched.
func (b *Bank) execute(tx *solana.Transaction) (map[solana.PublicKey]Account, []string, error) {
	msg := tx.Message
	keys := msg.AccountKeys

	views := make([]*program.AccountInfo, len(keys))
	originals := make([]Account, len(keys))
	seen := make(map[solana.PublicKey]struct{}, len(keys))
	for i, key := range keys {
		if _, dup := seen[key]; dup {
			return nil, nil, fmt.Errorf("%s: %w", key, ErrDuplicateAccountKey)
		}
		seen[key] = struct{}{}
		originals[i] = b.accounts[key]
		views[i] = originals[i].view(key, isSigner(msg, i), isWritable(msg, i))
	}
	lamportsBefore := sumLamports(views)

	var logs []string
	now := uint64(b.clock.Now().Unix())
	for n, ix := range msg.Instructions {
		if int(ix.ProgramIDIndex) >= len(keys) {
			return nil, logs, &InstructionError{Index: n, Err: ErrAccountIndex}
		}
		programID := keys[ix.ProgramIDIndex]
		prog, ok := b.programs[programID]
		if !ok {
			return nil, logs, &InstructionError{Index: n, Program: programID, Err: ErrUnknownProgram}
		}

		accounts := make([]*program.AccountInfo, len(ix.Accounts))
		for j, idx := range ix.Accounts {
			if int(idx) >= len(keys) {
				return nil, logs, &InstructionError{Index: n, Program: programID, Err: ErrAccountIndex}
			}
			accounts[j] = views[idx]
		}

		logs = append(logs, fmt.Sprintf("Program %s invoke [1]", programID))
		inv := &invocation{programID: programID, now: now, rent: b.rent, logs: &logs}
		if err := prog.Process(inv, accounts, ix.Data); err != nil {
			logs = append(logs, fmt.Sprintf("Program %s failed: %v", programID, err))
			b.metrics.observeInstruction(programID.String(), "failed")
			return nil, logs, &InstructionError{Index: n, Program: programID, Err: err}
		}
		logs = append(logs, fmt.Sprintf("Program %s success", programID))
		b.metrics.observeInstruction(programID.String(), "success")

		for i, view := range views {
			if !view.IsWritable && !accountFromView(view).Equal(originals[i]) {
				return nil, logs, &InstructionError{Index: n, Program: programID, Err: fmt.Errorf("%s: %w", view.Key, ErrReadonlyModified)}
			}
		}
	}

	if after := sumLamports(views); after != lamportsBefore {
		return nil, logs, fmt.Errorf("%d before, %d after: %w", lamportsBefore, after, ErrUnbalancedLamports)
	}

	changed := make(map[solana.PublicKey]Account)
	for i, view := range views {
		acc := accountFromView(view)
		if !acc.Equal(originals[i]) {
			changed[view.Key] = acc
		}
	}
	return changed, logs, nil
}

func (b *Bank) notify(receipt *Receipt, tx *solana.Transaction) {
	b.listenerMu.RLock()
	listeners := append([]Listener(nil), b.listeners...)
	b.listenerMu.RUnlock()

	for _, l := range listeners {
		l.OnTransaction(receipt, tx)
	}
}

func isSigner(msg solana.Message, i int) bool {
	return i < int(msg.Header.NumRequiredSignatures)
}

func isWritable(msg solana.Message, i int) bool {
	h := msg.Header
	if i < int(h.NumRequiredSignatures) {
		return i < int(h.NumRequiredSignatures)-int(h.NumReadonlySignedAccounts)
	}
	return i < len(msg.AccountKeys)-int(h.NumReadonlyUnsignedAccounts)
}

func sumLamports(views []*program.AccountInfo) uint64 {
	var total uint64
	for _, v := range views {
		total += v.Lamports
	}
	return total
}
