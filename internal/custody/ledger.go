// =================================
// File: internal/custody/ledger.go
// =================================
package custody

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"go.uber.org/zap"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountFrozen     = errors.New("token account is frozen")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// TokenAccount identifies the holding of one mint by one owner.
type TokenAccount struct {
	Mint  solana.PublicKey
	Owner solana.PublicKey
}

// Ledger is an in-memory custody layer holding lamports and token balances.
// Every mutation goes through a Batch that applies all of its operations or
// none of them.
type Ledger struct {
	mu         sync.Mutex
	programID  solana.PublicKey
	rentExempt uint64
	lamports   map[solana.PublicKey]uint64
	tokens     map[TokenAccount]uint64
	frozen     map[TokenAccount]bool
	logger     *zap.Logger
}

// NewLedger creates an empty ledger. rentExempt is the minimum balance every
// curve account keeps on top of its reserves.
func NewLedger(programID solana.PublicKey, rentExempt uint64, logger *zap.Logger) *Ledger {
	return &Ledger{
		programID:  programID,
		rentExempt: rentExempt,
		lamports:   make(map[solana.PublicKey]uint64),
		tokens:     make(map[TokenAccount]uint64),
		frozen:     make(map[TokenAccount]bool),
		logger:     logger.Named("custody"),
	}
}

// ProgramID returns the owner of derived accounts.
func (l *Ledger) ProgramID() solana.PublicKey { return l.programID }

// RentExemptMinimum returns the rent reserve of a curve account.
func (l *Ledger) RentExemptMinimum() uint64 { return l.rentExempt }

// Addresses derives the accounts of mint.
func (l *Ledger) Addresses(mint solana.PublicKey) (Addresses, error) {
	return DeriveAddresses(l.programID, mint)
}

// Fund credits lamports out of thin air. It stands in for deposits from
// outside the ledger.
func (l *Ledger) Fund(owner solana.PublicKey, lamports uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.lamports[owner] + lamports
	if next < lamports {
		return ErrBalanceOverflow
	}
	l.lamports[owner] = next
	l.logger.Debug("Account funded",
		zap.String("owner", owner.String()),
		zap.Uint64("lamports", lamports))
	return nil
}

// Lamports returns the SOL balance of owner.
func (l *Ledger) Lamports(owner solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lamports[owner]
}

// TokenBalance returns owner's balance of mint.
func (l *Ledger) TokenBalance(mint, owner solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens[TokenAccount{Mint: mint, Owner: owner}]
}

// SetFrozen freezes or thaws a token account.
func (l *Ledger) SetFrozen(mint, owner solana.PublicKey, frozen bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := TokenAccount{Mint: mint, Owner: owner}
	if frozen {
		l.frozen[acc] = true
	} else {
		delete(l.frozen, acc)
	}
	l.logger.Debug("Token account freeze updated",
		zap.String("mint", mint.String()),
		zap.String("owner", owner.String()),
		zap.Bool("frozen", frozen))
}

// IsFrozen reports whether a token account is frozen.
func (l *Ledger) IsFrozen(mint, owner solana.PublicKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frozen[TokenAccount{Mint: mint, Owner: owner}]
}

// Snapshot observes the custody balances of mint's curve account.
func (l *Ledger) Snapshot(mint solana.PublicKey) (curve.CustodySnapshot, error) {
	addrs, err := l.Addresses(mint)
	if err != nil {
		return curve.CustodySnapshot{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stage().snapshot(mint, addrs.Curve), nil
}

// Execute applies b unconditionally.
func (l *Ledger) Execute(b *Batch) error {
	return l.Transact(solana.PublicKey{}, b, nil)
}

// Transact stages b, hands the resulting snapshot of mint's curve account to
// verify and commits only if verify accepts it. Nothing is written when any
// operation or the verification fails.
func (l *Ledger) Transact(mint solana.PublicKey, b *Batch, verify func(curve.CustodySnapshot) error) error {
	var curveAddr solana.PublicKey
	if verify != nil {
		addrs, err := l.Addresses(mint)
		if err != nil {
			return err
		}
		curveAddr = addrs.Curve
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.stage()
	for i, op := range b.ops {
		if err := op.apply(v); err != nil {
			return fmt.Errorf("custody op %d (%s): %w", i, op, err)
		}
	}
	if verify != nil {
		if err := verify(v.snapshot(mint, curveAddr)); err != nil {
			return err
		}
	}
	v.commit()
	return nil
}

// staged is a copy-on-write overlay of the ledger.
type staged struct {
	l        *Ledger
	lamports map[solana.PublicKey]uint64
	tokens   map[TokenAccount]uint64
	frozen   map[TokenAccount]bool
}

func (l *Ledger) stage() *staged {
	return &staged{
		l:        l,
		lamports: make(map[solana.PublicKey]uint64),
		tokens:   make(map[TokenAccount]uint64),
		frozen:   make(map[TokenAccount]bool),
	}
}

func (s *staged) lamportsOf(owner solana.PublicKey) uint64 {
	if v, ok := s.lamports[owner]; ok {
		return v
	}
	return s.l.lamports[owner]
}

func (s *staged) tokensOf(acc TokenAccount) uint64 {
	if v, ok := s.tokens[acc]; ok {
		return v
	}
	return s.l.tokens[acc]
}

func (s *staged) frozenOf(acc TokenAccount) bool {
	if v, ok := s.frozen[acc]; ok {
		return v
	}
	return s.l.frozen[acc]
}

func (s *staged) snapshot(mint, curveAddr solana.PublicKey) curve.CustodySnapshot {
	acc := TokenAccount{Mint: mint, Owner: curveAddr}
	return curve.CustodySnapshot{
		TokenBalance:       s.tokensOf(acc),
		Lamports:           s.lamportsOf(curveAddr),
		RentExemptMinimum:  s.l.rentExempt,
		TokenAccountFrozen: s.frozenOf(acc),
	}
}

func (s *staged) commit() {
	for k, v := range s.lamports {
		s.l.lamports[k] = v
	}
	for k, v := range s.tokens {
		s.l.tokens[k] = v
	}
	for k, v := range s.frozen {
		if v {
			s.l.frozen[k] = true
		} else {
			delete(s.l.frozen, k)
		}
	}
}
