package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type op interface {
	apply(s *staged) error
	String() string
}

// Batch collects custody operations that must succeed together.
type Batch struct {
	ops []op
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Len is the number of staged operations.
func (b *Batch) Len() int { return len(b.ops) }

// TransferLamports moves SOL between two owners.
func (b *Batch) TransferLamports(from, to solana.PublicKey, amount uint64) *Batch {
	b.ops = append(b.ops, lamportTransfer{from: from, to: to, amount: amount})
	return b
}

// TransferTokens moves tokens between two owners. Frozen accounts only move
// under program authority.
func (b *Batch) TransferTokens(mint, from, to solana.PublicKey, amount uint64, programSigned bool) *Batch {
	b.ops = append(b.ops, tokenTransfer{mint: mint, from: from, to: to, amount: amount, programSigned: programSigned})
	return b
}

// MintTo creates new tokens in owner's account.
func (b *Batch) MintTo(mint, owner solana.PublicKey, amount uint64) *Batch {
	b.ops = append(b.ops, mintTo{mint: mint, owner: owner, amount: amount})
	return b
}

// SetFrozen freezes or thaws a token account as part of the batch.
func (b *Batch) SetFrozen(mint, owner solana.PublicKey, frozen bool) *Batch {
	b.ops = append(b.ops, freeze{acc: TokenAccount{Mint: mint, Owner: owner}, frozen: frozen})
	return b
}

type lamportTransfer struct {
	from, to solana.PublicKey
	amount   uint64
}

func (t lamportTransfer) apply(s *staged) error {
	if t.amount == 0 {
		return nil
	}
	src := s.lamportsOf(t.from)
	if src < t.amount {
		return fmt.Errorf("%w: %s holds %d lamports, needs %d", ErrInsufficientFunds, t.from, src, t.amount)
	}
	s.lamports[t.from] = src - t.amount
	dst := s.lamportsOf(t.to)
	if dst+t.amount < dst {
		return ErrBalanceOverflow
	}
	s.lamports[t.to] = dst + t.amount
	return nil
}

func (t lamportTransfer) String() string {
	return fmt.Sprintf("transfer %d lamports %s -> %s", t.amount, t.from.String(), t.to.String())
}

type tokenTransfer struct {
	mint, from, to solana.PublicKey
	amount         uint64
	programSigned  bool
}

func (t tokenTransfer) apply(s *staged) error {
	if t.amount == 0 {
		return nil
	}
	src := TokenAccount{Mint: t.mint, Owner: t.from}
	dst := TokenAccount{Mint: t.mint, Owner: t.to}
	if !t.programSigned && (s.frozenOf(src) || s.frozenOf(dst)) {
		return ErrAccountFrozen
	}
	bal := s.tokensOf(src)
	if bal < t.amount {
		return fmt.Errorf("%w: %s holds %d tokens, needs %d", ErrInsufficientFunds, t.from, bal, t.amount)
	}
	s.tokens[src] = bal - t.amount
	next := s.tokensOf(dst)
	if next+t.amount < next {
		return ErrBalanceOverflow
	}
	s.tokens[dst] = next + t.amount
	return nil
}

func (t tokenTransfer) String() string {
	return fmt.Sprintf("transfer %d tokens %s -> %s", t.amount, t.from.String(), t.to.String())
}

type mintTo struct {
	mint, owner solana.PublicKey
	amount      uint64
}

func (m mintTo) apply(s *staged) error {
	acc := TokenAccount{Mint: m.mint, Owner: m.owner}
	bal := s.tokensOf(acc)
	if bal+m.amount < bal {
		return ErrBalanceOverflow
	}
	s.tokens[acc] = bal + m.amount
	return nil
}

func (m mintTo) String() string {
	return fmt.Sprintf("mint %d tokens to %s", m.amount, m.owner.String())
}

type freeze struct {
	acc    TokenAccount
	frozen bool
}

func (f freeze) apply(s *staged) error {
	s.frozen[f.acc] = f.frozen
	return nil
}

func (f freeze) String() string {
	if f.frozen {
		return fmt.Sprintf("freeze %s", f.acc.Owner.String())
	}
	return fmt.Sprintf("thaw %s", f.acc.Owner.String())
}
