package custody

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const rent = 1_000

func newTestLedger(t *testing.T) *Ledger {
	return NewLedger(DefaultProgramID, rent, zaptest.NewLogger(t))
}

func TestDeriveAddressesIsDeterministic(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	a, err := DeriveAddresses(DefaultProgramID, mint)
	require.NoError(t, err)
	b, err := DeriveAddresses(DefaultProgramID, mint)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	seen := map[solana.PublicKey]bool{}
	for _, addr := range []solana.PublicKey{a.Curve, a.PoolReserve, a.CreatorVault, a.PlatformVault, a.BrandVault, a.PresaleVault} {
		assert.False(t, seen[addr], "duplicate address %s", addr)
		seen[addr] = true
	}

	vault, err := a.Vault(curve.DistributorBrand)
	require.NoError(t, err)
	assert.Equal(t, a.BrandVault, vault)
}

func TestBatchIsAllOrNothing(t *testing.T) {
	l := newTestLedger(t)
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	require.NoError(t, l.Fund(alice, 100))

	err := l.Execute(NewBatch().
		TransferLamports(alice, bob, 60).
		MintTo(mint, bob, 10).
		TransferLamports(alice, bob, 60))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, uint64(100), l.Lamports(alice))
	assert.Zero(t, l.Lamports(bob))
	assert.Zero(t, l.TokenBalance(mint, bob))

	require.NoError(t, l.Execute(NewBatch().TransferLamports(alice, bob, 60).MintTo(mint, bob, 10)))
	assert.Equal(t, uint64(40), l.Lamports(alice))
	assert.Equal(t, uint64(60), l.Lamports(bob))
	assert.Equal(t, uint64(10), l.TokenBalance(mint, bob))
}

func TestFrozenAccountsNeedProgramAuthority(t *testing.T) {
	l := newTestLedger(t)
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	require.NoError(t, l.Execute(NewBatch().MintTo(mint, owner, 50)))
	l.SetFrozen(mint, owner, true)
	assert.True(t, l.IsFrozen(mint, owner))

	err := l.Execute(NewBatch().TransferTokens(mint, owner, other, 5, false))
	assert.ErrorIs(t, err, ErrAccountFrozen)

	require.NoError(t, l.Execute(NewBatch().TransferTokens(mint, owner, other, 5, true)))
	assert.Equal(t, uint64(45), l.TokenBalance(mint, owner))

	l.SetFrozen(mint, owner, false)
	require.NoError(t, l.Execute(NewBatch().TransferTokens(mint, owner, other, 5, false)))
	assert.Equal(t, uint64(10), l.TokenBalance(mint, other))
}

func TestTransactRejectedByVerifier(t *testing.T) {
	l := newTestLedger(t)
	mint := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	addrs, err := l.Addresses(mint)
	require.NoError(t, err)
	require.NoError(t, l.Fund(payer, 10_000))

	b := NewBatch().TransferLamports(payer, addrs.Curve, rent+500).MintTo(mint, addrs.Curve, 77)

	var seen curve.CustodySnapshot
	rejected := errors.New("rejected")
	err = l.Transact(mint, b, func(s curve.CustodySnapshot) error {
		seen = s
		return rejected
	})
	require.ErrorIs(t, err, rejected)
	assert.Equal(t, curve.CustodySnapshot{TokenBalance: 77, Lamports: rent + 500, RentExemptMinimum: rent}, seen)
	assert.Equal(t, uint64(10_000), l.Lamports(payer))

	require.NoError(t, l.Transact(mint, b, func(curve.CustodySnapshot) error { return nil }))
	snap, err := l.Snapshot(mint)
	require.NoError(t, err)
	net, err := snap.NetLamports()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), net)
	assert.Equal(t, uint64(77), snap.TokenBalance)
}

func TestStagedFreezeIsVisibleToVerifier(t *testing.T) {
	l := newTestLedger(t)
	mint := solana.NewWallet().PublicKey()
	addrs, err := l.Addresses(mint)
	require.NoError(t, err)

	b := NewBatch().MintTo(mint, addrs.Curve, 10).SetFrozen(mint, addrs.Curve, true)
	err = l.Transact(mint, b, func(s curve.CustodySnapshot) error {
		assert.True(t, s.TokenAccountFrozen)
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.False(t, l.IsFrozen(mint, addrs.Curve))

	require.NoError(t, l.Execute(b))
	assert.True(t, l.IsFrozen(mint, addrs.Curve))

	require.NoError(t, l.Execute(NewBatch().SetFrozen(mint, addrs.Curve, false)))
	assert.False(t, l.IsFrozen(mint, addrs.Curve))
}
