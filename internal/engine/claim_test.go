package engine

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vestedCurve uses the default allocation over 10M tokens: the creator vault
// holds 500000 tokens vesting at 500 per second after a 100 second cliff.
func (f *fixture) vestedCurve(t *testing.T) curve.BondingCurveState {
	t.Helper()
	return f.create(t, curve.CreateParams{
		Mint:             solana.NewWallet().PublicKey(),
		Creator:          f.creator,
		BrandAuthority:   solana.NewWallet().PublicKey(),
		TokenTotalSupply: 10_000_000,
		Segments: []curve.SegmentDef{
			{Type: curve.CurveConstant, StartBps: 0, EndBps: 10000, Params: [3]uint64{1}},
		},
		VestingTerms: &curve.VestingTerms{Cliff: 100, Duration: 1_000},
	})
}

func TestClaimVestedSchedule(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	s := f.vestedCurve(t)
	req := ClaimRequest{Mint: s.Mint, Kind: curve.DistributorCreator, Recipient: f.creator}

	f.clock.Advance(100 * time.Second)
	_, err := f.engine.Claim(ctx, req)
	require.ErrorIs(t, err, curve.ErrCliffNotReached)

	f.clock.Advance(time.Second)
	amount, err := f.engine.Claim(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), amount)

	_, err = f.engine.Claim(ctx, req)
	require.ErrorIs(t, err, curve.ErrClaimTooSoon)

	f.clock.Advance(499 * time.Second)
	amount, err = f.engine.Claim(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, uint64(249_000), amount)

	f.clock.Advance(time.Hour)
	amount, err = f.engine.Claim(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, uint64(250_500), amount)
	assert.Equal(t, uint64(500_000), f.ledger.TokenBalance(s.Mint, f.creator))

	f.clock.Advance(time.Second)
	_, err = f.engine.Claim(ctx, req)
	require.ErrorIs(t, err, curve.ErrNothingToClaim)

	stored, err := f.store.LoadDistributors(ctx, s.Mint)
	require.NoError(t, err)
	for _, d := range stored {
		if d.Kind == curve.DistributorCreator {
			assert.Equal(t, d.InitialVestedSupply, d.Claimed)
		}
	}
}

func TestClaimAuthorization(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	s := f.vestedCurve(t)
	f.clock.Advance(time.Hour)

	stranger := solana.NewWallet().PublicKey()
	_, err := f.engine.Claim(ctx, ClaimRequest{Mint: s.Mint, Kind: curve.DistributorCreator, Recipient: stranger})
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.engine.Claim(ctx, ClaimRequest{Mint: s.Mint, Kind: curve.DistributorBrand, Recipient: stranger})
	require.ErrorIs(t, err, ErrUnauthorized)

	amount, err := f.engine.Claim(ctx, ClaimRequest{Mint: s.Mint, Kind: curve.DistributorBrand, Recipient: s.BrandAuthority})
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), amount)

	platform, err := f.engine.Claim(ctx, ClaimRequest{Mint: s.Mint, Kind: curve.DistributorPlatform, Recipient: stranger})
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), platform)
	assert.Equal(t, uint64(500_000), f.ledger.TokenBalance(s.Mint, stranger))

	// The default allocation reserves nothing for presale.
	_, err = f.engine.Claim(ctx, ClaimRequest{Mint: s.Mint, Kind: curve.DistributorPresale, Recipient: stranger})
	require.ErrorIs(t, err, curve.ErrNothingToClaim)
}
