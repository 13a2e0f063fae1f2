package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConstantProductCurve(t *testing.T, multiplierBps, virtualSol, threshold uint64) (BondingCurveState, error) {
	t.Helper()
	return CreateCurve(CreateParams{
		TokenTotalSupply:          10_000,
		SolLaunchThreshold:        threshold,
		Allocation:                halfCurveAllocation(),
		Strategy:                  StrategyConstantProduct,
		VirtualTokenMultiplierBps: multiplierBps,
		VirtualSolReserves:        virtualSol,
	}, testNow, DefaultCreateOptions())
}

func TestConstantProductCreate(t *testing.T) {
	s, err := newConstantProductCurve(t, 10_000, 1_000, 1_000)
	require.NoError(t, err)
	assert.Equal(t, StrategyConstantProduct, s.Strategy)
	assert.Equal(t, U128From(10_000), s.VirtualTokenReserves)
	assert.Equal(t, s.VirtualTokenReserves, s.InitialVirtualTokenReserves)
	assert.Empty(t, s.Segments)

	maxSol, err := MaxAttainableSOL(s)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), maxSol)

	_, err = newConstantProductCurve(t, 10_000, 1_000, 1_001)
	assert.ErrorIs(t, err, ErrThresholdTooHigh)

	_, err = newConstantProductCurve(t, 10_000, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidVirtualParams)

	// Without extra virtual tokens the last real token has no finite price.
	_, err = newConstantProductCurve(t, 0, 1_000, 0)
	assert.ErrorIs(t, err, ErrNoMaxAttainableSOL)
}

func TestConstantProductTrades(t *testing.T) {
	s, err := newConstantProductCurve(t, 10_000, 1_000, 0)
	require.NoError(t, err)

	quote, err := QuoteBuy(s, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(909), quote)

	s, buy, err := ApplyBuy(s, 100)
	require.NoError(t, err)
	assert.Equal(t, BuyResult{TokenAmount: 909, SolAmount: 100}, buy)
	assert.Equal(t, uint64(4_091), s.RealTokenReserves)
	assert.Equal(t, uint64(100), s.RealSolReserves)
	assert.Equal(t, U128From(9_091), s.VirtualTokenReserves)
	assert.Equal(t, uint64(1_100), s.VirtualSolReserves)

	s, sell, err := ApplySell(s, 909)
	require.NoError(t, err)
	assert.Equal(t, SellResult{TokenAmount: 909, SolAmount: 99}, sell)
	assert.Equal(t, uint64(5_000), s.RealTokenReserves)
	assert.Equal(t, uint64(1), s.RealSolReserves)
	assert.Equal(t, U128From(10_000), s.VirtualTokenReserves)
	assert.Equal(t, uint64(1_001), s.VirtualSolReserves)
}

func TestConstantProductRejections(t *testing.T) {
	s, err := newConstantProductCurve(t, 10_000, 1_000, 0)
	require.NoError(t, err)

	_, _, err = ApplyBuy(s, 1_000_000)
	assert.ErrorIs(t, err, ErrInsufficientReserves)

	_, _, err = ApplyBuy(s, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, _, err = ApplySell(s, 1)
	assert.ErrorIs(t, err, ErrSupplyExceeded)

	// Exactly the max attainable SOL buys every real token.
	s, buy, err := ApplyBuy(s, 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), buy.TokenAmount)
	assert.True(t, s.IsExhausted())
}

func TestConstantProductRoundTripNeverProfits(t *testing.T) {
	for _, solIn := range []uint64{1, 17, 250, 999} {
		s, err := newConstantProductCurve(t, 2_500, 7_919, 0)
		require.NoError(t, err)

		s, buy, err := ApplyBuy(s, solIn)
		if err != nil {
			assert.ErrorIs(t, err, ErrDustTrade)
			continue
		}
		_, sell, err := ApplySell(s, buy.TokenAmount)
		require.NoError(t, err)
		assert.LessOrEqual(t, sell.SolAmount, solIn)
	}
}

func TestConstantProductTokensForSell(t *testing.T) {
	s, err := newConstantProductCurve(t, 10_000, 1_000, 0)
	require.NoError(t, err)
	s, _, err = ApplyBuy(s, 100)
	require.NoError(t, err)

	k, err := TokensForSell(s, 99)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), k)
	sol, err := QuoteSell(s, k)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), sol)
	sol, err = QuoteSell(s, k-1)
	require.NoError(t, err)
	assert.Equal(t, uint64(98), sol)

	// Recovering the whole buy would take more tokens than it bought.
	_, err = TokensForSell(s, 100)
	assert.ErrorIs(t, err, ErrSupplyExceeded)

	_, err = TokensForSell(s, 101)
	assert.ErrorIs(t, err, ErrInsufficientReserves)
}
