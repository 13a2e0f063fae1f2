package curve

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCurveDefaults(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	s, err := CreateCurve(CreateParams{
		Mint:             mint,
		TokenTotalSupply: 1_000_000_000,
		Segments:         constantSegment(1),
	}, testNow, DefaultCreateOptions())
	require.NoError(t, err)

	assert.Equal(t, mint, s.Mint)
	assert.Equal(t, StatusInactive, s.Status)
	assert.Equal(t, StrategySegmented, s.Strategy)
	assert.Equal(t, testNow, s.StartTime)
	assert.Equal(t, DefaultVestingTerms(), s.VestingTerms)
	assert.Equal(t, DefaultAllocation(), s.Allocation)
	assert.Equal(t, uint64(300_000_000), s.Supply.Bonding)
	assert.Equal(t, s.Supply.Bonding, s.RealTokenReserves)
	assert.Zero(t, s.RealSolReserves)
	require.Len(t, s.Segments, 1)
	assert.Equal(t, s.Supply.Bonding, s.Segments[0].EndSupply)
	assert.True(t, s.IsStarted(testNow))
	assert.False(t, s.IsStarted(testNow-1))
}

func TestCreateCurveValidation(t *testing.T) {
	past := testNow - 1
	future := testNow + 3600
	base := func() CreateParams {
		return CreateParams{
			TokenTotalSupply: 10_000,
			Allocation:       halfCurveAllocation(),
			Segments:         constantSegment(2),
		}
	}
	tests := []struct {
		name   string
		mutate func(p *CreateParams)
		want   error
	}{
		{"start time in the past", func(p *CreateParams) { p.StartTime = &past }, ErrInvalidStartTime},
		{"bad allocation", func(p *CreateParams) { p.Allocation.Creator = u64(1) }, ErrInvalidAllocation},
		{"no segments", func(p *CreateParams) { p.Segments = nil }, ErrInvalidSegments},
		{"gap in segments", func(p *CreateParams) {
			p.Segments = []SegmentDef{
				{Type: CurveConstant, StartBps: 0, EndBps: 4000, Params: [3]uint64{1}},
				{Type: CurveConstant, StartBps: 5000, EndBps: 10000, Params: [3]uint64{1}},
			}
		}, ErrInvalidSegments},
		{"exponential overflow", func(p *CreateParams) {
			p.Segments = []SegmentDef{{Type: CurveExponential, EndBps: 10000, Params: [3]uint64{2, 64, 1}}}
		}, ErrInvalidSegmentParams},
		{"threshold above max attainable", func(p *CreateParams) { p.SolLaunchThreshold = 10_001 }, ErrThresholdTooHigh},
		{"zero vesting duration", func(p *CreateParams) { p.VestingTerms = &VestingTerms{Cliff: 1} }, ErrInvalidVestingTerms},
		{"bonding rounds to zero", func(p *CreateParams) { p.TokenTotalSupply = 1 }, ErrInvalidAllocation},
		{"unknown strategy", func(p *CreateParams) { p.Strategy = StrategyKind(7) }, ErrInvalidStrategy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			_, err := CreateCurve(p, testNow, DefaultCreateOptions())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	t.Run("future start and exact threshold", func(t *testing.T) {
		p := base()
		p.StartTime = &future
		p.SolLaunchThreshold = 10_000
		s, err := CreateCurve(p, testNow, DefaultCreateOptions())
		require.NoError(t, err)
		assert.Equal(t, future, s.StartTime)
		assert.False(t, s.IsStarted(testNow))
	})
}

func TestApplyBuyFailsClosed(t *testing.T) {
	s := newSegmentedCurve(t, 10_000, constantSegment(2))
	s, _, err := ApplyBuy(s, 1000)
	require.NoError(t, err)

	before, err := EncodeState(s)
	require.NoError(t, err)
	snapshot := s.Clone()

	// 4500 tokens remain, worth 9000 lamports.
	for _, solIn := range []uint64{9001, ^uint64(0), 0, 1} {
		out, res, err := ApplyBuy(s, solIn)
		require.Error(t, err, "sol_in %d", solIn)
		assert.Equal(t, BondingCurveState{}, out)
		assert.Equal(t, BuyResult{}, res)
	}
	_, err = BuyPrice(s, s.RealTokenReserves+1)
	assert.ErrorIs(t, err, ErrInsufficientReserves)

	after, err := EncodeState(s)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, snapshot, s)
}

func TestApplySellRejectsSupplyOverflow(t *testing.T) {
	s := newSegmentedCurve(t, 10_000, constantSegment(2))
	s, _, err := ApplyBuy(s, 1000)
	require.NoError(t, err)

	_, _, err = ApplySell(s, 501)
	assert.ErrorIs(t, err, ErrSupplyExceeded)
	assert.ErrorIs(t, err, ErrPolicy)

	_, _, err = ApplySell(s, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestSellCappedAtRealReserves(t *testing.T) {
	s := newSegmentedCurve(t, 10_000, constantSegment(2))
	s, _, err := ApplyBuy(s, 1000)
	require.NoError(t, err)

	// Drain real SOL below the curve price of the outstanding tokens.
	s.RealSolReserves = 300
	sol, err := QuoteSell(s, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), sol)
}

func TestReserveConservation(t *testing.T) {
	s := newSegmentedCurve(t, 200_000, mixedSegments())
	bonding := s.Supply.Bonding

	type op struct {
		buy    bool
		amount uint64
	}
	ops := []op{
		{true, 50_000}, {true, 1_234}, {false, 700}, {true, 99_999},
		{false, 10_000}, {true, 7}, {false, 1}, {true, 31_337}, {false, 5_000},
	}

	var tokensOut, solIn uint64
	for i, o := range ops {
		if o.buy {
			next, res, err := ApplyBuy(s, o.amount)
			require.NoError(t, err, "op %d", i)
			tokensOut += res.TokenAmount
			solIn += res.SolAmount
			s = next
			continue
		}
		next, res, err := ApplySell(s, o.amount)
		require.NoError(t, err, "op %d", i)
		tokensOut -= res.TokenAmount
		solIn -= res.SolAmount
		s = next

		assert.Equal(t, bonding, s.RealTokenReserves+tokensOut, "op %d", i)
		assert.Equal(t, solIn, s.RealSolReserves, "op %d", i)
	}
	assert.Equal(t, bonding, s.RealTokenReserves+tokensOut)
	assert.Equal(t, solIn, s.RealSolReserves)
	assert.Equal(t, uint64(len(ops)), s.Version)
}

func TestStatusTransitions(t *testing.T) {
	s := newSegmentedCurve(t, 10_000, constantSegment(2))

	_, err := s.WithStatus(StatusActive)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	s, err = s.WithStatus(StatusPrepared)
	require.NoError(t, err)
	s, err = s.WithStatus(StatusActive)
	require.NoError(t, err)

	_, err = s.WithStatus(StatusComplete)
	assert.ErrorIs(t, err, ErrInvalidStatus, "reserves not exhausted")

	s, res, err := ApplyBuy(s, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), res.TokenAmount)
	assert.True(t, s.IsExhausted())
	assert.True(t, s.CanComplete())

	s, err = s.WithStatus(StatusComplete)
	require.NoError(t, err)
	assert.False(t, s.Status.Tradable())

	_, _, err = ApplySell(s, 1)
	assert.ErrorIs(t, err, ErrCurveNotTradable)
	_, err = QuoteBuy(s, 1)
	assert.ErrorIs(t, err, ErrCurveNotTradable)

	s, err = s.WithStatus(StatusLaunched)
	require.NoError(t, err)
	_, err = s.WithStatus(StatusLaunched + 1)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestErrorCategories(t *testing.T) {
	assert.ErrorIs(t, ErrOverflow, ErrArithmetic)
	assert.ErrorIs(t, ErrDivisionByZero, ErrArithmetic)
	assert.ErrorIs(t, ErrCliffNotReached, ErrPolicy)
	assert.ErrorIs(t, ErrThresholdTooHigh, ErrValidation)
	assert.NotErrorIs(t, ErrOverflow, ErrPolicy)

	var err error = &InvariantViolation{Check: "x", Want: 1, Got: 2}
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "want 1, got 2")
}
