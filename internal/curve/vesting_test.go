package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = 24 * 60 * 60

func vestingCurve(start int64) BondingCurveState {
	return BondingCurveState{StartTime: start, VestingTerms: DefaultVestingTerms()}
}

func TestClaimVestedLinearRelease(t *testing.T) {
	s := vestingCurve(testNow)
	cliffEnd := testNow + s.VestingTerms.Cliff
	d := Distributor{Kind: DistributorCreator, InitialVestedSupply: 31 * day}

	_, _, err := ClaimVested(d, s, cliffEnd)
	assert.ErrorIs(t, err, ErrCliffNotReached)

	d, amount, err := ClaimVested(d, s, cliffEnd+100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), amount)
	assert.Equal(t, cliffEnd+100, d.LastClaim)
	assert.Equal(t, uint64(100), d.Claimed)

	_, _, err = ClaimVested(d, s, cliffEnd+100)
	assert.ErrorIs(t, err, ErrClaimTooSoon)

	// The second after a claim is where the next window starts.
	_, _, err = ClaimVested(d, s, cliffEnd+101)
	assert.ErrorIs(t, err, ErrNothingToClaim)

	d, amount, err = ClaimVested(d, s, cliffEnd+150)
	require.NoError(t, err)
	assert.Equal(t, uint64(49), amount)

	d, amount, err = ClaimVested(d, s, cliffEnd+s.VestingTerms.Duration)
	require.NoError(t, err)
	assert.Equal(t, uint64(31*day-149), amount)
	assert.Equal(t, d.InitialVestedSupply, d.Claimed)
	assert.Zero(t, d.Remaining())

	_, _, err = ClaimVested(d, s, cliffEnd+s.VestingTerms.Duration+day)
	assert.ErrorIs(t, err, ErrNothingToClaim)
}

func TestClaimVestedReleasesTruncationRemainder(t *testing.T) {
	s := vestingCurve(testNow)
	cliffEnd := testNow + s.VestingTerms.Cliff

	// 3100 tokens over 31 days vest at zero per second until the period ends.
	d := Distributor{Kind: DistributorPlatform, InitialVestedSupply: 3100}
	_, _, err := ClaimVested(d, s, cliffEnd+100)
	assert.ErrorIs(t, err, ErrNothingToClaim)

	d, amount, err := ClaimVested(d, s, cliffEnd+s.VestingTerms.Duration)
	require.NoError(t, err)
	assert.Equal(t, uint64(3100), amount)
	assert.Equal(t, uint64(3100), d.Claimed)
}

func TestClaimVestedPresale(t *testing.T) {
	s := vestingCurve(testNow)
	d := Distributor{Kind: DistributorPresale, InitialVestedSupply: 777}

	_, _, err := ClaimVested(d, s, testNow+s.VestingTerms.Cliff)
	assert.ErrorIs(t, err, ErrCliffNotReached)

	d, amount, err := ClaimVested(d, s, testNow+s.VestingTerms.Cliff+1)
	require.NoError(t, err)
	assert.Equal(t, uint64(777), amount)

	_, _, err = ClaimVested(d, s, testNow+s.VestingTerms.Cliff+2)
	assert.ErrorIs(t, err, ErrNothingToClaim)
}

func TestClaimVestedBeforeStart(t *testing.T) {
	s := vestingCurve(testNow)
	d := Distributor{Kind: DistributorCreator, InitialVestedSupply: 100}
	_, _, err := ClaimVested(d, s, testNow-1)
	assert.ErrorIs(t, err, ErrCurveNotStarted)
}

func TestNewDistributor(t *testing.T) {
	s, err := CreateCurve(CreateParams{
		TokenTotalSupply: 1_000_000,
		Allocation:       AllocationParams{Presale: u64(500), Creator: u64(0)},
		Segments:         constantSegment(1),
	}, testNow, DefaultCreateOptions())
	require.NoError(t, err)

	want := map[DistributorKind]uint64{
		DistributorCreator:  0,
		DistributorPlatform: 50_000,
		DistributorBrand:    200_000,
		DistributorPresale:  50_000,
	}
	for kind, supply := range want {
		d, err := NewDistributor(kind, s)
		require.NoError(t, err)
		assert.Equal(t, kind, d.Kind)
		assert.Equal(t, supply, d.InitialVestedSupply, kind.String())
	}

	_, err = NewDistributor(DistributorKind(42), s)
	assert.Error(t, err)

	k, err := ParseDistributorKind("brand")
	require.NoError(t, err)
	assert.Equal(t, DistributorBrand, k)
}
