package curve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testNow int64 = 1_700_000_000

func u64(v uint64) *uint64 { return &v }

// halfCurveAllocation sends half the supply to the curve and half to the pool.
func halfCurveAllocation() AllocationParams {
	return AllocationParams{
		Creator:          u64(0),
		Cex:              u64(0),
		LaunchBrandkit:   u64(0),
		LifetimeBrandkit: u64(0),
		Platform:         u64(0),
		Presale:          u64(0),
		CurveReserve:     u64(5000),
		PoolReserve:      u64(5000),
	}
}

func constantSegment(price uint64) []SegmentDef {
	return []SegmentDef{{Type: CurveConstant, StartBps: 0, EndBps: 10000, Params: [3]uint64{price}}}
}

func mixedSegments() []SegmentDef {
	return []SegmentDef{
		{Type: CurveConstant, StartBps: 0, EndBps: 3000, Params: [3]uint64{3}},
		{Type: CurveLinear, StartBps: 3000, EndBps: 7000, Params: [3]uint64{1, 10000}},
		{Type: CurveExponential, StartBps: 7000, EndBps: 10000, Params: [3]uint64{3, 2, 4}},
	}
}

func newSegmentedCurve(t *testing.T, totalSupply uint64, defs []SegmentDef) BondingCurveState {
	t.Helper()
	s, err := CreateCurve(CreateParams{
		TokenTotalSupply: totalSupply,
		Allocation:       halfCurveAllocation(),
		Segments:         defs,
	}, testNow, DefaultCreateOptions())
	require.NoError(t, err)
	return s
}
