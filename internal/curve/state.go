// ============================
// File: internal/curve/state.go
// ============================
package curve

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Status is the lifecycle stage of a bonding curve. Stages only move forward
// one step at a time.
type Status uint8

const (
	StatusInactive Status = iota
	StatusPrepared
	StatusActive
	StatusComplete
	StatusLaunched
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusPrepared:
		return "prepared"
	case StatusActive:
		return "active"
	case StatusComplete:
		return "complete"
	case StatusLaunched:
		return "launched"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Tradable reports whether buys and sells are accepted in this stage.
func (s Status) Tradable() bool {
	return s < StatusComplete
}

// VestingTerms gate vested claims, in seconds.
type VestingTerms struct {
	Cliff    int64
	Duration int64
}

// DefaultVestingTerms is a 7 day cliff followed by 31 days of linear release.
func DefaultVestingTerms() VestingTerms {
	return VestingTerms{
		Cliff:    7 * 24 * 60 * 60,
		Duration: 31 * 24 * 60 * 60,
	}
}

// BondingCurveState is the aggregate root of one curve. It is a value: every
// mutating operation returns a new state with Version incremented.
type BondingCurveState struct {
	Mint           solana.PublicKey
	Creator        solana.PublicKey
	CexAuthority   solana.PublicKey
	BrandAuthority solana.PublicKey

	Status   Status
	Strategy StrategyKind
	Version  uint64

	VirtualTokenMultiplierBps   uint64
	VirtualSolReserves          uint64
	VirtualTokenReserves        U128
	InitialVirtualTokenReserves U128

	RealSolReserves   uint64
	RealTokenReserves uint64

	TokenTotalSupply uint64
	Supply           SupplyBuckets

	SolLaunchThreshold uint64
	StartTime          int64
	VestingTerms       VestingTerms
	Allocation         Allocation

	Segments []Segment
}

// Clone returns a deep copy.
func (s BondingCurveState) Clone() BondingCurveState {
	c := s
	c.Segments = append([]Segment(nil), s.Segments...)
	return c
}

// IsStarted reports whether trading has opened at unix time now.
func (s BondingCurveState) IsStarted(now int64) bool {
	return now >= s.StartTime
}

// IsExhausted reports whether every tradable token has been bought. The
// caller decides whether to move the curve to StatusComplete.
func (s BondingCurveState) IsExhausted() bool {
	return s.RealTokenReserves == 0
}

// CanComplete reports whether the curve satisfies the Complete invariants.
func (s BondingCurveState) CanComplete() bool {
	return s.RealTokenReserves == 0 && s.RealSolReserves >= s.SolLaunchThreshold
}

// WithStatus returns the state advanced to next. Only the immediate
// successor is accepted, and Complete requires exhausted reserves that meet
// the launch threshold.
func (s BondingCurveState) WithStatus(next Status) (BondingCurveState, error) {
	if next != s.Status+1 || next > StatusLaunched {
		return BondingCurveState{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, s.Status, next)
	}
	if next == StatusComplete && !s.CanComplete() {
		return BondingCurveState{}, fmt.Errorf("%w: curve not exhausted or below launch threshold", ErrInvalidStatus)
	}
	out := s.Clone()
	out.Status = next
	out.Version++
	return out, nil
}

// BuyResult is the effect of one buy.
type BuyResult struct {
	TokenAmount uint64
	SolAmount   uint64
}

// SellResult is the effect of one sell.
type SellResult struct {
	TokenAmount uint64
	SolAmount   uint64
}

// CreateParams describes a new curve.
type CreateParams struct {
	Mint           solana.PublicKey
	Creator        solana.PublicKey
	CexAuthority   solana.PublicKey
	BrandAuthority solana.PublicKey

	TokenTotalSupply   uint64
	SolLaunchThreshold uint64
	StartTime          *int64

	Allocation   AllocationParams
	Segments     []SegmentDef
	VestingTerms *VestingTerms

	Strategy                  StrategyKind
	VirtualTokenMultiplierBps uint64
	VirtualSolReserves        uint64
}

// CreateOptions tune creation-time validation.
type CreateOptions struct {
	RequirePoolParity    bool
	MaxExponentialFactor uint64
	DefaultVestingTerms  VestingTerms
}

// DefaultCreateOptions enables pool parity and the widest exponential bound.
func DefaultCreateOptions() CreateOptions {
	return CreateOptions{
		RequirePoolParity:    true,
		MaxExponentialFactor: DefaultMaxExponentialFactor,
		DefaultVestingTerms:  DefaultVestingTerms(),
	}
}

// CreateCurve validates params and builds the initial state. Any validation
// failure aborts creation as a whole.
func CreateCurve(p CreateParams, now int64, opts CreateOptions) (BondingCurveState, error) {
	startTime := now
	if p.StartTime != nil {
		if *p.StartTime < now {
			return BondingCurveState{}, fmt.Errorf("%w: start %d < now %d", ErrInvalidStartTime, *p.StartTime, now)
		}
		startTime = *p.StartTime
	}

	vesting := opts.DefaultVestingTerms
	if p.VestingTerms != nil {
		vesting = *p.VestingTerms
	}
	if vesting.Cliff < 0 || vesting.Duration <= 0 {
		return BondingCurveState{}, fmt.Errorf("%w: cliff %d duration %d", ErrInvalidVestingTerms, vesting.Cliff, vesting.Duration)
	}

	alloc, err := ValidateAllocation(p.Allocation.Merge(), opts.RequirePoolParity)
	if err != nil {
		return BondingCurveState{}, err
	}
	buckets, err := alloc.Resolve(p.TokenTotalSupply)
	if err != nil {
		return BondingCurveState{}, fmt.Errorf("resolve allocation: %w", err)
	}
	// Derived totals are re-checked against the declared supply before
	// anything is minted.
	if err := buckets.CheckDrift(p.TokenTotalSupply); err != nil {
		return BondingCurveState{}, err
	}
	if buckets.Bonding == 0 {
		return BondingCurveState{}, fmt.Errorf("%w: bonding supply resolves to zero", ErrInvalidAllocation)
	}

	strategy, err := StrategyFor(p.Strategy)
	if err != nil {
		return BondingCurveState{}, err
	}

	state := BondingCurveState{
		Mint:               p.Mint,
		Creator:            p.Creator,
		CexAuthority:       p.CexAuthority,
		BrandAuthority:     p.BrandAuthority,
		Status:             StatusInactive,
		Strategy:           p.Strategy,
		RealTokenReserves:  buckets.Bonding,
		TokenTotalSupply:   p.TokenTotalSupply,
		Supply:             buckets,
		SolLaunchThreshold: p.SolLaunchThreshold,
		StartTime:          startTime,
		VestingTerms:       vesting,
		Allocation:         alloc.Allocation(),
	}

	if err := strategy.Init(&state, p, opts); err != nil {
		return BondingCurveState{}, err
	}

	maxSol, err := strategy.MaxAttainableSOL(state)
	if err != nil {
		return BondingCurveState{}, fmt.Errorf("%w: %v", ErrNoMaxAttainableSOL, err)
	}
	if p.SolLaunchThreshold > maxSol {
		return BondingCurveState{}, fmt.Errorf("%w: threshold %d > max %d", ErrThresholdTooHigh, p.SolLaunchThreshold, maxSol)
	}
	return state, nil
}
