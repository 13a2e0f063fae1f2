// =================================
// File: internal/curve/allocation.go
// =================================
package curve

import "fmt"

// Allocation splits the total token supply into buckets expressed in basis
// points. A valid allocation sums to exactly BasisPointsDivisor.
type Allocation struct {
	Creator          uint64
	Cex              uint64
	LaunchBrandkit   uint64
	LifetimeBrandkit uint64
	Platform         uint64
	Presale          uint64
	CurveReserve     uint64
	PoolReserve      uint64
}

// DefaultAllocation returns the allocation used for any bucket the creator
// does not override.
func DefaultAllocation() Allocation {
	return Allocation{
		Creator:          500,
		Cex:              1000,
		LaunchBrandkit:   1000,
		LifetimeBrandkit: 1000,
		Platform:         500,
		Presale:          0,
		CurveReserve:     3000,
		PoolReserve:      3000,
	}
}

// AllocationParams carries optional per-bucket overrides. Nil fields fall
// back to DefaultAllocation.
type AllocationParams struct {
	Creator          *uint64 `yaml:"creator" json:"creator,omitempty"`
	Cex              *uint64 `yaml:"cex" json:"cex,omitempty"`
	LaunchBrandkit   *uint64 `yaml:"launch_brandkit" json:"launch_brandkit,omitempty"`
	LifetimeBrandkit *uint64 `yaml:"lifetime_brandkit" json:"lifetime_brandkit,omitempty"`
	Platform         *uint64 `yaml:"platform" json:"platform,omitempty"`
	Presale          *uint64 `yaml:"presale" json:"presale,omitempty"`
	CurveReserve     *uint64 `yaml:"curve_reserve" json:"curve_reserve,omitempty"`
	PoolReserve      *uint64 `yaml:"pool_reserve" json:"pool_reserve,omitempty"`
}

// Merge applies the overrides on top of the defaults.
func (p AllocationParams) Merge() Allocation {
	a := DefaultAllocation()
	pick := func(dst *uint64, v *uint64) {
		if v != nil {
			*dst = *v
		}
	}
	pick(&a.Creator, p.Creator)
	pick(&a.Cex, p.Cex)
	pick(&a.LaunchBrandkit, p.LaunchBrandkit)
	pick(&a.LifetimeBrandkit, p.LifetimeBrandkit)
	pick(&a.Platform, p.Platform)
	pick(&a.Presale, p.Presale)
	pick(&a.CurveReserve, p.CurveReserve)
	pick(&a.PoolReserve, p.PoolReserve)
	return a
}

func (a Allocation) shares() []uint64 {
	return []uint64{
		a.Creator, a.Cex, a.LaunchBrandkit, a.LifetimeBrandkit,
		a.Platform, a.Presale, a.CurveReserve, a.PoolReserve,
	}
}

// Sum adds all shares, failing on overflow.
func (a Allocation) Sum() (uint64, error) {
	var total uint64
	for _, s := range a.shares() {
		var err error
		if total, err = checkedAdd(total, s); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// IsValid reports whether the allocation passes Validate.
func (a Allocation) IsValid(requirePoolParity bool) bool {
	_, err := ValidateAllocation(a, requirePoolParity)
	return err == nil
}

// ValidatedAllocation is an Allocation that has passed validation. It can
// only be obtained through ValidateAllocation.
type ValidatedAllocation struct {
	alloc Allocation
}

// ValidateAllocation checks that shares sum to 10000 bps, that the curve
// reserve is non-empty and, when requested, that the pool reserve equals the
// curve reserve.
func ValidateAllocation(a Allocation, requirePoolParity bool) (ValidatedAllocation, error) {
	sum, err := a.Sum()
	if err != nil || sum != BasisPointsDivisor {
		return ValidatedAllocation{}, fmt.Errorf("%w: shares sum to %d bps", ErrInvalidAllocation, sum)
	}
	if a.CurveReserve == 0 {
		return ValidatedAllocation{}, fmt.Errorf("%w: curve reserve is zero", ErrInvalidAllocation)
	}
	if requirePoolParity && a.PoolReserve != a.CurveReserve {
		return ValidatedAllocation{}, fmt.Errorf("%w: pool reserve %d != curve reserve %d",
			ErrInvalidAllocation, a.PoolReserve, a.CurveReserve)
	}
	return ValidatedAllocation{alloc: a}, nil
}

// Allocation returns the validated shares.
func (v ValidatedAllocation) Allocation() Allocation {
	return v.alloc
}

// SupplyBuckets holds absolute token counts derived from an allocation.
type SupplyBuckets struct {
	CreatorVested    uint64
	Presale          uint64
	Bonding          uint64
	Pool             uint64
	Cex              uint64
	LaunchBrandkit   uint64
	LifetimeBrandkit uint64
	Platform         uint64
}

// Total sums all buckets.
func (b SupplyBuckets) Total() (uint64, error) {
	var total uint64
	for _, v := range []uint64{
		b.CreatorVested, b.Presale, b.Bonding, b.Pool,
		b.Cex, b.LaunchBrandkit, b.LifetimeBrandkit, b.Platform,
	} {
		var err error
		if total, err = checkedAdd(total, v); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// Resolve converts every share into floor(bps*totalSupply/10000) tokens.
func (v ValidatedAllocation) Resolve(totalSupply uint64) (SupplyBuckets, error) {
	a := v.alloc
	var (
		b   SupplyBuckets
		err error
	)
	fields := []struct {
		dst *uint64
		bps uint64
	}{
		{&b.CreatorVested, a.Creator},
		{&b.Presale, a.Presale},
		{&b.Bonding, a.CurveReserve},
		{&b.Pool, a.PoolReserve},
		{&b.Cex, a.Cex},
		{&b.LaunchBrandkit, a.LaunchBrandkit},
		{&b.LifetimeBrandkit, a.LifetimeBrandkit},
		{&b.Platform, a.Platform},
	}
	for _, f := range fields {
		if *f.dst, err = bpsMul(f.bps, totalSupply); err != nil {
			return SupplyBuckets{}, err
		}
	}

	total, err := b.Total()
	if err != nil {
		return SupplyBuckets{}, err
	}
	if total > totalSupply {
		return SupplyBuckets{}, fmt.Errorf("%w: buckets total %d exceeds supply %d", ErrInvalidAllocation, total, totalSupply)
	}
	return b, nil
}

// bucketCount is the number of supply buckets, which bounds floor rounding.
const bucketCount = 8

// CheckDrift verifies that the buckets never exceed totalSupply and lose at
// most one token per bucket to floor rounding.
func (b SupplyBuckets) CheckDrift(totalSupply uint64) error {
	total, err := b.Total()
	if err != nil {
		return err
	}
	if total > totalSupply || totalSupply-total > bucketCount {
		return fmt.Errorf("%w: buckets total %d drift from supply %d", ErrInvalidAllocation, total, totalSupply)
	}
	return nil
}
