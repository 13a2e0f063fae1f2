package curve

import "fmt"

// DistributorKind names a vesting vault.
type DistributorKind uint8

const (
	DistributorCreator DistributorKind = iota
	DistributorPlatform
	DistributorBrand
	DistributorPresale
)

func (k DistributorKind) String() string {
	switch k {
	case DistributorCreator:
		return "creator"
	case DistributorPlatform:
		return "platform"
	case DistributorBrand:
		return "brand"
	case DistributorPresale:
		return "presale"
	default:
		return fmt.Sprintf("distributor(%d)", uint8(k))
	}
}

// ParseDistributorKind maps a textual name onto a DistributorKind.
func ParseDistributorKind(s string) (DistributorKind, error) {
	for _, k := range DistributorKinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown distributor %q", ErrInvalidVestingTerms, s)
}

// DistributorKinds lists every vault a curve owns.
func DistributorKinds() []DistributorKind {
	return []DistributorKind{DistributorCreator, DistributorPlatform, DistributorBrand, DistributorPresale}
}

// Distributor tracks the release of one vested bucket. LastClaim is zero
// until the first claim.
type Distributor struct {
	Kind                DistributorKind
	InitialVestedSupply uint64
	Claimed             uint64
	LastClaim           int64
}

// Remaining is the amount still held by the vault.
func (d Distributor) Remaining() uint64 {
	return d.InitialVestedSupply - d.Claimed
}

// NewDistributor sizes the vault of kind from the curve's supply buckets.
func NewDistributor(kind DistributorKind, s BondingCurveState) (Distributor, error) {
	d := Distributor{Kind: kind}
	switch kind {
	case DistributorCreator:
		d.InitialVestedSupply = s.Supply.CreatorVested
	case DistributorPlatform:
		d.InitialVestedSupply = s.Supply.Platform
	case DistributorBrand:
		total, err := checkedAdd(s.Supply.LaunchBrandkit, s.Supply.LifetimeBrandkit)
		if err != nil {
			return Distributor{}, err
		}
		d.InitialVestedSupply = total
	case DistributorPresale:
		d.InitialVestedSupply = s.Supply.Presale
	default:
		return Distributor{}, fmt.Errorf("%w: unknown distributor %d", ErrInvalidVestingTerms, kind)
	}
	return d, nil
}

// ClaimVested releases what has vested since the previous claim.
//
// Tokens vest at InitialVestedSupply/Duration per second starting at the
// cliff end. The first claim counts from the cliff end, later ones from the
// second after the previous claim. Once the vesting period is over the whole
// remainder is released, including what integer division left behind.
// Presale vaults release everything as soon as the cliff has passed.
func ClaimVested(d Distributor, s BondingCurveState, now int64) (Distributor, uint64, error) {
	if !s.IsStarted(now) {
		return Distributor{}, 0, ErrCurveNotStarted
	}
	terms := s.VestingTerms
	if terms.Duration <= 0 || terms.Cliff < 0 {
		return Distributor{}, 0, fmt.Errorf("%w: cliff %d duration %d", ErrInvalidVestingTerms, terms.Cliff, terms.Duration)
	}
	if now-s.StartTime <= terms.Cliff {
		return Distributor{}, 0, ErrCliffNotReached
	}
	if d.Claimed >= d.InitialVestedSupply {
		return Distributor{}, 0, ErrNothingToClaim
	}

	remaining := d.Remaining()
	var amount uint64
	switch {
	case d.Kind == DistributorPresale:
		amount = remaining
	default:
		cliffEnd := s.StartTime + terms.Cliff
		from := cliffEnd
		if d.LastClaim != 0 {
			if now <= d.LastClaim {
				return Distributor{}, 0, fmt.Errorf("%w: last claim at %d", ErrClaimTooSoon, d.LastClaim)
			}
			from = max(cliffEnd, d.LastClaim+1)
		}
		if now >= cliffEnd+terms.Duration {
			amount = remaining
			break
		}
		perSecond := d.InitialVestedSupply / uint64(terms.Duration)
		elapsed := uint64(max(now-from, 0))
		vested, err := checkedMul(perSecond, elapsed)
		if err != nil {
			return Distributor{}, 0, err
		}
		amount = min(vested, remaining)
	}
	if amount == 0 {
		return Distributor{}, 0, ErrNothingToClaim
	}

	out := d
	out.Claimed += amount
	out.LastClaim = now
	return out, amount, nil
}
