// ==============================
// File: internal/curve/pricing.go
// ==============================
package curve

import (
	"fmt"
	"math/big"
)

// Direction is the side of a trade relative to the curve. The curve position
// is the number of tradable tokens still held by the curve: a buy moves it
// towards zero, a sell moves it back up.
type Direction uint8

const (
	Buy Direction = iota
	Sell
)

func (d Direction) String() string {
	if d == Buy {
		return "buy"
	}
	return "sell"
}

// SegmentPrice returns the SOL value of tokens [lo, lo+tokens) inside a
// single segment, rounded down.
func SegmentPrice(seg Segment, lo, tokens uint64) (uint64, error) {
	cost, err := segmentCost(seg, lo, tokens, Sell)
	if err != nil {
		return 0, err
	}
	return narrow(cost)
}

// segmentCost evaluates the pricing function without narrowing the result.
// Buy costs round up and sell proceeds round down, so no sequence of trades
// can hold less SOL than the exact integral of the tokens the curve has sold.
//
// Linear segments price token x at (slope*x + intercept)/10000 and sum over
// the range before rounding.
func segmentCost(seg Segment, lo, tokens uint64, dir Direction) (*big.Int, error) {
	t := bigU(tokens)
	switch seg.Type {
	case CurveConstant:
		return t.Mul(t, bigU(seg.Params[0])), nil

	case CurveLinear:
		slope, intercept := bigU(seg.Params[0]), bigU(seg.Params[1])
		// t*intercept + slope*(t*lo + t*(t-1)/2)
		tri := new(big.Int).Mul(t, new(big.Int).Sub(t, big.NewInt(1)))
		tri.Rsh(tri, 1)
		acc := new(big.Int).Mul(t, bigU(lo))
		acc.Add(acc, tri)
		acc.Mul(acc, slope)
		acc.Add(acc, new(big.Int).Mul(t, intercept))
		return roundQuo(acc, bigU(LinearDenominator), dir), nil

	case CurveExponential:
		scale := seg.Params[2]
		if scale == 0 {
			return nil, ErrDivisionByZero
		}
		factor := exponentialFactor(seg.Params[0], seg.Params[1])
		factor.Mul(factor, t)
		return roundQuo(factor, bigU(scale), dir), nil

	default:
		return nil, fmt.Errorf("%w: unknown curve type %d", ErrInvalidSegmentParams, seg.Type)
	}
}

func roundQuo(n, d *big.Int, dir Direction) *big.Int {
	if dir == Buy {
		return ceilDiv(n, d)
	}
	return n.Quo(n, d)
}

// supplyEnd is the highest position covered by the segment table.
func supplyEnd(segments []Segment) uint64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].EndSupply
}

// PriceForTokens returns the SOL value of trading tokens at the given curve
// position. Buys price [position-tokens, position) walking segments from the
// highest down and round each segment up; sells price
// [position, position+tokens) walking upwards and round down.
func PriceForTokens(segments []Segment, position, tokens uint64, dir Direction) (uint64, error) {
	if tokens == 0 {
		return 0, ErrZeroAmount
	}
	lo, hi, err := tradeRange(segments, position, tokens, dir)
	if err != nil {
		return 0, err
	}
	total, err := rangeCost(segments, lo, hi, dir)
	if err != nil {
		return 0, err
	}
	return narrow(total)
}

func tradeRange(segments []Segment, position, tokens uint64, dir Direction) (uint64, uint64, error) {
	end := supplyEnd(segments)
	if position > end {
		return 0, 0, fmt.Errorf("%w: position %d beyond curve end %d", ErrSupplyExceeded, position, end)
	}
	if dir == Buy {
		if tokens > position {
			return 0, 0, fmt.Errorf("%w: want %d tokens, %d available", ErrInsufficientReserves, tokens, position)
		}
		return position - tokens, position, nil
	}
	hi, err := checkedAdd(position, tokens)
	if err != nil {
		return 0, 0, err
	}
	if hi > end {
		return 0, 0, fmt.Errorf("%w: position would reach %d, curve ends at %d", ErrSupplyExceeded, hi, end)
	}
	return position, hi, nil
}

func rangeCost(segments []Segment, lo, hi uint64, dir Direction) (*big.Int, error) {
	total := new(big.Int)
	visit := func(seg Segment) error {
		a, b := max(lo, seg.StartSupply), min(hi, seg.EndSupply)
		if a >= b {
			return nil
		}
		cost, err := segmentCost(seg, a, b-a, dir)
		if err != nil {
			return err
		}
		total.Add(total, cost)
		return nil
	}

	if dir == Buy {
		for i := len(segments) - 1; i >= 0; i-- {
			if err := visit(segments[i]); err != nil {
				return nil, err
			}
		}
		return total, nil
	}
	for _, seg := range segments {
		if err := visit(seg); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// TokensForSOL is the inverse of PriceForTokens.
//
// For buys it returns the largest token quantity whose price does not exceed
// the budget; a budget larger than the price of every remaining token is
// rejected. For sells it returns the smallest token quantity whose proceeds
// reach the budget. Sells are not capped at real reserves here; see
// TokensForSell.
func TokensForSOL(segments []Segment, position, budget uint64, dir Direction) (uint64, error) {
	if budget == 0 {
		return 0, ErrZeroAmount
	}
	if position > supplyEnd(segments) {
		return 0, fmt.Errorf("%w: position %d beyond curve end %d", ErrSupplyExceeded, position, supplyEnd(segments))
	}
	if dir == Buy {
		return tokensForBuy(segments, position, budget)
	}
	return tokensForSell(segments, position, budget)
}

func tokensForBuy(segments []Segment, position, budget uint64) (uint64, error) {
	remaining := bigU(budget)
	cur := position
	var total uint64

	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg.StartSupply >= cur {
			continue
		}
		top := min(cur, seg.EndSupply)
		avail := top - seg.StartSupply

		cost, err := segmentCost(seg, seg.StartSupply, avail, Buy)
		if err != nil {
			return 0, err
		}
		if cost.Cmp(remaining) <= 0 {
			remaining.Sub(remaining, cost)
			if total, err = checkedAdd(total, avail); err != nil {
				return 0, err
			}
			cur = seg.StartSupply
			continue
		}

		k, err := partialBuy(seg, top, avail, remaining)
		if err != nil {
			return 0, err
		}
		if total, err = checkedAdd(total, k); err != nil {
			return 0, err
		}
		if total == 0 {
			return 0, ErrDustTrade
		}
		return total, nil
	}

	if remaining.Sign() > 0 {
		return 0, fmt.Errorf("%w: budget %d exceeds price of all %d remaining tokens", ErrInsufficientReserves, budget, position)
	}
	if total == 0 {
		return 0, ErrDustTrade
	}
	return total, nil
}

// partialBuy returns the largest k <= avail such that [top-k, top) costs no
// more than budget.
func partialBuy(seg Segment, top, avail uint64, budget *big.Int) (uint64, error) {
	switch seg.Type {
	case CurveConstant:
		if seg.Params[0] == 0 {
			return 0, ErrDivisionByZero
		}
		k := new(big.Int).Quo(budget, bigU(seg.Params[0]))
		return clampTokens(k, avail), nil

	case CurveExponential:
		factor := exponentialFactor(seg.Params[0], seg.Params[1])
		if factor.Sign() == 0 {
			return 0, ErrDivisionByZero
		}
		// ceil(factor*k/scale) <= budget  <=>  k <= budget*scale / factor
		n := new(big.Int).Mul(budget, bigU(seg.Params[2]))
		k := n.Quo(n, factor)
		return clampTokens(k, avail), nil

	default:
		return searchMax(avail, budget, func(k uint64) (*big.Int, error) {
			return segmentCost(seg, top-k, k, Buy)
		})
	}
}

func tokensForSell(segments []Segment, position, target uint64) (uint64, error) {
	remaining := bigU(target)
	cur := position
	var total uint64

	for _, seg := range segments {
		if seg.EndSupply <= cur {
			continue
		}
		from := max(cur, seg.StartSupply)
		avail := seg.EndSupply - from

		cost, err := segmentCost(seg, from, avail, Sell)
		if err != nil {
			return 0, err
		}
		if cost.Cmp(remaining) < 0 {
			remaining.Sub(remaining, cost)
			if total, err = checkedAdd(total, avail); err != nil {
				return 0, err
			}
			cur = seg.EndSupply
			continue
		}

		k, err := searchMin(avail, remaining, func(k uint64) (*big.Int, error) {
			return segmentCost(seg, from, k, Sell)
		})
		if err != nil {
			return 0, err
		}
		return checkedAdd(total, k)
	}
	return 0, fmt.Errorf("%w: target %d exceeds proceeds of selling the full curve", ErrSupplyExceeded, target)
}

func clampTokens(k *big.Int, avail uint64) uint64 {
	if !k.IsUint64() || k.Uint64() > avail {
		return avail
	}
	return k.Uint64()
}

// searchMax returns the largest k in [0, hi] with cost(k) <= budget. cost
// must be non-decreasing in k.
func searchMax(hi uint64, budget *big.Int, cost func(uint64) (*big.Int, error)) (uint64, error) {
	lo := uint64(0)
	for lo < hi {
		mid := lo + (hi-lo)/2 + 1
		c, err := cost(mid)
		if err != nil {
			return 0, err
		}
		if c.Cmp(budget) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// searchMin returns the smallest k in [1, hi] with cost(k) >= target, given
// that cost(hi) >= target. cost must be non-decreasing in k.
func searchMin(hi uint64, target *big.Int, cost func(uint64) (*big.Int, error)) (uint64, error) {
	lo := uint64(1)
	for lo < hi {
		mid := lo + (hi-lo)/2
		c, err := cost(mid)
		if err != nil {
			return 0, err
		}
		if c.Cmp(target) >= 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}
