package curve

import (
	"math/big"
	"math/bits"
)

// BasisPointsDivisor is 100% expressed in basis points.
const BasisPointsDivisor uint64 = 10_000

// LinearDenominator scales the slope and intercept of linear segments.
const LinearDenominator uint64 = 10_000

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return diff, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// mulDiv computes floor(a*b/d) with a 128-bit intermediate.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

// bpsMul returns floor(bps*amount/10000).
func bpsMul(bps, amount uint64) (uint64, error) {
	return mulDiv(bps, amount, BasisPointsDivisor)
}

// BpsOf returns floor(amount * bps / 10000).
func BpsOf(amount, bps uint64) (uint64, error) {
	return bpsMul(bps, amount)
}

// bpsMulWide is bpsMul without narrowing the result to 64 bits.
func bpsMulWide(bps, amount uint64) U128 {
	hi, lo := bits.Mul64(bps, amount)
	qHi := hi / BasisPointsDivisor
	qLo, _ := bits.Div64(hi%BasisPointsDivisor, lo, BasisPointsDivisor)
	return U128{Lo: qLo, Hi: qHi}
}

func narrow(v *big.Int) (uint64, error) {
	if v.Sign() < 0 {
		return 0, ErrUnderflow
	}
	if v.Cmp(maxUint64) > 0 {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}

func bigU(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// ceilDiv returns ceil(n/d) for positive d.
func ceilDiv(n, d *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// U128 is an unsigned 128-bit integer laid out low word first, which matches
// the little-endian u128 wire layout.
type U128 struct {
	Lo uint64
	Hi uint64
}

// U128From widens a 64-bit value.
func U128From(v uint64) U128 {
	return U128{Lo: v}
}

// BigInt converts the value to a big.Int.
func (u U128) BigInt() *big.Int {
	v := new(big.Int).SetUint64(u.Hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(u.Lo))
}

// IsZero reports whether the value is zero.
func (u U128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

// Add returns u+v, failing on overflow.
func (u U128) Add(v U128) (U128, error) {
	lo, carry := bits.Add64(u.Lo, v.Lo, 0)
	hi, carry := bits.Add64(u.Hi, v.Hi, carry)
	if carry != 0 {
		return U128{}, ErrOverflow
	}
	return U128{Lo: lo, Hi: hi}, nil
}

// Sub returns u-v, failing on underflow.
func (u U128) Sub(v U128) (U128, error) {
	lo, borrow := bits.Sub64(u.Lo, v.Lo, 0)
	hi, borrow := bits.Sub64(u.Hi, v.Hi, borrow)
	if borrow != 0 {
		return U128{}, ErrUnderflow
	}
	return U128{Lo: lo, Hi: hi}, nil
}

func (u U128) String() string {
	return u.BigInt().String()
}
