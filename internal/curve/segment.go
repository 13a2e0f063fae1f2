// ==============================
// File: internal/curve/segment.go
// ==============================
package curve

import (
	"fmt"
	"math/big"
	"strings"
)

// CurveType selects the pricing function of a segment.
type CurveType uint8

const (
	CurveConstant CurveType = iota
	CurveLinear
	CurveExponential
)

func (t CurveType) String() string {
	switch t {
	case CurveConstant:
		return "constant"
	case CurveLinear:
		return "linear"
	case CurveExponential:
		return "exponential"
	default:
		return fmt.Sprintf("curve_type(%d)", uint8(t))
	}
}

// ParseCurveType maps a textual name onto a CurveType.
func ParseCurveType(s string) (CurveType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constant":
		return CurveConstant, nil
	case "linear":
		return CurveLinear, nil
	case "exponential":
		return CurveExponential, nil
	default:
		return 0, fmt.Errorf("%w: unknown curve type %q", ErrInvalidSegments, s)
	}
}

const (
	// MaxSegments bounds the resolved segment table.
	MaxSegments = 16
	// MaxExponent bounds the exponent of exponential segments.
	MaxExponent = 64
)

// DefaultMaxExponentialFactor bounds base^exponent of exponential segments.
var DefaultMaxExponentialFactor = ^uint64(0)

// SegmentDef is a segment over [StartBps, EndBps) of the tradable supply.
//
// Params by curve type:
//   - constant:    [price_per_token, -, -]
//   - linear:      [slope, intercept, -], price(x) = (slope*x + intercept) / 10000
//   - exponential: [base, exponent, scale], price = base^exponent / scale
type SegmentDef struct {
	Type     CurveType
	StartBps uint64
	EndBps   uint64
	Params   [3]uint64
}

// Segment is a SegmentDef resolved to absolute token positions.
type Segment struct {
	Type        CurveType
	StartSupply uint64
	EndSupply   uint64
	Params      [3]uint64
}

// Len is the number of tokens covered by the segment.
func (s Segment) Len() uint64 {
	return s.EndSupply - s.StartSupply
}

// ValidateSegments checks that the schedule is non-empty, starts at 0 bps
// and ends at 10000 bps. Every segment must cover at least one basis point
// and touch the next one without a gap or overlap.
func ValidateSegments(defs []SegmentDef) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalidSegments)
	}
	if len(defs) > MaxSegments {
		return fmt.Errorf("%w: %d segments exceeds max %d", ErrInvalidSegments, len(defs), MaxSegments)
	}
	if defs[0].StartBps != 0 {
		return fmt.Errorf("%w: first segment starts at %d bps", ErrInvalidSegments, defs[0].StartBps)
	}
	if last := defs[len(defs)-1]; last.EndBps != BasisPointsDivisor {
		return fmt.Errorf("%w: last segment ends at %d bps", ErrInvalidSegments, last.EndBps)
	}
	for i, d := range defs {
		if d.StartBps >= d.EndBps || d.StartBps >= BasisPointsDivisor || d.EndBps > BasisPointsDivisor {
			return fmt.Errorf("%w: segment %d has range [%d, %d)", ErrInvalidSegments, i, d.StartBps, d.EndBps)
		}
		if i+1 < len(defs) && d.EndBps != defs[i+1].StartBps {
			return fmt.Errorf("%w: segment %d ends at %d but segment %d starts at %d",
				ErrInvalidSegments, i, d.EndBps, i+1, defs[i+1].StartBps)
		}
	}
	return nil
}

// ValidateSegmentParams bounds the pricing parameters so that no segment can
// overflow or divide by zero at trade time.
func ValidateSegmentParams(defs []SegmentDef, maxExponentialFactor uint64) error {
	for i, d := range defs {
		switch d.Type {
		case CurveConstant:
			if d.Params[0] == 0 {
				return fmt.Errorf("%w: segment %d has zero price", ErrInvalidSegmentParams, i)
			}
		case CurveLinear:
			if d.Params[0] == 0 && d.Params[1] == 0 {
				return fmt.Errorf("%w: segment %d has zero slope and intercept", ErrInvalidSegmentParams, i)
			}
		case CurveExponential:
			base, exponent, scale := d.Params[0], d.Params[1], d.Params[2]
			if base == 0 || scale == 0 {
				return fmt.Errorf("%w: segment %d has zero base or scale", ErrInvalidSegmentParams, i)
			}
			if exponent > MaxExponent {
				return fmt.Errorf("%w: segment %d exponent %d exceeds %d", ErrInvalidSegmentParams, i, exponent, MaxExponent)
			}
			factor := exponentialFactor(base, exponent)
			if factor.Cmp(bigU(maxExponentialFactor)) > 0 {
				return fmt.Errorf("%w: segment %d base^exponent exceeds %d", ErrInvalidSegmentParams, i, maxExponentialFactor)
			}
		default:
			return fmt.Errorf("%w: segment %d has unknown type %d", ErrInvalidSegmentParams, i, d.Type)
		}
	}
	return nil
}

// ResolveSegments maps bps boundaries onto the tradable supply, preserving
// order. The schedule must already be valid.
func ResolveSegments(defs []SegmentDef, bondingSupply uint64) ([]Segment, error) {
	segments := make([]Segment, 0, len(defs))
	for _, d := range defs {
		start, err := bpsMul(d.StartBps, bondingSupply)
		if err != nil {
			return nil, err
		}
		end, err := bpsMul(d.EndBps, bondingSupply)
		if err != nil {
			return nil, err
		}
		segments = append(segments, Segment{
			Type:        d.Type,
			StartSupply: start,
			EndSupply:   end,
			Params:      d.Params,
		})
	}
	return segments, nil
}

func exponentialFactor(base, exponent uint64) *big.Int {
	return new(big.Int).Exp(bigU(base), bigU(exponent), nil)
}
