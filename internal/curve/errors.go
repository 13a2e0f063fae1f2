// =============================
// File: internal/curve/errors.go
// =============================
package curve

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package matches exactly one
// of them through errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrArithmetic = errors.New("arithmetic failure")
	ErrPolicy     = errors.New("policy rejection")
	ErrInvariant  = errors.New("bonding curve invariant violated")
)

// kindError is a specific error that also reports its category.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Creation-time validation failures.
var (
	ErrInvalidAllocation    = newKindError(ErrValidation, "invalid allocation")
	ErrInvalidSegments      = newKindError(ErrValidation, "invalid curve segments")
	ErrInvalidSegmentParams = newKindError(ErrValidation, "invalid curve segment parameters")
	ErrInvalidStartTime     = newKindError(ErrValidation, "start time is in the past")
	ErrThresholdTooHigh     = newKindError(ErrValidation, "sol launch threshold exceeds max attainable sol")
	ErrNoMaxAttainableSOL   = newKindError(ErrValidation, "max attainable sol cannot be computed")
	ErrInvalidStrategy      = newKindError(ErrValidation, "unknown pricing strategy")
	ErrInvalidVestingTerms  = newKindError(ErrValidation, "invalid vesting terms")
	ErrInvalidVirtualParams = newKindError(ErrValidation, "invalid virtual reserve parameters")
	ErrInvalidStatus        = newKindError(ErrValidation, "invalid status transition")
)

// Arithmetic failures.
var (
	ErrOverflow       = newKindError(ErrArithmetic, "arithmetic overflow")
	ErrUnderflow      = newKindError(ErrArithmetic, "arithmetic underflow")
	ErrDivisionByZero = newKindError(ErrArithmetic, "division by zero")
)

// Policy rejections.
var (
	ErrZeroAmount           = newKindError(ErrPolicy, "amount must be greater than zero")
	ErrInsufficientReserves = newKindError(ErrPolicy, "trade exceeds available reserves")
	ErrSupplyExceeded       = newKindError(ErrPolicy, "sell exceeds bonding curve supply")
	ErrDustTrade            = newKindError(ErrPolicy, "trade too small to receive any output")
	ErrCurveNotTradable     = newKindError(ErrPolicy, "bonding curve is not tradable in its current status")
	ErrCurveNotStarted      = newKindError(ErrPolicy, "bonding curve has not started")
	ErrCliffNotReached      = newKindError(ErrPolicy, "vesting cliff not reached")
	ErrClaimTooSoon         = newKindError(ErrPolicy, "vesting period not over since last claim")
	ErrNothingToClaim       = newKindError(ErrPolicy, "nothing to claim")
)

// InvariantViolation reports a mismatch between curve counters and the
// balances observed in custody. It is fatal for the enclosing operation.
type InvariantViolation struct {
	Check string
	Want  uint64
	Got   uint64
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant failed: %s (want %d, got %d)", e.Check, e.Want, e.Got)
}

func (e *InvariantViolation) Unwrap() error {
	return ErrInvariant
}
