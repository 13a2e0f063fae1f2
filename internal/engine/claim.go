package engine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/custody"
	"github.com/rovshanmuradov/bondcurve/internal/events"
	"go.uber.org/zap"
)

// ClaimRequest releases vested tokens of one vault to Recipient.
type ClaimRequest struct {
	Mint      solana.PublicKey
	Kind      curve.DistributorKind
	Recipient solana.PublicKey
}

// authorize checks that recipient may receive kind's tokens. Creator and
// brand vaults pay only their authority; platform and presale vaults are
// paid to whoever the host names.
func authorize(s curve.BondingCurveState, kind curve.DistributorKind, recipient solana.PublicKey) error {
	var want solana.PublicKey
	switch kind {
	case curve.DistributorCreator:
		want = s.Creator
	case curve.DistributorBrand:
		want = s.BrandAuthority
	default:
		return nil
	}
	if !want.IsZero() && !want.Equals(recipient) {
		return fmt.Errorf("%w: %s vault pays %s", ErrUnauthorized, kind, want)
	}
	return nil
}

// Claim moves whatever kind's vault has vested since its last claim to the
// recipient and returns the amount.
func (e *Engine) Claim(ctx context.Context, req ClaimRequest) (uint64, error) {
	ent, err := e.acquire(req.Mint)
	if err != nil {
		return 0, e.reject("claim", err)
	}
	defer ent.mu.Unlock()

	if err := authorize(ent.state, req.Kind, req.Recipient); err != nil {
		return 0, e.reject("claim", err)
	}
	d, ok := ent.distributors[req.Kind]
	if !ok {
		return 0, e.reject("claim", fmt.Errorf("%w: no %s distributor", curve.ErrNothingToClaim, req.Kind))
	}

	now := e.now()
	next, amount, err := curve.ClaimVested(d, ent.state, now.Unix())
	if err != nil {
		return 0, e.reject("claim", err)
	}

	vault, err := ent.addrs.Vault(req.Kind)
	if err != nil {
		return 0, err
	}
	b := custody.NewBatch().TransferTokens(req.Mint, vault, req.Recipient, amount, true)

	// The curve itself is untouched; the check still guards against a
	// tampered curve account.
	persist := func() error { return e.store.SaveDistributor(ctx, req.Mint, next) }
	if err := e.ledger.Transact(req.Mint, b, e.verifyAndPersist(ctx, ent.state, persist)); err != nil {
		return 0, e.reject("claim", err)
	}
	ent.distributors[req.Kind] = next

	if e.metrics != nil {
		e.metrics.RecordClaim(req.Kind.String(), amount)
	}
	e.logger.Info("Vested tokens claimed",
		zap.Stringer("mint", req.Mint),
		zap.Stringer("distributor", req.Kind),
		zap.Stringer("recipient", req.Recipient),
		zap.Uint64("amount", amount),
		zap.Uint64("remaining", next.Remaining()))

	e.publish(&events.VestingClaimedEvent{
		BaseEvent:   events.NewBase(events.VestingClaimed, now),
		Mint:        req.Mint,
		Distributor: req.Kind.String(),
		Recipient:   req.Recipient,
		Amount:      amount,
	})
	return amount, nil
}

// Launch hands a complete curve over to liquidity migration: the curve
// becomes Launched and its token account is thawed.
func (e *Engine) Launch(ctx context.Context, mint solana.PublicKey) (curve.BondingCurveState, error) {
	ent, err := e.acquire(mint)
	if err != nil {
		return curve.BondingCurveState{}, e.reject("launch", err)
	}
	defer ent.mu.Unlock()

	next, err := ent.state.WithStatus(curve.StatusLaunched)
	if err != nil {
		return curve.BondingCurveState{}, e.reject("launch", err)
	}

	b := custody.NewBatch().SetFrozen(mint, ent.addrs.Curve, false)
	persist := func() error { return e.store.SaveCurve(ctx, next) }
	if err := e.ledger.Transact(mint, b, e.verifyAndPersist(ctx, next, persist)); err != nil {
		return curve.BondingCurveState{}, e.reject("launch", err)
	}

	prev := ent.state
	ent.state = next
	if e.metrics != nil {
		e.metrics.MoveCurve(prev.Status.String(), next.Status.String())
	}
	now := e.now()
	e.logger.Info("Curve launched", zap.Stringer("mint", mint), zap.Uint64("real_sol_reserves", next.RealSolReserves))
	e.publish(&events.CurveLaunchedEvent{
		BaseEvent: events.NewBase(events.CurveLaunched, now),
		Mint:      mint,
	})
	return next.Clone(), nil
}
