package engine

import (
	"context"
	"fmt"

	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/custody"
	"github.com/rovshanmuradov/bondcurve/internal/events"
	"go.uber.org/zap"
)

// CreateCurve validates p, mints the whole supply into custody, freezes the
// curve's token account and activates the curve. The creator pays the curve
// account's rent. Nothing is minted or stored when any step fails.
func (e *Engine) CreateCurve(ctx context.Context, p curve.CreateParams) (curve.BondingCurveState, error) {
	now := e.now()
	state, err := curve.CreateCurve(p, now.Unix(), e.opts.CreateOptions)
	if err != nil {
		return curve.BondingCurveState{}, e.reject("create", err)
	}

	addrs, err := e.ledger.Addresses(state.Mint)
	if err != nil {
		return curve.BondingCurveState{}, err
	}

	ent := &entry{addrs: addrs, distributors: make(map[curve.DistributorKind]curve.Distributor)}
	ent.mu.Lock()
	defer ent.mu.Unlock()

	e.mu.Lock()
	if _, exists := e.curves[state.Mint]; exists {
		e.mu.Unlock()
		return curve.BondingCurveState{}, e.reject("create", fmt.Errorf("%w: %s", ErrCurveExists, state.Mint))
	}
	// Reserve the slot; concurrent lookups block on ent.mu until creation
	// settles.
	e.curves[state.Mint] = ent
	e.mu.Unlock()

	active, dists, err := e.activate(ctx, state, addrs)
	if err != nil {
		e.mu.Lock()
		delete(e.curves, state.Mint)
		e.mu.Unlock()
		return curve.BondingCurveState{}, e.reject("create", err)
	}

	ent.state = active
	ent.live = true
	for _, d := range dists {
		ent.distributors[d.Kind] = d
	}

	if e.metrics != nil {
		e.metrics.MoveCurve("", active.Status.String())
	}
	e.logger.Info("Curve created",
		zap.Stringer("mint", active.Mint),
		zap.Stringer("strategy", active.Strategy),
		zap.Uint64("bonding_supply", active.Supply.Bonding),
		zap.Uint64("sol_launch_threshold", active.SolLaunchThreshold),
		zap.Int64("start_time", active.StartTime))

	e.publish(&events.CurveCreatedEvent{
		BaseEvent:          events.NewBase(events.CurveCreated, now),
		Mint:               active.Mint,
		Creator:            active.Creator,
		Strategy:           active.Strategy.String(),
		BondingSupply:      active.Supply.Bonding,
		SolLaunchThreshold: active.SolLaunchThreshold,
		StartTime:          active.StartTime,
	})
	return active.Clone(), nil
}

// activate walks Inactive -> Prepared -> Active while settling the mint in
// custody.
func (e *Engine) activate(ctx context.Context, state curve.BondingCurveState, addrs custody.Addresses) (curve.BondingCurveState, []curve.Distributor, error) {
	prepared, err := state.WithStatus(curve.StatusPrepared)
	if err != nil {
		return curve.BondingCurveState{}, nil, err
	}
	active, err := prepared.WithStatus(curve.StatusActive)
	if err != nil {
		return curve.BondingCurveState{}, nil, err
	}

	dists := make([]curve.Distributor, 0, len(curve.DistributorKinds()))
	for _, kind := range curve.DistributorKinds() {
		d, err := curve.NewDistributor(kind, active)
		if err != nil {
			return curve.BondingCurveState{}, nil, err
		}
		dists = append(dists, d)
	}

	mint := active.Mint
	supply := active.Supply
	b := custody.NewBatch().
		TransferLamports(active.Creator, addrs.Curve, e.ledger.RentExemptMinimum()).
		MintTo(mint, addrs.Curve, supply.Bonding).
		MintTo(mint, addrs.PoolReserve, supply.Pool).
		MintTo(mint, active.CexAuthority, supply.Cex)
	for _, d := range dists {
		vault, err := addrs.Vault(d.Kind)
		if err != nil {
			return curve.BondingCurveState{}, nil, err
		}
		b.MintTo(mint, vault, d.InitialVestedSupply)
	}
	b.SetFrozen(mint, addrs.Curve, true)

	persist := func() error {
		if err := e.store.SaveCurve(ctx, active); err != nil {
			return err
		}
		for _, d := range dists {
			if err := e.store.SaveDistributor(ctx, mint, d); err != nil {
				return err
			}
		}
		return nil
	}
	if err := e.ledger.Transact(mint, b, e.verifyAndPersist(ctx, active, persist)); err != nil {
		return curve.BondingCurveState{}, nil, err
	}
	return active, dists, nil
}
