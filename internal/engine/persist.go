package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Flush writes a snapshot of every curve and its vaults to the store, using
// up to PersistWorkers writers.
func (e *Engine) Flush(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.PersistWorkers)

	for _, mint := range e.Curves() {
		mint := mint
		g.Go(func() error {
			ent, err := e.acquire(mint)
			if err != nil {
				return nil
			}
			// Held through the writes so a snapshot never lands after a
			// newer commit of the same curve.
			defer ent.mu.Unlock()

			if err := e.store.SaveCurve(gctx, ent.state); err != nil {
				return fmt.Errorf("flush curve %s: %w", mint, err)
			}
			for _, d := range ent.distributors {
				if err := e.store.SaveDistributor(gctx, mint, d); err != nil {
					return fmt.Errorf("flush %s distributor of %s: %w", d.Kind, mint, err)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if e.metrics != nil {
		e.metrics.ObservePersist("flush", time.Since(start))
	}
	return err
}

// Restore loads every stored curve that the engine does not already host.
// A curve is admitted only when its snapshot agrees with custody; the
// rejected ones are reported together in the returned error.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	mints, err := e.store.ListCurves(ctx)
	if err != nil {
		return 0, fmt.Errorf("list curves: %w", err)
	}

	var (
		mu       sync.Mutex
		loaded   []*entry
		rejected []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.PersistWorkers)

	for _, mint := range mints {
		mint := mint
		if _, err := e.lookup(mint); err == nil {
			continue
		}
		g.Go(func() error {
			ent, err := e.load(gctx, mint)
			if err != nil {
				if errors.Is(err, curve.ErrInvariant) {
					mu.Lock()
					rejected = append(rejected, fmt.Errorf("curve %s: %w", mint, err))
					mu.Unlock()
					return nil
				}
				return err
			}
			mu.Lock()
			loaded = append(loaded, ent)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	e.mu.Lock()
	count := 0
	for _, ent := range loaded {
		if _, exists := e.curves[ent.state.Mint]; exists {
			continue
		}
		e.curves[ent.state.Mint] = ent
		count++
		if e.metrics != nil {
			e.metrics.MoveCurve("", ent.state.Status.String())
		}
	}
	e.mu.Unlock()

	e.logger.Info("Curves restored", zap.Int("restored", count), zap.Int("rejected", len(rejected)))
	return count, errors.Join(rejected...)
}

func (e *Engine) load(ctx context.Context, mint solana.PublicKey) (*entry, error) {
	state, err := e.store.LoadCurve(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("load curve %s: %w", mint, err)
	}
	dists, err := e.store.LoadDistributors(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("load distributors of %s: %w", mint, err)
	}
	addrs, err := e.ledger.Addresses(mint)
	if err != nil {
		return nil, err
	}
	snap, err := e.ledger.Snapshot(mint)
	if err != nil {
		return nil, err
	}
	if err := curve.CheckInvariants(state, snap); err != nil {
		var v *curve.InvariantViolation
		if errors.As(err, &v) {
			e.recordViolation(v)
		}
		return nil, err
	}

	ent := &entry{
		live:         true,
		addrs:        addrs,
		state:        state,
		distributors: make(map[curve.DistributorKind]curve.Distributor, len(dists)),
	}
	for _, d := range dists {
		ent.distributors[d.Kind] = d
	}
	return ent, nil
}
