package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentTradesKeepCustodyInStep(t *testing.T) {
	const workers = 40
	f := newFixture(t, 0)
	ctx := context.Background()
	s := f.create(t, f.constantCurve(0))
	curveAddr := f.curveAddr(t, s.Mint)

	var (
		wg      sync.WaitGroup
		commits atomic.Uint64
		errs    = make(chan error, workers*3)
	)
	for i := 0; i < workers; i++ {
		trader := f.trader(t, 1_000)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.Buy(ctx, BuyRequest{Mint: s.Mint, Buyer: trader, SolIn: 200}); err != nil {
				errs <- err
				return
			}
			commits.Add(1)
			if err := f.engine.Flush(ctx); err != nil {
				errs <- err
			}
			if _, err := f.engine.Sell(ctx, SellRequest{Mint: s.Mint, Seller: trader, TokenIn: 50}); err != nil {
				errs <- err
				return
			}
			commits.Add(1)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	state, err := f.engine.State(s.Mint)
	require.NoError(t, err)
	assert.Equal(t, f.ledger.TokenBalance(s.Mint, curveAddr), state.RealTokenReserves)
	assert.Equal(t, f.ledger.Lamports(curveAddr)-rent, state.RealSolReserves)
	assert.Equal(t, 2+commits.Load(), state.Version)

	assert.Equal(t, uint64(5_000-workers*50), state.RealTokenReserves)
	assert.Equal(t, uint64(workers*100), state.RealSolReserves)

	// Flushes racing the trades must not leave an older snapshot behind.
	stored, err := f.store.LoadCurve(ctx, s.Mint)
	require.NoError(t, err)
	assert.Equal(t, state, stored)
}
