package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/custody"
	"github.com/rovshanmuradov/bondcurve/internal/events"
	"github.com/rovshanmuradov/bondcurve/internal/storage/memory"
	"github.com/rovshanmuradov/bondcurve/internal/utils/metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const rent uint64 = 2_039_280

var genesis = time.Unix(1_700_000_000, 0).UTC()

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	engine   *Engine
	ledger   *custody.Ledger
	store    *memory.Store
	bus      *events.Bus
	registry *prometheus.Registry
	clock    *fakeClock
	creator  solana.PublicKey
	treasury solana.PublicKey
}

func newFixture(t *testing.T, feeBps uint64) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	f := &fixture{
		ledger:   custody.NewLedger(custody.DefaultProgramID, rent, logger),
		store:    memory.New(),
		bus:      events.NewBus(logger, 64),
		registry: prometheus.NewRegistry(),
		clock:    &fakeClock{now: genesis},
		creator:  solana.NewWallet().PublicKey(),
		treasury: solana.NewWallet().PublicKey(),
	}
	t.Cleanup(func() { _ = f.bus.Shutdown(context.Background()) })

	collector, err := metrics.NewCollector(f.registry)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.FeeBasisPoints = feeBps
	opts.FeeRecipient = f.treasury
	opts.Clock = f.clock.Now
	f.engine, err = New(f.ledger, f.store, f.bus, collector, opts, logger)
	require.NoError(t, err)

	require.NoError(t, f.ledger.Fund(f.creator, 10*rent))
	return f
}

func u64(v uint64) *uint64 { return &v }

// halfCurve puts half the supply on the curve and half in the pool.
func halfCurve() curve.AllocationParams {
	zero := u64(0)
	return curve.AllocationParams{
		Creator: zero, Cex: zero, LaunchBrandkit: zero, LifetimeBrandkit: zero,
		Platform: zero, Presale: zero,
		CurveReserve: u64(5000), PoolReserve: u64(5000),
	}
}

// constantCurve is 10000 tokens, 5000 of them tradable at 2 lamports each.
func (f *fixture) constantCurve(threshold uint64) curve.CreateParams {
	return curve.CreateParams{
		Mint:               solana.NewWallet().PublicKey(),
		Creator:            f.creator,
		TokenTotalSupply:   10_000,
		SolLaunchThreshold: threshold,
		Allocation:         halfCurve(),
		Segments: []curve.SegmentDef{
			{Type: curve.CurveConstant, StartBps: 0, EndBps: 10000, Params: [3]uint64{2}},
		},
	}
}

func (f *fixture) create(t *testing.T, p curve.CreateParams) curve.BondingCurveState {
	t.Helper()
	s, err := f.engine.CreateCurve(context.Background(), p)
	require.NoError(t, err)
	return s
}

func (f *fixture) trader(t *testing.T, lamports uint64) solana.PublicKey {
	t.Helper()
	w := solana.NewWallet().PublicKey()
	require.NoError(t, f.ledger.Fund(w, lamports))
	return w
}

func (f *fixture) curveAddr(t *testing.T, mint solana.PublicKey) solana.PublicKey {
	t.Helper()
	addrs, err := f.ledger.Addresses(mint)
	require.NoError(t, err)
	return addrs.Curve
}
