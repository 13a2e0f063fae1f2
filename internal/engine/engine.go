// =================================
// File: internal/engine/engine.go
// =================================
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/custody"
	"github.com/rovshanmuradov/bondcurve/internal/events"
	"github.com/rovshanmuradov/bondcurve/internal/storage"
	"github.com/rovshanmuradov/bondcurve/internal/utils/metrics"
	"go.uber.org/zap"
)

var (
	ErrCurveNotFound = errors.New("curve not found")
	ErrCurveExists   = errors.New("curve already exists")
	ErrUnauthorized  = errors.New("recipient not authorized for distributor")
)

// SlippageError is returned when a trade would deliver less than the caller's
// minimum. It matches curve.ErrPolicy.
type SlippageError struct {
	Want uint64
	Got  uint64
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("slippage exceeded: want at least %d, got %d", e.Want, e.Got)
}

func (e *SlippageError) Unwrap() error {
	return curve.ErrPolicy
}

// Options configure an Engine.
type Options struct {
	FeeBasisPoints uint64
	FeeRecipient   solana.PublicKey
	CreateOptions  curve.CreateOptions
	PersistWorkers int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions charges no fee and uses the default creation options.
func DefaultOptions() Options {
	return Options{
		CreateOptions:  curve.DefaultCreateOptions(),
		PersistWorkers: 4,
	}
}

// entry is one curve and its vesting vaults. mu serializes every operation
// on the curve.
type entry struct {
	mu           sync.Mutex
	live         bool
	addrs        custody.Addresses
	state        curve.BondingCurveState
	distributors map[curve.DistributorKind]curve.Distributor
}

// Engine hosts bonding curves on top of a custody ledger. Operations on one
// curve run one at a time; different curves proceed in parallel.
type Engine struct {
	mu     sync.RWMutex
	curves map[solana.PublicKey]*entry

	ledger  *custody.Ledger
	store   storage.CurveStore
	bus     events.Publisher
	metrics *metrics.Collector
	opts    Options
	logger  *zap.Logger
}

// New creates an engine. bus and collector may be nil.
func New(ledger *custody.Ledger, store storage.CurveStore, bus events.Publisher, collector *metrics.Collector, opts Options, logger *zap.Logger) (*Engine, error) {
	if ledger == nil || store == nil {
		return nil, errors.New("engine requires a ledger and a curve store")
	}
	if opts.FeeBasisPoints > curve.BasisPointsDivisor {
		return nil, fmt.Errorf("fee of %d bps exceeds 100%%", opts.FeeBasisPoints)
	}
	if opts.FeeBasisPoints > 0 && opts.FeeRecipient.IsZero() {
		return nil, errors.New("fee recipient required when fees are charged")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.PersistWorkers <= 0 {
		opts.PersistWorkers = 1
	}
	return &Engine{
		curves:  make(map[solana.PublicKey]*entry),
		ledger:  ledger,
		store:   store,
		bus:     bus,
		metrics: collector,
		opts:    opts,
		logger:  logger.Named("engine"),
	}, nil
}

func (e *Engine) lookup(mint solana.PublicKey) (*entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.curves[mint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCurveNotFound, mint)
	}
	return ent, nil
}

// acquire returns the curve's entry locked. The caller must unlock it.
func (e *Engine) acquire(mint solana.PublicKey) (*entry, error) {
	ent, err := e.lookup(mint)
	if err != nil {
		return nil, err
	}
	ent.mu.Lock()
	if !ent.live {
		ent.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCurveNotFound, mint)
	}
	return ent, nil
}

// State returns a copy of the curve's current state.
func (e *Engine) State(mint solana.PublicKey) (curve.BondingCurveState, error) {
	ent, err := e.acquire(mint)
	if err != nil {
		return curve.BondingCurveState{}, err
	}
	defer ent.mu.Unlock()
	return ent.state.Clone(), nil
}

// Distributors returns the curve's vesting vaults ordered by kind.
func (e *Engine) Distributors(mint solana.PublicKey) ([]curve.Distributor, error) {
	ent, err := e.acquire(mint)
	if err != nil {
		return nil, err
	}
	defer ent.mu.Unlock()
	out := make([]curve.Distributor, 0, len(ent.distributors))
	for _, kind := range curve.DistributorKinds() {
		if d, ok := ent.distributors[kind]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// Curves lists every hosted mint in byte order.
func (e *Engine) Curves() []solana.PublicKey {
	e.mu.RLock()
	defer e.mu.RUnlock()
	mints := make([]solana.PublicKey, 0, len(e.curves))
	for mint := range e.curves {
		mints = append(mints, mint)
	}
	sort.Slice(mints, func(i, j int) bool { return bytes.Compare(mints[i][:], mints[j][:]) < 0 })
	return mints
}

// Ledger exposes the custody layer the engine settles against.
func (e *Engine) Ledger() *custody.Ledger {
	return e.ledger
}

func (e *Engine) now() time.Time {
	return e.opts.Clock()
}

// verifyAndPersist checks the post-operation custody snapshot and writes the
// new state. It runs inside the custody transaction so that a failure in
// either step leaves both custody and the store untouched.
func (e *Engine) verifyAndPersist(ctx context.Context, s curve.BondingCurveState, persist func() error) func(curve.CustodySnapshot) error {
	return func(snap curve.CustodySnapshot) error {
		if err := curve.CheckInvariants(s, snap); err != nil {
			var v *curve.InvariantViolation
			if errors.As(err, &v) {
				e.recordViolation(v)
			}
			e.logger.Error("Invariant check failed, operation aborted",
				zap.Stringer("mint", s.Mint),
				zap.Uint64("version", s.Version),
				zap.Error(err))
			return err
		}
		if persist == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := persist()
		if e.metrics != nil {
			e.metrics.ObservePersist("commit", time.Since(start))
		}
		if err != nil {
			return fmt.Errorf("persist curve %s: %w", s.Mint, err)
		}
		return nil
	}
}

func (e *Engine) publish(ev events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ev); err != nil {
		e.logger.Warn("Event not published", zap.String("event_type", string(ev.Type())), zap.Error(err))
	}
}

func (e *Engine) recordViolation(v *curve.InvariantViolation) {
	if e.metrics != nil {
		e.metrics.RecordInvariantViolation(v.Check)
	}
}

func (e *Engine) reject(op string, err error) error {
	if e.metrics != nil {
		e.metrics.RecordRejection(op, rejectionReason(err))
	}
	e.logger.Warn("Operation rejected", zap.String("op", op), zap.Error(err))
	return err
}

func rejectionReason(err error) string {
	var slip *SlippageError
	switch {
	case errors.As(err, &slip):
		return "slippage"
	case errors.Is(err, curve.ErrInvariant):
		return "invariant"
	case errors.Is(err, curve.ErrValidation):
		return "validation"
	case errors.Is(err, curve.ErrArithmetic):
		return "arithmetic"
	case errors.Is(err, curve.ErrPolicy):
		return "policy"
	case errors.Is(err, custody.ErrInsufficientFunds), errors.Is(err, custody.ErrAccountFrozen):
		return "custody"
	case errors.Is(err, ErrCurveNotFound):
		return "not_found"
	default:
		return "other"
	}
}

// feeFor is the fee charged on amount lamports.
func (e *Engine) feeFor(amount uint64) (uint64, error) {
	if e.opts.FeeBasisPoints == 0 {
		return 0, nil
	}
	return curve.BpsOf(amount, e.opts.FeeBasisPoints)
}
