// =====================================
// File: internal/storage/pebble/store.go
// =====================================
package pebble

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/storage"
	"go.uber.org/zap"
)

var ErrDBClosed = errors.New("database is closed")

const (
	curvePrefix       = "curve/"
	distributorPrefix = "dist/"

	defaultCacheSize = 256
)

// Store keeps encoded curve snapshots in pebble, with decoded states of
// recently used curves held in an LRU cache.
type Store struct {
	db     *pebble.DB
	cache  *lru.Cache[solana.PublicKey, curve.BondingCurveState]
	logger *zap.Logger
}

var _ storage.CurveStore = (*Store)(nil)

// Open opens or creates a store at path.
func Open(path string, cacheSize int, logger *zap.Logger) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[solana.PublicKey, curve.BondingCurveState](cacheSize)
	if err != nil {
		return nil, err
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}

	logger = logger.Named("pebble")
	logger.Info("Curve store opened", zap.String("path", path), zap.Int("cache_size", cacheSize))
	return &Store{db: db, cache: cache, logger: logger}, nil
}

func curveKey(mint solana.PublicKey) []byte {
	return []byte(curvePrefix + mint.String())
}

func distributorKey(mint solana.PublicKey, kind curve.DistributorKind) []byte {
	return []byte(fmt.Sprintf("%s%s/%d", distributorPrefix, mint, kind))
}

// prefixBounds returns [prefix, prefix with its last byte incremented).
func prefixBounds(prefix string) ([]byte, []byte) {
	lower := []byte(prefix)
	upper := append([]byte(nil), lower...)
	upper[len(upper)-1]++
	return lower, upper
}

func (s *Store) SaveCurve(_ context.Context, state curve.BondingCurveState) error {
	if s.db == nil {
		return ErrDBClosed
	}
	data, err := curve.EncodeState(state)
	if err != nil {
		return err
	}
	if err := s.db.Set(curveKey(state.Mint), data, pebble.Sync); err != nil {
		return fmt.Errorf("save curve %s: %w", state.Mint, err)
	}
	s.cache.Add(state.Mint, state.Clone())
	return nil
}

func (s *Store) LoadCurve(_ context.Context, mint solana.PublicKey) (curve.BondingCurveState, error) {
	if s.db == nil {
		return curve.BondingCurveState{}, ErrDBClosed
	}
	if cached, ok := s.cache.Get(mint); ok {
		return cached.Clone(), nil
	}

	val, closer, err := s.db.Get(curveKey(mint))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return curve.BondingCurveState{}, fmt.Errorf("curve %s: %w", mint, storage.ErrNotFound)
		}
		return curve.BondingCurveState{}, err
	}
	defer closer.Close()

	state, err := curve.DecodeState(val)
	if err != nil {
		return curve.BondingCurveState{}, err
	}
	s.cache.Add(mint, state.Clone())
	return state, nil
}

func (s *Store) ListCurves(_ context.Context) ([]solana.PublicKey, error) {
	if s.db == nil {
		return nil, ErrDBClosed
	}
	lower, upper := prefixBounds(curvePrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var mints []solana.PublicKey
	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key()[len(curvePrefix):])
		mint, err := solana.PublicKeyFromBase58(key)
		if err != nil {
			s.logger.Warn("Skipping malformed curve key", zap.String("key", key), zap.Error(err))
			continue
		}
		mints = append(mints, mint)
	}
	return mints, iter.Error()
}

func (s *Store) SaveDistributor(_ context.Context, mint solana.PublicKey, d curve.Distributor) error {
	if s.db == nil {
		return ErrDBClosed
	}
	data, err := curve.EncodeDistributor(d)
	if err != nil {
		return err
	}
	return s.db.Set(distributorKey(mint, d.Kind), data, pebble.Sync)
}

func (s *Store) LoadDistributors(_ context.Context, mint solana.PublicKey) ([]curve.Distributor, error) {
	if s.db == nil {
		return nil, ErrDBClosed
	}
	lower, upper := prefixBounds(distributorPrefix + mint.String() + "/")
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []curve.Distributor
	for iter.First(); iter.Valid(); iter.Next() {
		d, err := curve.DecodeDistributor(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("distributor %s: %w", iter.Key(), err)
		}
		out = append(out, d)
	}
	return out, iter.Error()
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return ErrDBClosed
	}
	err := s.db.Close()
	s.db = nil
	s.cache.Purge()
	return err
}
