// Package memory keeps curve snapshots and history in process memory. Curves
// are held in their encoded form so a restore goes through the same codec as
// the durable stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/storage"
	"github.com/rovshanmuradov/bondcurve/internal/storage/models"
)

// Store implements storage.CurveStore and storage.History.
type Store struct {
	mu           sync.RWMutex
	curves       map[solana.PublicKey][]byte
	distributors map[solana.PublicKey]map[curve.DistributorKind][]byte
	trades       []*models.Trade
	claims       []*models.Claim
}

var (
	_ storage.CurveStore = (*Store)(nil)
	_ storage.History    = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		curves:       make(map[solana.PublicKey][]byte),
		distributors: make(map[solana.PublicKey]map[curve.DistributorKind][]byte),
	}
}

func (s *Store) SaveCurve(_ context.Context, state curve.BondingCurveState) error {
	data, err := curve.EncodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.curves[state.Mint] = data
	return nil
}

func (s *Store) LoadCurve(_ context.Context, mint solana.PublicKey) (curve.BondingCurveState, error) {
	s.mu.RLock()
	data, ok := s.curves[mint]
	s.mu.RUnlock()
	if !ok {
		return curve.BondingCurveState{}, fmt.Errorf("curve %s: %w", mint, storage.ErrNotFound)
	}
	return curve.DecodeState(data)
}

func (s *Store) ListCurves(_ context.Context) ([]solana.PublicKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mints := make([]solana.PublicKey, 0, len(s.curves))
	for mint := range s.curves {
		mints = append(mints, mint)
	}
	sort.Slice(mints, func(i, j int) bool { return mints[i].String() < mints[j].String() })
	return mints, nil
}

func (s *Store) SaveDistributor(_ context.Context, mint solana.PublicKey, d curve.Distributor) error {
	data, err := curve.EncodeDistributor(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.distributors[mint] == nil {
		s.distributors[mint] = make(map[curve.DistributorKind][]byte)
	}
	s.distributors[mint][d.Kind] = data
	return nil
}

func (s *Store) LoadDistributors(_ context.Context, mint solana.PublicKey) ([]curve.Distributor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]curve.Distributor, 0, len(s.distributors[mint]))
	for _, kind := range curve.DistributorKinds() {
		data, ok := s.distributors[mint][kind]
		if !ok {
			continue
		}
		d, err := curve.DecodeDistributor(data)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) RecordTrade(_ context.Context, trade *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *trade
	cp.ID = uint(len(s.trades) + 1)
	s.trades = append(s.trades, &cp)
	return nil
}

// ListTrades returns the newest trades of mint first.
func (s *Store) ListTrades(_ context.Context, mint string, limit, offset int) ([]*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Trade
	for i := len(s.trades) - 1; i >= 0; i-- {
		if s.trades[i].Mint != mint {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		cp := *s.trades[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) RecordClaim(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *claim
	cp.ID = uint(len(s.claims) + 1)
	s.claims = append(s.claims, &cp)
	return nil
}

// Claims returns every recorded claim.
func (s *Store) Claims() []*models.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Claim(nil), s.claims...)
}

func (s *Store) Close() error { return nil }
