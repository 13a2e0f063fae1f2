// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/storage/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// CurveStore persists curve and distributor snapshots.
type CurveStore interface {
	SaveCurve(ctx context.Context, s curve.BondingCurveState) error
	LoadCurve(ctx context.Context, mint solana.PublicKey) (curve.BondingCurveState, error)
	ListCurves(ctx context.Context) ([]solana.PublicKey, error)

	SaveDistributor(ctx context.Context, mint solana.PublicKey, d curve.Distributor) error
	LoadDistributors(ctx context.Context, mint solana.PublicKey) ([]curve.Distributor, error)

	Close() error
}

// History records committed trades and vesting claims.
type History interface {
	RecordTrade(ctx context.Context, trade *models.Trade) error
	ListTrades(ctx context.Context, mint string, limit, offset int) ([]*models.Trade, error)
	RecordClaim(ctx context.Context, claim *models.Claim) error
}
