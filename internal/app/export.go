package app

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/export"
)

// ExportTrades waits for pending history writes, then exports the recorded
// trades of mint.
func (r *Runner) ExportTrades(ctx context.Context, mint solana.PublicKey, options export.Options) (string, error) {
	if err := r.bus.Drain(ctx); err != nil {
		return "", fmt.Errorf("drain events: %w", err)
	}
	trades, err := r.history.ListTrades(ctx, mint.String(), 0, 0)
	if err != nil {
		return "", fmt.Errorf("list trades: %w", err)
	}
	return export.NewTradeExporter(r.logger).ExportTrades(trades, options)
}
