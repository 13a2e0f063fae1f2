package engine

import (
	"context"

	"github.com/rovshanmuradov/bondcurve/internal/events"
	"github.com/rovshanmuradov/bondcurve/internal/storage"
	"github.com/rovshanmuradov/bondcurve/internal/storage/models"
	"go.uber.org/zap"
)

// Subscriber is the part of the event bus the history recorder needs.
type Subscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler) events.Subscription
}

// RecordHistory writes committed trades and claims to h as they are
// published. The returned subscriptions stop the recording.
func RecordHistory(bus Subscriber, h storage.History, logger *zap.Logger) []events.Subscription {
	logger = logger.Named("history")

	onTrade := func(ctx context.Context, te *events.TradeExecutedEvent) error {
		side := models.SideSell
		if te.IsBuy {
			side = models.SideBuy
		}
		err := h.RecordTrade(ctx, &models.Trade{
			TradeID:           te.TradeID,
			Mint:              te.Mint.String(),
			Trader:            te.User.String(),
			Side:              side,
			SolAmount:         te.SolAmount,
			TokenAmount:       te.TokenAmount,
			FeeLamports:       te.FeeLamports,
			RealSolReserves:   te.RealSolReserves,
			RealTokenReserves: te.RealTokenReserves,
			CurveVersion:      te.CurveVersion,
			ExecutedAt:        te.Timestamp().UTC(),
		})
		if err != nil {
			logger.Error("Failed to record trade", zap.String("trade_id", te.TradeID), zap.Error(err))
		}
		return err
	}

	onClaim := func(ctx context.Context, ce *events.VestingClaimedEvent) error {
		err := h.RecordClaim(ctx, &models.Claim{
			Mint:        ce.Mint.String(),
			Distributor: ce.Distributor,
			Recipient:   ce.Recipient.String(),
			Amount:      ce.Amount,
			ClaimedAt:   ce.Timestamp().UTC(),
		})
		if err != nil {
			logger.Error("Failed to record claim", zap.Stringer("mint", ce.Mint), zap.Error(err))
		}
		return err
	}

	return []events.Subscription{
		bus.Subscribe(events.TradeExecuted, events.On(onTrade)),
		bus.Subscribe(events.VestingClaimed, events.On(onClaim)),
	}
}
