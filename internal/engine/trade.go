package engine

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/custody"
	"github.com/rovshanmuradov/bondcurve/internal/events"
	"go.uber.org/zap"
)

// BuyRequest spends SolIn lamports on tokens. The fee is charged on top.
type BuyRequest struct {
	Mint         solana.PublicKey
	Buyer        solana.PublicKey
	SolIn        uint64
	MinTokensOut uint64
}

// SellRequest sells TokenIn tokens. The fee is deducted from the proceeds.
type SellRequest struct {
	Mint      solana.PublicKey
	Seller    solana.PublicKey
	TokenIn   uint64
	MinSolOut uint64
}

// Trade is a committed buy or sell.
type Trade struct {
	ID     string
	Mint   solana.PublicKey
	Trader solana.PublicKey
	IsBuy  bool
	// SolAmount moved between trader and curve reserves, fee excluded.
	SolAmount   uint64
	TokenAmount uint64
	FeeLamports uint64
	// Completed is set when this trade exhausted the curve.
	Completed  bool
	State      curve.BondingCurveState
	ExecutedAt time.Time
}

// Side names the trade direction.
func (t *Trade) Side() string {
	if t.IsBuy {
		return "buy"
	}
	return "sell"
}

// QuoteBuy returns the tokens solIn would buy now.
func (e *Engine) QuoteBuy(mint solana.PublicKey, solIn uint64) (uint64, error) {
	ent, err := e.acquire(mint)
	if err != nil {
		return 0, err
	}
	defer ent.mu.Unlock()

	tokens, err := curve.QuoteBuy(ent.state, solIn)
	if err != nil {
		return 0, err
	}
	e.logger.Debug("Buy quoted", zap.Stringer("mint", mint), zap.Uint64("sol_in", solIn), zap.Uint64("tokens_out", tokens))
	return tokens, nil
}

// QuoteSell returns the lamports selling tokenIn would pay before fees.
func (e *Engine) QuoteSell(mint solana.PublicKey, tokenIn uint64) (uint64, error) {
	ent, err := e.acquire(mint)
	if err != nil {
		return 0, err
	}
	defer ent.mu.Unlock()

	sol, err := curve.QuoteSell(ent.state, tokenIn)
	if err != nil {
		return 0, err
	}
	e.logger.Debug("Sell quoted", zap.Stringer("mint", mint), zap.Uint64("token_in", tokenIn), zap.Uint64("sol_out", sol))
	return sol, nil
}

// QuoteSellFor returns the tokens a seller must give up to receive solOut
// lamports before fees.
func (e *Engine) QuoteSellFor(mint solana.PublicKey, solOut uint64) (uint64, error) {
	ent, err := e.acquire(mint)
	if err != nil {
		return 0, err
	}
	defer ent.mu.Unlock()

	tokens, err := curve.TokensForSell(ent.state, solOut)
	if err != nil {
		return 0, err
	}
	e.logger.Debug("Sell target quoted", zap.Stringer("mint", mint), zap.Uint64("sol_out", solOut), zap.Uint64("token_in", tokens))
	return tokens, nil
}

// Buy executes a buy against the curve.
func (e *Engine) Buy(ctx context.Context, req BuyRequest) (*Trade, error) {
	ent, err := e.acquire(req.Mint)
	if err != nil {
		return nil, e.reject("buy", err)
	}
	defer ent.mu.Unlock()

	now := e.now()
	if !ent.state.IsStarted(now.Unix()) {
		return nil, e.reject("buy", curve.ErrCurveNotStarted)
	}

	next, res, err := curve.ApplyBuy(ent.state, req.SolIn)
	if err != nil {
		return nil, e.reject("buy", err)
	}
	if res.TokenAmount < req.MinTokensOut {
		return nil, e.reject("buy", &SlippageError{Want: req.MinTokensOut, Got: res.TokenAmount})
	}
	fee, err := e.feeFor(res.SolAmount)
	if err != nil {
		return nil, e.reject("buy", err)
	}

	completed := false
	if next.CanComplete() {
		if next, err = next.WithStatus(curve.StatusComplete); err != nil {
			return nil, e.reject("buy", err)
		}
		completed = true
	}

	b := custody.NewBatch().
		TransferLamports(req.Buyer, ent.addrs.Curve, res.SolAmount).
		TransferLamports(req.Buyer, e.opts.FeeRecipient, fee).
		TransferTokens(req.Mint, ent.addrs.Curve, req.Buyer, res.TokenAmount, true)

	trade := &Trade{
		ID:          uuid.New().String(),
		Mint:        req.Mint,
		Trader:      req.Buyer,
		IsBuy:       true,
		SolAmount:   res.SolAmount,
		TokenAmount: res.TokenAmount,
		FeeLamports: fee,
		Completed:   completed,
		ExecutedAt:  now,
	}
	return e.commitTrade(ctx, ent, next, b, trade)
}

// Sell executes a sell against the curve.
func (e *Engine) Sell(ctx context.Context, req SellRequest) (*Trade, error) {
	ent, err := e.acquire(req.Mint)
	if err != nil {
		return nil, e.reject("sell", err)
	}
	defer ent.mu.Unlock()

	now := e.now()
	if !ent.state.IsStarted(now.Unix()) {
		return nil, e.reject("sell", curve.ErrCurveNotStarted)
	}

	next, res, err := curve.ApplySell(ent.state, req.TokenIn)
	if err != nil {
		return nil, e.reject("sell", err)
	}
	fee, err := e.feeFor(res.SolAmount)
	if err != nil {
		return nil, e.reject("sell", err)
	}
	net := res.SolAmount - fee
	if net < req.MinSolOut {
		return nil, e.reject("sell", &SlippageError{Want: req.MinSolOut, Got: net})
	}

	b := custody.NewBatch().
		TransferTokens(req.Mint, req.Seller, ent.addrs.Curve, res.TokenAmount, true).
		TransferLamports(ent.addrs.Curve, req.Seller, net).
		TransferLamports(ent.addrs.Curve, e.opts.FeeRecipient, fee)

	trade := &Trade{
		ID:          uuid.New().String(),
		Mint:        req.Mint,
		Trader:      req.Seller,
		SolAmount:   res.SolAmount,
		TokenAmount: res.TokenAmount,
		FeeLamports: fee,
		ExecutedAt:  now,
	}
	return e.commitTrade(ctx, ent, next, b, trade)
}

// commitTrade settles b in custody, verified against next, then swaps the
// entry's state. ent must be locked.
func (e *Engine) commitTrade(ctx context.Context, ent *entry, next curve.BondingCurveState, b *custody.Batch, trade *Trade) (*Trade, error) {
	op := trade.Side()
	persist := func() error { return e.store.SaveCurve(ctx, next) }
	if err := e.ledger.Transact(next.Mint, b, e.verifyAndPersist(ctx, next, persist)); err != nil {
		return nil, e.reject(op, err)
	}

	prev := ent.state
	ent.state = next
	trade.State = next.Clone()

	if e.metrics != nil {
		e.metrics.RecordTrade(op, next.Strategy.String(), trade.SolAmount, trade.TokenAmount)
		if prev.Status != next.Status {
			e.metrics.MoveCurve(prev.Status.String(), next.Status.String())
		}
	}
	e.logger.Info("Trade committed",
		zap.String("trade_id", trade.ID),
		zap.String("side", op),
		zap.Stringer("mint", trade.Mint),
		zap.Stringer("trader", trade.Trader),
		zap.Uint64("sol_amount", trade.SolAmount),
		zap.Uint64("token_amount", trade.TokenAmount),
		zap.Uint64("fee_lamports", trade.FeeLamports),
		zap.Uint64("real_sol_reserves", next.RealSolReserves),
		zap.Uint64("real_token_reserves", next.RealTokenReserves),
		zap.Uint64("version", next.Version))

	e.publish(&events.TradeExecutedEvent{
		BaseEvent:            events.NewBase(events.TradeExecuted, trade.ExecutedAt),
		TradeID:              trade.ID,
		Mint:                 trade.Mint,
		User:                 trade.Trader,
		IsBuy:                trade.IsBuy,
		SolAmount:            trade.SolAmount,
		TokenAmount:          trade.TokenAmount,
		FeeLamports:          trade.FeeLamports,
		RealSolReserves:      next.RealSolReserves,
		RealTokenReserves:    next.RealTokenReserves,
		VirtualSolReserves:   next.VirtualSolReserves,
		VirtualTokenReserves: next.VirtualTokenReserves.String(),
		CurveVersion:         next.Version,
	})
	if trade.Completed {
		e.logger.Info("Curve complete", zap.Stringer("mint", next.Mint), zap.Uint64("real_sol_reserves", next.RealSolReserves))
		e.publish(&events.CurveCompletedEvent{
			BaseEvent:       events.NewBase(events.CurveCompleted, trade.ExecutedAt),
			Mint:            next.Mint,
			RealSolReserves: next.RealSolReserves,
		})
	}
	return trade, nil
}
