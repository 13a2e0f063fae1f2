// ===============================
// File: internal/curve/strategy.go
// ===============================
package curve

import (
	"fmt"
	"strings"
)

// StrategyKind identifies the pricing strategy of a curve. It is chosen at
// creation and never changes.
type StrategyKind uint8

const (
	StrategySegmented StrategyKind = iota
	StrategyConstantProduct
)

func (k StrategyKind) String() string {
	switch k {
	case StrategySegmented:
		return "segmented"
	case StrategyConstantProduct:
		return "constant_product"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(k))
	}
}

// ParseStrategyKind maps a textual name onto a StrategyKind. An empty name
// selects the segmented strategy.
func ParseStrategyKind(s string) (StrategyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "segmented":
		return StrategySegmented, nil
	case "constant_product", "amm":
		return StrategyConstantProduct, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
}

// PricingStrategy prices and applies trades for one family of curves.
// Implementations are stateless; all state travels in BondingCurveState.
type PricingStrategy interface {
	Kind() StrategyKind
	// Init fills the strategy specific fields of a freshly created state.
	Init(s *BondingCurveState, p CreateParams, opts CreateOptions) error
	// MaxAttainableSOL is the SOL the curve holds once every token is bought.
	MaxAttainableSOL(s BondingCurveState) (uint64, error)
	// BuyPrice is the SOL cost of buying exactly tokens.
	BuyPrice(s BondingCurveState, tokens uint64) (uint64, error)
	QuoteBuy(s BondingCurveState, solIn uint64) (uint64, error)
	QuoteSell(s BondingCurveState, tokenIn uint64) (uint64, error)
	// TokensForSell is the smallest sell whose payout reaches solOut.
	TokensForSell(s BondingCurveState, solOut uint64) (uint64, error)
	ApplyBuy(s BondingCurveState, solIn uint64) (BondingCurveState, BuyResult, error)
	ApplySell(s BondingCurveState, tokenIn uint64) (BondingCurveState, SellResult, error)
}

var strategies = map[StrategyKind]PricingStrategy{
	StrategySegmented:       segmentedStrategy{},
	StrategyConstantProduct: constantProductStrategy{},
}

// StrategyFor returns the implementation of kind.
func StrategyFor(kind StrategyKind) (PricingStrategy, error) {
	st, ok := strategies[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStrategy, kind)
	}
	return st, nil
}

// QuoteBuy returns the tokens solIn would buy, without changing s.
func QuoteBuy(s BondingCurveState, solIn uint64) (uint64, error) {
	st, err := tradableStrategy(s)
	if err != nil {
		return 0, err
	}
	return st.QuoteBuy(s, solIn)
}

// QuoteSell returns the SOL selling tokenIn would pay out, without changing s.
func QuoteSell(s BondingCurveState, tokenIn uint64) (uint64, error) {
	st, err := tradableStrategy(s)
	if err != nil {
		return 0, err
	}
	return st.QuoteSell(s, tokenIn)
}

// TokensForSell returns how many tokens must be sold to receive at least
// solOut, without changing s.
func TokensForSell(s BondingCurveState, solOut uint64) (uint64, error) {
	st, err := tradableStrategy(s)
	if err != nil {
		return 0, err
	}
	return st.TokensForSell(s, solOut)
}

// ApplyBuy returns the state after buying with solIn. On error s is the only
// valid state; nothing is partially applied.
func ApplyBuy(s BondingCurveState, solIn uint64) (BondingCurveState, BuyResult, error) {
	st, err := tradableStrategy(s)
	if err != nil {
		return BondingCurveState{}, BuyResult{}, err
	}
	return st.ApplyBuy(s, solIn)
}

// ApplySell returns the state after selling tokenIn.
func ApplySell(s BondingCurveState, tokenIn uint64) (BondingCurveState, SellResult, error) {
	st, err := tradableStrategy(s)
	if err != nil {
		return BondingCurveState{}, SellResult{}, err
	}
	return st.ApplySell(s, tokenIn)
}

// MaxAttainableSOL dispatches to the curve's strategy.
func MaxAttainableSOL(s BondingCurveState) (uint64, error) {
	st, err := StrategyFor(s.Strategy)
	if err != nil {
		return 0, err
	}
	return st.MaxAttainableSOL(s)
}

// BuyPrice dispatches to the curve's strategy.
func BuyPrice(s BondingCurveState, tokens uint64) (uint64, error) {
	st, err := StrategyFor(s.Strategy)
	if err != nil {
		return 0, err
	}
	return st.BuyPrice(s, tokens)
}

func tradableStrategy(s BondingCurveState) (PricingStrategy, error) {
	if !s.Status.Tradable() {
		return nil, fmt.Errorf("%w: %s", ErrCurveNotTradable, s.Status)
	}
	return StrategyFor(s.Strategy)
}

// checkSellSupply rejects sells that would credit the curve with more tokens
// than were ever allocated to it.
func checkSellSupply(s BondingCurveState, tokenIn uint64) error {
	if tokenIn == 0 {
		return ErrZeroAmount
	}
	after, err := checkedAdd(s.RealTokenReserves, tokenIn)
	if err != nil {
		return err
	}
	if after > s.Supply.Bonding {
		return fmt.Errorf("%w: reserves would reach %d of %d", ErrSupplyExceeded, after, s.Supply.Bonding)
	}
	return nil
}

// checkSellTarget rejects payouts the curve cannot cover. Sell proceeds are
// capped at the real SOL reserves, so no quantity of tokens reaches more.
func checkSellTarget(s BondingCurveState, solOut uint64) error {
	if solOut == 0 {
		return ErrZeroAmount
	}
	if solOut > s.RealSolReserves {
		return fmt.Errorf("%w: want %d lamports, curve holds %d", ErrInsufficientReserves, solOut, s.RealSolReserves)
	}
	return nil
}

func applyReserves(s BondingCurveState, tokenDelta uint64, solDelta uint64, dir Direction) (BondingCurveState, error) {
	out := s.Clone()
	var err error
	if dir == Buy {
		if out.RealTokenReserves, err = checkedSub(s.RealTokenReserves, tokenDelta); err != nil {
			return BondingCurveState{}, err
		}
		if out.RealSolReserves, err = checkedAdd(s.RealSolReserves, solDelta); err != nil {
			return BondingCurveState{}, err
		}
	} else {
		if out.RealTokenReserves, err = checkedAdd(s.RealTokenReserves, tokenDelta); err != nil {
			return BondingCurveState{}, err
		}
		if out.RealSolReserves, err = checkedSub(s.RealSolReserves, solDelta); err != nil {
			return BondingCurveState{}, err
		}
	}
	out.Version++
	return out, nil
}
