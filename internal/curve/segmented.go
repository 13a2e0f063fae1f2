package curve

import "fmt"

// segmentedStrategy prices trades along the piecewise segment table, using
// the real token reserves as the curve position.
type segmentedStrategy struct{}

func (segmentedStrategy) Kind() StrategyKind { return StrategySegmented }

func (segmentedStrategy) Init(s *BondingCurveState, p CreateParams, opts CreateOptions) error {
	if err := ValidateSegments(p.Segments); err != nil {
		return err
	}
	if err := ValidateSegmentParams(p.Segments, opts.MaxExponentialFactor); err != nil {
		return err
	}
	segments, err := ResolveSegments(p.Segments, s.Supply.Bonding)
	if err != nil {
		return fmt.Errorf("resolve segments: %w", err)
	}
	s.Segments = segments
	return nil
}

func (st segmentedStrategy) MaxAttainableSOL(s BondingCurveState) (uint64, error) {
	if s.RealTokenReserves == 0 {
		return s.RealSolReserves, nil
	}
	price, err := st.BuyPrice(s, s.RealTokenReserves)
	if err != nil {
		return 0, err
	}
	return checkedAdd(s.RealSolReserves, price)
}

func (segmentedStrategy) BuyPrice(s BondingCurveState, tokens uint64) (uint64, error) {
	return PriceForTokens(s.Segments, s.RealTokenReserves, tokens, Buy)
}

func (segmentedStrategy) QuoteBuy(s BondingCurveState, solIn uint64) (uint64, error) {
	tokens, err := TokensForSOL(s.Segments, s.RealTokenReserves, solIn, Buy)
	if err != nil {
		return 0, err
	}
	if tokens > s.RealTokenReserves {
		return 0, ErrInsufficientReserves
	}
	return tokens, nil
}

// QuoteSell never pays out more than the curve holds; the difference between
// the curve price and real reserves stays with the curve.
func (segmentedStrategy) QuoteSell(s BondingCurveState, tokenIn uint64) (uint64, error) {
	if err := checkSellSupply(s, tokenIn); err != nil {
		return 0, err
	}
	price, err := PriceForTokens(s.Segments, s.RealTokenReserves, tokenIn, Sell)
	if err != nil {
		return 0, err
	}
	return min(price, s.RealSolReserves), nil
}

func (segmentedStrategy) TokensForSell(s BondingCurveState, solOut uint64) (uint64, error) {
	if err := checkSellTarget(s, solOut); err != nil {
		return 0, err
	}
	tokens, err := TokensForSOL(s.Segments, s.RealTokenReserves, solOut, Sell)
	if err != nil {
		return 0, err
	}
	if err := checkSellSupply(s, tokens); err != nil {
		return 0, err
	}
	return tokens, nil
}

func (st segmentedStrategy) ApplyBuy(s BondingCurveState, solIn uint64) (BondingCurveState, BuyResult, error) {
	tokens, err := st.QuoteBuy(s, solIn)
	if err != nil {
		return BondingCurveState{}, BuyResult{}, err
	}
	out, err := applyReserves(s, tokens, solIn, Buy)
	if err != nil {
		return BondingCurveState{}, BuyResult{}, err
	}
	return out, BuyResult{TokenAmount: tokens, SolAmount: solIn}, nil
}

func (st segmentedStrategy) ApplySell(s BondingCurveState, tokenIn uint64) (BondingCurveState, SellResult, error) {
	sol, err := st.QuoteSell(s, tokenIn)
	if err != nil {
		return BondingCurveState{}, SellResult{}, err
	}
	out, err := applyReserves(s, tokenIn, sol, Sell)
	if err != nil {
		return BondingCurveState{}, SellResult{}, err
	}
	return out, SellResult{TokenAmount: tokenIn, SolAmount: sol}, nil
}
