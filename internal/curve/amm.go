package curve

import (
	"fmt"
	"math/big"
)

// constantProductStrategy prices trades on x*y=k over virtual reserves. The
// virtual token side starts at the bonding supply plus a multiplier of it, so
// the curve never prices its last real token at infinity.
type constantProductStrategy struct{}

func (constantProductStrategy) Kind() StrategyKind { return StrategyConstantProduct }

func (constantProductStrategy) Init(s *BondingCurveState, p CreateParams, _ CreateOptions) error {
	if p.VirtualSolReserves == 0 {
		return fmt.Errorf("%w: virtual sol reserves must be positive", ErrInvalidVirtualParams)
	}
	if len(p.Segments) > 0 {
		return fmt.Errorf("%w: constant product curves take no segments", ErrInvalidVirtualParams)
	}
	vT, err := U128From(s.Supply.Bonding).Add(bpsMulWide(p.VirtualTokenMultiplierBps, s.Supply.Bonding))
	if err != nil {
		return err
	}
	s.VirtualTokenMultiplierBps = p.VirtualTokenMultiplierBps
	s.VirtualSolReserves = p.VirtualSolReserves
	s.VirtualTokenReserves = vT
	s.InitialVirtualTokenReserves = vT
	return nil
}

func (st constantProductStrategy) MaxAttainableSOL(s BondingCurveState) (uint64, error) {
	if s.RealTokenReserves == 0 {
		return s.RealSolReserves, nil
	}
	price, err := st.BuyPrice(s, s.RealTokenReserves)
	if err != nil {
		return 0, err
	}
	return checkedAdd(s.RealSolReserves, price)
}

func reservesProduct(s BondingCurveState) (*big.Int, *big.Int, *big.Int) {
	vS := bigU(s.VirtualSolReserves)
	vT := s.VirtualTokenReserves.BigInt()
	return vS, vT, new(big.Int).Mul(vS, vT)
}

// BuyPrice is ceil(k/(vT-tokens)) - vS. Buying the last virtual token is
// impossible, which surfaces as a division by zero.
func (constantProductStrategy) BuyPrice(s BondingCurveState, tokens uint64) (uint64, error) {
	if tokens == 0 {
		return 0, ErrZeroAmount
	}
	if tokens > s.RealTokenReserves {
		return 0, fmt.Errorf("%w: want %d tokens, %d available", ErrInsufficientReserves, tokens, s.RealTokenReserves)
	}
	vS, vT, k := reservesProduct(s)
	newVT := new(big.Int).Sub(vT, bigU(tokens))
	if newVT.Sign() <= 0 {
		return 0, ErrDivisionByZero
	}
	newVS := ceilDiv(k, newVT)
	return narrow(newVS.Sub(newVS, vS))
}

// QuoteBuy is vT - ceil(k/(vS+solIn)). Rounding the new virtual token
// reserve up keeps k from shrinking.
func (constantProductStrategy) QuoteBuy(s BondingCurveState, solIn uint64) (uint64, error) {
	if solIn == 0 {
		return 0, ErrZeroAmount
	}
	vS, vT, k := reservesProduct(s)
	newVS := vS.Add(vS, bigU(solIn))
	newVT := ceilDiv(k, newVS)
	out, err := narrow(newVT.Sub(vT, newVT))
	if err != nil {
		return 0, err
	}
	if out == 0 {
		return 0, ErrDustTrade
	}
	if out > s.RealTokenReserves {
		return 0, fmt.Errorf("%w: buy yields %d tokens, %d available", ErrInsufficientReserves, out, s.RealTokenReserves)
	}
	return out, nil
}

// QuoteSell is floor(tokenIn*vS/(vT+tokenIn)), capped at real SOL reserves.
func (constantProductStrategy) QuoteSell(s BondingCurveState, tokenIn uint64) (uint64, error) {
	if err := checkSellSupply(s, tokenIn); err != nil {
		return 0, err
	}
	vS, vT, _ := reservesProduct(s)
	t := bigU(tokenIn)
	num := new(big.Int).Mul(t, vS)
	den := vT.Add(vT, t)
	sol, err := narrow(num.Quo(num, den))
	if err != nil {
		return 0, err
	}
	return min(sol, s.RealSolReserves), nil
}

// TokensForSell is ceil(solOut*vT/(vS-solOut)), the least tokenIn for which
// QuoteSell reaches solOut.
func (constantProductStrategy) TokensForSell(s BondingCurveState, solOut uint64) (uint64, error) {
	if err := checkSellTarget(s, solOut); err != nil {
		return 0, err
	}
	vS, vT, _ := reservesProduct(s)
	target := bigU(solOut)
	den := vS.Sub(vS, target)
	if den.Sign() <= 0 {
		return 0, fmt.Errorf("%w: want %d lamports, virtual reserves hold %d", ErrInsufficientReserves, solOut, s.VirtualSolReserves)
	}
	tokens, err := narrow(ceilDiv(vT.Mul(vT, target), den))
	if err != nil {
		return 0, err
	}
	if err := checkSellSupply(s, tokens); err != nil {
		return 0, err
	}
	return tokens, nil
}

func (st constantProductStrategy) ApplyBuy(s BondingCurveState, solIn uint64) (BondingCurveState, BuyResult, error) {
	tokens, err := st.QuoteBuy(s, solIn)
	if err != nil {
		return BondingCurveState{}, BuyResult{}, err
	}
	out, err := applyReserves(s, tokens, solIn, Buy)
	if err != nil {
		return BondingCurveState{}, BuyResult{}, err
	}
	if out.VirtualTokenReserves, err = s.VirtualTokenReserves.Sub(U128From(tokens)); err != nil {
		return BondingCurveState{}, BuyResult{}, err
	}
	if out.VirtualSolReserves, err = checkedAdd(s.VirtualSolReserves, solIn); err != nil {
		return BondingCurveState{}, BuyResult{}, err
	}
	return out, BuyResult{TokenAmount: tokens, SolAmount: solIn}, nil
}

func (st constantProductStrategy) ApplySell(s BondingCurveState, tokenIn uint64) (BondingCurveState, SellResult, error) {
	sol, err := st.QuoteSell(s, tokenIn)
	if err != nil {
		return BondingCurveState{}, SellResult{}, err
	}
	out, err := applyReserves(s, tokenIn, sol, Sell)
	if err != nil {
		return BondingCurveState{}, SellResult{}, err
	}
	if out.VirtualTokenReserves, err = s.VirtualTokenReserves.Add(U128From(tokenIn)); err != nil {
		return BondingCurveState{}, SellResult{}, err
	}
	if out.VirtualSolReserves, err = checkedSub(s.VirtualSolReserves, sol); err != nil {
		return BondingCurveState{}, SellResult{}, err
	}
	if out.VirtualSolReserves == 0 {
		return BondingCurveState{}, SellResult{}, fmt.Errorf("%w: sell would drain virtual sol reserves", ErrInsufficientReserves)
	}
	return out, SellResult{TokenAmount: tokenIn, SolAmount: sol}, nil
}
