package curve

// CustodySnapshot is what the custody layer observed for one curve.
type CustodySnapshot struct {
	// TokenBalance is the balance of the curve's token account.
	TokenBalance uint64
	// Lamports is the full SOL balance of the curve account.
	Lamports           uint64
	RentExemptMinimum  uint64
	TokenAccountFrozen bool
}

// NetLamports is the SOL balance above the rent-exempt minimum.
func (c CustodySnapshot) NetLamports() (uint64, error) {
	return checkedSub(c.Lamports, c.RentExemptMinimum)
}

// CheckInvariants ties the curve counters to observed custody balances. A
// non-nil result is always an *InvariantViolation and the operation that
// produced s must not be committed.
func CheckInvariants(s BondingCurveState, snap CustodySnapshot) error {
	net, err := snap.NetLamports()
	if err != nil {
		return &InvariantViolation{Check: "lamports cover rent-exempt minimum", Want: snap.RentExemptMinimum, Got: snap.Lamports}
	}
	if net != s.RealSolReserves {
		return &InvariantViolation{Check: "real sol reserves match net lamports", Want: s.RealSolReserves, Got: net}
	}
	if snap.TokenBalance != s.RealTokenReserves {
		return &InvariantViolation{Check: "real token reserves match token balance", Want: s.RealTokenReserves, Got: snap.TokenBalance}
	}
	if s.Status == StatusComplete {
		if s.RealTokenReserves != 0 {
			return &InvariantViolation{Check: "complete curve holds no tokens", Want: 0, Got: s.RealTokenReserves}
		}
		if net < s.SolLaunchThreshold {
			return &InvariantViolation{Check: "complete curve meets launch threshold", Want: s.SolLaunchThreshold, Got: net}
		}
	}
	if s.Status != StatusLaunched && !snap.TokenAccountFrozen {
		return &InvariantViolation{Check: "token account frozen before launch", Want: 1, Got: 0}
	}
	if s.Strategy == StrategyConstantProduct {
		if s.VirtualSolReserves == 0 {
			return &InvariantViolation{Check: "virtual sol reserves positive", Want: 1, Got: 0}
		}
		if s.VirtualTokenReserves.IsZero() {
			return &InvariantViolation{Check: "virtual token reserves positive", Want: 1, Got: 0}
		}
	}
	return nil
}
