// internal/storage/models/trade.go
package models

import "time"

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade is one committed buy or sell against a curve.
type Trade struct {
	BaseModel
	TradeID           string    `gorm:"uniqueIndex;not null;type:varchar(36)" yaml:"trade_id"`
	Mint              string    `gorm:"index;not null;type:varchar(44)" yaml:"mint"`
	Trader            string    `gorm:"index;not null;type:varchar(44)" yaml:"trader"`
	Side              string    `gorm:"not null;type:varchar(4)" yaml:"side"`
	SolAmount         uint64    `gorm:"not null" yaml:"sol_amount"`
	TokenAmount       uint64    `gorm:"not null" yaml:"token_amount"`
	FeeLamports       uint64    `gorm:"not null;default:0" yaml:"fee_lamports"`
	RealSolReserves   uint64    `gorm:"not null" yaml:"real_sol_reserves"`
	RealTokenReserves uint64    `gorm:"not null" yaml:"real_token_reserves"`
	CurveVersion      uint64    `gorm:"not null" yaml:"curve_version"`
	ExecutedAt        time.Time `gorm:"index;not null" yaml:"executed_at"`
}

// Claim is one release of vested tokens.
type Claim struct {
	BaseModel
	Mint        string    `gorm:"index;not null;type:varchar(44)"`
	Distributor string    `gorm:"not null;type:varchar(16)"`
	Recipient   string    `gorm:"not null;type:varchar(44)"`
	Amount      uint64    `gorm:"not null"`
	ClaimedAt   time.Time `gorm:"index;not null"`
}
