// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventType represents the type of event.
type EventType string

const (
	CurveCreated   EventType = "curve.created"
	TradeExecuted  EventType = "trade.executed"
	CurveCompleted EventType = "curve.completed"
	CurveLaunched  EventType = "curve.launched"
	VestingClaimed EventType = "vesting.claimed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps an event of type t at now.
func NewBase(t EventType, now time.Time) BaseEvent {
	return BaseEvent{EventType: t, EventTime: now}
}

// CurveCreatedEvent is emitted once a curve is minted and frozen.
type CurveCreatedEvent struct {
	BaseEvent
	Mint               solana.PublicKey
	Creator            solana.PublicKey
	Strategy           string
	BondingSupply      uint64
	SolLaunchThreshold uint64
	StartTime          int64
}

// TradeExecutedEvent is emitted after a buy or sell is committed.
type TradeExecutedEvent struct {
	BaseEvent
	TradeID              string
	Mint                 solana.PublicKey
	User                 solana.PublicKey
	IsBuy                bool
	SolAmount            uint64
	TokenAmount          uint64
	FeeLamports          uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
	VirtualSolReserves   uint64
	VirtualTokenReserves string
	CurveVersion         uint64
}

// CurveCompletedEvent is emitted when the last tradable token is sold.
type CurveCompletedEvent struct {
	BaseEvent
	Mint            solana.PublicKey
	RealSolReserves uint64
}

// CurveLaunchedEvent is emitted when a completed curve is handed over to
// liquidity migration.
type CurveLaunchedEvent struct {
	BaseEvent
	Mint solana.PublicKey
}

// VestingClaimedEvent is emitted after vested tokens leave a vault.
type VestingClaimedEvent struct {
	BaseEvent
	Mint        solana.PublicKey
	Distributor string
	Recipient   solana.PublicKey
	Amount      uint64
}
