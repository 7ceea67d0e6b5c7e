package domain

import "time"

// PositionSide is the direction of the position an OCO pair protects.
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// OcoStatus is the lifecycle of an OCO pair.
type OcoStatus string

const (
	OcoActive   OcoStatus = "ACTIVE"
	OcoResolved OcoStatus = "RESOLVED"
)

// OcoPair links a take-profit and a stop-loss leg. Both legs are
// reduce-only and sized identically; the first fill cancels the sibling.
type OcoPair struct {
	ID             string
	Symbol         string
	Quantity       float64
	PositionSide   PositionSide
	TakeProfit     OrderRecord
	StopLoss       OrderRecord
	ReferencePrice float64 // price at creation
	CreatedAt      time.Time
	Status         OcoStatus
}

// Clone returns a deep copy for atomic snapshot publishing.
func (p *OcoPair) Clone() *OcoPair {
	cp := *p
	return &cp
}
