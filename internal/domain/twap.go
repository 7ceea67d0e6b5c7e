package domain

import "time"

// TwapStatus is the lifecycle of a TWAP plan.
type TwapStatus string

const (
	TwapActive    TwapStatus = "ACTIVE"
	TwapCompleted TwapStatus = "COMPLETED"
	TwapFailed    TwapStatus = "FAILED"
	TwapError     TwapStatus = "ERROR"
)

// ChunkStatus is the lifecycle of a single TWAP slice.
type ChunkStatus string

const (
	ChunkPending  ChunkStatus = "PENDING"
	ChunkExecuted ChunkStatus = "EXECUTED"
	ChunkFailed   ChunkStatus = "FAILED"
)

// TwapChunk is one time slice of a TWAP plan. Index is 1-based.
type TwapChunk struct {
	Index          int
	Quantity       float64 // quantized to step size
	ScheduledAt    time.Time
	Status         ChunkStatus
	Order          OrderRecord
	ExecutionPrice float64
	// LikelyToFail marks chunks whose notional is below the exchange
	// minimum at plan time. The plan still runs them.
	LikelyToFail bool
}

// TwapPlan holds the full state of one TWAP execution.
type TwapPlan struct {
	ID               string
	Symbol           string
	Side             Side
	TotalQuantity    float64
	DurationMinutes  int
	ChunkCount       int
	PriceLimit       float64 // 0 means market orders
	RandomizeTiming  bool
	Chunks           []TwapChunk
	ExecutedQuantity float64
	AveragePrice     float64 // over successfully executed chunks
	CreatedAt        time.Time
	Status           TwapStatus
}

// Clone returns a deep copy for atomic snapshot publishing.
func (p *TwapPlan) Clone() *TwapPlan {
	cp := *p
	cp.Chunks = append([]TwapChunk(nil), p.Chunks...)
	return &cp
}
