package binance

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/infra"
)

// PriceUpdate is one mark-price tick from the stream.
type PriceUpdate struct {
	Symbol string
	Price  float64
	At     time.Time
}

// PriceStream follows the mark-price websocket for one symbol,
// reconnecting with backoff until its context is canceled.
type PriceStream struct {
	baseURL string
	symbol  string

	readTimeout time.Duration
	wg          sync.WaitGroup
}

// NewPriceStream creates a stream for symbol against the given stream
// endpoint (e.g. wss://fstream.binance.com).
func NewPriceStream(baseURL, symbol string) *PriceStream {
	return &PriceStream{
		baseURL:     strings.TrimRight(baseURL, "/"),
		symbol:      strings.ToUpper(symbol),
		readTimeout: 90 * time.Second,
	}
}

// Start launches the stream loop and returns the update channel. The
// channel closes after ctx is canceled and the loop has drained.
func (s *PriceStream) Start(ctx context.Context) <-chan PriceUpdate {
	out := make(chan PriceUpdate, 16)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(out)
		s.runLoop(ctx, out)
	}()

	return out
}

// Wait blocks until the stream loop has fully stopped.
func (s *PriceStream) Wait() {
	s.wg.Wait()
}

func (s *PriceStream) runLoop(ctx context.Context, out chan<- PriceUpdate) {
	retry := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := s.connect(ctx)
		if err != nil {
			slog.Warn("stream connect failed", "symbol", s.symbol, "err", err, "retry", retry)
			delay := infra.CalculateBackoff(retry)
			retry++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		s.process(ctx, conn, out)
	}
}

func (s *PriceStream) connect(ctx context.Context) (*websocket.Conn, error) {
	url := s.baseURL + "/ws/" + strings.ToLower(s.symbol) + "@markPrice@1s"
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	slog.Info("stream connected", "symbol", s.symbol)
	return conn, nil
}

func (s *PriceStream) process(ctx context.Context, conn *websocket.Conn, out chan<- PriceUpdate) {
	defer conn.Close()

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("stream read error", "symbol", s.symbol, "err", err)
			}
			return
		}

		var ev markPriceEvent
		if err := json.Unmarshal(msg, &ev); err != nil || ev.MarkPrice == "" {
			continue
		}

		update := PriceUpdate{
			Symbol: ev.Symbol,
			Price:  parseFloat(ev.MarkPrice),
			At:     time.UnixMilli(ev.EventTime),
		}

		select {
		case out <- update:
		case <-ctx.Done():
			return
		default:
			// Drop ticks a slow consumer cannot keep up with.
		}
	}
}
