package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/evdnx/gridtrader/audit"
	"github.com/evdnx/gridtrader/config"
	"github.com/evdnx/gridtrader/executor"
	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/metrics"
	"github.com/evdnx/gridtrader/types"
)

var (
	// ErrOrderRejected marks a grid order the broker declined or that could
	// not be submitted. The move is abandoned.
	ErrOrderRejected = errors.New("grid order rejected")
	// ErrOrderTimeout marks a grid order committed without confirmation.
	ErrOrderTimeout = errors.New("grid order timed out")
)

// GridStrategy seizes volatility around a fixed price grid: it keeps the
// held position at the number of grid units implied by the distance between
// price and the grid base, one order at a time.
type GridStrategy struct {
	*BaseStrategy
	grid  Grid
	state GridState
	sink  audit.Sink
	clock Clock
}

// NewGridStrategy validates cfg and wires the engine. A nil clock uses the
// system clock.
func NewGridStrategy(cfg config.GridConfig, exec executor.Executor,
	sink audit.Sink, log logger.Logger, clock Clock) (*GridStrategy, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	g := NewGrid(cfg)
	return &GridStrategy{
		BaseStrategy: NewBaseStrategy("grid", cfg.Symbol, exec, log),
		grid:         g,
		state:        g.Init(0),
		sink:         sink,
		clock:        clock,
	}, nil
}

// State returns a copy of the engine state.
func (g *GridStrategy) State() GridState { return g.state }

// Start anchors the grid to the broker's current position.
func (g *GridStrategy) Start() {
	g.Initialize(g.Exec.Position(g.Symbol))
}

// Initialize sets units from an existing position instead of assuming a
// flat start.
func (g *GridStrategy) Initialize(pos types.Position) {
	g.state = g.grid.Init(pos.Size)
	g.audit(g.clock.Now(), fmt.Sprintf("Initialization, Position: %.0f, %.4f, units: %d",
		pos.Size, pos.Price, g.state.Units))
	g.Log.Info("grid_initialized",
		logger.String("symbol", g.Symbol),
		logger.Float64("position", pos.Size),
		logger.Int64("units", g.state.Units),
		logger.String("price_position", g.state.PricePosition.StringFixed(4)),
	)
	metrics.GridUnits.WithLabelValues(g.Symbol).Set(float64(g.state.Units))
}

func (g *GridStrategy) ProcessBar(bar types.Bar) {
	g.OnPriceObservation(bar.Observation())
}

// OnPriceObservation runs one decision step. The pending-order timeout is
// checked first.
func (g *GridStrategy) OnPriceObservation(obs types.PriceObservation) {
	if !validPrice(obs.Close) {
		g.Log.Warn("grid_invalid_price",
			logger.String("symbol", g.Symbol),
			logger.Time("time", obs.Time),
			logger.Float64("close", obs.Close),
		)
		return
	}
	now := g.clock.Now()
	next, d := g.grid.Decide(g.state, obs, now)
	g.state = next

	if d.TimedOut != nil {
		g.timedOut(obs.Time, d.TimedOut)
	}
	if d.PriceLine != "" {
		g.audit(obs.Time, d.PriceLine)
	}
	if d.Submit != nil {
		g.submit(obs, d.Submit, now)
	}
	metrics.EquityGauge.Set(g.Exec.Value())
}

// CheckTimeout applies the timeout transition outside the observation
// cadence, for harnesses driving an explicit timer. It reports whether a
// pending order was committed.
func (g *GridStrategy) CheckTimeout() bool {
	now := g.clock.Now()
	next, expired := g.grid.Expire(g.state, now)
	if expired == nil {
		return false
	}
	g.state = next
	g.timedOut(now, expired)
	return true
}

func (g *GridStrategy) submit(obs types.PriceObservation, sub *Submission, now time.Time) {
	pos := g.Exec.Position(g.Symbol)
	value, cash := g.Exec.Value(), g.Exec.Cash()

	rec := audit.Record{
		Time:          obs.Time,
		Count:         sub.Count,
		Price:         obs.Close,
		DiffUnits:     sub.DiffUnits,
		Value:         value,
		Cash:          cash,
		PositionSize:  pos.Size,
		PositionPrice: pos.Price,
	}
	// No order without its audit record.
	if err := g.sink.Record(rec); err != nil {
		g.state = g.grid.Retract(g.state)
		g.Log.Error("grid_record_failed", logger.Int64("count", sub.Count), logger.Err(err))
		return
	}
	g.audit(obs.Time, fmt.Sprintf(
		"count: %d, price: %.4f, unit: %d, value: %.2f, cash: %.2f, posi_size: %.0f, posi_price: %.4f",
		sub.Count, obs.Close, sub.DiffUnits, value, cash, pos.Size, pos.Price))

	ctx := "grid_buy"
	if sub.Order.Side == types.Sell {
		ctx = "grid_sell"
	}
	handle, err := g.submitOrder(sub.Order, ctx)
	if err != nil {
		g.state = g.grid.Abandon(g.state)
		g.audit(obs.Time, fmt.Sprintf("%v: %v", ErrOrderRejected, err))
		metrics.OrderOutcomes.WithLabelValues(g.name, string(types.StatusRejected)).Inc()
		return
	}
	g.state.Pending = &PendingOrder{
		Handle:      handle,
		SubmittedAt: now,
		DiffUnits:   sub.DiffUnits,
		Order:       sub.Order,
	}
}

// OnOrderUpdate resolves the pending order. Updates for any other handle,
// including late ones for an order already committed by timeout, are
// ignored.
func (g *GridStrategy) OnOrderUpdate(u types.OrderUpdate) {
	ts := u.Time
	if ts.IsZero() {
		ts = g.clock.Now()
	}
	g.audit(ts, fmt.Sprintf("ORDER %s %s %s %.0f @ %.4f",
		u.Handle, u.Status, u.Order.Side, u.Order.Qty, u.Order.Price))
	if !u.Status.Terminal() {
		return
	}

	p := g.state.Pending
	if p == nil || p.Handle != u.Handle {
		g.Log.Warn("grid_stale_order_update",
			logger.String("handle", u.Handle),
			logger.String("status", string(u.Status)),
		)
		return
	}
	metrics.OrderOutcomes.WithLabelValues(g.name, string(u.Status)).Inc()

	if u.Status == types.StatusCompleted {
		g.state = g.grid.Commit(g.state)
		pos := g.Exec.Position(g.Symbol)
		verb := "BUY"
		if p.Order.Side == types.Sell {
			verb = "SELL"
		}
		g.audit(ts, fmt.Sprintf("%s EXECUTED, Price: %.4f, Cost: %.4f, Position: %.4f",
			verb, u.ExecutedPrice, u.ExecutedValue, pos.Size))
		g.Log.Info("grid_order_completed",
			logger.String("handle", u.Handle),
			logger.Int64("units", g.state.Units),
			logger.Float64("price", u.ExecutedPrice),
		)
	} else {
		g.state = g.grid.Abandon(g.state)
		g.audit(ts, "Order Canceled/Margin/Rejected")
		g.Log.Warn("grid_order_failed",
			logger.String("handle", u.Handle),
			logger.String("status", string(u.Status)),
			logger.Err(ErrOrderRejected),
		)
	}
	metrics.GridUnits.WithLabelValues(g.Symbol).Set(float64(g.state.Units))
}

func (g *GridStrategy) timedOut(ts time.Time, p *PendingOrder) {
	pos := g.Exec.Position(g.Symbol)
	g.audit(ts, "Order Timeout")
	g.audit(ts, fmt.Sprintf("Position size: %.0f, price: %.4f", pos.Size, pos.Price))
	g.Log.Warn("grid_order_timeout",
		logger.String("handle", p.Handle),
		logger.Duration("age", g.clock.Now().Sub(p.SubmittedAt)),
		logger.Int64("units", g.state.Units),
		logger.Err(ErrOrderTimeout),
	)
	metrics.OrderTimeouts.WithLabelValues(g.name).Inc()
	metrics.GridUnits.WithLabelValues(g.Symbol).Set(float64(g.state.Units))
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

func (g *GridStrategy) audit(ts time.Time, msg string) {
	if err := g.sink.Log(ts, msg); err != nil {
		g.Log.Error("audit_write_failed", logger.String("msg", msg), logger.Err(err))
	}
}
