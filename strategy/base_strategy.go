package strategy

import (
	"math"

	"github.com/evdnx/gridtrader/executor"
	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/metrics"
	"github.com/evdnx/gridtrader/types"
)

// BaseStrategy bundles the common dependencies and helpers.
type BaseStrategy struct {
	Exec   executor.Executor
	Log    logger.Logger
	Symbol string
	name   string
}

// NewBaseStrategy wires the shared dependencies. All concrete strategies
// should call this from their own constructors.
func NewBaseStrategy(name, symbol string, exec executor.Executor, log logger.Logger) *BaseStrategy {
	if log == nil {
		log = logger.NewNop()
	}
	return &BaseStrategy{
		Exec:   exec,
		Log:    log,
		Symbol: symbol,
		name:   name,
	}
}

func (b *BaseStrategy) Name() string       { return b.name }
func (b *BaseStrategy) Instrument() string { return b.Symbol }

// Start is a no-op for strategies that need no initial state.
func (b *BaseStrategy) Start() {}

// OnOrderUpdate records terminal outcomes. Strategies that track their own
// orders override it.
func (b *BaseStrategy) OnOrderUpdate(u types.OrderUpdate) {
	if !u.Status.Terminal() {
		return
	}
	metrics.OrderOutcomes.WithLabelValues(b.name, string(u.Status)).Inc()
	if u.Status.Failed() {
		b.Log.Warn("order_failed",
			logger.String("strategy", b.name),
			logger.String("handle", u.Handle),
			logger.String("status", string(u.Status)),
		)
		return
	}
	b.Log.Info("order_executed",
		logger.String("strategy", b.name),
		logger.String("handle", u.Handle),
		logger.String("side", string(u.Order.Side)),
		logger.Float64("price", u.ExecutedPrice),
		logger.Float64("value", u.ExecutedValue),
	)
}

// submitOrder is a thin wrapper that records metrics and logs.
func (b *BaseStrategy) submitOrder(o types.Order, ctx string) (string, error) {
	handle, err := b.Exec.Submit(o)
	if err != nil {
		b.Log.Error("order_submit_failed",
			logger.String("symbol", o.Symbol),
			logger.String("side", string(o.Side)),
			logger.Float64("qty", o.Qty),
			logger.Err(err),
		)
		return "", err
	}
	b.Log.Info("order_submitted",
		logger.String("symbol", o.Symbol),
		logger.String("side", string(o.Side)),
		logger.Float64("qty", o.Qty),
		logger.Float64("price", o.Price),
		logger.String("handle", handle),
		logger.String("ctx", ctx),
	)
	metrics.OrdersSubmitted.WithLabelValues(b.name).Inc()
	return handle, nil
}

// order submits a fresh order of qty on side, ignoring the handle.
func (b *BaseStrategy) order(side types.Side, qty, price float64, ctx string) {
	if qty <= 0 {
		return
	}
	o := types.Order{
		Symbol:  b.Symbol,
		Side:    side,
		Qty:     qty,
		Price:   price,
		Comment: ctx,
	}
	_, _ = b.submitOrder(o, ctx)
}

// closePosition flattens the current position at the supplied price.
func (b *BaseStrategy) closePosition(price float64, ctx string) {
	qty := b.Exec.Position(b.Symbol).Size
	if qty == 0 {
		return
	}
	side := types.Sell
	if qty < 0 {
		side = types.Buy
	}
	b.order(side, math.Abs(qty), price, ctx)
}
