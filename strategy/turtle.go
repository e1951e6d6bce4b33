package strategy

import (
	"math"

	"github.com/evdnx/goti"

	"github.com/evdnx/gridtrader/config"
	"github.com/evdnx/gridtrader/executor"
	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/types"
)

// Turtle enters on a Donchian breakout, pyramids up to MaxAdd extra stakes
// every half ATR in its favour, takes profit on the opposite channel break
// and stops out two ATRs against the last entry.
type Turtle struct {
	*BaseStrategy
	cfg config.TurtleConfig

	highs *window // prior highs, N1
	lows  *window // prior lows, N2
	atr   *goti.AverageTrueRange

	crossHigh crossOver
	crossLow  crossOver

	lastPrice float64
	adds      int
}

func NewTurtle(cfg config.TurtleConfig, exec executor.Executor, log logger.Logger) (*Turtle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Feeds may report a close outside the bar range.
	atr, err := goti.NewAverageTrueRangeWithParams(cfg.N1, goti.WithCloseValidation(false))
	if err != nil {
		return nil, err
	}
	return &Turtle{
		BaseStrategy: NewBaseStrategy("turtle", cfg.Symbol, exec, log),
		cfg:          cfg,
		highs:        newWindow(cfg.N1),
		lows:         newWindow(cfg.N2),
		atr:          atr,
	}, nil
}

// ATR is the simple average true range over N1 bars, 0 until N1+1 bars
// have been seen.
func (t *Turtle) ATR() float64 {
	v, err := t.atr.Calculate()
	if err != nil {
		return 0
	}
	return v
}

func (t *Turtle) ProcessBar(bar types.Bar) {
	if err := t.atr.AddCandle(bar.High, bar.Low, bar.Close); err != nil {
		t.Log.Warn("turtle_bad_bar",
			logger.Float64("high", bar.High),
			logger.Float64("low", bar.Low),
			logger.Float64("close", bar.Close),
			logger.Err(err),
		)
		return
	}
	defer func() {
		t.highs.Add(bar.High)
		t.lows.Add(bar.Low)
	}()
	atr, err := t.atr.Calculate()
	if err != nil || !t.highs.Full() || !t.lows.Full() {
		return
	}

	upCross := t.crossHigh.Update(bar.Close, t.highs.Max()) > 0
	downCross := t.crossLow.Update(bar.Close, t.lows.Min()) < 0
	size := t.Exec.Position(t.Symbol).Size

	t.Log.Info("turtle_bar",
		logger.Float64("close", bar.Close),
		logger.Float64("donchian_high", t.highs.Max()),
		logger.Float64("donchian_low", t.lows.Min()),
		logger.Float64("atr", atr),
	)

	switch {
	case size == 0:
		if upCross {
			t.enter(types.Buy, bar.Close, "turtle_long")
		} else if downCross {
			t.enter(types.Sell, bar.Close, "turtle_short")
		}
	case size > 0:
		switch {
		case downCross:
			t.order(types.Sell, size, bar.Close, "turtle_long_take_profit")
		case bar.Close > t.lastPrice+0.5*atr && t.adds < t.cfg.MaxAdd:
			t.add(types.Buy, bar.Close, "turtle_long_add")
		case bar.Close < t.lastPrice-2*atr:
			t.order(types.Sell, size, bar.Close, "turtle_long_stop")
		}
	default:
		switch {
		case upCross:
			t.order(types.Buy, math.Abs(size), bar.Close, "turtle_short_take_profit")
		case bar.Close < t.lastPrice-0.5*atr && t.adds < t.cfg.MaxAdd:
			t.add(types.Sell, bar.Close, "turtle_short_add")
		case bar.Close > t.lastPrice+2*atr:
			t.order(types.Buy, math.Abs(size), bar.Close, "turtle_short_stop")
		}
	}
}

func (t *Turtle) enter(side types.Side, price float64, ctx string) {
	t.order(side, t.cfg.Stake, price, ctx)
	t.lastPrice = price
	t.adds = 0
}

func (t *Turtle) add(side types.Side, price float64, ctx string) {
	t.order(side, t.cfg.Stake, price, ctx)
	t.lastPrice = price
	t.adds++
}
