package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evdnx/gridtrader/config"
	"github.com/evdnx/gridtrader/risk"
	"github.com/evdnx/gridtrader/types"
)

// Grid holds the fixed geometry of one grid run. Prices are kept in
// decimal so that grid boundaries are hit exactly.
type Grid struct {
	Symbol    string
	Base      decimal.Decimal
	Unit      decimal.Decimal
	ValueUnit float64
	MaxUnit   int64
	Timeout   time.Duration
}

func NewGrid(cfg config.GridConfig) Grid {
	return Grid{
		Symbol:    cfg.Symbol,
		Base:      decimal.NewFromFloat(cfg.PriceBase),
		Unit:      decimal.NewFromFloat(cfg.PriceUnit),
		ValueUnit: cfg.ValueUnit,
		MaxUnit:   cfg.MaxUnit,
		Timeout:   cfg.OrderTimeout,
	}
}

// PricePosition is the reference price for holding units grid units.
func (g Grid) PricePosition(units int64) decimal.Decimal {
	return g.Base.Sub(g.Unit.Mul(decimal.NewFromInt(units)))
}

// DiffUnits is the grid move implied by price: negative (sell) above the
// reference, positive (buy) below it. The quotient is truncated toward zero.
func DiffUnits(price, pricePosition, priceUnit decimal.Decimal) int64 {
	return -price.Sub(pricePosition).Div(priceUnit).IntPart()
}

// PendingOrder is the single order allowed in flight.
type PendingOrder struct {
	Handle      string
	SubmittedAt time.Time
	DiffUnits   int64
	Order       types.Order
}

// GridState is everything the grid engine mutates. PricePosition is only
// ever assigned from Grid.PricePosition(Units).
type GridState struct {
	Units         int64
	NewUnits      int64
	PricePosition decimal.Decimal
	Pending       *PendingOrder
	Count         int64
	PrevClose     string
}

// Idle reports whether a new order may be admitted.
func (s GridState) Idle() bool { return s.Pending == nil }

// Submission is an order the engine wants placed.
type Submission struct {
	Count     int64
	DiffUnits int64
	NewUnits  int64
	Order     types.Order
}

// Decision is the I/O the caller has to perform after Decide.
type Decision struct {
	// Set when the pending order expired and was committed optimistically.
	TimedOut *PendingOrder
	// Non-empty when the formatted close changed since the last observation.
	PriceLine string
	Submit    *Submission
}

// Init anchors the grid to an existing broker position.
func (g Grid) Init(positionSize float64) GridState {
	units := risk.UnitsFromPosition(positionSize, g.ValueUnit)
	return GridState{
		Units:         units,
		NewUnits:      units,
		PricePosition: g.PricePosition(units),
	}
}

// Commit confirms the pending move.
func (g Grid) Commit(s GridState) GridState {
	s.Units = s.NewUnits
	s.PricePosition = g.PricePosition(s.Units)
	s.Pending = nil
	return s
}

// Abandon drops the pending move and keeps the confirmed units.
func (g Grid) Abandon(s GridState) GridState {
	s.NewUnits = s.Units
	s.Pending = nil
	return s
}

// Retract undoes a submission that never reached the broker: the move is
// abandoned and its sequence number is given back.
func (g Grid) Retract(s GridState) GridState {
	s = g.Abandon(s)
	if s.Count > 0 {
		s.Count--
	}
	return s
}

// Expire commits the pending order if it has been outstanding longer than
// the timeout at now. The expired order is returned, nil otherwise.
func (g Grid) Expire(s GridState, now time.Time) (GridState, *PendingOrder) {
	p := s.Pending
	if p == nil || now.Sub(p.SubmittedAt) <= g.Timeout {
		return s, nil
	}
	return g.Commit(s), p
}

// Decide evaluates one observation against the state. It performs no I/O;
// a Submit decision leaves NewUnits set but Pending empty until the caller
// installs the order handle.
func (g Grid) Decide(s GridState, obs types.PriceObservation, now time.Time) (GridState, Decision) {
	var d Decision
	if s, d.TimedOut = g.Expire(s, now); d.TimedOut != nil {
		return s, d
	}

	if str := fmt.Sprintf("%.4f", obs.Close); str != s.PrevClose {
		d.PriceLine = fmt.Sprintf("%s --- %d", str, s.NewUnits)
		s.PrevClose = str
	}
	if !s.Idle() {
		return s, d
	}

	diff := DiffUnits(decimal.NewFromFloat(obs.Close), s.PricePosition, g.Unit)
	if diff == 0 || !risk.WithinCap(s.Units, diff, g.MaxUnit) {
		return s, d
	}

	s.Count++
	s.NewUnits = s.Units + diff
	side := types.Buy
	if diff < 0 {
		side = types.Sell
	}
	d.Submit = &Submission{
		Count:     s.Count,
		DiffUnits: diff,
		NewUnits:  s.NewUnits,
		Order: types.Order{
			Symbol:  g.Symbol,
			Side:    side,
			Qty:     risk.OrderQty(g.ValueUnit, diff),
			Price:   obs.Close,
			Comment: fmt.Sprintf("grid %+d -> %d", diff, s.NewUnits),
		},
	}
	return s, d
}
