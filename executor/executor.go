package executor

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/evdnx/gridtrader/logger"
	"github.com/evdnx/gridtrader/types"
)

// Executor is the broker capability set the strategies depend on. Submit
// only hands the order over; the terminal outcome is reported later as a
// types.OrderUpdate carrying the returned handle.
type Executor interface {
	Submit(o types.Order) (handle string, err error)
	Position(symbol string) types.Position
	Value() float64
	Cash() float64
}

var ErrInvalidOrder = errors.New("invalid order")

// PaperConfig describes the simulated broker.
type PaperConfig struct {
	StartCash    float64
	Commission   float64 // fraction of fill notional
	Margin       float64 // fraction of notional posted while a position is open
	SlippagePerc float64
}

type pendingFill struct {
	handle string
	order  types.Order
}

// PaperExecutor is a margin account simulator. Orders submitted during one
// bar are filled as market orders at the open of the next bar passed to
// ProcessBar, with percentage slippage clamped to that bar's range.
type PaperExecutor struct {
	mu        sync.RWMutex
	cfg       PaperConfig
	cash      float64
	positions map[string]types.Position
	marks     map[string]float64
	pending   []pendingFill
	log       logger.Logger
}

func NewPaperExecutor(cfg PaperConfig, log logger.Logger) *PaperExecutor {
	if cfg.Margin <= 0 {
		cfg.Margin = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &PaperExecutor{
		cfg:       cfg,
		cash:      cfg.StartCash,
		positions: make(map[string]types.Position),
		marks:     make(map[string]float64),
		log:       log,
	}
}

func (p *PaperExecutor) Submit(o types.Order) (string, error) {
	if o.Qty <= 0 || math.IsNaN(o.Qty) || math.IsInf(o.Qty, 0) {
		return "", fmt.Errorf("%w: qty %v", ErrInvalidOrder, o.Qty)
	}
	if o.Side != types.Buy && o.Side != types.Sell {
		return "", fmt.Errorf("%w: side %q", ErrInvalidOrder, o.Side)
	}
	handle := uuid.NewString()
	p.mu.Lock()
	p.pending = append(p.pending, pendingFill{handle: handle, order: o})
	p.mu.Unlock()
	return handle, nil
}

// ProcessBar fills every order queued for symbol against bar and marks the
// position to the bar close. The returned updates are in submission order.
func (p *PaperExecutor) ProcessBar(symbol string, bar types.Bar) []types.OrderUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()

	var updates []types.OrderUpdate
	remaining := p.pending[:0]
	for _, pf := range p.pending {
		if pf.order.Symbol != symbol {
			remaining = append(remaining, pf)
			continue
		}
		updates = append(updates, p.fill(pf, bar))
	}
	p.pending = remaining
	p.marks[symbol] = bar.Close
	return updates
}

func (p *PaperExecutor) fill(pf pendingFill, bar types.Bar) types.OrderUpdate {
	o := pf.order
	price := bar.Open
	if o.Side == types.Buy {
		price *= 1 + p.cfg.SlippagePerc
	} else {
		price *= 1 - p.cfg.SlippagePerc
	}
	price = math.Min(math.Max(price, bar.Low), bar.High)

	upd := types.OrderUpdate{Handle: pf.handle, Order: o, Time: bar.Time}
	pos := p.positions[o.Symbol]
	signed := o.SignedQty()
	commission := o.Qty * price * p.cfg.Commission

	// Only the exposure-increasing part of the order needs fresh margin.
	opening := math.Abs(signed)
	if pos.Size != 0 && math.Signbit(pos.Size) != math.Signbit(signed) {
		opening = math.Max(0, math.Abs(signed)-math.Abs(pos.Size))
	}
	required := opening*price*p.cfg.Margin + commission
	if required > p.cash+p.releasable(pos, signed, price) {
		upd.Status = types.StatusMargin
		p.log.Warn("paper_margin_rejected",
			logger.String("symbol", o.Symbol),
			logger.String("side", string(o.Side)),
			logger.Float64("qty", o.Qty),
			logger.Float64("required", required),
			logger.Float64("cash", p.cash),
		)
		return upd
	}

	p.positions[o.Symbol] = p.apply(pos, signed, price)
	p.cash -= commission
	upd.Status = types.StatusCompleted
	upd.ExecutedPrice = price
	upd.ExecutedValue = o.Qty * price
	p.log.Info("paper_fill",
		logger.String("symbol", o.Symbol),
		logger.String("side", string(o.Side)),
		logger.Float64("qty", o.Qty),
		logger.Float64("price", price),
		logger.Float64("cash", p.cash),
	)
	return upd
}

// releasable is the cash the closing part of an order would free up.
func (p *PaperExecutor) releasable(pos types.Position, signed, price float64) float64 {
	if pos.Size == 0 || math.Signbit(pos.Size) == math.Signbit(signed) {
		return 0
	}
	closed := math.Min(math.Abs(signed), math.Abs(pos.Size))
	return closed*pos.Price*p.cfg.Margin + closed*(price-pos.Price)*math.Copysign(1, pos.Size)
}

// apply books a fill of signed qty at price and adjusts cash for posted
// margin and realised PnL.
func (p *PaperExecutor) apply(pos types.Position, signed, price float64) types.Position {
	if pos.Size == 0 || math.Signbit(pos.Size) == math.Signbit(signed) {
		size := math.Abs(pos.Size) + math.Abs(signed)
		pos.Price = (math.Abs(pos.Size)*pos.Price + math.Abs(signed)*price) / size
		pos.Size += signed
		p.cash -= math.Abs(signed) * price * p.cfg.Margin
		return pos
	}

	closed := math.Min(math.Abs(signed), math.Abs(pos.Size))
	dir := math.Copysign(1, pos.Size)
	p.cash += closed*pos.Price*p.cfg.Margin + closed*(price-pos.Price)*dir
	pos.Size += signed
	rest := math.Abs(signed) - closed
	switch {
	case rest > 0: // flipped through flat
		pos.Price = price
		p.cash -= rest * price * p.cfg.Margin
	case pos.Size == 0:
		pos.Price = 0
	}
	return pos
}

func (p *PaperExecutor) Position(symbol string) types.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.positions[symbol]
}

func (p *PaperExecutor) Cash() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash
}

// Value is cash plus posted margin plus unrealised PnL at the last marks.
func (p *PaperExecutor) Value() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v := p.cash
	for sym, pos := range p.positions {
		if pos.Size == 0 {
			continue
		}
		mark, ok := p.marks[sym]
		if !ok {
			mark = pos.Price
		}
		v += math.Abs(pos.Size)*pos.Price*p.cfg.Margin + pos.Size*(mark-pos.Price)
	}
	return v
}

// Pending returns the number of orders waiting for the next bar.
func (p *PaperExecutor) Pending() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pending)
}
