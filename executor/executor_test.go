package executor

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/evdnx/gridtrader/types"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func bar(open, high, low, close float64) types.Bar {
	return types.Bar{
		Time:  time.Date(2023, 3, 1, 9, 45, 0, 0, time.UTC),
		Open:  open,
		High:  high,
		Low:   low,
		Close: close,
	}
}

func TestPaperExecutor_FillsOnNextBar(t *testing.T) {
	ex := NewPaperExecutor(PaperConfig{StartCash: 1000, Margin: 0.02}, nil)

	h, err := ex.Submit(types.Order{Symbol: "EUR_USD", Side: types.Buy, Qty: 600, Price: 1.0260})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if h == "" {
		t.Fatal("expected a non-empty handle")
	}
	if pos := ex.Position("EUR_USD"); pos.Size != 0 {
		t.Fatalf("order must not fill before the next bar, got %+v", pos)
	}

	ups := ex.ProcessBar("EUR_USD", bar(1.03, 1.05, 1.02, 1.04))
	if len(ups) != 1 {
		t.Fatalf("expected one update, got %d", len(ups))
	}
	u := ups[0]
	if u.Handle != h || u.Status != types.StatusCompleted {
		t.Fatalf("unexpected update: %+v", u)
	}
	if !approx(u.ExecutedPrice, 1.03) || !approx(u.ExecutedValue, 618) {
		t.Fatalf("unexpected execution: price=%v value=%v", u.ExecutedPrice, u.ExecutedValue)
	}
	pos := ex.Position("EUR_USD")
	if pos.Size != 600 || !approx(pos.Price, 1.03) {
		t.Fatalf("unexpected position: %+v", pos)
	}
	if !approx(ex.Cash(), 1000-600*1.03*0.02) {
		t.Fatalf("unexpected cash: %v", ex.Cash())
	}
	// cash + posted margin + 600 * (1.04 - 1.03)
	if !approx(ex.Value(), 1006) {
		t.Fatalf("unexpected value: %v", ex.Value())
	}
	if ex.Pending() != 0 {
		t.Fatalf("expected no pending orders, got %d", ex.Pending())
	}
}

func TestPaperExecutor_SlippageClampedToBar(t *testing.T) {
	ex := NewPaperExecutor(PaperConfig{StartCash: 1000, Margin: 0.02, SlippagePerc: 0.005}, nil)
	if _, err := ex.Submit(types.Order{Symbol: "EUR_USD", Side: types.Buy, Qty: 100}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	// open*1.005 = 1.03515 is above the high, so the fill is clamped.
	ups := ex.ProcessBar("EUR_USD", bar(1.03, 1.031, 1.029, 1.03))
	if !approx(ups[0].ExecutedPrice, 1.031) {
		t.Fatalf("expected clamped price 1.031, got %v", ups[0].ExecutedPrice)
	}
}

func TestPaperExecutor_MarginShortfall(t *testing.T) {
	ex := NewPaperExecutor(PaperConfig{StartCash: 10, Margin: 0.02}, nil)
	if _, err := ex.Submit(types.Order{Symbol: "EUR_USD", Side: types.Buy, Qty: 600}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	ups := ex.ProcessBar("EUR_USD", bar(1.03, 1.03, 1.03, 1.03))
	if ups[0].Status != types.StatusMargin {
		t.Fatalf("expected MARGIN, got %s", ups[0].Status)
	}
	if ex.Cash() != 10 || ex.Position("EUR_USD").Size != 0 {
		t.Fatal("account must be untouched after a margin rejection")
	}
}

func TestPaperExecutor_CloseRealisesPnL(t *testing.T) {
	ex := NewPaperExecutor(PaperConfig{StartCash: 1000, Margin: 0.02}, nil)
	_, _ = ex.Submit(types.Order{Symbol: "EUR_USD", Side: types.Sell, Qty: 1000})
	ex.ProcessBar("EUR_USD", bar(1.05, 1.05, 1.05, 1.05))
	_, _ = ex.Submit(types.Order{Symbol: "EUR_USD", Side: types.Buy, Qty: 1000})
	ex.ProcessBar("EUR_USD", bar(1.04, 1.04, 1.04, 1.04))

	if pos := ex.Position("EUR_USD"); pos.Size != 0 || pos.Price != 0 {
		t.Fatalf("expected flat position, got %+v", pos)
	}
	// short 1000 from 1.05 to 1.04 earns 10
	if !approx(ex.Cash(), 1010) || !approx(ex.Value(), 1010) {
		t.Fatalf("unexpected cash=%v value=%v", ex.Cash(), ex.Value())
	}
}

func TestPaperExecutor_FlipThroughFlat(t *testing.T) {
	ex := NewPaperExecutor(PaperConfig{StartCash: 1000, Margin: 0.02}, nil)
	_, _ = ex.Submit(types.Order{Symbol: "EUR_USD", Side: types.Buy, Qty: 600})
	ex.ProcessBar("EUR_USD", bar(1.00, 1.00, 1.00, 1.00))
	_, _ = ex.Submit(types.Order{Symbol: "EUR_USD", Side: types.Sell, Qty: 1200})
	ex.ProcessBar("EUR_USD", bar(1.00, 1.00, 1.00, 1.00))

	pos := ex.Position("EUR_USD")
	if pos.Size != -600 || pos.Price != 1.00 {
		t.Fatalf("expected short 600 @ 1.00, got %+v", pos)
	}
	if !approx(ex.Value(), 1000) {
		t.Fatalf("value should be unchanged at a flat price, got %v", ex.Value())
	}
}

func TestPaperExecutor_RejectsInvalidOrder(t *testing.T) {
	ex := NewPaperExecutor(PaperConfig{StartCash: 1000}, nil)
	if _, err := ex.Submit(types.Order{Symbol: "EUR_USD", Side: types.Buy}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder for zero qty, got %v", err)
	}
	if _, err := ex.Submit(types.Order{Symbol: "EUR_USD", Side: "HOLD", Qty: 1}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder for bad side, got %v", err)
	}
}

func TestPaperExecutor_KeepsOtherSymbolsPending(t *testing.T) {
	ex := NewPaperExecutor(PaperConfig{StartCash: 1000, Margin: 0.02}, nil)
	_, _ = ex.Submit(types.Order{Symbol: "GBP_USD", Side: types.Buy, Qty: 100})
	if ups := ex.ProcessBar("EUR_USD", bar(1, 1, 1, 1)); len(ups) != 0 {
		t.Fatalf("expected no updates for EUR_USD, got %d", len(ups))
	}
	if ex.Pending() != 1 {
		t.Fatalf("GBP_USD order should remain pending")
	}
}
