package strategy

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evdnx/gridtrader/audit"
	"github.com/evdnx/gridtrader/types"
)

func TestGridStrategy_RejectsUndefinedGrid(t *testing.T) {
	cfg := gridConfig()
	cfg.PriceUnit = 0
	h := buildGrid(t, gridConfig())
	if _, err := NewGridStrategy(cfg, h.exec, h.sink, h.log, h.clock); err == nil {
		t.Fatal("expected an error for a grid without price_unit")
	}
}

func TestGridStrategy_BuyAndComplete(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.strat.Start()

	h.observe(1.0260)
	orders := h.exec.Orders()
	if len(orders) != 1 {
		t.Fatalf("expected exactly one BUY order, got %d", len(orders))
	}
	if o := orders[0]; o.Side != types.Buy || o.Qty != 1200 || o.Price != 1.0260 || o.Symbol != "EUR_USD" {
		t.Fatalf("unexpected order: %+v", o)
	}
	if st := h.strat.State(); st.Idle() || st.Units != 0 || st.NewUnits != 2 {
		t.Fatalf("expected pending move to 2 units, got %+v", st)
	}

	h.strat.OnOrderUpdate(h.exec.Complete(h.exec.LastHandle(), 1.0260))
	st := h.strat.State()
	if !st.Idle() || st.Units != 2 || st.NewUnits != 2 {
		t.Fatalf("unexpected state after completion: %+v", st)
	}
	if !st.PricePosition.Equal(decimal.RequireFromString("1.026")) {
		t.Fatalf("PricePosition = %s, want 1.026", st.PricePosition)
	}
	if h.sink.CountLines("BUY EXECUTED, Price: 1.0260, Cost: 1231.2000, Position: 1200.0000") != 1 {
		t.Fatalf("missing execution line in %v", h.sink.Lines())
	}

	recs := h.sink.Records()
	if len(recs) != 1 {
		t.Fatalf("expected one activity record, got %d", len(recs))
	}
	if r := recs[0]; r.Count != 1 || r.DiffUnits != 2 || r.Price != 1.0260 || r.Value != 1066 || r.Cash != 1066 {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestGridStrategy_RecordsBeforeSubmitting(t *testing.T) {
	h := buildGrid(t, gridConfig())
	submittedAtRecord := -1
	h.sink.OnRecord = func(audit.Record) { submittedAtRecord = len(h.exec.Orders()) }

	h.observe(1.0260)
	if submittedAtRecord != 0 {
		t.Fatalf("record must be written before the order is submitted (saw %d orders)", submittedAtRecord)
	}
	if len(h.exec.Orders()) != 1 {
		t.Fatal("order was not submitted after the record")
	}
	if h.sink.CountLines("count: 1, price: 1.0260, unit: 2, value: 1066.00, cash: 1066.00, posi_size: 0, posi_price: 0.0000") != 1 {
		t.Fatalf("missing decision line in %v", h.sink.Lines())
	}
}

func TestGridStrategy_NoOrderWithoutRecord(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.sink.RecordErr = errors.New("disk full")

	h.observe(1.0260)
	if len(h.exec.Orders()) != 0 {
		t.Fatal("no order may be submitted when the record could not be written")
	}
	if st := h.strat.State(); !st.Idle() || st.Units != 0 || st.NewUnits != 0 {
		t.Fatalf("move must be abandoned: %+v", st)
	}
	if !h.log.Has("error", "grid_record_failed") {
		t.Fatal("expected grid_record_failed error log")
	}
	if st := h.strat.State(); st.Count != 0 {
		t.Fatalf("unrecorded submission kept its sequence number: %d", st.Count)
	}
	if h.sink.CountLines("count: ") != 0 {
		t.Fatalf("decision line written without its record: %v", h.sink.Lines())
	}

	h.sink.RecordErr = nil
	h.clock.Advance(time.Minute)
	h.observe(1.0260)
	recs := h.sink.Records()
	if len(recs) != 1 || recs[0].Count != 1 {
		t.Fatalf("expected the retry to be recorded as count 1, got %+v", recs)
	}
	if len(h.exec.Orders()) != 1 {
		t.Fatal("expected the retry to submit")
	}
}

func TestGridStrategy_SkipsInvalidPrices(t *testing.T) {
	h := buildGrid(t, gridConfig())
	before := h.strat.State()
	for _, p := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -1.03} {
		h.observe(p)
		h.strat.ProcessBar(types.Bar{Time: h.clock.Now(), Open: p, High: p, Low: p, Close: p})
	}
	if len(h.exec.Orders()) != 0 {
		t.Fatalf("invalid prices must not trade: %+v", h.exec.Orders())
	}
	if n := len(h.sink.Lines()); n != 0 {
		t.Fatalf("invalid prices must not reach the audit log: %v", h.sink.Lines())
	}
	after := h.strat.State()
	if after.Units != before.Units || after.NewUnits != before.NewUnits || after.Count != before.Count || !after.Idle() {
		t.Fatalf("state changed: %+v -> %+v", before, after)
	}
	if !h.log.Has("warn", "grid_invalid_price") {
		t.Fatal("expected grid_invalid_price warning")
	}

	h.observe(1.0260)
	if len(h.exec.Orders()) != 1 {
		t.Fatal("a valid price after invalid ones must still trade")
	}
}

func TestGridStrategy_VerbFollowsPendingSide(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.observe(1.0345)
	if o := h.exec.Orders(); len(o) != 1 || o[0].Side != types.Sell {
		t.Fatalf("expected one SELL order, got %+v", o)
	}

	// Brokers may report completion without echoing the order.
	h.strat.OnOrderUpdate(types.OrderUpdate{
		Handle:        h.exec.LastHandle(),
		Status:        types.StatusCompleted,
		ExecutedPrice: 1.0345,
	})
	if h.sink.CountLines("SELL EXECUTED, Price: 1.0345") != 1 {
		t.Fatalf("missing SELL execution line in %v", h.sink.Lines())
	}
	if h.sink.CountLines("BUY EXECUTED") != 0 {
		t.Fatal("completion of a sell was logged as a buy")
	}
	if st := h.strat.State(); !st.Idle() || st.Units != -2 {
		t.Fatalf("unexpected state after completion: %+v", st)
	}
}

func TestGridStrategy_FailedOutcomesKeepUnits(t *testing.T) {
	for _, status := range []types.OrderStatus{types.StatusRejected, types.StatusCanceled, types.StatusMargin} {
		h := buildGrid(t, gridConfig())
		h.observe(1.0260)
		h.strat.OnOrderUpdate(h.exec.Fail(h.exec.LastHandle(), status))

		st := h.strat.State()
		if !st.Idle() || st.Units != 0 || st.NewUnits != 0 {
			t.Fatalf("%s: unexpected state %+v", status, st)
		}
		if h.sink.CountLines("Order Canceled/Margin/Rejected") != 1 {
			t.Fatalf("%s: missing failure line", status)
		}
		if len(h.exec.Orders()) != 1 {
			t.Fatalf("%s: no automatic retry expected", status)
		}

		// The next observation re-evaluates from scratch.
		h.clock.Advance(time.Minute)
		h.observe(1.0259)
		orders := h.exec.Orders()
		if len(orders) != 2 || orders[1].Side != types.Buy || orders[1].Qty != 1200 {
			t.Fatalf("%s: expected an equivalent re-submission, got %+v", status, orders)
		}
	}
}

func TestGridStrategy_SubmitErrorIsRejection(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.exec.SubmitErr = errors.New("connection reset")

	h.observe(1.0260)
	if st := h.strat.State(); !st.Idle() || st.Units != 0 || st.NewUnits != 0 {
		t.Fatalf("unexpected state: %+v", st)
	}
	if h.sink.CountLines(ErrOrderRejected.Error()) != 1 {
		t.Fatalf("expected a rejection line, got %v", h.sink.Lines())
	}

	h.exec.SubmitErr = nil
	h.observe(1.0259)
	if len(h.exec.Orders()) != 1 {
		t.Fatal("expected the next observation to submit again")
	}
}

func TestGridStrategy_OneOrderAtATime(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.observe(1.0260)
	for i, p := range []float64{1.0200, 1.0100, 1.0400, 1.0000} {
		h.clock.Advance(10 * time.Second)
		h.observe(p)
		if n := len(h.exec.Orders()); n != 1 {
			t.Fatalf("observation %d: %d orders outstanding", i, n)
		}
	}
	// Price changes are still logged while waiting.
	if h.sink.CountLines("1.0100 --- 2") != 1 {
		t.Fatalf("expected dedup line while pending, got %v", h.sink.Lines())
	}
}

func TestGridStrategy_TimeoutCommitsAndIgnoresLateUpdate(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.observe(1.0260)
	handle := h.exec.LastHandle()

	h.clock.Advance(61 * time.Second)
	h.observe(1.0200)
	st := h.strat.State()
	if !st.Idle() || st.Units != 2 || st.NewUnits != 2 {
		t.Fatalf("expected optimistic completion, got %+v", st)
	}
	if !st.PricePosition.Equal(decimal.RequireFromString("1.026")) {
		t.Fatalf("PricePosition = %s, want 1.026", st.PricePosition)
	}
	if len(h.exec.Orders()) != 1 {
		t.Fatal("the timing-out observation must not trade")
	}
	if h.sink.CountLines("Order Timeout") != 1 || h.sink.CountLines("Position size: 0, price: 0.0000") != 1 {
		t.Fatalf("missing timeout lines in %v", h.sink.Lines())
	}
	if !h.log.Has("warn", "grid_order_timeout") {
		t.Fatal("expected grid_order_timeout warning")
	}

	// A late rejection of the committed order does not roll back.
	h.strat.OnOrderUpdate(h.exec.Fail(handle, types.StatusRejected))
	if st := h.strat.State(); st.Units != 2 {
		t.Fatalf("late update changed units to %d", st.Units)
	}
	if !h.log.Has("warn", "grid_stale_order_update") {
		t.Fatal("expected stale update warning")
	}

	// 1.0200 is three units below 1.0260.
	h.clock.Advance(time.Minute)
	h.observe(1.0200)
	orders := h.exec.Orders()
	if len(orders) != 2 || orders[1].Side != types.Buy || orders[1].Qty != 1800 {
		t.Fatalf("expected buy of 3 units, got %+v", orders)
	}
}

func TestGridStrategy_CheckTimeout(t *testing.T) {
	h := buildGrid(t, gridConfig())
	if h.strat.CheckTimeout() {
		t.Fatal("nothing pending, nothing to expire")
	}
	h.observe(1.0345)
	h.clock.Advance(30 * time.Second)
	if h.strat.CheckTimeout() {
		t.Fatal("30s is inside the timeout")
	}
	h.clock.Advance(31 * time.Second)
	if !h.strat.CheckTimeout() {
		t.Fatal("expected expiry after 61s")
	}
	if st := h.strat.State(); st.Units != -2 || !st.Idle() {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestGridStrategy_DedupPriceLines(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.observe(1.0290)
	h.observe(1.02901) // same at 4 decimals
	h.observe(1.0291)
	if n := h.sink.CountLines("1.0290 --- 0"); n != 1 {
		t.Fatalf("expected one line for 1.0290, got %d", n)
	}
	if n := h.sink.CountLines("1.0291 --- 0"); n != 1 {
		t.Fatalf("expected one line for 1.0291, got %d", n)
	}
	if len(h.exec.Orders()) != 0 {
		t.Fatal("no order inside one grid unit")
	}
}

func TestGridStrategy_StartFromExistingPosition(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.exec.SetPosition("EUR_USD", types.Position{Size: 1500, Price: 1.01})
	h.strat.Start()

	st := h.strat.State()
	if st.Units != 2 || st.NewUnits != 2 {
		t.Fatalf("expected 2 units, got %+v", st)
	}
	lines := h.sink.Lines()
	if len(lines) != 1 || lines[0] != "Initialization, Position: 1500, 1.0100, units: 2" {
		t.Fatalf("unexpected init lines: %v", lines)
	}

	// 1.0260 is the reference for 2 units: nothing to do.
	h.observe(1.0260)
	if len(h.exec.Orders()) != 0 {
		t.Fatal("price at the reference must not trade")
	}
}

func TestGridStrategy_NonTerminalUpdateOnlyLogged(t *testing.T) {
	h := buildGrid(t, gridConfig())
	h.observe(1.0260)
	handle := h.exec.LastHandle()
	h.strat.OnOrderUpdate(types.OrderUpdate{Handle: handle, Status: types.StatusAccepted})
	if st := h.strat.State(); st.Idle() {
		t.Fatal("ACCEPTED must not resolve the pending order")
	}
	found := false
	for _, l := range h.sink.Lines() {
		if strings.HasPrefix(l, "ORDER "+handle+" ACCEPTED") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected order notification line, got %v", h.sink.Lines())
	}
}
