package strategy

import (
	"testing"
	"time"

	"github.com/evdnx/gridtrader/config"
	"github.com/evdnx/gridtrader/testutils"
	"github.com/evdnx/gridtrader/types"
)

var t0 = time.Date(2023, 3, 1, 9, 45, 0, 0, time.UTC)

// fakeClock is advanced by hand so timeouts are deterministic.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// gridConfig is the EUR_USD grid used in production.
func gridConfig() config.GridConfig {
	return config.GridConfig{
		Symbol:       "EUR_USD",
		PriceBase:    1.0300,
		PriceUnit:    0.0020,
		ValueUnit:    600,
		MaxUnit:      35,
		OrderTimeout: 60 * time.Second,
	}
}

type gridHarness struct {
	strat *GridStrategy
	exec  *testutils.MockExecutor
	sink  *testutils.MockSink
	log   *testutils.MockLogger
	clock *fakeClock
}

func buildGrid(t *testing.T, cfg config.GridConfig) *gridHarness {
	t.Helper()
	h := &gridHarness{
		exec:  testutils.NewMockExecutor(1066),
		sink:  testutils.NewMockSink(),
		log:   testutils.NewMockLogger(),
		clock: &fakeClock{now: t0},
	}
	s, err := NewGridStrategy(cfg, h.exec, h.sink, h.log, h.clock)
	if err != nil {
		t.Fatalf("NewGridStrategy failed: %v", err)
	}
	h.strat = s
	return h
}

// observe feeds one close, stamped with the harness clock.
func (h *gridHarness) observe(close float64) {
	h.strat.OnPriceObservation(types.PriceObservation{Time: h.clock.Now(), Close: close})
}

// candle builds a bar with a fixed half-range around close.
func candle(i int, close float64) types.Bar {
	return types.Bar{
		Time:   t0.Add(time.Duration(i) * 24 * time.Hour),
		Open:   close,
		High:   close + 0.5,
		Low:    close - 0.5,
		Close:  close,
		Volume: 1000,
	}
}

func feedBars(strat Strategy, closes ...float64) {
	for i, c := range closes {
		strat.ProcessBar(candle(i, c))
	}
}
