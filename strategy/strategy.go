package strategy

import (
	"time"

	"github.com/evdnx/gridtrader/types"
)

// Strategy is what a harness drives: one Start, then bars and order updates
// strictly in sequence. Implementations are not safe for concurrent use.
type Strategy interface {
	Name() string
	Instrument() string
	Start()
	ProcessBar(bar types.Bar)
	OnOrderUpdate(u types.OrderUpdate)
}

// Clock supplies the wall-clock time used for order timeouts.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
