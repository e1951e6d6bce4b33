package strategy

import "math"

// window keeps a rolling buffer of the most recent values for the
// highest/lowest channel lookups.
type window struct {
	max int
	buf []float64
}

func newWindow(max int) *window {
	if max <= 0 {
		max = 16
	}
	return &window{max: max}
}

func (w *window) Add(v float64) {
	w.buf = append(w.buf, v)
	if len(w.buf) > w.max {
		w.buf = w.buf[len(w.buf)-w.max:]
	}
}

func (w *window) Len() int {
	return len(w.buf)
}

func (w *window) Full() bool {
	return len(w.buf) == w.max
}

func (w *window) Last() float64 {
	if len(w.buf) == 0 {
		return 0
	}
	return w.buf[len(w.buf)-1]
}

func (w *window) Max() float64 {
	out := math.Inf(-1)
	for _, v := range w.buf {
		out = math.Max(out, v)
	}
	return out
}

func (w *window) Min() float64 {
	out := math.Inf(1)
	for _, v := range w.buf {
		out = math.Min(out, v)
	}
	return out
}

// crossOver tracks the sign of a-b between updates. Update returns +1 when
// a crosses above b, -1 when it crosses below, 0 otherwise. Bars where a
// equals b keep the previous side.
type crossOver struct {
	side int
}

func (c *crossOver) Update(a, b float64) int {
	var side int
	switch {
	case a > b:
		side = 1
	case a < b:
		side = -1
	default:
		return 0
	}
	prev := c.side
	c.side = side
	if prev == 0 || prev == side {
		return 0
	}
	return side
}

// Reset forgets the previous side, e.g. when the reference line is not
// defined yet.
func (c *crossOver) Reset() { c.side = 0 }
