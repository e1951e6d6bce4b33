package testutils

import (
	"fmt"
	"sync"

	"github.com/evdnx/gridtrader/types"
)

// MockExecutor implements the Executor interface in‑memory. Orders are only
// captured on Submit; tests decide their outcome with Complete or Fail.
type MockExecutor struct {
	mu        sync.RWMutex
	value     float64
	cash      float64
	positions map[string]types.Position
	orders    []types.Order // captured for assertions
	handles   map[string]types.Order
	seq       int

	// SubmitErr, when set, is returned by every Submit.
	SubmitErr error
}

// NewMockExecutor creates a fresh executor with the supplied starting cash.
func NewMockExecutor(startCash float64) *MockExecutor {
	return &MockExecutor{
		value:     startCash,
		cash:      startCash,
		positions: make(map[string]types.Position),
		handles:   make(map[string]types.Order),
	}
}

// Submit records the order and returns a sequential handle.
func (m *MockExecutor) Submit(o types.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	m.seq++
	h := fmt.Sprintf("order-%d", m.seq)
	m.orders = append(m.orders, o)
	m.handles[h] = o
	return h, nil
}

// Complete books the order behind handle at price and returns the matching
// COMPLETED update.
func (m *MockExecutor) Complete(handle string, price float64) types.OrderUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.handles[handle]
	pos := m.positions[o.Symbol]
	newSize := pos.Size + o.SignedQty()
	if newSize != 0 {
		pos.Price = (pos.Size*pos.Price + o.SignedQty()*price) / newSize
	} else {
		pos.Price = 0
	}
	pos.Size = newSize
	m.positions[o.Symbol] = pos
	return types.OrderUpdate{
		Handle:        handle,
		Order:         o,
		Status:        types.StatusCompleted,
		ExecutedPrice: price,
		ExecutedValue: o.Qty * price,
	}
}

// Fail returns a terminal failure update for handle without touching the
// account.
func (m *MockExecutor) Fail(handle string, status types.OrderStatus) types.OrderUpdate {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return types.OrderUpdate{Handle: handle, Order: m.handles[handle], Status: status}
}

// SetPosition overrides the broker-reported position.
func (m *MockExecutor) SetPosition(symbol string, pos types.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[symbol] = pos
}

// Position returns qty & avg price for a symbol.
func (m *MockExecutor) Position(symbol string) types.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.positions[symbol]
}

func (m *MockExecutor) Value() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

func (m *MockExecutor) Cash() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cash
}

// Orders returns a copy of all submitted orders (useful for assertions).
func (m *MockExecutor) Orders() []types.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

// LastHandle is the handle of the most recent successful Submit.
func (m *MockExecutor) LastHandle() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.seq == 0 {
		return ""
	}
	return fmt.Sprintf("order-%d", m.seq)
}
