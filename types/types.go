package types

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type Order struct {
	Symbol string
	Side   Side
	Qty    float64
	Price  float64 // limit price; 0 = market
	// meta
	Comment string
}

// SignedQty returns Qty with the sign of the side (positive = buy).
func (o Order) SignedQty() float64 {
	if o.Side == Sell {
		return -o.Qty
	}
	return o.Qty
}

// OrderStatus mirrors the broker-reported lifecycle of a submitted order.
type OrderStatus string

const (
	StatusSubmitted OrderStatus = "SUBMITTED"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCanceled  OrderStatus = "CANCELED"
	StatusMargin    OrderStatus = "MARGIN"
	StatusRejected  OrderStatus = "REJECTED"
)

// Terminal reports whether no further updates will follow this status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusMargin, StatusRejected:
		return true
	}
	return false
}

// Failed reports whether the order ended without executing.
func (s OrderStatus) Failed() bool {
	return s == StatusCanceled || s == StatusMargin || s == StatusRejected
}

// OrderUpdate is one asynchronous status notification for a submitted order.
type OrderUpdate struct {
	Handle string
	Order  Order
	Status OrderStatus
	// Filled only for StatusCompleted.
	ExecutedPrice float64
	ExecutedValue float64
	Time          time.Time
}

// Position is the broker-reported holding of one symbol.
type Position struct {
	Size  float64 // signed, negative = short
	Price float64 // average entry price
}

// Bar is one OHLCV period.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceObservation is the closing price of one period.
type PriceObservation struct {
	Time  time.Time
	Close float64
}

// Observation extracts the closing observation of the bar.
func (b Bar) Observation() PriceObservation {
	return PriceObservation{Time: b.Time, Close: b.Close}
}
