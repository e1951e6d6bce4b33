// Package audit persists the strategy's decision trail.
//
// Two streams are written for every run:
//   - a human-readable text log, one "<timestamp>, <message>" line per event
//   - a structured activity record per submitted order
//
// Every write is flushed before the call returns, so a crash loses at most
// the write that was in flight.
package audit

import (
	"strconv"
	"time"

	"go.uber.org/multierr"
)

// TimeLayout formats timestamps in both audit streams.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one structured activity row, written before the order it
// describes is submitted.
type Record struct {
	Time          time.Time
	Count         int64
	Price         float64
	DiffUnits     int64
	Value         float64
	Cash          float64
	PositionSize  float64
	PositionPrice float64
}

// Header is the column layout of the CSV activity file.
var Header = []string{"datetime", "count", "price", "unit", "value", "cash", "posi_size", "posi_price"}

// Fields renders the record in Header order.
func (r Record) Fields() []string {
	return []string{
		r.Time.Format(TimeLayout),
		strconv.FormatInt(r.Count, 10),
		strconv.FormatFloat(r.Price, 'f', 4, 64),
		strconv.FormatInt(r.DiffUnits, 10),
		strconv.FormatFloat(r.Value, 'f', 2, 64),
		strconv.FormatFloat(r.Cash, 'f', 2, 64),
		strconv.FormatFloat(r.PositionSize, 'f', 0, 64),
		strconv.FormatFloat(r.PositionPrice, 'f', 4, 64),
	}
}

// Sink receives the audit trail.
type Sink interface {
	Log(ts time.Time, msg string) error
	Record(r Record) error
	Close() error
}

// MultiSink fans every write out to all sinks and reports the combined error.
type MultiSink []Sink

func (m MultiSink) Log(ts time.Time, msg string) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Log(ts, msg))
	}
	return err
}

func (m MultiSink) Record(r Record) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Record(r))
	}
	return err
}

func (m MultiSink) Close() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Close())
	}
	return err
}
