package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// YearReturn is the fractional return of one calendar year.
type YearReturn struct {
	Year   int
	Return float64
}

// AnnualReturn computes calendar-year returns from sampled account values.
// The first sample of the run is the base of the first year; each later
// year starts from the last value of the previous one.
type AnnualReturn struct {
	year       int
	valueStart float64
	valueEnd   float64
	done       []YearReturn
}

func NewAnnualReturn() *AnnualReturn {
	return &AnnualReturn{year: -1}
}

// Observe records the account value after the bar at t. Samples must be
// in time order.
func (a *AnnualReturn) Observe(t time.Time, value float64) {
	y := t.Year()
	if y > a.year {
		if a.year >= 0 {
			a.done = append(a.done, YearReturn{Year: a.year, Return: ratio(a.valueEnd, a.valueStart)})
			a.valueStart = a.valueEnd
		} else {
			a.valueStart = value
		}
		a.year = y
	}
	a.valueEnd = value
}

// Returns lists completed years plus the current, possibly partial, one.
func (a *AnnualReturn) Returns() []YearReturn {
	out := make([]YearReturn, len(a.done), len(a.done)+1)
	copy(out, a.done)
	if a.year >= 0 {
		out = append(out, YearReturn{Year: a.year, Return: ratio(a.valueEnd, a.valueStart)})
	}
	return out
}

func ratio(end, start float64) float64 {
	if start == 0 {
		return 0
	}
	return end/start - 1
}

// WriteAnnualReturnsCSV writes the Year,AnnualReturn table.
func WriteAnnualReturnsCSV(w io.Writer, rets []YearReturn) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Year", "AnnualReturn"}); err != nil {
		return err
	}
	for _, r := range rets {
		rec := []string{strconv.Itoa(r.Year), strconv.FormatFloat(r.Return, 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveAnnualReturns writes the table to path, replacing any previous file.
func SaveAnnualReturns(path string, rets []YearReturn) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("backtest: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteAnnualReturnsCSV(f, rets)
}
