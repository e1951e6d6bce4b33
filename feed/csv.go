// Package feed loads OHLCV bars from CSV exports such as the MetaTrader
// history files the backtests run on.
package feed

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/evdnx/gridtrader/config"
	"github.com/evdnx/gridtrader/types"
)

// ErrNoBars is returned when nothing inside the window could be parsed.
var ErrNoBars = errors.New("feed: no bars in window")

// Options describes the column layout. Columns are fixed:
// datetime, open, high, low, close, volume (volume optional).
type Options struct {
	Layout    string
	From      time.Time // inclusive, zero means unbounded
	To        time.Time // exclusive, zero means unbounded
	NullValue float64   // substituted for empty numeric fields
}

// OptionsFrom maps the backtest section onto feed options.
func OptionsFrom(cfg config.BacktestConfig) (Options, error) {
	from, to, err := cfg.Window()
	if err != nil {
		return Options{}, err
	}
	layout := cfg.DateLayout
	if layout == "" {
		layout = config.DefaultDateLayout
	}
	return Options{Layout: layout, From: from, To: to, NullValue: cfg.NullValue}, nil
}

// LoadFile opens path and parses it with Load.
func LoadFile(path string, opts Options) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, opts)
}

// Load parses bars from r, dropping those outside the window. A header
// line is skipped when its first field is not a timestamp. The result is
// sorted by time.
func Load(r io.Reader, opts Options) ([]types.Bar, error) {
	if opts.Layout == "" {
		opts.Layout = config.DefaultDateLayout
	}
	cr := csv.NewReader(decodeUTF16(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var bars []types.Bar
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: line %d: %w", line, err)
		}
		if len(rec) < 5 {
			return nil, fmt.Errorf("feed: line %d: expected at least 5 columns, got %d", line, len(rec))
		}
		ts, err := time.Parse(opts.Layout, strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("feed: line %d: %w", line, err)
		}
		if !opts.From.IsZero() && ts.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && !ts.Before(opts.To) {
			continue
		}

		var vals [5]float64
		for i := 1; i < len(rec) && i <= 5; i++ {
			if vals[i-1], err = opts.number(rec[i]); err != nil {
				return nil, fmt.Errorf("feed: line %d column %d: %w", line, i, err)
			}
		}
		if len(rec) < 6 {
			vals[4] = opts.NullValue
		}
		bars = append(bars, types.Bar{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (o Options) number(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		return o.NullValue, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// decodeUTF16 transparently converts UTF-16 exports (detected by BOM) to
// UTF-8.
func decodeUTF16(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	b, _ := br.Peek(2)
	if len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		return transform.NewReader(br, dec)
	}
	return br
}
