package risk

import "math"

// UnitsFromPosition converts a broker position size into whole grid units,
// truncating toward zero.
func UnitsFromPosition(size, valueUnit float64) int64 {
	if valueUnit == 0 {
		return 0
	}
	return int64(size / valueUnit)
}

// OrderQty is the order size for a move of diffUnits grid units.
func OrderQty(valueUnit float64, diffUnits int64) float64 {
	return valueUnit * math.Abs(float64(diffUnits))
}

// WithinCap reports whether moving from units by diffUnits keeps the held
// grid position inside [-maxUnit, maxUnit].
func WithinCap(units, diffUnits, maxUnit int64) bool {
	target := units + diffUnits
	if target < 0 {
		target = -target
	}
	return target <= maxUnit
}
