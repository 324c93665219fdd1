package printfile

import "github.com/shopspring/decimal"

// DimensionTolerance is the per-axis slack when comparing extracted artwork
// dimensions against the ordered product size, in inches.
var DimensionTolerance = decimal.NewFromFloat(0.1)

// DimensionsMatch reports whether the extracted width and height agree with
// the ordered dimensions within tolerance on both axes. Missing values on
// either side mean no comparison is possible and count as a match.
func DimensionsMatch(orderedW, orderedH, extractedW, extractedH decimal.NullDecimal) bool {
	if !orderedW.Valid || !orderedH.Valid || !extractedW.Valid || !extractedH.Valid {
		return true
	}
	return withinTolerance(orderedW.Decimal, extractedW.Decimal) &&
		withinTolerance(orderedH.Decimal, extractedH.Decimal)
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(DimensionTolerance)
}
