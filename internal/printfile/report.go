package printfile

import "github.com/shopspring/decimal"

// Dimension sources, ordered by confidence.
const (
	SourceContourPath = "contour_path"
	SourceTrimBox     = "trim_box"
	SourceMediaBox    = "media_box"
)

// BoundingBox is an axis-aligned box in PDF points.
type BoundingBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the box width in points.
func (b BoundingBox) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the box height in points.
func (b BoundingBox) Height() float64 {
	return b.MaxY - b.MinY
}

// Report is the outcome of analyzing a print-ready PDF.
type Report struct {
	// Layers holds every optional content group name found in the document.
	Layers []string
	// SpotColors holds every Separation colorant name found in the document.
	SpotColors []string
	// CutLines holds the layer or colorant names that matched a configured
	// cut-contour marker, in discovery order.
	CutLines []string
	// HasCutContour is true when at least one marker matched.
	HasCutContour bool
	// DimensionSource names where the bounding box came from.
	DimensionSource string
	// BBox is the measured bounding box in points, nil when nothing usable
	// was found.
	BBox *BoundingBox
	// WidthIn and HeightIn are the box dimensions converted to inches,
	// valid only when BBox is set.
	WidthIn  decimal.NullDecimal
	HeightIn decimal.NullDecimal
}

var pointsPerInch = decimal.NewFromInt(72)

func (r *Report) setBox(box BoundingBox, source string) {
	r.BBox = &box
	r.DimensionSource = source
	r.WidthIn = toInches(box.Width())
	r.HeightIn = toInches(box.Height())
}

func toInches(points float64) decimal.NullDecimal {
	if points <= 0 {
		return decimal.NullDecimal{}
	}
	inches := decimal.NewFromFloat(points).Div(pointsPerInch).Round(3)
	return decimal.NullDecimal{Decimal: inches, Valid: true}
}
