package printfile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/printforge/proofroom-backend/pkg/config"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
)

// maxDocumentBytes caps how much of a PDF the analyzer will read.
const maxDocumentBytes = 64 << 20

// Analyzer inspects print-ready PDFs for cutter guides and physical size.
type Analyzer struct {
	markers []string
}

// New builds an analyzer from the configured contour marker names.
func New(cfg config.AnalyzerConfig) *Analyzer {
	markers := make([]string, 0, len(cfg.ContourMarkers))
	for _, marker := range cfg.ContourMarkers {
		if normalized := normalizeMarker(marker); normalized != "" {
			markers = append(markers, normalized)
		}
	}
	return &Analyzer{markers: markers}
}

// Analyze reads the whole document and reports layers, spot colors, cutter
// guides, and the measured bounding box. A document without a cut contour is
// a valid result, not an error; only unreadable input fails.
func (a *Analyzer) Analyze(ctx context.Context, r io.Reader) (*Report, error) {
	if r == nil {
		return nil, pkgerrors.New(pkgerrors.CodeAnalysis, "no document provided")
	}
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "analysis cancelled")
	}

	data, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeAnalysis, err, "reading document")
	}
	if len(data) > maxDocumentBytes {
		return nil, pkgerrors.New(pkgerrors.CodeAnalysis, "document exceeds analyzer size limit")
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, pkgerrors.New(pkgerrors.CodeAnalysis, "document is not a PDF")
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "analysis cancelled")
	}

	report := &Report{
		Layers:     doc.layerNames(),
		SpotColors: doc.spotColorNames(),
	}

	for _, name := range report.Layers {
		if a.matches(name) {
			report.CutLines = appendUnique(report.CutLines, name)
		}
	}
	for _, name := range report.SpotColors {
		if a.matches(name) {
			report.CutLines = appendUnique(report.CutLines, name)
		}
	}
	report.HasCutContour = len(report.CutLines) > 0

	if report.HasCutContour {
		if box, ok := doc.contourBoundingBox(a.matches); ok {
			report.setBox(box, SourceContourPath)
			return report, nil
		}
	}
	if box, ok := doc.pageBox("TrimBox"); ok {
		report.setBox(box, SourceTrimBox)
		return report, nil
	}
	if box, ok := doc.pageBox("MediaBox"); ok {
		report.setBox(box, SourceMediaBox)
		return report, nil
	}
	if report.HasCutContour {
		return nil, pkgerrors.New(pkgerrors.CodeAnalysis, "cut contour found but no measurable geometry")
	}
	return report, nil
}

func (a *Analyzer) matches(name string) bool {
	normalized := normalizeMarker(name)
	if normalized == "" {
		return false
	}
	for _, marker := range a.markers {
		if normalized == marker {
			return true
		}
	}
	return false
}

// normalizeMarker collapses case, spaces, hyphens, and underscores so
// "Cut Contour", "cut-contour", and "CutContour" compare equal.
func normalizeMarker(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

// DescribeReport renders a short human-readable summary for logs.
func DescribeReport(r *Report) string {
	if r == nil {
		return "no report"
	}
	if !r.HasCutContour {
		return fmt.Sprintf("no cut contour (%d layers, %d spot colors)", len(r.Layers), len(r.SpotColors))
	}
	if r.WidthIn.Valid && r.HeightIn.Valid {
		return fmt.Sprintf("cut contour %s, %s x %s in (%s)",
			strings.Join(r.CutLines, ","), r.WidthIn.Decimal, r.HeightIn.Decimal, r.DimensionSource)
	}
	return fmt.Sprintf("cut contour %s, no dimensions", strings.Join(r.CutLines, ","))
}
