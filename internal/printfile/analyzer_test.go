package printfile

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/printforge/proofroom-backend/pkg/config"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
)

func defaultAnalyzer() *Analyzer {
	return New(config.AnalyzerConfig{
		ContourMarkers: []string{"CutContour", "Cut Contour", "cutcontour", "Thru-cut"},
	})
}

func TestAnalyzeLayerContourWithPath(t *testing.T) {
	t.Parallel()

	pdf := strings.Join([]string{
		"%PDF-1.7",
		"1 0 obj",
		"<< /Type /OCG /Name (CutContour) >>",
		"endobj",
		"2 0 obj",
		"<< /Length 64 >>",
		"stream",
		"/CutContour CS 0 0 m 144 0 l 144 288 l 0 288 l h S",
		"endstream",
		"endobj",
		"%%EOF",
	}, "\n")

	report, err := defaultAnalyzer().Analyze(context.Background(), strings.NewReader(pdf))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.HasCutContour {
		t.Fatal("expected cut contour")
	}
	if len(report.CutLines) != 1 || report.CutLines[0] != "CutContour" {
		t.Fatalf("unexpected cut lines %v", report.CutLines)
	}
	if report.DimensionSource != SourceContourPath {
		t.Fatalf("expected contour path source, got %s", report.DimensionSource)
	}
	if !report.WidthIn.Valid || !report.WidthIn.Decimal.Equal(mustDecimal(t, "2")) {
		t.Fatalf("unexpected width %v", report.WidthIn)
	}
	if !report.HeightIn.Valid || !report.HeightIn.Decimal.Equal(mustDecimal(t, "4")) {
		t.Fatalf("unexpected height %v", report.HeightIn)
	}
}

func TestAnalyzeSpotColorFallsBackToTrimBox(t *testing.T) {
	t.Parallel()

	pdf := strings.Join([]string{
		"%PDF-1.7",
		"1 0 obj",
		"[ /Separation /Cut#20Contour /DeviceCMYK 2 0 R ]",
		"endobj",
		"3 0 obj",
		"<< /Type /Page /TrimBox [0 0 360 180] /MediaBox [0 0 612 792] >>",
		"endobj",
		"%%EOF",
	}, "\n")

	report, err := defaultAnalyzer().Analyze(context.Background(), strings.NewReader(pdf))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.HasCutContour {
		t.Fatal("expected cut contour from spot color")
	}
	if len(report.SpotColors) != 1 || report.SpotColors[0] != "Cut Contour" {
		t.Fatalf("unexpected spot colors %v", report.SpotColors)
	}
	if report.DimensionSource != SourceTrimBox {
		t.Fatalf("expected trim box source, got %s", report.DimensionSource)
	}
	if !report.WidthIn.Decimal.Equal(mustDecimal(t, "5")) || !report.HeightIn.Decimal.Equal(mustDecimal(t, "2.5")) {
		t.Fatalf("unexpected dimensions %v x %v", report.WidthIn, report.HeightIn)
	}
}

func TestAnalyzeNoContourIsNotAnError(t *testing.T) {
	t.Parallel()

	pdf := strings.Join([]string{
		"%PDF-1.7",
		"1 0 obj",
		"<< /Type /OCG /Name (Artwork) >>",
		"endobj",
		"2 0 obj",
		"[ /Separation /PANTONE#20185#20C /DeviceCMYK 3 0 R ]",
		"endobj",
		"4 0 obj",
		"<< /Type /Page /MediaBox [0 0 612 792] >>",
		"endobj",
		"%%EOF",
	}, "\n")

	report, err := defaultAnalyzer().Analyze(context.Background(), strings.NewReader(pdf))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.HasCutContour {
		t.Fatal("expected no cut contour")
	}
	if len(report.Layers) != 1 || report.Layers[0] != "Artwork" {
		t.Fatalf("unexpected layers %v", report.Layers)
	}
	if len(report.SpotColors) != 1 || report.SpotColors[0] != "PANTONE 185 C" {
		t.Fatalf("unexpected spot colors %v", report.SpotColors)
	}
	if report.DimensionSource != SourceMediaBox {
		t.Fatalf("expected media box source, got %s", report.DimensionSource)
	}
}

func TestAnalyzeCompressedContentStream(t *testing.T) {
	t.Parallel()

	content := "/Thru-cut cs 36 36 216 108 re f"
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("compress content: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}

	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.7\n")
	pdf.WriteString("1 0 obj\n[ /Separation /Thru-cut /DeviceCMYK 2 0 R ]\nendobj\n")
	fmt.Fprintf(&pdf, "3 0 obj\n<< /Length %d /Filter /FlateDecode >>\nstream\n", compressed.Len())
	pdf.Write(compressed.Bytes())
	pdf.WriteString("\nendstream\nendobj\n%%EOF")

	report, err := defaultAnalyzer().Analyze(context.Background(), bytes.NewReader(pdf.Bytes()))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !report.HasCutContour {
		t.Fatal("expected cut contour")
	}
	if report.DimensionSource != SourceContourPath {
		t.Fatalf("expected contour path source, got %s", report.DimensionSource)
	}
	if !report.WidthIn.Decimal.Equal(mustDecimal(t, "3")) || !report.HeightIn.Decimal.Equal(mustDecimal(t, "1.5")) {
		t.Fatalf("unexpected dimensions %v x %v", report.WidthIn, report.HeightIn)
	}
}

func TestAnalyzeRejectsNonPDF(t *testing.T) {
	t.Parallel()

	_, err := defaultAnalyzer().Analyze(context.Background(), strings.NewReader("not a pdf at all"))
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeAnalysis {
		t.Fatalf("expected analysis error, got %v", err)
	}
}

func TestAnalyzeRejectsEmptyPDF(t *testing.T) {
	t.Parallel()

	_, err := defaultAnalyzer().Analyze(context.Background(), strings.NewReader("%PDF-1.7\n%%EOF"))
	if err == nil {
		t.Fatal("expected error for document without objects")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeAnalysis {
		t.Fatalf("expected analysis error, got %v", err)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := defaultAnalyzer().Analyze(ctx, strings.NewReader("%PDF-1.7\n1 0 obj\nendobj\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCancelled {
		t.Fatalf("expected cancelled error, got %v", err)
	}
}

func TestNormalizeMarker(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"CutContour":  "cutcontour",
		"Cut Contour": "cutcontour",
		"cut-contour": "cutcontour",
		"THRU_CUT":    "thrucut",
		"  ":          "",
	}
	for in, want := range cases {
		if got := normalizeMarker(in); got != want {
			t.Fatalf("normalizeMarker(%q) = %q, want %q", in, got, want)
		}
	}
}
