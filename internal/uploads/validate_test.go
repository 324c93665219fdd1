package uploads

import (
	"strings"
	"testing"

	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/enums"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
)

func testValidator() *Validator {
	return NewValidator(config.UploadsConfig{
		AdminMaxUploadMB:    10,
		CustomerMaxUploadMB: 25,
	})
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateAcceptsKnownExtensions(t *testing.T) {
	t.Parallel()

	v := testValidator()
	for _, name := range []string{
		"design.ai", "logo.SVG", "plot.eps", "art.png",
		"photo.jpg", "photo.jpeg", "comp.psd", "proof.pdf",
	} {
		if err := v.Validate(enums.ActorRoleAdmin, FileInfo{Name: name, Size: 1024}); err != nil {
			t.Fatalf("Validate(%s): %v", name, err)
		}
	}
}

func TestValidateRejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	err := testValidator().Validate(enums.ActorRoleAdmin, FileInfo{Name: "notes.docx", Size: 1024})
	assertValidationError(t, err)
}

func TestValidateRejectsEmptyFile(t *testing.T) {
	t.Parallel()

	err := testValidator().Validate(enums.ActorRoleAdmin, FileInfo{Name: "proof.pdf", Size: 0})
	assertValidationError(t, err)
}

func TestValidateSizeCeilingsPerChannel(t *testing.T) {
	t.Parallel()

	v := testValidator()
	tenMB := int64(10 * 1024 * 1024)
	twentyFiveMB := int64(25 * 1024 * 1024)

	if err := v.Validate(enums.ActorRoleAdmin, FileInfo{Name: "proof.pdf", Size: tenMB}); err != nil {
		t.Fatalf("admin upload at ceiling should pass: %v", err)
	}
	assertValidationError(t, v.Validate(enums.ActorRoleAdmin, FileInfo{Name: "proof.pdf", Size: tenMB + 1}))

	if err := v.Validate(enums.ActorRoleCustomer, FileInfo{Name: "revision.pdf", Size: twentyFiveMB}); err != nil {
		t.Fatalf("customer upload at ceiling should pass: %v", err)
	}
	assertValidationError(t, v.Validate(enums.ActorRoleCustomer, FileInfo{Name: "revision.pdf", Size: twentyFiveMB + 1}))
}

func TestValidateSniffsHeader(t *testing.T) {
	t.Parallel()

	v := testValidator()
	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

	if err := v.Validate(enums.ActorRoleAdmin, FileInfo{Name: "art.png", Size: 512, Peek: pngHeader}); err != nil {
		t.Fatalf("png header with png extension should pass: %v", err)
	}
	assertValidationError(t, v.Validate(enums.ActorRoleAdmin, FileInfo{Name: "proof.pdf", Size: 512, Peek: pngHeader}))

	pdfHeader := []byte("%PDF-1.7\n1 0 obj")
	if err := v.Validate(enums.ActorRoleAdmin, FileInfo{Name: "proof.pdf", Size: 512, Peek: pdfHeader}); err != nil {
		t.Fatalf("pdf header with pdf extension should pass: %v", err)
	}
	if err := v.Validate(enums.ActorRoleAdmin, FileInfo{Name: "design.ai", Size: 512, Peek: pdfHeader}); err != nil {
		t.Fatalf("pdf header with ai extension should pass: %v", err)
	}
}

func TestValidateAllowsGenericSniff(t *testing.T) {
	t.Parallel()

	opaque := []byte{0x00, 0x01, 0x02, 0x03}
	if err := testValidator().Validate(enums.ActorRoleAdmin, FileInfo{Name: "comp.psd", Size: 512, Peek: opaque}); err != nil {
		t.Fatalf("generic sniff should defer to extension: %v", err)
	}
}

func TestIsPDF(t *testing.T) {
	t.Parallel()

	if !IsPDF("proof.PDF") {
		t.Fatal("expected pdf")
	}
	if IsPDF("art.png") || IsPDF(strings.Repeat("x", 3)) {
		t.Fatal("expected not pdf")
	}
}
