package uploads

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/printforge/proofroom-backend/pkg/config"
	"github.com/printforge/proofroom-backend/pkg/enums"
	pkgerrors "github.com/printforge/proofroom-backend/pkg/errors"
)

// expectedMimesByExt maps each accepted extension to the content types a
// sniff of the file header may legitimately produce. Illustrator files are
// PDF or PostScript based, so both appear under .ai.
var expectedMimesByExt = map[string][]string{
	".ai":   {"application/pdf", "application/postscript"},
	".svg":  {"image/svg+xml", "text/xml"},
	".eps":  {"application/postscript"},
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".psd":  {"image/vnd.adobe.photoshop"},
	".pdf":  {"application/pdf"},
}

// genericMimes are sniff results that carry no real signal; the extension
// decides for these.
var genericMimes = []string{
	"application/octet-stream",
	"text/plain",
	"text/plain; charset=utf-8",
}

// Validator checks proof files before any bytes leave the process.
type Validator struct {
	cfg config.UploadsConfig
}

// NewValidator builds a validator from the uploads configuration.
func NewValidator(cfg config.UploadsConfig) *Validator {
	return &Validator{cfg: cfg}
}

// FileInfo describes a candidate file. Peek holds the leading bytes for
// content sniffing and may be empty when the caller cannot provide them.
type FileInfo struct {
	Name string
	Size int64
	Peek []byte
}

// MaxBytes returns the upload ceiling for the channel.
func (v *Validator) MaxBytes(role enums.ActorRole) int64 {
	if role == enums.ActorRoleCustomer {
		return v.cfg.CustomerMaxUploadBytes()
	}
	return v.cfg.AdminMaxUploadBytes()
}

// Validate rejects files with a disallowed extension, an out-of-range size,
// or a header that contradicts the extension. It never reads the full file.
func (v *Validator) Validate(role enums.ActorRole, info FileInfo) error {
	name := strings.TrimSpace(info.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}

	ext := strings.ToLower(path.Ext(name))
	expected, ok := expectedMimesByExt[ext]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file type %q is not accepted", ext)).
			WithDetails(map[string]any{"accepted": acceptedExtensions()})
	}

	if info.Size <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if limit := v.MaxBytes(role); info.Size > limit {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d MB limit", limit/(1024*1024))).
			WithDetails(map[string]any{"size_bytes": info.Size, "limit_bytes": limit})
	}

	if len(info.Peek) == 0 {
		return nil
	}
	detected := mimetype.Detect(info.Peek)
	for _, mime := range expected {
		if detected.Is(mime) {
			return nil
		}
	}
	for _, mime := range genericMimes {
		if detected.Is(mime) {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("file content %q does not match extension %q", detected.String(), ext))
}

// IsPDF reports whether the analyzer should be run for the file.
func IsPDF(name string) bool {
	return strings.ToLower(path.Ext(strings.TrimSpace(name))) == ".pdf"
}

func acceptedExtensions() []string {
	exts := make([]string, 0, len(expectedMimesByExt))
	for ext := range expectedMimesByExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
