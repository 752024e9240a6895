// Package parser extracts plain text from uploaded documents. It
// supports txt, md, pdf, docx and pptx payloads and works entirely
// from the in-memory byte slice, so callers never manage temp files.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// ErrUnsupportedFormat is returned when the file extension maps to no
// known parser.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseError wraps a format-specific extraction failure, typically a
// corrupt or truncated payload.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s document: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SupportedFormats lists the extensions Parse accepts, without dots.
func SupportedFormats() []string {
	return []string{"txt", "md", "pdf", "docx", "pptx"}
}

// Supported reports whether the filename's extension has a parser.
func Supported(filename string) bool {
	switch normalizeExt(filename) {
	case "txt", "md", "pdf", "docx", "pptx":
		return true
	}
	return false
}

// Parse extracts plain text from data, dispatching on the lower-cased
// extension of filename. An empty result with a nil error means the
// document parsed fine but contained no extractable text.
func Parse(filename string, data []byte) (string, error) {
	switch ext := normalizeExt(filename); ext {
	case "txt", "md":
		return parsePlainText(data), nil
	case "pdf":
		return parsePDF(data)
	case "docx":
		return parseDOCX(data)
	case "pptx":
		return parsePPTX(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func normalizeExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// parsePlainText decodes a text payload. Valid UTF-8 passes through;
// otherwise a GBK decode is attempted for legacy Chinese documents,
// and as a last resort undecodable bytes are dropped. Decoding never
// fails the upload.
func parsePlainText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	if decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data); err == nil {
		return string(decoded)
	}
	return strings.ToValidUTF8(string(data), "")
}
