package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF extracts text page by page. Unreadable pages are skipped so
// a single bad page does not sink the whole document. The pdf reader
// panics on some malformed inputs, so extraction runs behind a recover.
func parsePDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ParseError{Format: "pdf", Err: fmt.Errorf("reader panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ParseError{Format: "pdf", Err: err}
	}

	var pages []string
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n"), nil
}
