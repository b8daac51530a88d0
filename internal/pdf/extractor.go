package pdfutil

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ErrNoPages is returned for documents that parse but contain no pages.
var ErrNoPages = errors.New("pdf has no pages")

// Info describes a parsed PDF.
type Info struct {
	Pages int
}

// Inspect parses PDF bytes with ledongthuc/pdf and reports the page count.
// The parser panics on some malformed inputs; those are returned as errors.
func Inspect(data []byte) (info Info, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("new pdf reader: %w", err)
	}
	info.Pages = doc.NumPage()
	if info.Pages == 0 {
		return info, ErrNoPages
	}
	return info, nil
}

// ExtractText returns the plain text of every page, one page per line block.
func ExtractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
