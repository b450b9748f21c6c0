// Package extract pulls plain text out of uploaded resumes.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MIMEPDF = "application/pdf"

	defaultMaxPages = 10
)

var (
	// ErrNotPDF is returned for payloads without the PDF header.
	ErrNotPDF = errors.New("payload is not a pdf")
	// ErrNoText is returned when a PDF holds no extractable text, e.g. a scan.
	ErrNoText = errors.New("pdf contains no extractable text")
)

// PDF extracts text from PDF documents using ledongthuc/pdf.
type PDF struct {
	// MaxPages caps the pages read. Zero means the default of 10.
	MaxPages int
}

// Text returns the plain text of the first MaxPages pages of data.
func (p PDF) Text(data []byte) (text string, err error) {
	if !IsPDF(data) {
		return "", ErrNotPDF
	}

	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	var sb strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total && i <= maxPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
	}

	if sb.Len() == 0 {
		return "", ErrNoText
	}
	return sb.String(), nil
}

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-"))
}

// DetectMIME guesses the media type of an upload from its content, falling
// back to the file extension.
func DetectMIME(fileName string, data []byte) string {
	if IsPDF(data) {
		return MIMEPDF
	}
	if len(data) > 0 {
		if detected := http.DetectContentType(data); detected != "application/octet-stream" {
			return strings.Split(detected, ";")[0]
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		return strings.Split(byExt, ";")[0]
	}
	return "application/octet-stream"
}
