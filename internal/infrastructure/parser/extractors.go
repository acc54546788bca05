package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"ProcureAI/internal/attachment"
)

// PDFExtractor reads the text layer of PDF attachments.
type PDFExtractor struct{}

var _ attachment.Extractor = PDFExtractor{}

func (PDFExtractor) ContentType() string { return "application/pdf" }

// Extract returns the plain text of every page.
func (PDFExtractor) Extract(_ context.Context, part attachment.Part) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", part.Filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(part.Data), int64(len(part.Data)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", part.Filename, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf %s: %w", part.Filename, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", part.Filename, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// HTMLExtractor renders HTML attachments as text.
type HTMLExtractor struct{}

var _ attachment.Extractor = HTMLExtractor{}

func (HTMLExtractor) ContentType() string { return "text/html" }

func (HTMLExtractor) Extract(_ context.Context, part attachment.Part) (string, error) {
	return htmlToText(bytes.NewReader(part.Data))
}

// TextExtractor passes plain text attachments through.
type TextExtractor struct{}

var _ attachment.Extractor = TextExtractor{}

func (TextExtractor) ContentType() string { return "text/plain" }

func (TextExtractor) Extract(_ context.Context, part attachment.Part) (string, error) {
	return strings.TrimSpace(string(part.Data)), nil
}

// DefaultRegistry registers the PDF, HTML and plain text extractors.
func DefaultRegistry() *attachment.Registry {
	return attachment.NewRegistry(PDFExtractor{}, HTMLExtractor{}, TextExtractor{})
}

const blockElements = "p, div, br, tr, li, h1, h2, h3, h4, h5, h6, table"

func htmlToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, head").Remove()
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("td, th").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return collapseWhitespace(doc.Text()), nil
}

func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
