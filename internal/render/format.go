// Package render turns open-ended documents and proposals into HTML views.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"ProcureAI/internal/domain"
)

const (
	emptyValue    = "-"
	objectPreview = 50
	dateLayout    = "Jan 2, 2006, 3:04 PM"
	missingDate   = "N/A"
)

// FormatKey turns camelCase and snake_case keys into words with a leading capital.
func FormatKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return out
	}
	first, size := utf8.DecodeRuneInString(out)
	return string(unicode.ToUpper(first)) + out[size:]
}

// FormatValue renders one document value as escaped HTML.
func FormatValue(v any) template.HTML {
	switch t := v.(type) {
	case nil:
		return emptyValue
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case float64:
		return template.HTML(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return template.HTML(strconv.Itoa(t))
	case int64:
		return template.HTML(strconv.FormatInt(t, 10))
	case string:
		return template.HTML(template.HTMLEscapeString(t))
	case []any:
		if rows, ok := objectRows(t); ok {
			return tableHTML(buildTable("", rows))
		}
		return listHTML(t)
	case *domain.Document:
		return previewObject(t)
	case domain.Document:
		return previewObject(t)
	default:
		return template.HTML(template.HTMLEscapeString(fmt.Sprint(t)))
	}
}

// FormatDate renders a timestamp for display; the zero time is "N/A".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return missingDate
	}
	return t.Format(dateLayout)
}

func previewObject(v any) template.HTML {
	raw, err := json.Marshal(v)
	if err != nil {
		return emptyValue
	}
	text := string(raw)
	if utf8.RuneCountInString(text) > objectPreview {
		text = string([]rune(text)[:objectPreview])
	}
	return template.HTML(template.HTMLEscapeString(text + "..."))
}

func listHTML(items []any) template.HTML {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, item := range items {
		b.WriteString("<li>")
		b.WriteString(string(FormatValue(item)))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return template.HTML(b.String())
}

func tableHTML(t Table) template.HTML {
	var b strings.Builder
	b.WriteString(`<table class="sub-table"><thead><tr>`)
	for _, h := range t.Headers {
		b.WriteString("<th>")
		b.WriteString(template.HTMLEscapeString(h.Label))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(string(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return template.HTML(b.String())
}

// objectRows reports whether items is a non-empty list of objects.
func objectRows(items []any) ([]*domain.Document, bool) {
	if len(items) == 0 {
		return nil, false
	}
	rows := make([]*domain.Document, 0, len(items))
	for _, item := range items {
		switch doc := item.(type) {
		case *domain.Document:
			rows = append(rows, doc)
		case domain.Document:
			rows = append(rows, &doc)
		default:
			return nil, false
		}
	}
	return rows, true
}
