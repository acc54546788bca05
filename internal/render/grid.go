package render

import (
	"html/template"

	"ProcureAI/internal/domain"
)

// Field is one label/value card.
type Field struct {
	Key   string
	Label string
	Value template.HTML
}

// Column is a table header bound to a document key.
type Column struct {
	Key   string
	Label string
}

// Table is a list of objects laid out as rows.
type Table struct {
	Key     string
	Title   string
	Headers []Column
	Rows    [][]template.HTML
}

// GridView lays out a document as cards plus hoisted tables.
type GridView struct {
	Fields []Field
	Tables []Table
}

// Empty reports whether there is nothing to show.
func (g GridView) Empty() bool {
	return len(g.Fields) == 0 && len(g.Tables) == 0
}

// Grid splits a document into scalar fields and tables. A non-empty list of
// objects becomes its own table, every other value a card.
func Grid(doc domain.Document) GridView {
	var view GridView
	for _, key := range doc.Keys() {
		value, _ := doc.Get(key)
		if list, ok := value.([]any); ok {
			if rows, ok := objectRows(list); ok {
				view.Tables = append(view.Tables, buildTable(key, rows))
				continue
			}
		}
		view.Fields = append(view.Fields, Field{Key: key, Label: FormatKey(key), Value: FormatValue(value)})
	}
	return view
}

// buildTable uses the union of item keys, in first-seen order, as headers.
func buildTable(key string, rows []*domain.Document) Table {
	t := Table{Key: key, Title: FormatKey(key)}

	seen := map[string]bool{}
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				t.Headers = append(t.Headers, Column{Key: k, Label: FormatKey(k)})
			}
		}
	}

	for _, row := range rows {
		cells := make([]template.HTML, 0, len(t.Headers))
		for _, h := range t.Headers {
			v, _ := row.Get(h.Key)
			cells = append(cells, FormatValue(v))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
