package insights

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ettle/strcase"
)

// NotAvailable replaces missing or empty values.
const NotAvailable = "N/A"

// ColumnFormat selects how a raw value is displayed.
type ColumnFormat int

const (
	FormatText ColumnFormat = iota
	FormatDate
	FormatCurrency
	FormatDecimal
)

// Column declares one table column.
type Column struct {
	Header string
	Key    string
	Format ColumnFormat
	// Render overrides the keyed value when set.
	Render func(Row) string
	// Trigger makes the cell open a drill-down.
	Trigger func(Row) *Trigger
}

// Cell renders the column for row.
func (c Column) Cell(row Row) Cell {
	raw, hasRaw := row[c.Key]
	if c.Key == "" {
		hasRaw = false
	}
	var cell Cell
	if hasRaw && raw != nil {
		cell.Tooltip = stringValue(raw, "")
	}
	switch {
	case c.Render != nil:
		cell.Text = c.Render(row)
	case hasRaw && raw != nil:
		cell.Text = formatColumnValue(c.Format, raw)
	}
	if strings.TrimSpace(cell.Text) == "" {
		cell.Text = NotAvailable
	}
	if cell.Tooltip == NotAvailable {
		cell.Tooltip = ""
	}
	if c.Trigger != nil {
		cell.Trigger = c.Trigger(row)
	}
	return cell
}

func formatColumnValue(format ColumnFormat, raw any) string {
	switch format {
	case FormatDate:
		return FormatDateText(stringValue(raw, ""))
	case FormatCurrency:
		return FormatMoney(float64Value(raw))
	case FormatDecimal:
		if s, ok := raw.(string); ok {
			return s
		}
		return fmt.Sprintf("%.1f", float64Value(raw))
	default:
		return stringValue(raw, "")
	}
}

// RenderTable renders rows with explicit columns, or with columns derived from the
// first row when none are declared.
func RenderTable(cols []Column, rows []Row) ([]string, [][]Cell) {
	if len(cols) == 0 {
		cols = ColumnsFromRows(rows)
	}
	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Header
	}
	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		line := make([]Cell, len(cols))
		for j, col := range cols {
			line[j] = col.Cell(row)
		}
		cells[i] = line
	}
	return headers, cells
}

// ColumnRenderer adapts a column spec to a section renderer.
func ColumnRenderer(cols []Column) TableRenderer[Row] {
	return func(rows []Row) ([]string, [][]Cell) {
		return RenderTable(cols, rows)
	}
}

// ColumnsFromRows derives text columns from the keys of the first row.
func ColumnsFromRows(rows []Row) []Column {
	if len(rows) == 0 {
		return nil
	}
	keys := make([]string, 0, len(rows[0]))
	for key := range rows[0] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	cols := make([]Column, len(keys))
	for i, key := range keys {
		cols[i] = Column{Header: strcase.ToCase(key, strcase.TitleCase, ' '), Key: key}
	}
	return cols
}

var dateLayouts = []string{time.DateOnly, "02/01/2006"}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if idx := strings.IndexAny(value, " T"); idx > 0 {
		value = value[:idx]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// daysBetween returns to minus from in whole days.
func daysBetween(from, to string) (int, bool) {
	a, ok := parseDate(from)
	if !ok {
		return 0, false
	}
	b, ok := parseDate(to)
	if !ok {
		return 0, false
	}
	return int(b.Sub(a).Hours() / 24), true
}

// FormatDateText renders a backend date as dd/mm/yyyy, ignoring any time part. Values that
// cannot be parsed are returned unchanged.
func FormatDateText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == NotAvailable {
		return NotAvailable
	}
	if t, ok := parseDate(value); ok {
		return t.Format("02/01/2006")
	}
	return value
}
