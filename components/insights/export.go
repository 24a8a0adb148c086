package insights

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// ExportTable is a rendered table ready to be written to a file.
type ExportTable struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// ExportFromView flattens a section view to its displayed text.
func ExportFromView(name string, view SectionView) ExportTable {
	table := ExportTable{Name: name, Columns: append([]string(nil), view.Columns...)}
	for _, line := range view.Rows {
		row := make([]string, len(line))
		for i, cell := range line {
			row[i] = cell.Text
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// ExportFromRows renders rows with the given columns and flattens them.
func ExportFromRows(name string, cols []Column, rows []Row) ExportTable {
	headers, cells := RenderTable(cols, rows)
	return ExportFromView(name, SectionView{Columns: headers, Rows: cells})
}

// WriteCSV writes the table with ';' separators, every field double-quoted, embedded
// quotes doubled, line breaks flattened and CRLF line endings.
func WriteCSV(w io.Writer, table ExportTable) error {
	bw := bufio.NewWriter(w)
	writeLine := func(fields []string) error {
		for i, field := range fields {
			if i > 0 {
				if err := bw.WriteByte(';'); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(csvField(field)); err != nil {
				return err
			}
		}
		_, err := bw.WriteString("\r\n")
		return err
	}
	if err := writeLine(table.Columns); err != nil {
		return fmt.Errorf("insights: write csv header: %w", err)
	}
	for i, row := range table.Rows {
		if err := writeLine(row); err != nil {
			return fmt.Errorf("insights: write csv row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

var csvFlatten = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func csvField(value string) string {
	value = csvFlatten.Replace(value)
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// WriteXLSX writes the table as a single-sheet workbook.
func WriteXLSX(w io.Writer, table ExportTable) error {
	f := excelize.NewFile()
	defer f.Close()
	head := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		head[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &head); err != nil {
		return fmt.Errorf("insights: write xlsx header: %w", err)
	}
	for i, r := range table.Rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("insights: write xlsx row %d: %w", i, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("insights: write xlsx: %w", err)
	}
	return nil
}

// ExportFilename builds a download name such as "financial_health_export.csv".
func ExportFilename(name, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
	if safe == "" {
		safe = "export"
	}
	return safe + "_export." + strings.TrimPrefix(ext, ".")
}
