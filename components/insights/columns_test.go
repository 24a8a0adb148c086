package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDateText(t *testing.T) {
	assert.Equal(t, "05/03/2024", FormatDateText("2024-03-05"))
	assert.Equal(t, "05/03/2024", FormatDateText("2024-03-05T10:11:12"))
	assert.Equal(t, "05/03/2024", FormatDateText("05/03/2024 08:00"))
	assert.Equal(t, NotAvailable, FormatDateText("  "))
	assert.Equal(t, "ontem", FormatDateText("ontem"))
}

func TestDateColumnCell(t *testing.T) {
	col := Column{Header: "Vencimento", Key: "Vencimento", Format: FormatDate}
	cell := col.Cell(Row{"Vencimento": "2024-01-10"})
	assert.Equal(t, "10/01/2024", cell.Text)
	assert.Equal(t, "2024-01-10", cell.Tooltip)

	missing := col.Cell(Row{})
	assert.Equal(t, NotAvailable, missing.Text)
	assert.Empty(t, missing.Tooltip)
}

func TestColumnsFromRowsTitleCase(t *testing.T) {
	cols := ColumnsFromRows([]Row{{"total_rows": 1, "cidade": "Natal"}})
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(cols))
	}
	assert.Equal(t, "Cidade", cols[0].Header)
	assert.Equal(t, "Total Rows", cols[1].Header)
}
