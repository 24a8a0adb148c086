package insights

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteCSVQuotesEveryField(t *testing.T) {
	table := ExportTable{
		Name:    "clientes",
		Columns: []string{"Cliente", "Observação"},
		Rows: [][]string{
			{`Ana "Aninha"`, "linha 1\nlinha 2"},
			{"Bruno", "a;b"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	want := "\"Cliente\";\"Observação\"\r\n" +
		"\"Ana \"\"Aninha\"\"\";\"linha 1 linha 2\"\r\n" +
		"\"Bruno\";\"a;b\"\r\n"
	assert.Equal(t, want, buf.String())
}

func TestExportFromRowsUsesDisplayText(t *testing.T) {
	cols := []Column{
		{Header: "Vencimento", Key: "Vencimento", Format: FormatDate},
		{Header: "Valor", Key: "Valor", Format: FormatCurrency},
		{Header: "Status", Key: "Status"},
	}
	table := ExportFromRows("faturas", cols, []Row{{"Vencimento": "2024-05-10T00:00:00", "Valor": 1500.0}})
	assert.Equal(t, []string{"Vencimento", "Valor", "Status"}, table.Columns)
	assert.Equal(t, [][]string{{"10/05/2024", "R$ 1.500,00", NotAvailable}}, table.Rows)
}

func TestWriteXLSX(t *testing.T) {
	table := ExportTable{Columns: []string{"Cidade", "Total"}, Rows: [][]string{{"Natal", "30"}}}
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Cidade", "Total"}, {"Natal", "30"}}, rows)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "financial_health_export.csv", ExportFilename("financial_health", "csv"))
	assert.Equal(t, "Contas_a_Receber_export.xlsx", ExportFilename("Contas a Receber", ".xlsx"))
	assert.Equal(t, "export_export.csv", ExportFilename("", "csv"))
}
