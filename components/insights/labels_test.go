package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtBRFormatting(t *testing.T) {
	assert.Equal(t, "1.234", FormatInteger(1234))
	assert.Equal(t, "R$ 1.234,50", FormatMoney(1234.5))
	assert.Equal(t, "R$ 1.235", FormatMoneyRounded(1234.6))
	assert.Equal(t, "-R$ 10", FormatMoneyRounded(-10))
}

func TestLabelFormatterKinds(t *testing.T) {
	datasets := []Dataset{{Label: "Total", Values: []float64{150, 50}}}

	count := NewLabelFormatter(LabelCount, datasets)
	assert.Equal(t, "50\n(25.0%)", count.Format(50))
	assert.Equal(t, "1.200", count.Total(1200))

	percent := NewLabelFormatter(LabelPercent, datasets)
	assert.Equal(t, "75%", percent.Format(150))

	days := NewLabelFormatter(LabelDays, datasets)
	assert.Equal(t, "12.5 dias", days.Format(12.5))

	money := NewLabelFormatter(LabelCurrency, datasets)
	assert.Equal(t, "R$ 2.000", money.Format(2000))

	empty := NewLabelFormatter(LabelPercent, nil)
	assert.Equal(t, "0%", empty.Format(10))
}

func TestStackedLabelsSkipHiddenDatasets(t *testing.T) {
	datasets := []Dataset{
		{Label: "Pago", Values: []float64{100, 0}},
		{Label: "Aberto", Values: []float64{50, 20}, Hidden: true},
	}
	f := NewLabelFormatter(LabelCount, datasets)
	labels := StackedLabels(datasets, f)

	assert.Equal(t, []float64{100, 0}, StackTotals(datasets))
	assert.Equal(t, []string{"100", ""}, labels[0])
	assert.Equal(t, []string{"", ""}, labels[1])
}

func TestStackedLabelsUseTopmostNonZeroSegment(t *testing.T) {
	datasets := []Dataset{
		{Label: "Pago", Values: []float64{100, 30}},
		{Label: "Aberto", Values: []float64{50, 0}},
	}
	labels := StackedLabels(datasets, NewLabelFormatter(LabelCount, datasets))
	assert.Equal(t, []string{"", "30"}, labels[0])
	assert.Equal(t, []string{"150", ""}, labels[1])
}

func TestPointLabelsLeaveHiddenBlank(t *testing.T) {
	datasets := []Dataset{
		{Label: "A", Values: []float64{1}},
		{Label: "B", Values: []float64{2}, Hidden: true},
	}
	labels := PointLabels(datasets, NewLabelFormatter(LabelDays, datasets))
	assert.Equal(t, []string{"1.0 dias"}, labels[0])
	assert.Equal(t, []string{""}, labels[1])
}
