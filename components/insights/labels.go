package insights

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatterKind declares how a widget labels its values. It is a property of the widget,
// never inferred from data.
type FormatterKind string

const (
	// LabelCount shows the grouped value and its share of the first dataset's sum.
	LabelCount FormatterKind = "count"
	// LabelPercent shows only the share, rounded to an integer.
	LabelPercent FormatterKind = "percent"
	// LabelDays shows elapsed days with one decimal.
	LabelDays FormatterKind = "days"
	// LabelCurrency shows BRL with zero decimals.
	LabelCurrency FormatterKind = "currency"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatInteger groups thousands the pt-BR way: 1234 -> "1.234".
func FormatInteger(v float64) string {
	return ptBR.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// FormatMoney renders BRL with two decimals: "R$ 1.234,56".
func FormatMoney(v float64) string {
	return moneyString(v, 2)
}

// FormatMoneyRounded renders BRL without decimals: "R$ 1.235".
func FormatMoneyRounded(v float64) string {
	return moneyString(v, 0)
}

func moneyString(v float64, decimals int) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if decimals == 0 {
		v = math.Round(v)
	}
	return sign + "R$ " + ptBR.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// LabelFormatter formats the value labels of one widget.
type LabelFormatter struct {
	Kind      FormatterKind
	reference float64
}

// NewLabelFormatter binds a formatter to a widget's datasets. Percentages are computed
// against the sum of the first dataset.
func NewLabelFormatter(kind FormatterKind, datasets []Dataset) LabelFormatter {
	f := LabelFormatter{Kind: kind}
	if len(datasets) > 0 {
		for _, v := range datasets[0].Values {
			f.reference += v
		}
	}
	return f
}

// Format renders a single data point.
func (f LabelFormatter) Format(v float64) string {
	switch f.Kind {
	case LabelCount:
		return fmt.Sprintf("%s\n(%s)", FormatInteger(v), f.share(v, 1))
	case LabelPercent:
		return f.share(v, 0)
	case LabelDays:
		return fmt.Sprintf("%.1f dias", v)
	default:
		return FormatMoneyRounded(v)
	}
}

// Total renders the sum placed on top of a stack.
func (f LabelFormatter) Total(v float64) string {
	switch f.Kind {
	case LabelCount, LabelPercent:
		return FormatInteger(v)
	case LabelDays:
		return fmt.Sprintf("%.1f dias", v)
	default:
		return FormatMoneyRounded(v)
	}
}

func (f LabelFormatter) share(v float64, decimals int) string {
	if f.reference <= 0 {
		return "0%"
	}
	return strconv.FormatFloat(v/f.reference*100, 'f', decimals, 64) + "%"
}

// StackTotals sums the visible datasets per category.
func StackTotals(datasets []Dataset) []float64 {
	size := 0
	for _, ds := range datasets {
		size = max(size, len(ds.Values))
	}
	totals := make([]float64, size)
	for _, ds := range datasets {
		if ds.Hidden {
			continue
		}
		for i, v := range ds.Values {
			totals[i] += v
		}
	}
	return totals
}

// StackedLabels places one label per category on the topmost visible segment with a
// non-zero value. The label is the sum of all visible datasets at that category.
// labels[d][i] is empty when dataset d carries no label at category i.
func StackedLabels(datasets []Dataset, f LabelFormatter) [][]string {
	totals := StackTotals(datasets)
	labels := make([][]string, len(datasets))
	for d := range datasets {
		labels[d] = make([]string, len(datasets[d].Values))
	}
	for i, total := range totals {
		for d := len(datasets) - 1; d >= 0; d-- {
			ds := datasets[d]
			if ds.Hidden || i >= len(ds.Values) || ds.Values[i] <= 0 {
				continue
			}
			labels[d][i] = f.Total(total)
			break
		}
	}
	return labels
}

// PointLabels formats every visible value independently.
func PointLabels(datasets []Dataset, f LabelFormatter) [][]string {
	labels := make([][]string, len(datasets))
	for d, ds := range datasets {
		labels[d] = make([]string, len(ds.Values))
		if ds.Hidden {
			continue
		}
		for i, v := range ds.Values {
			labels[d][i] = f.Format(v)
		}
	}
	return labels
}
