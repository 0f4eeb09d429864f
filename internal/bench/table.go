package bench

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
)

var (
	lowestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	diffStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// TableOptions controls RenderTable.
type TableOptions struct {
	IncludeUsage bool // add the function call gas row
	Color        bool // highlight lowest values and differences
}

// Metrics returns the rows shown for opts, in display order.
func (o TableOptions) Metrics() []Metric {
	m := []Metric{MetricCodesize, MetricDeploymentGas}
	if o.IncludeUsage {
		m = append(m, MetricUsageGas)
	}
	return m
}

// FormatRow formats one metric row. The lowest value is shown as is (green
// with colour); every other value is followed by its difference to the
// lowest, e.g. "235     +106". widths holds, per column, the longest
// number shown in that column so differences line up vertically.
func FormatRow(values, widths []int, color bool) []string {
	if len(values) == 0 {
		return nil
	}
	lowest := slices.Min(values)
	cells := make([]string, len(values))
	for i, n := range values {
		num := strconv.Itoa(n)
		if n == lowest {
			if color {
				num = lowestStyle.Render(num)
			}
			cells[i] = num
			continue
		}
		diff := "+" + strconv.Itoa(n-lowest)
		if color {
			diff = diffStyle.Render(diff)
		}
		pad := strings.Repeat(" ", max(widths[i]-len(num), 0))
		cells[i] = fmt.Sprintf("%s %s %s", num, pad, diff)
	}
	return cells
}

// ColumnWidths returns, per contract, the longest printed number among the
// given metrics.
func ColumnWidths(r *Results, metrics []Metric) []int {
	widths := make([]int, len(r.ContractNames))
	for _, m := range metrics {
		for i, v := range r.Values(m) {
			widths[i] = max(widths[i], len(strconv.Itoa(v)))
		}
	}
	return widths
}

// RenderTable renders the comparison of every contract in r.
func RenderTable(r *Results, opts TableOptions) string {
	metrics := opts.Metrics()
	widths := ColumnWidths(r, metrics)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(append([]string{""}, r.ContractNames...)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow && opts.Color {
				return headerStyle
			}
			return cellStyle
		})
	if opts.Color {
		t = t.BorderStyle(borderStyle)
	}

	for _, m := range metrics {
		cells := FormatRow(r.Values(m), widths, opts.Color)
		t = t.Row(append([]string{m.Label()}, cells...)...)
	}
	return t.String()
}
