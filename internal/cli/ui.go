package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/graphsim/fuzzygraph/pkg/analysis"
	"github.com/graphsim/fuzzygraph/pkg/editor"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/graph"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, armed nodes
	colorYellow = lipgloss.Color("220") // warnings, undefined values
	colorRed    = lipgloss.Color("167") // errors
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warnings and undefined results.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTableBorder = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + value)
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Results
// =============================================================================

// formatValue renders a result, highlighting the undefined marker.
func formatValue(v analysis.Value) string {
	if !v.Defined() {
		return StyleWarning.Render(v.String())
	}
	return StyleNumber.Render(v.String())
}

// formatIsomorphism renders an isomorphism answer; nil means not computed.
func formatIsomorphism(iso *analysis.Isomorphism) string {
	switch {
	case iso == nil:
		return StyleDim.Render("-")
	case iso.Isomorphic:
		return StyleSuccess.Render(fmt.Sprintf("yes (%d mappings)", len(iso.Mappings)))
	default:
		return StyleValue.Render("no")
	}
}

var fieldLabels = map[editor.Field]string{
	editor.FieldTwinWidthLeft:  "Twin-width G1",
	editor.FieldTwinWidthRight: "Twin-width G2",
	editor.FieldSimilarity:     "Similarity",
	editor.FieldIsomorphism:    "Isomorphism",
}

// writeResultsTable renders every result field with its error, if any.
func writeResultsTable(w io.Writer, res editor.Results) {
	rows := make([][]string, 0, len(editor.Fields))
	for _, f := range editor.Fields {
		var value string
		switch f {
		case editor.FieldTwinWidthLeft, editor.FieldTwinWidthRight:
			value = formatValue(res.TwinWidth[slotOf(f)])
		case editor.FieldSimilarity:
			value = formatValue(res.Similarity)
		case editor.FieldIsomorphism:
			value = formatIsomorphism(res.Isomorphism)
		}
		status := StyleSuccess.Render(iconSuccess)
		if err := res.Err(f); err != nil {
			status = StyleError.Render(iconError + " " + errors.UserMessage(err))
		}
		rows = append(rows, []string{fieldLabels[f], value, status})
	}
	fmt.Fprintln(w, newTable("Result", "Value", "").Rows(rows...).Render())
}

func slotOf(f editor.Field) graph.Slot {
	if f == editor.FieldTwinWidthRight {
		return graph.SlotRight
	}
	return graph.SlotLeft
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
