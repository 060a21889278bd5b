package help

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText formats a TopicResult for terminal output with the given width
func FormatText(result *TopicResult, width int) string {
	if width <= 0 {
		width = 80
	}

	var sb strings.Builder

	switch result.Kind {
	case "function":
		formatFunctionText(&sb, result)
	case "function-list", "operator-list", "shorthand-list", "constant-list":
		formatListText(&sb, result, width)
	default:
		sb.WriteString(fmt.Sprintf("Unknown result kind: %s\n", result.Kind))
	}

	return sb.String()
}

// FormatJSON formats a TopicResult as JSON
func FormatJSON(result *TopicResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

func formatFunctionText(sb *strings.Builder, result *TopicResult) {
	fmt.Fprintf(sb, "Function: %s(x)\n", result.Name)
	if result.Description != "" {
		fmt.Fprintf(sb, "\n%s\n", result.Description)
	}
	if result.Example != "" {
		fmt.Fprintf(sb, "\nExample:\n  %s\n", result.Example)
	}
}

// formatListText prints entries in aligned columns, dropping the example
// column when it would overflow width.
func formatListText(sb *strings.Builder, result *TopicResult, width int) {
	fmt.Fprintf(sb, "%s:\n", strings.ToUpper(result.Name[:1])+result.Name[1:])
	if result.Description != "" {
		fmt.Fprintf(sb, "\n%s\n", wrap(result.Description, width))
	}
	sb.WriteString("\n")

	nameLen, descLen := 0, 0
	for _, e := range result.Entries {
		nameLen = max(nameLen, len(e.Name))
		descLen = max(descLen, len(e.Description))
	}

	for _, e := range result.Entries {
		line := "  " + e.Name + strings.Repeat(" ", nameLen-len(e.Name)+2) + e.Description
		if e.Example != "" {
			withExample := line + strings.Repeat(" ", descLen-len(e.Description)+2) + e.Example
			if len(withExample) <= width {
				line = withExample
			}
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}
}

// wrap breaks text into lines no longer than width where possible
func wrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var sb strings.Builder
	lineLen := 0
	for i, w := range words {
		if i > 0 {
			if lineLen+1+len(w) > width {
				sb.WriteString("\n")
				lineLen = 0
			} else {
				sb.WriteString(" ")
				lineLen++
			}
		}
		sb.WriteString(w)
		lineLen += len(w)
	}
	return sb.String()
}
