package formatter

import (
	"fmt"
	"strings"
	"time"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct {
	now func() time.Time
}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{now: time.Now}
}

func (f *markdownFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Title)
	fmt.Fprintf(&b, "Generated: %s\n\n", f.now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Item | Value |\n")
	b.WriteString("|------|-------|\n")
	for _, item := range report.Summary {
		fmt.Fprintf(&b, "| %s | %s |\n", escapePipes(item.Label), escapePipes(item.Value))
	}
	b.WriteString("\n")

	if len(report.Files) > 0 {
		b.WriteString("## Files\n\n")
		b.WriteString("| File | Status | Rows | Detail |\n")
		b.WriteString("|------|--------|------|--------|\n")
		for _, file := range report.Files {
			fmt.Fprintf(&b, "| `%s` | %s | %d | %s |\n",
				file.Path, file.Status, file.Rows, escapePipes(file.Detail))
		}
		b.WriteString("\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	return []byte(b.String()), nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
