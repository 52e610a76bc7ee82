package formatter

import (
	"fmt"
	"strings"

	"github.com/yildizm/go-termfmt"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter
func NewTerminal(color, emoji bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = emoji
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b, report.Title)
	f.writeSummary(&b, report.Summary)

	if len(report.Files) > 0 {
		f.writeFiles(&b, report.Files)
	}
	if len(report.Warnings) > 0 {
		f.writeWarnings(&b, report.Warnings)
	}

	return []byte(b.String()), nil
}

// writeHeader writes the title in a box
func (f *terminalFormatter) writeHeader(b *strings.Builder, title string) {
	width := len([]rune(title))
	b.WriteString("╔" + strings.Repeat("═", width+2) + "╗\n")
	b.WriteString("║ " + title + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", width+2) + "╝\n\n")
}

// writeSummary writes the summary lines as a tree
func (f *terminalFormatter) writeSummary(b *strings.Builder, summary []Item) {
	b.WriteString(termfmt.GetEmoji("statistics", f.opts) + " Summary\n")

	items := make([]termfmt.TreeItem, 0, len(summary))
	for i, item := range summary {
		items = append(items, termfmt.TreeItem{
			Label: item.Label,
			Value: item.Value,
			Last:  i == len(summary)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeFiles lists every file with its status
func (f *terminalFormatter) writeFiles(b *strings.Builder, files []FileEntry) {
	b.WriteString(termfmt.GetEmoji("info", f.opts) + " Files\n")
	for i, file := range files {
		branch := "├─"
		if i == len(files)-1 {
			branch = "└─"
		}

		line := fmt.Sprintf("%s %s %s [%s]", branch, f.statusSymbol(file.Status), file.Path, file.Status)
		if file.Status != StatusSkipped {
			line += fmt.Sprintf(" %d rows", file.Rows)
		}
		if file.Detail != "" {
			line += ": " + file.Detail
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func (f *terminalFormatter) writeWarnings(b *strings.Builder, warnings []string) {
	b.WriteString(termfmt.GetEmoji("warning", f.opts) + " Warnings\n")
	for _, w := range warnings {
		b.WriteString("  • " + w + "\n")
	}
	b.WriteString("\n")
}

func (f *terminalFormatter) statusSymbol(status string) string {
	if status == StatusSkipped {
		return termfmt.GetEmoji("error", f.opts)
	}
	return termfmt.GetEmoji("info", f.opts)
}
