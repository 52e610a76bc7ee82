package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yildizm/FlowTrack/internal/formatter"
	"github.com/yildizm/FlowTrack/internal/merge"
)

var (
	mergeOutputDir string
	mergeWatchDir  string
)

func newMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [files|dirs...]",
		Short: "Combine record files into one file",
		Long: `Combine record files into one file named after the earliest capture
time, compiled_data_<YYYYMMDD_HHMMSS>.csv. Files are ordered by the
capture time in their names; rows are kept in file order.

Directories are expanded to the record files they contain. Files whose
name carries no capture time, or that cannot be read, are skipped.

With --watch the directory is merged again every time record files are
created or written in it. Press Ctrl+C to stop watching.

Examples:
  flowtrack merge output_data
  flowtrack merge --out compiled run1.csv run2.csv
  flowtrack merge --watch output_data`,
		RunE: runMerge,
	}

	cmd.Flags().StringVar(&mergeOutputDir, "out", "", "directory for the combined file (default from config)")
	cmd.Flags().StringVar(&mergeWatchDir, "watch", "", "keep merging the record files of this directory")

	return cmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	outputDir := globalConfig.Merge.OutputDir
	if cmd.Flags().Changed("out") {
		outputDir = mergeOutputDir
	}
	opts := merge.Options{OutputDir: outputDir, Logger: newLogger("merge")}

	if mergeWatchDir != "" {
		if len(args) > 0 {
			return fmt.Errorf("--watch takes no file arguments")
		}
		return runMergeWatch(cmd.Context(), mergeWatchDir, opts)
	}

	if len(args) == 0 {
		return fmt.Errorf("no record files given")
	}
	paths, err := merge.Expand(args)
	if err != nil {
		return err
	}

	result, err := merge.Merge(paths, opts)
	if err != nil {
		if errors.Is(err, merge.ErrNoValidFiles) && result != nil {
			_ = writeReport(mergeReport(result))
		}
		return err
	}
	return writeReport(mergeReport(result))
}

// mergeReport summarizes a merge for the report formatters
func mergeReport(result *merge.Result) *formatter.Report {
	report := &formatter.Report{Title: "Merge Summary"}
	if result.Output != "" {
		report.Add("Output", result.Output)
		report.Add("Earliest capture", result.Earliest.Format("2006-01-02 15:04:05"))
	}
	report.Add("Files merged", len(result.Sources))
	report.Add("Files skipped", len(result.Skipped))
	report.Add("Rows", result.Rows)

	for _, src := range result.Sources {
		report.Files = append(report.Files, formatter.FileEntry{
			Path:   filepath.Base(src.Path),
			Status: formatter.StatusMerged,
			Rows:   src.Rows,
		})
	}
	for _, skipped := range result.Skipped {
		report.Files = append(report.Files, formatter.FileEntry{
			Path:   filepath.Base(skipped.Path),
			Status: formatter.StatusSkipped,
			Detail: skipped.Err.Error(),
		})
	}

	if n := len(result.Skipped); n > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d %s skipped", n, plural(n, "file", "files")))
	}
	return report
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
