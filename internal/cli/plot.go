package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yildizm/FlowTrack/internal/formatter"
	"github.com/yildizm/FlowTrack/internal/logger"
	"github.com/yildizm/FlowTrack/internal/plot"
	"github.com/yildizm/FlowTrack/internal/record"
)

var (
	plotData      string
	plotSelection string
	plotOut       string
	plotWidth     int
	plotHeight    int
)

func newPlotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot selected runs as a grid of trajectories",
		Long: `Plot the trajectories of a combined file as a grid with one panel per
flow level (rows) and section (columns), in the configured order.

The selection table names the runs to draw: its header row lists the
sections, its first column the flow levels, and each cell the run numbers
separated by semicolons, e.g. 1;3. Without a selection every run found
in the data is drawn.

Examples:
  flowtrack plot --data compiled_data/compiled_data_20240101_120000.csv
  flowtrack plot --data compiled.csv --selection run_selection.csv --out grid.png`,
		Args: cobra.NoArgs,
		RunE: runPlot,
	}

	cmd.Flags().StringVar(&plotData, "data", "", "combined record file to plot")
	cmd.Flags().StringVar(&plotSelection, "selection", "", "run selection table")
	cmd.Flags().StringVar(&plotOut, "out", "grid.png", "output PNG path")
	cmd.Flags().IntVar(&plotWidth, "width", 0, "image width in pixels (default from config)")
	cmd.Flags().IntVar(&plotHeight, "height", 0, "image height in pixels (default from config)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runPlot(cmd *cobra.Command, args []string) error {
	width, height := globalConfig.Plot.Width, globalConfig.Plot.Height
	if cmd.Flags().Changed("width") {
		width = plotWidth
	}
	if cmd.Flags().Changed("height") {
		height = plotHeight
	}

	log := newLogger("plot")

	rows, err := record.ReadFile(plotData)
	if err != nil {
		return err
	}

	var sel plot.Selection
	if plotSelection != "" {
		sel, err = plot.LoadSelection(plotSelection)
		if err != nil {
			return err
		}
	}

	catalog := globalConfig.Catalog()
	grid := plot.BuildGrid(rows, sel, catalog.Sections, catalog.FlowLevels)

	if err := writePlot(grid, width, height, plotOut); err != nil {
		return err
	}
	log.InfoWithFields("Plot written", []logger.Field{logger.File(plotOut), logger.Count(len(rows))})

	return writeReport(plotReport(grid, len(rows)))
}

// writePlot renders the grid into path, leaving no partial file behind
func writePlot(grid plot.Grid, width, height int, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// #nosec G304 - path is the user's output path
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := plot.RenderPNG(grid, width, height, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// plotReport summarizes a plot for the report formatters
func plotReport(grid plot.Grid, rows int) *formatter.Report {
	report := &formatter.Report{Title: "Plot Summary"}
	report.Add("Output", plotOut)
	report.Add("Rows read", rows)

	var panels, empty int
	for r := range grid.FlowLevels {
		for c := range grid.Sections {
			panels++
			cell := grid.Cell(r, c)
			if cell.Empty {
				empty++
				report.Warnings = append(report.Warnings, cell.Title())
			}
		}
	}
	report.Add("Panels", panels)
	report.Add("Empty panels", empty)

	report.Files = append(report.Files, formatter.FileEntry{
		Path:   filepath.Base(plotOut),
		Status: formatter.StatusWritten,
	})
	return report
}
