package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/yildizm/FlowTrack/internal/config"
	"github.com/yildizm/FlowTrack/internal/emoji"
	"github.com/yildizm/FlowTrack/internal/formatter"
	"github.com/yildizm/FlowTrack/internal/logger"
	"github.com/yildizm/FlowTrack/internal/ui"
)

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	noEmoji   bool
	outputFmt string

	// globalConfig is loaded once before any command runs
	globalConfig *config.Config
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowtrack",
		Short: "Video point tracking for flow experiments",
		Long: `FlowTrack plays back experiment videos in the terminal and records the
points you click, one record file per run, tagged with the section, flow
level and run they belong to.

The batch commands merge record files, transform coordinates and plot
the selected runs as a grid of trajectories.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			applyEmojiSetting(cmd)

			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			globalConfig = cfg

			if !cmd.Flags().Changed("verbose") {
				verbose = cfg.Output.Verbose
			}
			applyColorMode(cfg.Output.ColorMode)
			ui.SetThemeByName(cfg.Output.Theme)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "report format for batch commands (text, json, markdown, csv)")

	// Add subcommands
	rootCmd.AddCommand(newTrackCommand())
	rootCmd.AddCommand(newMergeCommand())
	rootCmd.AddCommand(newTransformCommand())
	rootCmd.AddCommand(newPlotCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyEmojiSetting(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			fmt.Printf("FlowTrack %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// applyEmojiSetting disables emoji on Windows unless asked for
func applyEmojiSetting(cmd *cobra.Command) {
	if runtime.GOOS == "windows" && !cmd.Flags().Changed("no-emoji") {
		noEmoji = true
	}
	emoji.SetEmojiDisabled(noEmoji)
}

// applyColorMode maps --no-color and output.color_mode onto lipgloss
func applyColorMode(mode string) {
	switch {
	case noColor || mode == "never":
		noColor = true
		lipgloss.SetColorProfile(termenv.Ascii)
		_ = os.Setenv("NO_COLOR", "1")
	case mode == "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// Global helpers
func isVerbose() bool {
	return verbose
}

func getOutputFormat() string {
	return outputFmt
}

func isEmojiDisabled() bool {
	return noEmoji
}

// newLogger creates a stderr logger for a batch command
func newLogger(component string) *logger.Logger {
	return logger.NewWithCallback(component, isVerbose)
}

// writeReport prints a batch command report in the selected format
func writeReport(report *formatter.Report) error {
	f, err := formatter.New(getOutputFormat(), !noColor, !isEmojiDisabled())
	if err != nil {
		return err
	}
	out, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
