package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yildizm/FlowTrack/internal/config"
	"github.com/yildizm/FlowTrack/internal/session"
)

// defaultConfigName is created by config init
const defaultConfigName = ".flowtrack.yaml"

var (
	configInitPath    string
	configInitMinimal bool
	configInitForce   bool
	configShowFormat  string
)

// newConfigCommand creates the config command with subcommands
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage FlowTrack configuration",
		Long: `Manage FlowTrack configuration files and settings.

The config command provides subcommands for initializing, viewing,
validating, and locating configuration files. They read the file given
with --config, or search the standard paths.`,
		// Each subcommand loads the configuration itself so a broken file
		// can still be validated and replaced.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyEmojiSetting(cmd)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Write a FlowTrack configuration file with the default values.

The full sample documents every option; --minimal only writes the
session catalog and output directory.`,
		Example: `  flowtrack config init
  flowtrack config init --minimal
  flowtrack config init --path ~/.config/flowtrack/config.yaml
  flowtrack config init --force`,
		Args: cobra.NoArgs,
		RunE: runConfigInit,
	}
	initCmd.Flags().StringVarP(&configInitPath, "path", "p", defaultConfigName, "where to write the config file")
	initCmd.Flags().BoolVarP(&configInitMinimal, "minimal", "m", false, "write only the session settings")
	initCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, config files and FLOWTRACK_
environment variables have been applied.`,
		Example: `  flowtrack config show
  flowtrack config show --format json
  flowtrack --config ./lab.yaml config show`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}
	showCmd.Flags().StringVarP(&configShowFormat, "format", "f", "yaml", "output format (yaml, json)")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		Long: `Load the configuration and report the first problem found:
- invalid YAML
- empty or duplicate sections and flow levels
- frame delay or zoom outside their ranges
- unknown color mode or theme`,
		Example: `  flowtrack config validate
  flowtrack --config ./lab.yaml config validate`,
		Args: cobra.NoArgs,
		RunE: runConfigValidate,
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "List the configuration search paths",
		Long:  "List the paths FlowTrack reads configuration from, highest priority first, and mark the ones that exist.",
		Args:  cobra.NoArgs,
		Run:   runConfigPath,
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd, pathCmd)
	return configCmd
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configInitPath
	if path == "" {
		path = defaultConfigName
	}
	if fileExists(path) && !configInitForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	content, kind := config.SampleConfig(), "full"
	if configInitMinimal {
		content, kind = config.MinimalSampleConfig(), "minimal"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("%s Wrote %s configuration to %s\n", GetEmoji("success"), kind, path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := marshalConfig(cfg, configShowFormat)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

// marshalConfig encodes cfg as yaml or json, always ending in a newline
func marshalConfig(cfg *config.Config, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		return data, nil
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unsupported format: %s (use json or yaml)", format)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		fmt.Printf("%s Configuration is invalid:\n   %v\n", GetEmoji("error"), err)
		return err
	}

	levels := make([]string, 0, len(cfg.Session.FlowLevels))
	for _, level := range cfg.Session.FlowLevels {
		levels = append(levels, session.FormatFlowLevel(level))
	}

	fmt.Printf("%s Configuration is valid\n", GetEmoji("success"))
	fmt.Printf("   Sections:     %s\n", strings.Join(cfg.Session.Sections, ", "))
	fmt.Printf("   Flow levels:  %s\n", strings.Join(levels, ", "))
	fmt.Printf("   Records in:   %s\n", cfg.Session.OutputDir)
	fmt.Printf("   Frame delay:  %d ms\n", cfg.Session.FrameDelayMs)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	fmt.Println("Configuration search paths, highest priority first:")
	for i, path := range config.GetConfigPaths() {
		mark := "not found"
		if fileExists(path) {
			mark = GetEmoji("success") + " exists"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, path, mark)
	}

	if current, found := config.FindConfigFile(); found {
		fmt.Printf("\nUsing: %s\n", current)
	} else {
		fmt.Println("\nNo config file found, using defaults")
	}
	fmt.Printf("%s FLOWTRACK_* environment variables override file settings\n", GetEmoji("info"))
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
