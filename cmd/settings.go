package cmd

import (
	"fmt"

	"github.com/cottand/gentype/internal/config"
	"github.com/cottand/gentype/internal/log"
	"github.com/spf13/cobra"
)

var cmdLogger = log.DefaultLogger.With("section", log.SectionCmd)

// settings are the flags shared by every subcommand. Flags set on the command line
// override gentype.yaml.
type settings struct {
	configPath      *string
	logLevel        *string
	sections        *[]string
	filterUnrelated *bool
	pattern         *string
}

func addSettingsFlags(c *cobra.Command) *settings {
	return &settings{
		configPath:      c.Flags().StringP("config", "c", "", "path to "+config.FileName+" (default: searched from the program root upwards)"),
		logLevel:        c.Flags().StringP("log-level", "l", "", "log level: debug, info, warn or error"),
		sections:        c.Flags().StringSlice("log-sections", nil, "log sections to emit below warning level, or all"),
		filterUnrelated: c.Flags().Bool("filter-unrelated", false, "only collect constraints that mention the selected type"),
		pattern:         c.Flags().String("pattern", "", "glob selecting the units of the program (default \"*.ts\")"),
	}
}

// resolve loads the configuration for a program rooted at root and applies it.
func (s *settings) resolve(c *cobra.Command, root string) (*config.Config, error) {
	path := *s.configPath
	if path == "" {
		found, err := config.Find(root)
		if err != nil {
			return nil, fmt.Errorf("could not look for %s: %w", config.FileName, err)
		}
		path = found
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := c.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = *s.logLevel
	}
	if flags.Changed("log-sections") {
		cfg.Sections = append(cfg.Sections, *s.sections...)
	}
	if flags.Changed("filter-unrelated") {
		cfg.FilterUnrelated = *s.filterUnrelated
	}
	if flags.Changed("pattern") {
		cfg.Pattern = *s.pattern
	}
	if err := cfg.Apply(); err != nil {
		return nil, err
	}
	cmdLogger.Debug("configuration resolved", "file", path, "pattern", cfg.Pattern, "filter_unrelated", cfg.FilterUnrelated)
	return cfg, nil
}

