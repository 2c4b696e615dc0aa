// Package config loads gentype.yaml, the per-project settings of the gentype CLI.
//
// Every setting can be overridden by a command line flag; the file only provides defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cottand/gentype/frontend"
	"github.com/cottand/gentype/internal/log"
	"gopkg.in/yaml.v3"
)

// FileName is the name looked up by Find.
const FileName = "gentype.yaml"

// Config represents the contents of gentype.yaml.
type Config struct {
	// LogLevel is one of debug, info, warn or error, optionally with an offset such as info+2.
	LogLevel string `yaml:"log_level,omitempty"`

	// Sections enables debug and info output of the named log sections, or of all of them with "all".
	Sections []string `yaml:"sections,omitempty"`

	// FilterUnrelated only keeps constraints that mention the selected type or an untyped side.
	FilterUnrelated bool `yaml:"filter_unrelated,omitempty"`

	// Pattern selects the units of a program among the files of a directory.
	// Defaults to "*.ts".
	Pattern string `yaml:"pattern,omitempty"`
}

var knownSections = []string{
	"all",
	log.SectionFrontend,
	log.SectionCollect,
	log.SectionClosure,
	log.SectionVerify,
	log.SectionSearch,
	log.SectionCmd,
}

// Default is the configuration used when no gentype.yaml is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads and parses a gentype.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses gentype.yaml content. Unknown keys are rejected.
// The path argument is used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Find searches for gentype.yaml in dir and its parents.
// It returns an empty path and a nil error when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(file string) error {
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%s: log_level: %w", file, err)
	}
	for i, section := range c.Sections {
		if !slices.Contains(knownSections, strings.TrimSpace(section)) {
			return fmt.Errorf("%s: sections[%d]: unknown section %q, expected one of %s",
				file, i, section, strings.Join(knownSections, ", "))
		}
	}
	if c.Pattern != "" {
		if _, err := path.Match(c.Pattern, ""); err != nil {
			return fmt.Errorf("%s: pattern %q: %w", file, c.Pattern, err)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "error"
	}
	if c.Pattern == "" {
		c.Pattern = frontend.DefaultPattern
	}
}

// Level parses LogLevel. An empty level is slog.LevelError.
func (c *Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelError, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, err
	}
	return l, nil
}

// Apply configures the shared loggers of internal/log.
func (c *Config) Apply() error {
	l, err := c.Level()
	if err != nil {
		return fmt.Errorf("applying log level: %w", err)
	}
	log.SetLevel(l)
	log.EnableSections(c.Sections...)
	return nil
}
