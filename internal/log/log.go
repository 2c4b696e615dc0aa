package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

// Sections used across the module. A record is emitted below warning level
// only when its section (or a prefix of it) is enabled.
const (
	SectionFrontend = "frontend"
	SectionCollect  = "collect"
	SectionClosure  = "closure"
	SectionVerify   = "verify"
	SectionSearch   = "search"
	SectionCmd      = "cmd"
)

var (
	mu              sync.RWMutex
	enabledSections = []string{
		SectionCmd,
	}
	level = new(slog.LevelVar)
)

var LoggerOpts = &slog.HandlerOptions{
	AddSource: false,
	Level:     level,
	ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == "time" {
			return slog.Attr{}
		}
		return a
	},
}

var DefaultLogger = slog.New(NewFilteringHandler(slog.NewTextHandler(os.Stderr, LoggerOpts)))

// NewFilteringHandler wraps underlying so that debug and info records are only emitted
// for enabled sections.
func NewFilteringHandler(underlying slog.Handler) slog.Handler {
	return &filteringHandler{underlying: underlying}
}

// NewLogger returns a section-filtered text logger writing to w, sharing the global level.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(NewFilteringHandler(slog.NewTextHandler(w, LoggerOpts)))
}

// SetLevel sets the minimum level of every logger created by this package.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// EnableSections adds sections to the set of sections whose debug output is emitted.
// "all" enables every section.
func EnableSections(sections ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, s := range sections {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(enabledSections, s) {
			enabledSections = append(enabledSections, s)
		}
	}
}

// SectionEnabled reports whether records tagged with section are emitted below warning level.
func SectionEnabled(section string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return slices.ContainsFunc(enabledSections, func(enabled string) bool {
		return enabled == "all" || strings.HasPrefix(section, enabled)
	})
}

var _ slog.Handler = &filteringHandler{}

type filteringHandler struct {
	underlying slog.Handler
	// sections collected from WithAttrs
	sections []string
}

func (f *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.underlying.Enabled(ctx, level)
}

func (f *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelWarn {
		return f.underlying.Handle(ctx, record)
	}
	wantSection := slices.ContainsFunc(f.sections, SectionEnabled)
	if !wantSection {
		record.Attrs(func(attr slog.Attr) bool {
			wantSection = attr.Key == "section" && SectionEnabled(attr.Value.String())
			// iterate as long as we have not found our section
			return !wantSection
		})
	}
	if !wantSection {
		return nil
	}
	return f.underlying.Handle(ctx, record)
}

func (f *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sections := slices.Clone(f.sections)
	for _, attr := range attrs {
		if attr.Key == "section" {
			sections = append(sections, attr.Value.String())
		}
	}
	return &filteringHandler{
		underlying: f.underlying.WithAttrs(attrs),
		sections:   sections,
	}
}

func (f *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{
		underlying: f.underlying.WithGroup(name),
		sections:   f.sections,
	}
}
