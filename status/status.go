package status

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

type Code int

const (
	None Code = iota
	InvalidSelection
	UnsupportedNode
	MultiDeclaration
	ArrayType
	PrimitiveType
	LocalType
	InsideLocalType
	OverriddenAmbientMethod
	NoMatchingConstraintVariable
	UnresolvedType
	MissingArgument
	IllegalArgument
	Internal
)

var codeNames = map[Code]string{
	None:                         "none",
	InvalidSelection:             "invalid-selection",
	UnsupportedNode:              "unsupported-node",
	MultiDeclaration:             "multi-declaration",
	ArrayType:                    "array-type",
	PrimitiveType:                "primitive-type",
	LocalType:                    "local-type",
	InsideLocalType:              "inside-local-type",
	OverriddenAmbientMethod:      "overridden-ambient-method",
	NoMatchingConstraintVariable: "no-matching-constraint-variable",
	UnresolvedType:               "unresolved-type",
	MissingArgument:              "missing-argument",
	IllegalArgument:              "illegal-argument",
	Internal:                     "internal",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Entry is one finding of a refactoring run.
type Entry struct {
	Severity Severity
	Code     Code
	Message  string
	// Cause is set for Internal entries and carries a stack trace
	Cause error
}

func (e Entry) String() string {
	return fmt.Sprintf("%s (S%03d %s): %s", e.Severity, int(e.Code), e.Code, e.Message)
}

func NewFatal(code Code, format string, args ...any) Entry {
	return Entry{Severity: Fatal, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewWarning(code Code, format string, args ...any) Entry {
	return Entry{Severity: Warning, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewInfo(format string, args ...any) Entry {
	return Entry{Severity: Info, Code: None, Message: fmt.Sprintf(format, args...)}
}

// NewInternal records an unexpected failure as a non-fatal entry, attaching a stack trace to err.
func NewInternal(err error, message string) Entry {
	wrapped := errors.Wrap(err, message)
	return Entry{Severity: Error, Code: Internal, Message: wrapped.Error(), Cause: wrapped}
}

// Status is an ordered list of entries. The nil *Status is a valid, empty status.
type Status struct {
	entries []Entry
}

// With returns a new status holding the entries of s followed by entries. s is left unchanged.
func (s *Status) With(entries ...Entry) *Status {
	return &Status{entries: append(slices.Clip(s.Entries()), entries...)}
}

func (s *Status) Merge(other *Status) *Status {
	if s == nil {
		return other
	}
	if other == nil || len(other.entries) == 0 {
		return s
	}
	return s.With(other.entries...)
}

func (s *Status) Entries() []Entry {
	if s == nil {
		return nil
	}
	return s.entries
}

// Severity is the highest severity among the entries, Info for an empty status.
func (s *Status) Severity() Severity {
	highest := Info
	for _, e := range s.Entries() {
		if e.Severity > highest {
			highest = e.Severity
		}
	}
	return highest
}

func (s *Status) HasFatal() bool {
	return s.Severity() == Fatal
}

func (s *Status) IsOK() bool {
	return s.Severity() < Error
}

// Fatal returns the first fatal entry, if any.
func (s *Status) Fatal() (Entry, bool) {
	for _, e := range s.Entries() {
		if e.Severity == Fatal {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *Status) String() string {
	lines := make([]string, 0, len(s.Entries()))
	for _, e := range s.Entries() {
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n")
}

func (s *Status) LogValue() slog.Value {
	var vals []slog.Attr
	for i, e := range s.Entries() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("s", i),
			Value: slog.GroupValue(
				slog.String("severity", e.Severity.String()),
				slog.String("msg", e.String()),
			),
		})
	}
	return slog.GroupValue(vals...)
}
