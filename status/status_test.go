package status_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/cottand/gentype/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilStatus(t *testing.T) {
	var s *status.Status
	assert.Empty(t, s.Entries())
	assert.False(t, s.HasFatal())
	assert.True(t, s.IsOK())
	assert.Equal(t, status.Info, s.Severity())

	s = s.With(status.NewInfo("hello"))
	require.Len(t, s.Entries(), 1)
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		name    string
		entries []status.Entry
		want    status.Severity
		ok      bool
	}{
		{"empty", nil, status.Info, true},
		{"warning", []status.Entry{status.NewInfo("i"), status.NewWarning(status.None, "w")}, status.Warning, true},
		{"internal", []status.Entry{status.NewInternal(io.EOF, "reading")}, status.Error, false},
		{"fatal", []status.Entry{status.NewFatal(status.ArrayType, "arrays"), status.NewInfo("i")}, status.Fatal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := (&status.Status{}).With(tt.entries...)
			assert.Equal(t, tt.want, s.Severity())
			assert.Equal(t, tt.ok, s.IsOK())
			assert.Equal(t, tt.want == status.Fatal, s.HasFatal())
		})
	}
}

func TestFatalEntry(t *testing.T) {
	s := (&status.Status{}).With(status.NewWarning(status.None, "first"), status.NewFatal(status.LocalType, "type %s is local", "Helper"))
	entry, ok := s.Fatal()
	require.True(t, ok)
	assert.Equal(t, status.LocalType, entry.Code)
	assert.Equal(t, "type Helper is local", entry.Message)
	assert.Contains(t, entry.String(), "local-type")
}

func TestMerge(t *testing.T) {
	var a *status.Status
	b := (&status.Status{}).With(status.NewInfo("b"))
	merged := a.Merge(b)
	assert.Same(t, b, merged)

	c := (&status.Status{}).With(status.NewInfo("c"))
	merged = c.Merge(b)
	assert.Len(t, merged.Entries(), 2)
	assert.Len(t, c.Entries(), 1)
	assert.Same(t, merged, merged.Merge(nil))
}

func TestWithLeavesReceiverUnchanged(t *testing.T) {
	base := (&status.Status{}).With(status.NewWarning(status.None, "base"))
	first := base.With(status.NewInfo("first"))
	second := base.With(status.NewInfo("second"))

	assert.Len(t, base.Entries(), 1)
	require.Len(t, first.Entries(), 2)
	require.Len(t, second.Entries(), 2)
	assert.Equal(t, "first", first.Entries()[1].Message)
	assert.Equal(t, "second", second.Entries()[1].Message)
}

func TestInternalKeepsCause(t *testing.T) {
	entry := status.NewInternal(io.ErrUnexpectedEOF, "collecting unit a.ts")
	assert.ErrorIs(t, entry.Cause, io.ErrUnexpectedEOF)
	assert.Contains(t, entry.Message, "collecting unit a.ts")
	// pkg/errors attaches a stack trace that %+v prints
	assert.Contains(t, fmt.Sprintf("%+v", entry.Cause), "status_test.go")
}
