package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/cottand/gentype/internal/log"
	"github.com/stretchr/testify/assert"
)

func TestSectionFiltering(t *testing.T) {
	log.SetLevel(slog.LevelDebug)
	defer log.SetLevel(slog.LevelInfo)

	buf := &bytes.Buffer{}
	logger := log.NewLogger(buf)

	logger.With("section", "nonexistent-section").Debug("hidden")
	assert.Empty(t, buf.String())

	logger.With("section", "nonexistent-section").Warn("shown anyway")
	assert.Contains(t, buf.String(), "shown anyway")

	buf.Reset()
	logger.With("section", log.SectionCmd).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "section=cmd")

	buf.Reset()
	logger.Debug("record-level", "section", log.SectionCmd)
	assert.Contains(t, buf.String(), "record-level")
}

func TestEnableSections(t *testing.T) {
	assert.False(t, log.SectionEnabled("test-only-section"))
	log.EnableSections("test-only", " ")
	assert.True(t, log.SectionEnabled("test-only-section"))
}
