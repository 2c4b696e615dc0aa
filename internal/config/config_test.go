package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
sections: [collect, closure]
filter_unrelated: true
pattern: "src/*.ts"
`), "gentype.yaml")
	require.NoError(t, err)
	assert.Equal(t, &Config{
		LogLevel:        "debug",
		Sections:        []string{"collect", "closure"},
		FilterUnrelated: true,
		Pattern:         "src/*.ts",
	}, cfg)

	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil, "empty.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "*.ts", cfg.Pattern)

	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, l)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "verbose: true", "field verbose not found"},
		{"bad level", "log_level: loud", "log_level"},
		{"unknown section", "sections: [backend]", `unknown section "backend"`},
		{"bad pattern", `pattern: "["`, "pattern"},
		{"not yaml", "sections: [", "parsing bad.yaml"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.yaml), "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.want)
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := Find(nested)
	require.NoError(t, err)
	if found != "" {
		// a gentype.yaml above the temp dir would be found first
		t.Skipf("found unrelated %s", found)
	}

	file := filepath.Join(root, FileName)
	require.NoError(t, os.WriteFile(file, []byte("filter_unrelated: true\n"), 0o644))
	found, err = Find(nested)
	require.NoError(t, err)
	assert.Equal(t, file, found)

	cfg, err := Load(found)
	require.NoError(t, err)
	assert.True(t, cfg.FilterUnrelated)

	_, err = Load(filepath.Join(root, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
