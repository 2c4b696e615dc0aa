package generalize_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cottand/gentype/generalize"
	"github.com/cottand/gentype/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorArguments(t *testing.T) {
	d := generalize.Descriptor{Input: "zoo.ts", Offset: 12, Length: 3, Type: "Named"}
	args := d.Arguments()
	assert.Equal(t, map[string]string{"input": "zoo.ts", "selection": "12 3", "type": "Named"}, args)

	again, st := generalize.Initialize(args)
	assert.True(t, st.IsOK())
	assert.Equal(t, d, again)

	delete(args, generalize.KeyType)
	again, st = generalize.Initialize(args)
	assert.True(t, st.IsOK())
	assert.Empty(t, again.Type)
}

func TestInitializeErrors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]string
		code status.Code
	}{
		{"no input", map[string]string{"selection": "1 2"}, status.MissingArgument},
		{"blank input", map[string]string{"input": " ", "selection": "1 2"}, status.MissingArgument},
		{"no selection", map[string]string{"input": "a.ts"}, status.MissingArgument},
		{"one number", map[string]string{"input": "a.ts", "selection": "1"}, status.IllegalArgument},
		{"not a number", map[string]string{"input": "a.ts", "selection": "one 2"}, status.IllegalArgument},
		{"negative", map[string]string{"input": "a.ts", "selection": "-1 2"}, status.IllegalArgument},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, st := generalize.Initialize(test.args)
			entry, ok := st.Fatal()
			require.True(t, ok)
			assert.Equal(t, test.code, entry.Code)
		})
	}
}

func TestDescriptorYAML(t *testing.T) {
	d := generalize.Descriptor{Input: "src/zoo.ts", Offset: 40, Length: 6}
	var buf bytes.Buffer
	require.NoError(t, generalize.WriteDescriptor(&buf, d))
	assert.Contains(t, buf.String(), "input: src/zoo.ts")

	read, st, err := generalize.ReadDescriptor(&buf)
	require.NoError(t, err)
	assert.True(t, st.IsOK())
	assert.Equal(t, d, read)

	_, _, err = generalize.ReadDescriptor(strings.NewReader("input: [unterminated"))
	assert.Error(t, err)

	_, st, err = generalize.ReadDescriptor(strings.NewReader("input: a.ts\n"))
	require.NoError(t, err)
	assert.True(t, st.HasFatal())
}
