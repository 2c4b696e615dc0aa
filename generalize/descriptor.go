package generalize

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cottand/gentype/status"
	"gopkg.in/yaml.v3"
)

// Descriptor keys, as stored in a replay file.
const (
	KeyInput     = "input"
	KeySelection = "selection"
	KeyType      = "type"
)

// Descriptor records a refactoring invocation so that it can be replayed:
// the unit, the selected range, and optionally the type chosen as replacement.
type Descriptor struct {
	Input  string
	Offset int
	Length int
	Type   string
}

// Arguments encodes d as flat key-value pairs.
func (d Descriptor) Arguments() map[string]string {
	args := map[string]string{
		KeyInput:     d.Input,
		KeySelection: fmt.Sprintf("%d %d", d.Offset, d.Length),
	}
	if d.Type != "" {
		args[KeyType] = d.Type
	}
	return args
}

// Initialize decodes a Descriptor from its arguments, reporting missing or malformed
// arguments as fatal entries.
func Initialize(args map[string]string) (Descriptor, *status.Status) {
	var d Descriptor
	input, ok := args[KeyInput]
	if !ok || strings.TrimSpace(input) == "" {
		return d, fatal(status.MissingArgument, "argument %q is missing", KeyInput)
	}
	d.Input = input

	selection, ok := args[KeySelection]
	if !ok {
		return d, fatal(status.MissingArgument, "argument %q is missing", KeySelection)
	}
	fields := strings.Fields(selection)
	if len(fields) != 2 {
		return d, fatal(status.IllegalArgument, "argument %q must be \"offset length\", got %q", KeySelection, selection)
	}
	offset, errOffset := strconv.Atoi(fields[0])
	length, errLength := strconv.Atoi(fields[1])
	if errOffset != nil || errLength != nil || offset < 0 || length < 0 {
		return d, fatal(status.IllegalArgument, "argument %q must hold two non-negative integers, got %q", KeySelection, selection)
	}
	d.Offset, d.Length = offset, length
	d.Type = args[KeyType]
	return d, nil
}

// WriteDescriptor writes d as a YAML mapping of its arguments.
func WriteDescriptor(w io.Writer, d Descriptor) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(d.Arguments()); err != nil {
		return fmt.Errorf("failed to encode descriptor: %w", err)
	}
	return nil
}

// ReadDescriptor reads a YAML mapping written by WriteDescriptor. Malformed YAML is an error;
// well-formed YAML with bad arguments yields a fatal status.
func ReadDescriptor(r io.Reader) (Descriptor, *status.Status, error) {
	var args map[string]string
	if err := yaml.NewDecoder(r).Decode(&args); err != nil {
		return Descriptor{}, nil, fmt.Errorf("failed to decode descriptor: %w", err)
	}
	d, st := Initialize(args)
	return d, st, nil
}
