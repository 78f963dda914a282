// Package compilecommand loads and manipulates compile_commands.json
// entries (spec §3 Compile Command, §6 Input), grounded in
// original_source/src/CompileCommand.hpp.
package compilecommand

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Command is one compile_commands.json entry: a tokenized argv, the working
// directory it was run from, the primary input file, and the expected
// object-file output path. Derivation methods never mutate the receiver.
type Command struct {
	Arguments []string
	Directory string
	File      string
	Output    string
}

// schema describes the shape of one compile_commands.json element; loaded
// commands are validated against it before being parsed into Commands, the
// same role google/jsonschema-go plays for the seeder's Tag JSON (§4.8).
var schema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"arguments", "directory", "file"},
	Properties: map[string]*jsonschema.Schema{
		"arguments": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"directory": {Type: "string"},
		"file":      {Type: "string"},
		"output":    {Type: "string"},
	},
}

var resolvedSchema *jsonschema.Resolved

func resolved() (*jsonschema.Resolved, error) {
	if resolvedSchema != nil {
		return resolvedSchema, nil
	}
	r, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("compilecommand: invalid built-in schema: %w", err)
	}
	resolvedSchema = r
	return r, nil
}

// Load parses a compile_commands.json document, validating every element's
// shape before decoding it, and canonicalizing Directory/File/Output to
// absolute paths relative to each other exactly as
// CompileCommand::fromCompileCommandsJson does.
func Load(data []byte) ([]Command, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("compilecommand: invalid compile_commands.json: %w", err)
	}

	r, err := resolved()
	if err != nil {
		return nil, err
	}

	commands := make([]Command, 0, len(raw))
	for i, item := range raw {
		var v any
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("compilecommand: entry %d: %w", i, err)
		}
		if err := r.Validate(v); err != nil {
			return nil, fmt.Errorf("compilecommand: entry %d failed schema validation: %w", i, err)
		}

		var entry struct {
			Arguments []string `json:"arguments"`
			Directory string   `json:"directory"`
			File      string   `json:"file"`
			Output    string   `json:"output"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, fmt.Errorf("compilecommand: entry %d: %w", i, err)
		}

		dir, err := filepath.Abs(entry.Directory)
		if err != nil {
			return nil, fmt.Errorf("compilecommand: entry %d: %w", i, err)
		}
		file := entry.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		output := entry.Output
		if output != "" && !filepath.IsAbs(output) {
			output = filepath.Join(dir, output)
		}

		commands = append(commands, Command{
			Arguments: entry.Arguments,
			Directory: dir,
			File:      file,
			Output:    output,
		})
	}
	return commands, nil
}

// ToJSON renders commands back into compile_commands.json array form.
func ToJSON(commands []Command) ([]byte, error) {
	type jsonCommand struct {
		Arguments []string `json:"arguments"`
		Directory string   `json:"directory"`
		File      string   `json:"file"`
		Output    string   `json:"output"`
	}
	out := make([]jsonCommand, len(commands))
	for i, c := range commands {
		out[i] = jsonCommand{Arguments: c.Arguments, Directory: c.Directory, File: c.File, Output: c.Output}
	}
	return json.MarshalIndent(out, "", "  ")
}

// IncludePaths returns the command's directory followed by every -I
// argument's path, resolved absolute relative to Directory.
func (c Command) IncludePaths() []string {
	paths := []string{c.Directory}
	for _, arg := range c.Arguments {
		path, ok := strings.CutPrefix(arg, "-I")
		if !ok {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Directory, path)
		}
		paths = append(paths, path)
	}
	return paths
}

// Defines returns the macro name/value pairs named by -D arguments, in the
// order they appear (later -D's for the same name shadow earlier ones when
// consumed into a symbol table, same as driving cc directly).
func (c Command) Defines() []string {
	var defs []string
	for _, arg := range c.Arguments {
		if d, ok := strings.CutPrefix(arg, "-D"); ok {
			defs = append(defs, d)
		}
	}
	return defs
}

// FileRelativeToDirectory returns File relative to Directory, or File
// unchanged if that relation can't be computed.
func (c Command) FileRelativeToDirectory() string {
	rel, err := filepath.Rel(c.Directory, c.File)
	if err != nil {
		return c.File
	}
	return rel
}

// WithUpdatedFile returns a copy of c pointing at a different primary input.
func (c Command) WithUpdatedFile(file string) Command {
	c.File = file
	return c
}

// WithUpdatedDirectory returns a copy of c with a different working
// directory.
func (c Command) WithUpdatedDirectory(dir string) Command {
	c.Directory = dir
	return c
}

// WithUpdatedOutput returns a copy of c with a different output path.
func (c Command) WithUpdatedOutput(output string) Command {
	c.Output = output
	return c
}

// WithUpdatedDefineSet returns a copy of c with every existing -D argument
// stripped and replaced by options (typically a definesets.DefineSet's
// ToOptions()), so each configuration gets its own command line.
func (c Command) WithUpdatedDefineSet(options []string) Command {
	args := make([]string, 0, len(c.Arguments)+len(options))
	for _, arg := range c.Arguments {
		if strings.HasPrefix(arg, "-D") {
			continue
		}
		args = append(args, arg)
	}
	args = append(args, options...)
	c.Arguments = args
	return c
}

// WithUpdatedExtension returns a copy of c with File's extension replaced by
// ext (which should include the leading dot, e.g. ".cu.c"), used when
// deriving a per-DefineSet compilation-unit file path from the original
// source file (CompileCommand.hpp's withUpdatedExtension, consumed by
// MakiWrapper.hpp's runCpp2cOnCu).
func (c Command) WithUpdatedExtension(ext string) Command {
	base := c.File
	if dot := strings.LastIndexByte(filepath.Base(base), '.'); dot >= 0 {
		base = base[:len(base)-(len(filepath.Base(base))-dot)]
	}
	c.File = base + ext
	return c
}

// Directories returns the distinct Directory values among commands, used by
// the driver to emit the "directory-spanning" warning (SPEC_FULL §4) when a
// compile_commands.json spans more than one.
func Directories(commands []Command) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, c := range commands {
		if !seen[c.Directory] {
			seen[c.Directory] = true
			dirs = append(dirs, c.Directory)
		}
	}
	return dirs
}
