package seeder

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// tagSchema checks that both Tag kinds carry the "hayroll"/"seedType"/"begin"
// discriminator fields of §3's Tag description (other fields are not
// checked) before a Tag is serialized into the seeded source as a C string literal —
// the same schema-gate internal/compilecommand applies to
// compile_commands.json entries.
var tagSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"hayroll", "seedType", "begin"},
	Properties: map[string]*jsonschema.Schema{
		"hayroll":  {Type: "boolean"},
		"seedType": {Type: "string"},
		"begin":    {Type: "boolean"},
	},
}

var resolvedTagSchema *jsonschema.Resolved

func resolvedSchema() (*jsonschema.Resolved, error) {
	if resolvedTagSchema != nil {
		return resolvedTagSchema, nil
	}
	r, err := tagSchema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("seeder: invalid built-in tag schema: %w", err)
	}
	resolvedTagSchema = r
	return r, nil
}

// InvocationTag is embedded, JSON-serialized as a C string literal, at a
// macro-invocation begin/end boundary (spec §3 Tag, "Invocation Tag").
type InvocationTag struct {
	Hayroll  bool   `json:"hayroll"`
	SeedType string `json:"seedType"`
	Begin    bool   `json:"begin"`

	IsArg             bool     `json:"isArg"`
	ArgNames          []string `json:"argNames"`
	ASTKind           string   `json:"astKind"`
	IsLvalue          bool     `json:"isLvalue"`
	Name              string   `json:"name"`
	LocBegin          string   `json:"locBegin"`
	LocEnd            string   `json:"locEnd"`
	CuLnColBegin      string   `json:"cuLnColBegin"`
	CuLnColEnd        string   `json:"cuLnColEnd"`
	LocRefBegin       string   `json:"locRefBegin"`
	Premise           string   `json:"premise"`
	CanBeFn           bool     `json:"canBeFn"`
}

// ConditionalTag is embedded at a conditional (#if/#elif/#else) region's
// begin/end boundary (spec §3 Tag, "Conditional Tag").
type ConditionalTag struct {
	Hayroll  bool   `json:"hayroll"`
	SeedType string `json:"seedType"`
	Begin    bool   `json:"begin"`

	ASTKind         string   `json:"astKind"`
	IsLvalue        bool     `json:"isLvalue"`
	LocBegin        string   `json:"locBegin"`
	LocEnd          string   `json:"locEnd"`
	CuLnColBegin    string   `json:"cuLnColBegin"`
	CuLnColEnd      string   `json:"cuLnColEnd"`
	LocRefBegin     string   `json:"locRefBegin"`
	IsPlaceholder   bool     `json:"isPlaceholder"`
	Premise         string   `json:"premise"`
	MergedVariants  []string `json:"mergedVariants"`
}

// escapeCString escapes s for embedding inside a C double-quoted string
// literal: backslash and quote are escaped, and any embedded newline
// becomes a literal "\n" escape so the tag stays on one source line.
func escapeCString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// stringLiteral validates tag against tagSchema and renders it as a
// double-quoted C string literal embedding its JSON form (spec §3 Tag:
// "a JSON-serialized record embedded as a C string literal"), the Go
// analogue of Seeder.hpp's JsonStringLiteralMixin.
func stringLiteral(tag any) (string, error) {
	data, err := json.Marshal(tag)
	if err != nil {
		return "", fmt.Errorf("seeder: marshaling tag: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("seeder: tag round-trip: %w", err)
	}
	r, err := resolvedSchema()
	if err != nil {
		return "", err
	}
	if err := r.Validate(v); err != nil {
		return "", fmt.Errorf("seeder: tag failed schema validation: %w", err)
	}
	return `"` + escapeCString(string(data)) + `"`, nil
}
