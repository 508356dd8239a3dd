package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

const rootField = "(root)"

// EmptyObjectSchema accepts an object with no declared properties.
const EmptyObjectSchema = `{"type":"object","properties":{}}`

// inputSchema is a compiled argument schema plus the declared property types,
// which gojsonschema does not report for missing required fields.
type inputSchema struct {
	raw      json.RawMessage
	compiled *gojsonschema.Schema
	types    map[string]string
}

func compileSchema(raw []byte) (*inputSchema, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte(EmptyObjectSchema)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("schema is not valid JSON")
	}

	var doc struct {
		Type       string `json:"type"`
		Properties map[string]struct {
			Type   string `json:"type"`
			Format string `json:"format"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if doc.Type != "object" {
		return nil, fmt.Errorf("schema type must be \"object\", got %q", doc.Type)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	types := make(map[string]string, len(doc.Properties))
	for name, prop := range doc.Properties {
		expected := prop.Type
		if prop.Format != "" {
			expected = fmt.Sprintf("%s (%s)", prop.Type, prop.Format)
		}
		types[name] = expected
	}

	return &inputSchema{
		raw:      append(json.RawMessage(nil), raw...),
		compiled: compiled,
		types:    types,
	}, nil
}

// validate checks args and returns the violations, if any.
func (s *inputSchema) validate(args json.RawMessage) []Violation {
	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return []Violation{{Field: rootField, Expected: "object", Reason: err.Error()}}
	}
	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, s.violation(re))
	}
	return violations
}

func (s *inputSchema) violation(re gojsonschema.ResultError) Violation {
	field := re.Field()
	details := re.Details()

	if re.Type() == "required" {
		if prop, ok := details["property"].(string); ok {
			field = prop
		}
	}

	expected := s.types[field]
	if want, ok := details["expected"].(string); ok && re.Type() == "invalid_type" {
		expected = want
	}
	if field == rootField && expected == "" {
		expected = "object"
	}

	return Violation{Field: field, Expected: expected, Reason: re.Description()}
}

// normalizeArgs treats absent and null arguments as an empty object.
func normalizeArgs(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	return trimmed
}
