package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildFieldSetSchema returns the JSON-Schema the oracle response must
// satisfy: the six RawFieldSet fields, all optional strings, nothing else.
func buildFieldSetSchema() map[string]any {
	stringProp := map[string]any{"type": "string"}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"product_name_zh": stringProp,
			"quantity_spec":   stringProp,
			"unit_price":      stringProp,
			"courier":         stringProp,
			"tracking_number": stringProp,
			"warehouse_date":  stringProp,
		},
	}
}

// validateFieldSetJSON validates raw oracle output against the field-set
// schema. The oracle is untrusted; nothing it returns is used unvalidated.
func validateFieldSetJSON(data []byte) error {
	b, err := json.Marshal(buildFieldSetSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fieldset.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("fieldset.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("response does not match field-set schema: %w", err)
	}
	return nil
}

// sanitizeResponse strips markdown fences, drops unknown keys and coerces
// null or numeric values so a cooperative-but-sloppy oracle response can
// still validate. Returns the cleaned JSON bytes.
func sanitizeResponse(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err != nil {
		return nil, fmt.Errorf("decode oracle response: %w", err)
	}

	allowed := map[string]struct{}{
		"product_name_zh": {}, "quantity_spec": {}, "unit_price": {},
		"courier": {}, "tracking_number": {}, "warehouse_date": {},
	}
	for k, v := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			continue
		}
		switch t := v.(type) {
		case string:
			m[k] = strings.TrimSpace(t)
		case float64:
			m[k] = strings.TrimSuffix(fmt.Sprintf("%g", t), ".0")
		case nil:
			delete(m, k)
		default:
			// Structurally wrong values are left for schema validation
			// to reject.
		}
	}

	return json.Marshal(m)
}
