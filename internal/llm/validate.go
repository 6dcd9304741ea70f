package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const templateSchemaURL = "template.schema.json"

// templateSchema is compiled on first use and shared by every decode.
var templateSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(BuildTemplateJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal template schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(templateSchemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add template schema: %w", err)
	}
	return compiler.Compile(templateSchemaURL)
})

// ValidateTemplateJSON checks model output against the template schema:
// an object with exactly hook, bridge, nugget and wta as non-empty strings.
func ValidateTemplateJSON(data []byte) error {
	schema, err := templateSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("template output is not json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("template output does not match schema: %w", err)
	}
	return nil
}
