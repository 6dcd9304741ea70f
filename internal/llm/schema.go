package llm

// TemplateFieldNames lists the schema properties in output order.
var TemplateFieldNames = []string{"hook", "bridge", "nugget", "wta"}

// BuildTemplateJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It goes to OpenAI as a structured output hint and is used locally to validate.
func BuildTemplateJSONSchema() map[string]any {
	props := make(map[string]any, len(TemplateFieldNames))
	for _, name := range TemplateFieldNames {
		props[name] = map[string]any{"type": "string", "minLength": 1}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             TemplateFieldNames,
	}
}
