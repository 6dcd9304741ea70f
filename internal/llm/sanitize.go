package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
)

// NormalizeTemplateJSON
// - Strips markdown code fences around the object
// - Renames known synonyms (golden_nugget -> nugget, cta -> wta)
// - Flattens string arrays into a single sentence
// - Trims strings and drops empty/null values
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeTemplateJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(ExtractJSONObject(raw), &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	// some models wrap the object: {"template": {...}}
	if inner, ok := m["template"].(map[string]any); ok && len(m) == 1 {
		m = inner
	}

	changed := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			changed = append(changed, from+"->"+to)
		}
	}

	renamed("Hook", "hook")
	renamed("Bridge", "bridge")
	renamed("golden_nugget", "nugget")
	renamed("goldenNugget", "nugget")
	renamed("value_nugget", "nugget")
	renamed("Nugget", "nugget")
	renamed("cta", "wta")
	renamed("CTA", "wta")
	renamed("call_to_action", "wta")
	renamed("callToAction", "wta")
	renamed("WTA", "wta")

	allowed := make(map[string]struct{}, len(TemplateFieldNames))
	for _, k := range TemplateFieldNames {
		allowed[k] = struct{}{}
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			changed = append(changed, k+"(unknown)")
		}
	}

	for _, k := range TemplateFieldNames {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				delete(m, k)
				changed = append(changed, k+"(empty)")
			} else {
				m[k] = s
			}
		case []any:
			var parts []string
			for _, p := range t {
				if s, ok := p.(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			if len(parts) == 0 {
				delete(m, k)
				changed = append(changed, k+"(empty)")
			} else {
				m[k] = strings.Join(parts, " ")
				changed = append(changed, k+"(joined)")
			}
		case nil:
			delete(m, k)
			changed = append(changed, k+"(null)")
		default:
			delete(m, k)
			changed = append(changed, k+"(type)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.template.normalize_sanitize", "changed", changed)
	}
	return out, changed, nil
}

// ExtractJSONObject returns the outermost {...} of s, which drops ```json fences
// and chatter around the object. The input is returned unchanged when no braces exist.
func ExtractJSONObject(s []byte) []byte {
	str := string(s)
	start := strings.Index(str, "{")
	end := strings.LastIndex(str, "}")
	if start < 0 || end <= start {
		return s
	}
	return []byte(str[start : end+1])
}
