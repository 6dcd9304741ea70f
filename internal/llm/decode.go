package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// DecodeTemplate validates model output strictly, falls back to a lenient
// normalization when allowed, and unmarshals the result.
func DecodeTemplate(content []byte, lenient bool, logger *slog.Logger, rid string, start time.Time) (TemplateFields, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidateTemplateJSON(content); err != nil {
		if !lenient {
			logger.Error("llm.template.schema_validation_failed",
				"req_id", rid, "error", err, "content", string(content),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return TemplateFields{}, content, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, changed, sErr := NormalizeTemplateJSON(content, logger)
		if sErr != nil {
			logger.Error("llm.template.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return TemplateFields{}, content, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateTemplateJSON(cleaned); vErr != nil {
			logger.Error("llm.template.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(cleaned),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return TemplateFields{}, cleaned, fmt.Errorf("schema validation failed: %w", vErr)
		}
		logger.Warn("llm.template.lenient_sanitize_applied",
			"req_id", rid, "changed", changed,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		content = cleaned
	}

	var out TemplateFields
	if err := json.Unmarshal(content, &out); err != nil {
		logger.Error("llm.template.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return TemplateFields{}, content, fmt.Errorf("unmarshal fields: %w", err)
	}
	return out, content, nil
}
