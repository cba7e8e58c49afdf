// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// eventBatchSchema constrains the raw event batch shape before the engine
// touches it. Variant-specific payload fields stay open: each variant
// validates its own fields at extraction time.
const eventBatchSchema = `{
	"type": "object",
	"required": ["events"],
	"properties": {
		"events": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["type", "recipientUserIds", "groupId", "timestamp"],
				"properties": {
					"type": {"type": "string", "minLength": 1},
					"data": {"type": "object"},
					"recipientUserIds": {
						"type": "array",
						"items": {"type": "integer", "minimum": 1},
						"minItems": 1
					},
					"specifier": {"type": "string"},
					"groupId": {"type": "string", "minLength": 1},
					"timestamp": {"type": "string"}
				}
			}
		}
	}
}`

var batchSchemaLoader = gojsonschema.NewStringLoader(eventBatchSchema)

// ValidateEventBatch checks a raw job payload against the batch schema and
// returns a readable error listing every violation.
func ValidateEventBatch(payload []byte) error {
	result, err := gojsonschema.Validate(batchSchemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("invalid event batch: %s", strings.Join(msgs, "; "))
}
