// Package validation validates request payloads against JSON schemas.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// HeartbeatRequestSchema describes the POST /heartbeat body.
const HeartbeatRequestSchema = `{
	"type": "object",
	"properties": {
		"sessionId": {
			"type": "string",
			"minLength": 1,
			"maxLength": 128
		}
	},
	"required": ["sessionId"],
	"additionalProperties": false
}`

var heartbeatSchemaLoader = gojsonschema.NewStringLoader(HeartbeatRequestSchema)

// ValidateHeartbeatRequest checks a raw JSON body against the heartbeat schema.
func ValidateHeartbeatRequest(body []byte) error {
	return validate(heartbeatSchemaLoader, body)
}

func validate(schemaLoader gojsonschema.JSONLoader, body []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %v", errs)
	}

	return nil
}
