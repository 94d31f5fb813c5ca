package api

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// eventSchema validates incoming webhook payloads before they reach the
// rule engine. Organization ID arrives via header, so it is optional here.
const eventSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"type": {
			"type": "string",
			"minLength": 1
		},
		"organization_id": {
			"type": "string"
		},
		"data": {
			"type": "object"
		},
		"timestamp": {
			"type": "string"
		},
		"event_id": {
			"type": "string"
		}
	},
	"required": ["type", "data"]
}`

// compileEventSchema compiles the webhook payload schema.
func compileEventSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := "https://kestrel.schemas.local/event.schema.json"
	if err := c.AddResource(schemaURL, strings.NewReader(eventSchema)); err != nil {
		return nil, fmt.Errorf("failed to load event schema: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile event schema: %w", err)
	}
	return compiled, nil
}
