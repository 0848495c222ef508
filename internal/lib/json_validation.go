package lib

import (
	"context"
	"encoding/json"

	"github.com/qri-io/jsonschema"
)

// ValidateJSON validates a JSON raw message against a given JSON schema.
// It returns a list of validation errors if the JSON is invalid.
func ValidateJSON(content json.RawMessage, schemaString string) ([]jsonschema.KeyError, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(schemaString), rs); err != nil {
		return nil, err
	}

	return rs.ValidateBytes(context.Background(), content)
}

// CreateCommentSchema is the backend's published schema for the
// create-comment payload. Validating locally before sending turns a
// would-be 422 round trip into an immediate error.
func CreateCommentSchema() string {
	return `{
		"type": "object",
		"properties": {
			"post_id": {"type": "string", "minLength": 1},
			"content": {"type": "string", "minLength": 1, "maxLength": 2000},
			"parent_id": {"type": "string"},
			"reply_to_user_id": {"type": "string"},
			"idempotency_key": {"type": "string"}
		},
		"required": ["post_id", "content"]
	}`
}
