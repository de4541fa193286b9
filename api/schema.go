package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/staffdir/pkg/apperror"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	createStaffSchema = mustSchema("schemas/create_staff.json")
	updateStaffSchema = mustSchema("schemas/update_staff.json")
)

func mustSchema(name string) *jsonschema.Schema {
	b, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read %s: %v", name, err))
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(b, rs); err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return rs
}

// checkBody validates a JSON request body before it is decoded.
func checkBody(ctx context.Context, rs *jsonschema.Schema, body []byte) error {
	if !json.Valid(body) {
		return &apperror.ValidationError{Message: "request body is not valid JSON"}
	}
	verrs, err := rs.ValidateBytes(ctx, body)
	if err != nil {
		return &apperror.ValidationError{Message: err.Error()}
	}
	if len(verrs) == 0 {
		return nil
	}
	field := strings.TrimPrefix(verrs[0].PropertyPath, "/")
	return &apperror.ValidationError{Field: field, Message: verrs[0].Message}
}
