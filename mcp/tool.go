package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ToolHandler executes a tool. params has already been validated against the
// tool's parameter list; it is nil when the request carried no parameters.
type ToolHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Param declares one required tool parameter.
type Param struct {
	Name string
	Type string
}

type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     ToolHandler

	schema *gojsonschema.Schema
}

var paramTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
}

// Descriptor renders the tool for the capability announcement.
func (t *Tool) Descriptor() ToolDescriptor {
	props := make(map[string]string, len(t.Params))
	required := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		props[p.Name] = p.Type
		required = append(required, p.Name)
	}
	sort.Strings(required)

	return ToolDescriptor{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: InputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func validateTool(tool *Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	seen := make(map[string]bool, len(tool.Params))
	for _, p := range tool.Params {
		if p.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter: %s", p.Name)
		}
		if !paramTypes[p.Type] {
			return fmt.Errorf("parameter %s: unsupported type %q", p.Name, p.Type)
		}
		seen[p.Name] = true
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(validationSchema(tool.Params)))
	if err != nil {
		return fmt.Errorf("invalid input schema: %v", err)
	}
	tool.schema = schema
	return nil
}

// validationSchema is the JSON Schema enforced on incoming params. Strings
// must be non-empty; undeclared keys are ignored.
func validationSchema(params []Param) map[string]interface{} {
	props := make(map[string]interface{}, len(params))
	required := make([]interface{}, 0, len(params))
	for _, p := range params {
		prop := map[string]interface{}{"type": p.Type}
		if p.Type == "string" {
			prop["minLength"] = 1
		}
		props[p.Name] = prop
		required = append(required, p.Name)
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (t *Tool) validateParams(params json.RawMessage) error {
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	result, err := t.schema.Validate(gojsonschema.NewBytesLoader(params))
	if err != nil {
		return newProcessingError(KindInvalidParams, t.Name, "invalid params for %s: %v", t.Name, err)
	}
	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return newProcessingError(KindInvalidParams, t.Name, "invalid params for %s: %s", t.Name, strings.Join(errorMessages, "; "))
	}
	return nil
}
