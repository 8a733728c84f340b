// Package tool defines the Tool contract the model may invoke and a
// registry that groups tools into named, role-scoped toolsets.
package tool

import (
	"context"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParamType is the JSON-schema primitive type of a declared parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
)

// Param describes one parameter a Tool accepts.
type Param struct {
	Type        ParamType
	Description string
}

// Tool is the self-describing capability surface the model may invoke
// (spec §4.2). Side effects happen in Setup, not construction, so tools are
// safe to build before a run is known to proceed.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]Param
	RequiredParameters() map[string]bool

	// Setup performs any side effects needed before the tool can be
	// called (e.g. nothing for most tools; container provisioning for
	// stateful ones).
	Setup(ctx context.Context) error

	// Teardown runs at environment teardown; err is the run's terminal
	// error, if any, so a tool can adjust its cleanup.
	Teardown(ctx context.Context, err error) error

	// Call executes the tool with already-validated, coerced arguments.
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Schema builds the JSON-schema object (`type`, `properties`, `required`)
// describing a tool's parameters, for the backend to hand to the model.
func Schema(t Tool) map[string]any {
	props := make(map[string]any, len(t.Parameters()))
	for name, p := range t.Parameters() {
		props[name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	required := make([]string, 0, len(t.RequiredParameters()))
	for name, req := range t.RequiredParameters() {
		if req {
			required = append(required, name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// CompileSchema validates a tool's declared schema is itself well-formed
// JSON-schema, run once at Register time.
func CompileSchema(t Tool) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	const resourceURL = "tool-schema.json"
	doc := Schema(t)
	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource for %s: %w", t.Name(), err)
	}
	schema, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", t.Name(), err)
	}
	return schema, nil
}
