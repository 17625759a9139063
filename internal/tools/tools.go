// Package tools defines the tools available to the agent: the schema
// catalog handed to the model and the dispatch table that executes
// requested calls.
package tools

import (
	"context"
	"fmt"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string                                                          `json:"name"`
	Description string                                                          `json:"description"`
	Parameters  map[string]any                                                  `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// ErrToolUnavailable is returned when a tool call targets a tool that
// is not present in the registry. This indicates a capability mismatch,
// not a transient execution failure.
type ErrToolUnavailable struct {
	ToolName string
}

// Error implements the error interface.
func (e *ErrToolUnavailable) Error() string {
	return fmt.Sprintf("tool %q is not available", e.ToolName)
}

// Registry holds available tools.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty tool registry. Use RegisterBuiltins (or
// Register directly) to populate it.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the registry. Re-registering a name replaces
// the previous tool without changing catalog order.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Catalog returns all tools in the wire shape the model expects.
func (r *Registry) Catalog() []map[string]any {
	result := make([]map[string]any, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Execute runs a tool by name with given arguments. Unknown names
// return *ErrToolUnavailable; the orchestration loop turns that into a
// literal "Unknown tool" result rather than failing the turn. Arguments
// are checked against the tool's declared schema before the handler runs.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", &ErrToolUnavailable{ToolName: name}
	}
	if err := validateArgs(tool, args); err != nil {
		return "", err
	}
	return tool.Handler(ctx, args)
}

// validateArgs checks a call against the declared parameter schema:
// required properties must be present, and provided values must match
// their declared primitive type. Undeclared arguments pass through for
// the handler to ignore.
func validateArgs(t *Tool, args map[string]any) error {
	props, _ := t.Parameters["properties"].(map[string]any)

	for _, name := range requiredNames(t.Parameters["required"]) {
		if _, present := args[name]; !present {
			return fmt.Errorf("tool %q: missing required argument %q", t.Name, name)
		}
	}

	for name, value := range args {
		schema, ok := props[name].(map[string]any)
		if !ok || value == nil {
			continue
		}
		want, _ := schema["type"].(string)
		if want != "" && !typeMatches(want, value) {
			return fmt.Errorf("tool %q: argument %q must be a %s", t.Name, name, want)
		}
	}
	return nil
}

// requiredNames tolerates both []string (schemas built in code) and
// []any (schemas decoded from JSON).
func requiredNames(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		names := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

func typeMatches(want string, v any) bool {
	switch want {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "number", "integer":
		switch v.(type) {
		case float64, int, int64:
			return true
		}
		return false
	default:
		return true
	}
}
