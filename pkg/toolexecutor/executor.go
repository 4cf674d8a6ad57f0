package toolexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/connect-raj/prompt-optimiser/internal/tracing"
)

const tracerName = "prompt-optimiser.toolexecutor"

// Dispatch outcome labels reported to a DispatchObserver.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	ErrorTypeUnknownTool = "unknown_tool"
	ErrorTypeValidation  = "validation"
	ErrorTypeHandler     = "handler"
)

// ToolParameter defines a parameter for a tool
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	MaxLength   int    `json:"max_length,omitempty"` // strings only, 0 means unlimited
}

// ToolDefinition defines a tool's metadata and handler
type ToolDefinition struct {
	Name        string          `json:"name"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
	Handler     ToolHandler     `json:"-"`
}

// ToolHandler is the function signature for tool execution. Handlers receive
// arguments that already passed schema validation.
type ToolHandler func(ctx context.Context, args Arguments) (ToolResult, error)

// DispatchObserver receives one notification per Dispatch call.
type DispatchObserver interface {
	ObserveDispatch(tool, status, errorType string, duration time.Duration)
}

type registeredTool struct {
	def       ToolDefinition
	schema    *gojsonschema.Schema
	schemaDoc map[string]interface{}
}

// Registry maps tool names to definitions and compiled argument schemas.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*registeredTool
	order    []string
	observer DispatchObserver
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*registeredTool),
	}
}

// SetObserver sets the observer notified after every dispatch
func (r *Registry) SetObserver(observer DispatchObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = observer
}

// Register adds a tool. It fails with *DuplicateToolError when the name is
// already taken.
func (r *Registry) Register(def ToolDefinition) error {
	if err := validateToolDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	doc := generateSchemaDocument(def)
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to compile schema for tool %s: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}

	def.Parameters = append([]ToolParameter(nil), def.Parameters...)
	r.tools[def.Name] = &registeredTool{def: def, schema: schema, schemaDoc: doc}
	r.order = append(r.order, def.Name)

	log.Info().Str("tool", def.Name).Msg("Tool registered")

	return nil
}

// Get returns a tool definition by name
func (r *Registry) Get(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return tool.def, true
}

// List returns all tool definitions in registration order
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// Names returns registered tool names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// InputSchema returns a copy of the JSON Schema published for a tool.
func (r *Registry) InputSchema(name string) (map[string]interface{}, bool) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	data, err := json.Marshal(tool.schemaDoc)
	if err != nil {
		return nil, false
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Dispatch validates rawArgs against the tool's schema and runs its handler.
// Lookup and validation failures are returned as *UnknownToolError and
// *ValidationError; the handler is not called in either case.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs map[string]interface{}) (ToolResult, error) {
	startTime := time.Now()

	ctx, span := tracing.StartSpan(ctx, tracerName, "tool.dispatch", attribute.String("tool.name", name))
	defer span.End()

	r.mu.RLock()
	tool := r.tools[name]
	observer := r.observer
	r.mu.RUnlock()

	result, errType, err := r.dispatch(ctx, tool, name, rawArgs)
	duration := time.Since(startTime)

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn().
			Str("tool", name).
			Str("error_type", errType).
			Dur("duration", duration).
			Err(err).
			Msg("Tool dispatch failed")
	} else {
		logger.Debug().
			Str("tool", name).
			Dur("duration", duration).
			Msg("Tool dispatch completed")
	}

	if observer != nil {
		observer.ObserveDispatch(name, status, errType, duration)
	}

	return result, err
}

func (r *Registry) dispatch(ctx context.Context, tool *registeredTool, name string, rawArgs map[string]interface{}) (ToolResult, string, error) {
	if tool == nil {
		return ToolResult{}, ErrorTypeUnknownTool, &UnknownToolError{Name: name}
	}

	if rawArgs == nil {
		rawArgs = map[string]interface{}{}
	}

	if err := validateArguments(name, tool.schema, rawArgs); err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return ToolResult{}, ErrorTypeValidation, err
		}
		return ToolResult{}, ErrorTypeValidation, &ValidationError{Tool: name, Field: RootField, Reason: err.Error()}
	}

	result, err := tool.def.Handler(ctx, Arguments(rawArgs))
	if err != nil {
		return ToolResult{}, ErrorTypeHandler, fmt.Errorf("tool %s failed: %w", name, err)
	}
	return result, "", nil
}

// validateToolDefinition validates a tool definition
func validateToolDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}

	seen := make(map[string]bool, len(def.Parameters))
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if seen[param.Name] {
			return fmt.Errorf("duplicate parameter %s", param.Name)
		}
		seen[param.Name] = true

		if param.Type == "" {
			return fmt.Errorf("parameter type cannot be empty for %s", param.Name)
		}
		if param.Description == "" {
			return fmt.Errorf("parameter description cannot be empty for %s", param.Name)
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %s for %s", param.Type, param.Name)
		}
		if param.MaxLength < 0 {
			return fmt.Errorf("negative max length for %s", param.Name)
		}
		if param.MaxLength > 0 && param.Type != "string" {
			return fmt.Errorf("max length is only supported on string parameters, got %s for %s", param.Type, param.Name)
		}
	}

	return nil
}

// generateSchemaDocument builds the JSON Schema published for a tool.
// Unknown properties are tolerated and passed through to the handler.
func generateSchemaDocument(def ToolDefinition) map[string]interface{} {
	properties := make(map[string]interface{}, len(def.Parameters))
	required := []string{}

	for _, param := range def.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.MaxLength > 0 {
			paramSchema["maxLength"] = param.MaxLength
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}
	return schemaMap
}

// validateArguments validates arguments against a compiled schema and reports
// the first failing field.
func validateArguments(tool string, schema *gojsonschema.Schema, args map[string]interface{}) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]
	return &ValidationError{
		Tool:   tool,
		Field:  resultErrorField(first),
		Reason: first.Description(),
	}
}

// resultErrorField extracts the offending property name. Errors raised on the
// object itself, such as a missing required property, carry the property in
// their details rather than in Field().
func resultErrorField(resultErr gojsonschema.ResultError) string {
	if property, ok := resultErr.Details()["property"].(string); ok && property != "" {
		return property
	}
	if field := resultErr.Field(); field != "" {
		return field
	}
	return RootField
}
