// Package tools provides the deterministic calculation tools exposed to
// tool-calling agents, the registry that dispatches them, and the LLM
// tool-calling loop.
//
// Every tool is a pure function over its JSON arguments (the property
// lookup additionally reads an external service). Dispatch never raises:
// failures are returned as structured error payloads so the model can
// recover within its loop.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/fluxion-eng/fluxion/core/providers"
)

// Handler executes one tool over decoded JSON arguments and returns a
// JSON-serializable result.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Spec declares one registered tool.
type Spec struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the input.
	Parameters map[string]any
	Handler    Handler
}

// Registry holds the named tool set bound to an agent.
type Registry struct {
	mu     sync.RWMutex
	specs  map[string]Spec
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{specs: make(map[string]Spec), logger: logger}
}

// Register adds a tool. Re-registering a name is a programming error.
func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("tools: spec name is required")
	}
	if spec.Handler == nil {
		return fmt.Errorf("tools: %s: handler is required", spec.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[spec.Name]; exists {
		return fmt.Errorf("tools: %s already registered", spec.Name)
	}
	r.specs[spec.Name] = spec
	return nil
}

// MustRegister registers a tool and panics on declaration errors.
func (r *Registry) MustRegister(spec Spec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns the provider-neutral declarations for binding to a request.
func (r *Registry) Tools() []providers.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]providers.Tool, 0, len(r.specs))
	for _, name := range r.namesLocked() {
		spec := r.specs[name]
		out = append(out, providers.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		})
	}
	return out
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch executes the named tool. The returned string is always a JSON
// document: the tool result on success, {"error": ...} on any failure
// (unknown name, malformed arguments, handler error). ok is false exactly
// when the payload is an error.
func (r *Registry) Dispatch(ctx context.Context, name, argsJSON string) (string, bool) {
	r.mu.RLock()
	spec, found := r.specs[name]
	r.mu.RUnlock()

	if !found {
		r.logger.Warn("unknown tool requested", "tool", name)
		return errorPayload(fmt.Sprintf("unknown tool %q; available: %v", name, r.Names())), false
	}

	if argsJSON == "" {
		argsJSON = "{}"
	}
	var probe any
	if err := json.Unmarshal([]byte(argsJSON), &probe); err != nil {
		return errorPayload(fmt.Sprintf("malformed arguments for %s: %v", name, err)), false
	}

	result, err := spec.Handler(ctx, json.RawMessage(argsJSON))
	if err != nil {
		r.logger.Warn("tool failed", "tool", name, "error", err)
		return errorPayload(fmt.Sprintf("%s: %v", name, err)), false
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errorPayload(fmt.Sprintf("%s: unserializable result: %v", name, err)), false
	}
	return string(raw), true
}

func errorPayload(msg string) string {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return string(raw)
}

// schema builds a JSON Schema object declaration.
func schema(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func num(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}
