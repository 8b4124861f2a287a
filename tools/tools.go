// Package tools provides the capability registry and its permission gate.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/wardenkit/warden/errors"
)

// Sentinel errors returned by Registry lookups.
var (
	ErrToolUnknown = errors.NotFound("tool not registered")
	ErrToolDenied  = errors.Forbidden("tool denied by permissions")
)

// Tool represents an executable capability.
type Tool interface {
	// Name returns the tool name.
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Parameters returns the JSON schema for parameters.
	Parameters() map[string]interface{}
	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// Definition is the caller-facing tool definition.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// funcTool adapts a plain function into a Tool.
type funcTool struct {
	name        string
	description string
	parameters  map[string]interface{}
	run         func(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

func (t *funcTool) Name() string                       { return t.name }
func (t *funcTool) Description() string                { return t.description }
func (t *funcTool) Parameters() map[string]interface{} { return t.parameters }

func (t *funcTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.run(ctx, args)
}

// NewTool wraps a function as a Tool.
func NewTool(name, description string, parameters map[string]interface{}, run func(ctx context.Context, args map[string]interface{}) (interface{}, error)) Tool {
	return &funcTool{
		name:        name,
		description: description,
		parameters:  parameters,
		run:         run,
	}
}

// Registry holds registered tools behind a permission gate.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	perms *Permissions
}

// NewRegistry creates a registry. A nil perms allows every tool.
func NewRegistry(perms *Permissions) *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		perms: perms,
	}
}

// Register adds a tool to the registry, replacing any tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Has returns true if the registry has a tool with the given name,
// regardless of permissions.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Get returns a tool by name after checking permissions.
// Unknown names return ErrToolUnknown; denied names return ErrToolDenied.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrToolUnknown)
	}
	if allowed, reason := r.perms.Decide(name); !allowed {
		return nil, fmt.Errorf("%s: %s: %w", name, reason, ErrToolDenied)
	}
	return t, nil
}

// Execute resolves name through the permission gate and runs the tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Execute(ctx, args)
}

// Definitions returns caller-facing definitions for permitted tools.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []Definition
	for _, t := range r.tools {
		if allowed, _ := r.perms.Decide(t.Name()); !allowed {
			continue
		}
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Names returns the names of all registered tools, permitted or not.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}
