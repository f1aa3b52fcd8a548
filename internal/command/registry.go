// Package command holds the registry mapping command names to coercion
// schemas and handler functions. The registry is populated during process
// startup and frozen before the HTTP server accepts traffic; after the freeze
// it is read-only and safe for concurrent use.
package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"modelkit/internal/coerce"
	"modelkit/pkg/types"
)

// Values is a field-name keyed mapping, either wire-format (JSON values) or
// domain-format (decoded values) depending on which side of the coercion
// boundary it sits on.
type Values map[string]any

// Handler executes one command invocation. handle is the opaque model handle
// produced by setup; in holds decoded domain values keyed by the input schema.
type Handler func(ctx context.Context, handle any, in Values) (Values, error)

// Spec declares one command: its name, input/output schemas, and handler.
type Spec struct {
	Name    string
	Inputs  map[string]coerce.Field
	Outputs map[string]coerce.Field
	Handler Handler
}

// Registry maps command names to specs.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Spec
	frozen   bool
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Spec)}
}

// Register adds a command. It fails on duplicate names, registration after
// Freeze, empty or path-unsafe names, missing handlers, and schemas that
// reference a kind outside the closed coercion set.
func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" || strings.ContainsAny(spec.Name, "/ ") {
		return fmt.Errorf("invalid command name: %q", spec.Name)
	}
	if spec.Handler == nil {
		return fmt.Errorf("command %s: nil handler", spec.Name)
	}
	if err := checkSchema(spec.Name, "input", spec.Inputs); err != nil {
		return err
	}
	if err := checkSchema(spec.Name, "output", spec.Outputs); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("command %s: registry is frozen", spec.Name)
	}
	if _, exists := r.commands[spec.Name]; exists {
		return duplicateCommandError{name: spec.Name}
	}
	r.commands[spec.Name] = spec
	return nil
}

// Resolve returns the spec registered under name.
func (r *Registry) Resolve(name string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.commands[name]
	if !ok {
		return Spec{}, unknownCommandError{name: name}
	}
	return spec, nil
}

// Freeze marks the end of the registration phase. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Manifest lists registered commands sorted by name.
func (r *Registry) Manifest() []types.CommandManifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.CommandManifest, 0, len(r.commands))
	for _, spec := range r.commands {
		out = append(out, types.CommandManifest{
			Name:    spec.Name,
			Inputs:  fieldSpecs(spec.Inputs),
			Outputs: fieldSpecs(spec.Outputs),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func checkSchema(cmd, side string, schema map[string]coerce.Field) error {
	for name, f := range schema {
		if name == "" {
			return fmt.Errorf("command %s: empty %s field name", cmd, side)
		}
		if !f.Kind.Valid() {
			return fmt.Errorf("command %s: %s field %s: unknown declared type %q", cmd, side, name, f.Kind)
		}
	}
	return nil
}

func fieldSpecs(schema map[string]coerce.Field) []types.FieldSpec {
	out := make([]types.FieldSpec, 0, len(schema))
	for name, f := range schema {
		out = append(out, types.FieldSpec{
			Name:   name,
			Type:   string(f.Kind),
			Width:  f.Width,
			Height: f.Height,
			Length: f.Length,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
