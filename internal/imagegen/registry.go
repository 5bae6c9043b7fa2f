package imagegen

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultAlias is the alias used when a message does not select a model.
const DefaultAlias = "flux"

// BuiltinModels maps user-facing aliases to provider-qualified model ids.
var BuiltinModels = map[string]string{
	"flux":         "provider-3/FLUX.1-dev",
	"flux-schnell": "provider-1/FLUX.1-schnell",
	"imagen3":      "provider-4/imagen-3",
	"imagen4":      "provider-4/imagen-4",
}

// Registry is an immutable alias -> model id table with one default entry.
// It is safe for concurrent reads.
type Registry struct {
	models       map[string]string
	defaultAlias string
}

// NewRegistry builds a registry from models. Aliases are matched case-insensitively.
func NewRegistry(models map[string]string, defaultAlias string) (*Registry, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("model registry is empty")
	}
	r := &Registry{models: make(map[string]string, len(models))}
	for alias, id := range models {
		alias = normalizeAlias(alias)
		id = strings.TrimSpace(id)
		if alias == "" || id == "" {
			return nil, fmt.Errorf("invalid model entry %q=%q", alias, id)
		}
		r.models[alias] = id
	}
	r.defaultAlias = normalizeAlias(defaultAlias)
	if _, ok := r.models[r.defaultAlias]; !ok {
		return nil, fmt.Errorf("default model alias %q is not registered", defaultAlias)
	}
	return r, nil
}

// NewRegistryWithOverrides merges overrides on top of BuiltinModels.
func NewRegistryWithOverrides(overrides map[string]string, defaultAlias string) (*Registry, error) {
	models := make(map[string]string, len(BuiltinModels)+len(overrides))
	for k, v := range BuiltinModels {
		models[k] = v
	}
	for k, v := range overrides {
		models[normalizeAlias(k)] = v
	}
	if strings.TrimSpace(defaultAlias) == "" {
		defaultAlias = DefaultAlias
	}
	return NewRegistry(models, defaultAlias)
}

// Resolve returns the model id bound to alias.
func (r *Registry) Resolve(alias string) (string, bool) {
	id, ok := r.models[normalizeAlias(alias)]
	return id, ok
}

func (r *Registry) DefaultID() string    { return r.models[r.defaultAlias] }
func (r *Registry) DefaultAlias() string { return r.defaultAlias }

// Aliases returns the registered aliases in lexical order.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.models))
	for alias := range r.models {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

func normalizeAlias(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
