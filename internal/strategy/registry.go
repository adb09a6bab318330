package strategy

import (
	"fmt"
	"sort"
)

// Factory builds a strategy from its parameter map.
type Factory func(params map[string]any) (Strategy, error)

// ParamSpec documents one tunable parameter.
type ParamSpec struct {
	Type    string  `json:"type"`
	Default float64 `json:"default"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max,omitempty"`
}

// Metadata describes a registered strategy for discovery.
type Metadata struct {
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Description string               `json:"description"`
	Parameters  map[string]ParamSpec `json:"parameters"`
}

// Registry maps strategy names to factories.
type Registry struct {
	factories map[string]Factory
	metadata  map[string]Metadata
}

// NewRegistry returns a registry preloaded with the built-in
// strategies.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		metadata:  make(map[string]Metadata),
	}

	r.Register(Metadata{
		Name:        "sma_cross",
		DisplayName: "SMA Crossover",
		Description: "Simple moving average crossover strategy",
		Parameters: map[string]ParamSpec{
			"fast":          {Type: "int", Default: 10, Min: 2, Max: 500},
			"slow":          {Type: "int", Default: 20, Min: 2, Max: 1000},
			"position_size": {Type: "float", Default: 1.0, Min: 0.001},
		},
	}, func(params map[string]any) (Strategy, error) {
		fast := intParam(params, "fast", 10)
		slow := intParam(params, "slow", 20)
		size := floatParam(params, "position_size", 1.0)
		return NewSmaCross(fast, slow, size)
	})

	r.Register(Metadata{
		Name:        "buy_and_hold",
		DisplayName: "Buy and Hold",
		Description: "Buy once at start and hold until end",
		Parameters: map[string]ParamSpec{
			"position_size": {Type: "float", Default: 1.0, Min: 0.001},
		},
	}, func(params map[string]any) (Strategy, error) {
		return NewBuyAndHold(floatParam(params, "position_size", 1.0))
	})

	return r
}

// Register adds or replaces a strategy factory.
func (r *Registry) Register(meta Metadata, factory Factory) {
	r.factories[meta.Name] = factory
	r.metadata[meta.Name] = meta
}

// Create instantiates a registered strategy with the given parameters.
func (r *Registry) Create(name string, params map[string]any) (Strategy, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("strategy.Registry.Create: unknown strategy %q, available: %v", name, r.Names())
	}
	s, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("strategy.Registry.Create: %w", err)
	}
	return s, nil
}

// Names returns registered strategy names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns metadata for every registered strategy.
func (r *Registry) List() map[string]Metadata {
	out := make(map[string]Metadata, len(r.metadata))
	for name, meta := range r.metadata {
		out[name] = meta
	}
	return out
}

func intParam(params map[string]any, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

func floatParam(params map[string]any, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}
