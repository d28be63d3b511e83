package usecase

import (
	"context"
	"errors"
	"fmt"

	"infinite-dialog/internal/domain"
)

// Generator is the uniform text-generation contract every provider
// integration satisfies: prompt in, response text out, error on failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Registry maps provider identifiers to their Generator implementations.
// Adding a provider means registering one more entry, not growing a switch.
type Registry struct {
	generators map[domain.Provider]Generator
}

func NewRegistry() *Registry {
	return &Registry{generators: make(map[domain.Provider]Generator)}
}

// Register binds a provider identifier to its Generator. Rebinding an
// already-registered provider is rejected.
func (r *Registry) Register(provider domain.Provider, g Generator) error {
	if g == nil {
		return errors.New("usecase: generator must not be nil")
	}
	if _, exists := r.generators[provider]; exists {
		return fmt.Errorf("usecase: provider %q already registered", provider)
	}
	r.generators[provider] = g
	return nil
}

// Resolve returns the Generator for a provider identifier.
func (r *Registry) Resolve(provider domain.Provider) (Generator, error) {
	g, ok := r.generators[provider]
	if !ok {
		return nil, fmt.Errorf("usecase: no generator registered for provider %q", provider)
	}
	return g, nil
}
