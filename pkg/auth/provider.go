package auth

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-training/social-relay/pkg/core"
)

// Provider is one platform's authorization-code client.
type Provider interface {
	// Platform returns the platform this provider authorizes.
	Platform() core.Platform
	// UsesPKCE reports whether a code verifier is bound to each authorization.
	UsesPKCE() bool
	// AuthCodeURL builds the consent URL. verifier is empty when UsesPKCE is false.
	AuthCodeURL(state, verifier string) string
	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code, verifier string) (*core.TokenSet, error)
}

// Registry holds the configured providers by platform.
type Registry struct {
	providers map[core.Platform]Provider
}

// NewRegistry returns a Registry with the given providers. Later duplicates win.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[core.Platform]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Platform()] = p
	}
	return r
}

// Get returns the provider for platform.
func (r *Registry) Get(platform core.Platform) (Provider, error) {
	p, ok := r.providers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	return p, nil
}

// Platforms returns the configured platforms in sorted order.
func (r *Registry) Platforms() []core.Platform {
	out := make([]core.Platform, 0, len(r.providers))
	for p := range r.providers {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
