package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/observability"

	"golang.org/x/oauth2"
)

// stateBytes is the entropy of the anti-forgery state.
const stateBytes = 32

// Authorizer runs the two halves of the authorization-code flow against a
// session: Begin binds state (and a PKCE verifier) to it, Complete checks
// the callback and stores the token.
type Authorizer struct {
	registry *Registry
	timeout  time.Duration
	now      func() time.Time
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithTimeout bounds each token exchange.
func WithTimeout(d time.Duration) Option {
	return func(a *Authorizer) {
		a.timeout = d
	}
}

// NewAuthorizer returns an Authorizer over the providers in registry.
func NewAuthorizer(registry *Registry, opts ...Option) *Authorizer {
	a := &Authorizer{
		registry: registry,
		timeout:  15 * time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the provider registry.
func (a *Authorizer) Registry() *Registry {
	return a.registry
}

// Begin creates fresh state (and verifier, for PKCE platforms), stores them
// on sess as the pending authorization for platform, and returns the consent
// URL. Any earlier pending authorization for platform is replaced. The
// caller must commit sess before exposing the URL.
func (a *Authorizer) Begin(sess *core.Session, platform core.Platform) (*core.AuthorizationRequest, error) {
	provider, err := a.registry.Get(platform)
	if err != nil {
		return nil, err
	}

	state, err := newState()
	if err != nil {
		return nil, err
	}
	var verifier string
	if provider.UsesPKCE() {
		verifier = oauth2.GenerateVerifier()
	}

	sess.SetPending(platform, core.PendingAuth{
		CodeVerifier: verifier,
		State:        state,
		CreatedAt:    a.now(),
	})

	return &core.AuthorizationRequest{
		Platform:         platform,
		AuthorizationURL: provider.AuthCodeURL(state, verifier),
		CodeVerifier:     verifier,
		State:            state,
	}, nil
}

// Complete validates the callback for platform against sess and exchanges
// code for a token. On success the pending authorization is replaced by the
// token; on any error sess is left untouched.
//
// The exchange ignores ctx cancellation and is bounded by the configured timeout.
func (a *Authorizer) Complete(ctx context.Context, sess *core.Session, platform core.Platform, code, state string) (err error) {
	provider, err := a.registry.Get(platform)
	if err != nil {
		return err
	}

	pending, ok := sess.PendingFor(platform)
	if !ok {
		return ErrNoPendingRequest
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(pending.State)) != 1 {
		return ErrStateMismatch
	}
	if code == "" {
		return ErrMissingCode
	}
	if provider.UsesPKCE() && pending.CodeVerifier == "" {
		return ErrNoPendingRequest
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "auth.exchange", observability.KeyPlatform.String(platform.String()))
	defer func() { observability.EndSpan(span, err) }()

	token, err := provider.Exchange(ctx, code, pending.CodeVerifier)
	if err != nil {
		var rejected *ProviderRejectedError
		if errors.As(err, &rejected) {
			return err
		}
		return fmt.Errorf("exchange %s code: %w", platform, err)
	}
	if token == nil || token.AccessToken == "" {
		return &ProviderRejectedError{Description: "token response carried no access token"}
	}

	sess.CompleteAuth(platform, *token)
	return nil
}

func newState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
