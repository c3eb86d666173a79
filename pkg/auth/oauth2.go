package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-training/social-relay/pkg/core"

	"golang.org/x/oauth2"
)

// OAuth2Provider is a Provider backed by golang.org/x/oauth2.
type OAuth2Provider struct {
	platform core.Platform
	config   *oauth2.Config
	pkce     bool
	client   *http.Client
}

// NewOAuth2Provider returns a Provider for platform. When pkce is set, an S256
// challenge is added to the consent URL and the verifier is sent on exchange.
// client is used for the token request; nil means http.DefaultClient.
func NewOAuth2Provider(platform core.Platform, config *oauth2.Config, pkce bool, client *http.Client) *OAuth2Provider {
	return &OAuth2Provider{
		platform: platform,
		config:   config,
		pkce:     pkce,
		client:   client,
	}
}

// Platform implements Provider.
func (p *OAuth2Provider) Platform() core.Platform { return p.platform }

// UsesPKCE implements Provider.
func (p *OAuth2Provider) UsesPKCE() bool { return p.pkce }

// Config returns the underlying oauth2 configuration.
func (p *OAuth2Provider) Config() *oauth2.Config { return p.config }

// AuthCodeURL implements Provider.
func (p *OAuth2Provider) AuthCodeURL(state, verifier string) string {
	if p.pkce {
		return p.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	}
	return p.config.AuthCodeURL(state)
}

// Exchange implements Provider.
func (p *OAuth2Provider) Exchange(ctx context.Context, code, verifier string) (*core.TokenSet, error) {
	if p.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	}

	var opts []oauth2.AuthCodeOption
	if p.pkce {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}

	tok, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, rejectedFromRetrieveError(err)
	}
	return TokenSetFromOAuth2(tok), nil
}

// TokenSetFromOAuth2 copies the fields the relay keeps from an oauth2 token.
func TokenSetFromOAuth2(tok *oauth2.Token) *core.TokenSet {
	ts := &core.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	return ts
}

func rejectedFromRetrieveError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}
	rejected := &ProviderRejectedError{
		Code:        re.ErrorCode,
		Description: re.ErrorDescription,
		Body:        re.Body,
	}
	if re.Response != nil {
		rejected.StatusCode = re.Response.StatusCode
	}
	return rejected
}
