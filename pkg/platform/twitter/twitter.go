// Package twitter implements authorization (OAuth 2.0 with PKCE) and
// posting for Twitter/X.
package twitter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-training/social-relay/pkg/auth"
	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/publish"

	"golang.org/x/oauth2"
)

// Default endpoints.
const (
	DefaultAuthURL  = "https://twitter.com/i/oauth2/authorize"
	DefaultTokenURL = "https://api.twitter.com/2/oauth2/token"
	DefaultAPIURL   = "https://api.twitter.com"
)

// Scopes requested on every authorization.
var Scopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

// Config is the Twitter client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	APIURL       string
}

func (c Config) withDefaults() Config {
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	return c
}

// OAuth2Config returns the oauth2 configuration for cfg. Confidential clients
// authenticate with HTTP Basic; public clients send client_id in the body.
func OAuth2Config(cfg Config) *oauth2.Config {
	cfg = cfg.withDefaults()
	style := oauth2.AuthStyleInHeader
	if cfg.ClientSecret == "" {
		style = oauth2.AuthStyleInParams
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: style,
		},
	}
}

// NewProvider returns the PKCE authorization provider.
func NewProvider(cfg Config, client *http.Client) *auth.OAuth2Provider {
	return auth.NewOAuth2Provider(core.PlatformTwitter, OAuth2Config(cfg), true, client)
}

// Publisher posts tweets.
type Publisher struct {
	apiURL string
	client *http.Client
}

// NewPublisher returns a Publisher for cfg's API base URL.
func NewPublisher(cfg Config, client *http.Client) *Publisher {
	cfg = cfg.withDefaults()
	return &Publisher{
		apiURL: cfg.APIURL,
		client: client,
	}
}

// Platform implements publish.Publisher.
func (p *Publisher) Platform() core.Platform {
	return core.PlatformTwitter
}

type tweetRequest struct {
	Text string `json:"text"`
}

// Publish posts req.Title as the tweet text.
func (p *Publisher) Publish(ctx context.Context, token core.TokenSet, req core.PublishRequest) (*core.PublishReceipt, error) {
	httpReq, err := publish.NewJSONRequest(ctx, http.MethodPost, p.apiURL+"/2/tweets", tweetRequest{Text: req.Title})
	if err != nil {
		return nil, err
	}

	resp, err := publish.BearerClient(ctx, p.client, token).Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post tweet: %w", err)
	}
	return publish.ReadReceipt(core.PlatformTwitter, resp)
}
