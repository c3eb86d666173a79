// Package linkedin implements authorization (confidential client, no PKCE)
// and member share posting for LinkedIn.
package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-training/social-relay/pkg/auth"
	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/publish"

	"golang.org/x/oauth2"
)

// Default endpoints.
const (
	DefaultAuthURL  = "https://www.linkedin.com/oauth/v2/authorization"
	DefaultTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
	DefaultAPIURL   = "https://api.linkedin.com"
)

// restliProtocolVersion is required by the UGC Posts API.
const restliProtocolVersion = "2.0.0"

// Scopes requested on every authorization.
var Scopes = []string{"w_member_social", "openid", "profile", "email"}

// ErrNoMemberID is returned when the profile response carries no member identifier.
var ErrNoMemberID = errors.New("linkedin profile has no member id")

// Config is the LinkedIn client registration.
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

// OAuth2Config returns the oauth2 configuration for cfg. Client credentials
// travel in the form body alongside the code.
func OAuth2Config(cfg Config) *oauth2.Config {
	cfg = cfg.withDefaults()
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// NewProvider returns the authorization provider.
func NewProvider(cfg Config, client *http.Client) *auth.OAuth2Provider {
	return auth.NewOAuth2Provider(core.PlatformLinkedIn, OAuth2Config(cfg), false, client)
}

// Publisher shares article posts on the member's feed.
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
	return core.PlatformLinkedIn
}

// Publish resolves the member behind token and shares req as an article.
func (p *Publisher) Publish(ctx context.Context, token core.TokenSet, req core.PublishRequest) (*core.PublishReceipt, error) {
	client := publish.BearerClient(ctx, p.client, token)

	memberID, err := p.memberID(ctx, client)
	if err != nil {
		return nil, err
	}

	httpReq, err := publish.NewJSONRequest(ctx, http.MethodPost, p.apiURL+"/v2/ugcPosts", NewSharePost(PersonURN(memberID), req))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post share: %w", err)
	}
	postID := resp.Header.Get("X-RestLi-Id")

	receipt, err := publish.ReadReceipt(core.PlatformLinkedIn, resp)
	if err != nil {
		return nil, err
	}
	// ugcPosts answers 201 with the new post id in a header and no body.
	if string(receipt.Body) == "null" && postID != "" {
		receipt.Body, _ = json.Marshal(map[string]string{"id": postID})
	}
	return receipt, nil
}

type userInfo struct {
	Sub string `json:"sub"`
	ID  string `json:"id"`
}

// memberID returns the OpenID subject of the token's member.
func (p *Publisher) memberID(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"/v2/userinfo", nil)
	if err != nil {
		return "", fmt.Errorf("create profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", &publish.ProviderError{Platform: core.PlatformLinkedIn, StatusCode: resp.StatusCode, Body: body}
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode profile: %w", err)
	}
	switch {
	case info.Sub != "":
		return info.Sub, nil
	case info.ID != "":
		return info.ID, nil
	default:
		return "", ErrNoMemberID
	}
}
