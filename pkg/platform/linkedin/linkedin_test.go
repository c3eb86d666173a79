package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/publish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeAPI struct {
	*httptest.Server

	mu         sync.Mutex
	posted     []byte
	postHeader http.Header

	profile      string
	postStatus   int
	postBody     string
	postIDHeader string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		profile:    `{"sub":"abc","name":"Ada"}`,
		postStatus: http.StatusCreated,
	}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/userinfo":
			if r.Header.Get("Authorization") != "Bearer t2" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Invalid access token"}`))
				return
			}
			_, _ = w.Write([]byte(api.profile))
		case "/v2/ugcPosts":
			body, _ := io.ReadAll(r.Body)
			api.mu.Lock()
			api.posted = body
			api.postHeader = r.Header.Clone()
			api.mu.Unlock()
			if api.postIDHeader != "" {
				w.Header().Set("X-RestLi-Id", api.postIDHeader)
			}
			w.WriteHeader(api.postStatus)
			_, _ = w.Write([]byte(api.postBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(api.Close)
	return api
}

func TestOAuth2Config(t *testing.T) {
	cfg := OAuth2Config(Config{ClientID: "id", ClientSecret: "secret"})
	assert.Equal(t, DefaultAuthURL, cfg.Endpoint.AuthURL)
	assert.Equal(t, DefaultTokenURL, cfg.Endpoint.TokenURL)
	assert.Equal(t, oauth2.AuthStyleInParams, cfg.Endpoint.AuthStyle)

	p := NewProvider(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost:3000/callback/linkedin"}, nil)
	assert.False(t, p.UsesPKCE())

	u, err := url.Parse(p.AuthCodeURL("s1", ""))
	require.NoError(t, err)
	assert.Equal(t, "www.linkedin.com", u.Host)
	assert.Equal(t, "/oauth/v2/authorization", u.Path)
	assert.Equal(t, "w_member_social openid profile email", u.Query().Get("scope"))
	assert.Empty(t, u.Query().Get("code_challenge"))
}

func TestPublisher_Publish(t *testing.T) {
	api := newFakeAPI(t)
	api.postBody = `{"id":"urn:li:share:1"}`

	p := NewPublisher(Config{APIURL: api.URL}, api.Client())
	receipt, err := p.Publish(context.Background(), core.TokenSet{AccessToken: "t2"}, core.PublishRequest{Title: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, receipt.StatusCode)
	assert.JSONEq(t, `{"id":"urn:li:share:1"}`, string(receipt.Body))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "2.0.0", api.postHeader.Get("X-Restli-Protocol-Version"))
	assert.Equal(t, "Bearer t2", api.postHeader.Get("Authorization"))
	assert.JSONEq(t, `{
		"author": "urn:li:person:abc",
		"lifecycleState": "PUBLISHED",
		"specificContent": {
			"com.linkedin.ugc.ShareContent": {
				"shareCommentary": {"text": "Hello"},
				"shareMediaCategory": "ARTICLE",
				"media": [{
					"status": "READY",
					"description": {"text": ""},
					"originalUrl": "",
					"title": {"text": "Hello"}
				}]
			}
		},
		"visibility": {"com.linkedin.ugc.MemberNetworkVisibility": "CONNECTIONS"}
	}`, string(api.posted))
}

func TestPublisher_PostIDFromHeader(t *testing.T) {
	api := newFakeAPI(t)
	api.postIDHeader = "urn:li:share:42"

	p := NewPublisher(Config{APIURL: api.URL}, api.Client())
	receipt, err := p.Publish(context.Background(), core.TokenSet{AccessToken: "t2"}, core.PublishRequest{
		Title:       "Hello",
		Description: "desc",
		URL:         "https://example.com/post",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"urn:li:share:42"}`, string(receipt.Body))

	var post SharePost
	api.mu.Lock()
	require.NoError(t, json.Unmarshal(api.posted, &post))
	api.mu.Unlock()
	media := post.SpecificContent[shareContentKey].Media[0]
	assert.Equal(t, "desc", media.Description.Text)
	assert.Equal(t, "https://example.com/post", media.OriginalURL)
}

func TestPublisher_Errors(t *testing.T) {
	t.Run("share rejected", func(t *testing.T) {
		api := newFakeAPI(t)
		api.postStatus = http.StatusUnprocessableEntity
		api.postBody = `{"message":"Content is a duplicate","status":422}`

		p := NewPublisher(Config{APIURL: api.URL}, api.Client())
		_, err := p.Publish(context.Background(), core.TokenSet{AccessToken: "t2"}, core.PublishRequest{Title: "Hello"})

		var perr *publish.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusUnprocessableEntity, perr.StatusCode)
		assert.JSONEq(t, api.postBody, string(perr.JSONBody()))
	})

	t.Run("profile rejected", func(t *testing.T) {
		api := newFakeAPI(t)

		p := NewPublisher(Config{APIURL: api.URL}, api.Client())
		_, err := p.Publish(context.Background(), core.TokenSet{AccessToken: "expired"}, core.PublishRequest{Title: "Hello"})

		var perr *publish.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
		api.mu.Lock()
		defer api.mu.Unlock()
		assert.Nil(t, api.posted, "no share attempted without a member id")
	})

	t.Run("profile without subject", func(t *testing.T) {
		api := newFakeAPI(t)
		api.profile = `{"name":"Ada"}`

		p := NewPublisher(Config{APIURL: api.URL}, api.Client())
		_, err := p.Publish(context.Background(), core.TokenSet{AccessToken: "t2"}, core.PublishRequest{Title: "Hello"})
		assert.ErrorIs(t, err, ErrNoMemberID)
	})
}

func TestPersonURN(t *testing.T) {
	assert.Equal(t, "urn:li:person:abc", PersonURN("abc"))
}
