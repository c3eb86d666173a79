package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-training/social-relay/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	platform core.Platform
	calls    atomic.Int32
	err      error
	lastReq  core.PublishRequest
	lastTok  core.TokenSet
	ctxErr   error
}

func (s *stubPublisher) Platform() core.Platform { return s.platform }

func (s *stubPublisher) Publish(ctx context.Context, token core.TokenSet, req core.PublishRequest) (*core.PublishReceipt, error) {
	s.calls.Add(1)
	s.lastReq = req
	s.lastTok = token
	s.ctxErr = ctx.Err()
	if s.err != nil {
		return nil, s.err
	}
	return &core.PublishReceipt{Platform: s.platform, StatusCode: http.StatusCreated, Body: json.RawMessage(`{"ok":true}`)}, nil
}

func sessionWithToken(p core.Platform, token string) *core.Session {
	sess := core.NewSession("s1", time.Now())
	if token != "" {
		sess.CompleteAuth(p, core.TokenSet{AccessToken: token})
	}
	return sess
}

func TestService_UnauthenticatedMakesNoCall(t *testing.T) {
	stub := &stubPublisher{platform: core.PlatformTwitter}
	svc := NewService(time.Second, stub)

	_, err := svc.Publish(context.Background(), sessionWithToken(core.PlatformTwitter, ""), core.PlatformTwitter, core.PublishRequest{Title: "Hi"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, int32(0), stub.calls.Load())
}

func TestService_UnauthenticatedBeforePlatformLookup(t *testing.T) {
	svc := NewService(time.Second)

	_, err := svc.Publish(context.Background(), sessionWithToken(core.PlatformTwitter, ""), core.PlatformTwitter, core.PublishRequest{Title: "Hi"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.NotErrorIs(t, err, ErrUnknownPlatform)
}

func TestService_TitleSentVerbatim(t *testing.T) {
	stub := &stubPublisher{platform: core.PlatformTwitter}
	svc := NewService(time.Second, stub)

	title := "  Hi\n\n#tag  "
	_, err := svc.Publish(context.Background(), sessionWithToken(core.PlatformTwitter, "t1"), core.PlatformTwitter, core.PublishRequest{Title: title})
	require.NoError(t, err)
	assert.Equal(t, title, stub.lastReq.Title)
}

func TestService_TokensAreScopedPerPlatform(t *testing.T) {
	tw := &stubPublisher{platform: core.PlatformTwitter}
	li := &stubPublisher{platform: core.PlatformLinkedIn}
	svc := NewService(time.Second, tw, li)

	sess := sessionWithToken(core.PlatformLinkedIn, "t2")
	_, err := svc.Publish(context.Background(), sess, core.PlatformTwitter, core.PublishRequest{Title: "Hi"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Publish(context.Background(), sess, core.PlatformLinkedIn, core.PublishRequest{Title: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "t2", li.lastTok.AccessToken)
	assert.Equal(t, int32(0), tw.calls.Load())
}

func TestService_Publish(t *testing.T) {
	stub := &stubPublisher{platform: core.PlatformLinkedIn}
	svc := NewService(time.Second, stub)

	receipt, err := svc.Publish(context.Background(), sessionWithToken(core.PlatformLinkedIn, "t2"), core.PlatformLinkedIn,
		core.PublishRequest{Title: "  Hello  ", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, receipt.StatusCode)
	assert.Equal(t, "  Hello  ", stub.lastReq.Title)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestService_Validation(t *testing.T) {
	stub := &stubPublisher{platform: core.PlatformTwitter}
	svc := NewService(time.Second, stub)
	sess := sessionWithToken(core.PlatformTwitter, "t1")

	_, err := svc.Publish(context.Background(), sess, core.PlatformTwitter, core.PublishRequest{Title: "   "})
	assert.ErrorIs(t, err, ErrMissingTitle)

	sess.Tokens[core.Platform("mastodon")] = core.TokenSet{AccessToken: "m1"}
	_, err = svc.Publish(context.Background(), sess, core.Platform("mastodon"), core.PublishRequest{Title: "Hi"})
	assert.ErrorIs(t, err, ErrUnknownPlatform)

	assert.Equal(t, int32(0), stub.calls.Load())
}

func TestService_ProviderErrorPassesThrough(t *testing.T) {
	stub := &stubPublisher{
		platform: core.PlatformTwitter,
		err:      &ProviderError{Platform: core.PlatformTwitter, StatusCode: http.StatusTooManyRequests, Body: []byte(`{"title":"Too Many Requests"}`)},
	}
	svc := NewService(time.Second, stub)

	_, err := svc.Publish(context.Background(), sessionWithToken(core.PlatformTwitter, "t1"), core.PlatformTwitter, core.PublishRequest{Title: "Hi"})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Equal(t, int32(1), stub.calls.Load(), "no retries")
}

func TestService_DetachedFromCancellation(t *testing.T) {
	stub := &stubPublisher{platform: core.PlatformTwitter}
	svc := NewService(time.Second, stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Publish(ctx, sessionWithToken(core.PlatformTwitter, "t1"), core.PlatformTwitter, core.PublishRequest{Title: "Hi"})
	require.NoError(t, err)
	assert.NoError(t, stub.ctxErr)
}

func TestReadReceipt(t *testing.T) {
	resp := func(status int, body string) *http.Response {
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
	}

	receipt, err := ReadReceipt(core.PlatformTwitter, resp(http.StatusCreated, `{"data":{"id":"1"}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":"1"}}`, string(receipt.Body))

	receipt, err = ReadReceipt(core.PlatformLinkedIn, resp(http.StatusCreated, ""))
	require.NoError(t, err)
	assert.Equal(t, "null", string(receipt.Body))

	_, err = ReadReceipt(core.PlatformLinkedIn, resp(http.StatusBadGateway, "upstream down"))
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, `"upstream down"`, string(perr.JSONBody()))
}
