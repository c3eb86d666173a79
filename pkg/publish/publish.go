// Package publish posts content on behalf of a session that holds a platform token.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/observability"
)

// maxResponseBytes caps how much of a provider response is kept.
const maxResponseBytes = 1 << 20

var (
	// ErrUnauthenticated is returned when the session holds no token for the platform.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrMissingTitle is returned when the request has no title.
	ErrMissingTitle = errors.New("title is required")
	// ErrUnknownPlatform is returned for platforms without a publisher.
	ErrUnknownPlatform = errors.New("unknown platform")
)

// ProviderError is a non-success response from a platform API.
type ProviderError struct {
	Platform   core.Platform
	StatusCode int
	Body       []byte
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api returned status %d", e.Platform, e.StatusCode)
}

// JSONBody returns the provider body as JSON, quoting it when it is not JSON already.
func (e *ProviderError) JSONBody() json.RawMessage {
	return asJSON(e.Body)
}

// Publisher posts content to one platform with an already obtained token.
type Publisher interface {
	Platform() core.Platform
	Publish(ctx context.Context, token core.TokenSet, req core.PublishRequest) (*core.PublishReceipt, error)
}

// Service routes publish requests to the platform publisher, using the
// token stored on the caller's session.
type Service struct {
	publishers map[core.Platform]Publisher
	timeout    time.Duration
}

// NewService returns a Service. Each publish call is bounded by timeout.
func NewService(timeout time.Duration, publishers ...Publisher) *Service {
	s := &Service{
		publishers: make(map[core.Platform]Publisher, len(publishers)),
		timeout:    timeout,
	}
	for _, p := range publishers {
		s.publishers[p.Platform()] = p
	}
	return s
}

// Platforms returns the platforms that can be published to, sorted.
func (s *Service) Platforms() []core.Platform {
	out := make([]core.Platform, 0, len(s.publishers))
	for p := range s.publishers {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Publish sends req to platform using the token held by sess. Exactly one
// outbound publish is attempted and nothing is retried.
func (s *Service) Publish(ctx context.Context, sess *core.Session, platform core.Platform, req core.PublishRequest) (receipt *core.PublishReceipt, err error) {
	token, ok := sess.TokenFor(platform)
	if !ok {
		return nil, ErrUnauthenticated
	}
	publisher, ok := s.publishers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	// The title is published as given; blank titles are rejected.
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrMissingTitle
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, "publish", observability.KeyPlatform.String(platform.String()))
	defer func() { observability.EndSpan(span, err) }()

	receipt, err = publisher.Publish(ctx, token, req)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			observability.AddRequestAttributes(ctx, observability.KeyStatusCode.Int(perr.StatusCode))
		}
		return nil, err
	}
	observability.AddRequestAttributes(ctx, observability.KeyStatusCode.Int(receipt.StatusCode))
	return receipt, nil
}

// ReadReceipt drains resp and converts it into a receipt, or a *ProviderError
// for non-2xx statuses.
func ReadReceipt(platform core.Platform, resp *http.Response) (*core.PublishReceipt, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", platform, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{Platform: platform, StatusCode: resp.StatusCode, Body: body}
	}
	return &core.PublishReceipt{
		Platform:   platform,
		StatusCode: resp.StatusCode,
		Body:       asJSON(body),
	}, nil
}

func asJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
