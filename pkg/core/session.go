package core

import (
	"context"
	"encoding/json"
	"maps"
	"time"
)

// Platform identifies a third-party publishing platform.
type Platform string

const (
	// PlatformTwitter authorizes with PKCE.
	PlatformTwitter Platform = "twitter"
	// PlatformLinkedIn authorizes as a confidential client without PKCE.
	PlatformLinkedIn Platform = "linkedin"
)

// String returns the string representation of a Platform.
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform maps a path or tool argument onto a known Platform.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformTwitter, PlatformLinkedIn:
		return Platform(s), true
	default:
		return "", false
	}
}

// PendingAuth is the in-flight authorization state for one platform.
// CodeVerifier is empty for platforms that do not use PKCE.
type PendingAuth struct {
	CodeVerifier string    `json:"code_verifier,omitempty"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenSet is the credential obtained from a successful code exchange.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// Session is the per-browser record holding pending authorizations and tokens.
// Entries are keyed by Platform so the two flows never share fields.
type Session struct {
	ID        string                   `json:"id"`
	Pending   map[Platform]PendingAuth `json:"pending,omitempty"`
	Tokens    map[Platform]TokenSet    `json:"tokens,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// NewSession returns an empty session created at now.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Pending:   make(map[Platform]PendingAuth),
		Tokens:    make(map[Platform]TokenSet),
		CreatedAt: now,
	}
}

// PendingFor returns the pending authorization for p.
func (s *Session) PendingFor(p Platform) (PendingAuth, bool) {
	pa, ok := s.Pending[p]
	return pa, ok
}

// SetPending replaces any pending authorization for p.
func (s *Session) SetPending(p Platform, pa PendingAuth) {
	if s.Pending == nil {
		s.Pending = make(map[Platform]PendingAuth)
	}
	s.Pending[p] = pa
}

// TokenFor returns the token stored for p.
func (s *Session) TokenFor(p Platform) (TokenSet, bool) {
	tok, ok := s.Tokens[p]
	if !ok || tok.AccessToken == "" {
		return TokenSet{}, false
	}
	return tok, true
}

// CompleteAuth stores tok for p and drops the pending authorization.
func (s *Session) CompleteAuth(p Platform, tok TokenSet) {
	if s.Tokens == nil {
		s.Tokens = make(map[Platform]TokenSet)
	}
	s.Tokens[p] = tok
	delete(s.Pending, p)
}

// Connected reports, per platform, whether a token is held.
func (s *Session) Connected(platforms ...Platform) map[Platform]bool {
	out := make(map[Platform]bool, len(platforms))
	for _, p := range platforms {
		_, out[p] = s.TokenFor(p)
	}
	return out
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.Pending = maps.Clone(s.Pending)
	c.Tokens = maps.Clone(s.Tokens)
	return &c
}

// AuthorizationRequest is what Begin hands back: the URL to send the user to
// and the values bound to the session for the callback.
type AuthorizationRequest struct {
	Platform         Platform
	AuthorizationURL string
	CodeVerifier     string
	State            string
}

// PublishRequest is the content a client asks to publish.
type PublishRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// PublishReceipt carries the provider's response to a publish call.
type PublishReceipt struct {
	Platform   Platform        `json:"platform"`
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

// SessionStore defines the interface for session persistence.
// Implementations must give read-your-writes consistency for a single ID.
type SessionStore interface {
	// GetSession loads a session by ID. Missing or expired sessions yield ErrSessionNotFound.
	GetSession(ctx context.Context, id string) (*Session, error)
	// SaveSession upserts sess and keeps it alive for ttl.
	SaveSession(ctx context.Context, sess *Session, ttl time.Duration) error
	// DeleteSession removes a session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, id string) error
}
