package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-training/social-relay/pkg/core"

	"github.com/gorilla/securecookie"
)

// ErrCommit marks a failure to persist session state. Anything the response
// would have exposed must be withheld when this is returned.
var ErrCommit = errors.New("session commit failed")

// Options defines how the session cookie is issued.
type Options struct {
	CookieName string
	TTL        time.Duration
	Path       string
	Secure     bool
	SameSite   http.SameSite
}

func (o Options) normalize() Options {
	if o.CookieName == "" {
		o.CookieName = "relay_session"
	}
	if o.TTL <= 0 {
		o.TTL = 24 * time.Hour
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// Manager binds sessions in a core.SessionStore to a signed cookie.
type Manager struct {
	store core.SessionStore
	codec *securecookie.SecureCookie
	opts  Options
	now   func() time.Time
}

// NewManager returns a Manager signing cookies with a key derived from secret.
func NewManager(store core.SessionStore, secret string, opts Options) *Manager {
	opts = opts.normalize()

	hashKey := sha256.Sum256([]byte(secret))
	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(int(opts.TTL.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		store: store,
		codec: codec,
		opts:  opts,
		now:   time.Now,
	}
}

// TTL returns the inactivity window applied on every Save.
func (m *Manager) TTL() time.Duration {
	return m.opts.TTL
}

// Load returns the session named by the request cookie. A missing, tampered,
// or expired cookie yields a fresh session that is not stored until Save.
// Only store failures are returned as errors.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*core.Session, error) {
	if id, ok := m.idFromRequest(r); ok {
		sess, err := m.store.GetSession(ctx, id)
		switch {
		case err == nil:
			return sess, nil
		case !errors.Is(err, core.ErrSessionNotFound):
			return nil, fmt.Errorf("load session: %w", err)
		}
		core.LoggerFromCtx(ctx).Debug("session cookie refers to unknown session, starting a new one")
	}

	id, err := NewID()
	if err != nil {
		return nil, err
	}
	return core.NewSession(id, m.now()), nil
}

// Save slides the session expiry, commits it to the store and then sets the
// cookie. Callers must not write a response body before Save returns.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *core.Session) error {
	encoded, err := m.codec.Encode(m.opts.CookieName, sess.ID)
	if err != nil {
		return fmt.Errorf("%w: encode cookie: %w", ErrCommit, err)
	}

	now := m.now()
	sess.ExpiresAt = now.Add(m.opts.TTL)
	if err := m.store.SaveSession(ctx, sess, m.opts.TTL); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    encoded,
		Path:     m.opts.Path,
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	})
	return nil
}

// Destroy deletes the session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *core.Session) error {
	if err := m.store.DeleteSession(ctx, sess.ID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     m.opts.Path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	})
	return nil
}

func (m *Manager) idFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	var id string
	if err := m.codec.Decode(m.opts.CookieName, cookie.Value, &id); err != nil {
		core.LoggerFromCtx(r.Context()).Debug("rejecting session cookie", "error", err)
		return "", false
	}
	return id, id != ""
}
