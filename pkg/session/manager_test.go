package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-training/social-relay/pkg/core"
	"github.com/go-training/social-relay/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*store.MemoryStore
	saveErr error
	getErr  error
}

func (f *failingStore) SaveSession(ctx context.Context, sess *core.Session, ttl time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.SaveSession(ctx, sess, ttl)
}

func (f *failingStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryStore.GetSession(ctx, id)
}

func newManager(s core.SessionStore) *Manager {
	return NewManager(s, "test-secret", Options{TTL: time.Hour})
}

func requestWith(cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestNewID(t *testing.T) {
	a, err := NewID()
	require.NoError(t, err)
	b, err := NewID()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestManager_LoadWithoutCookie(t *testing.T) {
	mem := store.NewMemoryStore()
	m := newManager(mem)

	sess, err := m.Load(context.Background(), requestWith())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 0, mem.Len(), "fresh sessions are not stored until saved")
}

func TestManager_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	m := newManager(store.NewMemoryStore())

	sess, err := m.Load(ctx, requestWith())
	require.NoError(t, err)
	sess.SetPending(core.PlatformLinkedIn, core.PendingAuth{State: "s1"})

	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, rec, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "relay_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.NotContains(t, cookie.Value, sess.ID, "cookie carries a signed value")

	loaded, err := m.Load(ctx, requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	pending, ok := loaded.PendingFor(core.PlatformLinkedIn)
	require.True(t, ok)
	assert.Equal(t, "s1", pending.State)
	assert.False(t, loaded.ExpiresAt.IsZero())
}

func TestManager_RejectsTamperedCookie(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	m := newManager(mem)

	sess, err := m.Load(ctx, requestWith())
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), sess))

	loaded, err := m.Load(ctx, requestWith(&http.Cookie{Name: "relay_session", Value: sess.ID}))
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID)

	other := NewManager(mem, "another-secret", Options{TTL: time.Hour})
	rec := httptest.NewRecorder()
	require.NoError(t, other.Save(ctx, rec, sess))
	loaded, err = m.Load(ctx, requestWith(rec.Result().Cookies()[0]))
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID, "cookies signed with another key are ignored")
}

func TestManager_SaveFailureSetsNoCookie(t *testing.T) {
	ctx := context.Background()
	m := newManager(&failingStore{MemoryStore: store.NewMemoryStore(), saveErr: errors.New("redis down")})

	sess, err := m.Load(ctx, requestWith())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = m.Save(ctx, rec, sess)
	require.ErrorIs(t, err, ErrCommit)
	assert.Empty(t, rec.Result().Cookies())
}

func TestManager_LoadStoreFailure(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{MemoryStore: store.NewMemoryStore()}
	m := newManager(fs)

	sess, err := m.Load(ctx, requestWith())
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, rec, sess))

	fs.getErr = errors.New("redis down")
	_, err = m.Load(ctx, requestWith(rec.Result().Cookies()[0]))
	require.Error(t, err)
}

func TestManager_ExpiredSessionStartsFresh(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.NewMemoryStore(), "test-secret", Options{TTL: time.Second})

	sess, err := m.Load(ctx, requestWith())
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, rec, sess))

	time.Sleep(1100 * time.Millisecond)

	loaded, err := m.Load(ctx, requestWith(rec.Result().Cookies()[0]))
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID)
}

func TestManager_Destroy(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	m := newManager(mem)

	sess, err := m.Load(ctx, requestWith())
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), sess))
	require.Equal(t, 1, mem.Len())

	rec := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, rec, sess))
	assert.Equal(t, 0, mem.Len())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
