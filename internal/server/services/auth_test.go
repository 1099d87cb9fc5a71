package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/agrocms/internal/common"
	"github.com/dmitrijs2005/agrocms/internal/cryptox"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/models"
	"github.com/dmitrijs2005/agrocms/internal/server/repositories/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTTL = 7 * 24 * time.Hour

func newAuthService(t *testing.T) (*AuthService, *fakeUsersRepo, *sessions.MemoryRepository) {
	t.Helper()
	u := newFakeUsersRepo()
	s := sessions.NewMemoryRepository()
	return NewAuthService(u, s, plainHasher{}, testTTL, logging.NewNop()), u, s
}

func TestRegister_Success(t *testing.T) {
	svc, users, store := newAuthService(t)
	ctx := context.Background()

	user, sess, err := svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.False(t, user.IsAdmin)
	assert.Len(t, sess.ID, 64)
	assert.WithinDuration(t, time.Now().Add(testTTL), sess.Expires, time.Minute)

	stored, _ := users.GetByUsername(ctx, "bob")
	assert.Equal(t, "pw.salt", stored.PasswordDigest)
	assert.Equal(t, 1, store.Len())
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, store := newAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "bob", "other")
	assert.ErrorIs(t, err, common.ErrorConflict)
	assert.Equal(t, 1, store.Len())
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, _, err := svc.Register(context.Background(), " ", "")
	require.ErrorIs(t, err, common.ErrorValidation)

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}

func TestRegister_HashFailure(t *testing.T) {
	u := newFakeUsersRepo()
	svc := NewAuthService(u, sessions.NewMemoryRepository(), plainHasher{hashErr: errors.New("entropy")}, testTTL, logging.NewNop())

	_, _, err := svc.Register(context.Background(), "bob", "pw")
	assert.ErrorContains(t, err, "hash password")
	assert.Empty(t, u.byID)
}

func TestLogin(t *testing.T) {
	svc, _, store := newAuthService(t)
	ctx := context.Background()

	_, first, err := svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "bob", "nope", "")
		assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
	})

	t.Run("unknown user looks the same", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "alice", "pw", "")
		assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
	})

	t.Run("success rotates the session", func(t *testing.T) {
		user, sess, err := svc.Login(ctx, "bob", "pw", first.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", user.Username)
		assert.NotEqual(t, first.ID, sess.ID)

		_, err = store.Find(ctx, first.ID)
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = store.Find(ctx, sess.ID)
		assert.NoError(t, err)
	})
}

func TestLogin_UnknownUserStillVerifies(t *testing.T) {
	hasher := &countingHasher{}
	u := newFakeUsersRepo()
	svc := NewAuthService(u, sessions.NewMemoryRepository(), hasher, testTTL, logging.NewNop())
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	hasher.hashes, hasher.verifies = 0, 0

	_, _, err = svc.Login(ctx, "bob", "nope", "")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
	assert.Equal(t, 1, hasher.verifies)

	_, _, err = svc.Login(ctx, "ghost", "pw", "")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
	assert.Equal(t, 2, hasher.verifies)
	assert.Equal(t, 1, hasher.hashes)

	// the dummy digest is prepared once
	_, _, err = svc.Login(ctx, "ghost2", "agrocms-unknown-user", "")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
	assert.Equal(t, 3, hasher.verifies)
	assert.Equal(t, 1, hasher.hashes)
}

func TestLogin_RepoError(t *testing.T) {
	svc, users, _ := newAuthService(t)
	users.getErr = errors.New("db down")

	_, _, err := svc.Login(context.Background(), "bob", "pw", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorInvalidCredentials)
}

func TestLogin_WithScryptDigest(t *testing.T) {
	hasher := cryptox.NewScryptHasher(cryptox.ScryptParams{N: 1024, R: 8, P: 1, KeyLen: 64, SaltLen: 16})
	u := newFakeUsersRepo()
	svc := NewAuthService(u, sessions.NewMemoryRepository(), hasher, testTTL, logging.NewNop())
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "carol", "s3cret")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "carol", "s3cret", "")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "carol", "S3cret", "")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
}

func TestCurrentUser(t *testing.T) {
	svc, _, store := newAuthService(t)
	ctx := context.Background()

	registered, sess, err := svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	svc.now = func() time.Time { return later }

	user, touched, err := svc.CurrentUser(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, later.Add(testTTL), touched.Expires, "expiry slides forward")

	stored, err := store.Find(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, later.Add(testTTL), stored.Expires)
}

func TestCurrentUser_Unauthorized(t *testing.T) {
	svc, _, store := newAuthService(t)
	ctx := context.Background()

	_, _, err := svc.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, _, err = svc.CurrentUser(ctx, "unknown")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	// expired
	require.NoError(t, store.Create(ctx, &models.Session{ID: "old", UserID: 1, Expires: time.Now().Add(-time.Second)}))
	_, _, err = svc.CurrentUser(ctx, "old")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	// dangling session for a user that no longer exists is dropped
	require.NoError(t, store.Create(ctx, &models.Session{ID: "ghost", UserID: 99, Expires: time.Now().Add(time.Hour)}))
	_, _, err = svc.CurrentUser(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = store.Find(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLogout(t *testing.T) {
	svc, _, store := newAuthService(t)
	ctx := context.Background()

	_, sess, err := svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	require.NoError(t, svc.Logout(ctx, sess.ID))
	require.NoError(t, svc.Logout(ctx, ""))
	assert.Equal(t, 0, store.Len())

	_, _, err = svc.CurrentUser(ctx, sess.ID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRequireAdmin(t *testing.T) {
	svc := &AuthService{}
	assert.ErrorIs(t, svc.RequireAdmin(nil), common.ErrorUnauthorized)
	assert.ErrorIs(t, svc.RequireAdmin(&models.User{Username: "bob"}), common.ErrorForbidden)
	assert.NoError(t, svc.RequireAdmin(&models.User{Username: "root", IsAdmin: true}))
}
