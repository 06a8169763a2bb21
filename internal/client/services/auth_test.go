package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kodbank/kodbank/internal/client/client"
	"github.com/kodbank/kodbank/internal/client/repositories/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupRepo(t *testing.T) *metadata.SQLiteRepository {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return metadata.NewSQLiteRepository(db)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

// ---- fake client ----

type fakeClient struct {
	RegisterErr error
	LoginRet    *client.LoginResponse
	LoginErr    error
	BalanceRet  string
	BalanceErr  error
	LogoutErr   error
	PingErr     error

	LastRegister     client.RegisterRequest
	LastLoginEmail   string
	LastLoginPass    string
	LastBalanceToken string
	LastLogoutToken  string
	LogoutCalls      int
}

func (f *fakeClient) Register(_ context.Context, req client.RegisterRequest) error {
	f.LastRegister = req
	return f.RegisterErr
}

func (f *fakeClient) Login(_ context.Context, email, password string) (*client.LoginResponse, error) {
	f.LastLoginEmail, f.LastLoginPass = email, password
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) GetBalance(_ context.Context, token string) (string, error) {
	f.LastBalanceToken = token
	return f.BalanceRet, f.BalanceErr
}

func (f *fakeClient) Logout(_ context.Context, token string) error {
	f.LogoutCalls++
	f.LastLogoutToken = token
	return f.LogoutErr
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

// ---- tests ----

func TestRegister_PhoneOptional(t *testing.T) {
	fc := &fakeClient{}
	svc := NewAuthService(fc, setupRepo(t))

	require.NoError(t, svc.Register(context.Background(), "alice", "a@x.io", []byte("pw1"), "  "))
	assert.Equal(t, "alice", fc.LastRegister.Username)
	assert.Equal(t, "pw1", fc.LastRegister.Password)
	assert.Nil(t, fc.LastRegister.Phone)

	require.NoError(t, svc.Register(context.Background(), "bob", "b@x.io", []byte("pw2"), "+371 2000000"))
	require.NotNil(t, fc.LastRegister.Phone)
	assert.Equal(t, "+371 2000000", *fc.LastRegister.Phone)
}

func TestRegister_ErrorPropagates(t *testing.T) {
	fc := &fakeClient{RegisterErr: client.ErrAlreadyExists}
	svc := NewAuthService(fc, setupRepo(t))

	err := svc.Register(context.Background(), "alice", "a@x.io", []byte("pw1"), "")
	require.ErrorIs(t, err, client.ErrAlreadyExists)
}

func TestLogin_PersistsSession(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token := signedToken(t, exp)
	fc := &fakeClient{LoginRet: &client.LoginResponse{Username: "alice", Token: token}}
	repo := setupRepo(t)
	svc := NewAuthService(fc, repo)
	ctx := context.Background()

	s, err := svc.Login(ctx, "a@x.io", []byte("pw1"))
	require.NoError(t, err)
	assert.Equal(t, "alice", s.Username)
	assert.True(t, exp.Equal(s.ExpiresAt))
	assert.Equal(t, "a@x.io", fc.LastLoginEmail)

	// A fresh service over the same store sees the session.
	cur, err := NewAuthService(fc, repo).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, cur.Token)
	assert.Equal(t, "alice", cur.Username)
	assert.True(t, exp.Equal(cur.ExpiresAt))
}

func TestLogin_OpaqueTokenHasNoExpiry(t *testing.T) {
	fc := &fakeClient{LoginRet: &client.LoginResponse{Username: "alice", Token: "opaque"}}
	svc := NewAuthService(fc, setupRepo(t))

	s, err := svc.Login(context.Background(), "a@x.io", []byte("pw1"))
	require.NoError(t, err)
	assert.True(t, s.ExpiresAt.IsZero())

	cur, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, cur.ExpiresAt.IsZero())
}

func TestLogin_FailureKeepsPreviousSession(t *testing.T) {
	fc := &fakeClient{LoginRet: &client.LoginResponse{Username: "alice", Token: "T1"}}
	svc := NewAuthService(fc, setupRepo(t))
	ctx := context.Background()

	_, err := svc.Login(ctx, "a@x.io", []byte("pw1"))
	require.NoError(t, err)

	fc.LoginRet, fc.LoginErr = nil, client.ErrUnauthorized
	_, err = svc.Login(ctx, "a@x.io", []byte("bad"))
	require.ErrorIs(t, err, client.ErrUnauthorized)

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T1", cur.Token)
}

func TestBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("not logged in", func(t *testing.T) {
		svc := NewAuthService(&fakeClient{}, setupRepo(t))
		_, err := svc.Balance(ctx)
		require.ErrorIs(t, err, ErrNotLoggedIn)
	})

	t.Run("uses stored token", func(t *testing.T) {
		fc := &fakeClient{LoginRet: &client.LoginResponse{Username: "alice", Token: "T1"}, BalanceRet: "100000.00"}
		svc := NewAuthService(fc, setupRepo(t))
		_, err := svc.Login(ctx, "a@x.io", []byte("pw1"))
		require.NoError(t, err)

		bal, err := svc.Balance(ctx)
		require.NoError(t, err)
		assert.Equal(t, "100000.00", bal)
		assert.Equal(t, "T1", fc.LastBalanceToken)
	})

	t.Run("expired session is dropped", func(t *testing.T) {
		fc := &fakeClient{LoginRet: &client.LoginResponse{Username: "alice", Token: "T1"}}
		svc := NewAuthService(fc, setupRepo(t))
		_, err := svc.Login(ctx, "a@x.io", []byte("pw1"))
		require.NoError(t, err)

		fc.BalanceErr = client.ErrSessionExpired
		_, err = svc.Balance(ctx)
		require.ErrorIs(t, err, client.ErrSessionExpired)

		_, err = svc.Current(ctx)
		require.ErrorIs(t, err, ErrNotLoggedIn)
	})

	t.Run("other errors keep the session", func(t *testing.T) {
		fc := &fakeClient{LoginRet: &client.LoginResponse{Username: "alice", Token: "T1"}}
		svc := NewAuthService(fc, setupRepo(t))
		_, err := svc.Login(ctx, "a@x.io", []byte("pw1"))
		require.NoError(t, err)

		fc.BalanceErr = client.ErrUnavailable
		_, err = svc.Balance(ctx)
		require.ErrorIs(t, err, client.ErrUnavailable)

		_, err = svc.Current(ctx)
		require.NoError(t, err)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes on server and clears local state", func(t *testing.T) {
		fc := &fakeClient{LoginRet: &client.LoginResponse{Username: "alice", Token: "T1"}}
		svc := NewAuthService(fc, setupRepo(t))
		_, err := svc.Login(ctx, "a@x.io", []byte("pw1"))
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx))
		assert.Equal(t, "T1", fc.LastLogoutToken)

		_, err = svc.Current(ctx)
		require.ErrorIs(t, err, ErrNotLoggedIn)
	})

	t.Run("without session only clears", func(t *testing.T) {
		fc := &fakeClient{}
		svc := NewAuthService(fc, setupRepo(t))

		require.NoError(t, svc.Logout(ctx))
		assert.Equal(t, 0, fc.LogoutCalls)
	})

	t.Run("server failure still clears local state", func(t *testing.T) {
		fc := &fakeClient{LoginRet: &client.LoginResponse{Username: "alice", Token: "T1"}, LogoutErr: client.ErrUnavailable}
		svc := NewAuthService(fc, setupRepo(t))
		_, err := svc.Login(ctx, "a@x.io", []byte("pw1"))
		require.NoError(t, err)

		err = svc.Logout(ctx)
		require.True(t, errors.Is(err, client.ErrUnavailable))

		_, err = svc.Current(ctx)
		require.ErrorIs(t, err, ErrNotLoggedIn)
	})
}

func TestPing(t *testing.T) {
	fc := &fakeClient{PingErr: client.ErrUnavailable}
	svc := NewAuthService(fc, setupRepo(t))
	require.ErrorIs(t, svc.Ping(context.Background()), client.ErrUnavailable)
}
