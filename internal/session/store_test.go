package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"finstudent/internal/api"
	"finstudent/internal/core"
	"finstudent/internal/resources"
	"finstudent/internal/storage"
	"finstudent/internal/storage/memory"
)

type fakeAuth struct {
	mu            sync.Mutex
	refreshResult resources.TokenPair
	refreshErr    error
	logoutErr     error
	refreshCalls  []string
	logoutCalls   []string

	// When set, Refresh signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeAuth) Refresh(_ context.Context, refresh string) (resources.TokenPair, error) {
	if f.entered != nil {
		close(f.entered)
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls = append(f.refreshCalls, refresh)
	return f.refreshResult, f.refreshErr
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls = append(f.logoutCalls, token)
	return f.logoutErr
}

var alex = core.User{ID: 7, Email: "alex@uni.edu", FirstName: "Alex", LastName: "Doe"}

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	kv    *memory.Store
	auth  *fakeAuth
	store *Store
}

func (suite *StoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.kv = memory.NewStore()
	suite.auth = &fakeAuth{refreshResult: resources.TokenPair{Access: "access-2"}}
	suite.store = NewStore(suite.kv, suite.auth, nil)
}

func (suite *StoreTestSuite) value(key string) (string, bool) {
	v, err := suite.kv.Get(suite.ctx, key)
	return v, err == nil
}

func (suite *StoreTestSuite) accessToken() string {
	return NewTokens(suite.kv, nil).AccessToken(suite.ctx)
}

func (suite *StoreTestSuite) assertSignedOut() {
	assert.False(suite.T(), suite.store.IsAuthenticated())
	for _, k := range []string{storage.KeyUser, storage.KeyAuthToken, storage.KeyAuthRefresh} {
		_, ok := suite.value(k)
		assert.False(suite.T(), ok, "key %s should be cleared", k)
	}
}

func (suite *StoreTestSuite) TestLoginPersistsSession() {
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))

	user, ok := suite.store.User()
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), alex, user)

	token, _ := suite.value(storage.KeyAuthToken)
	refresh, _ := suite.value(storage.KeyAuthRefresh)
	assert.Equal(suite.T(), "access-1", token)
	assert.Equal(suite.T(), "refresh-1", refresh)
	assert.Equal(suite.T(), "access-1", suite.accessToken())
}

func (suite *StoreTestSuite) TestLoginWithoutRefreshDropsStaleOne() {
	require.NoError(suite.T(), suite.kv.Set(suite.ctx, storage.KeyAuthRefresh, "old-refresh"))
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", ""))

	_, ok := suite.value(storage.KeyAuthRefresh)
	assert.False(suite.T(), ok)
}

func (suite *StoreTestSuite) TestInitRestoresAfterLogin() {
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))

	fresh := NewStore(suite.kv, suite.auth, nil)
	require.NoError(suite.T(), fresh.Init(suite.ctx))

	user, ok := fresh.User()
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), alex, user)
	// Init refreshes eagerly when a refresh token is stored.
	assert.Equal(suite.T(), []string{"refresh-1"}, suite.auth.refreshCalls)
	assert.Equal(suite.T(), "access-2", suite.accessToken())
}

func (suite *StoreTestSuite) TestInitWithoutRefreshTokenSkipsRefresh() {
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", ""))

	fresh := NewStore(suite.kv, suite.auth, nil)
	require.NoError(suite.T(), fresh.Init(suite.ctx))
	assert.True(suite.T(), fresh.IsAuthenticated())
	assert.Empty(suite.T(), suite.auth.refreshCalls)
}

func (suite *StoreTestSuite) TestInitAnonymous() {
	require.NoError(suite.T(), suite.store.Init(suite.ctx))
	assert.False(suite.T(), suite.store.IsAuthenticated())
}

func (suite *StoreTestSuite) TestInitCorruptUserIsCleared() {
	require.NoError(suite.T(), suite.kv.Set(suite.ctx, storage.KeyUser, "{not json"))
	require.NoError(suite.T(), suite.kv.Set(suite.ctx, storage.KeyAuthToken, "access-1"))

	require.NoError(suite.T(), suite.store.Init(suite.ctx))
	suite.assertSignedOut()
}

func (suite *StoreTestSuite) TestLogoutClearsAndNotifies() {
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))

	suite.store.Logout(suite.ctx)

	suite.assertSignedOut()
	assert.Equal(suite.T(), []string{"access-1"}, suite.auth.logoutCalls)
}

func (suite *StoreTestSuite) TestLogoutSurvivesServerFailure() {
	suite.auth.logoutErr = &api.Error{Status: 500, Message: "API Error: 500"}
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))

	suite.store.Logout(suite.ctx)
	suite.assertSignedOut()
}

func (suite *StoreTestSuite) TestLogoutTwiceIsSafe() {
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))

	suite.store.Logout(suite.ctx)
	suite.store.Logout(suite.ctx)

	suite.assertSignedOut()
	assert.Len(suite.T(), suite.auth.logoutCalls, 1)
}

func (suite *StoreTestSuite) TestRefreshWithoutTokenIsNoop() {
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", ""))

	assert.False(suite.T(), suite.store.RefreshAccessToken(suite.ctx))
	assert.True(suite.T(), suite.store.IsAuthenticated())
	assert.Equal(suite.T(), "access-1", suite.accessToken())
	assert.Empty(suite.T(), suite.auth.refreshCalls)
}

func (suite *StoreTestSuite) TestRefreshRotatesRefreshToken() {
	suite.auth.refreshResult = resources.TokenPair{Access: "access-2", Refresh: "refresh-2"}
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))

	assert.True(suite.T(), suite.store.RefreshAccessToken(suite.ctx))
	refresh, _ := suite.value(storage.KeyAuthRefresh)
	assert.Equal(suite.T(), "refresh-2", refresh)
	assert.Equal(suite.T(), "access-2", suite.accessToken())
}

func (suite *StoreTestSuite) TestRefreshFailureForcesLogout() {
	suite.auth.refreshErr = &api.Error{Status: 401, Message: "Token is invalid or expired"}
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))

	assert.False(suite.T(), suite.store.RefreshAccessToken(suite.ctx))
	suite.assertSignedOut()
}

func (suite *StoreTestSuite) TestRefreshNetworkFailureForcesLogout() {
	suite.auth.refreshErr = errors.New("dial tcp: connection refused")
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))

	fresh := NewStore(suite.kv, suite.auth, nil)
	require.NoError(suite.T(), fresh.Init(suite.ctx))
	assert.False(suite.T(), fresh.IsAuthenticated())
	suite.assertSignedOut()
}

func (suite *StoreTestSuite) TestLoginFailureLeavesNoPartialSession() {
	kv := &failingKV{Store: suite.kv, failKey: storage.KeyUser}
	store := NewStore(kv, suite.auth, nil)

	err := store.Login(suite.ctx, alex, "access-1", "refresh-1")
	require.ErrorIs(suite.T(), err, errDiskFull)
	assert.False(suite.T(), store.IsAuthenticated())
	for _, k := range []string{storage.KeyUser, storage.KeyAuthToken, storage.KeyAuthRefresh} {
		_, ok := suite.value(k)
		assert.False(suite.T(), ok, "key %s should not survive a failed login", k)
	}

	fresh := NewStore(suite.kv, suite.auth, nil)
	require.NoError(suite.T(), fresh.Init(suite.ctx))
	assert.False(suite.T(), fresh.IsAuthenticated())
}

func (suite *StoreTestSuite) TestRefreshDoesNotBlockReaders() {
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))
	suite.auth.entered = make(chan struct{})
	suite.auth.release = make(chan struct{})

	refreshed := make(chan bool, 1)
	go func() { refreshed <- suite.store.RefreshAccessToken(suite.ctx) }()
	<-suite.auth.entered

	read := make(chan bool, 1)
	go func() { read <- suite.store.IsAuthenticated() }()
	select {
	case ok := <-read:
		assert.True(suite.T(), ok)
	case <-time.After(time.Second):
		suite.T().Fatal("IsAuthenticated blocked while the refresh call was in flight")
	}

	close(suite.auth.release)
	assert.True(suite.T(), <-refreshed)
	assert.Equal(suite.T(), "access-2", suite.accessToken())
}

func (suite *StoreTestSuite) TestLogoutDuringRefreshWins() {
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", "refresh-1"))
	suite.auth.entered = make(chan struct{})
	suite.auth.release = make(chan struct{})

	refreshed := make(chan bool, 1)
	go func() { refreshed <- suite.store.RefreshAccessToken(suite.ctx) }()
	<-suite.auth.entered

	suite.store.Logout(suite.ctx)
	close(suite.auth.release)

	assert.False(suite.T(), <-refreshed)
	suite.assertSignedOut()
}

func (suite *StoreTestSuite) TestCloseReleasesStorage() {
	require.NoError(suite.T(), suite.store.Close())
	require.NoError(suite.T(), suite.store.Close())
	assert.True(suite.T(), suite.kv.Closed())
}

func (suite *StoreTestSuite) TestTokensReadsStorage() {
	tokens := NewTokens(suite.kv, nil)
	assert.Equal(suite.T(), "", tokens.AccessToken(suite.ctx))
	require.NoError(suite.T(), suite.store.Login(suite.ctx, alex, "access-1", ""))
	assert.Equal(suite.T(), "access-1", tokens.AccessToken(suite.ctx))
}

var errDiskFull = errors.New("disk full")

// failingKV fails writes to one key.
type failingKV struct {
	*memory.Store
	failKey string
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return errDiskFull
	}
	return f.Store.Set(ctx, key, value)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

// The session, API client and SQLite storage wired as in main.
func TestRefreshAgainstServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/token/refresh/":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Token is invalid or expired","code":"token_not_valid"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	kv, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)

	client, err := api.NewClient(api.Options{BaseURL: srv.URL + "/api", Tokens: NewTokens(kv, nil)})
	require.NoError(t, err)
	store := NewStore(kv, resources.New(client).Auth, nil)
	defer store.Close()

	require.NoError(t, store.Login(ctx, alex, "stale-access", "bad-refresh"))
	assert.False(t, store.RefreshAccessToken(ctx))
	assert.False(t, store.IsAuthenticated())

	_, err = kv.Get(ctx, storage.KeyAuthToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
