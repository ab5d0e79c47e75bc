package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SQLiteStoreTestSuite struct {
	suite.Suite
	path  string
	store *SQLiteStore
	ctx   context.Context
}

func (suite *SQLiteStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.path = filepath.Join(suite.T().TempDir(), "state", "finstudent.db")
	store, err := NewSQLiteStore(suite.path, nil)
	require.NoError(suite.T(), err, "failed to open state database")
	suite.store = store
}

func (suite *SQLiteStoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *SQLiteStoreTestSuite) TestGetMissingKey() {
	_, err := suite.store.Get(suite.ctx, KeyAuthToken)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *SQLiteStoreTestSuite) TestSetThenGet() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, KeyCurrency, "EUR"))

	got, err := suite.store.Get(suite.ctx, KeyCurrency)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "EUR", got)
}

func (suite *SQLiteStoreTestSuite) TestSetOverwrites() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, KeyAuthToken, "first"))
	require.NoError(suite.T(), suite.store.Set(suite.ctx, KeyAuthToken, "second"))

	got, err := suite.store.Get(suite.ctx, KeyAuthToken)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "second", got)
}

func (suite *SQLiteStoreTestSuite) TestDeleteManyKeys() {
	for _, k := range []string{KeyUser, KeyAuthToken, KeyAuthRefresh, KeyCurrency} {
		require.NoError(suite.T(), suite.store.Set(suite.ctx, k, "v"))
	}

	require.NoError(suite.T(), suite.store.Delete(suite.ctx, KeyUser, KeyAuthToken, KeyAuthRefresh))

	for _, k := range []string{KeyUser, KeyAuthToken, KeyAuthRefresh} {
		_, err := suite.store.Get(suite.ctx, k)
		assert.ErrorIs(suite.T(), err, ErrNotFound, "key %s should be gone", k)
	}
	got, err := suite.store.Get(suite.ctx, KeyCurrency)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "v", got)
}

func (suite *SQLiteStoreTestSuite) TestDeleteMissingKeyIsNoop() {
	assert.NoError(suite.T(), suite.store.Delete(suite.ctx, "never-set"))
}

func (suite *SQLiteStoreTestSuite) TestValuesSurviveReopen() {
	require.NoError(suite.T(), suite.store.Set(suite.ctx, KeyUser, `{"id":1}`))
	require.NoError(suite.T(), suite.store.Close())

	reopened, err := NewSQLiteStore(suite.path, nil)
	require.NoError(suite.T(), err)
	suite.store = reopened

	got, err := reopened.Get(suite.ctx, KeyUser)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), `{"id":1}`, got)
}

func TestSQLiteStoreTestSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreTestSuite))
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	require.NoError(t, RunMigrations(path, nil))
	require.NoError(t, RunMigrations(path, nil))
}
