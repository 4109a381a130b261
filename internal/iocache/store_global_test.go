package iocache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// resetManager isolates the global manager and the default SQLite paths.
func resetManager(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &StoreManagerImpl{}
	t.Cleanup(CloseStores)
}

func TestInitStores(t *testing.T) {
	t.Run("default sqlite files", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitStores(schema.SQLiteBackend, "", schema.SQLiteBackend, ""))
		assert.NotNil(t, Manager.GetExecutionStore())
		assert.NotNil(t, Manager.GetClassCache())

		CloseStores()
		_, err := os.Stat(contract.GetStoreDBFilePath())
		assert.NoError(t, err, "execution database file should be created")
		_, err = os.Stat(contract.GetClassCacheDBFilePath())
		assert.NoError(t, err, "class cache database file should be created")
	})

	t.Run("idempotent", func(t *testing.T) {
		resetManager(t)
		assert.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))
		assert.NoError(t, InitStores(schema.MySQLBackend, "bogus", "", ""))
		assert.NotNil(t, Manager.GetExecutionStore())
		assert.Nil(t, Manager.GetClassCache())
		CloseStores()
		CloseStores()
	})

	t.Run("none backend", func(t *testing.T) {
		resetManager(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		status, err := Manager.GetExecutionStore().GetStatus()
		require.NoError(t, err)
		assert.False(t, status.Connected)
	})

	t.Run("invalid backend", func(t *testing.T) {
		resetManager(t)
		err := InitStores(schema.DatabaseBackend("oracle"), "", "", "")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetExecutionStore())
	})

	t.Run("invalid cache backend closes store", func(t *testing.T) {
		resetManager(t)
		err := InitStores(schema.SQLiteBackend, ":memory:", schema.DatabaseBackend("oracle"), "")
		assert.ErrorContains(t, err, "classification cache")
		assert.Nil(t, Manager.GetExecutionStore())
	})
}

func TestClearExecutions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "executions.db")
	store, err := NewExecutionStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NoError(t, store.SaveExecution(ctx, "q", schema.ExecutionSnapshot{Time: 1}))
	require.NoError(t, store.Close())

	require.NoError(t, ClearExecutions(schema.SQLiteBackend, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	assert.NoError(t, ClearExecutions(schema.SQLiteBackend, path))
	assert.NoError(t, ClearExecutions(schema.NoneBackend, ""))
	assert.Error(t, ClearClassCache(schema.DatabaseBackend("oracle"), ""))
}

func TestStoreManagerConcurrency(t *testing.T) {
	store, err := NewExecutionStore(schema.NoneBackend, "")
	require.NoError(t, err)
	mgr := NewStoreManager(store, nil)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, mgr.GetExecutionStore())
			assert.Nil(t, mgr.GetClassCache())
		}()
	}
	wg.Wait()
}
