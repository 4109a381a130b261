package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the execution store and the
// classification cache. An empty backend leaves that store nil.
func InitStores(storeBackend schema.DatabaseBackend, storeConnStr string, cacheBackend schema.DatabaseBackend, cacheConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var executions contract.ExecutionStore
		if storeBackend != "" {
			store, err := NewExecutionStore(storeBackend, storeConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize execution store: %w", err)
				return
			}
			executions = store
		}

		var classes contract.ClassCache
		if cacheBackend != "" {
			cache, err := NewClassCache(classCacheTable, cacheBackend, cacheConnStr)
			if err != nil {
				if executions != nil {
					_ = executions.Close()
				}
				initErr = fmt.Errorf("failed to initialize classification cache: %w", err)
				return
			}
			classes = cache
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.executions = executions
		Manager.classes = classes
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.executions != nil {
			_ = Manager.executions.Close()
		}
		if Manager.classes != nil {
			_ = Manager.classes.Close()
		}
	})
}

// ClearExecutions removes every stored execution.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearExecutions(backend schema.DatabaseBackend, connStr string) error {
	return clearStore(backend, connStr, contract.GetStoreDBFilePath(), executionsTable)
}

// ClearClassCache removes every cached classification answer.
func ClearClassCache(backend schema.DatabaseBackend, connStr string) error {
	return clearStore(backend, connStr, contract.GetClassCacheDBFilePath(), classCacheTable)
}

func clearStore(backend schema.DatabaseBackend, connStr, defaultPath, table string) error {
	switch backend {
	case schema.SQLiteBackend:
		dbFilePath := connStr
		if dbFilePath == "" {
			dbFilePath = defaultPath
		}
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearSQLTable("mysql", connStr, quoteTableName(table, backend))

	case schema.PostgreSQLBackend:
		return clearSQLTable("pgx", connStr, quoteTableName(table, backend))

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driver, connStr, quotedTable string) error {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", quotedTable, err)
	}
	return nil
}
