// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/cohort/schema"
)

// GroupDirectory resolves clinicians to their peer groups.
// Implementations are read-only snapshots for the duration of a request.
type GroupDirectory interface {
	// FindGroup returns the name of the group the id belongs to, or "" when it has none.
	// It returns ErrAmbiguousGroupMembership if the id is listed in more than one
	// group of the same initiative.
	FindGroup(id string) (string, error)

	// InGroup reports whether the id is a member of the named group.
	InGroup(id, groupName string) bool

	// Members returns the member ids of the named group.
	Members(groupName string) []string
}

// ExecutionStore gives access to stored query executions.
// This allows the report layer to be tested without a database.
type ExecutionStore interface {
	// SaveExecution stores one execution of a query, replacing one with the same time.
	SaveExecution(ctx context.Context, title string, snap schema.ExecutionSnapshot) error

	// ListExecutions returns the executions of a query ordered by time ascending.
	ListExecutions(ctx context.Context, title string) ([]schema.ExecutionSnapshot, error)

	// ListQueries returns a summary of every stored query.
	ListQueries(ctx context.Context) ([]schema.QueryInfo, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// ClassificationService resolves drug codes to drug classes.
type ClassificationService interface {
	// Classify returns the class of a drug code. A code the service does not know
	// yields an error wrapping ErrClassNotFound; any other error is a service failure.
	Classify(ctx context.Context, code, codeSystem string) (string, error)
}

// ClassCache defines the interface for the classification key/value cache.
type ClassCache interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetExecutionStore() ExecutionStore
	GetClassCache() ClassCache
}
