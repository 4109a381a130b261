package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// executionsTable is the name of the table holding query executions.
const executionsTable = "cohort_executions"

var tracer = otel.Tracer("cohort.iocache")

// ExecutionStoreImpl implements the ExecutionStore interface.
type ExecutionStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.ExecutionStore = &ExecutionStoreImpl{} // Compile-time check

// NewExecutionStore creates a new ExecutionStore with the specified backend.
func NewExecutionStore(backend schema.DatabaseBackend, connStr string) (*ExecutionStoreImpl, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled persistence
		return &ExecutionStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateExecutionsQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", executionsTable, err)
	}

	return &ExecutionStoreImpl{db: db, backend: backend, connStr: connStr}, nil
}

// getCreateExecutionsQuery returns the CREATE TABLE query for the given backend.
func getCreateExecutionsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(executionsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				title VARCHAR(255) NOT NULL,
				exec_time BIGINT NOT NULL,
				simulated SMALLINT NOT NULL DEFAULT 0,
				counters LONGTEXT NOT NULL,
				PRIMARY KEY (title, exec_time)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				title VARCHAR(255) NOT NULL,
				exec_time BIGINT NOT NULL,
				simulated SMALLINT NOT NULL DEFAULT 0,
				counters TEXT NOT NULL,
				PRIMARY KEY (title, exec_time)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				title TEXT NOT NULL,
				exec_time INTEGER NOT NULL,
				simulated INTEGER NOT NULL DEFAULT 0,
				counters TEXT NOT NULL,
				PRIMARY KEY (title, exec_time)
			);
		`, quoted)
	}
}

// getUpsertQuery returns the UPSERT query for the backend.
func (s *ExecutionStoreImpl) getUpsertQuery() string {
	quoted := quoteTableName(executionsTable, s.backend)
	args := strings.Join(placeholders(s.backend, 4), ", ")
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (title, exec_time, simulated, counters) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE simulated = new.simulated, counters = new.counters`, quoted, args)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (title, exec_time, simulated, counters) VALUES (%s)
			ON CONFLICT (title, exec_time) DO UPDATE SET simulated = EXCLUDED.simulated, counters = EXCLUDED.counters`, quoted, args)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (title, exec_time, simulated, counters) VALUES (%s)`, quoted, args)
	}
}

// SaveExecution implements the ExecutionStore interface.
func (s *ExecutionStoreImpl) SaveExecution(ctx context.Context, title string, snap schema.ExecutionSnapshot) error {
	if s.db == nil {
		return nil
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("execution title cannot be empty")
	}

	counters := snap.Counters
	if counters == nil {
		counters = map[string]int{}
	}
	data, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("failed to encode counters: %w", err)
	}

	simulated := 0
	if snap.Simulated {
		simulated = 1
	}
	if _, err := s.db.ExecContext(ctx, s.getUpsertQuery(), title, snap.Time, simulated, string(data)); err != nil {
		return fmt.Errorf("failed to save execution %s@%d: %w", title, snap.Time, err)
	}
	return nil
}

// ListExecutions implements the ExecutionStore interface.
func (s *ExecutionStoreImpl) ListExecutions(ctx context.Context, title string) (out []schema.ExecutionSnapshot, err error) {
	if s.db == nil {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "iocache.ListExecutions",
		trace.WithAttributes(attribute.String("query", title), attribute.String("backend", string(s.backend))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("executions", len(out)))
		}
		span.End()
	}()

	query := fmt.Sprintf(`SELECT exec_time, simulated, counters FROM %s WHERE title = %s ORDER BY exec_time ASC`,
		quoteTableName(executionsTable, s.backend), placeholders(s.backend, 1)[0])
	rows, err := s.db.QueryContext(ctx, query, title)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions of %s: %w", title, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			snap      schema.ExecutionSnapshot
			simulated int
			counters  string
		)
		if err := rows.Scan(&snap.Time, &simulated, &counters); err != nil {
			return nil, fmt.Errorf("failed to scan execution of %s: %w", title, err)
		}
		if err := json.Unmarshal([]byte(counters), &snap.Counters); err != nil {
			return nil, fmt.Errorf("corrupt counters for %s@%d: %w", title, snap.Time, err)
		}
		snap.Simulated = simulated != 0
		out = append(out, snap)
	}
	return out, rows.Err()
}

// ListQueries implements the ExecutionStore interface.
func (s *ExecutionStoreImpl) ListQueries(ctx context.Context) ([]schema.QueryInfo, error) {
	if s.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT title, COUNT(*), MIN(exec_time), MAX(exec_time) FROM %s GROUP BY title ORDER BY title`,
		quoteTableName(executionsTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.QueryInfo
	for rows.Next() {
		var info schema.QueryInfo
		if err := rows.Scan(&info.Title, &info.Executions, &info.OldestTime, &info.LatestTime); err != nil {
			return nil, fmt.Errorf("failed to scan query summary: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// ListRecords flattens every stored execution into one record per counter,
// ordered by title, time and key.
func (s *ExecutionStoreImpl) ListRecords(ctx context.Context) ([]schema.ExecutionRecord, error) {
	queries, err := s.ListQueries(ctx)
	if err != nil {
		return nil, err
	}

	var out []schema.ExecutionRecord
	for _, q := range queries {
		snaps, err := s.ListExecutions(ctx, q.Title)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			for _, key := range slices.Sorted(maps.Keys(snap.Counters)) {
				out = append(out, schema.ExecutionRecord{
					Title:     q.Title,
					Time:      snap.Time,
					Key:       key,
					Count:     snap.Counters[key],
					Simulated: snap.Simulated,
				})
			}
		}
	}
	return out, nil
}

// Close closes the underlying DB connection.
func (s *ExecutionStoreImpl) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStatus returns status information about the execution store.
func (s *ExecutionStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}

	quoted := quoteTableName(executionsTable, s.backend)

	row := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT title) FROM %s", quoted))
	if err := row.Scan(&status.TotalExecutions, &status.TotalQueries); err != nil {
		return status, fmt.Errorf("failed to get total executions: %w", err)
	}

	if status.TotalExecutions > 0 {
		var oldest, latest int64
		row = s.db.QueryRow(fmt.Sprintf("SELECT MIN(exec_time), MAX(exec_time) FROM %s", quoted))
		if err := row.Scan(&oldest, &latest); err != nil {
			return status, fmt.Errorf("failed to get execution times: %w", err)
		}
		status.OldestExecutionTime = time.Unix(oldest, 0)
		status.LastExecutionTime = time.Unix(latest, 0)
	}

	status.TableSizes[executionsTable] = tableSizeBytes(s.db, s.backend, s.connStr, executionsTable, status.TotalExecutions)
	return status, nil
}
