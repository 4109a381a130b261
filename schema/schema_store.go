package schema

import "time"

// QueryInfo describes the stored executions of one query.
type QueryInfo struct {
	Title      string `json:"title"`
	Executions int    `json:"executions"`
	OldestTime int64  `json:"oldest_time"`
	LatestTime int64  `json:"latest_time"`
}

// StoreStatus represents the status of the execution store.
type StoreStatus struct {
	Backend             string           `json:"backend"`
	Connected           bool             `json:"connected"`
	TotalQueries        int              `json:"total_queries"`
	TotalExecutions     int              `json:"total_executions"`
	LastExecutionTime   time.Time        `json:"last_execution_time"`
	OldestExecutionTime time.Time        `json:"oldest_execution_time"`
	TableSizes          map[string]int64 `json:"table_sizes"`
}

// CacheStatus represents the status of the classification cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// ExecutionRecord is a stored execution flattened for export.
type ExecutionRecord struct {
	Title     string
	Time      int64
	Key       string
	Count     int
	Simulated bool
}
