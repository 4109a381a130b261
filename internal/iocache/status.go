package iocache

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/huangsam/cohort/schema"
)

const statusTimeLayout = "2006-01-02 15:04:05"

// PrintStoreStatus prints execution store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Queries: %d\n", status.TotalQueries)
	fmt.Printf("Total Executions: %d\n", status.TotalExecutions)
	if status.TotalExecutions > 0 {
		fmt.Printf("Last Execution: %s\n", status.LastExecutionTime.Format(statusTimeLayout))
		fmt.Printf("Oldest Execution: %s\n", status.OldestExecutionTime.Format(statusTimeLayout))
	}
	fmt.Println("Table Sizes:")
	for _, table := range slices.Sorted(maps.Keys(status.TableSizes)) {
		fmt.Printf("  %s: %d bytes\n", table, status.TableSizes[table])
	}
}

// PrintCacheStatus prints classification cache status information.
func PrintCacheStatus(status schema.CacheStatus) {
	fmt.Printf("Cache Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		fmt.Printf("Last Entry: %s\n", status.LastEntryTime.Format(statusTimeLayout))
		fmt.Printf("Oldest Entry: %s\n", status.OldestEntryTime.Format(statusTimeLayout))
	}
	fmt.Printf("Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintQueries prints the stored queries, one per line.
func PrintQueries(queries []schema.QueryInfo) {
	if len(queries) == 0 {
		fmt.Println("No executions stored.")
		return
	}
	for _, q := range queries {
		fmt.Printf("%s: %d executions (%s .. %s)\n", q.Title, q.Executions,
			formatUnix(q.OldestTime), formatUnix(q.LatestTime))
	}
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(statusTimeLayout)
}
