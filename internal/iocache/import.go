package iocache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/huangsam/cohort/core/algo"
	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// simulatedKey marks a simulated run inside an aggregate result.
const simulatedKey = "simulated"

// ExecutionDocument is an exported query with its executions.
//
// Two execution layouts are accepted: the aggregate form
//
//	{"time": 1420143132, "aggregate_result": {"numerator_cpsid": 8, "simulated": false}}
//
// and the snapshot form written by this tool
//
//	{"time": 1420143132, "counters": {"numerator_cpsid": 8}, "simulated": false}
type ExecutionDocument struct {
	Title      string
	Executions []schema.ExecutionSnapshot
}

type rawDocument struct {
	Title      string         `json:"title"`
	Executions []rawExecution `json:"executions"`
}

type rawExecution struct {
	Time            *int64                     `json:"time"`
	AggregateResult map[string]json.RawMessage `json:"aggregate_result"`
	Counters        map[string]int             `json:"counters"`
	Simulated       bool                       `json:"simulated"`
}

// ParseExecutionDocument decodes an execution document. A bare JSON array is
// read as the executions of an untitled document.
func ParseExecutionDocument(r io.Reader) (*ExecutionDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read execution document: %w", err)
	}

	var doc rawDocument
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &doc.Executions)
	} else {
		err = json.Unmarshal(trimmed, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse execution document: %w", err)
	}

	out := &ExecutionDocument{Title: strings.TrimSpace(doc.Title)}
	for i, raw := range doc.Executions {
		snap, err := raw.snapshot()
		if err != nil {
			return nil, fmt.Errorf("execution %d: %w", i, err)
		}
		out.Executions = append(out.Executions, snap)
	}
	return out, nil
}

func (raw rawExecution) snapshot() (schema.ExecutionSnapshot, error) {
	if raw.Time == nil {
		return schema.ExecutionSnapshot{}, fmt.Errorf("missing time")
	}
	snap := schema.ExecutionSnapshot{Time: *raw.Time, Simulated: raw.Simulated}

	if raw.AggregateResult == nil {
		snap.Counters = raw.Counters
		if snap.Counters == nil {
			snap.Counters = map[string]int{}
		}
		return snap, nil
	}

	snap.Counters = make(map[string]int, len(raw.AggregateResult))
	for key, value := range raw.AggregateResult {
		if key == simulatedKey {
			if err := json.Unmarshal(value, &snap.Simulated); err != nil {
				return snap, fmt.Errorf("invalid simulated flag: %w", err)
			}
			continue
		}
		count, err := decodeCount(value)
		if err != nil {
			return snap, fmt.Errorf("counter %q: %w", key, err)
		}
		if count < 0 || count > math.MaxInt32 {
			return snap, fmt.Errorf("counter %q is not a non-negative integer: %d", key, count)
		}
		snap.Counters[key] = count
	}
	return snap, nil
}

// decodeCount reads one JSON counter value, keeping its exact number text.
func decodeCount(raw json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	return algo.CountValue(v)
}

// LoadExecutionDocument reads an execution document from disk.
func LoadExecutionDocument(path string) (*ExecutionDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open execution document: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseExecutionDocument(f)
}

// ImportExecutions saves every execution of doc under title, falling back to
// the document title when title is empty. It returns the number saved.
func ImportExecutions(ctx context.Context, store contract.ExecutionStore, title string, doc *ExecutionDocument) (int, error) {
	if title == "" {
		title = doc.Title
	}
	if title == "" {
		return 0, fmt.Errorf("no query title given and the document has none")
	}
	for i, snap := range doc.Executions {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := store.SaveExecution(ctx, title, snap); err != nil {
			return i, err
		}
	}
	return len(doc.Executions), nil
}
