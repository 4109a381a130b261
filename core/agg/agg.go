// Package agg decodes raw execution counters and splits them into cohort views.
package agg

import (
	"fmt"
	"sort"
	"sync"

	"github.com/huangsam/cohort/internal/contract"
	"github.com/huangsam/cohort/schema"
)

// Aggregator splits one execution's counters into self, group and network cohorts
// for one requester. The split is computed once and reused for the lifetime of the
// instance; a new requester or a new snapshot needs a new Aggregator.
type Aggregator[R schema.Record] struct {
	requesterID string
	counters    map[string]int
	decode      Decoder[R]
	directory   contract.GroupDirectory

	once      sync.Once
	split     schema.CohortSplit[R]
	groupName string
	err       error
}

// NewAggregator creates an Aggregator over a snapshot's counters.
func NewAggregator[R schema.Record](requesterID string, counters map[string]int, decode Decoder[R], directory contract.GroupDirectory) *Aggregator[R] {
	return &Aggregator[R]{
		requesterID: requesterID,
		counters:    counters,
		decode:      decode,
		directory:   directory,
	}
}

// Split returns the cohort split, computing it on first use.
// An ambiguous group membership of the requester is returned as an error
// wrapping contract.ErrAmbiguousGroupMembership.
func (a *Aggregator[R]) Split() (schema.CohortSplit[R], error) {
	a.once.Do(func() {
		a.split, a.groupName, a.err = splitRecords(a.requesterID, DecodeAll(a.counters, a.decode), a.directory)
	})
	return a.split, a.err
}

// GroupName returns the requester's group name once Split has run.
func (a *Aggregator[R]) GroupName() (string, error) {
	if _, err := a.Split(); err != nil {
		return "", err
	}
	return a.groupName, nil
}

// RequesterID returns the id the split is computed for.
func (a *Aggregator[R]) RequesterID() string {
	return a.requesterID
}

// splitRecords partitions records by subject. Network holds every record, group holds
// the records of the requester's group members, self holds the requester's records.
func splitRecords[R schema.Record](requesterID string, records []R, directory contract.GroupDirectory) (schema.CohortSplit[R], string, error) {
	split := schema.CohortSplit[R]{
		Self:    []R{},
		Group:   []R{},
		Network: records,
	}

	groupName := ""
	if directory != nil {
		name, err := directory.FindGroup(requesterID)
		if err != nil {
			return schema.CohortSplit[R]{}, "", fmt.Errorf("cannot resolve group of %s: %w", requesterID, err)
		}
		groupName = name
	}

	for _, rec := range records {
		subject := rec.Subject()
		if subject == requesterID {
			split.Self = append(split.Self, rec)
		}
		if groupName != "" && directory.InGroup(subject, groupName) {
			split.Group = append(split.Group, rec)
		}
	}

	return split, groupName, nil
}

// sortedKeys returns the keys of a counter map in ascending order.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
