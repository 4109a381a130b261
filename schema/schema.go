// Package schema has the types shared by the cohort engine, its stores and its renderers.
package schema

// ExecutionSnapshot is one timestamped run of a query: a flat counter map
// produced upstream over a patient population.
type ExecutionSnapshot struct {
	Time      int64          `json:"time"`      // Unix seconds
	Counters  map[string]int `json:"counters"`  // Encoded key -> count
	Simulated bool           `json:"simulated"` // Produced by a simulated run
}

// Timed is anything carrying a Unix-second timestamp.
type Timed interface {
	Timestamp() int64
}

// Timestamp implements Timed.
func (s ExecutionSnapshot) Timestamp() int64 { return s.Time }

// Record is a counter key decoded for one query family.
type Record interface {
	Subject() string
}

// RatioRecord is one side of a numerator/denominator pair.
type RatioRecord struct {
	SubjectID string
	Field     Field
	Count     int
}

// Subject implements Record.
func (r RatioRecord) Subject() string { return r.SubjectID }

// DemographicRecord is one gender and age bucket count for a clinician.
type DemographicRecord struct {
	SubjectID string
	Gender    Gender
	LowerAge  int
	UpperAge  *int // nil for the open-ended top bucket
	Count     int
}

// Subject implements Record.
func (r DemographicRecord) Subject() string { return r.SubjectID }

// AgeLabel returns the bucket label of the record.
func (r DemographicRecord) AgeLabel() string {
	return AgeRange{Lower: r.LowerAge, Upper: r.UpperAge}.Label()
}

// MedClassRecord is a prescription count for one drug code.
// Class stays empty until the classification service resolved it.
type MedClassRecord struct {
	SubjectID  string
	DrugCode   string
	CodeSystem string
	Class      string
	Count      int
}

// Subject implements Record.
func (r MedClassRecord) Subject() string { return r.SubjectID }

// CohortSplit partitions decoded records into the three cohort views.
// Self is a subset of Group, which is a subset of Network.
type CohortSplit[R Record] struct {
	Self    []R
	Group   []R
	Network []R
}

// RatioPair is a numerator and denominator merged for one subject.
type RatioPair struct {
	SubjectID   string
	Numerator   int
	Denominator int
}
