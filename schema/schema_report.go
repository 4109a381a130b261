package schema

// RatioResult is the aggregate of a ratio family cohort.
// After suppression Numerator may exceed Denominator when only one side was floored.
type RatioResult struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// DemographicResult maps gender -> age range label -> count.
type DemographicResult map[Gender]map[string]int

// Get returns the count for a gender and age label, 0 when absent.
func (d DemographicResult) Get(g Gender, label string) int {
	if d == nil {
		return 0
	}
	return d[g][label]
}

// ClassCount is one ranked drug class.
type ClassCount struct {
	ClassName string `json:"class"`
	Count     int    `json:"count"`
}

// MedClassResult is an ordered list of drug classes, highest count first.
type MedClassResult []ClassCount

// Counts returns the result indexed by class name.
func (m MedClassResult) Counts() map[string]int {
	out := make(map[string]int, len(m))
	for _, c := range m {
		out[c.ClassName] = c.Count
	}
	return out
}

// Aggregate is the set of per-family cohort aggregate types.
type Aggregate interface {
	RatioResult | DemographicResult | MedClassResult
}

// AlignedPoint is one entry of a temporally aligned series.
// Delta is nil only for the first point of a chain.
type AlignedPoint[A Aggregate] struct {
	Time      int64 `json:"time"`
	Aggregate A     `json:"aggregate_result"`
	Delta     *A    `json:"delta"`
	Simulated bool  `json:"simulated"`
}

// Timestamp implements Timed.
func (p AlignedPoint[A]) Timestamp() int64 { return p.Time }

// Report is the fully derived, aligned cohort report for one query.
// Anonymous is keyed by pseudo id; PeerOrder keeps the encounter order of the keys.
type Report[A Aggregate] struct {
	Title        string                       `json:"title"`
	Family       Family                       `json:"family"`
	RunID        string                       `json:"run_id,omitempty"`
	GroupName    string                       `json:"group_name"`
	DisplayNames map[Cohort]string            `json:"display_names"`
	Clinician    []AlignedPoint[A]            `json:"clinician"`
	Group        []AlignedPoint[A]            `json:"group"`
	Network      []AlignedPoint[A]            `json:"network"`
	Anonymous    map[string][]AlignedPoint[A] `json:"anonymous"`
	PeerOrder    []string                     `json:"peer_order,omitempty"`
}

// Len returns the number of aligned executions in the report.
func (r *Report[A]) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Clinician)
}

// GroupDisplayName formats the display name of a peer group.
func GroupDisplayName(groupName string) string {
	return "Group (" + groupName + ")"
}

// DrugShare is one cohort's count of a drug class against the cohort total.
type DrugShare struct {
	Set         Cohort `json:"set"`
	Numerator   int    `json:"numerator"`
	Denominator int    `json:"denominator"`
}

// DrugRow is one drug class across all three cohorts.
type DrugRow struct {
	DrugName string      `json:"drug_name"`
	AggData  []DrugShare `json:"agg_data"`
}

// MedClassView compares the clinician's top drug classes against group and network
// for a single execution.
type MedClassView struct {
	Title     string    `json:"title"`
	GroupName string    `json:"group_name"`
	Time      int64     `json:"time"`
	Drugs     []DrugRow `json:"drugs"`
}

// QueryMetadata describes a query in the summary catalog.
type QueryMetadata struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Target      string `json:"target" yaml:"target"`
	Reference   string `json:"reference" yaml:"reference"`
}

// SummaryRow is the latest clinician ratio of one query in a population summary.
// Result is nil when the query had no usable data.
type SummaryRow struct {
	Query    string         `json:"query"`
	Metadata *QueryMetadata `json:"metadata,omitempty"`
	Time     int64          `json:"time"`
	Result   *RatioResult   `json:"result"`
}

// Summary is a multi-query population health summary.
type Summary struct {
	Name string       `json:"name"`
	Rows []SummaryRow `json:"rows"`
}
