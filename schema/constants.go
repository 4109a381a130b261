package schema

// Custom string types for type safety.
type (
	// Family identifies the query family that produced an execution.
	// The family selects the key decoder and the reduction strategy.
	Family string

	// Field is the side of a ratio that a counter contributes to.
	Field string

	// Gender is a demographic gender token decoded from a counter key.
	Gender string

	// Cohort identifies one of the three comparable cohort views.
	Cohort string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string
)

// All query families supported.
const (
	RatioFamily       Family = "ratio" // default
	DemographicFamily Family = "demographic"
	MedClassFamily    Family = "medclass"
)

// Ratio fields.
const (
	NumeratorField   Field = "numerator"
	DenominatorField Field = "denominator"
)

// Supported genders.
const (
	Male             Gender = "male"
	Female           Gender = "female"
	Undifferentiated Gender = "undifferentiated"
	Undefined        Gender = "undefined"
)

// Cohort views.
const (
	SelfCohort    Cohort = "clinician"
	GroupCohort   Cohort = "group"
	NetworkCohort Cohort = "network"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All persistence backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Code systems understood by the drug classification service.
const (
	DINCodeSystem = "hc-din"
	ATCCodeSystem = "whoatc"
)

// Reporting constants.
const (
	// PrivacyThreshold is the smallest disclosed count that is not suppressed.
	PrivacyThreshold = 5

	// PseudoIDPrefix prefixes every anonymized peer identifier.
	PseudoIDPrefix = "PROVIDER_"

	// DefaultTopClasses is how many drug classes a med-class report ranks.
	DefaultTopClasses = 10

	// DefaultIntervalSeconds is the ideal spacing between aligned executions (30 days).
	DefaultIntervalSeconds int64 = 2_592_000

	// DefaultToleranceSeconds is the allowed deviation from the ideal spacing (2 days).
	DefaultToleranceSeconds int64 = 172_800

	// DefaultSeparationSeconds bounds how far apart the latest executions of the
	// queries in one summary may be (1 week).
	DefaultSeparationSeconds int64 = 604_800

	// DefaultReportDay is the day of month an aligned chain starts on.
	DefaultReportDay = 1
)

// Display labels used by rendered reports.
const (
	ClinicianDisplayName = "Clinician"
	NetworkDisplayName   = "Network"
	SelfRowLabel         = "YOU (user)"
	NetworkRowLabel      = "network"
	PeerRowLabelPrefix   = "Group Member "
	NotAvailable         = "N/A"
)

// ValidFamilies lists all valid query families.
var ValidFamilies = map[Family]struct{}{
	RatioFamily:       {},
	DemographicFamily: {},
	MedClassFamily:    {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidBackends lists all valid persistence backends.
var ValidBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
