package internal

import "strings"

// Input column names of a job-posting dataset.
const (
	ColWorkYear          = "work_year"
	ColExperienceLevel   = "experience_level"
	ColEmploymentType    = "employment_type"
	ColJobTitle          = "job_title"
	ColSalary            = "salary"
	ColSalaryCurrency    = "salary_currency"
	ColSalaryInUSD       = "salary_in_usd"
	ColEmployeeResidence = "employee_residence"
	ColCompanyLocation   = "company_location"
	ColCompanySize       = "company_size"
)

// Prefixes of generated feature columns.
const (
	EmploymentTypePrefix = "employment_type_"
	JobTitlePrefix       = "job_title_"
)

// RequiredColumns must be present in every input dataset.
var RequiredColumns = []string{
	ColWorkYear,
	ColExperienceLevel,
	ColEmploymentType,
	ColJobTitle,
	ColSalaryInUSD,
	ColEmployeeResidence,
	ColCompanyLocation,
	ColCompanySize,
}

// DiscardedColumns are dropped during cleaning when present.
var DiscardedColumns = []string{ColSalary, ColSalaryCurrency}

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "EN"
	ExperienceMid       ExperienceLevel = "MI"
	ExperienceSenior    ExperienceLevel = "SE"
	ExperienceExecutive ExperienceLevel = "EX"
)

var experienceRank = map[ExperienceLevel]int{
	ExperienceEntry:     1,
	ExperienceMid:       2,
	ExperienceSenior:    3,
	ExperienceExecutive: 4,
}

// ParseExperienceLevel accepts only the four known level codes.
func ParseExperienceLevel(raw string) (ExperienceLevel, bool) {
	level := ExperienceLevel(strings.TrimSpace(raw))
	_, ok := experienceRank[level]
	return level, ok
}

// Rank is the ordinal value used as the encoded feature.
func (l ExperienceLevel) Rank() int {
	return experienceRank[l]
}

type CompanySize string

const (
	CompanySmall  CompanySize = "S"
	CompanyMedium CompanySize = "M"
	CompanyLarge  CompanySize = "L"
)

var companySizeRank = map[CompanySize]int{
	CompanySmall:  1,
	CompanyMedium: 2,
	CompanyLarge:  3,
}

// ParseCompanySize accepts only S, M and L.
func ParseCompanySize(raw string) (CompanySize, bool) {
	size := CompanySize(strings.TrimSpace(raw))
	_, ok := companySizeRank[size]
	return size, ok
}

func (s CompanySize) Rank() int {
	return companySizeRank[s]
}

type RunMode string

const (
	ModePreprocess RunMode = "preprocess"
	ModeFit        RunMode = "fit"
	ModeTransform  RunMode = "transform"
)

type DatasetStatus string

const (
	DatasetPending     DatasetStatus = "pending"
	DatasetTransformed DatasetStatus = "transformed"
	DatasetFailed      DatasetStatus = "failed"
)

// SchemaRecord is a persisted frozen feature schema.
type SchemaRecord struct {
	ID        string
	Name      string
	RowsFit   int
	Columns   []string
	Body      string
	CreatedAt string
}

// DatasetRow tracks a file picked up by the inbox watcher.
type DatasetRow struct {
	ID         int
	Path       string
	Hash       string
	Status     DatasetStatus
	SchemaID   *string
	OutputPath *string
	Error      *string
}

// RunRow is one recorded pipeline run.
type RunRow struct {
	TraceID  string
	Mode     RunMode
	SchemaID *string
	Input    string
	Timings  map[string]float64
	Counts   map[string]int
}
