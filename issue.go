package opdk

import (
	"encoding/json"
)

// IssueType names a data-quality problem detected during interpretation.
type IssueType string

// Issue types recorded by the interpreters.
const (
	ParseError              IssueType = "PARSE_ERROR"
	RecordedDateInvalid     IssueType = "RECORDED_DATE_INVALID"
	RecordedDateUnlikely    IssueType = "RECORDED_DATE_UNLIKELY"
	CountryInvalid          IssueType = "COUNTRY_INVALID"
	ContinentInvalid        IssueType = "CONTINENT_INVALID"
	CoordinateInvalid       IssueType = "COORDINATE_INVALID"
	CoordinateOutOfRange    IssueType = "COORDINATE_OUT_OF_RANGE"
	IndividualCountInvalid  IssueType = "INDIVIDUAL_COUNT_INVALID"
	BasisOfRecordInvalid    IssueType = "BASIS_OF_RECORD_INVALID"
	TaxonRankInvalid        IssueType = "TAXON_RANK_INVALID"
	SampleSizeInvalid       IssueType = "SAMPLE_SIZE_INVALID"
	LicenseInvalid          IssueType = "LICENSE_INVALID"
	ReferencesURIInvalid    IssueType = "REFERENCES_URI_INVALID"
	MultimediaURIInvalid    IssueType = "MULTIMEDIA_URI_INVALID"
	VocabularyMatchNone     IssueType = "VOCABULARY_MATCH_NONE"
	UniqueKeyEmpty          IssueType = "UNIQUE_KEY_EMPTY"
	ElevationNonNumeric     IssueType = "ELEVATION_NON_NUMERIC"
	DayOfYearInvalid        IssueType = "DAY_OF_YEAR_INVALID"
	RecordedByUnparsable    IssueType = "RECORDED_BY_UNPARSABLE"
	SamplingProtocolInvalid IssueType = "SAMPLING_PROTOCOL_INVALID"
)

// LineageType names the corrective action taken in response to an issue.
type LineageType string

// Lineage types.
const (
	SetToNull      LineageType = "SET_TO_NULL"
	DefaultApplied LineageType = "DEFAULT_APPLIED"
)

// Issue describes a detected data-quality problem.
type Issue struct {
	Type   IssueType `json:"issueType"`
	Remark string    `json:"remark"`
}

// Lineage describes what was done about an issue.
type Lineage struct {
	Type   LineageType `json:"lineageType"`
	Remark string      `json:"remark"`
}

// IssueList accumulates the issues and lineage of one record's
// interpretation. It only grows: nothing already recorded can be removed or
// changed. An IssueList belongs to a single record and is not safe for
// concurrent use.
type IssueList struct {
	issues   []Issue
	lineages []Lineage
}

// Add records an issue together with any lineage explaining the action
// taken.
func (l *IssueList) Add(issue Issue, lineage ...Lineage) {
	l.issues = append(l.issues, issue)
	l.lineages = append(l.lineages, lineage...)
}

// AddLineage records lineage without a new issue.
func (l *IssueList) AddLineage(lineage ...Lineage) {
	l.lineages = append(l.lineages, lineage...)
}

// AddTrace records an issue trace. It is meant to be handed to
// Interpretation.ForEachTrace.
func (l *IssueList) AddTrace(t Trace[IssueType]) {
	l.issues = append(l.issues, Issue{Type: t.Context, Remark: t.Remark})
}

// AddLineageTrace records a lineage trace. It is meant to be handed to
// Interpretation.ForEachLineage.
func (l *IssueList) AddLineageTrace(t Trace[LineageType]) {
	l.lineages = append(l.lineages, Lineage{Type: t.Context, Remark: t.Remark})
}

// Issues returns a copy of the recorded issues in the order they were added.
func (l *IssueList) Issues() []Issue {
	if len(l.issues) == 0 {
		return nil
	}
	return append([]Issue(nil), l.issues...)
}

// Lineages returns a copy of the recorded lineage in the order it was added.
func (l *IssueList) Lineages() []Lineage {
	if len(l.lineages) == 0 {
		return nil
	}
	return append([]Lineage(nil), l.lineages...)
}

// Len returns the number of issues.
func (l *IssueList) Len() int { return len(l.issues) }

// Has reports whether an issue of the given type has been recorded.
func (l *IssueList) Has(t IssueType) bool {
	for _, is := range l.issues {
		if is.Type == t {
			return true
		}
	}
	return false
}

type issueListJSON struct {
	Issues   []Issue   `json:"issueList"`
	Lineages []Lineage `json:"lineage"`
}

// MarshalJSON implements json.Marshaler.
func (l IssueList) MarshalJSON() ([]byte, error) {
	v := issueListJSON{Issues: l.issues, Lineages: l.lineages}
	if v.Issues == nil {
		v.Issues = []Issue{}
	}
	if v.Lineages == nil {
		v.Lineages = []Lineage{}
	}
	return json.Marshal(v)
}

// Collect routes every issue and lineage trace of the interpretation into
// the list.
func Collect[T any](l *IssueList, in Interpretation[T]) {
	in.ForEachTrace(l.AddTrace)
	in.ForEachLineage(l.AddLineageTrace)
}
