package interpreters

import (
	"fmt"
	"strings"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
)

var basisOfRecord = map[string]string{
	"preservedspecimen":  "PRESERVED_SPECIMEN",
	"specimen":           "PRESERVED_SPECIMEN",
	"fossilspecimen":     "FOSSIL_SPECIMEN",
	"fossil":             "FOSSIL_SPECIMEN",
	"livingspecimen":     "LIVING_SPECIMEN",
	"humanobservation":   "HUMAN_OBSERVATION",
	"machineobservation": "MACHINE_OBSERVATION",
	"materialsample":     "MATERIAL_SAMPLE",
	"materialcitation":   "MATERIAL_CITATION",
	"observation":        "OBSERVATION",
	"occurrence":         "OCCURRENCE",
}

var sexes = map[string]string{
	"male":          "MALE",
	"m":             "MALE",
	"female":        "FEMALE",
	"f":             "FEMALE",
	"hermaphrodite": "HERMAPHRODITE",
}

// closed returns an interpreter for a closed vocabulary, matching on
// keys.
func closed(values map[string]string, issue opdk.IssueType, field string) func(string) opdk.Result[string] {
	return func(raw string) opdk.Result[string] {
		if isNull(raw) {
			return nulled[string](issue, field, "is null")
		}
		if v, ok := values[key(raw)]; ok {
			return opdk.Ok(v)
		}
		return nulled[string](issue, field, fmt.Sprintf("'%s' is not a known value", strings.TrimSpace(raw)))
	}
}

// InterpretBasisOfRecord recognises the Darwin Core basis of record
// classes.
var InterpretBasisOfRecord = closed(basisOfRecord, opdk.BasisOfRecordInvalid, "basisOfRecord")

// InterpretSex recognises male, female and hermaphrodite.
var InterpretSex = closed(sexes, opdk.ParseError, "sex")

// InterpretIndividualCount accepts non-negative integers.
func InterpretIndividualCount(raw string) opdk.Result[int32] {
	if isNull(raw) {
		return nulled[int32](opdk.IndividualCountInvalid, "individualCount", "is null")
	}
	c, err := parseInt32(raw)
	if err != nil {
		return nulled[int32](opdk.IndividualCountInvalid, "individualCount", fmt.Sprintf("'%s' is not an integer", strings.TrimSpace(raw)))
	}
	if c < 0 {
		return nulled[int32](opdk.IndividualCountInvalid, "individualCount", fmt.Sprintf("%d is negative", c))
	}
	return opdk.Ok(c)
}

// BasisOfRecord sets the basis of record of a basic record.
func BasisOfRecord(er *opdk.VerbatimRecord, br *records.BasicRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcBasisOfRecord, InterpretBasisOfRecord, func(s string) { br.BasisOfRecord = s })
}

// Sex sets the sex of a basic record.
func Sex(er *opdk.VerbatimRecord, br *records.BasicRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcSex, InterpretSex, func(s string) { br.Sex = s })
}

// IndividualCount sets the individual count of a basic record.
func IndividualCount(er *opdk.VerbatimRecord, br *records.BasicRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcIndividualCount, InterpretIndividualCount, func(c int32) { br.IndividualCount = &c })
}

// RecordedBy sets the recorders of a basic record.
func RecordedBy(er *opdk.VerbatimRecord, br *records.BasicRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcRecordedBy, InterpretMulti(opdk.RecordedByUnparsable, "recordedBy"), func(v []string) { br.RecordedBy = v })
}

// TypeStatus sets the type statuses of a basic record.
func TypeStatus(er *opdk.VerbatimRecord, br *records.BasicRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcTypeStatus, InterpretMulti(opdk.ParseError, "typeStatus"), func(v []string) { br.TypeStatus = v })
}
