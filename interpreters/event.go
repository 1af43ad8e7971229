package interpreters

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
)

// Licenses recognised on records.
const (
	LicenseCC0     = "CC0_1_0"
	LicenseCCBy    = "CC_BY_4_0"
	LicenseCCByNC  = "CC_BY_NC_4_0"
	LicenseUnknown = ""
)

// ParseLicense normalises a license URL or label to one of the License
// constants.
func ParseLicense(raw string) string {
	k := key(raw)
	switch {
	case strings.Contains(k, "publicdomainzero"), strings.HasPrefix(k, "cc0"):
		return LicenseCC0
	case strings.Contains(k, "licensesbync"), strings.HasPrefix(k, "ccbync"), strings.Contains(k, "attributionnoncommercial"):
		return LicenseCCByNC
	case strings.Contains(k, "licensesby"), strings.HasPrefix(k, "ccby"), strings.Contains(k, "attribution"):
		return LicenseCCBy
	}
	return LicenseUnknown
}

// InterpretLicense recognises CC0, CC-BY and CC-BY-NC in their URL or label
// forms.
func InterpretLicense(raw string) opdk.Result[string] {
	if isNull(raw) {
		return nulled[string](opdk.LicenseInvalid, "license", "is null")
	}
	l := ParseLicense(raw)
	if l == LicenseUnknown {
		return nulled[string](opdk.LicenseInvalid, "license", fmt.Sprintf("'%s' is not a supported license", strings.TrimSpace(raw)))
	}
	return opdk.Ok(l)
}

// InterpretURI accepts absolute URIs with a host.
func InterpretURI(issue opdk.IssueType, field string) func(string) opdk.Result[string] {
	return func(raw string) opdk.Result[string] {
		if isNull(raw) {
			return nulled[string](issue, field, "is null")
		}
		s := strings.TrimSpace(raw)
		u, err := url.Parse(s)
		if err != nil {
			return nulled[string](issue, field, err.Error())
		}
		if !u.IsAbs() || u.Host == "" {
			return nulled[string](issue, field, fmt.Sprintf("'%s' is not an absolute URI", s))
		}
		return opdk.Ok(u.String())
	}
}

// InterpretSampleSizeValue accepts positive numbers.
func InterpretSampleSizeValue(raw string) opdk.Result[float64] {
	if isNull(raw) {
		return nulled[float64](opdk.SampleSizeInvalid, "sampleSizeValue", "is null")
	}
	s := strings.TrimSpace(raw)
	v, err := parseFloat(s)
	if err != nil {
		return nulled[float64](opdk.SampleSizeInvalid, "sampleSizeValue", fmt.Sprintf("'%s' is not a number", s))
	}
	if v <= 0 {
		return nulled[float64](opdk.SampleSizeInvalid, "sampleSizeValue", fmt.Sprintf("%v is not positive", v))
	}
	return opdk.Ok(v)
}

// InterpretMulti splits a multi-valued term, failing with issue when
// nothing but separators remains.
func InterpretMulti(issue opdk.IssueType, field string) func(string) opdk.Result[[]string] {
	return func(raw string) opdk.Result[[]string] {
		vals := SplitMulti(raw)
		if len(vals) == 0 {
			return nulled[[]string](issue, field, fmt.Sprintf("'%s' holds no values", raw))
		}
		return opdk.Ok(vals)
	}
}

// References sets the references URI of an event.
func References(er *opdk.VerbatimRecord, ec *records.EventCoreRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DcTermsReferences, InterpretURI(opdk.ReferencesURIInvalid, "references"), func(s string) { ec.References = s })
}

// SampleSizeUnit sets the sample size unit of an event.
func SampleSizeUnit(er *opdk.VerbatimRecord, ec *records.EventCoreRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcSampleSizeUnit, Trimmed, func(s string) { ec.SampleSizeUnit = s })
}

// SampleSizeValue sets the sample size value of an event.
func SampleSizeValue(er *opdk.VerbatimRecord, ec *records.EventCoreRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcSampleSizeValue, InterpretSampleSizeValue, func(v float64) { ec.SampleSizeValue = &v })
}

// License sets the license of an event.
func License(er *opdk.VerbatimRecord, ec *records.EventCoreRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DcTermsLicense, InterpretLicense, func(s string) { ec.License = s })
}

// ParentEventID sets the parent event of an event.
func ParentEventID(er *opdk.VerbatimRecord, ec *records.EventCoreRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcParentEventID, Trimmed, func(s string) { ec.ParentEventID = s })
}

// DatasetID sets the dataset identifiers of an event.
func DatasetID(er *opdk.VerbatimRecord, ec *records.EventCoreRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcDatasetID, InterpretMulti(opdk.ParseError, "datasetID"), func(v []string) { ec.DatasetID = v })
}

// DatasetName sets the dataset names of an event.
func DatasetName(er *opdk.VerbatimRecord, ec *records.EventCoreRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcDatasetName, InterpretMulti(opdk.ParseError, "datasetName"), func(v []string) { ec.DatasetName = v })
}

// SamplingProtocol sets the sampling protocols of an event.
func SamplingProtocol(er *opdk.VerbatimRecord, ec *records.EventCoreRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcSamplingProtocol, InterpretMulti(opdk.SamplingProtocolInvalid, "samplingProtocol"), func(v []string) { ec.SamplingProtocol = v })
}
