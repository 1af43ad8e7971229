package opdk

import (
	"strings"
)

// Namespace is the URI prefix shared by a family of terms.
type Namespace string

// Namespaces of the terms understood by the interpreters.
const (
	DwcNamespace     Namespace = "http://rs.tdwg.org/dwc/terms/"
	DcNamespace      Namespace = "http://purl.org/dc/elements/1.1/"
	DcTermsNamespace Namespace = "http://purl.org/dc/terms/"
	GbifNamespace    Namespace = "http://rs.gbif.org/terms/1.0/"
)

var prefixes = map[string]Namespace{
	"dwc":     DwcNamespace,
	"dc":      DcNamespace,
	"dcterms": DcTermsNamespace,
	"gbif":    GbifNamespace,
}

// Term identifies a field of a verbatim record. A Term with an empty
// Namespace is an unknown term and is addressed by its simple name only.
type Term struct {
	Namespace Namespace
	Name      string
}

// SimpleName returns the name of the term without its namespace.
func (t Term) SimpleName() string { return t.Name }

// QualifiedName returns the namespace URI followed by the simple name.
func (t Term) QualifiedName() string {
	return string(t.Namespace) + t.Name
}

// Unknown reports whether the term belongs to no known namespace.
func (t Term) Unknown() bool { return t.Namespace == "" }

func (t Term) String() string { return t.QualifiedName() }

func dwc(name string) Term     { return Term{Namespace: DwcNamespace, Name: name} }
func dcterms(name string) Term { return Term{Namespace: DcTermsNamespace, Name: name} }
func gbif(name string) Term    { return Term{Namespace: GbifNamespace, Name: name} }

// Darwin Core terms.
var (
	DwcOccurrenceID          = dwc("occurrenceID")
	DwcCatalogNumber         = dwc("catalogNumber")
	DwcCollectionCode        = dwc("collectionCode")
	DwcInstitutionCode       = dwc("institutionCode")
	DwcRecordNumber          = dwc("recordNumber")
	DwcBasisOfRecord         = dwc("basisOfRecord")
	DwcSex                   = dwc("sex")
	DwcLifeStage             = dwc("lifeStage")
	DwcEstablishmentMeans    = dwc("establishmentMeans")
	DwcDegreeOfEstablishment = dwc("degreeOfEstablishment")
	DwcPathway               = dwc("pathway")
	DwcIndividualCount       = dwc("individualCount")
	DwcRecordedBy            = dwc("recordedBy")
	DwcTypeStatus            = dwc("typeStatus")
	DwcAssociatedMedia       = dwc("associatedMedia")
	DwcEventID               = dwc("eventID")
	DwcParentEventID         = dwc("parentEventID")
	DwcEventDate             = dwc("eventDate")
	DwcYear                  = dwc("year")
	DwcMonth                 = dwc("month")
	DwcDay                   = dwc("day")
	DwcStartDayOfYear        = dwc("startDayOfYear")
	DwcEndDayOfYear          = dwc("endDayOfYear")
	DwcSamplingProtocol      = dwc("samplingProtocol")
	DwcSampleSizeValue       = dwc("sampleSizeValue")
	DwcSampleSizeUnit        = dwc("sampleSizeUnit")
	DwcContinent             = dwc("continent")
	DwcCountry               = dwc("country")
	DwcCountryCode           = dwc("countryCode")
	DwcStateProvince         = dwc("stateProvince")
	DwcLocality              = dwc("locality")
	DwcDecimalLatitude       = dwc("decimalLatitude")
	DwcDecimalLongitude      = dwc("decimalLongitude")
	DwcMinimumElevation      = dwc("minimumElevationInMeters")
	DwcScientificName        = dwc("scientificName")
	DwcTaxonRank             = dwc("taxonRank")
	DwcKingdom               = dwc("kingdom")
	DwcPhylum                = dwc("phylum")
	DwcClass                 = dwc("class")
	DwcOrder                 = dwc("order")
	DwcFamily                = dwc("family")
	DwcGenus                 = dwc("genus")
	DwcSpecificEpithet       = dwc("specificEpithet")
	DwcDatasetID             = dwc("datasetID")
	DwcDatasetName           = dwc("datasetName")
)

// Dublin Core and GBIF terms.
var (
	DcTermsReferences = dcterms("references")
	DcTermsLicense    = dcterms("license")
	DcTermsType       = dcterms("type")
	GbifEventType     = gbif("eventType")
)

var knownTerms = []Term{
	DwcOccurrenceID, DwcCatalogNumber, DwcCollectionCode, DwcInstitutionCode,
	DwcRecordNumber, DwcBasisOfRecord, DwcSex, DwcLifeStage,
	DwcEstablishmentMeans, DwcDegreeOfEstablishment, DwcPathway,
	DwcIndividualCount, DwcRecordedBy, DwcTypeStatus, DwcAssociatedMedia,
	DwcEventID, DwcParentEventID, DwcEventDate, DwcYear, DwcMonth, DwcDay,
	DwcStartDayOfYear, DwcEndDayOfYear, DwcSamplingProtocol,
	DwcSampleSizeValue, DwcSampleSizeUnit, DwcContinent, DwcCountry,
	DwcCountryCode, DwcStateProvince, DwcLocality, DwcDecimalLatitude,
	DwcDecimalLongitude, DwcMinimumElevation, DwcScientificName,
	DwcTaxonRank, DwcKingdom, DwcPhylum, DwcClass, DwcOrder, DwcFamily,
	DwcGenus, DwcSpecificEpithet, DwcDatasetID, DwcDatasetName,
	DcTermsReferences, DcTermsLicense, DcTermsType, GbifEventType,
}

// bySimpleName is populated once in init and only read afterwards.
var bySimpleName = make(map[string]Term, len(knownTerms))

func init() {
	for _, t := range knownTerms {
		key := strings.ToLower(t.Name)
		if _, exists := bySimpleName[key]; !exists {
			bySimpleName[key] = t
		}
	}
}

// TermFromString parses a term from a qualified name
// ("http://rs.tdwg.org/dwc/terms/country"), a prefixed name ("dwc:country")
// or a simple name ("country"). Simple names are matched case-insensitively
// against the known terms. Anything else becomes an unknown term named by the
// trimmed input.
func TermFromString(s string) Term {
	s = strings.TrimSpace(s)
	for _, ns := range []Namespace{DwcNamespace, DcTermsNamespace, DcNamespace, GbifNamespace} {
		if strings.HasPrefix(s, string(ns)) {
			return Term{Namespace: ns, Name: strings.TrimPrefix(s, string(ns))}
		}
	}
	if i := strings.Index(s, ":"); i > 0 {
		if ns, ok := prefixes[strings.ToLower(s[:i])]; ok {
			return Term{Namespace: ns, Name: s[i+1:]}
		}
	}
	if t, ok := bySimpleName[strings.ToLower(s)]; ok {
		return t
	}
	return Term{Name: s}
}
