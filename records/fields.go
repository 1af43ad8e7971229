package records

import (
	"github.com/biocache/opdk"
)

// Kind is the output type of a record field.
type Kind int

// Field kinds.
const (
	String Kind = iota
	Int
	Long
	Double
	Bool
	Strings
	Concept
	MediaList
)

// Field maps one output field of a record to its value. Fields are listed
// explicitly per aspect so that writers never need reflection.
type Field struct {
	Name string
	Kind Kind
	// Required fields always have a value. Others may be null.
	Required bool
	// Value returns the Go value of the field (string, int32, int64,
	// float64, bool, []string, *opdk.VocabularyConcept or []MediaItem)
	// and whether it is set.
	Value func(Record) (interface{}, bool)
}

func stringOf[R Record](get func(R) string) func(Record) (interface{}, bool) {
	return func(r Record) (interface{}, bool) {
		v := get(r.(R))
		return v, v != ""
	}
}

func int32Of[R Record](get func(R) *int32) func(Record) (interface{}, bool) {
	return func(r Record) (interface{}, bool) {
		v := get(r.(R))
		if v == nil {
			return nil, false
		}
		return *v, true
	}
}

func int64Of[R Record](get func(R) int64) func(Record) (interface{}, bool) {
	return func(r Record) (interface{}, bool) {
		return get(r.(R)), true
	}
}

func float64Of[R Record](get func(R) *float64) func(Record) (interface{}, bool) {
	return func(r Record) (interface{}, bool) {
		v := get(r.(R))
		if v == nil {
			return nil, false
		}
		return *v, true
	}
}

func boolOf[R Record](get func(R) bool) func(Record) (interface{}, bool) {
	return func(r Record) (interface{}, bool) {
		return get(r.(R)), true
	}
}

func stringsOf[R Record](get func(R) []string) func(Record) (interface{}, bool) {
	return func(r Record) (interface{}, bool) {
		v := get(r.(R))
		return v, len(v) > 0
	}
}

func conceptOf[R Record](get func(R) *opdk.VocabularyConcept) func(Record) (interface{}, bool) {
	return func(r Record) (interface{}, bool) {
		v := get(r.(R))
		return v, v != nil
	}
}

func idField() Field {
	return Field{Name: "id", Kind: String, Required: true, Value: func(r Record) (interface{}, bool) {
		return r.RecordID(), true
	}}
}

func createdField[R Record](get func(R) int64) Field {
	return Field{Name: "created", Kind: Long, Required: true, Value: int64Of(get)}
}

var fieldTables = map[Aspect][]Field{
	Basic: {
		idField(),
		createdField(func(r *BasicRecord) int64 { return r.Created }),
		{Name: "basisOfRecord", Kind: String, Value: stringOf(func(r *BasicRecord) string { return r.BasisOfRecord })},
		{Name: "sex", Kind: String, Value: stringOf(func(r *BasicRecord) string { return r.Sex })},
		{Name: "lifeStage", Kind: Concept, Value: conceptOf(func(r *BasicRecord) *opdk.VocabularyConcept { return r.LifeStage })},
		{Name: "establishmentMeans", Kind: Concept, Value: conceptOf(func(r *BasicRecord) *opdk.VocabularyConcept { return r.EstablishmentMeans })},
		{Name: "degreeOfEstablishment", Kind: Concept, Value: conceptOf(func(r *BasicRecord) *opdk.VocabularyConcept { return r.DegreeOfEstablishment })},
		{Name: "pathway", Kind: Concept, Value: conceptOf(func(r *BasicRecord) *opdk.VocabularyConcept { return r.Pathway })},
		{Name: "individualCount", Kind: Int, Value: int32Of(func(r *BasicRecord) *int32 { return r.IndividualCount })},
		{Name: "recordedBy", Kind: Strings, Value: stringsOf(func(r *BasicRecord) []string { return r.RecordedBy })},
		{Name: "typeStatus", Kind: Strings, Value: stringsOf(func(r *BasicRecord) []string { return r.TypeStatus })},
	},
	Location: {
		idField(),
		createdField(func(r *LocationRecord) int64 { return r.Created }),
		{Name: "continent", Kind: String, Value: stringOf(func(r *LocationRecord) string { return r.Continent })},
		{Name: "country", Kind: String, Value: stringOf(func(r *LocationRecord) string { return r.Country })},
		{Name: "countryCode", Kind: String, Value: stringOf(func(r *LocationRecord) string { return r.CountryCode })},
		{Name: "stateProvince", Kind: String, Value: stringOf(func(r *LocationRecord) string { return r.StateProvince })},
		{Name: "locality", Kind: String, Value: stringOf(func(r *LocationRecord) string { return r.Locality })},
		{Name: "decimalLatitude", Kind: Double, Value: float64Of(func(r *LocationRecord) *float64 { return r.DecimalLatitude })},
		{Name: "decimalLongitude", Kind: Double, Value: float64Of(func(r *LocationRecord) *float64 { return r.DecimalLongitude })},
		{Name: "hasCoordinate", Kind: Bool, Required: true, Value: boolOf(func(r *LocationRecord) bool { return r.HasCoordinate })},
		{Name: "geohash", Kind: String, Value: stringOf(func(r *LocationRecord) string { return r.Geohash })},
		{Name: "elevation", Kind: Double, Value: float64Of(func(r *LocationRecord) *float64 { return r.Elevation })},
	},
	Temporal: {
		idField(),
		createdField(func(r *TemporalRecord) int64 { return r.Created }),
		{Name: "eventDate", Kind: String, Value: stringOf(func(r *TemporalRecord) string { return r.EventDate })},
		{Name: "year", Kind: Int, Value: int32Of(func(r *TemporalRecord) *int32 { return r.Year })},
		{Name: "month", Kind: Int, Value: int32Of(func(r *TemporalRecord) *int32 { return r.Month })},
		{Name: "day", Kind: Int, Value: int32Of(func(r *TemporalRecord) *int32 { return r.Day })},
		{Name: "startDayOfYear", Kind: Int, Value: int32Of(func(r *TemporalRecord) *int32 { return r.StartDayOfYear })},
		{Name: "endDayOfYear", Kind: Int, Value: int32Of(func(r *TemporalRecord) *int32 { return r.EndDayOfYear })},
	},
	Taxon: {
		idField(),
		createdField(func(r *TaxonRecord) int64 { return r.Created }),
		{Name: "scientificName", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.ScientificName })},
		{Name: "taxonRank", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.TaxonRank })},
		{Name: "kingdom", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.Kingdom })},
		{Name: "phylum", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.Phylum })},
		{Name: "class", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.Class })},
		{Name: "order", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.Order })},
		{Name: "family", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.Family })},
		{Name: "genus", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.Genus })},
		{Name: "specificEpithet", Kind: String, Value: stringOf(func(r *TaxonRecord) string { return r.SpecificEpithet })},
	},
	Event: {
		idField(),
		createdField(func(r *EventCoreRecord) int64 { return r.Created }),
		{Name: "eventType", Kind: Concept, Value: conceptOf(func(r *EventCoreRecord) *opdk.VocabularyConcept { return r.EventType })},
		{Name: "parentEventID", Kind: String, Value: stringOf(func(r *EventCoreRecord) string { return r.ParentEventID })},
		{Name: "references", Kind: String, Value: stringOf(func(r *EventCoreRecord) string { return r.References })},
		{Name: "sampleSizeUnit", Kind: String, Value: stringOf(func(r *EventCoreRecord) string { return r.SampleSizeUnit })},
		{Name: "sampleSizeValue", Kind: Double, Value: float64Of(func(r *EventCoreRecord) *float64 { return r.SampleSizeValue })},
		{Name: "license", Kind: String, Value: stringOf(func(r *EventCoreRecord) string { return r.License })},
		{Name: "datasetID", Kind: Strings, Value: stringsOf(func(r *EventCoreRecord) []string { return r.DatasetID })},
		{Name: "datasetName", Kind: Strings, Value: stringsOf(func(r *EventCoreRecord) []string { return r.DatasetName })},
		{Name: "samplingProtocol", Kind: Strings, Value: stringsOf(func(r *EventCoreRecord) []string { return r.SamplingProtocol })},
	},
	Metadata: {
		idField(),
		createdField(func(r *MetadataRecord) int64 { return r.Created }),
		{Name: "datasetKey", Kind: String, Required: true, Value: func(r Record) (interface{}, bool) {
			return r.(*MetadataRecord).DatasetKey, true
		}},
		{Name: "datasetTitle", Kind: String, Value: stringOf(func(r *MetadataRecord) string { return r.DatasetTitle })},
		{Name: "license", Kind: String, Value: stringOf(func(r *MetadataRecord) string { return r.License })},
		{Name: "publisher", Kind: String, Value: stringOf(func(r *MetadataRecord) string { return r.Publisher })},
	},
	Multimedia: {
		idField(),
		createdField(func(r *MultimediaRecord) int64 { return r.Created }),
		{Name: "multimediaItems", Kind: MediaList, Required: true, Value: func(r Record) (interface{}, bool) {
			return r.(*MultimediaRecord).Items, true
		}},
	},
	Identifier: {
		idField(),
		createdField(func(r *IdentifierRecord) int64 { return r.Created }),
		{Name: "uuid", Kind: String, Required: true, Value: func(r Record) (interface{}, bool) {
			return r.(*IdentifierRecord).UUID, true
		}},
		{Name: "uniqueKey", Kind: String, Value: stringOf(func(r *IdentifierRecord) string { return r.UniqueKey })},
		createdFieldNamed("firstLoaded", func(r *IdentifierRecord) int64 { return r.FirstLoaded }),
	},
}

func createdFieldNamed[R Record](name string, get func(R) int64) Field {
	f := createdField(get)
	f.Name = name
	return f
}

// Fields returns the output fields of the aspect, in output order. The issue
// list is not a field; writers add it themselves.
func Fields(a Aspect) []Field {
	return append([]Field(nil), fieldTables[a]...)
}

// SchemaName returns the record name used for the aspect in output schemas,
// e.g. "BasicRecord".
func SchemaName(a Aspect) string {
	switch a {
	case Event:
		return "EventCoreRecord"
	default:
		s := a.String()
		if s == "" {
			return "Record"
		}
		return string(s[0]-'a'+'A') + s[1:] + "Record"
	}
}
