// Package records defines the interpreted record produced for each aspect
// of an occurrence (basic, location, temporal, taxon, event, metadata,
// multimedia, identifier). Each record is created holding only its
// identifier, filled in by the interpreters of its aspect, and carries the
// IssueList explaining every field that could not be set.
package records

import (
	"strings"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
)

// Aspect tags the kind of an interpreted record.
type Aspect int

// Aspects, in the order they are usually run.
const (
	Basic Aspect = iota
	Location
	Temporal
	Taxon
	Event
	Metadata
	Multimedia
	Identifier
)

var aspectNames = [...]string{
	Basic:      "basic",
	Location:   "location",
	Temporal:   "temporal",
	Taxon:      "taxon",
	Event:      "event",
	Metadata:   "metadata",
	Multimedia: "multimedia",
	Identifier: "identifier",
}

func (a Aspect) String() string {
	if a < 0 || int(a) >= len(aspectNames) {
		return "unknown"
	}
	return aspectNames[a]
}

// Aspects returns every aspect.
func Aspects() []Aspect {
	return []Aspect{Basic, Location, Temporal, Taxon, Event, Metadata, Multimedia, Identifier}
}

// ParseAspect returns the aspect with the given (case-insensitive) name.
func ParseAspect(s string) (Aspect, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range aspectNames {
		if name == s {
			return Aspect(i), nil
		}
	}
	return 0, errors.Errorf("unknown record aspect '%s'", s)
}

// Record is implemented by every interpreted record.
type Record interface {
	RecordID() string
	Aspect() Aspect
	IssueList() *opdk.IssueList
}

// BasicRecord holds the interpreted basic occurrence fields.
type BasicRecord struct {
	ID                    string                  `json:"id"`
	Created               int64                   `json:"created"`
	BasisOfRecord         string                  `json:"basisOfRecord,omitempty"`
	Sex                   string                  `json:"sex,omitempty"`
	LifeStage             *opdk.VocabularyConcept `json:"lifeStage,omitempty"`
	EstablishmentMeans    *opdk.VocabularyConcept `json:"establishmentMeans,omitempty"`
	DegreeOfEstablishment *opdk.VocabularyConcept `json:"degreeOfEstablishment,omitempty"`
	Pathway               *opdk.VocabularyConcept `json:"pathway,omitempty"`
	IndividualCount       *int32                  `json:"individualCount,omitempty"`
	RecordedBy            []string                `json:"recordedBy,omitempty"`
	TypeStatus            []string                `json:"typeStatus,omitempty"`
	Issues                opdk.IssueList          `json:"issues"`
}

// LocationRecord holds the interpreted location fields.
type LocationRecord struct {
	ID               string         `json:"id"`
	Created          int64          `json:"created"`
	Continent        string         `json:"continent,omitempty"`
	Country          string         `json:"country,omitempty"`
	CountryCode      string         `json:"countryCode,omitempty"`
	StateProvince    string         `json:"stateProvince,omitempty"`
	Locality         string         `json:"locality,omitempty"`
	DecimalLatitude  *float64       `json:"decimalLatitude,omitempty"`
	DecimalLongitude *float64       `json:"decimalLongitude,omitempty"`
	HasCoordinate    bool           `json:"hasCoordinate"`
	Geohash          string         `json:"geohash,omitempty"`
	Elevation        *float64       `json:"elevation,omitempty"`
	Issues           opdk.IssueList `json:"issues"`
}

// TemporalRecord holds the interpreted event date.
type TemporalRecord struct {
	ID             string         `json:"id"`
	Created        int64          `json:"created"`
	EventDate      string         `json:"eventDate,omitempty"`
	Year           *int32         `json:"year,omitempty"`
	Month          *int32         `json:"month,omitempty"`
	Day            *int32         `json:"day,omitempty"`
	StartDayOfYear *int32         `json:"startDayOfYear,omitempty"`
	EndDayOfYear   *int32         `json:"endDayOfYear,omitempty"`
	Issues         opdk.IssueList `json:"issues"`
}

// TaxonRecord holds the verbatim classification, checked where a closed
// vocabulary exists. Name matching against a backbone is done elsewhere.
type TaxonRecord struct {
	ID              string         `json:"id"`
	Created         int64          `json:"created"`
	ScientificName  string         `json:"scientificName,omitempty"`
	TaxonRank       string         `json:"taxonRank,omitempty"`
	Kingdom         string         `json:"kingdom,omitempty"`
	Phylum          string         `json:"phylum,omitempty"`
	Class           string         `json:"class,omitempty"`
	Order           string         `json:"order,omitempty"`
	Family          string         `json:"family,omitempty"`
	Genus           string         `json:"genus,omitempty"`
	SpecificEpithet string         `json:"specificEpithet,omitempty"`
	Issues          opdk.IssueList `json:"issues"`
}

// EventCoreRecord holds the interpreted sampling event fields.
type EventCoreRecord struct {
	ID               string                  `json:"id"`
	Created          int64                   `json:"created"`
	EventType        *opdk.VocabularyConcept `json:"eventType,omitempty"`
	ParentEventID    string                  `json:"parentEventID,omitempty"`
	References       string                  `json:"references,omitempty"`
	SampleSizeUnit   string                  `json:"sampleSizeUnit,omitempty"`
	SampleSizeValue  *float64                `json:"sampleSizeValue,omitempty"`
	License          string                  `json:"license,omitempty"`
	DatasetID        []string                `json:"datasetID,omitempty"`
	DatasetName      []string                `json:"datasetName,omitempty"`
	SamplingProtocol []string                `json:"samplingProtocol,omitempty"`
	Issues           opdk.IssueList          `json:"issues"`
}

// MetadataRecord holds the dataset attribution resolved for a record.
type MetadataRecord struct {
	ID           string         `json:"id"`
	Created      int64          `json:"created"`
	DatasetKey   string         `json:"datasetKey"`
	DatasetTitle string         `json:"datasetTitle,omitempty"`
	License      string         `json:"license,omitempty"`
	Publisher    string         `json:"publisher,omitempty"`
	Issues       opdk.IssueList `json:"issues"`
}

// MediaItem is one media item linked from a record.
type MediaItem struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type,omitempty"`
	Format     string `json:"format,omitempty"`
}

// MultimediaRecord holds the media items linked from a record.
type MultimediaRecord struct {
	ID      string         `json:"id"`
	Created int64          `json:"created"`
	Items   []MediaItem    `json:"multimediaItems,omitempty"`
	Issues  opdk.IssueList `json:"issues"`
}

// IdentifierRecord holds the stable identity minted for a record.
type IdentifierRecord struct {
	ID          string         `json:"id"`
	Created     int64          `json:"created"`
	UUID        string         `json:"uuid"`
	UniqueKey   string         `json:"uniqueKey,omitempty"`
	FirstLoaded int64          `json:"firstLoaded"`
	Issues      opdk.IssueList `json:"issues"`
}

func (r *BasicRecord) RecordID() string      { return r.ID }
func (r *LocationRecord) RecordID() string   { return r.ID }
func (r *TemporalRecord) RecordID() string   { return r.ID }
func (r *TaxonRecord) RecordID() string      { return r.ID }
func (r *EventCoreRecord) RecordID() string  { return r.ID }
func (r *MetadataRecord) RecordID() string   { return r.ID }
func (r *MultimediaRecord) RecordID() string { return r.ID }
func (r *IdentifierRecord) RecordID() string { return r.ID }

func (r *BasicRecord) Aspect() Aspect      { return Basic }
func (r *LocationRecord) Aspect() Aspect   { return Location }
func (r *TemporalRecord) Aspect() Aspect   { return Temporal }
func (r *TaxonRecord) Aspect() Aspect      { return Taxon }
func (r *EventCoreRecord) Aspect() Aspect  { return Event }
func (r *MetadataRecord) Aspect() Aspect   { return Metadata }
func (r *MultimediaRecord) Aspect() Aspect { return Multimedia }
func (r *IdentifierRecord) Aspect() Aspect { return Identifier }

func (r *BasicRecord) IssueList() *opdk.IssueList      { return &r.Issues }
func (r *LocationRecord) IssueList() *opdk.IssueList   { return &r.Issues }
func (r *TemporalRecord) IssueList() *opdk.IssueList   { return &r.Issues }
func (r *TaxonRecord) IssueList() *opdk.IssueList      { return &r.Issues }
func (r *EventCoreRecord) IssueList() *opdk.IssueList  { return &r.Issues }
func (r *MetadataRecord) IssueList() *opdk.IssueList   { return &r.Issues }
func (r *MultimediaRecord) IssueList() *opdk.IssueList { return &r.Issues }
func (r *IdentifierRecord) IssueList() *opdk.IssueList { return &r.Issues }

// New returns an empty record of the given aspect holding only id and the
// creation time.
func New(a Aspect, id string, created int64) (Record, error) {
	switch a {
	case Basic:
		return &BasicRecord{ID: id, Created: created}, nil
	case Location:
		return &LocationRecord{ID: id, Created: created}, nil
	case Temporal:
		return &TemporalRecord{ID: id, Created: created}, nil
	case Taxon:
		return &TaxonRecord{ID: id, Created: created}, nil
	case Event:
		return &EventCoreRecord{ID: id, Created: created}, nil
	case Metadata:
		return &MetadataRecord{ID: id, Created: created}, nil
	case Multimedia:
		return &MultimediaRecord{ID: id, Created: created}, nil
	case Identifier:
		return &IdentifierRecord{ID: id, Created: created}, nil
	default:
		return nil, errors.Errorf("no record type for aspect %d", a)
	}
}
