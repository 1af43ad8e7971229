package transforms_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/interpreters"
	"github.com/biocache/opdk/kvs"
	"github.com/biocache/opdk/mock"
	"github.com/biocache/opdk/records"
	"github.com/biocache/opdk/test"
	"github.com/biocache/opdk/transforms"
	"github.com/biocache/opdk/uniquekey"
	"github.com/biocache/opdk/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = func() time.Time { return time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC) }

func convert(t *testing.T, a records.Aspect, cfg transforms.Config, er *opdk.VerbatimRecord) (records.Record, bool) {
	t.Helper()
	c, err := transforms.New(a, cfg)
	require.NoError(t, err)
	require.Equal(t, a, c.Aspect())
	require.NoError(t, c.Setup())
	r, ok, err := c.Convert(er)
	require.NoError(t, err)
	require.NoError(t, c.Teardown())
	return r, ok
}

func TestBasic(t *testing.T) {
	stats := &mock.RecordingStatter{}
	svc := vocabulary.NewSnapshot(vocabulary.Vocabulary{
		Term:     "lifeStage",
		Concepts: []vocabulary.Concept{{Name: "Adult"}},
	})
	cfg := transforms.Config{Vocabulary: vocabulary.Enabled(svc, vocabulary.RecordIssue), Now: now, Stats: stats}
	er := test.Record("occ1", "basisOfRecord", "HumanObservation", "lifeStage", "ghost", "individualCount", "x")

	r, ok := convert(t, records.Basic, cfg, er)
	require.True(t, ok)
	br := r.(*records.BasicRecord)
	assert.Equal(t, "occ1", br.ID)
	assert.Equal(t, now().UnixNano()/int64(time.Millisecond), br.Created)
	assert.Equal(t, "HUMAN_OBSERVATION", br.BasisOfRecord)
	assert.Nil(t, br.LifeStage)
	assert.Equal(t, []opdk.IssueType{opdk.VocabularyMatchNone, opdk.IndividualCountInvalid}, test.IssueTypes(&br.Issues))
	assert.Len(t, br.Issues.Lineages(), 2)

	assert.Equal(t, int64(1), stats.Get("basic.records"))
	assert.Equal(t, int64(1), stats.Get("basic.issue.VOCABULARY_MATCH_NONE"))
	assert.Equal(t, int64(1), stats.Get("basic.issue.INDIVIDUAL_COUNT_INVALID"))
}

func TestLocation(t *testing.T) {
	cfg := transforms.Config{Now: now, GeohashPrecision: 5}
	er := test.Record("occ2", "continent", "Atlantis", "country", "Peru", "decimalLatitude", "-12.1", "decimalLongitude", "-77.0")
	r, ok := convert(t, records.Location, cfg, er)
	require.True(t, ok)
	lr := r.(*records.LocationRecord)
	assert.Equal(t, "PE", lr.CountryCode)
	assert.Equal(t, "", lr.Continent)
	assert.Len(t, lr.Geohash, 5)
	assert.Equal(t, []opdk.IssueType{opdk.ParseError}, test.IssueTypes(&lr.Issues))
	assert.Equal(t, []opdk.Lineage{{Type: opdk.SetToNull, Remark: "Could not parse the continent or invalid value setting it to null"}}, lr.Issues.Lineages())
}

func TestNonFiniteValuesAreIssues(t *testing.T) {
	er := test.Record("occ7", "decimalLatitude", "NaN", "decimalLongitude", "10", "minimumElevationInMeters", "Inf")
	r, ok := convert(t, records.Location, transforms.Config{Now: now}, er)
	require.True(t, ok)
	lr := r.(*records.LocationRecord)
	assert.False(t, lr.HasCoordinate)
	assert.Nil(t, lr.DecimalLatitude)
	assert.Nil(t, lr.Elevation)
	assert.Equal(t, "", lr.Geohash)
	assert.Equal(t, []opdk.IssueType{opdk.CoordinateInvalid, opdk.ElevationNonNumeric}, test.IssueTypes(&lr.Issues))
	_, err := json.Marshal(lr)
	assert.NoError(t, err)

	r, ok = convert(t, records.Event, transforms.Config{Now: now}, test.Record("ev2", "sampleSizeValue", "NaN"))
	require.True(t, ok)
	ec := r.(*records.EventCoreRecord)
	assert.Nil(t, ec.SampleSizeValue)
	assert.True(t, ec.Issues.Has(opdk.SampleSizeInvalid))
	_, err = json.Marshal(ec)
	assert.NoError(t, err)
}

func TestLocationBadPrecision(t *testing.T) {
	c, err := transforms.New(records.Location, transforms.Config{GeohashPrecision: 40})
	require.NoError(t, err)
	assert.Error(t, c.Setup())
}

func TestTemporalAndTaxon(t *testing.T) {
	er := test.Record("occ3", "eventDate", "2030-01-01", "taxonRank", "species", "scientificName", "Puma concolor")
	r, ok := convert(t, records.Temporal, transforms.Config{Now: now}, er)
	require.True(t, ok)
	tr := r.(*records.TemporalRecord)
	assert.Nil(t, tr.Year)
	assert.True(t, tr.Issues.Has(opdk.RecordedDateUnlikely))

	r, ok = convert(t, records.Taxon, transforms.Config{Now: now}, er)
	require.True(t, ok)
	assert.Equal(t, "SPECIES", r.(*records.TaxonRecord).TaxonRank)
	assert.Equal(t, "Puma concolor", r.(*records.TaxonRecord).ScientificName)
}

func TestEventCoreGate(t *testing.T) {
	stats := &mock.RecordingStatter{}
	r, ok := convert(t, records.Event, transforms.Config{Now: now, Stats: stats}, test.Record("empty"))
	assert.False(t, ok)
	assert.Nil(t, r)
	assert.Equal(t, int64(0), stats.Get("event.records"))

	r, ok = convert(t, records.Event, transforms.Config{Now: now, Stats: stats}, test.Record("ev1", "samplingProtocol", "net|trap", "license", "CC0"))
	require.True(t, ok)
	ec := r.(*records.EventCoreRecord)
	assert.Equal(t, []string{"net", "trap"}, ec.SamplingProtocol)
	assert.Equal(t, interpreters.LicenseCC0, ec.License)
	assert.Equal(t, 0, ec.Issues.Len())
	assert.Equal(t, int64(1), stats.Get("event.records"))
}

func TestMetadata(t *testing.T) {
	store := kvs.NewMemory(kvs.Metadata{DatasetID: "dr1", Name: "Birds", License: "CC-BY", Publisher: "Museum"})
	r, ok := convert(t, records.Metadata, transforms.Config{DatasetID: "dr1", Attribution: store, Now: now}, test.Record("occ4"))
	require.True(t, ok)
	assert.Equal(t, &records.MetadataRecord{
		ID:           "occ4",
		Created:      now().UnixNano() / int64(time.Millisecond),
		DatasetKey:   "dr1",
		DatasetTitle: "Birds",
		License:      interpreters.LicenseCCBy,
		Publisher:    "Museum",
	}, r)

	// an unknown dataset is logged, not fatal
	log := &mock.RecordingLogger{}
	r, ok = convert(t, records.Metadata, transforms.Config{DatasetID: "dr9", Attribution: store, Log: log}, test.Record("occ5"))
	require.True(t, ok)
	assert.Equal(t, "dr9", r.(*records.MetadataRecord).DatasetKey)
	assert.NotEmpty(t, log.Lines())

	c, err := transforms.New(records.Metadata, transforms.Config{DatasetID: "dr1"})
	require.NoError(t, err)
	assert.Error(t, c.Setup(), "no attribution store")
}

func TestMultimedia(t *testing.T) {
	r, ok := convert(t, records.Multimedia, transforms.Config{}, test.Record("occ6", "associatedMedia", "http://example.org/x.mp3"))
	require.True(t, ok)
	assert.Equal(t, []records.MediaItem{{Identifier: "http://example.org/x.mp3", Type: "Sound", Format: "audio/mpeg"}}, r.(*records.MultimediaRecord).Items)
}

func TestIdentifier(t *testing.T) {
	store := kvs.NewMemory(kvs.Metadata{DatasetID: "DS1", TermsForUniqueKey: []string{"country", "locality"}})
	ids := uniquekey.NewMemoryStore()
	cfg := transforms.Config{DatasetID: "DS1", Attribution: store, Identifiers: ids, Now: now}

	c, err := transforms.New(records.Identifier, cfg)
	require.NoError(t, err)
	require.NoError(t, c.Setup())
	r1, _, err := c.Convert(test.Record("a", "country", "Peru ", "locality", "  La Paz"))
	require.NoError(t, err)
	r2, _, err := c.Convert(test.Record("b", "country", "Peru", "locality", "La Paz"))
	require.NoError(t, err)
	ir1, ir2 := r1.(*records.IdentifierRecord), r2.(*records.IdentifierRecord)
	assert.Equal(t, "DS1|Peru|La Paz", ir1.UniqueKey)
	assert.NotEmpty(t, ir1.UUID)
	assert.Equal(t, ir1.UUID, ir2.UUID)

	r3, _, err := c.Convert(test.Record("c"))
	require.NoError(t, err)
	assert.True(t, r3.IssueList().Has(opdk.UniqueKeyEmpty))
	assert.NotEqual(t, ir1.UUID, r3.(*records.IdentifierRecord).UUID)

	// strict mode makes blank keys fatal
	cfg.StrictKeys = true
	c, err = transforms.New(records.Identifier, cfg)
	require.NoError(t, err)
	require.NoError(t, c.Setup())
	_, _, err = c.Convert(test.Record("d"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DS1")
}

func TestIdentifierNeedsKeyTerms(t *testing.T) {
	store := kvs.NewMemory(kvs.Metadata{DatasetID: "DS2"})
	c, err := transforms.New(records.Identifier, transforms.Config{DatasetID: "DS2", Attribution: store, Identifiers: uniquekey.NewMemoryStore()})
	require.NoError(t, err)
	err = c.Setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no unique terms")
}

func TestNewUnknownAspect(t *testing.T) {
	_, err := transforms.New(records.Aspect(99), transforms.Config{})
	assert.Error(t, err)
}
