// Package fake generates plausible, deliberately messy verbatim occurrence
// records for demos and load tests.
package fake

import (
	"fmt"
	"strconv"
	"time"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/fake/gen"
)

// DefaultNoise is the probability that a generated term holds a value the
// interpreters will reject.
const DefaultNoise = 0.1

// term is a generated term: the usual values and the messy ones.
type term struct {
	name  string
	good  []string
	bad   []string
	omit  float64
	build func(g *OccurrenceGenerator) string
}

var terms = []term{
	{name: "basisOfRecord", good: []string{"HumanObservation", "PreservedSpecimen", "MachineObservation", "Occurrence", "FossilSpecimen"}, bad: []string{"specimen?", "photo"}},
	{name: "sex", good: []string{"female", "male", "F", "M", "hermaphrodite"}, bad: []string{"?", "both"}, omit: 0.4},
	{name: "lifeStage", good: []string{"adult", "juvenile", "larva", "egg", "imago"}, bad: []string{"old", "big"}, omit: 0.4},
	{name: "establishmentMeans", good: []string{"native", "introduced", "naturalised"}, omit: 0.6},
	{name: "individualCount", good: []string{"1", "2", "3", "5", "12"}, bad: []string{"x", "-2", "many"}, omit: 0.3},
	{name: "recordedBy", good: []string{"Smith, J.", "A. Jones | B. Lee", "Museum staff"}, omit: 0.3},
	{name: "continent", good: []string{"South America", "Europe", "Oceania", "africa", "Asia"}, bad: []string{"Atlantis", "Mu"}, omit: 0.3},
	{name: "country", good: []string{"Peru", "Australia", "Spain", "Kenya", "Chile", "Brazil"}, bad: []string{"Narnia", "Republic of X"}},
	{name: "stateProvince", good: []string{"Lima", "Queensland", "Andalucía", "Nairobi"}, omit: 0.3},
	{name: "locality", good: []string{"Lima", "Brisbane", "Sevilla", "Arica", "Mombasa", "Manaus"}, omit: 0.1},
	{name: "decimalLatitude", bad: []string{"95.2", "north"}, build: func(g *OccurrenceGenerator) string {
		return strconv.FormatFloat(g.g.Float(-60, 70), 'f', 5, 64)
	}},
	{name: "decimalLongitude", bad: []string{"200", "east"}, build: func(g *OccurrenceGenerator) string {
		return strconv.FormatFloat(g.g.Float(-180, 180), 'f', 5, 64)
	}},
	{name: "minimumElevationInMeters", good: []string{"0", "120", "1500", "3400"}, bad: []string{"high"}, omit: 0.5},
	{name: "eventDate", bad: []string{"2090-01-01", "yesterday", "31/31/2020"}, build: func(g *OccurrenceGenerator) string {
		d := g.epoch.AddDate(0, 0, -g.g.Intn(365*30))
		return d.Format("2006-01-02")
	}},
	{name: "samplingProtocol", good: []string{"visual survey", "net|trap", "camera trap", "pitfall"}, omit: 0.5},
	{name: "scientificName", good: []string{"Puma concolor", "Passer domesticus", "Eucalyptus globulus", "Apis mellifera", "Homo sapiens"}},
	{name: "taxonRank", good: []string{"species", "genus", "subspecies", "family"}, bad: []string{"sp.", "thing"}, omit: 0.2},
	{name: "license", good: []string{"CC0", "CC-BY", "CC-BY-NC", "http://creativecommons.org/licenses/by/4.0/"}, bad: []string{"all rights reserved"}, omit: 0.2},
	{name: "references", good: []string{"https://example.org/occurrence/1"}, bad: []string{"not a uri ::"}, omit: 0.7},
	{name: "associatedMedia", bad: []string{"::nope"}, omit: 0.6, build: func(g *OccurrenceGenerator) string {
		return fmt.Sprintf("https://example.org/media/%s.jpg", g.g.String(10, 100000))
	}},
}

// OccurrenceGenerator generates verbatim occurrence records. It is not safe
// for concurrent use.
type OccurrenceGenerator struct {
	g     *gen.Generator
	noise float64
	epoch time.Time
	n     int
}

// NewOccurrenceGenerator returns a generator which replaces each value with
// a messy one with probability noise.
func NewOccurrenceGenerator(seed int64, noise float64) *OccurrenceGenerator {
	return &OccurrenceGenerator{
		g:     gen.NewGenerator(seed),
		noise: noise,
		epoch: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Occurrence generates the next record. Identifiers are occ-0, occ-1 and so
// on.
func (o *OccurrenceGenerator) Occurrence() *opdk.VerbatimRecord {
	id := fmt.Sprintf("occ-%d", o.n)
	o.n++
	m := map[string]string{
		"occurrenceID":  id,
		"catalogNumber": o.g.String(8, 1000000),
	}
	for _, t := range terms {
		if t.omit > 0 && o.g.Chance(t.omit) {
			continue
		}
		if len(t.bad) > 0 && o.g.Chance(o.noise) {
			m[t.name] = o.g.Pick(t.bad)
			continue
		}
		if t.build != nil {
			m[t.name] = t.build(o)
		} else {
			m[t.name] = o.g.Pick(t.good)
		}
	}
	return opdk.NewVerbatimRecord(id, m)
}
