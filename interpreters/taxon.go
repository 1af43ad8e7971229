package interpreters

import (
	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
)

var ranks = map[string]string{
	"kingdom":    "KINGDOM",
	"phylum":     "PHYLUM",
	"division":   "PHYLUM",
	"class":      "CLASS",
	"order":      "ORDER",
	"family":     "FAMILY",
	"fam":        "FAMILY",
	"genus":      "GENUS",
	"gen":        "GENUS",
	"species":    "SPECIES",
	"sp":         "SPECIES",
	"subspecies": "SUBSPECIES",
	"subsp":      "SUBSPECIES",
	"ssp":        "SUBSPECIES",
	"variety":    "VARIETY",
	"var":        "VARIETY",
	"form":       "FORM",
	"f":          "FORM",
}

// InterpretTaxonRank recognises the main Linnean ranks and their usual
// abbreviations.
var InterpretTaxonRank = closed(ranks, opdk.TaxonRankInvalid, "taxonRank")

// TaxonRank sets the rank of a taxon record.
func TaxonRank(er *opdk.VerbatimRecord, tr *records.TaxonRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcTaxonRank, InterpretTaxonRank, func(s string) { tr.TaxonRank = s })
}

// Classification copies the verbatim name and classification of a taxon
// record. Matching them against a taxonomic backbone is not done here.
func Classification(er *opdk.VerbatimRecord, tr *records.TaxonRecord) {
	for _, f := range []struct {
		term opdk.Term
		dst  *string
	}{
		{opdk.DwcScientificName, &tr.ScientificName},
		{opdk.DwcKingdom, &tr.Kingdom},
		{opdk.DwcPhylum, &tr.Phylum},
		{opdk.DwcClass, &tr.Class},
		{opdk.DwcOrder, &tr.Order},
		{opdk.DwcFamily, &tr.Family},
		{opdk.DwcGenus, &tr.Genus},
		{opdk.DwcSpecificEpithet, &tr.SpecificEpithet},
	} {
		if v, ok := er.NullAwareValue(f.term); ok {
			*f.dst, _ = Trimmed(v).Get()
		}
	}
}
