package vocabulary_test

import (
	"strings"
	"testing"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/test"
	"github.com/biocache/opdk/vocabulary"
	"github.com/stretchr/testify/require"
)

var lifeStages = vocabulary.Vocabulary{
	Term: "lifeStage",
	Concepts: []vocabulary.Concept{
		{Name: "Leaf", Labels: []string{"leafy", "the leaf"}, Parents: []string{"Mid", "Root"}},
		{Name: "Adult", Labels: []string{"ad."}},
	},
}

func TestConceptOfReversesParents(t *testing.T) {
	c := vocabulary.ConceptOf(vocabulary.Match{Name: "Leaf", Parents: []string{"Mid", "Root"}})
	test.MustBe(t, "Leaf", c.Concept)
	test.MustBe(t, []string{"Root", "Mid", "Leaf"}, c.Lineage)

	c = vocabulary.ConceptOf(vocabulary.Match{Name: "Adult"})
	test.MustBe(t, []string{"Adult"}, c.Lineage)
}

func TestResolve(t *testing.T) {
	r := vocabulary.Enabled(vocabulary.NewSnapshot(lifeStages), vocabulary.Silent)
	tests := []struct {
		raw     string
		concept string
		lineage []string
	}{
		{raw: "Leaf", concept: "Leaf", lineage: []string{"Root", "Mid", "Leaf"}},
		{raw: " THE LEAF ", concept: "Leaf", lineage: []string{"Root", "Mid", "Leaf"}},
		{raw: "AD", concept: "Adult", lineage: []string{"Adult"}},
	}
	for _, tst := range tests {
		t.Run(tst.raw, func(t *testing.T) {
			in, err := r.Resolve(opdk.DwcLifeStage, tst.raw)
			require.NoError(t, err)
			require.NotNil(t, in.Value())
			require.Equal(t, tst.concept, in.Value().Concept)
			require.Equal(t, tst.lineage, in.Value().Lineage)
			require.Equal(t, 0, in.Len())
		})
	}
}

func TestResolveNoResult(t *testing.T) {
	snap := vocabulary.NewSnapshot(lifeStages)
	tests := []struct {
		name string
		r    vocabulary.Resolver
		term opdk.Term
		raw  string
	}{
		{name: "disabled", r: vocabulary.Disabled(), term: opdk.DwcLifeStage, raw: "Leaf"},
		{name: "nil service", r: vocabulary.Enabled(nil, vocabulary.RecordIssue), term: opdk.DwcLifeStage, raw: "Leaf"},
		{name: "blank", r: vocabulary.Enabled(snap, vocabulary.RecordIssue), term: opdk.DwcLifeStage, raw: "  "},
		{name: "no vocabulary", r: vocabulary.Enabled(snap, vocabulary.RecordIssue), term: opdk.DwcPathway, raw: "Leaf"},
		{name: "unmatched silent", r: vocabulary.Enabled(snap, vocabulary.Silent), term: opdk.DwcLifeStage, raw: "egg"},
	}
	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			in, err := tst.r.Resolve(tst.term, tst.raw)
			test.ErrNil(t, err, "Resolve")
			if in.Value() != nil {
				t.Fatalf("expected no concept, got %v", in.Value())
			}
			test.MustBe(t, 0, in.Len())
			test.MustBe(t, 0, len(in.Lineages()))
		})
	}
}

func TestResolveUnmatchedRecordsIssue(t *testing.T) {
	r := vocabulary.Enabled(vocabulary.NewSnapshot(lifeStages), vocabulary.RecordIssue)
	in, err := r.Resolve(opdk.DwcLifeStage, "egg")
	test.ErrNil(t, err, "Resolve")
	test.MustBe(t, []opdk.IssueType{opdk.VocabularyMatchNone}, test.TraceTypes(in))
	test.MustBe(t, opdk.SetToNull, in.Lineages()[0].Context)
}

func TestParseUnmatchedPolicy(t *testing.T) {
	p, err := vocabulary.ParseUnmatchedPolicy("Issue")
	test.ErrNil(t, err, "parsing issue")
	test.MustBe(t, vocabulary.RecordIssue, p)
	p, err = vocabulary.ParseUnmatchedPolicy("")
	test.ErrNil(t, err, "parsing empty")
	test.MustBe(t, vocabulary.Silent, p)
	if _, err = vocabulary.ParseUnmatchedPolicy("loud"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestLoadSnapshot(t *testing.T) {
	export := `[{"term": "dwc:establishmentMeans", "concepts": [
		{"name": "Introduced", "labels": ["alien"], "parents": ["NotNative"]}
	]}]`
	snap, err := vocabulary.LoadSnapshot(strings.NewReader(export))
	test.ErrNil(t, err, "LoadSnapshot")
	r := vocabulary.Enabled(snap, vocabulary.Silent)
	in, err := r.Resolve(opdk.DwcEstablishmentMeans, "Alien")
	test.ErrNil(t, err, "Resolve")
	test.MustBe(t, &opdk.VocabularyConcept{Concept: "Introduced", Lineage: []string{"NotNative", "Introduced"}}, in.Value())

	_, err = vocabulary.LoadSnapshot(strings.NewReader("{"))
	if err == nil {
		t.Fatal("expected error decoding a broken export")
	}
}

func TestLevelDB(t *testing.T) {
	dir := t.TempDir()
	db, err := vocabulary.OpenLevelDB(dir)
	test.ErrNil(t, err, "OpenLevelDB")
	err = db.Import(lifeStages)
	test.ErrNil(t, err, "Import")

	if _, ok := db.Vocabulary(opdk.DwcPathway); ok {
		t.Fatal("unexpected pathway vocabulary")
	}
	in, err := vocabulary.Enabled(db, vocabulary.Silent).Resolve(opdk.DwcLifeStage, "leafy")
	test.ErrNil(t, err, "Resolve")
	test.MustBe(t, []string{"Root", "Mid", "Leaf"}, in.Value().Lineage)
	test.ErrNil(t, db.Close(), "Close")

	// reopening finds the imported vocabulary again
	db, err = vocabulary.OpenLevelDB(dir)
	test.ErrNil(t, err, "reopening")
	defer db.Close()
	lookup, ok := db.Vocabulary(opdk.DwcLifeStage)
	if !ok {
		t.Fatal("lifeStage vocabulary not found after reopening")
	}
	m, ok, err := lookup.Lookup("Adult")
	test.ErrNil(t, err, "Lookup")
	test.MustBe(t, true, ok)
	test.MustBe(t, "Adult", m.Name)
}

func TestNormalize(t *testing.T) {
	test.MustBe(t, "adult", vocabulary.Normalize(" Adult. "))
	test.MustBe(t, "subadult", vocabulary.Normalize("sub-adult"))
	test.MustBe(t, "", vocabulary.Normalize("--"))
}
