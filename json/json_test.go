package json_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/json"
	"github.com/biocache/opdk/records"
)

func TestSource(t *testing.T) {
	src := json.NewSource(strings.NewReader(`
{"id": "r1", "coreTerms": {"http://rs.tdwg.org/dwc/terms/continent": "Europe"}}
{"occurrenceID": "r2", "dwc:country": "Peru", "individualCount": 3, "dynamic": true}
{"locality": "nowhere"}
`), "in.json")

	rec, err := src.Record()
	if err != nil {
		t.Fatalf("getting first record: %v", err)
	}
	if rec.ID() != "r1" || rec.Value(opdk.DwcContinent) != "Europe" {
		t.Fatalf("unexpected first record: %v", rec.Terms())
	}

	rec, err = src.Record()
	if err != nil {
		t.Fatalf("getting second record: %v", err)
	}
	if rec.ID() != "r2" {
		t.Fatalf("id: %s", rec.ID())
	}
	if rec.Value(opdk.DwcCountry) != "Peru" {
		t.Fatalf("country: %v", rec.Terms())
	}
	if rec.Value(opdk.DwcIndividualCount) != "3" {
		t.Fatalf("individualCount: %v", rec.Terms())
	}

	rec, err = src.Record()
	if err != nil {
		t.Fatalf("getting third record: %v", err)
	}
	if rec.ID() != "in.json#2" {
		t.Fatalf("fallback id: %s", rec.ID())
	}

	if _, err = src.Record(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSourceRejectsNested(t *testing.T) {
	src := json.NewSource(strings.NewReader(`{"id": "x", "locality": {"a": 1}}`), "bad")
	if _, err := src.Record(); err == nil {
		t.Fatal("expected error for nested value")
	}
}

type sliceRaw struct {
	readers []string
	i       int
}

type named struct {
	io.ReadCloser
	name string
}

func (n named) Name() string { return n.name }

func (s *sliceRaw) NextReader() (opdk.NamedReadCloser, error) {
	if s.i >= len(s.readers) {
		return nil, io.EOF
	}
	s.i++
	return named{ioutil.NopCloser(strings.NewReader(s.readers[s.i-1])), "f" + string(rune('0'+s.i))}, nil
}

func TestSourceFromRawSource(t *testing.T) {
	src := json.NewSourceFromRawSource(&sliceRaw{readers: []string{
		`{"id": "a"}{"id": "b"}`,
		``,
		`{"id": "c"}`,
	}})
	var ids []string
	var rec *opdk.VerbatimRecord
	var err error
	for rec, err = src.Record(); err == nil; rec, err = src.Record() {
		ids = append(ids, rec.ID())
	}
	if err != io.EOF {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(ids, ",") != "a,b,c" {
		t.Fatalf("ids: %v", ids)
	}
}

func TestSink(t *testing.T) {
	buf := &bytes.Buffer{}
	s := json.NewSink(buf)
	br := &records.BasicRecord{ID: "a", Sex: "FEMALE"}
	if err := s.Write(br); err != nil {
		t.Fatalf("writing: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
	want := `{"aspect":"basic","record":{"id":"a","created":0,"sex":"FEMALE","issues":{"issueList":[],"lineage":[]}}}` + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}
