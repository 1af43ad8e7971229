package csv_test

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/csv"
)

func MustGetTempFile(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(name, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return name
}

func TestCSVSource(t *testing.T) {
	name := MustGetTempFile(t, `id,country,locality,blue
1,Peru,"Lima, centro",3
2,Chile,,4
`)
	src := csv.NewSource(csv.WithURLs([]string{name}))
	rec, err := src.Record()
	if err != nil {
		t.Fatalf("getting first record: %v", err)
	}
	if rec.ID() != "1" {
		t.Fatalf("id: %s", rec.ID())
	}
	if rec.Len() != 4 {
		t.Fatalf("wrong length record: %v", rec.Terms())
	}
	if rec.Value(opdk.DwcCountry) != "Peru" {
		t.Fatalf("country: %v", rec.Terms())
	}
	if rec.Value(opdk.DwcLocality) != "Lima, centro" {
		t.Fatalf("locality: %v", rec.Terms())
	}

	rec, err = src.Record()
	if err != nil {
		t.Fatalf("getting second record: %v", err)
	}
	if rec.Len() != 3 {
		t.Fatalf("empty fields should be skipped: %v", rec.Terms())
	}
	if _, ok := rec.NullAwareValue(opdk.DwcLocality); ok {
		t.Fatalf("locality should be absent: %v", rec.Terms())
	}

	if _, err = src.Record(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestCSVSourceTabsAndFallbackID(t *testing.T) {
	name := MustGetTempFile(t, "occurrenceID\tcountry\n\tPeru\no2\tChile\n")
	src := csv.NewSource(csv.WithURLs([]string{name}), csv.WithComma('\t'), csv.WithIDColumn("occurrenceID"))
	var ids []string
	var rec *opdk.VerbatimRecord
	var err error
	for rec, err = src.Record(); err == nil; rec, err = src.Record() {
		ids = append(ids, rec.ID())
	}
	if err != io.EOF {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{name + ":line1", "o2"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Fatalf("ids: %v, want %v", ids, want)
	}
}

func TestCSVSourceBadHeader(t *testing.T) {
	name := MustGetTempFile(t, "a,b,a\n1,2,3\n")
	src := csv.NewSource(csv.WithURLs([]string{name}))
	_, err := src.Record()
	if err == nil || !strings.Contains(err.Error(), "appeared at both") {
		t.Fatalf("expected header error, got %v", err)
	}
	if _, err = src.Record(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestCSVSourceShortRow(t *testing.T) {
	name := MustGetTempFile(t, "id,a,b\n1,x\n2,y,z\n")
	src := csv.NewSource(csv.WithURLs([]string{name}))
	if _, err := src.Record(); err == nil {
		t.Fatal("expected error for short row")
	}
	rec, err := src.Record()
	if err != nil {
		t.Fatalf("rows after a bad row should still be read: %v", err)
	}
	if rec.ID() != "2" {
		t.Fatalf("id: %s", rec.ID())
	}
}

// flaky fails the first read of its content part way through.
type flaky struct {
	content string
	opens   int
}

type failingReader struct {
	r io.Reader
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF {
		return n, fmt.Errorf("connection reset")
	}
	return n, err
}

func (f *flaky) Open() (io.ReadCloser, error) {
	f.opens++
	if f.opens == 1 {
		half := f.content[:strings.Index(f.content, "2,")]
		return ioutil.NopCloser(&failingReader{strings.NewReader(half)}), nil
	}
	return ioutil.NopCloser(strings.NewReader(f.content)), nil
}

func (f *flaky) String() string { return "flaky" }

func TestCSVSourceRetryDoesNotDuplicate(t *testing.T) {
	f := &flaky{content: "id,a\n1,x\n2,y\n3,z\n"}
	src := csv.NewSource(csv.WithOpenStringers([]csv.OpenStringer{f}))
	var ids []string
	var rec *opdk.VerbatimRecord
	var err error
	for rec, err = src.Record(); err == nil; rec, err = src.Record() {
		ids = append(ids, rec.ID())
	}
	if err != io.EOF {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(ids, ",") != "1,2,3" {
		t.Fatalf("ids: %v", ids)
	}
	if f.opens != 2 {
		t.Fatalf("opens: %d", f.opens)
	}
}
