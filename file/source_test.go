package file

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/biocache/opdk"
)

func mustFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return name
}

func TestRawSource(t *testing.T) {
	d := t.TempDir()

	names := []string{
		mustFile(t, d, "b.json", `blah blah blah`),
		mustFile(t, d, "a.json", `hahahahahahahaha`),
	}
	mustFile(t, d, ".hidden", `nope`)
	if err := os.Mkdir(filepath.Join(d, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	rs, err := NewRawSource(d)
	if err != nil {
		t.Fatalf("getting raw source: %v", err)
	}

	gotNames := make([]string, 0, 2)
	var reader opdk.NamedReadCloser
	for reader, err = rs.NextReader(); err == nil; reader, err = rs.NextReader() {
		gotNames = append(gotNames, reader.Name())
		if _, err := ioutil.ReadAll(reader); err != nil {
			t.Fatalf("reading file: %v", err)
		}
		reader.Close()
	}
	sort.Strings(names)
	if !reflect.DeepEqual(gotNames, names) {
		t.Fatalf("different file names: %v", gotNames)
	}
	if err != io.EOF {
		t.Fatalf("unexpected NextReader error: %v", err)
	}
}

func TestSource(t *testing.T) {
	d := t.TempDir()

	mustFile(t, d, "one.json", `
{"occurrenceID": "o1", "country": "Peru"}
{"occurrenceID": "o2", "country": "Chile"}
`)
	mustFile(t, d, "two.json", `
{"occurrenceID": "o3", "country": "Peru"}
{"country": "Bolivia"}
`)

	s, err := NewSource(OptSrcPath(d), OptSrcBufSize(1))
	if err != nil {
		t.Fatalf("getting source: %v", err)
	}

	ids := make(map[string]string)
	var rec *opdk.VerbatimRecord
	for rec, err = s.Record(); err == nil; rec, err = s.Record() {
		ids[rec.ID()] = rec.Value(opdk.DwcCountry)
	}
	if err != io.EOF {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{"o1": "Peru", "o2": "Chile", "o3": "Peru", "two.json#1": "Bolivia"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
}

func TestSourceBadJSON(t *testing.T) {
	d := t.TempDir()
	mustFile(t, d, "bad.json", `{"id": `)
	s, err := NewSource(OptSrcPath(d))
	if err != nil {
		t.Fatalf("getting source: %v", err)
	}
	if _, err = s.Record(); err == nil || err == io.EOF {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err = s.Record(); err != io.EOF {
		t.Fatalf("expected EOF after error, got %v", err)
	}
}

func TestNewSourceNoPath(t *testing.T) {
	if _, err := NewSource(); err == nil {
		t.Fatal("expected error without a path")
	}
}
