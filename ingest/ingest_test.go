package ingest_test

import (
	"context"
	"io"
	nethttp "net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/avro"
	ohttp "github.com/biocache/opdk/http"
	"github.com/biocache/opdk/ingest"
	"github.com/biocache/opdk/mock"
	"github.com/biocache/opdk/records"
	"github.com/biocache/opdk/test"
	"github.com/nats-io/nats-server/v2/server"
	gonats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu      sync.Mutex
	records []records.Record
	closed  bool
}

func (s *memSink) Write(r records.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

func (s *memSink) byAspect(a records.Aspect) []records.Record {
	var ret []records.Record
	for _, r := range s.records {
		if r.Aspect() == a {
			ret = append(ret, r)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].RecordID() < ret[j].RecordID() })
	return ret
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0644))
	return p
}

func newMain(t *testing.T, src opdk.Source, sink ingest.Sink) (*ingest.Main, *mock.RecordingStatter) {
	stats := &mock.RecordingStatter{}
	m := ingest.NewMain()
	m.NewSource = func() (opdk.Source, error) { return src, nil }
	m.NewSink = func() (ingest.Sink, error) { return sink, nil }
	m.Statter = stats
	m.Log = &mock.RecordingLogger{}
	m.Now = func() time.Time { return time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC) }
	return m, stats
}

func TestRun(t *testing.T) {
	src := opdk.NewSliceSource(
		test.Record("o1", "continent", "Europe", "country", "Peru", "locality", "Lima", "lifeStage", "adult"),
		test.Record("o2", "continent", "Atlantis", "country", "Peru", "locality", "Lima"),
		test.Record("o3", "country", "Chile", "locality", "Arica", "samplingProtocol", "net"),
	)
	sink := &memSink{}
	m, stats := newMain(t, src, sink)
	m.DatasetID = "dr1"
	m.Concurrency = 2
	m.VocabularyFile = writeFile(t, "vocab.json", `[{"term": "lifeStage", "concepts": [{"name": "Adult", "parents": ["Mature"]}]}]`)
	m.AttributionFile = writeFile(t, "attribution.json", `[{"datasetID": "dr1", "name": "Birds", "license": "CC-BY", "termsForUniqueKey": ["country", "locality"]}]`)
	m.IdentifierDir = t.TempDir()

	require.NoError(t, m.Run())
	assert.True(t, sink.closed)
	assert.Equal(t, int64(3), m.Read())

	// every aspect for every record
	assert.Len(t, sink.records, 3*len(records.Aspects()))
	assert.Equal(t, m.Written(), int64(len(sink.records)))

	basics := sink.byAspect(records.Basic)
	require.Len(t, basics, 3)
	assert.Equal(t, &opdk.VocabularyConcept{Concept: "Adult", Lineage: []string{"Mature", "Adult"}}, basics[0].(*records.BasicRecord).LifeStage)

	locs := sink.byAspect(records.Location)
	assert.Equal(t, "Europe", locs[0].(*records.LocationRecord).Continent)
	assert.True(t, locs[1].IssueList().Has(opdk.ParseError))
	assert.Equal(t, int64(1), stats.Get("location.issue.PARSE_ERROR"))

	ids := sink.byAspect(records.Identifier)
	require.Len(t, ids, 3)
	id1, id2 := ids[0].(*records.IdentifierRecord), ids[1].(*records.IdentifierRecord)
	assert.Equal(t, "dr1|Peru|Lima", id1.UniqueKey)
	assert.Equal(t, id1.UUID, id2.UUID, "same unique key, same UUID")

	md := sink.byAspect(records.Metadata)
	assert.Equal(t, "Birds", md[0].(*records.MetadataRecord).DatasetTitle)

	events := sink.byAspect(records.Event)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"net"}, events[2].(*records.EventCoreRecord).SamplingProtocol)
	assert.Equal(t, int64(3), stats.Get("basic.records"))
}

func TestRunUUIDsPersist(t *testing.T) {
	dir := t.TempDir()
	attribution := writeFile(t, "attribution.json", `[{"datasetID": "dr1", "termsForUniqueKey": ["occurrenceID"]}]`)
	run := func() string {
		sink := &memSink{}
		m, _ := newMain(t, opdk.NewSliceSource(test.Record("x", "occurrenceID", "occ-1")), sink)
		m.DatasetID = "dr1"
		m.Aspects = []string{"identifier"}
		m.AttributionFile = attribution
		m.IdentifierDir = dir
		require.NoError(t, m.Run())
		require.Len(t, sink.records, 1)
		return sink.records[0].(*records.IdentifierRecord).UUID
	}
	first := run()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, run())
}

type errSource struct {
	n int
}

func (s *errSource) Record() (*opdk.VerbatimRecord, error) {
	s.n++
	switch s.n {
	case 1:
		return nil, io.ErrUnexpectedEOF
	case 2:
		return test.Record("ok", "sex", "female"), nil
	}
	return nil, io.EOF
}

func TestRunSkipsUnreadable(t *testing.T) {
	sink := &memSink{}
	m, stats := newMain(t, &errSource{}, sink)
	m.Aspects = []string{"basic"}
	require.NoError(t, m.Run())
	assert.Equal(t, int64(1), stats.Get("source.errors"))
	require.Len(t, sink.records, 1)
	assert.Equal(t, "FEMALE", sink.records[0].(*records.BasicRecord).Sex)
}

func TestRunStrictKeysFails(t *testing.T) {
	sink := &memSink{}
	m, _ := newMain(t, opdk.NewSliceSource(test.Record("x")), sink)
	m.DatasetID = "dr1"
	m.Aspects = []string{"identifier"}
	m.StrictKeys = true
	m.AttributionFile = writeFile(t, "attribution.json", `[{"datasetID": "dr1", "termsForUniqueKey": ["occurrenceID"]}]`)
	err := m.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record x")
}

func TestRunCancelled(t *testing.T) {
	sink := &memSink{}
	m, _ := newMain(t, opdk.NewSliceSource(test.Record("a"), test.Record("b")), sink)
	m.Aspects = []string{"basic"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.RunContext(ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, sink.records)
}

func TestRunHTTPUntilInterrupted(t *testing.T) {
	src, err := ohttp.NewJSONSource(ohttp.WithAddr("127.0.0.1:0"))
	require.NoError(t, err)
	sink := &memSink{}
	m, _ := newMain(t, src, sink)
	m.Aspects = []string{"basic"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.RunContext(ctx) }()

	resp, err := nethttp.Post("http://"+src.Addr()+"/", "application/json", strings.NewReader(`{"id": "p1", "sex": "male"}{"id": "p2"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, nethttp.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool { return m.Written() == 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	assert.Len(t, sink.byAspect(records.Basic), 2)
}

func TestRunNATSUntilInterrupted(t *testing.T) {
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	require.True(t, ns.ReadyForConnections(5*time.Second))
	defer ns.Shutdown()

	sink := &memSink{}
	m, _ := newMain(t, nil, sink)
	m.NewSource = nil
	m.Source = "nats"
	m.NATSURL = ns.ClientURL()
	m.Aspects = []string{"basic"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.RunContext(ctx) }()
	log := m.Log.(*mock.RecordingLogger)
	require.Eventually(t, func() bool { return logged(log, "subscribed to opdk.occurrence") }, 5*time.Second, 10*time.Millisecond)

	nc, err := gonats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()
	require.NoError(t, nc.Publish("opdk.occurrence", []byte(`{"id": "n1", "sex": "male"}`)))
	require.NoError(t, nc.Publish("opdk.occurrence", []byte(`{"id": "n2"}`)))
	require.NoError(t, nc.Flush())
	require.Eventually(t, func() bool { return m.Written() == 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	assert.Len(t, sink.byAspect(records.Basic), 2)
}

func logged(log *mock.RecordingLogger, prefix string) bool {
	for _, l := range log.Lines() {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func TestRunServesMetrics(t *testing.T) {
	sink := &memSink{}
	m, _ := newMain(t, opdk.NewSliceSource(test.Record("a", "sex", "f")), sink)
	m.Statter = nil
	m.MetricsBind = "127.0.0.1:0"
	m.Aspects = []string{"basic"}
	require.NoError(t, m.Run())
	assert.Len(t, sink.records, 1)

	log := m.Log.(*mock.RecordingLogger)
	assert.True(t, logged(log, "serving metrics on 127.0.0.1:"), "metrics address logged: %v", log.Lines())
}

func TestValidate(t *testing.T) {
	for name, change := range map[string]func(m *ingest.Main){
		"no dataset":     func(m *ingest.Main) { m.Aspects = []string{"metadata"} },
		"bad aspect":     func(m *ingest.Main) { m.Aspects = []string{"weather"} },
		"no workers":     func(m *ingest.Main) { m.Concurrency = 0 },
		"bad format":     func(m *ingest.Main) { m.Format = "xml" },
		"bad policy":     func(m *ingest.Main) { m.UnmatchedConcept = "loud" },
		"missing vocab":  func(m *ingest.Main) { m.VocabularyFile = "/does/not/exist.json" },
		"unknown source": func(m *ingest.Main) { m.NewSource = nil; m.Source = "ftp" },
	} {
		t.Run(name, func(t *testing.T) {
			m, _ := newMain(t, opdk.NewSliceSource(), &memSink{})
			change(m)
			assert.Error(t, m.Run())
		})
	}
}

func TestRunFileToAvro(t *testing.T) {
	in := writeFile(t, "in.json", `{"occurrenceID": "o1", "basisOfRecord": "PreservedSpecimen", "decimalLatitude": "10", "decimalLongitude": "20"}
{"occurrenceID": "o2", "sex": "unknown thing"}
`)
	out := t.TempDir()
	m := ingest.NewMain()
	m.Log = opdk.NopLogger{}
	m.Path = in
	m.Output = out
	m.Aspects = []string{"basic", "location"}
	require.NoError(t, m.Run())

	sink, err := avro.NewSink(out)
	require.NoError(t, err)
	f, err := os.Open(sink.Path(records.Basic))
	require.NoError(t, err)
	defer f.Close()
	got, err := avro.ReadAll(f)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	lf, err := os.Open(sink.Path(records.Location))
	require.NoError(t, err)
	defer lf.Close()
	locs, err := avro.ReadAll(lf)
	require.NoError(t, err)
	assert.Len(t, locs, 2)
}

func TestLoaders(t *testing.T) {
	vm := ingest.NewVocabularyMain()
	vm.Dir = t.TempDir()
	vm.File = writeFile(t, "vocab.json", `[{"term": "lifeStage", "concepts": [{"name": "Adult"}, {"name": "Juvenile"}]}]`)
	require.NoError(t, vm.Run())
	assert.Equal(t, 1, vm.Count())

	am := ingest.NewAttributionMain()
	am.DB = filepath.Join(t.TempDir(), "attribution.db")
	am.File = writeFile(t, "attribution.json", `[{"datasetID": "dr1", "termsForUniqueKey": ["occurrenceID"]}]`)
	require.NoError(t, am.Run())
	assert.Equal(t, 1, am.Count())

	sink := &memSink{}
	m, _ := newMain(t, opdk.NewSliceSource(test.Record("x", "occurrenceID", "1", "lifeStage", "juvenile")), sink)
	m.DatasetID = "dr1"
	m.Aspects = []string{"basic", "identifier"}
	m.VocabularyDir = vm.Dir
	m.AttributionDB = am.DB
	require.NoError(t, m.Run())
	require.Len(t, sink.records, 2)
	assert.Equal(t, "Juvenile", sink.byAspect(records.Basic)[0].(*records.BasicRecord).LifeStage.Concept)
	assert.Equal(t, "dr1|1", sink.byAspect(records.Identifier)[0].(*records.IdentifierRecord).UniqueKey)

	assert.Error(t, ingest.NewVocabularyMain().Run(), "no file")
	assert.Error(t, ingest.NewAttributionMain().Run(), "no file")
}
