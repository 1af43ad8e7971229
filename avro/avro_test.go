package avro_test

import (
	"os"
	"testing"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/avro"
	"github.com/biocache/opdk/records"
	liavro "github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemasCompile(t *testing.T) {
	for _, a := range records.Aspects() {
		schema, err := avro.Schema(a)
		require.NoError(t, err, a.String())
		_, err = liavro.NewCodec(schema)
		require.NoError(t, err, "%v: %s", a, schema)
	}
}

func TestSchemaUnknownAspect(t *testing.T) {
	_, err := avro.Schema(records.Aspect(42))
	assert.Error(t, err)
}

func basic() *records.BasicRecord {
	count := int32(3)
	br := &records.BasicRecord{
		ID:              "occ1",
		Created:         1622505600000,
		BasisOfRecord:   "HUMAN_OBSERVATION",
		LifeStage:       &opdk.VocabularyConcept{Concept: "Adult", Lineage: []string{"Adult"}},
		IndividualCount: &count,
		RecordedBy:      []string{"A. Smith", "B. Jones"},
	}
	br.Issues.Add(opdk.Issue{Type: opdk.ParseError, Remark: "Could not parse sex because 'x' is not a known value"})
	br.Issues.AddLineage(opdk.Lineage{Type: opdk.SetToNull, Remark: "Could not parse the sex or invalid value setting it to null"})
	return br
}

func TestNativeEncodes(t *testing.T) {
	schema, err := avro.Schema(records.Basic)
	require.NoError(t, err)
	codec, err := liavro.NewCodec(schema)
	require.NoError(t, err)

	native, err := avro.Native(basic())
	require.NoError(t, err)
	assert.Nil(t, native["sex"])
	assert.Nil(t, native["pathway"])

	buf, err := codec.BinaryFromNative(nil, native)
	require.NoError(t, err)
	decoded, _, err := codec.NativeFromBinary(buf)
	require.NoError(t, err)
	m := decoded.(map[string]interface{})
	assert.Equal(t, "occ1", m["id"])
	assert.Equal(t, map[string]interface{}{"int": int32(3)}, m["individualCount"])
}

func TestSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := avro.NewSink(dir, avro.OptSinkBatchSize(2))
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		br := basic()
		br.ID = id
		require.NoError(t, sink.Write(br))
	}
	require.NoError(t, sink.Write(&records.MultimediaRecord{
		ID:    "a",
		Items: []records.MediaItem{{Identifier: "http://example.org/a.jpg", Type: "StillImage"}},
	}))
	require.NoError(t, sink.Close())

	f, err := os.Open(sink.Path(records.Basic))
	require.NoError(t, err)
	defer f.Close()
	got, err := avro.ReadAll(f)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[2]["id"])
	issues := got[0]["issues"].(map[string]interface{})
	assert.Len(t, issues["issueList"], 1)
	assert.Len(t, issues["lineage"], 1)

	mf, err := os.Open(sink.Path(records.Multimedia))
	require.NoError(t, err)
	defer mf.Close()
	media, err := avro.ReadAll(mf)
	require.NoError(t, err)
	require.Len(t, media, 1)
	items := media[0]["multimediaItems"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "http://example.org/a.jpg", item["identifier"])
	assert.Nil(t, item["format"])

	_, err = os.Stat(sink.Path(records.Location))
	assert.True(t, os.IsNotExist(err), "no file for aspects never written")
}
