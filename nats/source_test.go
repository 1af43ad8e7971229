package nats_test

import (
	"io"
	"testing"
	"time"

	"github.com/biocache/opdk"
	onats "github.com/biocache/opdk/nats"
	"github.com/nats-io/nats-server/v2/server"
	gonats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("nats server did not start")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func publish(t *testing.T, url, subject string, bodies ...string) {
	t.Helper()
	nc, err := gonats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	for _, b := range bodies {
		require.NoError(t, nc.Publish(subject, []byte(b)))
	}
	require.NoError(t, nc.Flush())
}

func open(t *testing.T, url string) *onats.Source {
	t.Helper()
	src := onats.NewSource()
	src.URL = url
	src.Subject = "occ.test"
	require.NoError(t, src.Open())
	t.Cleanup(func() { src.Close() })
	return src
}

func TestSource(t *testing.T) {
	ns := runServer(t)
	src := open(t, ns.ClientURL())

	publish(t, ns.ClientURL(), "occ.test",
		`{"id":"a","coreTerms":{"country":"Peru"}}`,
		`{"occurrenceID":"b","sex":"female","individualCount":3}`,
		`{"locality":"Lima"}`,
		`{"locality":{"nested":true}}`,
		`not json`,
	)

	rec, err := src.Record()
	require.NoError(t, err)
	assert.Equal(t, "a", rec.ID())
	assert.Equal(t, "Peru", rec.Value(opdk.DwcCountry))

	rec, err = src.Record()
	require.NoError(t, err)
	assert.Equal(t, "b", rec.ID())
	assert.Equal(t, "3", rec.Value(opdk.DwcIndividualCount))

	rec, err = src.Record()
	require.NoError(t, err)
	assert.Equal(t, "occ.test#2", rec.ID())

	_, err = src.Record()
	assert.Error(t, err)
	_, err = src.Record()
	assert.Error(t, err)

	src.Interrupt()
	_, err = src.Record()
	assert.Equal(t, io.EOF, err)
}

func TestSourceDrainsAfterInterrupt(t *testing.T) {
	ns := runServer(t)
	src := open(t, ns.ClientURL())
	publish(t, ns.ClientURL(), "occ.test", `{"id":"x"}`)

	require.Eventually(t, func() bool {
		return src.Pending() == 1
	}, 5*time.Second, 10*time.Millisecond)

	src.Interrupt()
	src.Interrupt()
	rec, err := src.Record()
	require.NoError(t, err)
	assert.Equal(t, "x", rec.ID())
	_, err = src.Record()
	assert.Equal(t, io.EOF, err)
}

func TestSourceMaxMsgs(t *testing.T) {
	ns := runServer(t)
	src := open(t, ns.ClientURL())
	src.MaxMsgs = 1
	publish(t, ns.ClientURL(), "occ.test", `{"id":"1"}`, `{"id":"2"}`)

	rec, err := src.Record()
	require.NoError(t, err)
	assert.Equal(t, "1", rec.ID())
	_, err = src.Record()
	assert.Equal(t, io.EOF, err)
}

func TestSourceOpenError(t *testing.T) {
	src := onats.NewSource()
	src.URL = "nats://127.0.0.1:1"
	assert.Error(t, src.Open())
}
