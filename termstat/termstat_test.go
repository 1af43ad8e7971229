package termstat_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/biocache/opdk/termstat"
	"github.com/biocache/opdk/test"
)

func TestCollector(t *testing.T) {
	buf := &bytes.Buffer{}
	c := termstat.NewCollector(buf, time.Hour)
	c.Count("basic.records", 1, 1)
	c.Count("basic.records", 2, 1)
	c.Count("basic.issue.PARSE_ERROR", 1, 1)
	test.MustBe(t, []string{"basic.issue.PARSE_ERROR: 1", "basic.records: 3"}, c.Summary())

	test.ErrNil(t, c.Close(), "Close")
	out := buf.String()
	if !strings.Contains(out, "basic.records: 3") || !strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected output %q", out)
	}
}
