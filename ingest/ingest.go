// Package ingest runs interpretation end to end: verbatim records are read
// from a source, interpreted into every requested aspect by a pool of
// workers, and written to a sink.
package ingest

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/avro"
	"github.com/biocache/opdk/aws/s3"
	"github.com/biocache/opdk/csv"
	"github.com/biocache/opdk/file"
	"github.com/biocache/opdk/http"
	"github.com/biocache/opdk/kafka"
	"github.com/biocache/opdk/nats"
	"github.com/biocache/opdk/promstat"
	"github.com/biocache/opdk/records"
	"github.com/biocache/opdk/termstat"
	"github.com/biocache/opdk/transforms"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Sink receives interpreted records. Implementations must be safe for
// concurrent use.
type Sink interface {
	Write(r records.Record) error
	Close() error
}

// Main holds all config for an interpretation run.
type Main struct {
	DatasetID   string   `help:"Identifier of the dataset being interpreted. Used to look up its attribution and unique key terms."`
	Aspects     []string `help:"Comma separated aspects to interpret (basic, location, temporal, taxon, event, metadata, multimedia, identifier). Empty means all."`
	Concurrency int      `help:"Number of concurrent interpretation workers."`

	Source       string   `help:"Where verbatim records come from: file, csv, s3, kafka, nats or http."`
	Path         string   `help:"File or directory of JSON lines for the file source."`
	URLs         []string `help:"Comma separated files or http URLs for the csv source."`
	CSVDelimiter string   `help:"Field delimiter for the csv source. Use 'tab' for Darwin Core archives."`
	CSVIDColumn  string   `help:"Column holding the record identifier for the csv source."`
	S3Bucket     string   `help:"S3 bucket from which to read objects."`
	S3Prefix     string   `help:"Only objects in the bucket matching this prefix will be used."`
	S3Region     string   `help:"AWS region to use."`
	KafkaHosts   []string `help:"Comma separated list of Kafka hosts and ports."`
	KafkaTopics  []string `help:"Comma separated list of Kafka topics."`
	KafkaGroup   string   `help:"Kafka consumer group."`
	RegistryURL  string   `help:"Confluent schema registry host:port. Empty means messages are JSON."`
	MaxMsgs      int      `help:"Stop after this many Kafka or NATS messages. 0 means no limit."`
	NATSURL      string   `help:"NATS server URL."`
	NATSSubject  string   `help:"NATS subject carrying JSON records."`
	NATSQueue    string   `help:"NATS queue group shared by cooperating runs."`
	HTTPBind     string   `help:"Listen for posted JSON records on this address. The run ends on interrupt."`

	TLS opdk.TLSConfig

	Output      string `help:"Output directory for Avro files, or file for JSON lines. '-' writes JSON lines to stdout."`
	Format      string `help:"Output format: avro or json."`
	Compression string `help:"Avro block codec: null, deflate or snappy."`
	BatchSize   int    `help:"Records per Avro block."`

	VocabularyDir    string `help:"LevelDB vocabulary directory. Takes precedence over vocabulary-file."`
	VocabularyFile   string `help:"JSON vocabulary export to resolve vocabulary terms against. Empty (with no vocabulary-dir) disables vocabulary enrichment."`
	UnmatchedConcept string `help:"What to do with values no vocabulary concept matches: silent or issue."`
	AttributionDB    string `help:"Bolt file holding dataset attribution. Takes precedence over attribution-file."`
	AttributionFile  string `help:"JSON array of dataset attribution records."`
	IdentifierDir    string `help:"LevelDB directory persisting unique key to UUID assignments. Empty keeps them in memory for this run only."`
	StrictKeys       bool   `help:"Fail the run when every unique key term of a record is blank."`
	GeohashPrecision uint   `help:"Geohash length for interpreted coordinates."`

	LogPath  string `help:"Log file to write to. Empty means stderr."`
	Verbose  bool   `help:"Enable verbose logging."`
	JSONLogs bool   `help:"Write logs as JSON."`
	Stats    bool   `help:"Print running counts to stderr."`

	MetricsBind string `help:"Serve Prometheus metrics on this address under /metrics. Empty disables."`

	NewSource func() (opdk.Source, error) `flag:"-"`
	NewSink   func() (Sink, error)        `flag:"-"`
	Statter   opdk.Statter                `flag:"-"`
	Log       opdk.Logger                 `flag:"-"`
	Now       func() time.Time            `flag:"-"`

	aspects  []records.Aspect
	services *services
	closers  []io.Closer

	read    int64
	skipped int64
	written int64
}

// NewMain returns a Main with the default configuration.
func NewMain() *Main {
	return &Main{
		Concurrency:      1,
		Source:           "file",
		CSVDelimiter:     ",",
		CSVIDColumn:      "id",
		S3Region:         "us-east-1",
		KafkaHosts:       []string{"localhost:9092"},
		KafkaTopics:      []string{"occurrence"},
		KafkaGroup:       "opdk",
		NATSURL:          "nats://127.0.0.1:4222",
		NATSSubject:      "opdk.occurrence",
		NATSQueue:        "opdk",
		HTTPBind:         ":12121",
		Output:           "interpreted",
		Format:           "avro",
		Compression:      "snappy",
		BatchSize:        avro.DefaultBatchSize,
		UnmatchedConcept: "silent",
		GeohashPrecision: 9,
	}
}

// Read returns the number of verbatim records read.
func (m *Main) Read() int64 { return atomic.LoadInt64(&m.read) }

// Written returns the number of interpreted records written.
func (m *Main) Written() int64 { return atomic.LoadInt64(&m.written) }

// Run runs the interpretation until the source is exhausted.
func (m *Main) Run() error {
	return m.RunContext(context.Background())
}

// RunContext runs the interpretation until the source is exhausted or ctx
// is done. Records in flight when ctx is done are abandoned.
func (m *Main) RunContext(ctx context.Context) (err error) {
	start := time.Now()
	err = m.setup()
	defer func() {
		if cerr := m.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err != nil {
		return errors.Wrap(err, "setting up")
	}

	source, err := m.NewSource()
	if err != nil {
		return errors.Wrap(err, "getting source")
	}
	if c, ok := source.(io.Closer); ok {
		m.closers = append(m.closers, c)
	}
	sink, err := m.NewSink()
	if err != nil {
		return errors.Wrap(err, "getting sink")
	}

	eg, wctx := errgroup.WithContext(ctx)
	if is, ok := source.(interruptible); ok {
		stop := context.AfterFunc(wctx, is.Interrupt)
		defer stop()
	}
	for c := 0; c < m.Concurrency; c++ {
		c := c
		eg.Go(func() error {
			return m.runWorker(wctx, c, source, sink)
		})
	}
	err = eg.Wait()
	if cerr := sink.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "closing sink")
	}
	if err != nil {
		return err
	}
	m.Log.Printf("interpreted %d records (%d skipped), wrote %d in %v", m.Read(), atomic.LoadInt64(&m.skipped), m.Written(), time.Since(start))
	return ctx.Err()
}

// interruptible is a source which blocks in Record until interrupted.
type interruptible interface {
	Interrupt()
}

func (m *Main) validate() error {
	if m.Concurrency < 1 {
		return errors.Errorf("concurrency must be at least 1, got %d", m.Concurrency)
	}
	m.aspects = m.aspects[:0]
	if len(m.Aspects) == 0 {
		m.aspects = records.Aspects()
	}
	for _, name := range m.Aspects {
		a, err := records.ParseAspect(name)
		if err != nil {
			return err
		}
		m.aspects = append(m.aspects, a)
	}
	for _, a := range m.aspects {
		if (a == records.Metadata || a == records.Identifier) && m.DatasetID == "" {
			return errors.Errorf("the %v aspect needs a dataset-id", a)
		}
	}
	switch m.Format {
	case "avro", "json":
	default:
		return errors.Errorf("unknown output format '%s'", m.Format)
	}
	return nil
}

func (m *Main) setup() (err error) {
	if err := m.validate(); err != nil {
		return errors.Wrap(err, "validating configuration")
	}

	// setup logging
	if m.Log == nil {
		var paths []string
		if m.LogPath != "" {
			paths = []string{m.LogPath}
		}
		zl, err := opdk.NewZapLogger(paths, m.Verbose, m.JSONLogs)
		if err != nil {
			return errors.Wrap(err, "building logger")
		}
		m.Log = zl
		m.closers = append(m.closers, zl)
	}
	if m.Statter == nil {
		var statters opdk.MultiStatter
		if m.Stats {
			tc := termstat.NewCollector(os.Stderr, 0)
			statters = append(statters, tc)
			m.closers = append(m.closers, tc)
		}
		if m.MetricsBind != "" {
			pc := promstat.NewCollector()
			srv, err := promstat.Serve(m.MetricsBind, pc)
			if err != nil {
				return errors.Wrap(err, "serving metrics")
			}
			m.Log.Printf("serving metrics on %s/metrics", srv.Addr())
			statters = append(statters, pc)
			m.closers = append(m.closers, srv)
		}
		switch len(statters) {
		case 0:
			m.Statter = opdk.NopStatter{}
		case 1:
			m.Statter = statters[0]
		default:
			m.Statter = statters
		}
	}
	if m.Now == nil {
		m.Now = time.Now
	}

	m.services, err = m.openServices()
	if err != nil {
		return errors.Wrap(err, "opening services")
	}
	if m.NewSource == nil {
		m.NewSource = m.defaultSource
	}
	if m.NewSink == nil {
		m.NewSink = m.defaultSink
	}
	return nil
}

// close releases everything setup acquired, in reverse order.
func (m *Main) close() error {
	errs := make(errorList, 0)
	if m.services != nil {
		if err := m.services.Close(); err != nil {
			errs = append(errs, err)
		}
		m.services = nil
	}
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m *Main) converters(c int) ([]transforms.Converter, error) {
	cfg := transforms.Config{
		DatasetID:        m.DatasetID,
		Vocabulary:       m.services.vocabulary,
		Attribution:      m.services.attribution,
		Identifiers:      m.services.identifiers,
		StrictKeys:       m.StrictKeys,
		GeohashPrecision: m.GeohashPrecision,
		Now:              m.Now,
		Stats:            m.Statter,
		Log:              m.Log,
	}
	convs := make([]transforms.Converter, 0, len(m.aspects))
	for _, a := range m.aspects {
		conv, err := transforms.New(a, cfg)
		if err != nil {
			return convs, err
		}
		if err := conv.Setup(); err != nil {
			return convs, errors.Wrapf(err, "setting up %v converter %d", a, c)
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func (m *Main) runWorker(ctx context.Context, c int, source opdk.Source, sink Sink) (err error) {
	m.Log.Debugf("start worker %d", c)
	convs, err := m.converters(c)
	defer func() {
		for _, conv := range convs {
			if terr := conv.Teardown(); terr != nil && err == nil {
				err = errors.Wrapf(terr, "tearing down %v converter", conv.Aspect())
			}
		}
	}()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		er, err := source.Record()
		if err == io.EOF {
			return nil
		} else if err != nil {
			m.Log.Printf("skipping unreadable record: %v", err)
			m.Statter.Count("source.errors", 1, 1)
			atomic.AddInt64(&m.skipped, 1)
			continue
		}
		atomic.AddInt64(&m.read, 1)
		for _, conv := range convs {
			r, ok, err := conv.Convert(er)
			if err != nil {
				return errors.Wrapf(err, "interpreting %v of record %s", conv.Aspect(), er.ID())
			}
			if !ok {
				continue
			}
			if err := sink.Write(r); err != nil {
				return errors.Wrap(err, "writing record")
			}
			atomic.AddInt64(&m.written, 1)
		}
	}
}

func (m *Main) defaultSource() (opdk.Source, error) {
	tlsConf, err := opdk.GetTLSConfig(&m.TLS, m.Log)
	if err != nil {
		return nil, errors.Wrap(err, "getting TLS config")
	}
	switch strings.ToLower(m.Source) {
	case "file":
		return file.NewSource(file.OptSrcPath(m.Path))
	case "csv":
		delim := []rune(m.CSVDelimiter)
		if m.CSVDelimiter == "tab" || m.CSVDelimiter == `\t` {
			delim = []rune{'\t'}
		}
		if len(delim) != 1 {
			return nil, errors.Errorf("csv delimiter must be a single character, got '%s'", m.CSVDelimiter)
		}
		return csv.NewSource(
			csv.WithURLs(m.URLs),
			csv.WithComma(delim[0]),
			csv.WithIDColumn(m.CSVIDColumn),
			csv.WithConcurrency(m.Concurrency),
			csv.WithLogger(m.Log),
		), nil
	case "s3":
		return s3.NewSource(s3.OptSrcBucket(m.S3Bucket), s3.OptSrcPrefix(m.S3Prefix), s3.OptSrcRegion(m.S3Region))
	case "kafka":
		src := kafka.NewSource()
		if m.RegistryURL != "" {
			cs := kafka.NewConfluentSource()
			cs.RegistryURL = m.RegistryURL
			src = cs.Source
		}
		src.Hosts = m.KafkaHosts
		src.Topics = m.KafkaTopics
		src.Group = m.KafkaGroup
		src.MaxMsgs = m.MaxMsgs
		src.Log = m.Log
		src.TLS = tlsConf
		if err := src.Open(); err != nil {
			return nil, errors.Wrap(err, "opening kafka source")
		}
		return src, nil
	case "nats":
		src := nats.NewSource()
		src.URL = m.NATSURL
		src.Subject = m.NATSSubject
		src.Queue = m.NATSQueue
		src.MaxMsgs = m.MaxMsgs
		src.Log = m.Log
		src.TLS = tlsConf
		if err := src.Open(); err != nil {
			return nil, errors.Wrap(err, "opening nats source")
		}
		m.Log.Printf("subscribed to %s on %s", src.Subject, src.URL)
		return src, nil
	case "http":
		src, err := http.NewJSONSource(http.WithAddr(m.HTTPBind), http.WithLogger(m.Log), http.WithTLS(tlsConf))
		if err != nil {
			return nil, errors.Wrap(err, "starting http source")
		}
		m.Log.Printf("listening for records on %s", src.Addr())
		return src, nil
	}
	return nil, errors.Errorf("unknown source '%s'", m.Source)
}
