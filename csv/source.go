// Package csv reads verbatim records from delimited text files such as the
// occurrence core of a Darwin Core archive.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
)

// Source satisfies the opdk.Source interface for CSV data. Each line in a
// CSV file is returned as a verbatim record whose terms are taken from the
// first line of the file. Source is safe for concurrent use.
//
// The Source takes care of retrying failed reads/downloads and making sure not
// to return duplicate data.
type Source struct {
	files       []*file
	maxRetries  int
	concurrency int
	comma       rune
	idColumn    string
	log         opdk.Logger

	records chan record
}

// NewSource creates a opdk.Source for CSV data. The source of the raw data
// can be set by using Options defined in this package. e.g.
//
//	src := NewSource(WithURLs([]string{"occurrence.csv", "http://example.com/occurrence.txt"}))
func NewSource(options ...Option) *Source {
	src := &Source{
		records:     make(chan record),
		maxRetries:  3,
		concurrency: 1,
		comma:       ',',
		idColumn:    "id",
		log:         opdk.NopLogger{},
	}

	for _, opt := range options {
		opt(src)
	}
	go src.getRecords()
	return src
}

// Option is a functional option to pass to NewSource.
type Option func(*Source)

// WithURLs returns an Option which adds the slice of URLs to the set of data
// sources a Source will read from. The URLs may be HTTP or local files.
func WithURLs(urls []string) Option {
	return func(s *Source) {
		for _, url := range urls {
			s.files = append(s.files, &file{OpenStringer: urlOpener(url)})
		}
	}
}

// WithOpenStringers returns an Option which adds the slice of OpenStringers to
// the set of data sources a Source will read from.
func WithOpenStringers(os []OpenStringer) Option {
	return func(s *Source) {
		for _, os := range os {
			s.files = append(s.files, &file{OpenStringer: os})
		}
	}
}

// WithMaxRetries returns an Option which sets the max number of retries per file on
// a Source.
func WithMaxRetries(maxRetries int) Option {
	return func(s *Source) {
		s.maxRetries = maxRetries
	}
}

// WithConcurrency returns an Option which sets the number of goroutines fetching
// files simultaneously.
func WithConcurrency(c int) Option {
	return func(s *Source) {
		if c > 0 {
			s.concurrency = c
		}
	}
}

// WithComma sets the field delimiter. Darwin Core archives are usually tab
// delimited.
func WithComma(r rune) Option {
	return func(s *Source) {
		s.comma = r
	}
}

// WithIDColumn names the column holding the record identifier. Rows without
// one are named <file>:line<n>.
func WithIDColumn(col string) Option {
	return func(s *Source) {
		s.idColumn = col
	}
}

// WithLogger sets the logger used for recoverable problems in the data.
func WithLogger(l opdk.Logger) Option {
	return func(s *Source) {
		s.log = l
	}
}

// file tracks the use of an OpenStringer.
type file struct {
	OpenStringer
	line int // tracks how many lines of this file we've read.
}

// Opener is an interface to a resource which can be repeatedly Opened (and the
// returned ReadCloser can be subsequently read). Each call to Open should
// return a ReadCloser which reads from the beginning of the resource. In the
// case of an error while reading, Open will be called again to retry reading
// the entire resource.
type Opener interface {
	Open() (io.ReadCloser, error)
}

// OpenStringer is an Opener which also has a String method which should return
// the name of the resource being opened (e.g. a file or URL).
type OpenStringer interface {
	fmt.Stringer
	Opener
}

// urlOpener turns a URL or file (string) into an OpenStringer.
type urlOpener string

func (u urlOpener) Open() (io.ReadCloser, error) {
	url := string(u)
	if strings.HasPrefix(url, "http") {
		resp, err := http.Get(url)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, errors.Errorf("getting via http: status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}
	f, err := os.Open(url)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	return f, nil
}

func (u urlOpener) String() string {
	return string(u)
}

// Record returns the verbatim record for a single data line of a CSV file.
// Empty fields are skipped.
func (c *Source) Record() (*opdk.VerbatimRecord, error) {
	rec, ok := <-c.records
	if !ok {
		return nil, io.EOF
	}
	return rec.rec, rec.err
}

type record struct {
	rec *opdk.VerbatimRecord
	err error
}

func (c *Source) getRecords() {
	fileChan := make(chan *file, c.concurrency)
	wg := sync.WaitGroup{}
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			for file := range fileChan {
				c.getRows(file)
			}
			wg.Done()
		}()
	}
	for _, file := range c.files {
		fileChan <- file
	}
	close(fileChan)
	wg.Wait()
	close(c.records)
}

func (c *Source) getRows(file *file) {
	var err error
	for try := 0; try < c.maxRetries; try++ {
		err = c.getRowTry(file)
		if err == nil {
			return
		}
	}
	c.records <- record{err: errors.Wrapf(err, "couldn't fetch '%s' - tried %d times, latest", file, c.maxRetries)}
}

func (c *Source) getRowTry(file *file) error {
	content, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening")
	}
	defer content.Close()

	reader := csv.NewReader(content)
	reader.Comma = c.comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil
	} else if err != nil {
		return errors.Wrap(err, "reading header")
	}
	header = append([]string(nil), header...)
	if err := validateHeader(header); err != nil {
		c.records <- record{err: errors.Wrapf(err, "validating header of %s", file)}
		return nil // error is permanent so we don't return to getRows for retry
	}

	line := 0
	// catch up to previous location
	for line < file.line {
		if _, err := reader.Read(); err != nil {
			return errors.Wrapf(err, "skipping to line %d of '%s'", file.line, file)
		}
		line++
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		} else if perr, ok := err.(*csv.ParseError); ok {
			file.line++
			line++
			c.records <- record{err: errors.Wrapf(perr, "file %s: parsing line %d", file, file.line)}
			continue
		} else if err != nil {
			return errors.Wrapf(err, "reading '%s', line %d", file, line)
		}
		file.line++
		line++
		rec, err := c.parseRecord(header, row, fmt.Sprintf("%s:line%d", file, file.line))
		if err != nil {
			c.records <- record{
				err: errors.Wrapf(err, "file %s: parsing line %d", file, file.line),
			}
			continue
		}
		c.records <- record{rec: rec}
	}
}

func (c *Source) parseRecord(header []string, row []string, fallbackID string) (*opdk.VerbatimRecord, error) {
	if len(header) > len(row) {
		return nil, errors.Errorf("header/row len mismatch: %dvs%d", len(header), len(row))
	} else if len(row) > len(header) {
		for i := len(header); i < len(row); i++ {
			if strings.TrimSpace(row[i]) != "" {
				c.log.Printf("data in non headered field at %s: column %d", fallbackID, i)
			}
		}
	}
	terms := make(map[string]string, len(header))
	id := fallbackID
	for i := 0; i < len(header); i++ {
		if row[i] == "" {
			continue
		}
		if header[i] == c.idColumn {
			id = row[i]
		}
		terms[header[i]] = row[i]
	}
	return opdk.NewVerbatimRecord(id, terms), nil
}

func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty string at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}
