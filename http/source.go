// Package http receives verbatim records posted as JSON.
package http

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/biocache/opdk"
	ojson "github.com/biocache/opdk/json"
	"github.com/pkg/errors"
)

// ShutdownTimeout bounds how long Interrupt waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// JSONSource implements the opdk.Source interface by listening for HTTP post
// requests and decoding verbatim records from their bodies. A body may hold
// any number of JSON objects in either of the forms read by the json
// package.
type JSONSource struct {
	addr     string
	listener net.Listener
	server   *http.Server
	records  chan record
	log      opdk.Logger
	tls      *tls.Config

	n      int64
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// WithAddr is an option for the JSONSource which causes it to bind to the given
// address.
func WithAddr(addr string) JSONSourceOption {
	return func(j *JSONSource) {
		j.addr = addr
	}
}

// WithListener is an option for JSONSource which causes it to use the given
// listener. It will infer the address from the listener.
func WithListener(l net.Listener) JSONSourceOption {
	return func(j *JSONSource) {
		j.listener = l
		j.addr = l.Addr().String()
	}
}

// WithBuffer is an option for JSONSource which modifies the length of the
// channel used to buffer received records (while they are waiting to be
// retrieved by a call to Record).
func WithBuffer(n int) JSONSourceOption {
	return func(j *JSONSource) {
		if n > -1 {
			j.records = make(chan record, n)
		}
	}
}

// WithTLS makes the JSONSource serve https.
func WithTLS(conf *tls.Config) JSONSourceOption {
	return func(j *JSONSource) {
		j.tls = conf
	}
}

// WithLogger sets the logger used for rejected requests.
func WithLogger(l opdk.Logger) JSONSourceOption {
	return func(j *JSONSource) {
		j.log = l
	}
}

// JSONSourceOption is a functional option type for JSONSource.
type JSONSourceOption func(j *JSONSource)

// NewJSONSource creates a JSONSource and starts serving. It takes
// JSONSourceOptions which modify its behavior.
func NewJSONSource(opts ...JSONSourceOption) (*JSONSource, error) {
	j := &JSONSource{
		records: make(chan record, 3),
		log:     opdk.NopLogger{},
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}

	if j.listener == nil {
		var err error
		j.listener, err = net.Listen("tcp", j.addr)
		if err != nil {
			return nil, errors.Wrapf(err, "listening on '%s'", j.addr)
		}
	}
	if j.tls != nil {
		j.listener = tls.NewListener(j.listener, j.tls)
	}

	j.server = &http.Server{
		Addr:              j.addr,
		Handler:           j,
		ReadHeaderTimeout: time.Minute,
	}
	go func() {
		err := j.server.Serve(j.listener)
		if err != nil && err != http.ErrServerClosed {
			j.log.Printf("http source stopped serving: %v", err)
			j.Interrupt()
		}
	}()
	return j, nil
}

// Addr gets the address that the JSONSource is listening on.
func (j *JSONSource) Addr() string {
	if j.listener != nil {
		return j.listener.Addr().String()
	}
	return j.addr
}

type record struct {
	data *opdk.VerbatimRecord
	err  error
}

// Record implements opdk.Source. It blocks until a record is posted, and
// returns io.EOF once the source has been interrupted and every buffered
// record has been read.
func (j *JSONSource) Record() (*opdk.VerbatimRecord, error) {
	rec, ok := <-j.records
	if !ok {
		return nil, io.EOF
	}
	return rec.data, rec.err
}

// ServeHTTP implements http.Handler for JSONSource. It answers 202 with the
// number of records accepted.
func (j *JSONSource) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		err := errors.Errorf("unsupported method: %v", r.Method)
		j.log.Printf("rejecting request from %s: %v", r.RemoteAddr, err)
		http.Error(w, err.Error(), http.StatusMethodNotAllowed)
		return
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	accepted := 0
	for {
		stuff := make(map[string]interface{})
		err := dec.Decode(&stuff)
		if err == io.EOF {
			break
		}
		if err != nil {
			err := errors.Wrapf(err, "decoding json after %d records", accepted)
			j.log.Printf("rejecting request from %s: %v", r.RemoteAddr, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		n := atomic.AddInt64(&j.n, 1)
		rec, err := ojson.FromMap(stuff, fmt.Sprintf("http#%d", n-1))
		if !j.send(record{data: rec, err: err}) {
			http.Error(w, "source is shutting down", http.StatusServiceUnavailable)
			return
		}
		if err == nil {
			accepted++
		}
	}
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "%d\n", accepted)
}

// send reports whether rec was queued before the source was interrupted.
func (j *JSONSource) send(rec record) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return false
	}
	select {
	case j.records <- rec:
		return true
	case <-j.done:
		return false
	}
}

// Interrupt stops accepting requests, waits for in-flight requests, and
// ends the record stream. It may be called more than once.
func (j *JSONSource) Interrupt() {
	j.once.Do(func() {
		close(j.done)
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := j.server.Shutdown(ctx); err != nil {
			j.log.Printf("shutting down http source: %v", err)
		}
		j.mu.Lock()
		j.closed = true
		close(j.records)
		j.mu.Unlock()
	})
}

// Close implements io.Closer.
func (j *JSONSource) Close() error {
	j.Interrupt()
	return nil
}
