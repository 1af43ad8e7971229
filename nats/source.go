// Package nats reads verbatim records published as JSON to a NATS subject.
package nats

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/biocache/opdk"
	ojson "github.com/biocache/opdk/json"
	gonats "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// Source implements the opdk.Source interface over a queue subscription, so
// several interpretation runs sharing a Queue split the messages between
// them.
type Source struct {
	URL     string
	Subject string
	Queue   string
	// Buffer is the number of undelivered messages held before the server
	// treats the subscription as a slow consumer.
	Buffer  int
	MaxMsgs int
	TLS     *tls.Config
	Log     opdk.Logger

	lock    sync.Mutex
	numMsgs int
	conn    *gonats.Conn
	sub     *gonats.Subscription
	msgs    chan *gonats.Msg
	done    chan struct{}
	once    sync.Once
}

// NewSource gets a new Source with default settings.
func NewSource() *Source {
	return &Source{
		URL:     gonats.DefaultURL,
		Subject: "opdk.occurrence",
		Queue:   "opdk",
		Buffer:  256,
		Log:     opdk.NopLogger{},
		done:    make(chan struct{}),
	}
}

// Open connects and subscribes. Messages published before Open returns are
// not seen.
func (s *Source) Open() error {
	opts := []gonats.Option{
		gonats.Name("opdk"),
		gonats.DisconnectErrHandler(func(_ *gonats.Conn, err error) {
			if err != nil {
				s.Log.Printf("nats disconnected: %v", err)
			}
		}),
		gonats.ErrorHandler(func(_ *gonats.Conn, _ *gonats.Subscription, err error) {
			s.Log.Printf("nats subscription error: %v", err)
		}),
	}
	if s.TLS != nil {
		opts = append(opts, gonats.Secure(s.TLS))
	}
	conn, err := gonats.Connect(s.URL, opts...)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", s.URL)
	}
	s.msgs = make(chan *gonats.Msg, s.Buffer)
	sub, err := conn.ChanQueueSubscribe(s.Subject, s.Queue, s.msgs)
	if err != nil {
		conn.Close()
		return errors.Wrapf(err, "subscribing to %s", s.Subject)
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return errors.Wrap(err, "flushing subscription")
	}
	s.conn, s.sub = conn, sub
	return nil
}

// Record returns the verbatim record in the next message. It returns io.EOF
// once MaxMsgs messages have been read, or once the source is interrupted
// and every buffered message has been read.
func (s *Source) Record() (*opdk.VerbatimRecord, error) {
	s.lock.Lock()
	if s.MaxMsgs > 0 && s.numMsgs >= s.MaxMsgs {
		s.lock.Unlock()
		return nil, io.EOF
	}
	s.numMsgs++
	n := s.numMsgs
	s.lock.Unlock()

	var msg *gonats.Msg
	select {
	case msg = <-s.msgs:
	case <-s.done:
		select {
		case msg = <-s.msgs:
		default:
			return nil, io.EOF
		}
	}
	return decode(msg, fmt.Sprintf("%s#%d", msg.Subject, n-1))
}

func decode(msg *gonats.Msg, fallbackID string) (*opdk.VerbatimRecord, error) {
	parsed := make(map[string]interface{})
	dec := json.NewDecoder(bytes.NewReader(msg.Data))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, errors.Wrapf(err, "decoding message %s", fallbackID)
	}
	return ojson.FromMap(parsed, fallbackID)
}

// Pending reports how many received messages are waiting to be read.
func (s *Source) Pending() int {
	return len(s.msgs)
}

// Interrupt unsubscribes and ends the record stream once the buffered
// messages are read. It may be called more than once.
func (s *Source) Interrupt() {
	s.once.Do(func() {
		if s.sub != nil {
			if err := s.sub.Unsubscribe(); err != nil {
				s.Log.Printf("unsubscribing from %s: %v", s.Subject, err)
			}
		}
		close(s.done)
	})
}

// Close interrupts the source and closes the connection.
func (s *Source) Close() error {
	s.Interrupt()
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
