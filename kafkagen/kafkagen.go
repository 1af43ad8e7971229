// Package kafkagen publishes generated occurrence records to a Kafka topic
// or a NATS subject for the matching sources to consume, or writes them as
// JSON lines.
package kafkagen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Shopify/sarama"
	"github.com/biocache/opdk"
	"github.com/biocache/opdk/fake"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// Main holds the execution state for the generator.
type Main struct {
	Kafka   bool          `help:"Publish to Kafka instead of writing JSON lines to stdout."`
	Hosts   []string      `help:"Comma separated list of Kafka hosts and ports."`
	Topic   string        `help:"Kafka topic to publish to."`
	Count   int           `help:"Number of records to generate. 0 means no limit."`
	Seed    int64         `help:"Random seed. The same seed generates the same records. -1 will use current nanosecond."`
	Noise   float64       `help:"Probability that a value is one the interpreters will reject."`
	Rate    time.Duration `help:"Pause between records."`
	Retries int           `help:"Attempts to send each Kafka message before giving up."`
	Backoff time.Duration `help:"Pause after a failed Kafka send."`
	NATSURL string        `help:"Publish to this NATS server instead. Empty disables."`
	Subject string        `help:"NATS subject to publish to."`

	Out      io.Writer           `flag:"-"`
	Producer sarama.SyncProducer `flag:"-"`
	Log      opdk.Logger         `flag:"-"`

	sent int
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Hosts:   []string{"localhost:9092"},
		Topic:   "occurrence",
		Subject: "opdk.occurrence",
		Count:   1000,
		Seed:    1,
		Noise:   fake.DefaultNoise,
		Retries: 3,
		Backoff: 10 * time.Second,
		Out:     os.Stdout,
		Log:     opdk.NopLogger{},
	}
}

// Sent returns the number of records published.
func (m *Main) Sent() int { return m.sent }

// JSONRecord implements the sarama.Encoder interface for verbatim records
// using json.
type JSONRecord struct {
	*opdk.VerbatimRecord
}

// Encode marshals the record to json.
func (r JSONRecord) Encode() ([]byte, error) {
	return json.Marshal(r.VerbatimRecord)
}

// Length returns the length of the marshalled json.
func (r JSONRecord) Length() int {
	bytes, _ := r.Encode()
	return len(bytes)
}

// Run runs the generator until Count records have been published.
func (m *Main) Run() (err error) {
	publish := m.write
	if m.Kafka && m.NATSURL != "" {
		return errors.New("publish to either Kafka or NATS, not both")
	}
	if m.NATSURL != "" {
		conn, cerr := nats.Connect(m.NATSURL, nats.Name("opdk-generate"))
		if cerr != nil {
			return errors.Wrapf(cerr, "connecting to %s", m.NATSURL)
		}
		defer conn.Close()
		publish = func(er *opdk.VerbatimRecord) error {
			b, eerr := JSONRecord{er}.Encode()
			if eerr != nil {
				return errors.Wrap(eerr, "encoding")
			}
			return errors.Wrap(conn.Publish(m.Subject, b), "publishing to nats")
		}
		defer func() {
			if ferr := conn.Flush(); ferr != nil && err == nil {
				err = errors.Wrap(ferr, "flushing nats")
			}
		}()
	}
	if m.Kafka {
		if m.Producer == nil {
			conf := sarama.NewConfig()
			conf.Version = sarama.V0_10_0_0
			conf.Producer.Return.Successes = true
			producer, perr := sarama.NewSyncProducer(m.Hosts, conf)
			if perr != nil {
				return errors.Wrap(perr, "getting new producer")
			}
			m.Producer = producer
		}
		defer m.Producer.Close()
		publish = m.send
	}

	seed := m.Seed
	if seed == -1 {
		seed = time.Now().UnixNano()
	}
	src := fake.NewSource(seed, m.Noise, m.Count)
	var tick <-chan time.Time
	if m.Rate > 0 {
		ticker := time.NewTicker(m.Rate)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		er, rerr := src.Record()
		if rerr == io.EOF {
			break
		} else if rerr != nil {
			return errors.Wrap(rerr, "generating record")
		}
		if err := publish(er); err != nil {
			return errors.Wrapf(err, "publishing %s", er.ID())
		}
		m.sent++
		if tick != nil {
			<-tick
		}
	}
	m.Log.Printf("published %d records", m.sent)
	return nil
}

func (m *Main) write(er *opdk.VerbatimRecord) error {
	b, err := JSONRecord{er}.Encode()
	if err != nil {
		return errors.Wrap(err, "encoding")
	}
	_, err = fmt.Fprintf(m.Out, "%s\n", b)
	return errors.Wrap(err, "writing")
}

func (m *Main) send(er *opdk.VerbatimRecord) (err error) {
	msg := &sarama.ProducerMessage{
		Topic: m.Topic,
		Key:   sarama.StringEncoder(er.ID()),
		Value: JSONRecord{er},
	}
	for attempt := 1; attempt <= m.Retries || attempt == 1; attempt++ {
		_, _, err = m.Producer.SendMessage(msg)
		if err == nil {
			return nil
		}
		m.Log.Printf("Error sending message: '%v', backing off", err)
		time.Sleep(m.Backoff)
	}
	return errors.Wrap(err, "sending message")
}
