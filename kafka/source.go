// Package kafka reads verbatim records from Kafka topics. Messages are
// either JSON objects or Avro records framed for the Confluent schema
// registry.
package kafka

import (
	"bytes"
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/Shopify/sarama"
	"github.com/biocache/opdk"
	ojson "github.com/biocache/opdk/json"
	cluster "github.com/bsm/sarama-cluster"
	liavro "github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"
)

// Consumer is the part of a consumer group Source needs.
// *cluster.Consumer satisfies it.
type Consumer interface {
	Messages() <-chan *sarama.ConsumerMessage
	MarkOffset(msg *sarama.ConsumerMessage, metadata string)
	Close() error
}

// Source implements the opdk.Source interface using kafka as a data source.
type Source struct {
	Hosts   []string
	Topics  []string
	Group   string
	MaxMsgs int
	Log     opdk.Logger
	// TLS, when set, is used to connect to the brokers and the schema
	// registry.
	TLS *tls.Config

	lock     sync.Mutex
	numMsgs  int
	consumer Consumer
	decode   func(msg *sarama.ConsumerMessage) (*opdk.VerbatimRecord, error)
}

// NewSource gets a new Source of JSON messages.
func NewSource() *Source {
	s := &Source{
		Hosts:  []string{"localhost:9092"},
		Topics: []string{"occurrence"},
		Group:  "opdk",
		Log:    opdk.NopLogger{},
	}
	s.decode = decodeJSON
	return s
}

func fallbackID(msg *sarama.ConsumerMessage) string {
	if len(msg.Key) > 0 {
		return string(msg.Key)
	}
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

func decodeJSON(msg *sarama.ConsumerMessage) (*opdk.VerbatimRecord, error) {
	parsed := make(map[string]interface{})
	dec := json.NewDecoder(bytes.NewReader(msg.Value))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshaling json")
	}
	return ojson.FromMap(parsed, fallbackID(msg))
}

// Record returns the verbatim record in the next kafka message. It returns
// io.EOF once MaxMsgs messages have been read or the consumer is closed.
func (s *Source) Record() (*opdk.VerbatimRecord, error) {
	s.lock.Lock()
	if s.MaxMsgs > 0 {
		s.numMsgs++
		if s.numMsgs > s.MaxMsgs {
			s.lock.Unlock()
			return nil, io.EOF
		}
	}
	s.lock.Unlock()
	msg, ok := <-s.consumer.Messages()
	if !ok {
		return nil, io.EOF
	}
	rec, err := s.decode(msg)
	s.consumer.MarkOffset(msg, "") // mark message as processed
	if err != nil {
		return nil, errors.Wrapf(err, "message %s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
	}
	return rec, nil
}

// Open initializes the kafka source.
func (s *Source) Open() error {
	// init (custom) config, enable errors and notifications
	sarama.Logger = log.New(ioutil.Discard, "", 0)
	config := cluster.NewConfig()
	config.Config.Version = sarama.V0_10_0_0
	config.Consumer.Return.Errors = true
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Group.Return.Notifications = true
	if s.TLS != nil {
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = s.TLS
	}

	consumer, err := cluster.NewConsumer(s.Hosts, s.Group, s.Topics, config)
	if err != nil {
		return errors.Wrap(err, "getting new consumer")
	}
	s.consumer = consumer

	// consume errors
	go func() {
		for err := range consumer.Errors() {
			s.Log.Printf("kafka consumer error: %v", err)
		}
	}()

	// consume notifications
	go func() {
		for ntf := range consumer.Notifications() {
			s.Log.Debugf("rebalanced: %+v", ntf)
		}
	}()
	return nil
}

// OpenWith uses an existing consumer instead of connecting.
func (s *Source) OpenWith(c Consumer) {
	s.consumer = c
}

// Close closes the underlying kafka consumer.
func (s *Source) Close() error {
	if s.consumer == nil {
		return nil
	}
	err := s.consumer.Close()
	return errors.Wrap(err, "closing kafka consumer")
}

// ConfluentSource implements opdk.Source using Kafka and the Confluent
// schema registry.
type ConfluentSource struct {
	*Source
	RegistryURL string
	lock        sync.RWMutex
	cache       map[int32]*liavro.Codec
}

// NewConfluentSource returns a new ConfluentSource.
func NewConfluentSource() *ConfluentSource {
	src := &ConfluentSource{
		Source: NewSource(),
		cache:  make(map[int32]*liavro.Codec),
	}
	src.decode = src.decodeAvro
	return src
}

func (s *ConfluentSource) decodeAvro(msg *sarama.ConsumerMessage) (*opdk.VerbatimRecord, error) {
	m, err := s.decodeAvroValueWithSchemaRegistry(msg.Value)
	if err != nil {
		return nil, err
	}
	terms, err := avroTerms(m)
	if err != nil {
		return nil, err
	}
	id := fallbackID(msg)
	for _, k := range ojson.IDKeys {
		if v := terms[k]; v != "" {
			id = v
			break
		}
	}
	return opdk.NewVerbatimRecord(id, terms), nil
}

func (s *ConfluentSource) decodeAvroValueWithSchemaRegistry(val []byte) (map[string]interface{}, error) {
	if len(val) <= 6 || val[0] != 0 {
		return nil, errors.Errorf("unexpected magic byte or length in avro kafka value, should be 0x00, but got 0x%.8s", val)
	}
	id := int32(binary.BigEndian.Uint32(val[1:]))
	codec, err := s.getCodec(id)
	if err != nil {
		return nil, errors.Wrap(err, "getting avro codec")
	}
	ret, _, err := codec.NativeFromBinary(val[5:])
	if err != nil {
		return nil, errors.Wrap(err, "decoding avro record")
	}
	m, ok := ret.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("avro value is a %T, not a record", ret)
	}
	return m, nil
}

// The Schema type is an object produced by the schema registry.
type Schema struct {
	Schema  string `json:"schema"`  // The actual AVRO schema
	Subject string `json:"subject"` // Subject where the schema is registered for
	Version int    `json:"version"` // Version within this subject
	ID      int    `json:"id"`      // Registry's unique id
}

func (s *ConfluentSource) getCodec(id int32) (*liavro.Codec, error) {
	s.lock.RLock()
	if codec, ok := s.cache[id]; ok {
		s.lock.RUnlock()
		return codec, nil
	}
	s.lock.RUnlock()
	s.lock.Lock()
	defer s.lock.Unlock()
	if codec, ok := s.cache[id]; ok {
		return codec, nil
	}
	r, err := s.registryClient().Get(s.registryURL(id))
	if err != nil {
		return nil, errors.Wrap(err, "getting schema from registry")
	}
	defer r.Body.Close()
	if r.StatusCode >= 300 {
		bod, err := ioutil.ReadAll(r.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to get schema, code: %d, no body", r.StatusCode)
		}
		return nil, errors.Errorf("Failed to get schema, code: %d, resp: %s", r.StatusCode, bod)
	}
	schema := &Schema{}
	if err := json.NewDecoder(r.Body).Decode(schema); err != nil {
		return nil, errors.Wrap(err, "decoding schema from registry")
	}
	codec, err := liavro.NewCodec(schema.Schema)
	if err != nil {
		return nil, errors.Wrap(err, "parsing schema")
	}
	s.cache[id] = codec
	return codec, nil
}

func (s *ConfluentSource) registryURL(id int32) string {
	scheme := "http"
	if s.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/schemas/ids/%d", scheme, s.RegistryURL, id)
}

func (s *ConfluentSource) registryClient() *http.Client {
	if s.TLS == nil {
		return http.DefaultClient
	}
	return &http.Client{Transport: &http.Transport{TLSClientConfig: s.TLS}}
}

// avroTerms flattens a decoded Avro record of scalar fields into terms.
// Nullable fields arrive wrapped as {"type": value}.
func avroTerms(m map[string]interface{}) (map[string]string, error) {
	ret := make(map[string]string, len(m))
	for k, v := range m {
		if u, ok := v.(map[string]interface{}); ok && len(u) == 1 {
			for _, inner := range u {
				v = inner
			}
		}
		switch vt := v.(type) {
		case nil:
			continue
		case string:
			ret[k] = vt
		case int32:
			ret[k] = strconv.FormatInt(int64(vt), 10)
		case int64:
			ret[k] = strconv.FormatInt(vt, 10)
		case float32:
			ret[k] = strconv.FormatFloat(float64(vt), 'f', -1, 32)
		case float64:
			ret[k] = strconv.FormatFloat(vt, 'f', -1, 64)
		case bool:
			ret[k] = strconv.FormatBool(vt)
		default:
			return nil, errors.Errorf("value of %s is a %T; terms must be scalars", k, v)
		}
	}
	return ret, nil
}
