// Package json reads verbatim records from streams of JSON objects and
// writes interpreted records as JSON lines.
//
// Two object shapes are accepted: the {"id": ..., "coreTerms": {...}} form
// written by opdk.VerbatimRecord, and a flat object of term to value.
package json

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/biocache/opdk"
	"github.com/pkg/errors"
)

// IDKeys are the keys looked up, in order, for the identifier of a flat
// object.
var IDKeys = []string{"id", "occurrenceID", "gbifID", "eventID"}

// Source is a opdk.Source for reading json data.
type Source struct {
	dec  *json.Decoder
	name string
	n    int
}

// NewSource gets a new json source which will decode from the given reader.
// Objects without an identifier are named <name>#<n>.
func NewSource(r io.Reader, name string) *Source {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Source{
		dec:  dec,
		name: name,
	}
}

// Record implements opdk.Source. It returns the next json object that can be
// decoded from the reader.
func (s *Source) Record() (*opdk.VerbatimRecord, error) {
	var res map[string]interface{}
	err := s.dec.Decode(&res)
	if err != nil {
		return nil, err
	}
	n := s.n
	s.n++
	return FromMap(res, fmt.Sprintf("%s#%d", s.name, n))
}

// FromMap builds a verbatim record from a decoded JSON object. fallbackID is
// used when the object carries no identifier.
func FromMap(m map[string]interface{}, fallbackID string) (*opdk.VerbatimRecord, error) {
	if core, ok := m["coreTerms"]; ok {
		cm, ok := core.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("coreTerms is a %T, not an object", core)
		}
		terms, err := stringify(cm)
		if err != nil {
			return nil, err
		}
		id, _ := m["id"].(string)
		if id == "" {
			id = fallbackID
		}
		return opdk.NewVerbatimRecord(id, terms), nil
	}
	terms, err := stringify(m)
	if err != nil {
		return nil, err
	}
	id := fallbackID
	for _, k := range IDKeys {
		if v := terms[k]; v != "" {
			id = v
			break
		}
	}
	return opdk.NewVerbatimRecord(id, terms), nil
}

func stringify(m map[string]interface{}) (map[string]string, error) {
	ret := make(map[string]string, len(m))
	for k, v := range m {
		switch vt := v.(type) {
		case nil:
			continue
		case string:
			ret[k] = vt
		case json.Number:
			ret[k] = vt.String()
		case bool:
			ret[k] = strconv.FormatBool(vt)
		default:
			return nil, errors.Errorf("value of %s is a %T; terms must be scalars", k, v)
		}
	}
	return ret, nil
}

type rawSourceSource struct {
	rs opdk.RawSource

	s      *Source
	reader opdk.NamedReadCloser
}

// NewSourceFromRawSource reads json objects from each reader of rs in turn.
func NewSourceFromRawSource(rs opdk.RawSource) opdk.Source {
	return &rawSourceSource{rs: rs}
}

func (r *rawSourceSource) Record() (*opdk.VerbatimRecord, error) {
	if r.s == nil {
		reader, err := r.rs.NextReader()
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "getting next reader")
		} else if err == io.EOF {
			return nil, err
		}
		r.reader = reader
		r.s = NewSource(reader, reader.Name())
	}
	rec, err := r.s.Record()
	if err == io.EOF {
		r.s = nil
		if err := r.reader.Close(); err != nil {
			return nil, errors.Wrapf(err, "closing %s", r.reader.Name())
		}
		return r.Record()
	} else if err != nil {
		return nil, errors.Wrapf(err, "decoding json from %s", r.reader.Name())
	}
	return rec, nil
}
