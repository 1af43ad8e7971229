// Package uniquekey derives the deterministic unique key of a record from
// the values of a configured, ordered list of terms, and maps unique keys to
// stable record UUIDs.
package uniquekey

import (
	"sort"
	"strings"
	"unicode"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/kvs"
	"github.com/pkg/errors"
)

// Delimiter joins the dataset ID and the term values of a key.
const Delimiter = "|"

// ErrAllTermsEmpty is the cause of the strict mode error returned when every
// term of a record is blank.
var ErrAllTermsEmpty = errors.New("all unique key terms are empty")

// Config is the unique key configuration of a dataset.
type Config struct {
	DatasetID string
	// Terms are the key terms in key order. The order is part of the key's
	// identity.
	Terms       []opdk.Term
	StripSpaces bool
	// Defaults replace blank values, keyed by term simple name.
	Defaults map[string]string
}

// ConfigFromMetadata builds the key configuration of a dataset from its
// attribution. A dataset without key terms cannot mint keys, which is a
// configuration error.
func ConfigFromMetadata(md kvs.Metadata) (Config, error) {
	if len(md.TermsForUniqueKey) == 0 {
		return Config{}, errors.Errorf("no unique terms specified for dataset '%s'", md.DatasetID)
	}
	c := Config{
		DatasetID:   md.DatasetID,
		Terms:       make([]opdk.Term, 0, len(md.TermsForUniqueKey)),
		StripSpaces: md.StripSpaces,
		Defaults:    make(map[string]string, len(md.DefaultValues)),
	}
	for _, name := range md.TermsForUniqueKey {
		c.Terms = append(c.Terms, opdk.TermFromString(name))
	}
	for name, v := range md.DefaultValues {
		c.Defaults[opdk.TermFromString(name).SimpleName()] = v
	}
	return c, nil
}

// String describes the configuration for logging.
func (c Config) String() string {
	defaults := make([]string, 0, len(c.Defaults))
	for k, v := range c.Defaults {
		defaults = append(defaults, k+"="+v)
	}
	sort.Strings(defaults)
	return "uniqueTerms " + termNames(c.Terms) + ";  stripSpaces " + boolString(c.StripSpaces) +
		";  defaultValues " + strings.Join(defaults, ",")
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func termNames(terms []opdk.Term) string {
	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.SimpleName()
	}
	return strings.Join(names, ",")
}

// Generate builds the unique key of er from the values of terms, in order.
// A blank or "null" value is replaced by its default, if any. Remaining blanks are
// skipped. Values are trimmed, or stripped of all whitespace when
// stripSpaces is set. The key is datasetID followed by the values, joined
// with Delimiter.
//
// When every value is blank, Generate returns "" or, when strict is set, an
// error naming the dataset, the terms and the record, caused by
// ErrAllTermsEmpty.
func Generate(datasetID string, er *opdk.VerbatimRecord, terms []opdk.Term, defaults map[string]string, stripSpaces, strict bool) (string, error) {
	values := make([]string, 0, len(terms)+1)
	values = append(values, datasetID)
	for _, t := range terms {
		v, ok := er.NullAwareValue(t)
		if !ok {
			v = defaults[t.SimpleName()]
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		if stripSpaces {
			v = stripWhitespace(v)
		} else {
			v = strings.TrimSpace(v)
		}
		values = append(values, v)
	}
	if len(values) == 1 {
		if strict {
			return "", errors.Wrapf(ErrAllTermsEmpty, "dataset %s, terms [%s], record %s",
				datasetID, termNames(terms), er.ID())
		}
		return "", nil
	}
	return strings.Join(values, Delimiter), nil
}

// Key builds the unique key of er with the configuration.
func (c Config) Key(er *opdk.VerbatimRecord, strict bool) (string, error) {
	return Generate(c.DatasetID, er, c.Terms, c.Defaults, c.StripSpaces, strict)
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
