package interpreters

import (
	"strings"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var continentNames = map[string][]string{
	"africa":        {"af", "afrika"},
	"antarctica":    {"an", "antarctic", "antartica"},
	"asia":          {"as"},
	"europe":        {"eu", "europa"},
	"north america": {"na", "n america", "north american", "nearctic"},
	"oceania":       {"oc", "australia", "australasia", "oceanie"},
	"south america": {"sa", "s america", "latin america", "neotropics"},
}

// continents maps the key of every name and alias to the canonical title
// form. It is populated once in init and only read afterwards.
var continents = make(map[string]string)

func init() {
	title := cases.Title(language.English)
	for name, aliases := range continentNames {
		canonical := title.String(name)
		continents[key(name)] = canonical
		for _, a := range aliases {
			continents[key(a)] = canonical
		}
	}
}

// ParseContinent matches raw against the closed list of continents and
// their aliases, ignoring case and punctuation.
func ParseContinent(raw string) (string, error) {
	k := key(raw)
	if k == "" {
		return "", errors.Errorf("'%s' holds no letters", raw)
	}
	if c, ok := continents[k]; ok {
		return c, nil
	}
	return "", errors.Errorf("'%s' is not a continent", strings.TrimSpace(raw))
}

// InterpretContinent returns the canonical continent name for raw, or a
// PARSE_ERROR with the continent set to null.
func InterpretContinent(raw string) opdk.Result[string] {
	if isNull(raw) {
		return nulled[string](opdk.ParseError, "continent", "is null")
	}
	c, err := ParseContinent(raw)
	if err != nil {
		return nulled[string](opdk.ParseError, "continent", err.Error())
	}
	return opdk.Ok(c)
}

// Continent sets the continent of a location record.
func Continent(er *opdk.VerbatimRecord, lr *records.LocationRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcContinent, InterpretContinent, func(c string) { lr.Continent = c })
}
