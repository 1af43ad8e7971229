package interpreters

import (
	"fmt"
	"strings"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
)

// Country is an ISO 3166 country.
type Country struct {
	Code string
	Name string
}

var countryList = []struct {
	Country
	aliases []string
}{
	{Country{"AR", "Argentina"}, nil},
	{Country{"AU", "Australia"}, nil},
	{Country{"AT", "Austria"}, nil},
	{Country{"BE", "Belgium"}, nil},
	{Country{"BO", "Bolivia"}, []string{"Plurinational State of Bolivia"}},
	{Country{"BR", "Brazil"}, []string{"Brasil"}},
	{Country{"CA", "Canada"}, nil},
	{Country{"CL", "Chile"}, nil},
	{Country{"CN", "China"}, nil},
	{Country{"CO", "Colombia"}, nil},
	{Country{"CR", "Costa Rica"}, nil},
	{Country{"DK", "Denmark"}, nil},
	{Country{"EC", "Ecuador"}, nil},
	{Country{"EG", "Egypt"}, nil},
	{Country{"FI", "Finland"}, nil},
	{Country{"FR", "France"}, nil},
	{Country{"DE", "Germany"}, []string{"Deutschland"}},
	{Country{"GR", "Greece"}, nil},
	{Country{"IN", "India"}, nil},
	{Country{"ID", "Indonesia"}, nil},
	{Country{"IE", "Ireland"}, nil},
	{Country{"IT", "Italy"}, nil},
	{Country{"JP", "Japan"}, nil},
	{Country{"KE", "Kenya"}, nil},
	{Country{"MG", "Madagascar"}, nil},
	{Country{"MX", "Mexico"}, []string{"México"}},
	{Country{"NL", "Netherlands"}, []string{"Holland", "The Netherlands"}},
	{Country{"NZ", "New Zealand"}, []string{"Aotearoa"}},
	{Country{"NO", "Norway"}, nil},
	{Country{"PG", "Papua New Guinea"}, nil},
	{Country{"PE", "Peru"}, []string{"Perú"}},
	{Country{"PL", "Poland"}, nil},
	{Country{"PT", "Portugal"}, nil},
	{Country{"ZA", "South Africa"}, nil},
	{Country{"ES", "Spain"}, []string{"España"}},
	{Country{"SE", "Sweden"}, nil},
	{Country{"CH", "Switzerland"}, nil},
	{Country{"TZ", "Tanzania"}, []string{"United Republic of Tanzania"}},
	{Country{"GB", "United Kingdom"}, []string{"UK", "Great Britain", "England", "Scotland", "Wales"}},
	{Country{"US", "United States"}, []string{"USA", "United States of America"}},
	{Country{"VE", "Venezuela"}, nil},
}

// countries maps codes, names and aliases, by key, to their country. It is
// populated once in init and only read afterwards.
var countries = make(map[string]Country)

func init() {
	for _, c := range countryList {
		countries[key(c.Code)] = c.Country
		countries[key(c.Name)] = c.Country
		for _, a := range c.aliases {
			countries[key(a)] = c.Country
		}
	}
}

// InterpretCountry recognises ISO 3166 alpha-2 codes and English country
// names.
func InterpretCountry(raw string) opdk.Result[Country] {
	if isNull(raw) {
		return nulled[Country](opdk.CountryInvalid, "country", "is null")
	}
	if c, ok := countries[key(raw)]; ok {
		return opdk.Ok(c)
	}
	return nulled[Country](opdk.CountryInvalid, "country", fmt.Sprintf("'%s' is not a known country", strings.TrimSpace(raw)))
}

// CountryOf sets the country and country code of a location record. The
// country code term is preferred over the country name.
func CountryOf(er *opdk.VerbatimRecord, lr *records.LocationRecord) opdk.Interpretation[struct{}] {
	term := opdk.DwcCountryCode
	if _, ok := er.NullAwareValue(term); !ok {
		term = opdk.DwcCountry
	}
	return apply(er, term, InterpretCountry, func(c Country) {
		lr.Country = c.Name
		lr.CountryCode = c.Code
	})
}

// Coordinate is a decimal latitude and longitude.
type Coordinate struct {
	Lat float64
	Lon float64
}

// InterpretCoordinate parses a latitude and longitude and checks their
// ranges.
func InterpretCoordinate(lat, lon string) opdk.Result[Coordinate] {
	if isNull(lat) || isNull(lon) {
		return nulled[Coordinate](opdk.CoordinateInvalid, "coordinate", "latitude and longitude are not both present")
	}
	la, err := parseFloat(strings.TrimSpace(lat))
	if err != nil {
		return nulled[Coordinate](opdk.CoordinateInvalid, "coordinate", fmt.Sprintf("latitude '%s' is not a number", strings.TrimSpace(lat)))
	}
	lo, err := parseFloat(strings.TrimSpace(lon))
	if err != nil {
		return nulled[Coordinate](opdk.CoordinateInvalid, "coordinate", fmt.Sprintf("longitude '%s' is not a number", strings.TrimSpace(lon)))
	}
	if la < -90 || la > 90 || lo < -180 || lo > 180 {
		return nulled[Coordinate](opdk.CoordinateOutOfRange, "coordinate", fmt.Sprintf("%v,%v is outside -90..90,-180..180", la, lo))
	}
	return opdk.Ok(Coordinate{Lat: la, Lon: lo})
}

// Coordinates sets the coordinate of a location record when either half of
// it is present.
func Coordinates(er *opdk.VerbatimRecord, lr *records.LocationRecord) opdk.Interpretation[struct{}] {
	lat, latOK := er.NullAwareValue(opdk.DwcDecimalLatitude)
	lon, lonOK := er.NullAwareValue(opdk.DwcDecimalLongitude)
	if !latOK && !lonOK {
		return opdk.Done()
	}
	res := InterpretCoordinate(lat, lon)
	if c, ok := res.Get(); ok {
		lr.DecimalLatitude = &c.Lat
		lr.DecimalLongitude = &c.Lon
		lr.HasCoordinate = true
		return opdk.Done()
	}
	return opdk.Discard(res.Interpretation("coordinate"))
}

var elevationUnits = []struct {
	suffix string
	factor float64
}{
	{"metres", 1}, {"meters", 1}, {"m", 1},
	{"feet", 0.3048}, {"ft", 0.3048},
}

// InterpretElevation parses an elevation in metres. A unit suffix of metres
// or feet is accepted, feet being converted.
func InterpretElevation(raw string) opdk.Result[float64] {
	if isNull(raw) {
		return nulled[float64](opdk.ElevationNonNumeric, "elevation", "is null")
	}
	s := strings.ToLower(strings.TrimSpace(raw))
	factor := 1.0
	for _, u := range elevationUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			factor = u.factor
			break
		}
	}
	v, err := parseFloat(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nulled[float64](opdk.ElevationNonNumeric, "elevation", fmt.Sprintf("'%s' is not a number", strings.TrimSpace(raw)))
	}
	return opdk.Ok(v * factor)
}

// Elevation sets the elevation of a location record.
func Elevation(er *opdk.VerbatimRecord, lr *records.LocationRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcMinimumElevation, InterpretElevation, func(v float64) { lr.Elevation = &v })
}

// StateProvince sets the state or province of a location record.
func StateProvince(er *opdk.VerbatimRecord, lr *records.LocationRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcStateProvince, Trimmed, func(s string) { lr.StateProvince = s })
}

// Locality sets the locality of a location record.
func Locality(er *opdk.VerbatimRecord, lr *records.LocationRecord) opdk.Interpretation[struct{}] {
	return apply(er, opdk.DwcLocality, Trimmed, func(s string) { lr.Locality = s })
}
