// Package geohash adds the geohash of an interpreted coordinate to a
// location record.
package geohash

import (
	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
	"github.com/mmcloughlin/geohash"
	"github.com/pkg/errors"
)

// DefaultPrecision is the geohash length used when none is configured,
// roughly a 5m cell.
const DefaultPrecision uint = 9

// MaxPrecision is the longest geohash supported.
const MaxPrecision uint = 12

// Transformer hashes the coordinate of a location record.
type Transformer struct {
	precision uint
}

// New returns a Transformer producing hashes of the given length. Zero
// selects DefaultPrecision.
func New(precision uint) (Transformer, error) {
	if precision == 0 {
		precision = DefaultPrecision
	}
	if precision > MaxPrecision {
		return Transformer{}, errors.Errorf("geohash precision %d out of range 1-%d", precision, MaxPrecision)
	}
	return Transformer{precision: precision}, nil
}

// Precision returns the length of the hashes produced.
func (t Transformer) Precision() uint {
	if t.precision == 0 {
		return DefaultPrecision
	}
	return t.precision
}

// Transform sets the geohash of the record's coordinate. Records without a
// valid coordinate are left alone; their coordinate interpreter has already
// explained why.
func (t Transformer) Transform(_ *opdk.VerbatimRecord, lr *records.LocationRecord) opdk.Interpretation[struct{}] {
	if !lr.HasCoordinate || lr.DecimalLatitude == nil || lr.DecimalLongitude == nil {
		return opdk.Done()
	}
	lr.Geohash = Encode(*lr.DecimalLatitude, *lr.DecimalLongitude, t.Precision())
	return opdk.Done()
}

// Encode hashes a coordinate to a string of the given length.
func Encode(lat, lon float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}
