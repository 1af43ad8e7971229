// Package gen holds seeded, skewed random value generators. Values drawn
// with a cardinality follow a zipf distribution, so a few values are common
// and most are rare, as in real occurrence data.
package gen

import (
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"hash"
	"math/rand"
)

// Generator draws values from a single seeded source. It is not safe for
// concurrent use.
type Generator struct {
	r   *rand.Rand
	zs  map[int]*rand.Zipf
	hsh hash.Hash
}

// NewGenerator returns a Generator. The same seed always yields the same
// sequence of values.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		r:   rand.New(rand.NewSource(seed)),
		zs:  make(map[int]*rand.Zipf),
		hsh: sha1.New(),
	}
}

// String gets a zipfian random string from a set with the given cardinality.
func (g *Generator) String(length, cardinality int) string {
	if length > 32 {
		length = 32
	}

	val := g.Uint64(cardinality)

	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	_, _ = g.hsh.Write(b)
	hashed := g.hsh.Sum(nil)
	g.hsh.Reset()
	return base32.StdEncoding.EncodeToString(hashed)[:length]
}

// Uint64 gets a zipfian random uint64 in [0, cardinality).
func (g *Generator) Uint64(cardinality int) uint64 {
	if cardinality < 2 {
		return 0
	}
	z, ok := g.zs[cardinality]
	if !ok {
		// rand.Zipf generates values in [0, imax].
		imax := uint64(cardinality) - 1
		v := 0.05 * float64(imax)
		if v < 1.0 {
			v = 1.0
		}
		z = rand.NewZipf(g.r, 1.1, v, imax)
		g.zs[cardinality] = z
	}
	return z.Uint64()
}

// Pick returns a zipfian choice from values, favouring those listed first.
func (g *Generator) Pick(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[g.Uint64(len(values))]
}

// Chance returns true with probability p.
func (g *Generator) Chance(p float64) bool {
	return g.r.Float64() < p
}

// Intn returns a uniform int in [0, n).
func (g *Generator) Intn(n int) int {
	return g.r.Intn(n)
}

// Float returns a uniform float64 in [lo, hi).
func (g *Generator) Float(lo, hi float64) float64 {
	return lo + g.r.Float64()*(hi-lo)
}
