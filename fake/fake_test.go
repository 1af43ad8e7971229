package fake_test

import (
	"io"
	"testing"

	"github.com/biocache/opdk"
	"github.com/biocache/opdk/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrenceGenerator(t *testing.T) {
	a := fake.NewOccurrenceGenerator(3, fake.DefaultNoise)
	b := fake.NewOccurrenceGenerator(3, fake.DefaultNoise)
	for i := 0; i < 20; i++ {
		ra, rb := a.Occurrence(), b.Occurrence()
		assert.Equal(t, ra.Terms(), rb.Terms())
		assert.Equal(t, ra.ID(), ra.Value(opdk.DwcOccurrenceID))
		_, ok := ra.NullAwareValue(opdk.DwcCountry)
		assert.True(t, ok, "country is always generated")
	}
}

func TestOccurrenceGeneratorNoise(t *testing.T) {
	clean := fake.NewOccurrenceGenerator(1, 0)
	for i := 0; i < 200; i++ {
		switch v := clean.Occurrence().Value(opdk.DwcCountry); v {
		case "Narnia", "Republic of X":
			t.Fatalf("noise-free generator produced %q", v)
		}
	}

	messy := fake.NewOccurrenceGenerator(1, 1)
	for i := 0; i < 20; i++ {
		v := messy.Occurrence().Value(opdk.DwcBasisOfRecord)
		assert.Contains(t, []string{"specimen?", "photo"}, v)
	}
}

func TestSource(t *testing.T) {
	src := fake.NewSource(9, fake.DefaultNoise, 3)
	var ids []string
	for {
		er, err := src.Record()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, er.ID())
	}
	assert.Equal(t, []string{"occ-0", "occ-1", "occ-2"}, ids)
}
