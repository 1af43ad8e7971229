package transforms

import (
	"github.com/biocache/opdk"
	"github.com/biocache/opdk/geohash"
	"github.com/biocache/opdk/interpreters"
	"github.com/biocache/opdk/kvs"
	"github.com/biocache/opdk/records"
	"github.com/biocache/opdk/uniquekey"
	"github.com/pkg/errors"
)

// Basic interprets basic records.
type Basic struct{ base }

// Convert implements Converter.
func (c *Basic) Convert(er *opdk.VerbatimRecord) (records.Record, bool, error) {
	br := &records.BasicRecord{ID: er.ID(), Created: c.created()}
	voc := c.cfg.Vocabulary
	in, _, err := opdk.From(er, br).
		Via(interpreters.BasisOfRecord).
		Via(interpreters.Sex).
		ViaChecked(interpreters.LifeStage(voc)).
		ViaChecked(interpreters.EstablishmentMeans(voc)).
		ViaChecked(interpreters.DegreeOfEstablishment(voc)).
		ViaChecked(interpreters.Pathway(voc)).
		Via(interpreters.IndividualCount).
		Via(interpreters.RecordedBy).
		Via(interpreters.TypeStatus).
		Run()
	if err != nil {
		return nil, false, errors.Wrapf(err, "interpreting basic record %s", er.ID())
	}
	return finish(&c.base, br, in), true, nil
}

// Location interprets location records.
type Location struct {
	base
	geohash geohash.Transformer
}

// Setup implements Converter.
func (c *Location) Setup() (err error) {
	c.geohash, err = geohash.New(c.cfg.GeohashPrecision)
	return errors.Wrap(err, "configuring geohash")
}

// Convert implements Converter.
func (c *Location) Convert(er *opdk.VerbatimRecord) (records.Record, bool, error) {
	lr := &records.LocationRecord{ID: er.ID(), Created: c.created()}
	in, _, err := opdk.From(er, lr).
		Via(interpreters.CountryOf).
		Via(interpreters.Continent).
		Via(interpreters.StateProvince).
		Via(interpreters.Locality).
		Via(interpreters.Coordinates).
		Via(c.geohash.Transform).
		Via(interpreters.Elevation).
		Run()
	if err != nil {
		return nil, false, errors.Wrapf(err, "interpreting location record %s", er.ID())
	}
	return finish(&c.base, lr, in), true, nil
}

// Temporal interprets temporal records.
type Temporal struct{ base }

// Convert implements Converter.
func (c *Temporal) Convert(er *opdk.VerbatimRecord) (records.Record, bool, error) {
	tr := &records.TemporalRecord{ID: er.ID(), Created: c.created()}
	in, _, err := opdk.From(er, tr).
		Via(interpreters.EventDate(c.cfg.Now)).
		Via(interpreters.StartDayOfYear).
		Via(interpreters.EndDayOfYear).
		Run()
	if err != nil {
		return nil, false, errors.Wrapf(err, "interpreting temporal record %s", er.ID())
	}
	return finish(&c.base, tr, in), true, nil
}

// Taxon interprets taxon records.
type Taxon struct{ base }

// Convert implements Converter.
func (c *Taxon) Convert(er *opdk.VerbatimRecord) (records.Record, bool, error) {
	tr := &records.TaxonRecord{ID: er.ID(), Created: c.created()}
	in, _, err := opdk.From(er, tr).
		ViaFunc(interpreters.Classification).
		Via(interpreters.TaxonRank).
		Run()
	if err != nil {
		return nil, false, errors.Wrapf(err, "interpreting taxon record %s", er.ID())
	}
	return finish(&c.base, tr, in), true, nil
}

// EventCore interprets sampling events. Records carrying no terms at all
// produce no event record.
type EventCore struct{ base }

func hasTerms(er *opdk.VerbatimRecord) bool { return !er.Empty() }

// Convert implements Converter.
func (c *EventCore) Convert(er *opdk.VerbatimRecord) (records.Record, bool, error) {
	ec := &records.EventCoreRecord{ID: er.ID(), Created: c.created()}
	in, ok, err := opdk.From(er, ec).
		When(hasTerms).
		ViaChecked(interpreters.EventType(c.cfg.Vocabulary)).
		Via(interpreters.ParentEventID).
		Via(interpreters.References).
		Via(interpreters.SampleSizeUnit).
		Via(interpreters.SampleSizeValue).
		Via(interpreters.License).
		Via(interpreters.DatasetID).
		Via(interpreters.DatasetName).
		Via(interpreters.SamplingProtocol).
		Run()
	if err != nil {
		return nil, false, errors.Wrapf(err, "interpreting event %s", er.ID())
	}
	if !ok {
		return nil, false, nil
	}
	return finish(&c.base, ec, in), true, nil
}

// Metadata attaches the dataset attribution to every record.
type Metadata struct {
	base
	md      kvs.Metadata
	license opdk.Result[string]
}

// Setup implements Converter. It fetches the dataset attribution once.
func (c *Metadata) Setup() (err error) {
	c.md, err = c.metadata()
	if err != nil {
		return err
	}
	if c.md.License != "" {
		c.license = interpreters.InterpretLicense(c.md.License)
	}
	return nil
}

// Convert implements Converter.
func (c *Metadata) Convert(er *opdk.VerbatimRecord) (records.Record, bool, error) {
	mr := &records.MetadataRecord{
		ID:           er.ID(),
		Created:      c.created(),
		DatasetKey:   c.cfg.DatasetID,
		DatasetTitle: c.md.Name,
		Publisher:    c.md.Publisher,
	}
	in := opdk.Done()
	if c.md.License != "" {
		if l, ok := c.license.Get(); ok {
			mr.License = l
		} else {
			in = opdk.Discard(c.license.Interpretation("license"))
		}
	}
	return finish(&c.base, mr, in), true, nil
}

// Multimedia interprets the media linked from records.
type Multimedia struct{ base }

// Convert implements Converter.
func (c *Multimedia) Convert(er *opdk.VerbatimRecord) (records.Record, bool, error) {
	mr := &records.MultimediaRecord{ID: er.ID(), Created: c.created()}
	in, _, err := opdk.From(er, mr).
		Via(interpreters.AssociatedMedia).
		Run()
	if err != nil {
		return nil, false, errors.Wrapf(err, "interpreting multimedia of %s", er.ID())
	}
	return finish(&c.base, mr, in), true, nil
}

// Identifier mints the stable identity of records from their unique key.
type Identifier struct {
	base
	minter *uniquekey.Minter
}

// Setup implements Converter. It reads the unique key configuration of the
// dataset; a dataset without unique key terms cannot be processed.
func (c *Identifier) Setup() error {
	if c.cfg.Identifiers == nil {
		return errors.New("identifier interpretation needs an identifier store")
	}
	md, err := c.metadata()
	if err != nil {
		return err
	}
	kc, err := uniquekey.ConfigFromMetadata(md)
	if err != nil {
		return errors.Wrap(err, "unable to proceed")
	}
	c.cfg.Log.Printf("Connection param: %v", kc)
	c.minter = uniquekey.NewMinter(kc, c.cfg.Identifiers,
		uniquekey.OptMinterStrict(c.cfg.StrictKeys),
		uniquekey.OptMinterClock(c.cfg.Now))
	return nil
}

// Convert implements Converter.
func (c *Identifier) Convert(er *opdk.VerbatimRecord) (records.Record, bool, error) {
	if c.minter == nil {
		return nil, false, errors.New("identifier converter used before Setup")
	}
	ir := &records.IdentifierRecord{ID: er.ID(), Created: c.created()}
	in, _, err := opdk.From(er, ir).
		ViaChecked(c.minter.Mint).
		Run()
	if err != nil {
		return nil, false, errors.Wrapf(err, "minting identity of %s", er.ID())
	}
	return finish(&c.base, ir, in), true, nil
}
