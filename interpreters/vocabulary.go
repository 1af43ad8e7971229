package interpreters

import (
	"github.com/biocache/opdk"
	"github.com/biocache/opdk/records"
	"github.com/biocache/opdk/vocabulary"
)

// CheckedStep is a step which may fail for an environmental reason, for use
// with opdk.Chain.ViaChecked.
type CheckedStep[T any] func(*opdk.VerbatimRecord, T) (opdk.Interpretation[struct{}], error)

func concept[T any](r vocabulary.Resolver, term opdk.Term, set func(T, *opdk.VocabularyConcept)) CheckedStep[T] {
	return func(er *opdk.VerbatimRecord, target T) (opdk.Interpretation[struct{}], error) {
		raw, _ := er.NullAwareValue(term)
		in, err := r.Resolve(term, raw)
		if err != nil {
			return opdk.Done(), err
		}
		if c := in.Value(); c != nil {
			set(target, c)
		}
		return opdk.Discard(in), nil
	}
}

// LifeStage resolves the life stage of a basic record.
func LifeStage(r vocabulary.Resolver) CheckedStep[*records.BasicRecord] {
	return concept(r, opdk.DwcLifeStage, func(br *records.BasicRecord, c *opdk.VocabularyConcept) { br.LifeStage = c })
}

// EstablishmentMeans resolves the establishment means of a basic record.
func EstablishmentMeans(r vocabulary.Resolver) CheckedStep[*records.BasicRecord] {
	return concept(r, opdk.DwcEstablishmentMeans, func(br *records.BasicRecord, c *opdk.VocabularyConcept) { br.EstablishmentMeans = c })
}

// DegreeOfEstablishment resolves the degree of establishment of a basic
// record.
func DegreeOfEstablishment(r vocabulary.Resolver) CheckedStep[*records.BasicRecord] {
	return concept(r, opdk.DwcDegreeOfEstablishment, func(br *records.BasicRecord, c *opdk.VocabularyConcept) { br.DegreeOfEstablishment = c })
}

// Pathway resolves the introduction pathway of a basic record.
func Pathway(r vocabulary.Resolver) CheckedStep[*records.BasicRecord] {
	return concept(r, opdk.DwcPathway, func(br *records.BasicRecord, c *opdk.VocabularyConcept) { br.Pathway = c })
}

// EventType resolves the event type of an event.
func EventType(r vocabulary.Resolver) CheckedStep[*records.EventCoreRecord] {
	return concept(r, opdk.GbifEventType, func(ec *records.EventCoreRecord, c *opdk.VocabularyConcept) { ec.EventType = c })
}
