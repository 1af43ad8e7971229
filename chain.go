package opdk

import (
	"github.com/pkg/errors"
)

// Step is one field-level interpretation applied to a target built from a
// source. It may set fields on target, and returns the traces of whatever
// went wrong. A Step never fails for a data problem.
type Step[S, T any] func(source S, target T) Interpretation[struct{}]

type link[S, T any] struct {
	gate func(S) bool
	step func(S, T) (Interpretation[struct{}], error)
}

// Chain threads a source and a target through an ordered sequence of steps
// and gates, accumulating the traces of every step. Chains are cheap and are
// meant to be built once per record; they are not safe for concurrent use.
//
//	in, ok, err := opdk.From(er, br).
//		When(hasTerms).
//		Via(interpreters.BasisOfRecord).
//		Via(interpreters.Sex).
//		Run()
type Chain[S, T any] struct {
	source S
	target T
	links  []link[S, T]
}

// From starts a chain interpreting source into target.
func From[S, T any](source S, target T) *Chain[S, T] {
	return &Chain[S, T]{source: source, target: target}
}

// When adds a gate. If pred returns false for the source, every step added
// after the gate is skipped. A closed gate is "not applicable", not a
// failure, and records nothing.
func (c *Chain[S, T]) When(pred func(S) bool) *Chain[S, T] {
	c.links = append(c.links, link[S, T]{gate: pred})
	return c
}

// Via adds a step.
func (c *Chain[S, T]) Via(step Step[S, T]) *Chain[S, T] {
	c.links = append(c.links, link[S, T]{step: func(s S, t T) (Interpretation[struct{}], error) {
		return step(s, t), nil
	}})
	return c
}

// ViaFunc adds a step which records no traces.
func (c *Chain[S, T]) ViaFunc(fn func(S, T)) *Chain[S, T] {
	c.links = append(c.links, link[S, T]{step: func(s S, t T) (Interpretation[struct{}], error) {
		fn(s, t)
		return Done(), nil
	}})
	return c
}

// ViaChecked adds a step which may fail for an environmental reason (an
// unreachable service, missing configuration). Such a failure stops the
// chain and is returned from Run. Data problems must not be reported this
// way.
func (c *Chain[S, T]) ViaChecked(fn func(S, T) (Interpretation[struct{}], error)) *Chain[S, T] {
	c.links = append(c.links, link[S, T]{step: fn})
	return c
}

// Run executes the chain in declared order. It returns the target with the
// traces of every executed step, whether every gate passed, and the first
// fatal error, if any. After a fatal error the returned Interpretation holds
// the traces gathered so far.
func (c *Chain[S, T]) Run() (Interpretation[T], bool, error) {
	acc := Done()
	for i, l := range c.links {
		if l.gate != nil {
			if !l.gate(c.source) {
				return Then(acc, Of(c.target)), false, nil
			}
			continue
		}
		in, err := l.step(c.source, c.target)
		if err != nil {
			return Then(acc, Of(c.target)), true, errors.Wrapf(err, "step %d", i)
		}
		acc = Then(acc, in)
	}
	return Then(acc, Of(c.target)), true, nil
}
