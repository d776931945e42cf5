package checker

import (
	"fmt"
	"math/rand"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsm"
)

// Checker wraps an RSM store with the bookkeeping the L3/L4 drivers
// need across calls: which formulas have become globally decided (so
// Deduce-all can skip them) and the source of randomness used by the
// Random heuristic and, when running with randomised tie-breaking, for
// operand/successor shuffling.
type Checker struct {
	Store *rsm.Store

	Randomize bool
	rng       *rand.Rand

	known map[*ctlparse.Formula]bool
}

// New wraps store in a Checker. seed drives its random source: the
// Random heuristic always draws from it, the operand/successor
// shuffling only when randomize is true. Pass any fixed value for
// reproducible runs.
func New(store *rsm.Store, randomize bool, seed int64) *Checker {
	return &Checker{
		Store:     store,
		Randomize: randomize,
		rng:       rand.New(rand.NewSource(seed)),
		known:     make(map[*ctlparse.Formula]bool),
	}
}

// InitializeForFormula seeds the initial contextualised component with
// a context value for the top-level existential formula phi at every
// exit of the initial base component, computed with pure propositional
// semantics over the exit's labels (the exit treated as the last state
// on any path that stays inside the component). It then replaces
// Store.Initial with the extended component.
//
// phi must be an existential (EX/EG/EU) formula; calling this with a
// non-existential formula is a semantic precondition error.
func (c *Checker) InitializeForFormula(phi *ctlparse.Formula) {
	if !phi.IsExistential() {
		panic(fmt.Sprintf("checker: InitializeForFormula called with non-existential formula %q", phi.String()))
	}
	var sub *ctlparse.Formula
	switch phi.Path {
	case ctlparse.PathNext, ctlparse.PathAlways:
		sub = phi.PathArgs[0]
	case ctlparse.PathUntil:
		sub = phi.PathArgs[1]
	}

	newCtx := rsm.Context{}
	for _, ex := range c.Store.Initial.Base.Exits {
		newCtx.Set(ex, phi, exitSeedValue(ex, sub))
	}
	c.Store.Initial = c.Store.Extend(c.Store.Initial, newCtx)
}

// exitSeedValue computes f's classical (two-valued) propositional value
// at an exit node, using its label set. It recurses through temporal
// operators by taking the value of the operand the corresponding
// context entry would be seeded with — an EX/EG exit value is the
// value of its operand, an EU exit value is the value of its second
// operand — matching the "exit as last state" reading of §4.3.3.
func exitSeedValue(n *rsm.Node, f *ctlparse.Formula) bool {
	switch f.Kind {
	case ctlparse.KindBool:
		return f.BoolValue
	case ctlparse.KindAtom:
		return n.HasLabel(f.Atom)
	case ctlparse.KindNot:
		return !exitSeedValue(n, f.Operands[0])
	case ctlparse.KindAnd:
		for _, op := range f.Operands {
			if !exitSeedValue(n, op) {
				return false
			}
		}
		return true
	case ctlparse.KindOr:
		for _, op := range f.Operands {
			if exitSeedValue(n, op) {
				return true
			}
		}
		return false
	case ctlparse.KindExists:
		switch f.Path {
		case ctlparse.PathNext, ctlparse.PathAlways:
			return exitSeedValue(n, f.PathArgs[0])
		case ctlparse.PathUntil:
			return exitSeedValue(n, f.PathArgs[1])
		}
	}
	panic(fmt.Sprintf("checker: exitSeedValue: formula of unknown kind %q", f.String()))
}

// DeduceAll runs Deduce-all for phi: every subformula of phi, in
// increasing quantifier depth, is evaluated at every node of every
// contextualised component currently in the store — local evaluation
// for propositional subformulas, the matching L3 fixed point for each
// existential one. A subformula already decided everywhere is skipped.
func (c *Checker) DeduceAll(phi *ctlparse.Formula) {
	for _, f := range ctlparse.Subformulas(phi) {
		if c.known[f] {
			continue
		}
		if f.IsExistential() {
			switch f.Path {
			case ctlparse.PathNext:
				EvaluateEX(c.Store, f)
			case ctlparse.PathAlways:
				EvaluateEG(c.Store, f)
			case ctlparse.PathUntil:
				EvaluateEU(c.Store, f)
			}
		} else {
			for _, cc := range c.Store.CtxComponents {
				for _, n := range cc.Base.AllNodes() {
					DecideLocal(cc, n, f)
				}
			}
		}
		if c.isGloballyDecided(f) {
			c.known[f] = true
		}
	}
}

func (c *Checker) isGloballyDecided(f *ctlparse.Formula) bool {
	for _, cc := range c.Store.CtxComponents {
		for _, n := range cc.Base.AllNodes() {
			if _, ok := cc.Get(n, f); !ok {
				return false
			}
		}
	}
	return true
}

// Decided reports the decision at the initial node of the initial
// contextualised component for phi, if any.
func (c *Checker) Decided(phi *ctlparse.Formula) (bool, bool) {
	return c.Store.Initial.Get(c.Store.InitialNode, phi)
}
