package checker

import (
	"fmt"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsm"
)

// boxKey identifies a (contextualised component, box) pair for the
// purpose of tracking the exhaustive driver's unpack set between
// iterations.
type boxKey struct {
	CC *rsm.CtxComponent
	B  *rsm.Box
}

// ExhaustiveResult reports the outcome of RunExhaustive, including the
// counters §4.4 asks drivers to track.
type ExhaustiveResult struct {
	Decided     bool
	NewContexts int
	Relabels    int
	TieBroken   bool
}

// RunExhaustive fully contextualises the machine with respect to phi:
// it repeatedly deduces everything derivable, unpacks every box whose
// target component's context is missing phi at a return-wrapped exit,
// and stops either once phi is decided everywhere or once the unpack
// set stops changing (forcing the least/greatest-fixed-point tie-break).
//
// phi must already have been seeded via InitializeForFormula.
func (c *Checker) RunExhaustive(phi *ctlparse.Formula) ExhaustiveResult {
	var prevUnpack map[boxKey]bool

	for {
		c.DeduceAll(phi)
		c.Store.RemoveUnreachable()

		toUnpack := c.computeToUnpack(phi)

		if c.globallyDecidedNow(phi) {
			return c.finishExhaustive(false)
		}

		if sameUnpackSet(prevUnpack, toUnpack) {
			c.tieBreak(phi)
			return c.finishExhaustive(true)
		}

		for key := range toUnpack {
			c.Store.ContextualiseBox(key.CC, key.B)
		}
		prevUnpack = toUnpack
	}
}

func (c *Checker) finishExhaustive(tieBroken bool) ExhaustiveResult {
	return ExhaustiveResult{
		Decided:     true,
		NewContexts: c.Store.NewContexts,
		Relabels:    c.Store.Relabels,
		TieBroken:   tieBroken,
	}
}

// computeToUnpack is the §4.4 step 3 set: every (cc, box) pair where
// some return-port of the box wraps an exit that the box's current
// target component's context does not yet assign phi at.
func (c *Checker) computeToUnpack(phi *ctlparse.Formula) map[boxKey]bool {
	out := make(map[boxKey]bool)
	for _, cc := range c.Store.CtxComponents {
		for _, b := range cc.Base.Boxes {
			target := cc.BoxMap[b]
			for _, rp := range b.ReturnPorts {
				if _, ok := target.Ctx.Get(rp.Ref, phi); !ok {
					out[boxKey{CC: cc, B: b}] = true
					break
				}
			}
		}
	}
	return out
}

func sameUnpackSet(a, b map[boxKey]bool) bool {
	if a == nil {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// globallyDecidedNow reports whether phi is decided at every node of
// every contextualised component in the store.
func (c *Checker) globallyDecidedNow(phi *ctlparse.Formula) bool {
	for _, cc := range c.Store.CtxComponents {
		for _, n := range cc.Base.AllNodes() {
			if _, ok := cc.Get(n, phi); !ok {
				return false
			}
		}
	}
	return true
}

// tieBreak forces a decision for every still-undecided occurrence of
// phi once the unpack set stabilises, resolving the implicit global
// cycle by the least/greatest fixed point semantics: EG defaults to
// true, EU defaults to false. phi's outermost operator must be EG or
// EU for this to be reachable; an EX reaching a fixed point without a
// decision is a protocol error (see the design notes on this open
// question).
func (c *Checker) tieBreak(phi *ctlparse.Formula) {
	var v bool
	switch phi.Path {
	case ctlparse.PathAlways:
		v = true
	case ctlparse.PathUntil:
		v = false
	case ctlparse.PathNext:
		panic(fmt.Sprintf("checker: exhaustive driver reached a fixed point with EX formula %q still undecided", phi.String()))
	}
	for _, cc := range c.Store.CtxComponents {
		for _, n := range cc.Base.AllNodes() {
			if _, ok := cc.Get(n, phi); !ok {
				cc.Decide(n, phi, v)
			}
		}
	}
}
