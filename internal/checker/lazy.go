package checker

import (
	"fmt"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsm"
)

// Heuristic selects how the lazy driver picks which box(es) to
// contextualise when Deduce-all leaves the initial node undecided.
type Heuristic int

const (
	// Directed runs find_next (GetNext): a single targeted unpack.
	Directed Heuristic = iota
	// Random picks uniformly among all boxes currently missing context
	// information the enclosing component already has.
	Random
	// All contextualises every such box in one step.
	All
)

// LazyResult reports the outcome of RunLazy.
type LazyResult struct {
	Value       bool
	NewContexts int
	Relabels    int
}

// unpackRequest names a single box to contextualise, discovered by
// find_next or one of the coarser heuristics.
type unpackRequest struct {
	CC *rsm.CtxComponent
	B  *rsm.Box
}

// DoubleRequest records a cycle detected during find_next: the request
// for formula F at R was already open further up the current recursion
// chain when it was requested again.
type DoubleRequest struct {
	R NodeRef
	F *ctlparse.Formula
}

// RunLazy decides phi at the initial node with minimum box unpacking,
// using the given heuristic whenever Deduce-all alone cannot resolve
// it. phi must already have been seeded via InitializeForFormula.
func (c *Checker) RunLazy(phi *ctlparse.Formula, heuristic Heuristic) LazyResult {
	for {
		c.DeduceAll(phi)
		if v, ok := c.Decided(phi); ok {
			return LazyResult{Value: v, NewContexts: c.Store.NewContexts, Relabels: c.Store.Relabels}
		}

		switch heuristic {
		case Directed:
			req, doubleRequests := c.findNext(c.Store.Initial, c.Store.InitialNode, phi)
			if req != nil {
				c.Store.ContextualiseBox(req.CC, req.B)
				c.Store.RemoveUnreachable()
				continue
			}
			if len(doubleRequests) == 0 {
				panic("checker: lazy driver (DIRECTED) returned no unpack request and no cycle — protocol error")
			}
			for dr := range doubleRequests {
				switch dr.F.Path {
				case ctlparse.PathAlways:
					dr.R.decide(dr.F, true)
				case ctlparse.PathUntil:
					dr.R.decide(dr.F, false)
				}
			}

		case Random:
			candidates := c.collectUnpackCandidates(phi)
			if len(candidates) == 0 {
				c.forceSmallestUndecided(phi)
				continue
			}
			key := c.pickRandom(candidates)
			c.Store.ContextualiseBox(key.CC, key.B)
			c.Store.RemoveUnreachable()

		case All:
			candidates := c.collectUnpackCandidates(phi)
			if len(candidates) == 0 {
				c.forceSmallestUndecided(phi)
				continue
			}
			for key := range candidates {
				c.Store.ContextualiseBox(key.CC, key.B)
			}
			c.Store.RemoveUnreachable()
		}
	}
}

// collectUnpackCandidates gathers every (cc, box) pair where some
// return-port of the box carries a decided existential subformula of
// phi in the enclosing component that the box's current target
// component's context does not yet assign at the corresponding exit.
func (c *Checker) collectUnpackCandidates(phi *ctlparse.Formula) map[boxKey]bool {
	out := make(map[boxKey]bool)
	subs := ctlparse.Subformulas(phi)
	for _, cc := range c.Store.CtxComponents {
		for _, b := range cc.Base.Boxes {
			target := cc.BoxMap[b]
			for _, rp := range b.ReturnPorts {
				for _, f := range subs {
					if !f.IsExistential() {
						continue
					}
					if _, ok := cc.Get(rp, f); !ok {
						continue
					}
					if _, ok := target.Ctx.Get(rp.Ref, f); !ok {
						out[boxKey{CC: cc, B: b}] = true
						break
					}
				}
			}
		}
	}
	return out
}

func (c *Checker) pickRandom(candidates map[boxKey]bool) boxKey {
	keys := make([]boxKey, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	return keys[c.rng.Intn(len(keys))]
}

// forceSmallestUndecided applies the fixed-point tie-break to the
// shallowest-depth existential subformula of phi that is still
// undecided at some node:
// EG defaults to true, EU to false. An EX reaching this point is the
// same open-question protocol error as in the exhaustive driver.
func (c *Checker) forceSmallestUndecided(phi *ctlparse.Formula) {
	for _, f := range ctlparse.Subformulas(phi) {
		if !f.IsExistential() {
			continue
		}
		if c.isGloballyDecided(f) {
			continue
		}
		var v bool
		switch f.Path {
		case ctlparse.PathAlways:
			v = true
		case ctlparse.PathUntil:
			v = false
		case ctlparse.PathNext:
			panic(fmt.Sprintf("checker: lazy driver reached a fixed point with EX formula %q still undecided", f.String()))
		}
		for _, cc := range c.Store.CtxComponents {
			for _, n := range cc.Base.AllNodes() {
				if _, ok := cc.Get(n, f); !ok {
					cc.Decide(n, f, v)
				}
			}
		}
		return
	}
}

// lazyState is the per-find_next-call bookkeeping of §4.5.1: which
// (component, node) pairs have been requested for each formula, the
// active recursion chain per formula (for cycle detection), and the
// stack of entered boxes/contextualised components.
type lazyState struct {
	requestedNodes map[*ctlparse.Formula]map[NodeRef]bool
	chain          map[*ctlparse.Formula][]NodeRef
	boxStack       []*rsm.Box
	componentStack []*rsm.CtxComponent
	doubleRequests map[DoubleRequest]bool
}

func (st *lazyState) isRequested(f *ctlparse.Formula, r NodeRef) bool {
	return st.requestedNodes[f][r]
}

func (st *lazyState) markRequested(f *ctlparse.Formula, r NodeRef) {
	if st.requestedNodes[f] == nil {
		st.requestedNodes[f] = make(map[NodeRef]bool)
	}
	st.requestedNodes[f][r] = true
}

func (st *lazyState) chainIndexOf(f *ctlparse.Formula, r NodeRef) int {
	for i, c := range st.chain[f] {
		if c == r {
			return i
		}
	}
	return -1
}

func (st *lazyState) registerDoubleRequestsFrom(f *ctlparse.Formula, idx int) {
	for i := idx; i < len(st.chain[f]); i++ {
		st.doubleRequests[DoubleRequest{R: st.chain[f][i], F: f}] = true
	}
}

// findNext runs the §4.5.1 request protocol starting at
// (initialCC, initialNode) for formula phi, returning either a single
// box to unpack or nil together with the double-requests observed.
func (c *Checker) findNext(initialCC *rsm.CtxComponent, initialNode *rsm.Node, phi *ctlparse.Formula) (*unpackRequest, map[DoubleRequest]bool) {
	st := &lazyState{
		requestedNodes: make(map[*ctlparse.Formula]map[NodeRef]bool),
		chain:          make(map[*ctlparse.Formula][]NodeRef),
		componentStack: []*rsm.CtxComponent{initialCC},
		doubleRequests: make(map[DoubleRequest]bool),
	}
	req := c.findNextRecurse(st, initialNode, phi)
	return req, st.doubleRequests
}

func (c *Checker) findNextRecurse(st *lazyState, node *rsm.Node, f *ctlparse.Formula) *unpackRequest {
	cc := st.componentStack[len(st.componentStack)-1]
	if _, ok := cc.Get(node, f); ok {
		panic(fmt.Sprintf("checker: find_next protocol error: formula %q already decided at %s.%s", f.String(), cc.Base.Name, node.Name))
	}

	r := NodeRef{CC: cc, N: node}
	st.markRequested(f, r)
	st.chain[f] = append(st.chain[f], r)
	defer func() { st.chain[f] = st.chain[f][:len(st.chain[f])-1] }()

	switch f.Kind {
	case ctlparse.KindNot:
		sub := f.Operands[0]
		if _, ok := cc.Get(node, sub); ok {
			return nil
		}
		if st.isRequested(sub, r) {
			return nil
		}
		return c.findNextRecurse(st, node, sub)

	case ctlparse.KindAnd, ctlparse.KindOr:
		ops := append([]*ctlparse.Formula(nil), f.Operands...)
		if c.Randomize {
			c.rng.Shuffle(len(ops), func(i, j int) { ops[i], ops[j] = ops[j], ops[i] })
		}
		for _, op := range ops {
			if _, ok := cc.Get(node, op); ok {
				continue
			}
			if st.isRequested(op, r) {
				continue
			}
			if res := c.findNextRecurse(st, node, op); res != nil {
				return res
			}
		}
		return nil

	case ctlparse.KindExists:
		switch {
		case node.IsExit:
			return c.findNextAtExit(st, node, f)
		case node.IsPureCallPort():
			return c.findNextAtCallPort(st, node, f)
		default:
			return c.findNextAlongPath(st, cc, node, f)
		}

	default:
		panic(fmt.Sprintf("checker: find_next reached a formula of unexpected kind %q (should already be decided)", f.String()))
	}
}

// findNextAtExit implements §4.5.1 rule 4: an exit node pairs with the
// box that was entered to reach it. If the enclosing caller already
// has a decision at the matching return-port, that is the unpack
// request; otherwise the search steps up into the caller and recurses
// on the return-port itself.
func (c *Checker) findNextAtExit(st *lazyState, node *rsm.Node, f *ctlparse.Formula) *unpackRequest {
	if len(st.boxStack) == 0 {
		return nil // no enclosing box: this exit cannot be refined further
	}
	box := st.boxStack[len(st.boxStack)-1]
	callerCC := st.componentStack[len(st.componentStack)-2]
	rn := box.ReturnPortFor(node)
	if rn == nil {
		return nil // box does not export this exit as a return node
	}
	if _, ok := callerCC.Get(rn, f); ok {
		return &unpackRequest{CC: callerCC, B: box}
	}

	savedBoxes, savedComponents := st.boxStack, st.componentStack
	st.boxStack = st.boxStack[:len(st.boxStack)-1]
	st.componentStack = st.componentStack[:len(st.componentStack)-1]
	res := c.findNextRecurse(st, rn, f)
	st.boxStack, st.componentStack = savedBoxes, savedComponents
	return res
}

// findNextAtCallPort implements §4.5.1 rule 5: entering a box pushes it
// and its target contextualised component, then recurses on the
// referenced entry node in that new context.
func (c *Checker) findNextAtCallPort(st *lazyState, node *rsm.Node, f *ctlparse.Formula) *unpackRequest {
	cc := st.componentStack[len(st.componentStack)-1]
	box := node.Box
	target := cc.BoxMap[box]

	savedBoxes, savedComponents := st.boxStack, st.componentStack
	st.boxStack = append(append([]*rsm.Box(nil), st.boxStack...), box)
	st.componentStack = append(append([]*rsm.CtxComponent(nil), st.componentStack...), target)
	res := c.findNextRecurse(st, node.Ref, f)
	st.boxStack, st.componentStack = savedBoxes, savedComponents
	return res
}

// findNextAlongPath implements §4.5.1 rule 6: the per-path-kind
// dependency order, for an ordinary node or a return-port (any node
// that isn't an exit or a pure call-port).
func (c *Checker) findNextAlongPath(st *lazyState, cc *rsm.CtxComponent, node *rsm.Node, f *ctlparse.Formula) *unpackRequest {
	switch f.Path {
	case ctlparse.PathNext:
		psi := f.PathArgs[0]
		succs := Successors(cc, node)
		if c.Randomize {
			c.rng.Shuffle(len(succs), func(i, j int) { succs[i], succs[j] = succs[j], succs[i] })
		}
		for _, s := range succs {
			if _, ok := s.get(psi); ok {
				continue
			}
			if res := c.findNextRecurse(st, s.N, psi); res != nil {
				return res
			}
		}
		return nil

	case ctlparse.PathAlways:
		psi := f.PathArgs[0]
		if _, ok := cc.Get(node, psi); !ok {
			if res := c.findNextRecurse(st, node, psi); res != nil {
				return res
			}
		}
		return c.findNextSuccessorsForFixedPoint(st, cc, node, f)

	case ctlparse.PathUntil:
		psi1, psi2 := f.PathArgs[0], f.PathArgs[1]
		if _, ok := cc.Get(node, psi2); !ok {
			if res := c.findNextRecurse(st, node, psi2); res != nil {
				return res
			}
		}
		if _, ok := cc.Get(node, psi1); !ok {
			if res := c.findNextRecurse(st, node, psi1); res != nil {
				return res
			}
		}
		return c.findNextSuccessorsForFixedPoint(st, cc, node, f)
	}
	return nil
}

// findNextSuccessorsForFixedPoint is the successor-recursion shared by
// EG and EU in rule 6: for each undecided successor not yet requested
// for f, recurse; a successor already requested and still open on the
// active chain is a cycle, recorded as a double-request for the whole
// cyclic segment.
func (c *Checker) findNextSuccessorsForFixedPoint(st *lazyState, cc *rsm.CtxComponent, node *rsm.Node, f *ctlparse.Formula) *unpackRequest {
	succs := Successors(cc, node)
	if c.Randomize {
		c.rng.Shuffle(len(succs), func(i, j int) { succs[i], succs[j] = succs[j], succs[i] })
	}
	for _, s := range succs {
		if _, ok := s.get(f); ok {
			continue
		}
		key := NodeRef{CC: s.CC, N: s.N}
		if !st.isRequested(f, key) {
			if res := c.findNextRecurse(st, s.N, f); res != nil {
				return res
			}
			continue
		}
		if idx := st.chainIndexOf(f, key); idx >= 0 {
			st.registerDoubleRequestsFrom(f, idx)
		}
	}
	return nil
}
