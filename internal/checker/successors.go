// Package checker implements the three-valued CTL evaluator over a
// contextualised RSM store: the local (L2) and existential (L3)
// evaluators and the exhaustive (L4a) and lazy (L4b) drivers.
package checker

import (
	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsm"
)

// NodeRef names a node together with the contextualised component its
// interpretation lives in. Successor sets cross component boundaries at
// call-ports, so a plain *rsm.Node is not enough to look up I[s][f].
type NodeRef struct {
	CC *rsm.CtxComponent
	N  *rsm.Node
}

// Successors returns n's successor set within cc: its ordinary
// intra-component transitions, or — when n is a call-port — the
// successors of the referenced entry node inside the contextualised
// component cc.BoxMap[n.Box] points to. A call-port never has its own
// intra-component transitions (the parser forbids a call-port as a
// transition source), so the two cases are mutually exclusive.
func Successors(cc *rsm.CtxComponent, n *rsm.Node) []NodeRef {
	if n.IsPureCallPort() {
		target := cc.BoxMap[n.Box]
		refSuccs := n.Ref.Successors()
		out := make([]NodeRef, len(refSuccs))
		for i, s := range refSuccs {
			out[i] = NodeRef{CC: target, N: s}
		}
		return out
	}
	succs := n.Successors()
	out := make([]NodeRef, len(succs))
	for i, s := range succs {
		out[i] = NodeRef{CC: cc, N: s}
	}
	return out
}

// allNodeRefs enumerates every (cc, node) pair across the whole store.
func allNodeRefs(store *rsm.Store) []NodeRef {
	var out []NodeRef
	for _, cc := range store.CtxComponents {
		for _, n := range cc.Base.AllNodes() {
			out = append(out, NodeRef{CC: cc, N: n})
		}
	}
	return out
}

// get reads I[n][f] through the CC/N pair.
func (r NodeRef) get(f *ctlparse.Formula) (bool, bool) {
	return r.CC.Get(r.N, f)
}

// decide writes I[n][f] = v through the CC/N pair.
func (r NodeRef) decide(f *ctlparse.Formula, v bool) bool {
	return r.CC.Decide(r.N, f, v)
}
