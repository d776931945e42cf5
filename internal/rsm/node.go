// Package rsm implements the data model and contextualisation engine for
// recursive state machines: base components, nodes, boxes and the
// canonical arena of contextualised components keyed by (base, context).
package rsm

import "github.com/rfielding/rsmcheck/internal/ctlparse"

// BoxNodeKind distinguishes a box-node's role: the call-port view of one
// of the referenced component's entry nodes, or the return-port view of
// one of its exit nodes.
type BoxNodeKind int

const (
	// NotBoxNode marks an ordinary node of the owning component.
	NotBoxNode BoxNodeKind = iota
	CallPort
	ReturnPort
)

// Node is a state of a base component. A plain node has Box == nil. A
// box-node additionally carries the Box it belongs to, its Kind
// (call-port or return-port), and Ref — the node of the referenced
// component it wraps (an entry node for a call-port, an exit node for a
// return-port). A box-node's label set is inherited from Ref.
type Node struct {
	Component *Component
	Name      string
	Labels    map[string]bool

	IsEntry bool
	IsExit  bool

	Box  *Box
	Kind BoxNodeKind
	Ref  *Node
}

// IsBoxNode reports whether n is a call-port or return-port rather than
// an ordinary node.
func (n *Node) IsBoxNode() bool {
	return n.Box != nil
}

// HasLabel reports whether p is in n's label set, following Ref for
// box-nodes.
func (n *Node) HasLabel(p string) bool {
	if n.IsBoxNode() {
		return n.Ref.HasLabel(p)
	}
	return n.Labels[p]
}

// IsPureCallPort reports whether n is a call-port that is not also a
// return-port of the same box — i.e. the box's call and return node
// sets do not happen to designate the same underlying referenced node
// (which cannot occur in practice since entries and exits are
// disjoint, but the check mirrors the lazy driver's request protocol).
func (n *Node) IsPureCallPort() bool {
	return n.Box != nil && n.Kind == CallPort
}

// Successors returns n's plain intra-component successors: the
// transition targets recorded in the owning component's transition
// relation. It does not account for call-port box-crossing, which the
// existential evaluator layers on top (see checker.Successors).
func (n *Node) Successors() []*Node {
	return n.Component.Transitions[n]
}

// nodeFormulaMap is a three-valued sparse map from formula identity to
// truth value; absence means "unknown".
type nodeFormulaMap = map[*ctlparse.Formula]bool
