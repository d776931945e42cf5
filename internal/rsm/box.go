package rsm

// Box is a call site embedded in a base component: it references
// another (or the same) base component and selects subsets of that
// component's entry nodes (call nodes) and exit nodes (return nodes),
// each represented locally by a synthetic box-node.
type Box struct {
	Component *Component
	Name      string
	Ref       *Component

	// CallPorts and ReturnPorts are this box's box-nodes, in the order
	// the call/return node names were listed at load time.
	CallPorts   []*Node
	ReturnPorts []*Node
}

// ReturnPortFor returns the box's return-port wrapping the given exit
// node of Ref, or nil if the box does not export that exit.
func (b *Box) ReturnPortFor(exit *Node) *Node {
	for _, rp := range b.ReturnPorts {
		if rp.Ref == exit {
			return rp
		}
	}
	return nil
}
