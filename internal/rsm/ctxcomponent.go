package rsm

import "github.com/rfielding/rsmcheck/internal/ctlparse"

// CtxComponent is a base component paired with a context: a box-mapping
// to other contextualised components, and an interpretation recording
// the truth values decided so far at each of its nodes. Two
// contextualised components are canonical on (Base, Ctx) — see
// Store.GetContextualised — never on object identity alone; callers
// must always go through the store to obtain one.
type CtxComponent struct {
	Base   *Component
	Ctx    Context
	BoxMap map[*Box]*CtxComponent
	Interp map[*Node]nodeFormulaMap
}

// newCtxComponent builds a contextualised component with an empty
// interpretation and an empty box-mapping. The caller fills BoxMap,
// since its targets depend on the rest of the store having been built
// already.
func newCtxComponent(base *Component, ctx Context) *CtxComponent {
	return &CtxComponent{
		Base:   base,
		Ctx:    ctx,
		BoxMap: make(map[*Box]*CtxComponent),
		Interp: make(map[*Node]nodeFormulaMap),
	}
}

// Get returns I[n][f] and whether it is decided.
func (cc *CtxComponent) Get(n *Node, f *ctlparse.Formula) (bool, bool) {
	m, ok := cc.Interp[n]
	if !ok {
		return false, false
	}
	v, ok := m[f]
	return v, ok
}

// Decide records I[n][f] = v if undecided, returning true if this call
// is the one that decided it. Decisions are monotone: a second call
// with a different value panics, since that indicates a bug upstream
// rather than a legitimate re-derivation.
func (cc *CtxComponent) Decide(n *Node, f *ctlparse.Formula, v bool) bool {
	m, ok := cc.Interp[n]
	if !ok {
		m = make(nodeFormulaMap)
		cc.Interp[n] = m
	}
	if existing, ok := m[f]; ok {
		if existing != v {
			panic("rsm: monotone decision invariant violated")
		}
		return false
	}
	m[f] = v
	return true
}
