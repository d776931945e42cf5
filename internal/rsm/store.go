package rsm

import (
	"fmt"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
)

// Store is the RSM: the arena of base components plus the arena of
// contextualised components, keyed canonically by (base, context). It
// owns every component it creates; contextualised components hold only
// non-owning pointers back into the store's arenas.
type Store struct {
	Components      map[string]*Component
	CtxComponents   []*CtxComponent
	Initial         *CtxComponent
	InitialNode     *Node
	InitialBaseName string
	InitialNodeName string

	NewContexts int // total contextualised components created by ContextualiseBox
	Relabels    int // total times ContextualiseBox found an existing match
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{Components: make(map[string]*Component)}
}

// AddComponent registers a base component under its name.
func (s *Store) AddComponent(c *Component) {
	s.Components[c.Name] = c
}

// InitializeEmptyContexts creates one empty-context contextualised
// component per base component, wires every box-mapping to the
// matching empty-context instance of its referenced component, and
// sets the initial contextualised component and node by name. It must
// be called once, after all base components have been fully built.
func (s *Store) InitializeEmptyContexts(initialComponent, initialNode string) error {
	empties := make(map[*Component]*CtxComponent, len(s.Components))
	for _, c := range s.Components {
		cc := newCtxComponent(c, Context{})
		empties[c] = cc
		s.CtxComponents = append(s.CtxComponents, cc)
	}
	for _, c := range s.Components {
		cc := empties[c]
		for _, b := range c.Boxes {
			cc.BoxMap[b] = empties[b.Ref]
		}
	}

	base, ok := s.Components[initialComponent]
	if !ok {
		return fmt.Errorf("rsm: unknown initial component %q", initialComponent)
	}
	node := base.NodeByName(initialNode)
	if node == nil {
		return fmt.Errorf("rsm: unknown initial node %q in component %q", initialNode, initialComponent)
	}
	s.Initial = empties[base]
	s.InitialNode = node
	s.InitialBaseName = initialComponent
	s.InitialNodeName = initialNode
	return nil
}

// GetContextualised returns the unique canonical contextualised
// component for (base, ctx), if one has already been created.
func (s *Store) GetContextualised(base *Component, ctx Context) (*CtxComponent, bool) {
	for _, cc := range s.CtxComponents {
		if cc.Base == base && cc.Ctx.Equal(ctx) {
			return cc, true
		}
	}
	return nil, false
}

// Extend creates a fresh contextualised component whose interpretation
// and box-mapping are copied from src, then overlays newCtx onto the
// interpretation at the exit nodes it names. newCtx must be a strict
// extension of src.Ctx; violating this is a core bug, so Extend panics
// rather than returning an error.
func (s *Store) Extend(src *CtxComponent, newCtx Context) *CtxComponent {
	if !newCtx.Extends(src.Ctx) {
		panic("rsm: extend called with a non-extending context")
	}
	cc := newCtxComponent(src.Base, newCtx.Clone())
	for b, target := range src.BoxMap {
		cc.BoxMap[b] = target
	}
	for n, m := range src.Interp {
		nm := make(nodeFormulaMap, len(m))
		for f, v := range m {
			nm[f] = v
		}
		cc.Interp[n] = nm
	}
	for ex, m := range newCtx {
		for f, v := range m {
			cc.Decide(ex, f, v)
		}
	}
	s.CtxComponents = append(s.CtxComponents, cc)
	return cc
}

// ContextualiseBox is the central contextualisation operation: it
// refines box b's target (boxMap[b]) to the contextualised component
// whose context matches the truth values currently known at b's return
// ports, creating that component if it does not exist yet.
//
// existed reports whether a matching contextualised component already
// existed (a "relabel") as opposed to being freshly created.
func (s *Store) ContextualiseBox(cc *CtxComponent, b *Box) (existed bool) {
	target := cc.BoxMap[b]

	candidate := Context{}
	for _, rp := range b.ReturnPorts {
		exit := rp.Ref
		m, ok := cc.Interp[rp]
		if !ok {
			continue
		}
		for f, v := range m {
			if f.IsExistential() {
				candidate.Set(exit, f, v)
			}
		}
	}

	if existing, ok := s.GetContextualised(target.Base, candidate); ok {
		cc.BoxMap[b] = existing
		s.Relabels++
		return true
	}

	extended := s.Extend(target, candidate)
	cc.BoxMap[b] = extended
	s.NewContexts++
	return false
}

// RemoveUnreachable drops every contextualised component not reachable
// from the initial one via the transitive closure of box-mappings.
func (s *Store) RemoveUnreachable() {
	reachable := make(map[*CtxComponent]bool)
	queue := []*CtxComponent{s.Initial}
	reachable[s.Initial] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, target := range cur.BoxMap {
			if !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}
	}
	kept := s.CtxComponents[:0]
	for _, cc := range s.CtxComponents {
		if reachable[cc] {
			kept = append(kept, cc)
		}
	}
	s.CtxComponents = kept
}

// AllFormulasIn returns, for diagnostics, the existential formulas
// currently recorded anywhere in cc's interpretation — used to build
// the set passed to Context.Encode.
func AllFormulasIn(cc *CtxComponent) []*ctlparse.Formula {
	seen := make(map[*ctlparse.Formula]bool)
	var out []*ctlparse.Formula
	for _, m := range cc.Interp {
		for f := range m {
			if f.IsExistential() && !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}
