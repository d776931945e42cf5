package rsm

import (
	"testing"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFormula(t *testing.T, text string) *ctlparse.Formula {
	t.Helper()
	f, err := ctlparse.ParseFormula(text)
	require.NoError(t, err)
	return f
}

func TestComponentTransitionSideConstraints(t *testing.T) {
	c := NewComponent("M")
	n0, err := c.AddNode("n0", nil, true, false)
	require.NoError(t, err)
	n1, err := c.AddNode("n1", []string{"b"}, false, true)
	require.NoError(t, err)

	require.NoError(t, c.AddTransition(n0, n1))
	assert.Error(t, c.AddTransition(n1, n0), "exit node cannot be a transition source")
	assert.Error(t, c.AddTransition(n0, n0bisEntry(c)), "entry node cannot be a transition target")
}

func n0bisEntry(c *Component) *Node {
	n, _ := c.AddNode("n0bis", nil, true, false)
	return n
}

func TestComponentBoxCallReturnValidation(t *testing.T) {
	p := NewComponent("P")
	p0, _ := p.AddNode("p0", []string{"a"}, true, false)
	p1, _ := p.AddNode("p1", []string{"a"}, false, true)
	require.NoError(t, p.AddTransition(p0, p1))

	m := NewComponent("M")
	_, err := m.AddBox("B", p, []string{"not-an-entry"}, []string{"p1"})
	assert.Error(t, err)

	b, err := m.AddBox("B", p, []string{"p0"}, []string{"p1"})
	require.NoError(t, err)
	require.Len(t, b.CallPorts, 1)
	require.Len(t, b.ReturnPorts, 1)
	assert.Equal(t, p0, b.CallPorts[0].Ref)
	assert.Equal(t, p1, b.ReturnPorts[0].Ref)
	assert.Equal(t, b, b.ReturnPorts[0].Box)
}

func TestContextEqualAndExtends(t *testing.T) {
	c := NewComponent("M")
	ex, _ := c.AddNode("ex", nil, false, true)
	fa := mustFormula(t, "E X a")
	fb := mustFormula(t, "E G b")

	base := Context{}
	base.Set(ex, fa, true)

	same := Context{}
	same.Set(ex, fa, true)
	assert.True(t, base.Equal(same))

	extended := Context{}
	extended.Set(ex, fa, true)
	extended.Set(ex, fb, false)
	assert.False(t, base.Equal(extended))
	assert.True(t, extended.Extends(base))
	assert.False(t, base.Extends(extended))

	contradicts := Context{}
	contradicts.Set(ex, fa, false)
	assert.False(t, contradicts.Extends(base))
}

func TestContextEncodeOracle(t *testing.T) {
	c := NewComponent("C")
	e0, _ := c.AddNode("e0", nil, false, true)
	e1, _ := c.AddNode("e1", nil, false, true)
	ega := mustFormula(t, "E G a")
	exb := mustFormula(t, "E X b")

	ctx := Context{}
	ctx.Set(e0, ega, true)
	ctx.Set(e1, exb, false)
	// e1's EG a is deliberately left unassigned ("?").

	got := ctx.Encode([]*Node{e1, e0}, []*ctlparse.Formula{exb, ega})
	assert.Equal(t, "_EGa/EXb/1?/?0", got)
}

// buildCallerCallee builds the two-component RSM used across the
// end-to-end contextualisation tests: M calls P through box B, P has
// entry p0 and exit p1, M has entry m0, box-node, exit m1.
func buildCallerCallee(t *testing.T) (*Store, *Component, *Component, *Box) {
	t.Helper()
	s := NewStore()

	p := NewComponent("P")
	p0, err := p.AddNode("p0", []string{"a"}, true, false)
	require.NoError(t, err)
	p1, err := p.AddNode("p1", []string{"a"}, false, true)
	require.NoError(t, err)
	require.NoError(t, p.AddTransition(p0, p1))
	s.AddComponent(p)

	m := NewComponent("M")
	m0, err := m.AddNode("m0", []string{"a"}, true, false)
	require.NoError(t, err)
	m1, err := m.AddNode("m1", []string{"a"}, false, true)
	require.NoError(t, err)
	b, err := m.AddBox("B", p, []string{"p0"}, []string{"p1"})
	require.NoError(t, err)
	require.NoError(t, m.AddTransition(m0, b.CallPorts[0]))
	require.NoError(t, m.AddTransition(b.ReturnPorts[0], m1))
	s.AddComponent(m)

	require.NoError(t, s.InitializeEmptyContexts("M", "m0"))
	return s, m, p, b
}

func TestStoreGetContextualisedCanonical(t *testing.T) {
	s, _, p, _ := buildCallerCallee(t)
	cc1, ok := s.GetContextualised(p, Context{})
	require.True(t, ok)
	cc2, ok := s.GetContextualised(p, Context{})
	require.True(t, ok)
	assert.Same(t, cc1, cc2)
}

func TestStoreExtendCopiesAndOverlays(t *testing.T) {
	s, _, p, _ := buildCallerCallee(t)
	base, _ := s.GetContextualised(p, Context{})
	p1 := p.NodeByName("p1")
	phi := mustFormula(t, "a")

	newCtx := Context{}
	newCtx.Set(p1, phi, true)
	extended := s.Extend(base, newCtx)

	assert.NotSame(t, base, extended)
	v, ok := extended.Get(p1, phi)
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = base.Get(p1, phi)
	assert.False(t, ok, "extend must not mutate the source component")
}

func TestStoreExtendPanicsOnNonExtension(t *testing.T) {
	s, _, p, _ := buildCallerCallee(t)
	p1 := p.NodeByName("p1")
	phi := mustFormula(t, "a")

	seeded := Context{}
	seeded.Set(p1, phi, true)
	base := s.Extend(s.Initial, seeded)
	_ = base

	conflicting := Context{}
	conflicting.Set(p1, phi, false)
	assert.Panics(t, func() {
		s.Extend(base, conflicting)
	})
}

func TestStoreContextualiseBoxCreatesThenRelabels(t *testing.T) {
	s, m, p, b := buildCallerCallee(t)
	initial, _ := s.GetContextualised(m, Context{})

	phi := mustFormula(t, "E X a")
	rp := b.ReturnPorts[0]
	initial.Decide(rp, phi, true)

	existed := s.ContextualiseBox(initial, b)
	assert.False(t, existed)
	assert.Equal(t, 1, s.NewContexts)

	target := initial.BoxMap[b]
	v, ok := target.Get(p.NodeByName("p1"), phi)
	require.True(t, ok)
	assert.True(t, v)

	existedAgain := s.ContextualiseBox(initial, b)
	assert.True(t, existedAgain)
	assert.Equal(t, 1, s.Relabels)
	assert.Same(t, target, initial.BoxMap[b])
}

func TestStoreRemoveUnreachable(t *testing.T) {
	s, m, _, b := buildCallerCallee(t)
	initial, _ := s.GetContextualised(m, Context{})

	phi := mustFormula(t, "E X a")
	initial.Decide(b.ReturnPorts[0], phi, true)
	s.ContextualiseBox(initial, b)

	before := len(s.CtxComponents)
	s.RemoveUnreachable()
	assert.LessOrEqual(t, len(s.CtxComponents), before)

	reachable := make(map[*CtxComponent]bool)
	queue := []*CtxComponent{s.Initial}
	reachable[s.Initial] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, target := range cur.BoxMap {
			reachable[target] = true
			queue = append(queue, target)
		}
	}
	for _, cc := range s.CtxComponents {
		assert.True(t, reachable[cc])
	}
}
