package checker

import (
	"testing"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsm"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) *ctlparse.Formula {
	t.Helper()
	f, err := ctlparse.ParseFormula(text)
	require.NoError(t, err)
	return f
}

// Scenario 1: single-component EX.
func TestScenarioSingleComponentEX(t *testing.T) {
	m := rsm.NewComponent("M")
	n0, err := m.AddNode("n0", nil, true, false)
	require.NoError(t, err)
	n1, err := m.AddNode("n1", []string{"b"}, false, true)
	require.NoError(t, err)
	require.NoError(t, m.AddTransition(n0, n1))

	store := rsm.NewStore()
	store.AddComponent(m)
	require.NoError(t, store.InitializeEmptyContexts("M", "n0"))

	decide := func(formula string) bool {
		phi := mustParse(t, formula)
		store := rsm.NewStore()
		store.AddComponent(m)
		require.NoError(t, store.InitializeEmptyContexts("M", "n0"))
		c := New(store, false, 1)
		c.InitializeForFormula(phi)
		res := c.RunExhaustive(phi)
		require.True(t, res.Decided)
		v, ok := c.Decided(phi)
		require.True(t, ok)
		return v
	}

	require.True(t, decide("E X b"))
	require.False(t, decide("E X a"))
}

// buildCallerCalleeWithSelfLoop builds the two-component RSM shared by scenarios 2
// and 3: M (entry m0, exit m1) calls P (entry p0, exit p1) through box
// B; P loops at an internal node (p_mid) before optionally reaching its
// exit, so that staying inside the callee forever is a genuine path.
func buildCallerCalleeWithSelfLoop(t *testing.T, m0Labels, m1Labels, p0Labels, p1Labels []string) *rsm.Store {
	t.Helper()
	p := rsm.NewComponent("P")
	p0, err := p.AddNode("p0", p0Labels, true, false)
	require.NoError(t, err)
	pMid, err := p.AddNode("p_mid", p0Labels, false, false)
	require.NoError(t, err)
	p1, err := p.AddNode("p1", p1Labels, false, true)
	require.NoError(t, err)
	require.NoError(t, p.AddTransition(p0, pMid))
	require.NoError(t, p.AddTransition(pMid, pMid))
	require.NoError(t, p.AddTransition(pMid, p1))

	m := rsm.NewComponent("M")
	m0, err := m.AddNode("m0", m0Labels, true, false)
	require.NoError(t, err)
	m1, err := m.AddNode("m1", m1Labels, false, true)
	require.NoError(t, err)
	b, err := m.AddBox("B", p, []string{"p0"}, []string{"p1"})
	require.NoError(t, err)
	require.NoError(t, m.AddTransition(m0, b.CallPorts[0]))
	require.NoError(t, m.AddTransition(b.ReturnPorts[0], m1))

	store := rsm.NewStore()
	store.AddComponent(p)
	store.AddComponent(m)
	require.NoError(t, store.InitializeEmptyContexts("M", "m0"))
	return store
}

// Scenario 2: recursive EG with a label holding everywhere.
func TestScenarioRecursiveEG(t *testing.T) {
	store := buildCallerCalleeWithSelfLoop(t, []string{"a"}, []string{"a"}, []string{"a"}, []string{"a"})
	phi := mustParse(t, "E G a")

	c := New(store, false, 1)
	c.InitializeForFormula(phi)
	res := c.RunExhaustive(phi)
	require.True(t, res.Decided)

	v, ok := c.Decided(phi)
	require.True(t, ok)
	require.True(t, v)
}

// Scenario 3: EU crossing a box, expecting exactly one lazy unpacking.
func TestScenarioEUCrossingBoxLazyUnpacksOnce(t *testing.T) {
	store := buildCallerCalleeWithSelfLoop(t, []string{"a"}, []string{"b"}, []string{"a"}, []string{"a"})
	phi := mustParse(t, "E (a U b)")

	c := New(store, false, 1)
	c.InitializeForFormula(phi)

	newBefore := store.NewContexts
	res := c.RunLazy(phi, Directed)
	require.True(t, res.Value)
	require.Equal(t, 1, store.NewContexts-newBefore)
}

// Scenario 4: negated existential.
func TestScenarioNegatedExistential(t *testing.T) {
	m := rsm.NewComponent("M")
	n0, err := m.AddNode("n0", nil, true, false)
	require.NoError(t, err)
	n1, err := m.AddNode("n1", nil, false, true) // no label "a"
	require.NoError(t, err)
	require.NoError(t, m.AddTransition(n0, n1))

	store := rsm.NewStore()
	store.AddComponent(m)
	require.NoError(t, store.InitializeEmptyContexts("M", "n0"))

	// ~EXa is not existential at the top level, so there is no exit
	// context to seed with InitializeForFormula.
	phi := mustParse(t, "~ E X a")
	c := New(store, false, 1)
	res := c.RunExhaustive(phi)
	require.True(t, res.Decided)

	v, ok := c.Decided(phi)
	require.True(t, ok)
	require.True(t, v)
}

// buildImplicitCycle builds a component whose only infinite paths run
// through a cycle between two non-entry nodes (n1, n2), reached from
// the entry n0 but never looping back through it — entries cannot be
// transition targets, so the cycle itself must live downstream of n0.
func buildImplicitCycle(t *testing.T, label []string) *rsm.Store {
	t.Helper()
	m := rsm.NewComponent("M")
	n0, err := m.AddNode("n0", label, true, false)
	require.NoError(t, err)
	n1, err := m.AddNode("n1", label, false, false)
	require.NoError(t, err)
	n2, err := m.AddNode("n2", label, false, false)
	require.NoError(t, err)
	require.NoError(t, m.AddTransition(n0, n1))
	require.NoError(t, m.AddTransition(n1, n2))
	require.NoError(t, m.AddTransition(n2, n1))

	store := rsm.NewStore()
	store.AddComponent(m)
	require.NoError(t, store.InitializeEmptyContexts("M", "n0"))
	return store
}

// Scenario 5: implicit cycle resolving EG to true. The pessimistic EG
// pass already keeps every node of the cycle, so the exhaustive driver
// decides it without its fixed-point tie-break.
func TestScenarioImplicitCycleEG(t *testing.T) {
	store := buildImplicitCycle(t, []string{"a"})
	phi := mustParse(t, "E G a")

	c := New(store, false, 1)
	c.InitializeForFormula(phi)
	res := c.RunExhaustive(phi)
	require.True(t, res.Decided)

	v, ok := c.Decided(phi)
	require.True(t, ok)
	require.True(t, v)
}

// Scenario 6: implicit cycle resolving EU to false. No node carries b,
// so the optimistic EU pass has no seed and decides false everywhere
// without the tie-break.
func TestScenarioImplicitCycleEUToFalse(t *testing.T) {
	store := buildImplicitCycle(t, []string{"a"})
	phi := mustParse(t, "E (a U b)")

	c := New(store, false, 1)
	c.InitializeForFormula(phi)
	res := c.RunExhaustive(phi)
	require.True(t, res.Decided)

	v, ok := c.Decided(phi)
	require.True(t, ok)
	require.False(t, v)
}

// The same implicit cycle, decided via the lazy DIRECTED driver, must
// agree with the exhaustive driver (the "exhaustive equals lazy"
// property of §8). Deduce-all already decides EG a at n0 here, so the
// driver returns before issuing any find_next request.
func TestScenarioImplicitCycleLazyAgreesWithExhaustive(t *testing.T) {
	store := buildImplicitCycle(t, []string{"a"})
	phi := mustParse(t, "E G a")

	c := New(store, false, 1)
	c.InitializeForFormula(phi)
	res := c.RunLazy(phi, Directed)
	require.True(t, res.Value)
}
