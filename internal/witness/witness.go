// Package witness reconstructs one concrete justification for a
// decided CTL formula: a path of (component, node) pairs together with
// a short textual explanation, crossing box boundaries where an
// EU/EG/EX witness needs to continue into (or out of) a callee.
//
// A formula found false gets only a short explanation and no path;
// Generate returns an error when the formula is not decided at the
// initial node at all. Below the initial node, a missing
// interpretation entry is treated like an explicit false: a successor
// with no recorded value is never followed. A path that ends before a
// formula was ever decided at a node is still a valid (if inconclusive)
// witness prefix, exactly as if the formula had been decided false
// there.
package witness

import (
	"fmt"
	"strings"

	"github.com/rfielding/rsmcheck/internal/checker"
	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsm"
)

// Step names one state of a witness path.
type Step struct {
	Component string
	Node      string
}

func (s Step) String() string {
	return fmt.Sprintf("%s.%s", s.Component, s.Node)
}

// Witness is one justification for phi's decided value at the store's
// initial node: lines of prose naming the states (and, for EU/EG, the
// path) the justification turns on.
type Witness struct {
	Value bool
	Lines []string
}

func (w *Witness) String() string {
	return strings.Join(w.Lines, "\n")
}

// maxDepth bounds the recursion depth of explain; the path searches
// (findUntilPath, findCycle) are bounded by their visited sets instead.
// A genuine witness for a
// decided formula exists within the reachable, already-decided part of
// the store, which is finite; this is only a backstop against a
// decided-but-inconsistent store (a core bug, not a legitimate result).
const maxDepth = 10000

// Generate reconstructs a witness for phi at the store's initial
// contextualised component/node. phi must already be decided there.
func Generate(store *rsm.Store, phi *ctlparse.Formula) (*Witness, error) {
	v, ok := store.Initial.Get(store.InitialNode, phi)
	if !ok {
		return nil, fmt.Errorf("witness: %q is not decided at the initial node", phi.String())
	}
	w := &Witness{Value: v}
	g := &generator{w: w}
	g.explain(checker.NodeRef{CC: store.Initial, N: store.InitialNode}, phi, v, 0)
	return w, nil
}

type generator struct {
	w *Witness
}

func (g *generator) step(r checker.NodeRef) Step {
	return Step{Component: r.CC.Base.Name, Node: r.N.Name}
}

func (g *generator) emit(format string, args ...any) {
	g.w.Lines = append(g.w.Lines, fmt.Sprintf(format, args...))
}

// explain appends one or more explanation lines justifying why f has
// value v at r, recursing into subformulas and (for EU/EG/EX) into the
// successor path.
func (g *generator) explain(r checker.NodeRef, f *ctlparse.Formula, v bool, depth int) {
	if depth > maxDepth {
		g.emit("%s: reached the witness depth bound at %s, stopping", f.String(), g.step(r))
		return
	}

	switch f.Kind {
	case ctlparse.KindBool, ctlparse.KindAtom:
		g.emit("%s %s locally in %s", f.String(), holds(v), g.step(r))

	case ctlparse.KindNot:
		sub := f.Operands[0]
		subVal, ok := r.CC.Get(r.N, sub)
		g.emit("%s %s in %s because %s %s", f.String(), holds(v), g.step(r), sub.String(), holdsOrUnknown(subVal, ok))
		if ok {
			g.explain(r, sub, subVal, depth+1)
		}

	case ctlparse.KindAnd, ctlparse.KindOr:
		g.explainBoolean(r, f, v, depth)

	case ctlparse.KindExists:
		switch f.Path {
		case ctlparse.PathNext:
			g.explainNext(r, f, v, depth)
		case ctlparse.PathUntil:
			g.explainUntil(r, f, v, depth)
		case ctlparse.PathAlways:
			g.explainAlways(r, f, v, depth)
		}
	}
}

func (g *generator) explainBoolean(r checker.NodeRef, f *ctlparse.Formula, v bool, depth int) {
	wantDecisive := (f.Kind == ctlparse.KindOr && v) || (f.Kind == ctlparse.KindAnd && !v)
	if wantDecisive {
		for _, op := range f.Operands {
			opVal, ok := r.CC.Get(r.N, op)
			if ok && opVal == v {
				g.emit("%s %s in %s because %s also %s there", f.String(), holds(v), g.step(r), op.String(), holds(v))
				g.explain(r, op, opVal, depth+1)
				return
			}
		}
		g.emit("%s %s in %s", f.String(), holds(v), g.step(r))
		return
	}
	g.emit("%s %s in %s because every operand agrees", f.String(), holds(v), g.step(r))
	for _, op := range f.Operands {
		if opVal, ok := r.CC.Get(r.N, op); ok {
			g.explain(r, op, opVal, depth+1)
		}
	}
}

func (g *generator) explainNext(r checker.NodeRef, f *ctlparse.Formula, v bool, depth int) {
	psi := f.PathArgs[0]
	if !v {
		g.emit("%s does not hold in %s because no successor satisfies %s", f.String(), g.step(r), psi.String())
		return
	}
	for _, s := range checker.Successors(r.CC, r.N) {
		if val, ok := s.CC.Get(s.N, psi); ok && val {
			g.emit("%s holds in %s because %s holds in successor %s", f.String(), g.step(r), psi.String(), g.step(s))
			g.explain(s, psi, true, depth+1)
			return
		}
	}
	g.emit("%s holds in %s (witnessing successor not found — inconsistent store)", f.String(), g.step(r))
}

// explainUntil walks forward from r, each step requiring phi to still
// hold, until it finds a state where psi2 holds — the same search the
// pessimistic least-fixed-point computation performed, replayed here
// as a concrete path.
func (g *generator) explainUntil(r checker.NodeRef, f *ctlparse.Formula, v bool, depth int) {
	psi1, psi2 := f.PathArgs[0], f.PathArgs[1]
	if !v {
		g.emit("%s does not hold in %s", f.String(), g.step(r))
		return
	}
	path := g.findUntilPath(r, f, psi2, make(map[checker.NodeRef]bool))
	if path == nil {
		g.emit("%s holds in %s (witness path not found — inconsistent store)", f.String(), g.step(r))
		return
	}
	steps := make([]string, len(path))
	for i, p := range path {
		steps[i] = g.step(p).String()
	}
	g.emit("%s holds in %s because %s holds along %s and %s holds in %s",
		f.String(), g.step(r), psi1.String(), strings.Join(steps, " -> "), psi2.String(), g.step(path[len(path)-1]))
}

func (g *generator) findUntilPath(r checker.NodeRef, phi, psi2 *ctlparse.Formula, visited map[checker.NodeRef]bool) []checker.NodeRef {
	if visited[r] {
		return nil
	}
	visited[r] = true
	if v, ok := r.CC.Get(r.N, psi2); ok && v {
		return []checker.NodeRef{r}
	}
	for _, s := range checker.Successors(r.CC, r.N) {
		if v, ok := s.CC.Get(s.N, phi); !ok || !v {
			continue
		}
		if rest := g.findUntilPath(s, phi, psi2, visited); rest != nil {
			return append([]checker.NodeRef{r}, rest...)
		}
	}
	return nil
}

// explainAlways finds a cycle back to an already-visited state, all of
// whose members satisfy phi — the concrete infinite path EG asserts.
func (g *generator) explainAlways(r checker.NodeRef, f *ctlparse.Formula, v bool, depth int) {
	if !v {
		g.emit("%s does not hold in %s", f.String(), g.step(r))
		return
	}
	path, cycleStart := g.findCycle(r, f, nil, make(map[checker.NodeRef]int))
	if path == nil {
		g.emit("%s holds in %s (cycle not found — inconsistent store)", f.String(), g.step(r))
		return
	}
	steps := make([]string, len(path))
	for i, p := range path {
		steps[i] = g.step(p).String()
	}
	g.emit("%s holds in %s via the cycle %s -> %s (repeating from step %d)",
		f.String(), g.step(r), strings.Join(steps, " -> "), g.step(path[cycleStart]), cycleStart)
}

func (g *generator) findCycle(r checker.NodeRef, f *ctlparse.Formula, path []checker.NodeRef, index map[checker.NodeRef]int) ([]checker.NodeRef, int) {
	if idx, seen := index[r]; seen {
		if idx < 0 {
			return nil, 0 // searched before without finding a cycle
		}
		return path, idx
	}
	index[r] = len(path)
	path = append(path, r)
	psi := f.PathArgs[0]
	for _, s := range checker.Successors(r.CC, r.N) {
		if v, ok := s.CC.Get(s.N, psi); !ok || !v {
			continue
		}
		if full, idx := g.findCycle(s, f, path, index); full != nil {
			return full, idx
		}
	}
	index[r] = -1
	return nil, 0
}

func holds(v bool) string {
	if v {
		return "holds"
	}
	return "does not hold"
}

func holdsOrUnknown(v, ok bool) string {
	if !ok {
		return "is undecided"
	}
	return holds(v)
}
