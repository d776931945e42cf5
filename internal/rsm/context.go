package rsm

import (
	"sort"
	"strings"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
)

// Context maps an exit node of a base component to the existential
// formulas it assigns truth values to. It represents an assumption
// about how a caller will observe the component's returned state.
type Context map[*Node]map[*ctlparse.Formula]bool

// Get returns the value γ[ex][φ] and whether it is present.
func (c Context) Get(ex *Node, f *ctlparse.Formula) (bool, bool) {
	m, ok := c[ex]
	if !ok {
		return false, false
	}
	v, ok := m[f]
	return v, ok
}

// Set records γ[ex][φ] = v, creating the per-exit map if needed.
func (c Context) Set(ex *Node, f *ctlparse.Formula, v bool) {
	m, ok := c[ex]
	if !ok {
		m = make(map[*ctlparse.Formula]bool)
		c[ex] = m
	}
	m[f] = v
}

// Equal reports whether two contexts assign exactly the same values to
// exactly the same (exit, formula) pairs. Contextualised components are
// canonical on this equality, never on the encoded string form.
func (c Context) Equal(other Context) bool {
	count := func(ctx Context) int {
		n := 0
		for _, m := range ctx {
			n += len(m)
		}
		return n
	}
	if count(c) != count(other) {
		return false
	}
	for ex, m := range c {
		om, ok := other[ex]
		if !ok {
			return false
		}
		for f, v := range m {
			ov, ok := om[f]
			if !ok || ov != v {
				return false
			}
		}
	}
	return true
}

// Extends reports whether c is a strict extension of base: every
// (exit, formula) pair assigned in base has the same value in c. c is
// permitted to assign additional pairs base leaves unassigned.
func (c Context) Extends(base Context) bool {
	for ex, m := range base {
		cm, ok := c[ex]
		if !ok {
			return false
		}
		for f, v := range m {
			cv, ok := cm[f]
			if !ok || cv != v {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of c.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for ex, m := range c {
		nm := make(map[*ctlparse.Formula]bool, len(m))
		for f, v := range m {
			nm[f] = v
		}
		out[ex] = nm
	}
	return out
}

// Encode produces the canonical logging name-appendix for a context:
// "_" followed by the slash-joined compact names of the formulas (sorted),
// then one slash-separated group per exit node (sorted by name), each
// group emitting "1"/"0"/"?" for that exit against every formula in the
// same order as the header. Matches the oracle form "_EGa/EXb/1?/?0"
// for exits [e0, e1] and formulas [EG a, EX b] with
// γ = {e0: {EG a: true}, e1: {EX b: false, EG a: ?}}.
//
// This string is for diagnostics only — contextualised-component
// identity is structural (Context.Equal), never the encoded form.
func (c Context) Encode(exits []*Node, formulas []*ctlparse.Formula) string {
	sortedExits := append([]*Node(nil), exits...)
	sort.Slice(sortedExits, func(i, j int) bool { return sortedExits[i].Name < sortedExits[j].Name })

	sortedFormulas := append([]*ctlparse.Formula(nil), formulas...)
	sort.Slice(sortedFormulas, func(i, j int) bool { return compactFormula(sortedFormulas[i]) < compactFormula(sortedFormulas[j]) })

	parts := make([]string, 0, len(sortedFormulas)+len(sortedExits))
	for _, f := range sortedFormulas {
		parts = append(parts, compactFormula(f))
	}
	for _, ex := range sortedExits {
		var g strings.Builder
		for _, f := range sortedFormulas {
			v, ok := c.Get(ex, f)
			switch {
			case !ok:
				g.WriteByte('?')
			case v:
				g.WriteByte('1')
			default:
				g.WriteByte('0')
			}
		}
		parts = append(parts, g.String())
	}
	return "_" + strings.Join(parts, "/")
}

// compactFormula renders a formula without spaces or quantifier
// parentheses, condensing EX/EG to two-letter prefixes — the form used
// by Context.Encode, distinct from (*ctlparse.Formula).String().
func compactFormula(f *ctlparse.Formula) string {
	switch f.Kind {
	case ctlparse.KindBool:
		if f.BoolValue {
			return "true"
		}
		return "false"
	case ctlparse.KindAtom:
		return f.Atom
	case ctlparse.KindNot:
		return "~" + compactWrap(f.Operands[0])
	case ctlparse.KindAnd:
		return compactJoin(f.Operands, "&")
	case ctlparse.KindOr:
		return compactJoin(f.Operands, "|")
	case ctlparse.KindExists:
		switch f.Path {
		case ctlparse.PathNext:
			return "EX" + compactWrap(f.PathArgs[0])
		case ctlparse.PathAlways:
			return "EG" + compactWrap(f.PathArgs[0])
		case ctlparse.PathUntil:
			return "E(" + compactFormula(f.PathArgs[0]) + "U" + compactFormula(f.PathArgs[1]) + ")"
		}
	}
	return f.String()
}

func compactWrap(f *ctlparse.Formula) string {
	switch f.Kind {
	case ctlparse.KindBool, ctlparse.KindAtom:
		return compactFormula(f)
	default:
		return "(" + compactFormula(f) + ")"
	}
}

func compactJoin(ops []*ctlparse.Formula, sep string) string {
	var b strings.Builder
	for i, op := range ops {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(compactWrap(op))
	}
	return b.String()
}
