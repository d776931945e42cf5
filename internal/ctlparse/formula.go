// Package ctlparse parses CTL formulas in the text grammar of the
// checker's formula files and reduces them to existential normal form
// (ENF): not, or, and, atomic propositions, EX, EG, EU.
package ctlparse

import "fmt"

// Kind identifies the shape of a Formula.
type Kind int

const (
	KindBool Kind = iota
	KindAtom
	KindNot
	KindAnd
	KindOr
	KindExists
)

// PathKind identifies the path operator wrapped by an Exists formula.
type PathKind int

const (
	PathNext PathKind = iota
	PathAlways
	PathUntil
)

// Formula is a node in a CTL formula tree in ENF. Formulas are
// interned (see Intern) so that structurally identical subformulas
// share the same pointer; downstream code keys maps by that pointer,
// not by content.
type Formula struct {
	Kind Kind

	// KindBool
	BoolValue bool

	// KindAtom
	Atom string

	// KindNot: Operands[0]. KindAnd/KindOr: Operands (>=2).
	Operands []*Formula

	// KindExists
	Path     PathKind
	PathArgs []*Formula // len 1 for Next/Always, len 2 for Until (phi1, phi2)

	str string // cached canonical string, used as the intern key
}

// StateOperands returns a formula's direct state-formula children —
// the operands of Not/And/Or, or (stripping the quantifier) the
// operands of the wrapped path formula for an Exists. Temporal
// operators never appear inside this list; only state formulas do.
func (f *Formula) StateOperands() []*Formula {
	switch f.Kind {
	case KindNot, KindAnd, KindOr:
		return f.Operands
	case KindExists:
		return f.PathArgs
	default:
		return nil
	}
}

// String renders the canonical textual form of the formula. Two
// formulas are structurally identical iff their String() values match.
func (f *Formula) String() string {
	if f.str != "" {
		return f.str
	}
	f.str = f.render()
	return f.str
}

func (f *Formula) render() string {
	switch f.Kind {
	case KindBool:
		if f.BoolValue {
			return "true"
		}
		return "false"
	case KindAtom:
		return f.Atom
	case KindNot:
		return "~" + wrap(f.Operands[0])
	case KindAnd:
		return join(f.Operands, "&")
	case KindOr:
		return join(f.Operands, "|")
	case KindExists:
		switch f.Path {
		case PathNext:
			return "E(X " + f.PathArgs[0].String() + ")"
		case PathAlways:
			return "E(G " + f.PathArgs[0].String() + ")"
		case PathUntil:
			return "E(" + f.PathArgs[0].String() + " U " + f.PathArgs[1].String() + ")"
		}
	}
	panic(fmt.Sprintf("ctlparse: formula with unknown kind %d", f.Kind))
}

func wrap(f *Formula) string {
	switch f.Kind {
	case KindBool, KindAtom, KindNot, KindExists:
		return f.String()
	default:
		return "(" + f.String() + ")"
	}
}

func join(ops []*Formula, sep string) string {
	s := ""
	for i, op := range ops {
		if i > 0 {
			s += " " + sep + " "
		}
		s += wrap(op)
	}
	return s
}

// IsExistential reports whether f is an EX/EG/EU formula.
func (f *Formula) IsExistential() bool {
	return f.Kind == KindExists
}
