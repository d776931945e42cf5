package checker

import (
	"fmt"

	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsm"
)

// DecideLocal evaluates a propositional (non-temporal) formula at a
// single node against its currently-known operand values, writing the
// result into the node's interpretation when it becomes decidable. It
// returns true iff this call is the one that decided I[n][f].
//
// Temporal operators (EX/EG/EU) must never reach this function — that
// is a contract violation in the driver, so it panics rather than
// silently misbehaving.
func DecideLocal(cc *rsm.CtxComponent, n *rsm.Node, f *ctlparse.Formula) bool {
	if _, ok := cc.Get(n, f); ok {
		return false
	}
	switch f.Kind {
	case ctlparse.KindBool:
		return cc.Decide(n, f, f.BoolValue)
	case ctlparse.KindAtom:
		return cc.Decide(n, f, n.HasLabel(f.Atom))
	case ctlparse.KindNot:
		v, ok := cc.Get(n, f.Operands[0])
		if !ok {
			return false
		}
		return cc.Decide(n, f, !v)
	case ctlparse.KindAnd:
		allDecided := true
		for _, op := range f.Operands {
			v, ok := cc.Get(n, op)
			if !ok {
				allDecided = false
				continue
			}
			if !v {
				return cc.Decide(n, f, false)
			}
		}
		if allDecided {
			return cc.Decide(n, f, true)
		}
		return false
	case ctlparse.KindOr:
		allDecided := true
		for _, op := range f.Operands {
			v, ok := cc.Get(n, op)
			if !ok {
				allDecided = false
				continue
			}
			if v {
				return cc.Decide(n, f, true)
			}
		}
		if allDecided {
			return cc.Decide(n, f, false)
		}
		return false
	case ctlparse.KindExists:
		panic(fmt.Sprintf("checker: DecideLocal called on temporal formula %q", f.String()))
	default:
		panic(fmt.Sprintf("checker: DecideLocal called on formula of unknown kind %q", f.String()))
	}
}
