package checker

import (
	"github.com/rfielding/rsmcheck/internal/ctlparse"
	"github.com/rfielding/rsmcheck/internal/rsm"
)

// EvaluateEX runs the L3.1 EX rule across every contextualised
// component currently in the store, deciding I[n][phi] wherever
// possible without overwriting an existing decision.
func EvaluateEX(store *rsm.Store, phi *ctlparse.Formula) {
	psi := phi.PathArgs[0]
	for _, r := range allNodeRefs(store) {
		if _, ok := r.get(phi); ok {
			continue
		}
		if r.N.IsExit {
			if v, ok := r.CC.Ctx.Get(r.N, phi); ok {
				r.decide(phi, v)
				continue
			}
		}
		anyTrue := false
		allDecided := true
		for _, s := range Successors(r.CC, r.N) {
			v, ok := s.get(psi)
			if !ok {
				allDecided = false
				continue
			}
			if v {
				anyTrue = true
				break
			}
		}
		if anyTrue {
			r.decide(phi, true)
		} else if allDecided {
			r.decide(phi, false)
		}
	}
}

// EvaluateEU runs the L3.2 pessimistic and optimistic passes for
// phi = E(psi1 U psi2) across the whole store.
func EvaluateEU(store *rsm.Store, phi *ctlparse.Formula) {
	psi1, psi2 := phi.PathArgs[0], phi.PathArgs[1]
	all := allNodeRefs(store)

	pessimistic := growUntilFixedPoint(all, func(r NodeRef) (seed, candidate bool) {
		if v, ok := r.get(phi); ok && v {
			return true, false
		}
		if r.N.IsExit {
			if v, ok := r.CC.Ctx.Get(r.N, phi); ok && v {
				return true, false
			}
		}
		if v, ok := r.get(psi2); ok && v {
			return true, false
		}
		if v, ok := r.get(psi1); ok && v {
			return false, true
		}
		return false, false
	})
	for r := range pessimistic {
		r.decide(phi, true)
	}

	optimistic := growUntilFixedPoint(all, func(r NodeRef) (seed, candidate bool) {
		if v, ok := r.get(phi); ok && v {
			return true, false
		}
		if r.N.IsExit {
			if v, ok := r.CC.Ctx.Get(r.N, phi); !ok || v {
				return true, false
			}
		}
		if v, ok := r.get(psi2); !ok || v {
			return true, false
		}
		if v1, ok := r.get(psi1); ok && !v1 {
			return false, false
		}
		return false, true
	})

	for _, r := range all {
		if _, ok := r.get(phi); ok {
			continue
		}
		if !optimistic[r] {
			r.decide(phi, false)
		}
	}
}

// EvaluateEG runs the L3.2 pessimistic and optimistic passes for
// phi = EG psi across the whole store.
func EvaluateEG(store *rsm.Store, phi *ctlparse.Formula) {
	psi := phi.PathArgs[0]
	all := allNodeRefs(store)

	pessimistic := shrinkUntilFixedPoint(all, func(r NodeRef) bool {
		if v, ok := r.get(phi); ok && v {
			return true
		}
		if r.N.IsExit {
			if v, ok := r.CC.Ctx.Get(r.N, phi); ok && v {
				return true
			}
		}
		v, ok := r.get(psi)
		return ok && v
	}, func(r NodeRef) bool {
		if _, ok := r.get(phi); ok {
			return true
		}
		if r.N.IsExit {
			if v, ok := r.CC.Ctx.Get(r.N, phi); ok && v {
				return true
			}
		}
		return len(Successors(r.CC, r.N)) == 0
	})
	for r := range pessimistic {
		r.decide(phi, true)
	}

	optimistic := shrinkUntilFixedPoint(all, func(r NodeRef) bool {
		if v, ok := r.get(phi); ok && v {
			return true
		}
		if r.N.IsExit {
			if v, ok := r.CC.Ctx.Get(r.N, phi); !ok || v {
				return true
			}
		}
		v, ok := r.get(psi)
		return !ok || v
	}, func(r NodeRef) bool {
		if v, ok := r.get(phi); ok && v {
			return true
		}
		if r.N.IsExit {
			if v, ok := r.CC.Ctx.Get(r.N, phi); !ok || v {
				return true
			}
		}
		return len(Successors(r.CC, r.N)) == 0
	})

	for _, r := range all {
		if _, ok := r.get(phi); ok {
			continue
		}
		if !optimistic[r] {
			r.decide(phi, false)
		}
	}
}

// growUntilFixedPoint computes the least set containing every seed
// node plus every candidate node reachable backwards from the seed
// through a chain of Sat successors, by repeatedly scanning the
// candidate set until it stops changing. classify returns whether a
// node belongs to the initial seed, and (if not) whether it is even
// eligible to be grown into Sat later.
func growUntilFixedPoint(all []NodeRef, classify func(NodeRef) (seed, candidate bool)) map[NodeRef]bool {
	sat := make(map[NodeRef]bool)
	var candidates []NodeRef
	for _, r := range all {
		seed, candidate := classify(r)
		if seed {
			sat[r] = true
		} else if candidate {
			candidates = append(candidates, r)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, r := range candidates {
			if sat[r] {
				continue
			}
			for _, s := range Successors(r.CC, r.N) {
				if sat[s] {
					sat[r] = true
					changed = true
					break
				}
			}
		}
	}
	return sat
}

// shrinkUntilFixedPoint computes the greatest set containing every
// node for which seed holds, repeatedly dropping any member that has
// no successor still in the set, unless protect holds for it.
func shrinkUntilFixedPoint(all []NodeRef, seed func(NodeRef) bool, protect func(NodeRef) bool) map[NodeRef]bool {
	sat := make(map[NodeRef]bool)
	for _, r := range all {
		if seed(r) {
			sat[r] = true
		}
	}

	changed := true
	for changed {
		changed = false
		for r := range sat {
			if protect(r) {
				continue
			}
			hasSatSucc := false
			for _, s := range Successors(r.CC, r.N) {
				if sat[s] {
					hasSatSucc = true
					break
				}
			}
			if !hasSatSucc {
				delete(sat, r)
				changed = true
			}
		}
	}
	return sat
}
