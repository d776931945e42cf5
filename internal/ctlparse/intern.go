package ctlparse

// interner canonicalises structurally identical formula nodes built up
// during the parse of a single formula line, so that two occurrences of
// the same subformula share one *Formula — downstream evaluators key
// their interpretation maps by pointer identity.
type interner struct {
	seen map[string]*Formula
}

func newInterner() *interner {
	return &interner{seen: make(map[string]*Formula)}
}

func (in *interner) canon(f *Formula) *Formula {
	key := f.String()
	if existing, ok := in.seen[key]; ok {
		return existing
	}
	in.seen[key] = f
	return f
}

func (in *interner) boolF(v bool) *Formula {
	return in.canon(&Formula{Kind: KindBool, BoolValue: v})
}

func (in *interner) atom(name string) *Formula {
	return in.canon(&Formula{Kind: KindAtom, Atom: name})
}

func (in *interner) not(sub *Formula) *Formula {
	return in.canon(&Formula{Kind: KindNot, Operands: []*Formula{sub}})
}

func (in *interner) and(ops ...*Formula) *Formula {
	return in.canon(&Formula{Kind: KindAnd, Operands: ops})
}

func (in *interner) or(ops ...*Formula) *Formula {
	return in.canon(&Formula{Kind: KindOr, Operands: ops})
}

func (in *interner) existsNext(sub *Formula) *Formula {
	return in.canon(&Formula{Kind: KindExists, Path: PathNext, PathArgs: []*Formula{sub}})
}

func (in *interner) existsAlways(sub *Formula) *Formula {
	return in.canon(&Formula{Kind: KindExists, Path: PathAlways, PathArgs: []*Formula{sub}})
}

func (in *interner) existsUntil(sub1, sub2 *Formula) *Formula {
	return in.canon(&Formula{Kind: KindExists, Path: PathUntil, PathArgs: []*Formula{sub1, sub2}})
}
