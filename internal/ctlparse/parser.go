package ctlparse

import (
	"fmt"
	"strings"
)

// ParseFormula parses a single CTL formula line (as produced by
// stripping comments/blank lines — see ParseFile) into ENF: every
// universal quantifier and every F is rewritten away, and structurally
// identical subformulas are interned to share identity.
func ParseFormula(line string) (*Formula, error) {
	lx, err := lex(line)
	if err != nil {
		return nil, err
	}
	p := &parser{lex: lx, in: newInterner()}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.lex.peek().kind != tokEOF {
		return nil, fmt.Errorf("ctlparse: unexpected trailing input in %q at %q", line, p.lex.peek().text)
	}
	return f, nil
}

type parser struct {
	lex *lexer
	in  *interner
}

func (p *parser) parseOr() (*Formula, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	ops := []*Formula{left}
	for p.lex.peek().kind == tokOr {
		p.lex.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		ops = append(ops, right)
	}
	if len(ops) == 1 {
		return left, nil
	}
	return p.in.or(ops...), nil
}

func (p *parser) parseAnd() (*Formula, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	ops := []*Formula{left}
	for p.lex.peek().kind == tokAnd {
		p.lex.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		ops = append(ops, right)
	}
	if len(ops) == 1 {
		return left, nil
	}
	return p.in.and(ops...), nil
}

func (p *parser) parseNot() (*Formula, error) {
	if p.lex.peek().kind == tokNot {
		p.lex.next()
		sub, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return p.in.not(sub), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Formula, error) {
	tok := p.lex.peek()
	switch {
	case tok.kind == tokLParen:
		p.lex.next()
		f, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.lex.peek().kind != tokRParen {
			return nil, fmt.Errorf("ctlparse: expected ')'")
		}
		p.lex.next()
		return f, nil
	case tok.kind == tokIdent && tok.text == "E":
		p.lex.next()
		return p.parseQuantified(true)
	case tok.kind == tokIdent && tok.text == "A":
		p.lex.next()
		return p.parseQuantified(false)
	case tok.kind == tokIdent:
		p.lex.next()
		switch tok.text {
		case "true":
			return p.in.boolF(true), nil
		case "false":
			return p.in.boolF(false), nil
		default:
			if isKeyword(tok.text) {
				return nil, fmt.Errorf("ctlparse: unexpected keyword %q outside a quantifier", tok.text)
			}
			return p.in.atom(tok.text), nil
		}
	default:
		return nil, fmt.Errorf("ctlparse: unexpected token %q", tok.text)
	}
}

// parseQuantified parses the path formula following an E or A
// quantifier and rewrites it into ENF immediately.
func (p *parser) parseQuantified(existential bool) (*Formula, error) {
	hasParen := false
	if p.lex.peek().kind == tokLParen {
		p.lex.next()
		hasParen = true
	}

	tok := p.lex.peek()
	var result *Formula
	switch {
	case tok.kind == tokIdent && tok.text == "X":
		p.lex.next()
		sub, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if existential {
			result = p.in.existsNext(sub)
		} else {
			result = p.rewriteAX(sub)
		}
	case tok.kind == tokIdent && tok.text == "G":
		p.lex.next()
		sub, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if existential {
			result = p.in.existsAlways(sub)
		} else {
			result = p.rewriteAG(sub)
		}
	case tok.kind == tokIdent && tok.text == "F":
		p.lex.next()
		sub, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if existential {
			result = p.in.existsUntil(p.in.boolF(true), sub)
		} else {
			result = p.rewriteAF(sub)
		}
	default:
		sub1, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.lex.peek().kind != tokIdent || p.lex.peek().text != "U" {
			return nil, fmt.Errorf("ctlparse: expected path operator (X, G, F or U) after quantifier")
		}
		p.lex.next()
		sub2, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if existential {
			result = p.in.existsUntil(sub1, sub2)
		} else {
			result = p.rewriteAU(sub1, sub2)
		}
	}

	if hasParen {
		if p.lex.peek().kind != tokRParen {
			return nil, fmt.Errorf("ctlparse: expected ')' to close quantified path formula")
		}
		p.lex.next()
	}
	return result, nil
}

// rewriteAX rewrites AX phi as not(EX(not(phi))).
func (p *parser) rewriteAX(sub *Formula) *Formula {
	return p.in.not(p.in.existsNext(p.in.not(sub)))
}

// rewriteAG rewrites AG phi as not(E(true U not(phi))), i.e. not(EF(not phi)).
func (p *parser) rewriteAG(sub *Formula) *Formula {
	return p.in.not(p.in.existsUntil(p.in.boolF(true), p.in.not(sub)))
}

// rewriteAF rewrites AF phi as not(EG(not(phi))).
func (p *parser) rewriteAF(sub *Formula) *Formula {
	return p.in.not(p.in.existsAlways(p.in.not(sub)))
}

// rewriteAU rewrites A(phi1 U phi2) using the standard CTL equivalence
//
//	A(phi1 U phi2) = not( E(not(phi2) U (not(phi1) & not(phi2))) or EG(not(phi2)) )
func (p *parser) rewriteAU(sub1, sub2 *Formula) *Formula {
	notSub2 := p.in.not(sub2)
	inner := p.in.and(p.in.not(sub1), notSub2)
	e1 := p.in.existsUntil(notSub2, inner)
	e2 := p.in.existsAlways(notSub2)
	return p.in.not(p.in.or(e1, e2))
}

// ParseFile parses a CTL text stream: one formula per line, "#"-prefixed
// comments and blank lines ignored.
func ParseFile(content string) ([]*Formula, error) {
	var formulas []*Formula
	for i, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f, err := ParseFormula(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		formulas = append(formulas, f)
	}
	return formulas, nil
}
