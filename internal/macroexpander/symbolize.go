package macroexpander

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hayroll-dev/hayroll/internal/boolexpr"
	"github.com/hayroll-dev/hayroll/internal/symboltable"
)

// Symbolize turns a fully macro-expanded #if condition's token stream into
// a boolexpr.Expr: bare identifiers become their integer value (IntVar,
// since an unexpanded macro name in a constant expression stands for an
// unknown value, not necessarily zero — only truly undefined macros were
// already folded to the literal 0 by ExpandTokens), and `defined`/
// `defined(...)` survivors become the corresponding boolean (Var). This is
// a standard C constant-expression precedence-climbing parser; grounded in
// the operator table of original_source/src/TreeSitterCPreproc.hpp's
// binary_expression X-macro entry.
func Symbolize(tokens []symboltable.Token) (*boolexpr.Expr, error) {
	p := &parser{tokens: tokens}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("unexpected trailing token %q in #if condition", p.tokens[p.pos].Text)
	}
	return e, nil
}

// IsIntTyped reports whether e's root operator produces an integer value
// rather than a boolean one — true for a bare unexpanded macro name or an
// arithmetic/bitwise/shift expression, false for defined()/comparisons/
// logical combinations. A caller evaluating e as a #if condition must apply
// C's "nonzero is true" rule itself (boolexpr.Neq(e, boolexpr.IntLit(0)))
// when this is true; Symbolize returns the bare arithmetic form so callers
// that want the value itself (rather than its truthiness) are not forced
// through an extra comparison.
func IsIntTyped(e *boolexpr.Expr) bool {
	switch e.Kind {
	case boolexpr.KIntVar, boolexpr.KIntLit, boolexpr.KAdd, boolexpr.KSub, boolexpr.KMul,
		boolexpr.KDiv, boolexpr.KMod, boolexpr.KNeg, boolexpr.KBAnd, boolexpr.KBOr,
		boolexpr.KBXor, boolexpr.KBNot, boolexpr.KShl, boolexpr.KShr:
		return true
	default:
		return false
	}
}

type parser struct {
	tokens []symboltable.Token
	pos    int
}

func (p *parser) peek() (symboltable.Token, bool) {
	if p.pos >= len(p.tokens) {
		return symboltable.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (symboltable.Token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) accept(text string) bool {
	t, ok := p.peek()
	if ok && t.Text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (*boolexpr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = boolexpr.Or(left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (*boolexpr.Expr, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.accept("&&") {
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		left = boolexpr.And(left, right)
	}
	return left, nil
}

func (p *parser) parseBitOr() (*boolexpr.Expr, error) {
	left, err := p.parseBitXor()
	if err != nil {
		return nil, err
	}
	for p.accept("|") {
		right, err := p.parseBitXor()
		if err != nil {
			return nil, err
		}
		left = boolexpr.BOr(left, right)
	}
	return left, nil
}

func (p *parser) parseBitXor() (*boolexpr.Expr, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.accept("^") {
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = boolexpr.BXor(left, right)
	}
	return left, nil
}

func (p *parser) parseBitAnd() (*boolexpr.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.accept("&") {
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = boolexpr.BAnd(left, right)
	}
	return left, nil
}

func (p *parser) parseEquality() (*boolexpr.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("=="):
			right, err := p.parseRelational()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Eq(left, right)
		case p.accept("!="):
			right, err := p.parseRelational()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Neq(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseRelational() (*boolexpr.Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("<="):
			right, err := p.parseShift()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Le(left, right)
		case p.accept(">="):
			right, err := p.parseShift()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Ge(left, right)
		case p.accept("<"):
			right, err := p.parseShift()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Lt(left, right)
		case p.accept(">"):
			right, err := p.parseShift()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Gt(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseShift() (*boolexpr.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("<<"):
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Shl(left, right)
		case p.accept(">>"):
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Shr(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseAdditive() (*boolexpr.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("+"):
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Add(left, right)
		case p.accept("-"):
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Sub(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseMultiplicative() (*boolexpr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("*"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Mul(left, right)
		case p.accept("/"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Div(left, right)
		case p.accept("%"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = boolexpr.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (*boolexpr.Expr, error) {
	switch {
	case p.accept("!"):
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return boolexpr.Not(inner), nil
	case p.accept("~"):
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return boolexpr.BNot(inner), nil
	case p.accept("-"):
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return boolexpr.Neg(inner), nil
	case p.accept("+"):
		return p.parseUnary()
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (*boolexpr.Expr, error) {
	tok, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of #if condition")
	}

	switch {
	case tok.Text == "(":
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, fmt.Errorf("missing closing parenthesis in #if condition")
		}
		return inner, nil

	case tok.IsIdentifier && tok.Text == tokenDefined:
		return p.parseDefined()

	case tok.IsIdentifier:
		return boolexpr.IntVar(tok.Text), nil

	default:
		if v, err := strconv.ParseInt(strings.TrimRight(tok.Text, "uUlL"), 0, 64); err == nil {
			return boolexpr.IntLit(int(v)), nil
		}
		return nil, fmt.Errorf("unexpected token %q in #if condition", tok.Text)
	}
}

func (p *parser) parseDefined() (*boolexpr.Expr, error) {
	if p.accept("(") {
		name, ok := p.next()
		if !ok || !name.IsIdentifier {
			return nil, fmt.Errorf("expected identifier inside defined()")
		}
		if !p.accept(")") {
			return nil, fmt.Errorf("missing closing parenthesis in defined()")
		}
		return boolexpr.Var(name.Text), nil
	}
	name, ok := p.next()
	if !ok || !name.IsIdentifier {
		return nil, fmt.Errorf("expected identifier after defined")
	}
	return boolexpr.Var(name.Text), nil
}
