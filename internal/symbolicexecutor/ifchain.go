package symbolicexecutor

import (
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/hayroll-dev/hayroll/internal/boolexpr"
	"github.com/hayroll-dev/hayroll/internal/macroexpander"
	"github.com/hayroll-dev/hayroll/internal/parser"
	"github.com/hayroll-dev/hayroll/internal/programpoint"
	"github.com/hayroll-dev/hayroll/internal/symboltable"
)

// executeIfChain walks ifNode's #if/#elif.../#else chain (spec §4.4),
// forking a then-state per state per satisfiable clause and carrying the
// accumulated "none of the prior conditions held" premise into the next
// clause, finally falling through (explicit #else, or an implicit empty
// one) past the #endif. #ifdef/#ifndef/#elifdef/#elifndef are sugar for
// #if defined N / #if !defined N, resolved identically via
// symbolizeCondition.
func (ex *Executor) executeIfChain(ctx context.Context, s *State, ifNode *tree_sitter.Node) ([]*State, error) {
	var out []*State
	remaining := []*State{s}
	clause := ifNode

	for clause != nil && len(remaining) > 0 {
		if clause.Kind() == parser.KindPreprocElse {
			items := bodyItems(clause)
			finals, err := ex.executeBlock(ctx, remaining, items)
			if err != nil {
				return nil, err
			}
			out = append(out, finals...)
			remaining = nil
			break
		}

		var thenStates []*State
		var nextRemaining []*State
		var childPoint programpoint.Point
		havePoint := false

		for _, st := range remaining {
			b, err := ex.symbolizeCondition(clause, st)
			if err != nil {
				return nil, err
			}

			thenPremise := boolexpr.And(st.Premise, b)
			if sat, _ := boolexpr.CheckSatisfiable(thenPremise); sat {
				if !havePoint {
					childPoint = bodyPoint(st, clause)
					havePoint = true
				}
				childNode := ex.Scribe.AddPremiseOrCreateChild(st.PremiseNode, childPoint, b)
				thenStates = append(thenStates, st.fork(st.Table, thenPremise, childNode))
			}

			elsePremise := boolexpr.And(st.Premise, boolexpr.Not(b))
			if sat, _ := boolexpr.CheckSatisfiable(elsePremise); sat {
				nextRemaining = append(nextRemaining, st.fork(st.Table, elsePremise, st.PremiseNode))
			}
		}

		if len(thenStates) > 0 {
			finals, err := ex.executeBlock(ctx, thenStates, bodyItems(clause))
			if err != nil {
				return nil, err
			}
			out = append(out, finals...)
		}

		remaining = nextRemaining
		clause = clause.ChildByFieldName(parser.FieldAlternative)
	}

	out = append(out, remaining...)
	return mergeStates(out), nil
}

func bodyItems(clause *tree_sitter.Node) []*tree_sitter.Node {
	body := clause.ChildByFieldName(parser.FieldBody)
	if body == nil {
		return nil
	}
	return parser.Children(body)
}

func bodyPoint(s *State, clause *tree_sitter.Node) programpoint.Point {
	target := clause.ChildByFieldName(parser.FieldBody)
	if target == nil {
		target = clause
	}
	return s.point(target)
}

// symbolizeCondition expands and symbolizes clause's condition (or its
// defined-sugar for the ifdef/ifndef family) against st's symbol table,
// then restricts the result to whitelisted macros.
func (ex *Executor) symbolizeCondition(clause *tree_sitter.Node, st *State) (*boolexpr.Expr, error) {
	var tokens []symboltable.Token

	switch clause.Kind() {
	case parser.KindPreprocIf, parser.KindPreprocElif:
		condNode := clause.ChildByFieldName(parser.FieldCondition)
		if condNode == nil {
			return boolexpr.BoolLit(true), nil
		}
		tokens = macroexpander.Tokenize(parser.Text(condNode, st.Src))
	case parser.KindPreprocIfdef, parser.KindPreprocElifdef:
		tokens = []symboltable.Token{
			{Text: "defined", IsIdentifier: true},
			{Text: clauseName(clause, st.Src), IsIdentifier: true},
		}
	case parser.KindPreprocIfndef, parser.KindPreprocElifndef:
		tokens = []symboltable.Token{
			{Text: "!"},
			{Text: "defined", IsIdentifier: true},
			{Text: "("},
			{Text: clauseName(clause, st.Src), IsIdentifier: true},
			{Text: ")"},
		}
	default:
		return nil, fmt.Errorf("symbolicexecutor: unexpected conditional clause kind %q", clause.Kind())
	}

	expanded, err := macroexpander.ExpandTokens(tokens, st.Table)
	if err != nil {
		return nil, err
	}
	b, err := macroexpander.Symbolize(expanded)
	if err != nil {
		return nil, err
	}
	if macroexpander.IsIntTyped(b) {
		b = boolexpr.Neq(b, boolexpr.IntLit(0))
	}
	return restrictToWhitelist(b, ex.Whitelist), nil
}

func clauseName(clause *tree_sitter.Node, src []byte) string {
	if n := clause.ChildByFieldName(parser.FieldName); n != nil {
		return parser.Text(n, src)
	}
	return ""
}
