// Package symbolicexecutor walks a translation unit's preprocessor AST,
// producing every feasible end-of-unit State and populating a Premise Tree
// as it goes (spec §4.4 Symbolic Executor), grounded in
// original_source/src/SymbolicExecutor.hpp. Unlike that original (which
// leaves several #ifdef/#elif/#elifdef/#elifndef branches as
// "assert(false); // Not implemented yet."), this implementation follows
// spec.md's complete per-directive semantics table throughout.
package symbolicexecutor

import (
	"context"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/hayroll-dev/hayroll/internal/astbank"
	"github.com/hayroll-dev/hayroll/internal/boolexpr"
	"github.com/hayroll-dev/hayroll/internal/herrors"
	"github.com/hayroll-dev/hayroll/internal/includeresolver"
	"github.com/hayroll-dev/hayroll/internal/includetree"
	"github.com/hayroll-dev/hayroll/internal/logging"
	"github.com/hayroll-dev/hayroll/internal/macroexpander"
	"github.com/hayroll-dev/hayroll/internal/parser"
	"github.com/hayroll-dev/hayroll/internal/premisetree"
	"github.com/hayroll-dev/hayroll/internal/programpoint"
	"github.com/hayroll-dev/hayroll/internal/sourcepos"
	"github.com/hayroll-dev/hayroll/internal/symboltable"
)

// State is one in-flight symbolic execution state: a position within an
// include node's source, the macro symbol table visible there, the path
// condition that led to it, and the premise-tree node its enclosing block
// is attached under. Two states sharing a program point and the same
// Table pointer are merge candidates (spec §4.4); since Table is a
// persistent, append-only chain (internal/symboltable), sharing a pointer
// across states is always safe.
type State struct {
	IncludeNode *includetree.Node
	Src         []byte
	Table       *symboltable.Table
	Premise     *boolexpr.Expr
	PremiseNode *premisetree.Node
}

func (s *State) point(n *tree_sitter.Node) programpoint.Point {
	return programpoint.Point{
		IncludeNode: s.IncludeNode,
		Range:       sourcepos.ByteRange{Begin: n.StartByte(), End: n.EndByte()},
	}
}

func (s *State) fork(table *symboltable.Table, premise *boolexpr.Expr, premiseNode *premisetree.Node) *State {
	return &State{IncludeNode: s.IncludeNode, Src: s.Src, Table: table, Premise: premise, PremiseNode: premiseNode}
}

// ErrorSite records a #error directive reachable under a satisfiable
// premise (spec §4.4's possible-error premise): it does not abort the
// sweep of other states, only the state that reached it.
type ErrorSite struct {
	Point   programpoint.Point
	Premise *boolexpr.Expr
	Message string
}

// Executor drives one translation unit's symbolic execution.
type Executor struct {
	Bank      *astbank.Bank
	Resolver  *includeresolver.Resolver
	Whitelist []string
	Log       *logging.Logger
	Scribe    *premisetree.Scribe

	// IncludeRoot is the translation unit's include-tree root, populated
	// by Run. Callers that need to walk the whole include tree (e.g. the
	// driver's line-mapping step) read it from here rather than from any
	// one State's IncludeNode, which may be a descendant.
	IncludeRoot *includetree.Node

	ErrorSites []ErrorSite
}

// New constructs an Executor. bank and resolver must outlive it.
func New(bank *astbank.Bank, resolver *includeresolver.Resolver, whitelist []string, log *logging.Logger) *Executor {
	if log == nil {
		log = logging.Default()
	}
	return &Executor{Bank: bank, Resolver: resolver, Whitelist: whitelist, Log: log.With("symbolicexecutor")}
}

// Run executes path's translation unit from its root, returning every
// feasible end-of-unit state and populating ex.Scribe's premise tree.
// Returns *herrors.UnsatisfiableUnitError if no state survives to the end.
func (ex *Executor) Run(ctx context.Context, path string) ([]*State, error) {
	tree, src, err := ex.Bank.AddFile(path)
	if err != nil {
		return nil, err
	}

	root := includetree.NewRoot(path)
	ex.IncludeRoot = root
	rootPoint := programpoint.Point{IncludeNode: root, Range: sourcepos.ByteRange{Begin: 0, End: uint32(len(src))}}
	scribe := premisetree.NewScribe(rootPoint, boolexpr.BoolLit(true))
	ex.Scribe = scribe

	initial := &State{IncludeNode: root, Src: src, Table: symboltable.Root(), Premise: boolexpr.BoolLit(true), PremiseNode: scribe.Root()}

	final, err := ex.executeBlock(ctx, []*State{initial}, parser.Children(tree.RootNode()))
	if err != nil {
		return nil, err
	}
	if len(final) == 0 {
		return nil, &herrors.UnsatisfiableUnitError{File: path}
	}
	ex.Log.Debugf("unit %s: %d feasible end states, %d error sites", path, len(final), len(ex.ErrorSites))
	return final, nil
}

// executeBlock advances every state in states through items in lock-step:
// each item is applied to every current state before the next item is
// considered, and states converging on the same symbol table are merged
// between items (spec §4.4's cooperative, single-threaded scheduling
// model). Item semantics are state-local except for premise-tree
// recording, which the scribe's disjunction operations make commutative
// across states processed in any order, so this per-state realization is
// equivalent to true lock-step scheduling.
func (ex *Executor) executeBlock(ctx context.Context, states []*State, items []*tree_sitter.Node) ([]*State, error) {
	cur := states
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next []*State
		for _, s := range cur {
			succ, err := ex.executeItem(ctx, s, item)
			if err != nil {
				return nil, err
			}
			next = append(next, succ...)
		}
		cur = mergeStates(next)
		if len(cur) == 0 {
			return cur, nil
		}
	}
	return cur, nil
}

// mergeStates disjoins the premises of states sharing the same Table
// pointer, preserving first-seen order.
func mergeStates(states []*State) []*State {
	if len(states) <= 1 {
		return states
	}
	byTable := make(map[*symboltable.Table]*State, len(states))
	var order []*symboltable.Table
	for _, s := range states {
		if existing, ok := byTable[s.Table]; ok {
			existing.Premise = boolexpr.Or(existing.Premise, s.Premise)
			continue
		}
		byTable[s.Table] = s
		order = append(order, s.Table)
	}
	out := make([]*State, 0, len(order))
	for _, t := range order {
		out = append(out, byTable[t])
	}
	return out
}

func (ex *Executor) executeItem(ctx context.Context, s *State, item *tree_sitter.Node) ([]*State, error) {
	switch item.Kind() {
	case parser.KindPreprocDef:
		return ex.executeDefine(s, item, false)
	case parser.KindPreprocFunctionDef:
		return ex.executeDefine(s, item, true)
	case parser.KindPreprocUndef:
		return ex.executeUndef(s, item)
	case parser.KindPreprocIf, parser.KindPreprocIfdef, parser.KindPreprocIfndef:
		return ex.executeIfChain(ctx, s, item)
	case parser.KindPreprocInclude, parser.KindPreprocIncludeNext:
		return ex.executeInclude(ctx, s, item)
	case parser.KindPreprocError:
		ex.ErrorSites = append(ex.ErrorSites, ErrorSite{
			Point:   s.point(item),
			Premise: s.Premise,
			Message: parser.Text(item, s.Src),
		})
		return nil, nil
	case parser.KindPreprocLine, parser.KindComment:
		return []*State{s}, nil
	default:
		ex.scanMacroUses(s, item)
		return []*State{s}, nil
	}
}

func (ex *Executor) executeDefine(s *State, item *tree_sitter.Node, isFunction bool) ([]*State, error) {
	nameNode := item.ChildByFieldName(parser.FieldName)
	if nameNode == nil {
		return []*State{s}, nil
	}
	name := parser.Text(nameNode, s.Src)

	var params []string
	var variadic bool
	if isFunction {
		if paramsNode := item.ChildByFieldName(parser.FieldParameters); paramsNode != nil {
			for _, p := range parser.Children(paramsNode) {
				text := parser.Text(p, s.Src)
				if text == "..." {
					variadic = true
					continue
				}
				params = append(params, text)
			}
		}
	}

	var body []symboltable.Token
	if valueNode := item.ChildByFieldName(parser.FieldValue); valueNode != nil {
		body = macroexpander.Tokenize(parser.Text(valueNode, s.Src))
	}

	kind := symboltable.Object
	if isFunction {
		kind = symboltable.Function
	}
	sym := symboltable.Symbol{Kind: kind, Params: params, Body: body, Variadic: variadic, DefSite: s.point(item)}
	return []*State{s.fork(symboltable.Define(s.Table, name, sym), s.Premise, s.PremiseNode)}, nil
}

func (ex *Executor) executeUndef(s *State, item *tree_sitter.Node) ([]*State, error) {
	nameNode := item.ChildByFieldName(parser.FieldName)
	if nameNode == nil {
		return []*State{s}, nil
	}
	name := parser.Text(nameNode, s.Src)
	return []*State{s.fork(symboltable.Undef(s.Table, name), s.Premise, s.PremiseNode)}, nil
}

// scanMacroUses walks item's subtree for identifiers bound in s.Table and
// records, for each use, that the macro expansion reachable at the
// identifier's program point could have used the definition reached at
// the symbol's DefSite, under s.Premise (spec §4.4's last table row).
func (ex *Executor) scanMacroUses(s *State, item *tree_sitter.Node) {
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n.Kind() == parser.KindIdentifier {
			name := parser.Text(n, s.Src)
			if sym, ok := symboltable.Lookup(s.Table, name); ok && sym.Kind != symboltable.Undefined && sym.Kind != symboltable.Expanded {
				ex.Scribe.RecordMacroExpansion(s.PremiseNode, s.point(n), sym.DefSite, s.Premise)
			}
			return
		}
		for _, c := range parser.Children(n) {
			walk(c)
		}
	}
	walk(item)
}

// executeInclude resolves the #include spelling, recurses into the
// included file's root with s's table and premise, and restores s's
// own include node on return, carrying forward whatever table/premise
// forks the included file produced.
func (ex *Executor) executeInclude(ctx context.Context, s *State, item *tree_sitter.Node) ([]*State, error) {
	pathNode := item.ChildByFieldName(parser.FieldPath)
	if pathNode == nil {
		return []*State{s}, nil
	}
	spelling := parser.Text(pathNode, s.Src)
	system := pathNode.Kind() == parser.KindSystemLibString
	clean := strings.Trim(spelling, "<>\"")

	var resolved string
	var err error
	if system {
		resolved, err = ex.Resolver.ResolveSystemInclude(ctx, clean)
	} else {
		resolved, err = ex.Resolver.ResolveUserInclude(ctx, clean, s.IncludeNode.AncestorDirs())
	}
	if err != nil {
		return nil, fmt.Errorf("symbolicexecutor: %w", err)
	}

	line := int(item.StartPosition().Row) + 1
	childNode := s.IncludeNode.ChildAtLine(line)
	if childNode == nil {
		childNode = s.IncludeNode.AddChild(resolved, system, line)
		childNode.IncludeAt = uint32(item.StartByte())
	}

	tree, src, ok := ex.Bank.Find(resolved)
	if !ok {
		tree, src, err = ex.Bank.AddFile(resolved)
		if err != nil {
			return nil, err
		}
	}

	childState := s.fork(s.Table, s.Premise, s.PremiseNode)
	childState.IncludeNode = childNode
	childState.Src = src

	finals, err := ex.executeBlock(ctx, []*State{childState}, parser.Children(tree.RootNode()))
	if err != nil {
		return nil, err
	}

	out := make([]*State, len(finals))
	for i, f := range finals {
		out[i] = s.fork(f.Table, f.Premise, s.PremiseNode)
	}
	return out, nil
}
