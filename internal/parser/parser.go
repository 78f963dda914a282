// Package parser wraps the tree-sitter C/C++ grammar with the node-kind and
// field-name vocabulary the preprocessor pipeline walks (symbolic executor,
// macro expander, line mapper), grounded in
// original_source/src/TreeSitterCPreproc.hpp's X-macro symbol table and
// adapted to tree-sitter-cpp's actual preproc_* grammar.
package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
)

// Node kinds of the preprocessor fragment of tree-sitter-cpp's grammar that
// the symbolic executor and macro expander switch on.
const (
	KindTranslationUnit     = "translation_unit"
	KindPreprocInclude      = "preproc_include"
	KindPreprocDef          = "preproc_def"
	KindPreprocFunctionDef  = "preproc_function_def"
	KindPreprocUndef        = "preproc_undef"
	KindPreprocIf           = "preproc_if"
	KindPreprocIfdef        = "preproc_ifdef"
	KindPreprocIfndef       = "preproc_ifndef"
	KindPreprocElif         = "preproc_elif"
	KindPreprocElifdef      = "preproc_elifdef"
	KindPreprocElifndef     = "preproc_elifndef"
	KindPreprocElse         = "preproc_else"
	KindPreprocIncludeNext  = "preproc_include_next"
	KindPreprocError        = "preproc_error"
	KindPreprocLine         = "preproc_line"
	KindPreprocCall         = "preproc_call"
	KindPreprocDefined      = "preproc_defined"
	KindPreprocArg          = "preproc_arg"
	KindPreprocParams       = "preproc_params"
	KindPreprocTokens       = "preproc_tokens"
	KindPreprocDirective    = "preproc_directive"
	KindIdentifier          = "identifier"
	KindNumberLiteral       = "number_literal"
	KindCharLiteral         = "char_literal"
	KindStringLiteral       = "string_literal"
	KindSystemLibString     = "system_lib_string"
	KindComment             = "comment"
	KindBinaryExpression    = "binary_expression"
	KindUnaryExpression     = "unary_expression"
	KindParenthesizedExpr   = "parenthesized_expression"
	KindCallExpression      = "call_expression"
	KindConditionalExpr     = "conditional_expression"
)

// Field names referenced via Node.ChildByFieldName.
const (
	FieldName        = "name"
	FieldValue       = "value"
	FieldPath        = "path"
	FieldCondition   = "condition"
	FieldBody        = "body"
	FieldAlternative = "alternative"
	FieldParameters  = "parameters"
	FieldLeft        = "left"
	FieldRight       = "right"
	FieldOperator    = "operator"
	FieldArgument    = "argument"
	FieldFunction    = "function"
	FieldArguments   = "arguments"
	FieldDirective   = "directive"
)

// Parser parses C/C++ translation units, exposing the same tree for both
// the preprocessor directive walk and the post-expansion body reparse.
type Parser struct {
	inner *tree_sitter.Parser
}

// New creates a Parser configured for the C/C++ grammar.
func New() (*Parser, error) {
	p := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	if err := p.SetLanguage(lang); err != nil {
		return nil, err
	}
	return &Parser{inner: p}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.inner.Close()
}

// Parse parses src and returns its syntax tree. The caller owns the
// returned tree and must call tree.Close() once done with it (and anything
// derived from it, such as ASTBank entries).
func (p *Parser) Parse(src []byte) *tree_sitter.Tree {
	return p.inner.Parse(src, nil)
}

// Text returns the source text spanned by node.
func Text(node *tree_sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

// IsKind reports whether node is non-nil and has the given grammar kind.
func IsKind(node *tree_sitter.Node, kind string) bool {
	return node != nil && node.Kind() == kind
}

// Children returns node's named children in order.
func Children(node *tree_sitter.Node) []*tree_sitter.Node {
	count := node.NamedChildCount()
	out := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if c := node.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}
