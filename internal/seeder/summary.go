// Package seeder annotates a preprocessed compilation unit with
// machine-readable tags marking macro invocations and conditional regions
// (spec §4.8 Seeder), grounded in original_source/src/Seeder.hpp and
// MakiSummary.hpp.
package seeder

// ArgSummary is one actual argument of a macro invocation, as reported by
// the external macro analyzer (spec §6). Trimmed from Maki's
// MakiArgSummary to the fields spec §4.8's classification and dropping
// rules actually name.
type ArgSummary struct {
	Name                                   string
	ASTKind                                string
	Type                                   string
	IsLValue                               bool
	ExpandedWhereAddressableValueRequired  bool
	ExpandedWhereModifiableValueRequired   bool
	ActualArgLocBegin                      string
	ActualArgLocEnd                        string
	HasSideEffects                         bool
	ConditionallyEvaluated                 bool
	IsVoid                                 bool
	IsAnonymousType                        bool
	IsLocalType                            bool

	// Filled in by Run from the CU source before tag generation.
	Spelling           string
	InvocationLocation string
}

// RequiresLvalue reports whether this argument is used somewhere an
// addressable or modifiable value is required (spec §4.8's lvalue template
// selection, generalized from the invocation-level isLvalue flag to cover
// per-argument uses as Seeder.hpp's requiresLvalue does).
func (a ArgSummary) RequiresLvalue() bool {
	return a.ExpandedWhereAddressableValueRequired || a.ExpandedWhereModifiableValueRequired
}

// InvocationSummary is the external macro analyzer's report of one macro
// invocation (spec §6 "one line per invocation... prefixed with
// `Invocation`"). Trimmed from Maki's ~40-boolean MakiInvocationSummary down
// to the fields spec §4.8 names for the canBeFn classifier and the dropping
// rules — the rest of Maki's struct characterizes declaration-sequencing
// concerns ("DoesBodyReferenceDeclDeclaredAfterMacro" and its siblings) that
// spec §4.8's own canBeFn definition explicitly brackets out as "don't
// worry about... for now" (see original_source/src/Seeder.hpp's
// canBeRustFn, most of whose conditions are commented out).
type InvocationSummary struct {
	Name                  string
	DefinitionLocation    string
	InvocationLocation    string
	InvocationLocationEnd string
	ASTKind               string // one of Expr, Stmt, Stmts, Decl, Decls
	IsObjectLike          bool
	IsLValue              bool
	IsInvokedInStmtBlock  bool
	NumArguments          int
	Args                  []ArgSummary
	ReturnType            string

	HasStringification        bool
	HasTokenPasting            bool
	HasAlignedArguments        bool
	IsHygienic                 bool
	IsInvokedWhereICERequired  bool

	IsExpansionTypeAnonymous                        bool
	IsExpansionTypeLocalType                         bool
	IsExpansionTypeVoid                              bool
	IsAnyArgumentTypeAnonymous                       bool
	IsAnyArgumentTypeLocalType                       bool
	IsAnyArgumentTypeVoid                            bool
	DoesSubexpressionExpandedFromBodyHaveLocalType   bool
	DoesAnyArgumentHaveSideEffects                   bool
	IsAnyArgumentConditionallyEvaluated              bool

	// Premise is the symbolic condition under which this invocation is
	// reachable, threaded in from the premise tree's macro-premise map.
	Premise string

	// Filled in by Run from the CU source before tag generation.
	Spelling string
}

// CanBeFn implements spec §4.8's canBeFn classifier: whether the downstream
// target-language rewriter may realise this macro as a function rather than
// a token-substitution construct.
func (inv InvocationSummary) CanBeFn() bool {
	switch {
	case inv.ASTKind == "Decl" || inv.ASTKind == "Decls":
		return false // declarations cannot be functions
	case !inv.HasAlignedArguments:
		return false
	case !inv.IsHygienic:
		return false
	case inv.DoesSubexpressionExpandedFromBodyHaveLocalType:
		return false
	case inv.IsAnyArgumentTypeLocalType:
		return false
	case inv.IsExpansionTypeAnonymous || inv.IsAnyArgumentTypeAnonymous:
		return false
	case inv.IsAnyArgumentTypeVoid:
		return false
	case inv.IsObjectLike && inv.IsExpansionTypeVoid:
		return false
	case inv.DoesAnyArgumentHaveSideEffects:
		return false
	case inv.IsAnyArgumentConditionallyEvaluated:
		return false
	case inv.HasStringification || inv.HasTokenPasting:
		return false
	case inv.IsInvokedWhereICERequired:
		return false
	default:
		return true
	}
}

// RangeExtraInfo carries the surrounding if-group's location and the
// region's symbolic premise (spec §3 Tag "conditional premise"; spec §9's
// degenerate-range Open Question).
type RangeExtraInfo struct {
	Premise           string
	IfGroupLnColBegin string // "line:col", no filename
	IfGroupLnColEnd   string
}

// RangeSummary is the external macro analyzer's report of one conditional
// (#if/#elif/#else) region (spec §6 "one line per... range... prefixed
// with... `Range`").
type RangeSummary struct {
	Location           string
	LocationEnd        string
	ASTKind            string
	IsLValue           bool
	// ParentLocation is the enclosing AST node's source location, used to
	// unify same-slot expression ranges across DefineSets
	// (CompleteRangeSummaries).
	ParentLocation     string
	IsInStatementBlock bool
	// IsPlaceholder marks a degenerate (empty) analyzer range substituted
	// with the enclosing if-group's own span (spec §9 Open Question).
	IsPlaceholder     bool
	ReferenceLocation string
	ExtraInfo         RangeExtraInfo

	// Filled in by Run from the CU source before tag generation.
	Spelling string
}
