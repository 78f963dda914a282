package symbolicexecutor

import (
	"context"
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayroll-dev/hayroll/internal/astbank"
	"github.com/hayroll-dev/hayroll/internal/boolexpr"
	"github.com/hayroll-dev/hayroll/internal/includetree"
	"github.com/hayroll-dev/hayroll/internal/logging"
	"github.com/hayroll-dev/hayroll/internal/parser"
	"github.com/hayroll-dev/hayroll/internal/premisetree"
	"github.com/hayroll-dev/hayroll/internal/programpoint"
	"github.com/hayroll-dev/hayroll/internal/sourcepos"
	"github.com/hayroll-dev/hayroll/internal/symboltable"
)

func setup(t *testing.T, src string) (*Executor, *State, []*tree_sitter.Node) {
	t.Helper()
	bank, err := astbank.New()
	require.NoError(t, err)
	t.Cleanup(bank.Close)

	tree, srcBytes, err := bank.AddFileWithSource("/t.c", []byte(src))
	require.NoError(t, err)

	root := includetree.NewRoot("/t.c")
	rootPoint := programpoint.Point{IncludeNode: root, Range: sourcepos.ByteRange{Begin: 0, End: uint32(len(srcBytes))}}
	scribe := premisetree.NewScribe(rootPoint, boolexpr.BoolLit(true))

	ex := New(bank, nil, nil, logging.New(nil, logging.Info))
	ex.Scribe = scribe

	initial := &State{
		IncludeNode: root,
		Src:         srcBytes,
		Table:       symboltable.Root(),
		Premise:     boolexpr.BoolLit(true),
		PremiseNode: scribe.Root(),
	}
	return ex, initial, parser.Children(tree.RootNode())
}

func TestExecuteBlockDefineThenMacroUseRecordsSite(t *testing.T) {
	ex, initial, items := setup(t, "#define FOO 1\nint x = FOO;\n")

	finals, err := ex.executeBlock(context.Background(), []*State{initial}, items)
	require.NoError(t, err)
	require.Len(t, finals, 1)

	_, ok := symboltable.Lookup(finals[0].Table, "FOO")
	assert.True(t, ok)

	require.Len(t, ex.Scribe.Root().Children, 1)
	assert.True(t, ex.Scribe.Root().Children[0].IsMacroExpansion())
}

func TestExecuteIfChainForksThenAndElse(t *testing.T) {
	ex, initial, items := setup(t, "#if FOO\nint a;\n#else\nint b;\n#endif\n")

	finals, err := ex.executeBlock(context.Background(), []*State{initial}, items)
	require.NoError(t, err)
	// Both branches are feasible, but neither changes the symbol table, so
	// the then- and else-states merge into one end state after #endif.
	assert.Len(t, finals, 1)
}

func TestExecuteIfdefWithKnownMacroOnlyForksOneBranch(t *testing.T) {
	ex, initial, items := setup(t, "#define FOO 1\n#ifdef FOO\nint a;\n#else\nint b;\n#endif\n")

	finals, err := ex.executeBlock(context.Background(), []*State{initial}, items)
	require.NoError(t, err)
	require.Len(t, finals, 1)
	_, ok := symboltable.Lookup(finals[0].Table, "FOO")
	assert.True(t, ok)
}

func TestExecuteElifChainPicksMatchingBranch(t *testing.T) {
	ex, initial, items := setup(t, "#define B 1\n#if A\nint a;\n#elif B\nint b;\n#else\nint c;\n#endif\n")

	finals, err := ex.executeBlock(context.Background(), []*State{initial}, items)
	require.NoError(t, err)
	// A is unresolved (forks both ways); within the A-false branch, B is
	// known-true so only the elif body is feasible. The A-true state
	// (entering the #if body) and the A-false&&B-true state (entering #elif)
	// share one symbol table, so they merge into one end state.
	assert.Len(t, finals, 1)
}

func TestExecuteErrorDirectiveDropsState(t *testing.T) {
	ex, initial, items := setup(t, "#if FOO\n#error unsupported configuration\n#endif\n")

	finals, err := ex.executeBlock(context.Background(), []*State{initial}, items)
	require.NoError(t, err)
	// The then-branch (FOO true) hits #error and is dropped; only the
	// implicit else (FOO false, no body) survives.
	assert.Len(t, finals, 1)
	require.Len(t, ex.ErrorSites, 1)
}

func TestWhitelistRestrictsForkingToAllowedMacros(t *testing.T) {
	ex, initial, items := setup(t, "#if FOO\nint a;\n#else\nint b;\n#endif\n")
	ex.Whitelist = []string{"BAR_*"}

	finals, err := ex.executeBlock(context.Background(), []*State{initial}, items)
	require.NoError(t, err)
	// FOO is not whitelisted, so it is folded to a concrete false (0): only
	// the else branch is feasible.
	assert.Len(t, finals, 1)
}
