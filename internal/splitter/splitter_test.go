package splitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayroll-dev/hayroll/internal/boolexpr"
	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/definesets"
	"github.com/hayroll-dev/hayroll/internal/premisetree"
	"github.com/hayroll-dev/hayroll/internal/programpoint"
)

func TestRunEmptyUnitReturnsSingleEmptyDefineSet(t *testing.T) {
	root := premisetree.New(programpoint.Point{}, boolexpr.BoolLit(true))

	sets, err := Run(context.Background(), root, compilecommand.Command{}, nil)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Empty(t, sets[0].Defines)
}

func TestRunGuardSplitCoversBothBranches(t *testing.T) {
	root := premisetree.New(programpoint.Point{}, boolexpr.BoolLit(true))
	root.AddChild(programpoint.Point{}, boolexpr.Var("A"))
	root.AddChild(programpoint.Point{}, boolexpr.Not(boolexpr.Var("A")))

	sets, err := Run(context.Background(), root, compilecommand.Command{}, nil)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	aDefined := boolexpr.Var("A")
	var sawDefined, sawUndefined bool
	for _, ds := range sets {
		if ds.Satisfies(aDefined) {
			sawDefined = true
		}
		if ds.Satisfies(boolexpr.Not(aDefined)) {
			sawUndefined = true
		}
	}
	assert.True(t, sawDefined)
	assert.True(t, sawUndefined)
}

func TestRunSingleDefineSetCanCoverMultipleNodes(t *testing.T) {
	// A true covers both children's complete premises (A, A && B) is not
	// generally true, so use a case where one model covers two nodes: A
	// alone, and (A && true).
	root := premisetree.New(programpoint.Point{}, boolexpr.BoolLit(true))
	root.AddChild(programpoint.Point{}, boolexpr.Var("A"))
	nested := root.AddChild(programpoint.Point{}, boolexpr.Var("A"))
	nested.AddChild(programpoint.Point{}, boolexpr.BoolLit(true))

	sets, err := Run(context.Background(), root, compilecommand.Command{}, nil)
	require.NoError(t, err)
	assert.Len(t, sets, 1)
}

func TestRunPropagatesVerifyFailure(t *testing.T) {
	root := premisetree.New(programpoint.Point{}, boolexpr.BoolLit(true))

	verify := func(ctx context.Context, cmd compilecommand.Command, ds definesets.DefineSet) error {
		return assertErr
	}

	_, err := Run(context.Background(), root, compilecommand.Command{}, verify)
	assert.ErrorIs(t, err, assertErr)
}

func TestRunMacroExpansionNodeObligationCoversDefinitionSite(t *testing.T) {
	root := premisetree.New(programpoint.Point{}, boolexpr.BoolLit(true))
	macroNode := root.AddChild(programpoint.Point{}, boolexpr.BoolLit(false))
	macroNode.DisjunctMacroPremise(programpoint.Point{}, boolexpr.Var("A"))

	sets, err := Run(context.Background(), root, compilecommand.Command{}, nil)
	require.NoError(t, err)

	var covered bool
	for _, ds := range sets {
		if ds.Satisfies(boolexpr.Var("A")) {
			covered = true
		}
	}
	assert.True(t, covered)
}

var assertErr = errTest("transpile failed")

type errTest string

func (e errTest) Error() string { return string(e) }
