package ctlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormulaAtomsAndBooleans(t *testing.T) {
	f, err := ParseFormula("true")
	require.NoError(t, err)
	assert.Equal(t, KindBool, f.Kind)
	assert.True(t, f.BoolValue)

	f, err = ParseFormula("ready")
	require.NoError(t, err)
	assert.Equal(t, KindAtom, f.Kind)
	assert.Equal(t, "ready", f.Atom)
}

func TestParseFormulaBooleanConnectives(t *testing.T) {
	f, err := ParseFormula("~a & b | c")
	require.NoError(t, err)
	// '&' binds tighter than '|': (~a & b) | c
	assert.Equal(t, KindOr, f.Kind)
	require.Len(t, f.Operands, 2)
	assert.Equal(t, KindAnd, f.Operands[0].Kind)
	assert.Equal(t, KindAtom, f.Operands[1].Kind)
	assert.Equal(t, "c", f.Operands[1].Atom)
}

func TestParseFormulaExistentialNext(t *testing.T) {
	f, err := ParseFormula("E X a")
	require.NoError(t, err)
	require.True(t, f.IsExistential())
	assert.Equal(t, PathNext, f.Path)
	assert.Equal(t, "a", f.PathArgs[0].Atom)
}

func TestParseFormulaExistentialAlwaysAndUntil(t *testing.T) {
	f, err := ParseFormula("E G a")
	require.NoError(t, err)
	assert.Equal(t, PathAlways, f.Path)

	f, err = ParseFormula("E (a U b)")
	require.NoError(t, err)
	assert.Equal(t, PathUntil, f.Path)
	assert.Equal(t, "a", f.PathArgs[0].Atom)
	assert.Equal(t, "b", f.PathArgs[1].Atom)
}

func TestParseFormulaExistentialFutureIsRewrittenToUntilTrue(t *testing.T) {
	f, err := ParseFormula("E F a")
	require.NoError(t, err)
	require.Equal(t, PathUntil, f.Path)
	assert.Equal(t, KindBool, f.PathArgs[0].Kind)
	assert.True(t, f.PathArgs[0].BoolValue)
	assert.Equal(t, "a", f.PathArgs[1].Atom)
}

func TestParseFormulaUniversalNextIsRewritten(t *testing.T) {
	f, err := ParseFormula("A X a")
	require.NoError(t, err)
	// AXa = not(EX(not(a)))
	require.Equal(t, KindNot, f.Kind)
	inner := f.Operands[0]
	require.True(t, inner.IsExistential())
	assert.Equal(t, PathNext, inner.Path)
	assert.Equal(t, KindNot, inner.PathArgs[0].Kind)
	assert.Equal(t, "a", inner.PathArgs[0].Operands[0].Atom)
}

func TestParseFormulaUniversalAlwaysIsRewrittenViaFuture(t *testing.T) {
	f, err := ParseFormula("A G a")
	require.NoError(t, err)
	// AGa = not(E(true U not(a)))
	require.Equal(t, KindNot, f.Kind)
	inner := f.Operands[0]
	require.True(t, inner.IsExistential())
	assert.Equal(t, PathUntil, inner.Path)
	assert.True(t, inner.PathArgs[0].BoolValue)
	assert.Equal(t, KindNot, inner.PathArgs[1].Kind)
}

func TestParseFormulaUniversalFutureIsRewrittenViaAlways(t *testing.T) {
	f, err := ParseFormula("A F a")
	require.NoError(t, err)
	// AFa = not(EG(not(a)))
	require.Equal(t, KindNot, f.Kind)
	inner := f.Operands[0]
	require.True(t, inner.IsExistential())
	assert.Equal(t, PathAlways, inner.Path)
	assert.Equal(t, KindNot, inner.PathArgs[0].Kind)
}

func TestParseFormulaUniversalUntilEliminated(t *testing.T) {
	f, err := ParseFormula("A (a U b)")
	require.NoError(t, err)
	// A(aUb) = not( E(~b U (~a & ~b)) or EG(~b) )
	require.Equal(t, KindNot, f.Kind)
	or := f.Operands[0]
	require.Equal(t, KindOr, or.Kind)
	require.Len(t, or.Operands, 2)

	until := or.Operands[0]
	require.True(t, until.IsExistential())
	assert.Equal(t, PathUntil, until.Path)

	always := or.Operands[1]
	require.True(t, always.IsExistential())
	assert.Equal(t, PathAlways, always.Path)
}

func TestParseFormulaStructurallyIdenticalSubformulasShareIdentity(t *testing.T) {
	f, err := ParseFormula("(a & b) | (a & b)")
	require.NoError(t, err)
	require.Equal(t, KindOr, f.Kind)
	require.Len(t, f.Operands, 2)
	assert.Same(t, f.Operands[0], f.Operands[1])
}

func TestParseFormulaRejectsGarbage(t *testing.T) {
	_, err := ParseFormula("a &")
	assert.Error(t, err)

	_, err = ParseFormula("a $ b")
	assert.Error(t, err)

	_, err = ParseFormula("(a & b")
	assert.Error(t, err)
}

func TestParseFileSkipsBlankLinesAndComments(t *testing.T) {
	content := "# a comment\n\nE X a\n  # indented comment\nE G b\n"
	formulas, err := ParseFile(content)
	require.NoError(t, err)
	require.Len(t, formulas, 2)
	assert.Equal(t, PathNext, formulas[0].Path)
	assert.Equal(t, PathAlways, formulas[1].Path)
}

func TestFormulaStringIsCanonical(t *testing.T) {
	f1, err := ParseFormula("a & b")
	require.NoError(t, err)
	f2, err := ParseFormula("a & b")
	require.NoError(t, err)
	assert.Equal(t, f1.String(), f2.String())
}
