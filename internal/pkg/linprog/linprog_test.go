package linprog

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

func TestDenseRowLayout(t *testing.T) {
	p := NewProblem()
	x := p.NewVar("x", 0, 10)
	y := p.NewVar("y", 0, 10)

	e := NewExpr().Add(x, 2).Add(y, 3)
	p.AddConstraint("cap", e, 1, 6)

	rows := p.Constraints()
	assert.Equal(t, len(rows), 1)
	assert.DeepEqual(t, rows[0], []float64{1, 2, 3, 6})
}

func TestOffsetFoldsIntoBounds(t *testing.T) {
	p := NewProblem()
	x := p.NewVar("x", 0, math.Inf(1))

	e := NewExpr().Add(x, 1).AddConst(5)
	p.Equal("bal", e, 12)

	rows := p.Constraints()
	assert.Equal(t, rows[0][0], 7.0)
	assert.Equal(t, rows[0][2], 7.0)
}

func TestCostAccumulation(t *testing.T) {
	p := NewProblem()
	x := p.NewVar("x", 0, 1)
	p.AddCost(x, 2)
	p.AddCost(x, 3)

	e := NewExpr().Add(x, 2)
	p.AddCostExpr(e, 2)

	assert.DeepEqual(t, p.CostCoefficients(), []float64{9})
}

func TestIntegralityEmptyForPureLP(t *testing.T) {
	p := NewProblem()
	p.NewVar("x", 0, 1)
	assert.Equal(t, len(p.Integrality()), 0)

	p.NewIntVar("n", 0, 4)
	assert.DeepEqual(t, p.Integrality(), []int{0, 1})
}

func TestExprScaling(t *testing.T) {
	p := NewProblem()
	x := p.NewVar("x", 0, 1)
	y := p.NewVar("y", 0, 1)

	inner := NewExpr().Add(x, 1).Add(y, 2).AddConst(1)
	outer := NewExpr().AddExpr(inner, 0.5)

	assert.Equal(t, outer.Coef(x), 0.5)
	assert.Equal(t, outer.Coef(y), 1.0)
	assert.Equal(t, outer.Offset(), 0.5)
}

func TestLookupByName(t *testing.T) {
	p := NewProblem()
	want := p.NewVar("Provide_Power[CCGT_A,1]", 0, math.Inf(1))

	got, ok := p.Lookup("Provide_Power[CCGT_A,1]")
	assert.Assert(t, ok)
	assert.Equal(t, got, want)
	assert.Equal(t, p.VarName(got), "Provide_Power[CCGT_A,1]")
}
