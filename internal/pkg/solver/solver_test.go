package solver

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

func TestSolveSmallLP(t *testing.T) {
	lp := linprog.NewProblem()
	x := lp.NewVar("x", 0, 10)
	y := lp.NewVar("y", 0, 10)
	lp.AddCost(x, 1)
	lp.AddCost(y, 2)
	lp.GreaterEq("demand", linprog.NewExpr().Add(x, 1).Add(y, 1), 3)

	sol, err := Solve(lp)
	assert.NilError(t, err)

	assert.Equal(t, len(sol.Primal), 2)
	assert.Equal(t, sol.Objective, 3.0)
	// pure LP carries shadow prices
	assert.Equal(t, len(sol.Dual), 1)
	assert.Equal(t, sol.Dual[0], 1.0)
}

func TestSolveMIPDropsDuals(t *testing.T) {
	lp := linprog.NewProblem()
	n := lp.NewIntVar("n", 0, 5)
	lp.AddCost(n, 1)
	lp.GreaterEq("floor", linprog.NewExpr().Add(n, 1), 1.5)

	sol, err := Solve(lp)
	assert.NilError(t, err)

	assert.Equal(t, sol.Primal[0], 2.0)
	assert.Assert(t, sol.Dual == nil)
}
