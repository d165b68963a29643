// Package solver hands a rendered problem to the HiGHS solver and reads the
// solution back.
package solver

import (
	"errors"
	"fmt"
	"log"

	"github.com/ohowland/highs"
	"gonum.org/v1/gonum/floats"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// Solution is the optimum of one solve. Dual holds the constraint shadow
// prices and is nil when the problem carried integer columns.
type Solution struct {
	Objective float64
	Primal    []float64
	Dual      []float64
}

// Solve minimizes the problem and returns its solution. An empty primal
// vector from the solver is reported as infeasibility.
func Solve(lp *linprog.Problem) (*Solution, error) {
	costs := lp.CostCoefficients()
	integrality := lp.Integrality()

	log.Printf("[Solver] %d columns, %d rows, %d integer",
		lp.NumVars(), lp.NumRows(), countIntegers(integrality))

	s, err := highs.New(costs, lp.Bounds(), lp.Constraints(), integrality)
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}

	s.SetObjectiveSense(highs.Minimize)
	s.RunSolver()

	primal := s.PrimalColumnSolution()
	if len(primal) != lp.NumVars() {
		return nil, errors.New("solver: no feasible solution found")
	}

	sol := &Solution{
		Objective: floats.Dot(costs, primal),
		Primal:    primal,
	}
	if countIntegers(integrality) == 0 {
		sol.Dual = s.DualRowSolution()
	}

	log.Printf("[Solver] objective %.2f", sol.Objective)
	return sol, nil
}

func countIntegers(integrality []int) int {
	n := 0
	for _, i := range integrality {
		if i != 0 {
			n++
		}
	}
	return n
}
