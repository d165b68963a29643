// Package results exposes a solved problem instance as queryable decision
// values and shadow prices.
package results

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ohowland/cgc_expand/internal/pkg/formulation"
	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/solver"
)

// Store pairs a problem instance with its solution.
type Store struct {
	inst *formulation.Instance
	sol  *solver.Solution
	rows map[string]int
}

func New(inst *formulation.Instance, sol *solver.Solution) *Store {
	rows := make(map[string]int, inst.LP.NumRows())
	for i := 0; i < inst.LP.NumRows(); i++ {
		rows[inst.LP.RowName(i)] = i
	}
	return &Store{inst: inst, sol: sol, rows: rows}
}

// Objective is the minimized total cost.
func (s *Store) Objective() float64 { return s.sol.Objective }

// Value reads one decision variable by its keyed name.
func (s *Store) Value(name string, keys ...interface{}) (float64, bool) {
	id, ok := s.inst.LP.Lookup(formulation.VarName(name, keys...))
	if !ok {
		return 0, false
	}
	return s.sol.Primal[id], true
}

// Dual reads one constraint's shadow price. The second return is false for
// unknown rows and for mixed-integer solves, which carry no duals.
func (s *Store) Dual(name string, keys ...interface{}) (float64, bool) {
	if s.sol.Dual == nil {
		return 0, false
	}
	i, ok := s.rows[formulation.VarName(name, keys...)]
	if !ok {
		return 0, false
	}
	return s.sol.Dual[i], true
}

// Sum totals a keyed variable family over one varying index, e.g. total
// build across vintages.
func (s *Store) Sum(name string, fixed []interface{}, varying []int) float64 {
	vals := make([]float64, 0, len(varying))
	for _, k := range varying {
		keys := append(append([]interface{}{}, fixed...), k)
		if v, ok := s.Value(name, keys...); ok {
			vals = append(vals, v)
		}
	}
	return floats.Sum(vals)
}

// Report flattens every nonzero decision variable into a document suitable
// for archiving.
func (s *Store) Report() map[string]float64 {
	out := make(map[string]float64)
	for i := 0; i < s.inst.LP.NumVars(); i++ {
		if v := s.sol.Primal[i]; v != 0 {
			out[s.inst.LP.VarName(linprog.VarID(i))] = v
		}
	}
	out["Objective"] = s.sol.Objective
	return out
}

// MarginalEnergyPrices extracts the zone power-balance duals for one zone,
// keyed by timepoint. Empty for mixed-integer solves.
func (s *Store) MarginalEnergyPrices(zone string) map[int]float64 {
	prices := make(map[int]float64)
	if s.sol.Dual == nil {
		return prices
	}
	for _, t := range s.inst.Idx.Timepoints() {
		if d, ok := s.Dual("Zone_Power_Balance", zone, t); ok {
			prices[t] = d
		}
	}
	return prices
}

// String summarizes the solve for logging.
func (s *Store) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "objective=%.2f vars=%d rows=%d",
		s.sol.Objective, s.inst.LP.NumVars(), s.inst.LP.NumRows())
	if s.sol.Dual != nil {
		b.WriteString(" duals=yes")
	}
	return b.String()
}
