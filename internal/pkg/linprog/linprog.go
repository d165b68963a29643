// Package linprog assembles a linear program from named variables and sparse
// linear expressions, and renders it in the dense bounded-row form the HiGHS
// bindings accept: costs, column bounds, rows as [lb, a1..an, ub], and a
// column integrality list.
package linprog

import (
	"fmt"
	"math"
)

// VarID indexes a column of the problem.
type VarID int

// Expr is a sparse linear expression plus a constant offset.
type Expr struct {
	terms  map[VarID]float64
	offset float64
}

func NewExpr() *Expr {
	return &Expr{terms: make(map[VarID]float64)}
}

// Add accumulates coef onto the variable's coefficient.
func (e *Expr) Add(v VarID, coef float64) *Expr {
	e.terms[v] += coef
	return e
}

// AddExpr accumulates scale*other onto e.
func (e *Expr) AddExpr(other *Expr, scale float64) *Expr {
	for v, c := range other.terms {
		e.terms[v] += c * scale
	}
	e.offset += other.offset * scale
	return e
}

// AddConst accumulates a constant term.
func (e *Expr) AddConst(c float64) *Expr {
	e.offset += c
	return e
}

// Offset returns the constant term.
func (e *Expr) Offset() float64 { return e.offset }

// Coef returns the coefficient on v.
func (e *Expr) Coef(v VarID) float64 { return e.terms[v] }

// Terms returns the sparse coefficient map.
func (e *Expr) Terms() map[VarID]float64 { return e.terms }

type column struct {
	name    string
	lb, ub  float64
	cost    float64
	integer bool
}

type row struct {
	name   string
	expr   *Expr
	lb, ub float64
}

// Problem is a linear program under construction. Variables and constraints
// are appended once during formulation build; the problem is rendered for
// the solver after construction completes.
type Problem struct {
	cols  []column
	rows  []row
	index map[string]VarID
}

func NewProblem() *Problem {
	return &Problem{index: make(map[string]VarID)}
}

// NewVar appends a continuous column and returns its ID. Variable names must
// be unique; they key post-solve retrieval.
func (p *Problem) NewVar(name string, lb, ub float64) VarID {
	return p.newCol(name, lb, ub, false)
}

// NewIntVar appends an integer column.
func (p *Problem) NewIntVar(name string, lb, ub float64) VarID {
	return p.newCol(name, lb, ub, true)
}

func (p *Problem) newCol(name string, lb, ub float64, integer bool) VarID {
	if _, dup := p.index[name]; dup {
		panic(fmt.Sprintf("linprog: duplicate variable %q", name))
	}
	id := VarID(len(p.cols))
	p.cols = append(p.cols, column{name: name, lb: lb, ub: ub, integer: integer})
	p.index[name] = id
	return id
}

// Lookup returns the column named name.
func (p *Problem) Lookup(name string) (VarID, bool) {
	id, ok := p.index[name]
	return id, ok
}

// VarName returns the name of column v.
func (p *Problem) VarName(v VarID) string { return p.cols[v].name }

// NumVars returns the column count.
func (p *Problem) NumVars() int { return len(p.cols) }

// AddCost accumulates an objective coefficient on v.
func (p *Problem) AddCost(v VarID, cost float64) {
	p.cols[v].cost += cost
}

// AddCostExpr accumulates a scaled objective contribution from a linear
// expression. Constant offsets are dropped; they shift the reported
// objective, not the argmin.
func (p *Problem) AddCostExpr(e *Expr, scale float64) {
	for v, c := range e.terms {
		p.cols[v].cost += c * scale
	}
}

// AddConstraint appends lb <= expr <= ub. The expression offset folds into
// the row bounds.
func (p *Problem) AddConstraint(name string, e *Expr, lb, ub float64) {
	p.rows = append(p.rows, row{name: name, expr: e, lb: lb, ub: ub})
}

// Equal appends expr == rhs.
func (p *Problem) Equal(name string, e *Expr, rhs float64) {
	p.AddConstraint(name, e, rhs, rhs)
}

// LessEq appends expr <= rhs.
func (p *Problem) LessEq(name string, e *Expr, rhs float64) {
	p.AddConstraint(name, e, math.Inf(-1), rhs)
}

// GreaterEq appends expr >= rhs.
func (p *Problem) GreaterEq(name string, e *Expr, rhs float64) {
	p.AddConstraint(name, e, rhs, math.Inf(1))
}

// NumRows returns the constraint count.
func (p *Problem) NumRows() int { return len(p.rows) }

// RowName returns the name of constraint i.
func (p *Problem) RowName(i int) string { return p.rows[i].name }

// Row returns the expression and folded bounds of constraint i.
func (p *Problem) Row(i int) (*Expr, float64, float64) {
	r := p.rows[i]
	return r.expr, r.lb - r.expr.offset, r.ub - r.expr.offset
}

// CostCoefficients renders the objective vector.
func (p *Problem) CostCoefficients() []float64 {
	costs := make([]float64, len(p.cols))
	for i, c := range p.cols {
		costs[i] = c.cost
	}
	return costs
}

// Bounds renders the column bounds.
func (p *Problem) Bounds() [][2]float64 {
	bounds := make([][2]float64, len(p.cols))
	for i, c := range p.cols {
		bounds[i] = [2]float64{c.lb, c.ub}
	}
	return bounds
}

// Constraints renders dense rows as [lb, a1..an, ub], offsets folded into
// the bounds.
func (p *Problem) Constraints() [][]float64 {
	rows := make([][]float64, len(p.rows))
	n := len(p.cols)
	for i, r := range p.rows {
		dense := make([]float64, n+2)
		dense[0] = r.lb - r.expr.offset
		for v, coef := range r.expr.terms {
			dense[1+int(v)] = coef
		}
		dense[n+1] = r.ub - r.expr.offset
		rows[i] = dense
	}
	return rows
}

// Integrality renders the per-column integrality list. Empty when the
// problem is a pure LP.
func (p *Problem) Integrality() []int {
	any := false
	for _, c := range p.cols {
		if c.integer {
			any = true
			break
		}
	}
	if !any {
		return []int{}
	}
	flags := make([]int, len(p.cols))
	for i, c := range p.cols {
		if c.integer {
			flags[i] = 1
		}
	}
	return flags
}
