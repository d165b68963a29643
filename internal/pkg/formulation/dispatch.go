package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildDispatch declares the hourly operating variables: power, curtailment
// and reserve provision. Must-run resources are pinned to their available
// capacity; variable resources follow their shape net of scheduled
// curtailment. The remaining capacity couplings live with each resource
// class's own stage.
func (b *Builder) buildDispatch() error {
	inf := math.Inf(1)

	for _, r := range b.powerResources() {
		for _, t := range b.idx.Timepoints() {
			b.addVar(0, inf, "Provide_Power", r, t)
		}
	}

	for _, r := range b.sys.Sets.CurtailableVariable {
		for _, t := range b.idx.Timepoints() {
			b.addVar(0, inf, "Scheduled_Curtailment", r, t)
		}
	}

	for _, r := range b.sys.Sets.Reserve {
		rec := b.sys.Resources[r]
		for _, t := range b.idx.Timepoints() {
			if rec.CanProvideSpin {
				b.addVar(0, inf, "Provide_Spin", r, t)
			}
			if rec.CanProvideReg {
				b.addVar(0, inf, "Provide_Reg_Up", r, t)
				b.addVar(0, inf, "Provide_Reg_Down", r, t)
			}
			if rec.CanProvideLF {
				b.addVar(0, inf, "Provide_LF_Up", r, t)
				b.addVar(0, inf, "Provide_LF_Down", r, t)
			}
		}
	}
	for _, r := range b.sys.Sets.TotalFreqResp {
		for _, t := range b.idx.Timepoints() {
			b.addVar(0, inf, "Provide_Freq_Resp", r, t)
		}
	}

	for _, r := range b.sys.Sets.GenerateAtMax {
		for _, t := range b.idx.Timepoints() {
			e := linprog.NewExpr().
				Add(b.varID("Provide_Power", r, t), 1).
				AddExpr(b.AvailableCapacity(r, t), -1)
			b.lp.Equal(VarName("Must_Run_Dispatch", r, t), e, 0)
		}
	}

	for _, r := range b.sys.Sets.Variable {
		curtailable := contains(b.sys.Sets.CurtailableVariable, r)
		for _, t := range b.idx.Timepoints() {
			shape := b.pt("shape", r, t)
			if shape < shapeEpsilon {
				shape = 0
			}
			e := linprog.NewExpr().Add(b.varID("Provide_Power", r, t), 1)
			if curtailable {
				e.Add(b.varID("Scheduled_Curtailment", r, t), 1)
			}
			e.AddExpr(b.AvailableCapacity(r, t), -shape)
			b.lp.Equal(VarName("Variable_Dispatch", r, t), e, 0)
		}
	}

	return nil
}

// powerResources lists every resource with an hourly power variable.
func (b *Builder) powerResources() []string {
	var out []string
	for _, r := range b.sys.ResourceNames {
		tech := b.sys.Tech(r)
		if tech.Thermal || tech.Storage || tech.Hydro || tech.Variable || tech.ConventionalDR {
			out = append(out, r)
		}
	}
	return out
}

// upwardReserves sums r's upward products at t; spin, regulation,
// load-following and frequency response all hold headroom.
func (b *Builder) upwardReserves(r string, t int) *linprog.Expr {
	e := linprog.NewExpr()
	rec := b.sys.Resources[r]
	if rec.CanProvideSpin {
		e.Add(b.varID("Provide_Spin", r, t), 1)
	}
	if rec.CanProvideReg {
		e.Add(b.varID("Provide_Reg_Up", r, t), 1)
	}
	if rec.CanProvideLF {
		e.Add(b.varID("Provide_LF_Up", r, t), 1)
	}
	if rec.TotalFreqResp {
		e.Add(b.varID("Provide_Freq_Resp", r, t), 1)
	}
	return e
}

// downwardReserves sums r's downward products at t.
func (b *Builder) downwardReserves(r string, t int) *linprog.Expr {
	e := linprog.NewExpr()
	rec := b.sys.Resources[r]
	if rec.CanProvideReg {
		e.Add(b.varID("Provide_Reg_Down", r, t), 1)
	}
	if rec.CanProvideLF {
		e.Add(b.varID("Provide_LF_Down", r, t), 1)
	}
	return e
}

// isReserveProvider reports whether r holds any reserve product.
func (b *Builder) isReserveProvider(r string) bool {
	rec := b.sys.Resources[r]
	return rec.CanProvideSpin || rec.CanProvideReg || rec.CanProvideLF
}
