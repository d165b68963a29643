package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

// buildReserves balances each reserve product with an explicit violation
// slack so shortfalls price into the objective instead of turning the whole
// problem infeasible. Variable renewables provide load-following through
// zone-aggregate variables tied to their scheduled output.
func (b *Builder) buildReserves() error {
	inf := math.Inf(1)

	for _, t := range b.idx.Timepoints() {
		b.addVar(0, inf, "Spin_Violation", t)
		b.addVar(0, inf, "Reg_Up_Violation", t)
		b.addVar(0, inf, "Reg_Down_Violation", t)
		b.addVar(0, inf, "LF_Up_Violation", t)
		b.addVar(0, inf, "LF_Down_Violation", t)
		b.addVar(0, inf, "Variable_LF_Up", t)
		b.addVar(0, inf, "Variable_LF_Down", t)
	}

	for _, t := range b.idx.Timepoints() {
		// spinning reserve scales with net load
		spinReq := 0.0
		for _, z := range b.sys.ZoneNames {
			frac := b.sys.Zones[z].SpinFraction
			if frac > 0 {
				spinReq += frac * b.pt("input_load_mw", z, t)
			}
		}
		spin := linprog.NewExpr().Add(b.varID("Spin_Violation", t), 1)
		for _, r := range b.sys.Sets.Spin {
			spin.Add(b.varID("Provide_Spin", r, t), 1)
		}
		for _, z := range b.sys.ZoneNames {
			frac := b.sys.Zones[z].SpinFraction
			if frac > 0 {
				spin.AddExpr(b.eeLoadReduction(z, t), frac)
			}
		}
		b.lp.Equal(VarName("Spin_Requirement", t), spin, spinReq)

		regUp := linprog.NewExpr().Add(b.varID("Reg_Up_Violation", t), 1)
		regDown := linprog.NewExpr().Add(b.varID("Reg_Down_Violation", t), 1)
		for _, r := range b.sys.Sets.Regulation {
			regUp.Add(b.varID("Provide_Reg_Up", r, t), 1)
			regDown.Add(b.varID("Provide_Reg_Down", r, t), 1)
		}
		b.lp.Equal(VarName("Reg_Up_Requirement", t), regUp, b.systemParam("upward_reg_req_mw", t))
		b.lp.Equal(VarName("Reg_Down_Requirement", t), regDown, b.systemParam("downward_reg_req_mw", t))

		// load following carries an extra requirement from variable output
		// uncertainty and lets curtailable variables cover part of it
		lfUpReq := linprog.NewExpr().AddConst(b.systemParam("upward_lf_req_mw", t))
		lfDownReq := linprog.NewExpr().AddConst(b.systemParam("downward_lf_req_mw", t))
		for _, r := range b.sys.Sets.Variable {
			if !b.sys.ResourceZone(r).InLoadFollowing {
				continue
			}
			frac := b.prm.Get("variable_lf_req_fraction",
				params.Key{Object: r, Day: b.idx.Day(t), Hour: b.idx.HourOfDay(t)})
			if frac > 0 {
				lfUpReq.AddExpr(b.OperationalCapacity(r, b.idx.Period(t)), frac)
				lfDownReq.AddExpr(b.OperationalCapacity(r, b.idx.Period(t)), frac)
			}
		}

		lfUp := linprog.NewExpr().
			Add(b.varID("LF_Up_Violation", t), 1).
			Add(b.varID("Variable_LF_Up", t), 1).
			AddExpr(lfUpReq, -1)
		for _, r := range b.sys.Sets.LoadFollowing {
			lfUp.Add(b.varID("Provide_LF_Up", r, t), 1)
		}
		b.lp.Equal(VarName("LF_Up_Requirement", t), lfUp, 0)

		lfDown := linprog.NewExpr().
			Add(b.varID("LF_Down_Violation", t), 1).
			Add(b.varID("Variable_LF_Down", t), 1).
			AddExpr(lfDownReq, -1)
		for _, r := range b.sys.Sets.LoadFollowing {
			lfDown.Add(b.varID("Provide_LF_Down", r, t), 1)
		}
		b.lp.Equal(VarName("LF_Down_Requirement", t), lfDown, 0)

		b.buildVariableLFBounds(t, lfUpReq, lfDownReq)
		b.buildFreqRespRequirements(t)

		// committed local capacity floor, structurally skipped at zero
		if minGen := b.systemParam("min_gen_committed_mw", t); minGen > 0 {
			e := linprog.NewExpr()
			for _, r := range b.sys.Sets.MinGen {
				if contains(b.sys.Sets.Dispatchable, r) {
					e.Add(b.varID("Commit_Units", r, t), b.sys.Tech(r).UnitSizeMW)
				}
			}
			b.lp.GreaterEq(VarName("Min_Local_Gen", t), e, minGen)
		}
	}

	return nil
}

// buildVariableLFBounds ties the zone-aggregate variable LF awards to
// scheduled curtailment (upward) and scheduled output (downward),
// pro-rata across the fleet rather than per resource.
func (b *Builder) buildVariableLFBounds(t int, lfUpReq, lfDownReq *linprog.Expr) {
	availFrac := b.systemScalar("var_rnw_available_for_lf_reserves")
	maxShare := b.systemScalar("max_var_rnw_lf_reserves")

	up := linprog.NewExpr().Add(b.varID("Variable_LF_Up", t), 1)
	if b.tog.VariableUpwardLF {
		for _, r := range b.sys.Sets.CurtailableVariable {
			if b.sys.ResourceZone(r).InLoadFollowing {
				up.Add(b.varID("Scheduled_Curtailment", r, t), -availFrac)
			}
		}
		b.lp.LessEq(VarName("Variable_LF_Up_Bound", t), up, 0)
	} else {
		b.lp.Equal(VarName("Variable_LF_Up_Bound", t), up, 0)
	}

	down := linprog.NewExpr().Add(b.varID("Variable_LF_Down", t), 1)
	for _, r := range b.sys.Sets.Variable {
		if b.sys.ResourceZone(r).InLoadFollowing {
			down.Add(b.varID("Provide_Power", r, t), -availFrac)
		}
	}
	b.lp.LessEq(VarName("Variable_LF_Down_Bound", t), down, 0)

	// neither direction may carry more than its share of the requirement
	upShare := linprog.NewExpr().
		Add(b.varID("Variable_LF_Up", t), 1).
		AddExpr(lfUpReq, -maxShare)
	b.lp.LessEq(VarName("Variable_LF_Up_Share", t), upShare, 0)

	downShare := linprog.NewExpr().
		Add(b.varID("Variable_LF_Down", t), 1).
		AddExpr(lfDownReq, -maxShare)
	b.lp.LessEq(VarName("Variable_LF_Down_Share", t), downShare, 0)
}

// buildFreqRespRequirements floors total and partial frequency response.
// Zero requirements are structural skips, not trivial rows.
func (b *Builder) buildFreqRespRequirements(t int) {
	if req := b.systemParam("total_freq_resp_req_mw", t); req > 0 {
		e := linprog.NewExpr()
		for _, r := range b.sys.Sets.TotalFreqResp {
			e.Add(b.varID("Provide_Freq_Resp", r, t), 1)
		}
		b.lp.GreaterEq(VarName("Total_Freq_Resp_Requirement", t), e, req)
	}
	if req := b.systemParam("partial_freq_resp_req_mw", t); req > 0 {
		e := linprog.NewExpr()
		for _, r := range b.sys.Sets.PartialFreqResp {
			e.Add(b.varID("Provide_Freq_Resp", r, t), 1)
		}
		b.lp.GreaterEq(VarName("Partial_Freq_Resp_Requirement", t), e, req)
	}
}

// eeLoadReduction is the load relief delivered by energy-efficiency
// programs in zone z at t.
func (b *Builder) eeLoadReduction(z string, t int) *linprog.Expr {
	return b.memo("eeReduction", func() *linprog.Expr {
		e := linprog.NewExpr()
		for _, r := range b.sys.Sets.EEPrograms {
			if b.sys.Resources[r].Zone != z {
				continue
			}
			shape := b.pt("ee_shape", r, t)
			if shape > 0 {
				e.AddExpr(b.OperationalCapacity(r, b.idx.Period(t)), shape)
			}
		}
		return e
	}, z, t)
}

// systemParam reads a system-wide value scoped to t's (period, day, hour).
func (b *Builder) systemParam(param string, t int) float64 {
	return b.prm.Get(param, params.Key{
		Period: b.idx.Period(t), Day: b.idx.Day(t), Hour: b.idx.HourOfDay(t)})
}

// systemScalar reads an unscoped system-wide value.
func (b *Builder) systemScalar(param string) float64 {
	return b.prm.Get(param, params.Key{})
}

// subhourlyCurtailment is the expected curtailed energy behind downward
// variable load-following awards.
func (b *Builder) subhourlyCurtailment(t int) *linprog.Expr {
	return b.memo("subhourlyCurtail", func() *linprog.Expr {
		frac := b.systemScalar("lf_reserve_dispatch_fraction")
		return linprog.NewExpr().Add(b.varID("Variable_LF_Down", t), frac)
	}, t)
}

// subhourlyGeneration is the expected recovered energy behind upward
// variable load-following awards.
func (b *Builder) subhourlyGeneration(t int) *linprog.Expr {
	return b.memo("subhourlyGen", func() *linprog.Expr {
		frac := b.systemScalar("lf_reserve_dispatch_fraction")
		return linprog.NewExpr().Add(b.varID("Variable_LF_Up", t), frac)
	}, t)
}
