package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildCommitment declares the linearized unit-commitment state machine for
// dispatchable thermal resources. Each resource tracks committed units plus
// start/stop transitions; units inside their minimum down/up window are
// "starting"/"shutting down" and held at minimum stable level rather than
// modeled with explicit on/off indicators.
func (b *Builder) buildCommitment() error {
	inf := math.Inf(1)

	for _, r := range b.sys.Sets.Dispatchable {
		for _, t := range b.idx.Timepoints() {
			b.addUnitVar(0, inf, "Commit_Units", r, t)
			b.addUnitVar(0, inf, "Start_Units", r, t)
			b.addUnitVar(0, inf, "Shut_Down_Units", r, t)
		}
	}

	for _, r := range b.sys.Sets.Dispatchable {
		tech := b.sys.Tech(r)
		size := tech.UnitSizeMW
		msl := tech.MinStableLevel
		rampLimited := contains(b.sys.Sets.DispatchableRampLim, r)

		for _, t := range b.idx.Timepoints() {
			commit := b.varID("Commit_Units", r, t)
			start := b.varID("Start_Units", r, t)
			shut := b.varID("Shut_Down_Units", r, t)

			// conservation across the circular previous timepoint
			track := linprog.NewExpr().
				Add(commit, 1).
				Add(b.varID("Commit_Units", r, b.idx.Prev(t)), -1).
				Add(start, -1).
				Add(shut, 1)
			b.lp.Equal(VarName("Commitment_Tracking", r, t), track, 0)

			// committed capacity within available capacity; a must-commit
			// resource pins the full fleet on
			commitCap := linprog.NewExpr().Add(commit, size)
			if b.sys.Resources[r].CommitAllCapacity {
				e := linprog.NewExpr().AddExpr(commitCap, 1).AddExpr(b.AvailableCapacity(r, t), -1)
				b.lp.Equal(VarName("Commit_All_Capacity", r, t), e, 0)
			} else {
				e := linprog.NewExpr().AddExpr(commitCap, 1).
					AddExpr(b.startingUnits(r, t), size).
					AddExpr(b.AvailableCapacity(r, t), -1)
				b.lp.LessEq(VarName("Maximum_Commitment", r, t), e, 0)
			}

			// units scheduled to start must fit alongside what is running
			unitsStart := linprog.NewExpr().
				Add(b.preStartUnits(r, t), size).
				AddExpr(b.startingUnits(r, t), size).
				AddExpr(commitCap, 1).
				AddExpr(b.AvailableCapacity(r, t), -1)
			b.lp.LessEq(VarName("Units_Start", r, t), unitsStart, 0)

			// units scheduled to stop must be committed and not already
			// shutting down
			unitsShut := linprog.NewExpr().
				Add(b.preShutDownUnits(r, t), 1).
				Add(commit, -1).
				AddExpr(b.shuttingDownUnits(r, t), 1)
			b.lp.LessEq(VarName("Units_Shut_Down", r, t), unitsShut, 0)

			// maximum generation plus upward reserves
			maxGen := linprog.NewExpr().
				Add(b.varID("Provide_Power", r, t), 1).
				AddExpr(b.upwardReserves(r, t), 1)
			if rampLimited {
				// transitioning units hold minimum stable level only
				fullyOp := b.fullyOperationalUnits(r, t)
				maxGen.AddExpr(fullyOp, -size)
				transit := linprog.NewExpr().Add(commit, 1).AddExpr(fullyOp, -1)
				maxGen.AddExpr(transit, -size*msl)
			} else {
				maxGen.AddExpr(commitCap, -1)
			}
			b.lp.LessEq(VarName("Max_Gen_Up_Reserve", r, t), maxGen, 0)

			// minimum generation net of downward reserves
			minGen := linprog.NewExpr().
				Add(b.varID("Provide_Power", r, t), 1).
				AddExpr(b.downwardReserves(r, t), -1).
				AddExpr(commitCap, -msl)
			if rampLimited {
				transit := linprog.NewExpr().Add(commit, 1).AddExpr(b.fullyOperationalUnits(r, t), -1)
				minGen.AddExpr(transit, rampRelaxMW)
			}
			b.lp.GreaterEq(VarName("Min_Gen_Down_Reserve", r, t), minGen, 0)

			if rampLimited {
				b.buildRampConstraints(r, t)
			}
			b.buildReserveRampLimits(r, t)
			b.buildFreqRespLimit(r, t, rampLimited)
		}
	}

	return nil
}

// buildRampConstraints bounds hour-to-hour power movement. Structurally
// skipped when a unit can traverse its full dispatch range within the hour.
func (b *Builder) buildRampConstraints(r string, t int) {
	tech := b.sys.Tech(r)
	if tech.RampRateFraction >= 1-tech.MinStableLevel {
		return
	}
	size := tech.UnitSizeMW
	ramp := tech.RampRateFraction
	msl := tech.MinStableLevel
	prev := b.idx.Prev(t)

	commitCap := linprog.NewExpr().Add(b.varID("Commit_Units", r, t), size)
	startCap := linprog.NewExpr().Add(b.varID("Start_Units", r, t), size)

	up := linprog.NewExpr().
		Add(b.varID("Provide_Power", r, t), 1).
		Add(b.varID("Provide_Power", r, prev), -1).
		AddExpr(commitCap, -ramp).
		AddExpr(startCap, ramp).
		AddExpr(startCap, -msl).
		Add(b.varID("Start_Units", r, t), -rampRelaxMW)
	b.lp.LessEq(VarName("Ramp_Up", r, t), up, 0)

	down := linprog.NewExpr().
		Add(b.varID("Provide_Power", r, prev), 1).
		Add(b.varID("Provide_Power", r, t), -1).
		AddExpr(commitCap, -ramp).
		Add(b.varID("Shut_Down_Units", r, t), -size*msl).
		Add(b.varID("Shut_Down_Units", r, t), -rampRelaxMW)
	b.lp.LessEq(VarName("Ramp_Down", r, t), down, 0)
}

// buildReserveRampLimits caps reserve awards by what committed units can
// move within the product's response timeframe. Skipped when the fleet can
// cover its whole dispatchable range inside the timeframe.
func (b *Builder) buildReserveRampLimits(r string, t int) {
	if !b.isReserveProvider(r) {
		return
	}
	tech := b.sys.Tech(r)
	tf := b.p("reserve_timeframe_fraction_of_hour", r)
	if tf <= 0 {
		tf = 1
	}
	if tf*tech.RampRateFraction >= 1-tech.MinStableLevel {
		return
	}
	limit := tech.UnitSizeMW * tech.RampRateFraction * tf

	up := linprog.NewExpr().
		AddExpr(b.upwardReserves(r, t), 1).
		Add(b.varID("Commit_Units", r, t), -limit)
	b.lp.LessEq(VarName("Upward_Reserve_Ramp", r, t), up, 0)

	down := linprog.NewExpr().
		AddExpr(b.downwardReserves(r, t), 1).
		Add(b.varID("Commit_Units", r, t), -limit)
	b.lp.LessEq(VarName("Downward_Reserve_Ramp", r, t), down, 0)
}

// buildFreqRespLimit caps frequency response by the responsive fraction of
// running capacity.
func (b *Builder) buildFreqRespLimit(r string, t int, rampLimited bool) {
	if !b.sys.Resources[r].TotalFreqResp {
		return
	}
	tech := b.sys.Tech(r)
	frac := b.p("freq_resp_fraction_of_committed", r)

	e := linprog.NewExpr().Add(b.varID("Provide_Freq_Resp", r, t), 1)
	if rampLimited {
		e.AddExpr(b.fullyOperationalUnits(r, t), -frac*tech.UnitSizeMW)
	} else {
		e.Add(b.varID("Commit_Units", r, t), -frac*tech.UnitSizeMW)
	}
	b.lp.LessEq(VarName("Freq_Resp_Limit", r, t), e, 0)
}

// preStartUnits is the start decision landing min-down hours ahead of t.
func (b *Builder) preStartUnits(r string, t int) linprog.VarID {
	minDown := b.sys.Tech(r).MinDownTimeHours
	return b.varID("Start_Units", r, b.idx.Lookahead(t, minDown))
}

// preShutDownUnits is the stop decision landing min-up hours ahead of t.
func (b *Builder) preShutDownUnits(r string, t int) linprog.VarID {
	minUp := b.sys.Tech(r).MinUpTimeHours
	return b.varID("Shut_Down_Units", r, b.idx.Lookahead(t, minUp))
}

// startingUnits sums starts over the preceding min-down window: units begun
// but not yet fully operational.
func (b *Builder) startingUnits(r string, t int) *linprog.Expr {
	return b.memo("startingUnits", func() *linprog.Expr {
		e := linprog.NewExpr()
		minDown := b.sys.Tech(r).MinDownTimeHours
		for pt := 1; pt <= minDown-1; pt++ {
			e.Add(b.varID("Start_Units", r, b.idx.Lookback(t, pt)), 1)
		}
		return e
	}, r, t)
}

// shuttingDownUnits sums stops over the preceding min-up window.
func (b *Builder) shuttingDownUnits(r string, t int) *linprog.Expr {
	return b.memo("shuttingDownUnits", func() *linprog.Expr {
		e := linprog.NewExpr()
		minUp := b.sys.Tech(r).MinUpTimeHours
		for pt := 1; pt <= minUp-1; pt++ {
			e.Add(b.varID("Shut_Down_Units", r, b.idx.Lookback(t, pt)), 1)
		}
		return e
	}, r, t)
}

// fullyOperationalUnits excludes units starting now and units that will
// begin a shutdown at the next timepoint; the look-ahead captures units
// completing a shutdown sequence.
func (b *Builder) fullyOperationalUnits(r string, t int) *linprog.Expr {
	return b.memo("fullyOperational", func() *linprog.Expr {
		return linprog.NewExpr().
			Add(b.varID("Commit_Units", r, t), 1).
			Add(b.varID("Start_Units", r, t), -1).
			Add(b.varID("Shut_Down_Units", r, b.idx.Next(t)), -1)
	}, r, t)
}
