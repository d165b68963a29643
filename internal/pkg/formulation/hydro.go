package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

// buildHydro declares the daily energy-budget dispatch of hydro resources:
// min/max generation fractions, the daily budget (an equality unless spill
// is allowed), multi-hour ramp envelopes, and optionally the multi-day
// budget-sharing mechanism.
//
// Duration- and day-scoped hydro parameters use the generic key's Day and
// Hour slots for their index.
func (b *Builder) buildHydro() error {
	inf := math.Inf(1)

	if b.tog.MultiDayHydroSharing {
		for _, r := range b.sys.Sets.Hydro {
			for _, p := range b.idx.Periods() {
				for _, d := range b.idx.Days() {
					b.addVar(math.Inf(-1), inf, "Daily_Hydro_Budget_Increase", r, p, d)
					b.addVar(0, inf, "Positive_Hydro_Budget_Moved", r, p, d)
				}
			}
		}
	}

	for _, r := range b.sys.Sets.Hydro {
		regFrac := b.p("reg_dispatch_fraction", r)
		lfFrac := b.p("lf_reserve_dispatch_fraction", r)
		rec := b.sys.Resources[r]

		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			d := b.idx.Day(t)
			power := b.varID("Provide_Power", r, t)

			maxFrac := b.prm.Get("hydro_max_gen_fraction", params.Key{Object: r, Day: d})
			minFrac := b.prm.Get("hydro_min_gen_fraction", params.Key{Object: r, Day: d})

			max := linprog.NewExpr().
				Add(power, 1).
				AddExpr(b.upwardReserves(r, t), 1).
				AddExpr(b.OperationalCapacity(r, p), -maxFrac)
			b.lp.LessEq(VarName("Hydro_Max_Gen", r, t), max, 0)

			min := linprog.NewExpr().
				Add(power, 1).
				AddExpr(b.downwardReserves(r, t), -1).
				AddExpr(b.OperationalCapacity(r, p), -minFrac)
			b.lp.GreaterEq(VarName("Hydro_Min_Gen", r, t), min, 0)

			b.buildHydroRamp(r, t)
		}

		for _, p := range b.idx.Periods() {
			for _, d := range b.idx.Days() {
				budgetFrac := b.prm.Get("hydro_daily_energy_fraction", params.Key{Object: r, Day: d})
				members := b.idx.DayTimepoints(p, d)

				dispatch := linprog.NewExpr()
				for _, t := range members {
					dispatch.Add(b.varID("Provide_Power", r, t), 1)
					if rec.CanProvideReg {
						dispatch.Add(b.varID("Provide_Reg_Up", r, t), regFrac)
						dispatch.Add(b.varID("Provide_Reg_Down", r, t), -regFrac)
					}
					if rec.CanProvideLF {
						dispatch.Add(b.varID("Provide_LF_Up", r, t), lfFrac)
						dispatch.Add(b.varID("Provide_LF_Down", r, t), -lfFrac)
					}
				}
				dispatch.AddExpr(b.OperationalCapacity(r, p), -budgetFrac*float64(len(members)))
				if b.tog.MultiDayHydroSharing {
					dispatch.Add(b.varID("Daily_Hydro_Budget_Increase", r, p, d), -1)
				}

				if b.tog.AllowHydroSpill {
					b.lp.LessEq(VarName("Hydro_Daily_Budget", r, p, d), dispatch, 0)
				} else {
					b.lp.Equal(VarName("Hydro_Daily_Budget", r, p, d), dispatch, 0)
				}
			}
		}

		if b.tog.MultiDayHydroSharing {
			b.buildHydroSharing(r)
		}
	}

	return nil
}

// buildHydroRamp bounds power movement over every constrained duration,
// looking back with day wraparound.
func (b *Builder) buildHydroRamp(r string, t int) {
	maxDur := int(b.p("hydro_max_ramp_duration", r))
	for dur := 1; dur <= maxDur; dur++ {
		upFrac := b.prm.Get("hydro_ramp_up_fraction", params.Key{Object: r, Hour: dur})
		downFrac := b.prm.Get("hydro_ramp_down_fraction", params.Key{Object: r, Hour: dur})
		back := b.idx.Lookback(t, dur)
		p := b.idx.Period(t)

		up := linprog.NewExpr().
			Add(b.varID("Provide_Power", r, t), 1).
			Add(b.varID("Provide_Power", r, back), -1).
			AddExpr(b.OperationalCapacity(r, p), -upFrac)
		b.lp.LessEq(VarName("Hydro_Ramp_Up", r, t, dur), up, 0)

		down := linprog.NewExpr().
			Add(b.varID("Provide_Power", r, back), 1).
			Add(b.varID("Provide_Power", r, t), -1).
			AddExpr(b.OperationalCapacity(r, p), -downFrac)
		b.lp.LessEq(VarName("Hydro_Ramp_Down", r, t, dur), down, 0)
	}
}

// buildHydroSharing keeps moved energy net zero within each sharing
// interval and bounds how far daily budgets may move.
func (b *Builder) buildHydroSharing(r string) {
	intervals := make(map[int][]int)
	for _, d := range b.idx.Days() {
		id := int(b.prm.Get("hydro_sharing_interval_id", params.Key{Day: d}))
		intervals[id] = append(intervals[id], d)
	}

	for _, p := range b.idx.Periods() {
		for _, days := range intervals {
			net := linprog.NewExpr()
			moved := linprog.NewExpr()
			for _, d := range days {
				weight := b.dayWeightOf(p, d)
				net.Add(b.varID("Daily_Hydro_Budget_Increase", r, p, d), weight)
				moved.Add(b.varID("Positive_Hydro_Budget_Moved", r, p, d), weight)
			}
			id := int(b.prm.Get("hydro_sharing_interval_id", params.Key{Day: days[0]}))
			b.lp.Equal(VarName("Net_Zero_Hydro_Sharing", r, p, id), net, 0)

			maxMove := b.prm.Get("max_hydro_to_move_hours", params.Key{Object: r, Hour: id})
			moved.AddExpr(b.OperationalCapacity(r, p), -maxMove)
			b.lp.LessEq(VarName("Max_Hydro_Moved", r, p, id), moved, 0)
		}

		for _, d := range b.idx.Days() {
			inc := b.varID("Daily_Hydro_Budget_Increase", r, p, d)
			decHours := b.prm.Get("daily_max_hydro_budget_decrease_hours", params.Key{Object: r, Day: d})
			incHours := b.prm.Get("daily_max_hydro_budget_increase_hours", params.Key{Object: r, Day: d})

			lower := linprog.NewExpr().Add(inc, 1).AddExpr(b.OperationalCapacity(r, p), decHours)
			b.lp.GreaterEq(VarName("Min_Daily_Budget_Change", r, p, d), lower, 0)

			upper := linprog.NewExpr().Add(inc, 1).AddExpr(b.OperationalCapacity(r, p), -incHours)
			b.lp.LessEq(VarName("Max_Daily_Budget_Change", r, p, d), upper, 0)

			pos := linprog.NewExpr().
				Add(b.varID("Positive_Hydro_Budget_Moved", r, p, d), 1).
				Add(inc, -1)
			b.lp.GreaterEq(VarName("Positive_Budget_Moved", r, p, d), pos, 0)
		}
	}
}

// dayWeightOf reads the weight of day d through any of its timepoints.
func (b *Builder) dayWeightOf(p, d int) float64 {
	members := b.idx.DayTimepoints(p, d)
	return b.idx.DayWeight(members[0])
}
