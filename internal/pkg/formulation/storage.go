package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildStorage declares state of charge and charging decisions and the
// circular per-day energy-balance recursion. Reserve awards enter the
// recursion at their expected dispatch fraction (mileage), and separate
// headroom rows keep awards physically deliverable in both power and energy.
func (b *Builder) buildStorage() error {
	inf := math.Inf(1)

	for _, r := range b.sys.Sets.Storage {
		for _, t := range b.idx.Timepoints() {
			b.addVar(0, inf, "Charge_Storage", r, t)
			b.addVar(0, inf, "Energy_In_Storage", r, t)
		}
	}

	for _, r := range b.sys.Sets.Storage {
		tech := b.sys.Tech(r)
		etaC := tech.ChargingEfficiency
		etaD := tech.DischargingEfficiency
		regFrac := b.p("reg_dispatch_fraction", r)
		lfFrac := b.p("lf_reserve_dispatch_fraction", r)
		rec := b.sys.Resources[r]

		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			power := b.varID("Provide_Power", r, t)
			charge := b.varID("Charge_Storage", r, t)
			energy := b.varID("Energy_In_Storage", r, t)

			// symmetric power rating caps charge and discharge alike
			b.lp.LessEq(VarName("Max_Discharge", r, t),
				linprog.NewExpr().Add(power, 1).AddExpr(b.AvailableCapacity(r, t), -1), 0)
			b.lp.LessEq(VarName("Max_Charge", r, t),
				linprog.NewExpr().Add(charge, 1).AddExpr(b.AvailableCapacity(r, t), -1), 0)

			b.lp.LessEq(VarName("Max_Energy", r, t),
				linprog.NewExpr().Add(energy, 1).
					AddExpr(b.TotalStorageEnergyCapacity(r, p), -b.maintenanceDerate(r, t)), 0)

			// E[next] = E + charging*etaC - discharging/etaD, where the
			// charging/discharging streams carry reserve mileage
			charging := linprog.NewExpr().Add(charge, 1)
			discharging := linprog.NewExpr().Add(power, 1)
			if rec.CanProvideReg {
				charging.Add(b.varID("Provide_Reg_Down", r, t), regFrac)
				discharging.Add(b.varID("Provide_Reg_Up", r, t), regFrac)
			}
			if rec.CanProvideLF {
				charging.Add(b.varID("Provide_LF_Down", r, t), lfFrac)
				discharging.Add(b.varID("Provide_LF_Up", r, t), lfFrac)
			}

			track := linprog.NewExpr().
				Add(b.varID("Energy_In_Storage", r, b.idx.Next(t)), 1).
				Add(energy, -1).
				AddExpr(charging, -etaC).
				AddExpr(discharging, 1/etaD)
			b.lp.Equal(VarName("Energy_Tracking", r, t), track, 0)

			if b.isReserveProvider(r) {
				// power headroom both directions
				up := linprog.NewExpr().
					Add(power, 1).
					AddExpr(b.upwardReserves(r, t), 1).
					Add(charge, -1).
					AddExpr(b.OperationalCapacity(r, p), -1)
				b.lp.LessEq(VarName("Up_Reserve_Power_Headroom", r, t), up, 0)

				down := linprog.NewExpr().
					Add(charge, 1).
					AddExpr(b.downwardReserves(r, t), 1).
					Add(power, -1).
					AddExpr(b.OperationalCapacity(r, p), -1)
				b.lp.LessEq(VarName("Down_Reserve_Power_Headroom", r, t), down, 0)

				// stored energy must sustain a full upward dispatch, and
				// spare energy capacity a full downward one
				upEnergy := linprog.NewExpr().
					Add(power, 1).
					AddExpr(b.upwardReserves(r, t), 1).
					Add(charge, -1).
					Add(energy, -etaD)
				b.lp.LessEq(VarName("Up_Reserve_Energy", r, t), upEnergy, 0)

				downEnergy := linprog.NewExpr().
					Add(charge, 1).
					AddExpr(b.downwardReserves(r, t), 1).
					Add(power, -1).
					AddExpr(b.TotalStorageEnergyCapacity(r, p), -1/etaC).
					Add(energy, 1/etaC)
				b.lp.LessEq(VarName("Down_Reserve_Energy", r, t), downEnergy, 0)
			}
		}
	}

	return nil
}
