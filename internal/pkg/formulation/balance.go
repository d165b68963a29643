package formulation

import (
	"math"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildPowerBalance closes supply and demand in every zone at every
// timepoint. Overgeneration always has a penalized outlet; unserved energy
// only exists when the run allows it, so a short system without the toggle
// is infeasible rather than silently shedding load.
func (b *Builder) buildPowerBalance() error {
	inf := math.Inf(1)

	for _, z := range b.sys.ZoneNames {
		for _, t := range b.idx.Timepoints() {
			b.addVar(0, inf, "Overgeneration", z, t)
			if b.tog.AllowUnservedEnergy {
				b.addVar(0, inf, "Unserved_Energy", z, t)
			}
		}
	}

	for _, z := range b.sys.ZoneNames {
		for _, t := range b.idx.Timepoints() {
			bal := linprog.NewExpr()

			for _, r := range b.sys.ResourceNames {
				if b.sys.Resources[r].Zone != z {
					continue
				}
				if b.hasVar("Provide_Power", r, t) {
					bal.Add(b.varID("Provide_Power", r, t), 1)
				}
				if b.hasVar("Charge_Storage", r, t) {
					bal.Add(b.varID("Charge_Storage", r, t), -1)
				}
				if b.hasVar("Charge_EV_Batteries", r, t) {
					bal.Add(b.varID("Charge_EV_Batteries", r, t), -1)
				}
				if b.hasVar("Hydrogen_Electrolysis_Load", r, t) {
					bal.Add(b.varID("Hydrogen_Electrolysis_Load", r, t), -1)
				}
				if b.hasVar("Shift_Load_Up", r, t) {
					bal.Add(b.varID("Shift_Load_Up", r, t), -1)
					bal.Add(b.varID("Shift_Load_Down", r, t), 1)
				}
			}

			for _, l := range b.sys.LineNames {
				line := b.sys.Lines[l]
				switch {
				case line.ToZone == z:
					bal.AddExpr(b.totalFlow(l, t), 1)
				case line.FromZone == z:
					bal.AddExpr(b.totalFlow(l, t), -1)
				}
			}

			if b.tog.AllowSemiStorageZones {
				for name, ssz := range b.sys.SSZones {
					if ssz.FromZone == z {
						bal.Add(b.varID("SSZ_Transmit_Power", name, t), 1)
					}
				}
			}

			bal.AddExpr(b.eeLoadReduction(z, t), 1)
			bal.Add(b.varID("Overgeneration", z, t), -1)
			if b.tog.AllowUnservedEnergy {
				bal.Add(b.varID("Unserved_Energy", z, t), 1)
			}

			b.lp.Equal(VarName("Zone_Power_Balance", z, t), bal, b.pt("input_load_mw", z, t))
		}
	}
	return nil
}
