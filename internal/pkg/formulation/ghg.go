package formulation

import (
	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
)

// buildGHG caps yearly emissions in the target area. In-area combustion is
// priced off the fuel burn curves; unspecified imports across the area
// boundary carry a per-MWh deemed rate. Biogas blending displaces fossil
// fuel one for one.
func (b *Builder) buildGHG() error {
	if !b.tog.EnforceGHGTargets {
		return nil
	}

	inArea := func(z string) bool { return b.sys.Zones[z].InGHGTarget }

	for _, p := range b.idx.Periods() {
		emis := linprog.NewExpr()

		for _, r := range b.sys.Sets.Thermal {
			if !inArea(b.sys.Resources[r].Zone) {
				continue
			}
			rate := b.sys.Fuels[b.sys.Tech(r).Fuel].CO2PerMMBtu
			if rate == 0 {
				continue
			}
			emis.AddExpr(b.annualFuelBurn(r, p), rate)
			if b.hasVar("Biogas_Consumption", r, p) {
				emis.Add(b.varID("Biogas_Consumption", r, p), -rate)
			}
		}

		for _, l := range b.sys.LineNames {
			line := b.sys.Lines[l]
			rate := b.pp("ghg_import_emissions_tonnes_per_mwh", l, p)
			if rate == 0 {
				continue
			}
			switch {
			case inArea(line.ToZone) && !inArea(line.FromZone):
				for _, t := range b.periodTimepoints(p) {
					emis.Add(b.varID("Transmit_Power_Positive", l, t), rate*b.idx.DayWeight(t))
				}
			case inArea(line.FromZone) && !inArea(line.ToZone):
				for _, t := range b.periodTimepoints(p) {
					emis.Add(b.varID("Transmit_Power_Negative", l, t), rate*b.idx.DayWeight(t))
				}
			}
		}

		target := b.periodParam("ghg_target_tonnes", p) +
			b.periodParam("ghg_emissions_credit_tonnes", p)
		b.lp.LessEq(VarName("GHG_Target", p), emis, target)
	}
	return nil
}
