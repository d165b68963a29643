package formulation

// $/kW-yr inputs scale to $/MW-yr
const kwToMW = 1000.0

// buildObjective assembles the discounted total-cost objective: annualized
// investment in capacity, storage energy and transmission, fixed and
// variable operations, fuel, commitment events, hurdle payments, and the
// penalty prices that keep slack variables expensive.
func (b *Builder) buildObjective() error {
	b.buildInvestmentCosts()
	b.buildOperatingCosts()
	b.buildPenaltyCosts()
	return nil
}

func (b *Builder) buildInvestmentCosts() {
	for _, r := range b.sys.Sets.NewBuild {
		for _, pv := range b.idx.PeriodVintages() {
			p, v := pv[0], pv[1]
			disc := b.idx.DiscountFactor(p)

			if cost := b.pp("capacity_cost_per_kw_yr", r, v); cost > 0 {
				b.lp.AddCost(b.varID("Build_Capacity", r, v), disc*cost*kwToMW)
			}
			if contains(b.sys.Sets.NewBuildStorage, r) {
				if cost := b.pp("storage_energy_cost_per_kwh_yr", r, v); cost > 0 {
					b.lp.AddCost(b.varID("Build_Storage_Energy", r, v), disc*cost*kwToMW)
				}
			}
		}
	}

	for _, r := range b.sys.Sets.NewBuild {
		for _, p := range b.idx.Periods() {
			if cost := b.pp("fixed_om_per_kw_yr", r, p); cost > 0 {
				b.lp.AddCostExpr(b.OperationalNewCapacity(r, p), b.idx.DiscountFactor(p)*cost*kwToMW)
			}
		}
	}

	if b.tog.AllowTxBuild {
		for _, l := range b.sys.Sets.LinesNew {
			for _, pv := range b.idx.PeriodVintages() {
				p, v := pv[0], pv[1]
				if cost := b.pp("tx_capital_cost_per_mw_yr", l, v); cost > 0 {
					b.lp.AddCost(b.varID("Build_Tx_Capacity", l, v), b.idx.DiscountFactor(p)*cost)
				}
			}
		}
	}

	for _, z := range b.deliverabilityZones() {
		for _, p := range b.idx.Periods() {
			if cost := b.pp("new_tx_deliverability_cost_per_mw_yr", z, p); cost > 0 {
				b.lp.AddCost(b.varID("New_Transmission_Capacity", z, p), b.idx.DiscountFactor(p)*cost)
			}
		}
	}

	if b.tog.IncludeFlexibleLoad {
		for _, r := range b.sys.Sets.FlexibleLoad {
			for _, p := range b.idx.Periods() {
				b.lp.AddCost(b.varID("Flexible_Load_DR_Cost", r, p), b.idx.DiscountFactor(p))
			}
		}
	}
}

func (b *Builder) buildOperatingCosts() {
	for _, r := range b.powerResources() {
		varCost := b.p("variable_cost_per_mwh", r)
		for _, t := range b.idx.Timepoints() {
			w := b.hourlyWeight(t)
			if varCost > 0 {
				b.lp.AddCost(b.varID("Provide_Power", r, t), w*varCost)
			}
		}
	}

	for _, r := range b.sys.Sets.Thermal {
		fuel := b.sys.Tech(r).Fuel
		startFuel := b.sys.Tech(r).StartFuelMMBtu
		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			price := b.pp("fuel_price_per_mmbtu", fuel, p)
			if price == 0 {
				continue
			}
			w := b.hourlyWeight(t)
			b.lp.AddCostExpr(b.fuelBurn(r, t), w*price)
			if contains(b.sys.Sets.Dispatchable, r) && startFuel > 0 {
				b.lp.AddCost(b.varID("Start_Units", r, t), w*price*startFuel)
			}
		}
	}

	for _, r := range b.sys.Sets.Dispatchable {
		size := b.sys.Tech(r).UnitSizeMW
		startCost := b.p("startup_cost_per_mw", r) * size
		shutCost := b.p("shutdown_cost_per_mw", r) * size
		if startCost == 0 && shutCost == 0 {
			continue
		}
		for _, t := range b.idx.Timepoints() {
			w := b.hourlyWeight(t)
			if startCost > 0 {
				b.lp.AddCost(b.varID("Start_Units", r, t), w*startCost)
			}
			if shutCost > 0 {
				b.lp.AddCost(b.varID("Shut_Down_Units", r, t), w*shutCost)
			}
		}
	}

	// curtailment is only priced where it does not count toward a
	// renewables target
	for _, r := range b.sys.Sets.CurtailableVariable {
		if b.sys.Resources[r].RPSEligible {
			continue
		}
		z := b.sys.Resources[r].Zone
		for _, t := range b.idx.Timepoints() {
			cost := b.pp("curtailment_cost_per_mwh", z, b.idx.Period(t))
			if cost > 0 {
				b.lp.AddCost(b.varID("Scheduled_Curtailment", r, t), b.hourlyWeight(t)*cost)
			}
		}
	}

	for _, l := range b.sys.LineNames {
		for _, t := range b.idx.Timepoints() {
			p := b.idx.Period(t)
			w := b.hourlyWeight(t)
			if rate := b.pp("hurdle_rate_positive_direction", l, p); rate > 0 {
				b.lp.AddCost(b.varID("Transmit_Power_Positive", l, t), w*rate)
			}
			if rate := b.pp("hurdle_rate_negative_direction", l, p); rate > 0 {
				b.lp.AddCost(b.varID("Transmit_Power_Negative", l, t), w*rate)
			}
		}
	}
}

func (b *Builder) buildPenaltyCosts() {
	penalties := []struct {
		varName string
		param   string
	}{
		{"Spin_Violation", "spin_violation_penalty_per_mw"},
		{"Reg_Up_Violation", "reg_violation_penalty_per_mw"},
		{"Reg_Down_Violation", "reg_violation_penalty_per_mw"},
		{"LF_Up_Violation", "lf_violation_penalty_per_mw"},
		{"LF_Down_Violation", "lf_violation_penalty_per_mw"},
	}

	for _, t := range b.idx.Timepoints() {
		w := b.hourlyWeight(t)
		for _, pen := range penalties {
			b.lp.AddCost(b.varID(pen.varName, t), w*b.systemScalar(pen.param))
		}
		for _, z := range b.sys.ZoneNames {
			b.lp.AddCost(b.varID("Overgeneration", z, t),
				w*b.systemScalar("overgeneration_penalty_per_mwh"))
			if b.tog.AllowUnservedEnergy {
				b.lp.AddCost(b.varID("Unserved_Energy", z, t),
					w*b.systemScalar("unserved_energy_penalty_per_mwh"))
			}
		}
	}
}
