package formulation

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
	"github.com/ohowland/cgc_expand/internal/pkg/system"
	"github.com/ohowland/cgc_expand/internal/pkg/timeidx"
)

func testIndex(t *testing.T) *timeidx.Index {
	t.Helper()
	var tps []timeidx.Timepoint
	for h := 0; h < 24; h++ {
		tps = append(tps, timeidx.Timepoint{
			ID: h + 1, Period: 2030, Month: 7, Day: 1, HourOfDay: h, DayWeight: 365,
		})
	}
	idx, err := timeidx.New(tps, []timeidx.PeriodInfo{
		{Period: 2030, DiscountFactor: 1.0, YearsInPeriod: 5},
	})
	assert.NilError(t, err)
	return idx
}

func testStore() *params.Store {
	store := params.NewStore()
	store.SetDefault("net_qualifying_capacity_fraction", 1.0)

	bind := func(param string, key params.Key, v float64) {
		if err := store.Set(param, key, v); err != nil {
			panic(err)
		}
	}

	bind("planned_installed_capacity_mw", params.Key{Object: "CCGT1", Period: 2030}, 200)
	bind("capacity_limit_mw", params.Key{Object: "SOLAR1", Period: 2030}, 500)
	for h := 0; h < 24; h++ {
		bind("shape", params.Key{Object: "SOLAR1", Period: 2030, Day: 1, Hour: h}, 0.5)
		bind("input_load_mw", params.Key{Object: "Z1", Period: 2030, Day: 1, Hour: h}, 100)
	}
	bind("elcc_solar", params.Key{Object: "SOLAR1"}, 1)
	bind("elcc_facet_count", params.Key{Period: 2030}, 1)
	bind("elcc_facet_solar_coefficient", params.Key{Period: 2030}, 0.5)
	bind("elcc_facet_wind_coefficient", params.Key{Period: 2030}, 0)
	bind("elcc_facet_intercept_fraction", params.Key{Period: 2030}, 0.1)
	bind("storage_elcc_hours", params.Key{Object: "BATT1"}, 4)
	bind("prm_peak_load_mw", params.Key{Object: "Z1", Period: 2030}, 120)
	bind("planning_reserve_margin", params.Key{Object: "Z1", Period: 2030}, 0.15)
	bind("fuel_price_per_mmbtu", params.Key{Object: "Gas", Period: 2030}, 3)
	bind("variable_cost_per_mwh", params.Key{Object: "CCGT1"}, 2)
	return store
}

func testSystem(t *testing.T, store *params.Store) *system.System {
	t.Helper()
	zones := []system.Zone{
		{Name: "Z1", InRPS: true, InPRM: true, InLoadFollowing: true, SpinFraction: 0.03},
	}
	techs := []system.Technology{
		{
			Name: "CCGT", Thermal: true, Dispatchable: true,
			UnitSizeMW: 50, MinStableLevel: 0.4, RampRateFraction: 0.3,
			MinUpTimeHours: 2, MinDownTimeHours: 2,
			FuelBurnSlope: 7, FuelBurnIntercept: 10, StartFuelMMBtu: 20, Fuel: "Gas",
		},
		{
			Name: "Battery", Storage: true,
			ChargingEfficiency: 0.9, DischargingEfficiency: 0.9, MinDurationHours: 4,
		},
		{Name: "Solar", Variable: true, Curtailable: true},
	}
	resources := []system.Resource{
		{Name: "CCGT1", Technology: "CCGT", Zone: "Z1",
			CanProvideSpin: true, CanProvideReg: true, ContributesToMinGen: true},
		{Name: "BATT1", Technology: "Battery", Zone: "Z1",
			CanBuildNew: true, CanProvideReg: true},
		{Name: "SOLAR1", Technology: "Solar", Zone: "Z1",
			CanBuildNew: true, RPSEligible: true, CapacityLimited: true},
	}
	sys, err := system.New(zones, techs, resources, nil, nil,
		[]system.Fuel{{Name: "Gas", CO2PerMMBtu: 0.053}}, nil, store, []int{2030})
	assert.NilError(t, err)
	return sys
}

func buildInstance(t *testing.T, tog Toggles) *Instance {
	t.Helper()
	store := testStore()
	inst, err := NewBuilder(testSystem(t, store), testIndex(t), tog).Build()
	assert.NilError(t, err)
	return inst
}

func findRow(t *testing.T, lp *linprog.Problem, name string) (*linprog.Expr, float64, float64) {
	t.Helper()
	for i := 0; i < lp.NumRows(); i++ {
		if lp.RowName(i) == name {
			return lp.Row(i)
		}
	}
	t.Fatalf("row %s not found", name)
	return nil, 0, 0
}

func lookup(t *testing.T, lp *linprog.Problem, name string, keys ...interface{}) linprog.VarID {
	t.Helper()
	id, ok := lp.Lookup(VarName(name, keys...))
	assert.Assert(t, ok, "variable %s not found", VarName(name, keys...))
	return id
}

func TestBuildCompletes(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	assert.Assert(t, inst.LP.NumVars() > 0)
	assert.Assert(t, inst.LP.NumRows() > 0)
	assert.Equal(t, len(inst.LP.Integrality()), 0)
}

func TestCommitmentTracking(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	expr, lb, ub := findRow(t, lp, VarName("Commitment_Tracking", "CCGT1", 2))
	assert.Equal(t, lb, 0.0)
	assert.Equal(t, ub, 0.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Commit_Units", "CCGT1", 2)), 1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Commit_Units", "CCGT1", 1)), -1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Start_Units", "CCGT1", 2)), -1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Shut_Down_Units", "CCGT1", 2)), 1.0)
}

func TestCommitmentWrapsWithinDay(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	// the first hour's previous commitment is the last hour of the same day
	expr, _, _ := findRow(t, lp, VarName("Commitment_Tracking", "CCGT1", 1))
	assert.Equal(t, expr.Coef(lookup(t, lp, "Commit_Units", "CCGT1", 24)), -1.0)
}

func TestStorageEnergyRecursion(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	expr, lb, ub := findRow(t, lp, VarName("Energy_Tracking", "BATT1", 3))
	assert.Equal(t, lb, 0.0)
	assert.Equal(t, ub, 0.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Energy_In_Storage", "BATT1", 4)), 1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Energy_In_Storage", "BATT1", 3)), -1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Charge_Storage", "BATT1", 3)), -0.9)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Provide_Power", "BATT1", 3)), 1/0.9)
}

func TestPowerBalance(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	expr, lb, ub := findRow(t, lp, VarName("Zone_Power_Balance", "Z1", 5))
	assert.Equal(t, lb, 100.0)
	assert.Equal(t, ub, 100.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Provide_Power", "CCGT1", 5)), 1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Charge_Storage", "BATT1", 5)), -1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Overgeneration", "Z1", 5)), -1.0)
}

func TestUnservedEnergyGated(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	_, ok := inst.LP.Lookup(VarName("Unserved_Energy", "Z1", 1))
	assert.Assert(t, !ok)

	inst = buildInstance(t, Toggles{AllowUnservedEnergy: true})
	expr, _, _ := findRow(t, inst.LP, VarName("Zone_Power_Balance", "Z1", 1))
	assert.Equal(t, expr.Coef(lookup(t, inst.LP, "Unserved_Energy", "Z1", 1)), 1.0)
}

func TestIntegerUnitsIntegrality(t *testing.T) {
	inst := buildInstance(t, Toggles{IntegerUnits: true})
	integ := inst.LP.Integrality()
	assert.Equal(t, len(integ), inst.LP.NumVars())

	n := 0
	for _, i := range integ {
		n += i
	}
	// commit, start and shutdown columns for one unit over 24 hours
	assert.Equal(t, n, 3*24)
}

func TestRPSBankGated(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	_, ok := inst.LP.Lookup(VarName("RPS_Bank", 2030))
	assert.Assert(t, !ok)

	inst = buildInstance(t, Toggles{OptimizeRPSBanking: true})
	_, ok = inst.LP.Lookup(VarName("RPS_Bank", 2030))
	assert.Assert(t, ok)
}

func TestSpinRequirementCarriesViolation(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	expr, lb, ub := findRow(t, lp, VarName("Spin_Requirement", 3))
	assert.Equal(t, lb, 3.0) // 3% of 100 MW load
	assert.Equal(t, ub, 3.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Spin_Violation", 3)), 1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Provide_Spin", "CCGT1", 3)), 1.0)
}

func TestDeliverabilitySplit(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	expr, lb, ub := findRow(t, lp, VarName("Deliverability_Split", "SOLAR1", 2030))
	assert.Equal(t, lb, 0.0)
	assert.Equal(t, ub, 0.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Fully_Deliverable", "SOLAR1", 2030)), 1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Energy_Only", "SOLAR1", 2030)), 1.0)
}

func TestVariableDispatchFollowsShape(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	expr, lb, ub := findRow(t, lp, VarName("Variable_Dispatch", "SOLAR1", 12))
	assert.Equal(t, lb, 0.0)
	assert.Equal(t, ub, 0.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Provide_Power", "SOLAR1", 12)), 1.0)
	assert.Equal(t, expr.Coef(lookup(t, lp, "Scheduled_Curtailment", "SOLAR1", 12)), 1.0)
	// available capacity enters at the hourly shape
	assert.Equal(t, expr.Coef(lookup(t, lp, "Build_Capacity", "SOLAR1", 2030)), -0.5)
}

func TestPlanningReserveMargin(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	_, lb, ub := findRow(t, lp, VarName("Planning_Reserve_Margin", 2030))
	assert.Equal(t, lb, 138.0) // 120 MW peak at a 15% margin
	assert.Assert(t, ub > lb)

	facet, _, fub := findRow(t, lp, VarName("ELCC_Facet", 2030, 0))
	assert.Equal(t, fub, 12.0) // intercept fraction of the 120 MW peak
	assert.Equal(t, facet.Coef(lookup(t, lp, "ELCC_Variable", 2030)), 1.0)
	assert.Equal(t, facet.Coef(lookup(t, lp, "Build_Capacity", "SOLAR1", 2030)), -0.5)
}

func TestObjectiveHasFuelAndVariableCosts(t *testing.T) {
	inst := buildInstance(t, Toggles{})
	lp := inst.LP

	costs := lp.CostCoefficients()
	power := lookup(t, lp, "Provide_Power", "CCGT1", 1)
	// 365 weighted hours at $2/MWh variable plus 7 MMBtu/MWh at $3
	assert.Equal(t, costs[power], 365.0*(2+7*3))

	commit := lookup(t, lp, "Commit_Units", "CCGT1", 1)
	// 10 MMBtu/hr no-load burn at $3
	assert.Equal(t, costs[commit], 365.0*10*3)
}
