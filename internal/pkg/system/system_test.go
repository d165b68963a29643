package system

import (
	"testing"

	"github.com/ohowland/cgc_expand/internal/pkg/params"
	"gotest.tools/v3/assert"
)

func testZones() []Zone {
	return []Zone{
		{Name: "CAISO", InRPS: true, InGHGTarget: true, InPRM: true, InLoadFollowing: true, SpinFraction: 0.03},
		{Name: "NW", InRPS: false, InPRM: false},
	}
}

func testTechnologies() []Technology {
	return []Technology{
		{
			Name: "CCGT", Thermal: true, Dispatchable: true,
			UnitSizeMW: 500, MinStableLevel: 0.4, RampRateFraction: 0.6,
			MinUpTimeHours: 4, MinDownTimeHours: 4,
			FuelBurnSlope: 6.9, FuelBurnIntercept: 80, Fuel: "Gas",
		},
		{
			Name: "Nuclear", Thermal: true, GenerateAtMax: true,
			UnitSizeMW: 1000, Fuel: "Uranium",
		},
		{
			Name: "Battery", Storage: true,
			ChargingEfficiency: 0.9, DischargingEfficiency: 0.9, MinDurationHours: 4,
		},
		{Name: "Solar", Variable: true, Curtailable: true},
		{Name: "Hydro", Hydro: true},
	}
}

func testResources() []Resource {
	return []Resource{
		{Name: "CCGT_A", Technology: "CCGT", Zone: "CAISO", CanProvideSpin: true, CanProvideReg: true, CanProvideLF: true, TotalFreqResp: true, ContributesToMinGen: true},
		{Name: "Nuclear_A", Technology: "Nuclear", Zone: "CAISO"},
		{Name: "Battery_A", Technology: "Battery", Zone: "CAISO", CanBuildNew: true, CanProvideReg: true, CanProvideLF: true},
		{Name: "Solar_A", Technology: "Solar", Zone: "CAISO", CanBuildNew: true, RPSEligible: true, CapacityLimited: true},
		{Name: "Hydro_NW", Technology: "Hydro", Zone: "NW", CanProvideSpin: true},
	}
}

func buildTestSystem(t *testing.T, store *params.Store) *System {
	t.Helper()
	sys, err := New(testZones(), testTechnologies(), testResources(), nil, nil,
		[]Fuel{{Name: "Gas", CanBlendWithBiogas: true}, {Name: "Uranium"}},
		nil, store, []int{2030})
	assert.NilError(t, err)
	return sys
}

func TestDerivedSets(t *testing.T) {
	sys := buildTestSystem(t, params.NewStore())

	assert.DeepEqual(t, sys.Sets.Thermal, []string{"CCGT_A", "Nuclear_A"})
	assert.DeepEqual(t, sys.Sets.Dispatchable, []string{"CCGT_A"})
	assert.DeepEqual(t, sys.Sets.DispatchableRampLim, []string{"CCGT_A"})
	assert.DeepEqual(t, sys.Sets.GenerateAtMax, []string{"Nuclear_A"})
	assert.DeepEqual(t, sys.Sets.Storage, []string{"Battery_A"})
	assert.DeepEqual(t, sys.Sets.CurtailableVariable, []string{"Solar_A"})
	assert.DeepEqual(t, sys.Sets.PipelineBiogas, []string{"CCGT_A"})
	assert.DeepEqual(t, sys.Sets.Spin, []string{"CCGT_A", "Hydro_NW"})
}

func TestDeliverabilityIntersection(t *testing.T) {
	sys := buildTestSystem(t, params.NewStore())

	// new-build AND rps-eligible AND in a PRM zone
	assert.DeepEqual(t, sys.Sets.TxDeliverability, []string{"Solar_A"})
	// buildable battery is in the PRM zone but not RPS eligible
	assert.Equal(t, len(sys.Sets.PRMImport), 0)
}

func TestPRMMembershipPartition(t *testing.T) {
	sys := buildTestSystem(t, params.NewStore())

	assert.DeepEqual(t, sys.Sets.PRM, []string{"Battery_A", "CCGT_A", "Nuclear_A", "Solar_A"})
	for _, r := range sys.Sets.PRM {
		assert.Equal(t, sys.Sets.PRMMembershipCount(r), 1, r)
	}
	assert.DeepEqual(t, sys.Sets.PRMVariableRenewable, []string{"Solar_A"})
	assert.DeepEqual(t, sys.Sets.PRMStorage, []string{"Battery_A"})
	assert.DeepEqual(t, sys.Sets.PRMFirmCapacity, []string{"CCGT_A", "Nuclear_A"})
}

func TestThermalFlagExclusivity(t *testing.T) {
	techs := testTechnologies()
	techs[0].GenerateAtMax = true
	_, err := New(testZones(), techs, testResources(), nil, nil, nil, nil,
		params.NewStore(), []int{2030})
	assert.ErrorContains(t, err, "exactly one of dispatchable or generate-at-max")
}

func TestVariableReserveProviderRejected(t *testing.T) {
	resources := testResources()
	resources[3].CanProvideReg = true
	_, err := New(testZones(), testTechnologies(), resources, nil, nil, nil, nil,
		params.NewStore(), []int{2030})
	assert.ErrorContains(t, err, "cannot hold operating reserves")
}

func TestPartialFreqRespRequiresTotal(t *testing.T) {
	resources := testResources()
	resources[0].TotalFreqResp = false
	resources[0].PartialFreqResp = true
	_, err := New(testZones(), testTechnologies(), resources, nil, nil, nil, nil,
		params.NewStore(), []int{2030})
	assert.ErrorContains(t, err, "partial frequency response")
}

func TestStorageRetirementRejected(t *testing.T) {
	resources := testResources()
	resources[2].CanRetire = true
	_, err := New(testZones(), testTechnologies(), resources, nil, nil, nil, nil,
		params.NewStore(), []int{2030})
	assert.ErrorContains(t, err, "not retirable")
}

func TestDeliverabilityPlannedCapacityRejected(t *testing.T) {
	store := params.NewStore()
	assert.NilError(t, store.Set("planned_installed_capacity_mw",
		params.Key{Object: "Solar_A", Period: 2030}, 100))
	_, err := New(testZones(), testTechnologies(), testResources(), nil, nil, nil, nil,
		store, []int{2030})
	assert.ErrorContains(t, err, "zero planned capacity")
}

func TestMinOperationalPlannedRequiresRetirement(t *testing.T) {
	store := params.NewStore()
	assert.NilError(t, store.Set("min_operational_planned_capacity_mw",
		params.Key{Object: "Nuclear_A", Period: 2030}, 500))
	_, err := New(testZones(), testTechnologies(), testResources(), nil, nil, nil, nil,
		store, []int{2030})
	assert.ErrorContains(t, err, "min operational planned capacity must be zero")
}

func TestFlowGroupDirectionValidated(t *testing.T) {
	lines := []Line{{Name: "Path26", FromZone: "NW", ToZone: "CAISO"}}
	groups := []FlowGroup{{Name: "COI", Directions: map[string]float64{"Path26": 2}}}
	_, err := New(testZones(), testTechnologies(), testResources(), lines, groups, nil, nil,
		params.NewStore(), []int{2030})
	assert.ErrorContains(t, err, "direction must be +1 or -1")
}
