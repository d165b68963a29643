// Package system holds the physical and policy entities of a planning case:
// zones, technologies, resources, transmission lines, flow groups and fuels.
// Resource capability is expressed through derived membership sets computed
// once at build time, not through per-resource subtyping.
package system

import (
	"fmt"
	"sort"

	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

// Zone is a spatial balancing area.
type Zone struct {
	Name            string  `json:"Name"`
	InRPS           bool    `json:"InRPS"`
	InGHGTarget     bool    `json:"InGHGTarget"`
	InPRM           bool    `json:"InPRM"`
	InLoadFollowing bool    `json:"InLoadFollowing"`
	SpinFraction    float64 `json:"SpinFraction"`
}

// Technology is a resource archetype carrying the physical coefficients its
// resources share.
type Technology struct {
	Name string `json:"Name"`

	Thermal              bool `json:"Thermal"`
	Dispatchable         bool `json:"Dispatchable"`
	GenerateAtMax        bool `json:"GenerateAtMax"`
	Storage              bool `json:"Storage"`
	Hydro                bool `json:"Hydro"`
	Variable             bool `json:"Variable"`
	Curtailable          bool `json:"Curtailable"`
	ConventionalDR       bool `json:"ConventionalDR"`
	HydrogenElectrolysis bool `json:"HydrogenElectrolysis"`
	EV                   bool `json:"EV"`
	EEProgram            bool `json:"EEProgram"`
	FlexibleLoad         bool `json:"FlexibleLoad"`

	UnitSizeMW           float64 `json:"UnitSizeMW"`
	MinStableLevel       float64 `json:"MinStableLevel"`
	RampRateFraction     float64 `json:"RampRateFraction"`
	MinUpTimeHours       int     `json:"MinUpTimeHours"`
	MinDownTimeHours     int     `json:"MinDownTimeHours"`
	FuelBurnSlope        float64 `json:"FuelBurnSlope"`
	FuelBurnIntercept    float64 `json:"FuelBurnIntercept"`
	StartFuelMMBtu       float64 `json:"StartFuelMMBtu"`
	Fuel                 string  `json:"Fuel"`
	ChargingEfficiency   float64 `json:"ChargingEfficiency"`
	DischargingEfficiency float64 `json:"DischargingEfficiency"`
	MinDurationHours     float64 `json:"MinDurationHours"`
}

// Resource is an instance of a technology bound to a zone.
type Resource struct {
	Name       string `json:"Name"`
	Technology string `json:"Technology"`
	Zone       string `json:"Zone"`

	CanBuildNew     bool `json:"CanBuildNew"`
	CanRetire       bool `json:"CanRetire"`
	CapacityLimited bool `json:"CapacityLimited"`
	LocalCapacity   bool `json:"LocalCapacity"`
	RPSEligible     bool `json:"RPSEligible"`

	CommitAllCapacity   bool `json:"CommitAllCapacity"`
	ContributesToMinGen bool `json:"ContributesToMinGen"`

	CanProvideSpin bool `json:"CanProvideSpin"`
	CanProvideReg  bool `json:"CanProvideReg"`
	CanProvideLF   bool `json:"CanProvideLF"`
	TotalFreqResp  bool `json:"TotalFreqResp"`
	PartialFreqResp bool `json:"PartialFreqResp"`

	ImportOnNewTx      bool `json:"ImportOnNewTx"`
	ImportOnExistingTx bool `json:"ImportOnExistingTx"`

	// dedicated transmission assignment; Direction is +1 into the line's
	// to-zone, -1 out of it
	UseTxCapacity bool    `json:"UseTxCapacity"`
	TxLine        string  `json:"TxLine"`
	TxDirection   float64 `json:"TxDirection"`
}

// Line is a directed transmission corridor.
type Line struct {
	Name             string `json:"Name"`
	FromZone         string `json:"FromZone"`
	ToZone           string `json:"ToZone"`
	NewBuildAllowed  bool   `json:"NewBuildAllowed"`
	RampConstrained  bool   `json:"RampConstrained"`
	MaxRampDuration  int    `json:"MaxRampDuration"`
}

// FlowGroup is a simultaneous-flow limit over signed member lines.
type FlowGroup struct {
	Name       string             `json:"Name"`
	Directions map[string]float64 `json:"Directions"`
}

// Fuel carries emissions and biogas-blending attributes.
type Fuel struct {
	Name               string  `json:"Name"`
	CanBlendWithBiogas bool    `json:"CanBlendWithBiogas"`
	CO2PerMMBtu        float64 `json:"CO2PerMMBtu"`
}

// SemiStorageZone is a non-modeled neighbor that trades energy-neutral power
// with the system over a notional interface.
type SemiStorageZone struct {
	Name     string `json:"Name"`
	FromZone string `json:"FromZone"`
}

// System is the immutable entity graph of one planning case.
type System struct {
	Zones        map[string]Zone
	Technologies map[string]Technology
	Resources    map[string]Resource
	Lines        map[string]Line
	FlowGroups   map[string]FlowGroup
	Fuels        map[string]Fuel
	SSZones      map[string]SemiStorageZone

	ZoneNames     []string
	ResourceNames []string
	LineNames     []string

	Params *params.Store
	Sets   Sets
}

// New assembles and validates the entity graph, then derives the membership
// sets. Periods are needed for capacity validations keyed by period.
func New(zones []Zone, techs []Technology, resources []Resource, lines []Line,
	groups []FlowGroup, fuels []Fuel, sszones []SemiStorageZone,
	store *params.Store, periods []int) (*System, error) {

	sys := &System{
		Zones:        make(map[string]Zone),
		Technologies: make(map[string]Technology),
		Resources:    make(map[string]Resource),
		Lines:        make(map[string]Line),
		FlowGroups:   make(map[string]FlowGroup),
		Fuels:        make(map[string]Fuel),
		SSZones:      make(map[string]SemiStorageZone),
		Params:       store,
	}

	for _, z := range zones {
		if _, dup := sys.Zones[z.Name]; dup {
			return nil, fmt.Errorf("system: duplicate zone %q", z.Name)
		}
		sys.Zones[z.Name] = z
		sys.ZoneNames = append(sys.ZoneNames, z.Name)
	}
	sort.Strings(sys.ZoneNames)

	for _, tech := range techs {
		if _, dup := sys.Technologies[tech.Name]; dup {
			return nil, fmt.Errorf("system: duplicate technology %q", tech.Name)
		}
		sys.Technologies[tech.Name] = tech
	}

	for _, f := range fuels {
		sys.Fuels[f.Name] = f
	}

	for _, r := range resources {
		if _, dup := sys.Resources[r.Name]; dup {
			return nil, fmt.Errorf("system: duplicate resource %q", r.Name)
		}
		if _, ok := sys.Technologies[r.Technology]; !ok {
			return nil, fmt.Errorf("system: resource %q references unknown technology %q", r.Name, r.Technology)
		}
		if _, ok := sys.Zones[r.Zone]; !ok {
			return nil, fmt.Errorf("system: resource %q references unknown zone %q", r.Name, r.Zone)
		}
		sys.Resources[r.Name] = r
		sys.ResourceNames = append(sys.ResourceNames, r.Name)
	}
	sort.Strings(sys.ResourceNames)

	for _, l := range lines {
		if _, dup := sys.Lines[l.Name]; dup {
			return nil, fmt.Errorf("system: duplicate line %q", l.Name)
		}
		if _, ok := sys.Zones[l.FromZone]; !ok {
			return nil, fmt.Errorf("system: line %q references unknown zone %q", l.Name, l.FromZone)
		}
		if _, ok := sys.Zones[l.ToZone]; !ok {
			return nil, fmt.Errorf("system: line %q references unknown zone %q", l.Name, l.ToZone)
		}
		sys.Lines[l.Name] = l
		sys.LineNames = append(sys.LineNames, l.Name)
	}
	sort.Strings(sys.LineNames)

	for _, g := range groups {
		for line, dir := range g.Directions {
			if _, ok := sys.Lines[line]; !ok {
				return nil, fmt.Errorf("system: flow group %q references unknown line %q", g.Name, line)
			}
			if dir != 1 && dir != -1 {
				return nil, fmt.Errorf("system: flow group %q line %q direction must be +1 or -1, got %v", g.Name, line, dir)
			}
		}
		sys.FlowGroups[g.Name] = g
	}

	for _, ssz := range sszones {
		if _, ok := sys.Zones[ssz.FromZone]; !ok {
			return nil, fmt.Errorf("system: semi storage zone %q references unknown zone %q", ssz.Name, ssz.FromZone)
		}
		sys.SSZones[ssz.Name] = ssz
	}

	for _, r := range resources {
		if r.UseTxCapacity {
			if _, ok := sys.Lines[r.TxLine]; !ok {
				return nil, fmt.Errorf("system: resource %q dedicated to unknown line %q", r.Name, r.TxLine)
			}
			if r.TxDirection != 1 && r.TxDirection != -1 {
				return nil, fmt.Errorf("system: resource %q transmission direction must be +1 or -1", r.Name)
			}
		}
	}

	sets, err := deriveSets(sys)
	if err != nil {
		return nil, err
	}
	sys.Sets = sets

	if err := validateCapacityParams(sys, periods); err != nil {
		return nil, err
	}

	return sys, nil
}

// Tech returns the technology of a resource.
func (s *System) Tech(resource string) Technology {
	return s.Technologies[s.Resources[resource].Technology]
}

// ResourceZone returns the zone record of a resource.
func (s *System) ResourceZone(resource string) Zone {
	return s.Zones[s.Resources[resource].Zone]
}

// validateCapacityParams enforces the capacity-side bind-time invariants.
func validateCapacityParams(sys *System, periods []int) error {
	for _, r := range sys.Sets.TxDeliverability {
		for _, p := range periods {
			if sys.Params.ObjectPeriod("planned_installed_capacity_mw", r, p) != 0 {
				return fmt.Errorf("system: deliverability resource %q must have zero planned capacity in period %d", r, p)
			}
		}
	}

	for _, r := range sys.ResourceNames {
		rec := sys.Resources[r]
		for _, p := range periods {
			min := sys.Params.ObjectPeriod("min_operational_planned_capacity_mw", r, p)
			planned := sys.Params.ObjectPeriod("planned_installed_capacity_mw", r, p)
			if !rec.CanRetire && min != 0 {
				return fmt.Errorf("system: resource %q cannot retire; min operational planned capacity must be zero in period %d", r, p)
			}
			if rec.CanRetire && min > planned {
				return fmt.Errorf("system: resource %q min operational planned capacity exceeds planned capacity in period %d", r, p)
			}
		}
	}

	// curtailment cannot be paid for in zones that count it toward an RPS
	for _, z := range sys.ZoneNames {
		zone := sys.Zones[z]
		if !zone.InRPS {
			continue
		}
		for _, p := range periods {
			if sys.Params.ObjectPeriod("rps_fraction_of_retail_sales", z, p) > 0 &&
				sys.Params.ObjectPeriod("curtailment_cost_per_mwh", z, p) != 0 {
				return fmt.Errorf("system: zone %q has nonzero curtailment cost with an active renewables target in period %d", z, p)
			}
		}
	}

	return nil
}
