package system

import (
	"fmt"
	"sort"
)

// Sets are the derived resource/line memberships the constraint builder
// branches on. All slices are name-sorted so iteration is deterministic.
type Sets struct {
	Thermal             []string
	Dispatchable        []string
	DispatchableRampLim []string
	GenerateAtMax       []string
	Storage             []string
	Hydro               []string
	Variable            []string
	CurtailableVariable []string
	ConventionalDR      []string
	Hydrogen            []string
	EV                  []string
	LoadOnly            []string
	EEPrograms          []string
	FlexibleLoad        []string
	RPSEligible         []string
	WithMWCapacity      []string

	NewBuild        []string
	NewBuildStorage []string
	CapacityLimited []string
	LocalCapacity   []string
	LocalCapacityStorage []string
	CanRetire       []string
	CanRetireNew    []string

	Reserve         []string
	Spin            []string
	Regulation      []string
	LoadFollowing   []string
	MinGen          []string
	TotalFreqResp   []string
	PartialFreqResp []string

	PRM                  []string
	TxDeliverability     []string
	PRMVariableRenewable []string
	PRMFirmCapacity      []string
	PRMStorage           []string
	PRMNQC               []string
	PRMEE                []string
	PRMImport            []string

	PipelineBiogas []string

	DedicatedTx []string

	LinesNew         []string
	LinesRampLimited []string
}

func deriveSets(sys *System) (Sets, error) {
	var sets Sets

	add := func(dst *[]string, name string) { *dst = append(*dst, name) }

	for _, name := range sys.ResourceNames {
		r := sys.Resources[name]
		tech := sys.Technologies[r.Technology]

		if tech.Thermal {
			if btoi(tech.Dispatchable)+btoi(tech.GenerateAtMax) != 1 {
				return sets, fmt.Errorf("system: thermal technology %q must be exactly one of dispatchable or generate-at-max", tech.Name)
			}
			add(&sets.Thermal, name)
			if tech.Dispatchable {
				add(&sets.Dispatchable, name)
				if tech.RampRateFraction < 1 {
					add(&sets.DispatchableRampLim, name)
				}
			} else {
				add(&sets.GenerateAtMax, name)
			}
			if fuel, ok := sys.Fuels[tech.Fuel]; ok && fuel.CanBlendWithBiogas {
				add(&sets.PipelineBiogas, name)
			}
		}

		if tech.Storage {
			add(&sets.Storage, name)
		}
		if tech.Hydro {
			add(&sets.Hydro, name)
		}
		if tech.Variable {
			add(&sets.Variable, name)
			if tech.Curtailable {
				add(&sets.CurtailableVariable, name)
			}
		}
		if tech.ConventionalDR {
			add(&sets.ConventionalDR, name)
		}
		if tech.HydrogenElectrolysis {
			add(&sets.Hydrogen, name)
			add(&sets.LoadOnly, name)
		}
		if tech.EV {
			add(&sets.EV, name)
			add(&sets.LoadOnly, name)
		}
		if tech.EEProgram {
			add(&sets.EEPrograms, name)
		}
		if tech.FlexibleLoad {
			add(&sets.FlexibleLoad, name)
		}

		if !tech.EV && !tech.FlexibleLoad {
			add(&sets.WithMWCapacity, name)
		}

		if r.RPSEligible {
			add(&sets.RPSEligible, name)
		}

		if r.CanBuildNew {
			add(&sets.NewBuild, name)
			if tech.Storage {
				add(&sets.NewBuildStorage, name)
			}
		}
		if r.CapacityLimited {
			if !r.CanBuildNew {
				return sets, fmt.Errorf("system: capacity-limited resource %q must be buildable", name)
			}
			add(&sets.CapacityLimited, name)
		}
		if r.LocalCapacity {
			if !r.CanBuildNew {
				return sets, fmt.Errorf("system: local-capacity resource %q must be buildable", name)
			}
			add(&sets.LocalCapacity, name)
			if tech.Storage {
				add(&sets.LocalCapacityStorage, name)
			}
		}

		if r.CanProvideSpin || r.CanProvideReg || r.CanProvideLF {
			if tech.Variable {
				return sets, fmt.Errorf("system: variable resource %q cannot hold operating reserves", name)
			}
			add(&sets.Reserve, name)
			if r.CanProvideSpin {
				add(&sets.Spin, name)
			}
			if r.CanProvideReg {
				add(&sets.Regulation, name)
			}
			if r.CanProvideLF {
				add(&sets.LoadFollowing, name)
			}
		}
		if r.ContributesToMinGen {
			add(&sets.MinGen, name)
		}
		if r.PartialFreqResp && !r.TotalFreqResp {
			return sets, fmt.Errorf("system: resource %q provides partial frequency response without total eligibility", name)
		}
		if r.TotalFreqResp {
			add(&sets.TotalFreqResp, name)
		}
		if r.PartialFreqResp {
			add(&sets.PartialFreqResp, name)
		}

		if r.UseTxCapacity {
			add(&sets.DedicatedTx, name)
		}
	}

	// PRM membership: load-only and flexible-load resources never count
	for _, name := range sys.ResourceNames {
		r := sys.Resources[name]
		tech := sys.Technologies[r.Technology]
		if tech.HydrogenElectrolysis || tech.EV || tech.FlexibleLoad {
			continue
		}
		if sys.Zones[r.Zone].InPRM {
			add(&sets.PRM, name)
		}
	}

	newBuild := toSet(sets.NewBuild)
	rpsEligible := toSet(sets.RPSEligible)
	storage := toSet(sets.Storage)
	variable := toSet(sets.Variable)
	ee := toSet(sets.EEPrograms)

	// deliverability choice exists only for new RPS-eligible PRM resources
	for _, name := range sets.PRM {
		if newBuild[name] && rpsEligible[name] {
			add(&sets.TxDeliverability, name)
		}
	}

	imports := make(map[string]bool)
	for _, name := range sets.TxDeliverability {
		r := sys.Resources[name]
		if r.ImportOnNewTx || r.ImportOnExistingTx {
			imports[name] = true
			add(&sets.PRMImport, name)
		}
	}

	for _, name := range sets.PRM {
		switch {
		case imports[name]:
			// counted through import capacity
		case variable[name]:
			add(&sets.PRMVariableRenewable, name)
		case storage[name]:
			add(&sets.PRMStorage, name)
		case ee[name]:
			add(&sets.PRMEE, name)
		default:
			add(&sets.PRMFirmCapacity, name)
		}
	}
	sets.PRMNQC = append(append([]string{}, sets.PRMFirmCapacity...), sets.PRMStorage...)
	sort.Strings(sets.PRMNQC)

	thermal := toSet(sets.Thermal)
	txDeliv := toSet(sets.TxDeliverability)
	for _, name := range sys.ResourceNames {
		r := sys.Resources[name]
		if !r.CanRetire {
			continue
		}
		if !thermal[name] || storage[name] || txDeliv[name] {
			return sets, fmt.Errorf("system: resource %q is not retirable; retirement covers thermal resources outside the deliverability split", name)
		}
		add(&sets.CanRetire, name)
		if r.CanBuildNew {
			add(&sets.CanRetireNew, name)
		}
	}

	for _, name := range sys.LineNames {
		l := sys.Lines[name]
		if l.NewBuildAllowed {
			add(&sets.LinesNew, name)
		}
		if l.RampConstrained {
			add(&sets.LinesRampLimited, name)
		}
	}

	return sets, nil
}

// PRMMembershipCount returns how many PRM accounting classes a resource is
// counted under. Exactly one for every PRM resource.
func (s Sets) PRMMembershipCount(resource string) int {
	n := 0
	for _, members := range [][]string{s.PRMVariableRenewable, s.PRMStorage, s.PRMEE, s.PRMFirmCapacity, s.PRMImport} {
		if contains(members, resource) {
			n++
		}
	}
	return n
}

func contains(list []string, name string) bool {
	for _, cand := range list {
		if cand == name {
			return true
		}
	}
	return false
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, name := range list {
		set[name] = true
	}
	return set
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
