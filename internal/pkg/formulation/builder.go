// Package formulation declares the decision variables and linear constraints
// of a capacity-expansion and unit-commitment problem over an entity graph
// and temporal index, and assembles the cost-minimization objective.
package formulation

import (
	"fmt"
	"log"
	"strings"

	"github.com/ohowland/cgc_expand/internal/pkg/linprog"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
	"github.com/ohowland/cgc_expand/internal/pkg/system"
	"github.com/ohowland/cgc_expand/internal/pkg/timeidx"
)

// Toggles gate the optional subsystems. All toggles are resolved before the
// build starts; none is consulted after Build returns.
type Toggles struct {
	IntegerUnits bool `json:"IntegerUnits"`

	AllowHydroSpill      bool `json:"AllowHydroSpill"`
	MultiDayHydroSharing bool `json:"MultiDayHydroSharing"`
	IncludeEV            bool `json:"IncludeEV"`
	IncludeHydrogen      bool `json:"IncludeHydrogen"`
	IncludeFlexibleLoad  bool `json:"IncludeFlexibleLoad"`
	AllowEEInvestment    bool `json:"AllowEEInvestment"`
	AllowSemiStorageZones bool `json:"AllowSemiStorageZones"`
	AllowTxBuild         bool `json:"AllowTxBuild"`
	AllowTxRamp          bool `json:"AllowTxRamp"`
	EnergySufficiency    bool `json:"EnergySufficiency"`
	ResourceUseTxCapacity bool `json:"ResourceUseTxCapacity"`

	AllowUnservedEnergy bool `json:"AllowUnservedEnergy"`
	EnforceGHGTargets   bool `json:"EnforceGHGTargets"`
	OptimizeRPSBanking  bool `json:"OptimizeRPSBanking"`
	RequireRPSOverbuild bool `json:"RequireRPSOverbuild"`
	CountStorageLosses  bool `json:"CountStorageLosses"`
	VariableUpwardLF    bool `json:"VariableUpwardLF"`
}

// ramp slack that keeps transitioning units feasible at the seam between
// ramp and min/max-generation constraints
const rampRelaxMW = 0.1

// shapes below this are pinned to zero output
const shapeEpsilon = 1e-4

// Instance is the assembled problem plus the index structure needed to read
// a solution back out. It is immutable after Build.
type Instance struct {
	LP  *linprog.Problem
	Sys *system.System
	Idx *timeidx.Index
	Tog Toggles
}

// Builder accumulates variables, memoized expressions and constraints for
// one problem instance.
type Builder struct {
	sys *system.System
	idx *timeidx.Index
	prm *params.Store
	tog Toggles

	lp    *linprog.Problem
	exprs map[string]*linprog.Expr
}

// NewBuilder readies a builder over a validated system and temporal index.
func NewBuilder(sys *system.System, idx *timeidx.Index, tog Toggles) *Builder {
	return &Builder{
		sys:   sys,
		idx:   idx,
		prm:   sys.Params,
		tog:   tog,
		lp:    linprog.NewProblem(),
		exprs: make(map[string]*linprog.Expr),
	}
}

// Build runs every stage and returns the finished instance.
func (b *Builder) Build() (*Instance, error) {
	stages := []struct {
		name string
		run  func() error
	}{
		{"capacity", b.buildCapacity},
		{"deliverability", b.buildDeliverability},
		{"dispatch", b.buildDispatch},
		{"commitment", b.buildCommitment},
		{"storage", b.buildStorage},
		{"hydro", b.buildHydro},
		{"demand response", b.buildDemandResponse},
		{"electric vehicles", b.buildEV},
		{"hydrogen", b.buildHydrogen},
		{"flexible load", b.buildFlexibleLoad},
		{"transmission", b.buildTransmission},
		{"semi storage zones", b.buildSemiStorageZones},
		{"reserves", b.buildReserves},
		{"power balance", b.buildPowerBalance},
		{"biogas", b.buildBiogas},
		{"renewables target", b.buildRPS},
		{"emissions cap", b.buildGHG},
		{"resource adequacy", b.buildPRM},
		{"local capacity", b.buildLocalCapacity},
		{"energy sufficiency", b.buildEnergySufficiency},
		{"objective", b.buildObjective},
	}

	for _, stage := range stages {
		log.Printf("[Formulation] building %s", stage.name)
		if err := stage.run(); err != nil {
			return nil, fmt.Errorf("formulation: %s: %w", stage.name, err)
		}
	}

	log.Printf("[Formulation] %d variables, %d constraints", b.lp.NumVars(), b.lp.NumRows())
	return &Instance{LP: b.lp, Sys: b.sys, Idx: b.idx, Tog: b.tog}, nil
}

// VarName renders the canonical "Name[k1,k2,...]" variable key used for both
// problem columns and post-solve retrieval.
func VarName(name string, keys ...interface{}) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%v", k)
	}
	return name + "[" + strings.Join(parts, ",") + "]"
}

func (b *Builder) addVar(lb, ub float64, name string, keys ...interface{}) linprog.VarID {
	return b.lp.NewVar(VarName(name, keys...), lb, ub)
}

func (b *Builder) addUnitVar(lb, ub float64, name string, keys ...interface{}) linprog.VarID {
	if b.tog.IntegerUnits {
		return b.lp.NewIntVar(VarName(name, keys...), lb, ub)
	}
	return b.lp.NewVar(VarName(name, keys...), lb, ub)
}

func (b *Builder) varID(name string, keys ...interface{}) linprog.VarID {
	id, ok := b.lp.Lookup(VarName(name, keys...))
	if !ok {
		panic(fmt.Sprintf("formulation: unknown variable %s", VarName(name, keys...)))
	}
	return id
}

func (b *Builder) hasVar(name string, keys ...interface{}) bool {
	_, ok := b.lp.Lookup(VarName(name, keys...))
	return ok
}

// memo caches a derived expression under a canonical key.
func (b *Builder) memo(name string, build func() *linprog.Expr, keys ...interface{}) *linprog.Expr {
	k := VarName(name, keys...)
	if e, ok := b.exprs[k]; ok {
		return e
	}
	e := build()
	b.exprs[k] = e
	return e
}

// parameter shorthand

func (b *Builder) p(param, object string) float64 {
	return b.prm.Object(param, object)
}

func (b *Builder) pp(param, object string, period int) float64 {
	return b.prm.ObjectPeriod(param, object, period)
}

// pt reads a timepoint-scoped value through the (period, day, hour)
// projection of t.
func (b *Builder) pt(param, object string, t int) float64 {
	return b.prm.ObjectTimepoint(param, object, b.idx.Period(t), b.idx.Day(t), b.idx.HourOfDay(t))
}

// hourlyWeight is the annualized discount on one modeled hour.
func (b *Builder) hourlyWeight(t int) float64 {
	return b.idx.DayWeight(t) * b.idx.DiscountFactor(b.idx.Period(t))
}
