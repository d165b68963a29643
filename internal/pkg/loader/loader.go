// Package loader reads one planning case from disk: entity definitions and
// feature toggles as JSON, the temporal index and parameter tables as CSV,
// and sparse overrides in the wildcard sublanguage.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ohowland/cgc_expand/internal/pkg/formulation"
	"github.com/ohowland/cgc_expand/internal/pkg/params"
	"github.com/ohowland/cgc_expand/internal/pkg/system"
	"github.com/ohowland/cgc_expand/internal/pkg/timeidx"
)

// Case is one fully-loaded planning case, ready to formulate.
type Case struct {
	Name string
	Sys  *system.System
	Idx  *timeidx.Index
	Tog  formulation.Toggles
}

type scenarioConfig struct {
	Name    string              `json:"Name"`
	Toggles formulation.Toggles `json:"Toggles"`
}

type systemConfig struct {
	Zones            []system.Zone            `json:"Zones"`
	Technologies     []system.Technology      `json:"Technologies"`
	Resources        []system.Resource        `json:"Resources"`
	Lines            []system.Line            `json:"Lines"`
	FlowGroups       []system.FlowGroup       `json:"FlowGroups"`
	Fuels            []system.Fuel            `json:"Fuels"`
	SemiStorageZones []system.SemiStorageZone `json:"SemiStorageZones"`
}

// Load reads the case rooted at dir. Expected layout:
//
//	scenario.json    name and feature toggles
//	system.json      zones, technologies, resources, lines, fuels
//	timepoints.csv   timepoint,period,month,day,hour_of_day,day_weight
//	periods.csv      period,discount_factor,years_in_period
//	params.csv       param,object,period,day,hour,value
//	overrides.csv    param,object,period,day,hour_from,hour_to,value (optional)
func Load(dir string) (*Case, error) {
	var scenario scenarioConfig
	if err := readJSON(filepath.Join(dir, "scenario.json"), &scenario); err != nil {
		return nil, err
	}
	var entities systemConfig
	if err := readJSON(filepath.Join(dir, "system.json"), &entities); err != nil {
		return nil, err
	}

	idx, err := loadIndex(dir)
	if err != nil {
		return nil, err
	}

	store := params.NewStore()
	if err := loadParams(filepath.Join(dir, "params.csv"), store); err != nil {
		return nil, err
	}
	if err := loadOverrides(filepath.Join(dir, "overrides.csv"), store, idx); err != nil {
		return nil, err
	}

	sys, err := system.New(entities.Zones, entities.Technologies, entities.Resources,
		entities.Lines, entities.FlowGroups, entities.Fuels, entities.SemiStorageZones,
		store, idx.Periods())
	if err != nil {
		return nil, err
	}

	return &Case{Name: scenario.Name, Sys: sys, Idx: idx, Tog: scenario.Toggles}, nil
}

func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("loader: %s: %w", filepath.Base(path), err)
	}
	return nil
}

func loadIndex(dir string) (*timeidx.Index, error) {
	var tps []timeidx.Timepoint
	err := readCSV(filepath.Join(dir, "timepoints.csv"),
		[]string{"timepoint", "period", "month", "day", "hour_of_day", "day_weight"},
		func(rec []string) error {
			tp, err := parseTimepoint(rec)
			if err != nil {
				return err
			}
			tps = append(tps, tp)
			return nil
		})
	if err != nil {
		return nil, err
	}

	var periods []timeidx.PeriodInfo
	err = readCSV(filepath.Join(dir, "periods.csv"),
		[]string{"period", "discount_factor", "years_in_period"},
		func(rec []string) error {
			p, err := parsePeriod(rec)
			if err != nil {
				return err
			}
			periods = append(periods, p)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return timeidx.New(tps, periods)
}

func parseTimepoint(rec []string) (timeidx.Timepoint, error) {
	var tp timeidx.Timepoint
	fields := []*int{&tp.ID, &tp.Period, &tp.Month, &tp.Day, &tp.HourOfDay}
	for i, dst := range fields {
		v, err := strconv.Atoi(rec[i])
		if err != nil {
			return tp, fmt.Errorf("column %d: %v", i, err)
		}
		*dst = v
	}
	w, err := strconv.ParseFloat(rec[5], 64)
	if err != nil {
		return tp, fmt.Errorf("day_weight: %v", err)
	}
	tp.DayWeight = w
	return tp, nil
}

func parsePeriod(rec []string) (timeidx.PeriodInfo, error) {
	var p timeidx.PeriodInfo
	period, err := strconv.Atoi(rec[0])
	if err != nil {
		return p, fmt.Errorf("period: %v", err)
	}
	disc, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return p, fmt.Errorf("discount_factor: %v", err)
	}
	years, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return p, fmt.Errorf("years_in_period: %v", err)
	}
	p.Period, p.DiscountFactor, p.YearsInPeriod = period, disc, years
	return p, nil
}

// loadParams binds the dense tabular values. Empty scope cells leave that
// key dimension at its zero slot.
func loadParams(path string, store *params.Store) error {
	return readCSV(path,
		[]string{"param", "object", "period", "day", "hour", "value"},
		func(rec []string) error {
			key := params.Key{Object: rec[1]}
			var err error
			if key.Period, err = optionalInt(rec[2]); err != nil {
				return fmt.Errorf("period: %v", err)
			}
			if key.Day, err = optionalInt(rec[3]); err != nil {
				return fmt.Errorf("day: %v", err)
			}
			if key.Hour, err = optionalInt(rec[4]); err != nil {
				return fmt.Errorf("hour: %v", err)
			}
			value, err := strconv.ParseFloat(rec[5], 64)
			if err != nil {
				return fmt.Errorf("value: %v", err)
			}
			return store.Set(rec[0], key, value)
		})
}

func loadOverrides(path string, store *params.Store, idx *timeidx.Index) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	var overrides []params.Override
	err := readCSV(path,
		[]string{"param", "object", "period", "day", "hour_from", "hour_to", "value"},
		func(rec []string) error {
			overrides = append(overrides, params.Override{
				Param:    rec[0],
				Object:   rec[1],
				Period:   rec[2],
				Day:      rec[3],
				HourFrom: rec[4],
				HourTo:   rec[5],
				Value:    rec[6],
			})
			return nil
		})
	if err != nil {
		return err
	}
	return params.ApplyOverrides(store, idx, overrides)
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// readCSV streams path's records through fn after validating the header.
func readCSV(path string, header []string, fn func([]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loader: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	first, err := r.Read()
	if err != nil {
		return fmt.Errorf("loader: %s: %w", filepath.Base(path), err)
	}
	if len(first) != len(header) {
		return fmt.Errorf("loader: %s: expected %d columns, found %d",
			filepath.Base(path), len(header), len(first))
	}
	for i, name := range header {
		if first[i] != name {
			return fmt.Errorf("loader: %s: column %d is %q, want %q",
				filepath.Base(path), i, first[i], name)
		}
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loader: %s: %w", filepath.Base(path), err)
		}
		line++
		if err := fn(rec); err != nil {
			return fmt.Errorf("loader: %s line %d: %v", filepath.Base(path), line, err)
		}
	}
}
