package loader

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

const scenarioJSON = `{
	"Name": "toy",
	"Toggles": {"AllowUnservedEnergy": true, "IntegerUnits": false}
}`

const systemJSON = `{
	"Zones": [{"Name": "Z1", "InRPS": true, "SpinFraction": 0.03}],
	"Technologies": [{
		"Name": "CCGT", "Thermal": true, "Dispatchable": true,
		"UnitSizeMW": 50, "MinStableLevel": 0.4, "RampRateFraction": 0.3,
		"Fuel": "Gas"
	}],
	"Resources": [{"Name": "CCGT1", "Technology": "CCGT", "Zone": "Z1"}],
	"Fuels": [{"Name": "Gas", "CO2PerMMBtu": 0.053}]
}`

const timepointsCSV = `timepoint,period,month,day,hour_of_day,day_weight
1,2030,7,1,0,182.5
2,2030,7,1,1,182.5
`

const periodsCSV = `period,discount_factor,years_in_period
2030,1.0,5
`

const paramsCSV = `param,object,period,day,hour,value
planned_installed_capacity_mw,CCGT1,2030,,,200
input_load_mw,Z1,2030,1,0,100
input_load_mw,Z1,2030,1,1,90
`

const overridesCSV = `param,object,period,day,hour_from,hour_to,value
variable_cost_per_mwh,CCGT1,None,None,None,None,2.5
must_run,CCGT1,None,None,None,None,TRUE
`

func writeCase(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644)
		assert.NilError(t, err)
	}
	return dir
}

func defaultFiles() map[string]string {
	return map[string]string{
		"scenario.json":  scenarioJSON,
		"system.json":    systemJSON,
		"timepoints.csv": timepointsCSV,
		"periods.csv":    periodsCSV,
		"params.csv":     paramsCSV,
		"overrides.csv":  overridesCSV,
	}
}

func TestLoadCase(t *testing.T) {
	c, err := Load(writeCase(t, defaultFiles()))
	assert.NilError(t, err)

	assert.Equal(t, c.Name, "toy")
	assert.Assert(t, c.Tog.AllowUnservedEnergy)
	assert.Assert(t, !c.Tog.IntegerUnits)

	assert.DeepEqual(t, c.Idx.Timepoints(), []int{1, 2})
	assert.Equal(t, c.Idx.DayWeight(1), 182.5)

	assert.Equal(t, c.Sys.Params.ObjectPeriod("planned_installed_capacity_mw", "CCGT1", 2030), 200.0)
	assert.Equal(t, c.Sys.Params.ObjectTimepoint("input_load_mw", "Z1", 2030, 1, 1), 90.0)

	// overrides bind through the wildcard sublanguage
	assert.Equal(t, c.Sys.Params.Object("variable_cost_per_mwh", "CCGT1"), 2.5)
	assert.Assert(t, c.Sys.Params.Flag("must_run", "CCGT1"))
}

func TestLoadWithoutOverridesFile(t *testing.T) {
	files := defaultFiles()
	delete(files, "overrides.csv")

	c, err := Load(writeCase(t, files))
	assert.NilError(t, err)
	assert.Equal(t, c.Sys.Params.Object("variable_cost_per_mwh", "CCGT1"), 0.0)
}

func TestLoadRejectsBadHeader(t *testing.T) {
	files := defaultFiles()
	files["params.csv"] = "param,object,period,value\nx,y,2030,1\n"

	_, err := Load(writeCase(t, files))
	assert.ErrorContains(t, err, "expected 6 columns")
}

func TestLoadRejectsDuplicateBinding(t *testing.T) {
	files := defaultFiles()
	files["params.csv"] = paramsCSV + "input_load_mw,Z1,2030,1,0,95\n"

	_, err := Load(writeCase(t, files))
	assert.ErrorContains(t, err, "duplicate definition")
}

func TestLoadRejectsMalformedValue(t *testing.T) {
	files := defaultFiles()
	files["params.csv"] = "param,object,period,day,hour,value\nx,CCGT1,2030,,,abc\n"

	_, err := Load(writeCase(t, files))
	assert.ErrorContains(t, err, "line 2")
}

func TestParamsKeyScoping(t *testing.T) {
	c, err := Load(writeCase(t, defaultFiles()))
	assert.NilError(t, err)

	// a period-scoped binding is invisible at other scopes
	assert.Equal(t, c.Sys.Params.Object("planned_installed_capacity_mw", "CCGT1"), 0.0)
	has := c.Sys.Params.Has("planned_installed_capacity_mw",
		params.Key{Object: "CCGT1", Period: 2030})
	assert.Assert(t, has)
}
