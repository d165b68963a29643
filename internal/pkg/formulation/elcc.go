package formulation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ohowland/cgc_expand/internal/pkg/params"
)

// elccSurface is the piecewise-linear effective-load-carrying-capability
// surface for the variable fleet in one period. Each facet row holds a
// solar coefficient, a wind coefficient, and an intercept expressed as a
// fraction of peak load; the surface value is the minimum over facets.
type elccSurface struct {
	facets *mat.Dense
}

func newELCCSurface(prm *params.Store, p int) (*elccSurface, error) {
	n := int(prm.Get("elcc_facet_count", params.Key{Period: p}))
	if n <= 0 {
		return nil, fmt.Errorf("no surface facets defined for period %d", p)
	}
	m := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		k := params.Key{Period: p, Hour: i}
		m.SetRow(i, []float64{
			prm.Get("elcc_facet_solar_coefficient", k),
			prm.Get("elcc_facet_wind_coefficient", k),
			prm.Get("elcc_facet_intercept_fraction", k),
		})
	}
	return &elccSurface{facets: m}, nil
}

func (s *elccSurface) numFacets() int {
	r, _ := s.facets.Dims()
	return r
}

// facet returns the i-th facet's (solar, wind, intercept) coefficients.
func (s *elccSurface) facet(i int) (solar, wind, intercept float64) {
	row := s.facets.RawRowView(i)
	return row[0], row[1], row[2]
}

// value evaluates the surface at a fixed solar/wind capacity point, for
// post-solve reporting.
func (s *elccSurface) value(solarMW, windMW, peakMW float64) float64 {
	point := mat.NewVecDense(3, []float64{solarMW, windMW, peakMW})
	var out mat.VecDense
	out.MulVec(s.facets, point)
	min := out.AtVec(0)
	for i := 1; i < out.Len(); i++ {
		if v := out.AtVec(i); v < min {
			min = v
		}
	}
	return min
}
