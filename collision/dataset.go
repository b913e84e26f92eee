// Package collision trains and evaluates random-forest regressions of
// traffic collision outcomes on per-geography features, one city at a time.
package collision

import (
	"math"

	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Identifier and city label columns. They are never predictors.
const (
	IDColumn   = "GEOID"
	CityColumn = "City"
)

// Outcomes is the fixed set of response columns. Any of them present in a
// dataset is excluded from the features, and only they can be targets.
var Outcomes = []string{
	"Collisions",
	"PedeInjuries",
	"PedeDeaths",
	"TotalInjuries",
	"TotalDeaths",
	"CollisionCount",
}

// IsOutcome reports whether name is one of Outcomes.
func IsOutcome(name string) bool {
	for _, o := range Outcomes {
		if o == name {
			return true
		}
	}
	return false
}

// Dataset is a table of geographic units. Numeric columns are kept in file
// order; a missing value is NaN.
type Dataset struct {
	Name    string
	Columns []string
	IDs     []string
	Cities  []string
	Values  [][]float64
}

// NewDataset creates an empty dataset with the given numeric columns.
func NewDataset(name string, columns []string) *Dataset {
	return &Dataset{Name: name, Columns: append([]string(nil), columns...)}
}

// AddRow appends one record. values must have one entry per column.
func (d *Dataset) AddRow(id, city string, values []float64) error {
	if len(values) != len(d.Columns) {
		return errors.NewDimensionError("Dataset.AddRow", len(d.Columns), len(values), 1)
	}
	d.IDs = append(d.IDs, id)
	d.Cities = append(d.Cities, city)
	d.Values = append(d.Values, append([]float64(nil), values...))
	return nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Values) }

// ColumnIndex returns the position of a numeric column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FeatureColumns returns the numeric columns that are not outcomes, in
// dataset order.
func (d *Dataset) FeatureColumns() []string {
	var out []string
	for _, c := range d.Columns {
		if !IsOutcome(c) {
			out = append(out, c)
		}
	}
	return out
}

// Subgroup is the complete-case slice of a dataset for one city.
type Subgroup struct {
	Dataset string
	City    string
	IDs     []string
	Columns []string
	Rows    [][]float64
	Dropped int // rows of the city removed for missing values
}

// Subgroup selects the records whose city label equals city exactly and
// drops every record with a missing value in any column. An empty result
// is an EmptyDatasetError.
func (d *Dataset) Subgroup(city string) (*Subgroup, error) {
	s := &Subgroup{Dataset: d.Name, City: city, Columns: d.Columns}
	for i, row := range d.Values {
		if d.Cities[i] != city {
			continue
		}
		if d.IDs[i] == "" || !complete(row) {
			s.Dropped++
			continue
		}
		s.IDs = append(s.IDs, d.IDs[i])
		s.Rows = append(s.Rows, row)
	}
	if len(s.Rows) == 0 {
		return nil, errors.NewEmptyDatasetError(d.Name, city)
	}
	return s, nil
}

func complete(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Len returns the number of rows in the subgroup.
func (s *Subgroup) Len() int { return len(s.Rows) }

// Features returns the predictor names and the n×F feature matrix. Rows
// follow subgroup order.
func (s *Subgroup) Features() ([]string, *mat.Dense, error) {
	var names []string
	var idx []int
	for j, c := range s.Columns {
		if IsOutcome(c) {
			continue
		}
		names = append(names, c)
		idx = append(idx, j)
	}
	if len(names) == 0 {
		return nil, nil, errors.NewModelFitError("Subgroup.Features", errors.ErrNoFeatures)
	}

	X := mat.NewDense(len(s.Rows), len(idx), nil)
	for i, row := range s.Rows {
		for k, j := range idx {
			X.Set(i, k, row[j])
		}
	}
	return names, X, nil
}

// Target returns the values of an outcome column in subgroup order.
func (s *Subgroup) Target(name string) ([]float64, error) {
	j := -1
	for i, c := range s.Columns {
		if c == name {
			j = i
			break
		}
	}
	if j < 0 || !IsOutcome(name) {
		return nil, errors.NewUnknownTargetError(name, Outcomes)
	}
	y := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		y[i] = row[j]
	}
	return y, nil
}
