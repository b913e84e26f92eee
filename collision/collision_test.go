package collision

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
)

var testColumns = []string{"Population", "TotalInjuries", "Intersections", "Collisions", "RoadMiles", "PedeInjuries"}

// testDataset builds 40 NYC rows, 25 LA rows and a few incomplete NYC rows.
func testDataset() *Dataset {
	ds := NewDataset("counts", testColumns)
	add := func(id, city string, i int) {
		pop := float64(1000 + 37*i%500)
		inter := float64(10 + (i*7)%23)
		miles := float64(5 + (i*3)%11)
		inj := 0.02*pop + 2*inter + float64(i%3)
		_ = ds.AddRow(id, city, []float64{pop, inj, inter, inj * 3, miles, inj / 4})
	}
	for i := 0; i < 40; i++ {
		add("36"+string(rune('A'+i%26))+string(rune('a'+i/26)), "NYC", i)
	}
	for i := 0; i < 25; i++ {
		add("06"+string(rune('A'+i)), "LA", i)
	}
	_ = ds.AddRow("36zz", "NYC", []float64{1, math.NaN(), 1, 1, 1, 1})
	_ = ds.AddRow("", "NYC", []float64{1, 1, 1, 1, 1, 1})
	_ = ds.AddRow("36yy", "NYC", []float64{math.NaN(), 1, 1, 1, 1, 1})
	return ds
}

func smallParams(city, target string) Params {
	p := DefaultParams(city, target)
	p.NEstimators = 15
	return p
}

func TestSubgroup(t *testing.T) {
	ds := testDataset()

	sub, err := ds.Subgroup("NYC")
	require.NoError(t, err)
	assert.Equal(t, 40, sub.Len())
	assert.Equal(t, 3, sub.Dropped)

	la, err := ds.Subgroup("LA")
	require.NoError(t, err)
	assert.Equal(t, 25, la.Len())
	assert.Equal(t, 0, la.Dropped)

	_, err = ds.Subgroup("nyc")
	var ee *errors.EmptyDatasetError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "nyc", ee.City)
	assert.Equal(t, "counts", ee.Dataset)
}

func TestSubgroupFeaturesExcludeOutcomes(t *testing.T) {
	sub, err := testDataset().Subgroup("NYC")
	require.NoError(t, err)

	names, X, err := sub.Features()
	require.NoError(t, err)
	assert.Equal(t, []string{"Population", "Intersections", "RoadMiles"}, names)

	y, err := sub.Target("TotalInjuries")
	require.NoError(t, err)

	r, c := X.Dims()
	assert.Equal(t, sub.Len(), r)
	assert.Equal(t, 3, c)
	require.Len(t, y, r)

	// Row i of X and y come from the same record.
	for i, row := range sub.Rows {
		assert.Equal(t, row[0], X.At(i, 0))
		assert.Equal(t, row[2], X.At(i, 1))
		assert.Equal(t, row[4], X.At(i, 2))
		assert.Equal(t, row[1], y[i])
	}
}

func TestSubgroupNoFeatures(t *testing.T) {
	ds := NewDataset("outcomes-only", []string{"TotalInjuries", "Collisions"})
	require.NoError(t, ds.AddRow("1", "NYC", []float64{1, 2}))
	require.NoError(t, ds.AddRow("2", "NYC", []float64{3, 4}))

	_, err := Evaluate(ds, smallParams("NYC", "TotalInjuries"), DefaultSeed)
	var fe *errors.ModelFitError
	require.True(t, errors.As(err, &fe))
	assert.True(t, errors.Is(err, errors.ErrNoFeatures))
}

func TestDatasetAddRowDimension(t *testing.T) {
	ds := NewDataset("x", []string{"a", "b"})
	err := ds.AddRow("1", "NYC", []float64{1})
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, 0, ds.Len())
}

func TestEvaluate(t *testing.T) {
	ds := testDataset()
	r, err := Evaluate(ds, smallParams("NYC", "TotalInjuries"), DefaultSeed)
	require.NoError(t, err)

	assert.Equal(t, "counts", r.Dataset)
	assert.Equal(t, "NYC", r.City)
	assert.Equal(t, "TotalInjuries", r.Target)

	// ceil(0.4*40) = 16
	assert.Equal(t, 24, r.TrainSize)
	assert.Equal(t, 16, r.HoldoutSize)

	assert.Greater(t, r.FitScore, 0.5)
	assert.LessOrEqual(t, r.FitScore, 1.0)
	assert.GreaterOrEqual(t, r.RMSE, 0.0)
	assert.Greater(t, r.TargetStdev, 0.0)

	require.Len(t, r.Importances, 3)
	var sum float64
	names := make([]string, 0, 3)
	for _, fi := range r.Importances {
		assert.GreaterOrEqual(t, fi.Importance, 0.0)
		sum += fi.Importance
		names = append(names, fi.Feature)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.True(t, sort.SliceIsSorted(r.Importances, func(i, j int) bool {
		return r.Importances[i].Importance < r.Importances[j].Importance
	}))
	assert.ElementsMatch(t, []string{"Population", "Intersections", "RoadMiles"}, names)
}

func TestEvaluateDeterministic(t *testing.T) {
	ds := testDataset()
	p := smallParams("LA", "PedeInjuries")
	a, err := Evaluate(ds, p, 42)
	require.NoError(t, err)
	b, err := Evaluate(ds, p, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluateConstantTarget(t *testing.T) {
	ds := NewDataset("counts", []string{"Population", "Intersections", "TotalDeaths"})
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("36%03d", i)
		require.NoError(t, ds.AddRow(id, "NYC", []float64{float64(100 + i), float64(i % 4), 5}))
	}

	logs, restore := log.Capture(log.LevelDebug)
	defer restore()

	r, err := Evaluate(ds, smallParams("NYC", "TotalDeaths"), DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, 60, r.TrainSize)
	assert.Equal(t, 40, r.HoldoutSize)
	assert.Equal(t, 5.0, r.TargetMean)
	assert.Equal(t, 0.0, r.TargetStdev)
	assert.Equal(t, 0.0, r.RMSE)
	assert.Equal(t, 1.0, r.FitScore)
	for _, fi := range r.Importances {
		assert.InDelta(t, 0.5, fi.Importance, 1e-12)
	}
	// ties are ordered by name
	assert.Equal(t, "Intersections", r.Importances[0].Feature)

	// R² over a constant target is ill-defined and reported as a warning
	var warned bool
	for _, e := range logs.Entries() {
		if e.Level == log.LevelWarn && strings.Contains(e.Message, "r2_score") {
			warned = true
		}
	}
	assert.True(t, warned)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.Contains(t, buf.String(), "Target Mean: 5.00\n")
	assert.Contains(t, buf.String(), "Target Stdev: 0.00\n")
	assert.Contains(t, buf.String(), "Model RMSE: 0.00\n")
}

func TestEvaluateLogsSummary(t *testing.T) {
	logs, restore := log.Capture(log.LevelDebug)
	defer restore()

	r, err := Evaluate(testDataset(), smallParams("NYC", "TotalInjuries"), DefaultSeed)
	require.NoError(t, err)

	e, ok := logs.Find("Evaluation finished")
	require.True(t, ok)
	assert.Equal(t, "collision.evaluate", e.Fields[log.ComponentKey])
	assert.Equal(t, "NYC", e.Fields[log.CityKey])
	assert.Equal(t, "TotalInjuries", e.Fields[log.TargetKey])
	assert.Equal(t, r.FitScore, e.Fields[log.R2ScoreKey])
	assert.Equal(t, r.RMSE, e.Fields[log.RMSEKey])
	assert.Equal(t, 24, e.Fields[log.TrainSamplesKey])

	sub, ok := logs.Find("Subgroup selected")
	require.True(t, ok)
	assert.Equal(t, 3, sub.Fields[log.DroppedRowsKey])

	// one forest, so one fit summary
	assert.Equal(t, 1, logs.Count("Forest fitted"))
}

func TestEvaluateErrors(t *testing.T) {
	ds := testDataset()

	t.Run("unknown target", func(t *testing.T) {
		_, err := Evaluate(ds, smallParams("NYC", "Altitude"), DefaultSeed)
		var ue *errors.UnknownTargetError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "Altitude", ue.Target)
	})

	t.Run("outcome absent from dataset", func(t *testing.T) {
		_, err := Evaluate(ds, smallParams("NYC", "TotalDeaths"), DefaultSeed)
		var ue *errors.UnknownTargetError
		assert.True(t, errors.As(err, &ue))
	})

	t.Run("unknown target wins over empty city", func(t *testing.T) {
		_, err := Evaluate(ds, smallParams("Boston", "Altitude"), DefaultSeed)
		var ue *errors.UnknownTargetError
		assert.True(t, errors.As(err, &ue))
	})

	t.Run("empty city", func(t *testing.T) {
		_, err := Evaluate(ds, smallParams("Boston", "TotalInjuries"), DefaultSeed)
		var ee *errors.EmptyDatasetError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, "Boston", ee.City)
	})

	t.Run("invalid hyperparameters", func(t *testing.T) {
		for _, p := range []Params{
			{City: "NYC", Target: "TotalInjuries", NEstimators: 0, MaxDepth: 5, MaxFeatures: 0.5},
			{City: "NYC", Target: "TotalInjuries", NEstimators: 10, MaxDepth: 0, MaxFeatures: 0.5},
			{City: "NYC", Target: "TotalInjuries", NEstimators: 10, MaxDepth: 5, MaxFeatures: 0},
			{City: "NYC", Target: "TotalInjuries", NEstimators: 10, MaxDepth: 5, MaxFeatures: 1.2},
		} {
			_, err := Evaluate(ds, p, DefaultSeed)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve), "%+v", p)
		}
	})

	t.Run("single row", func(t *testing.T) {
		one := NewDataset("one", []string{"Population", "TotalInjuries"})
		require.NoError(t, one.AddRow("1", "NYC", []float64{10, 1}))
		_, err := Evaluate(one, smallParams("NYC", "TotalInjuries"), DefaultSeed)
		var fe *errors.ModelFitError
		assert.True(t, errors.As(err, &fe))
	})
}

func TestRankImportancesTies(t *testing.T) {
	got := rankImportances([]string{"c", "a", "b", "d"}, []float64{0.25, 0.25, 0.1, 0.4})
	assert.Equal(t, []FeatureImportance{
		{"b", 0.1}, {"a", 0.25}, {"c", 0.25}, {"d", 0.4},
	}, got)
}
