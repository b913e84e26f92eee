package collision

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/collisionforest/pkg/errors"
)

func TestReportWriteText(t *testing.T) {
	r := &Report{
		City:        "NYC",
		Target:      "TotalInjuries",
		FitScore:    0.8312,
		RMSE:        12.3449,
		TargetMean:  40.123,
		TargetStdev: 20.009,
	}
	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))

	want := "***** MODEL OUTPUT *****\n" +
		"\n" +
		"Target City: NYC\n" +
		"Target Variable: TotalInjuries\n" +
		"Model Fit: 0.83\n" +
		"Model RMSE: 12.34\n" +
		"Target Mean: 40.12\n" +
		"Target Stdev: 20.01\n" +
		"\n" +
		"***** END OF OUTPUT *****\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestReportLabel(t *testing.T) {
	assert.Equal(t, "counts_NYC_TotalDeaths", (&Report{Dataset: "counts", City: "NYC", Target: "TotalDeaths"}).Label())
	assert.Equal(t, "LA_PedeDeaths", (&Report{City: "LA", Target: "PedeDeaths"}).Label())
}

type recordingRenderer struct {
	labels []string
	titles []string
	imps   [][]FeatureImportance
	err    error
}

func (r *recordingRenderer) RenderImportances(label, title string, imps []FeatureImportance) error {
	r.labels = append(r.labels, label)
	r.titles = append(r.titles, title)
	r.imps = append(r.imps, imps)
	return r.err
}

func TestEvaluatorRun(t *testing.T) {
	ds := testDataset()
	rr := &recordingRenderer{}
	var out bytes.Buffer
	ev := &Evaluator{Seed: DefaultSeed, Out: &out, Renderer: rr}

	r, err := ev.Run(ds, smallParams("NYC", "Collisions"))
	require.NoError(t, err)

	require.Len(t, rr.labels, 1)
	assert.Equal(t, "counts_NYC_Collisions", rr.labels[0])
	assert.Equal(t, "Features Importances", rr.titles[0])
	assert.Equal(t, r.Importances, rr.imps[0])
	assert.Contains(t, out.String(), "Target Variable: Collisions\n")
}

func TestEvaluatorRunNoEmissionOnFailure(t *testing.T) {
	rr := &recordingRenderer{}
	var out bytes.Buffer
	ev := &Evaluator{Seed: DefaultSeed, Out: &out, Renderer: rr}

	_, err := ev.Run(testDataset(), smallParams("Boston", "Collisions"))
	require.Error(t, err)
	assert.Empty(t, rr.labels)
	assert.Zero(t, out.Len())
}

func TestEvaluatorRendererError(t *testing.T) {
	rr := &recordingRenderer{err: errors.New("disk full")}
	var out bytes.Buffer
	ev := &Evaluator{Seed: DefaultSeed, Out: &out, Renderer: rr}

	_, err := ev.Run(testDataset(), smallParams("LA", "Collisions"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, out.Len())
}
