package collision

import (
	"fmt"
	"io"
	"strings"

	"github.com/YuminosukeSato/collisionforest/pkg/errors"
)

// ImportanceTitle is the chart title handed to an ImportanceRenderer.
const ImportanceTitle = "Features Importances"

// ImportanceRenderer draws ranked feature importances. label identifies the
// run (see Report.Label).
type ImportanceRenderer interface {
	RenderImportances(label, title string, imps []FeatureImportance) error
}

// Label returns "<dataset>_<city>_<target>", used to name chart files.
func (r *Report) Label() string {
	parts := []string{r.City, r.Target}
	if r.Dataset != "" {
		parts = append([]string{r.Dataset}, parts...)
	}
	return strings.Join(parts, "_")
}

// WriteText writes the fixed-format console report.
func (r *Report) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"***** MODEL OUTPUT *****\n\n"+
			"Target City: %s\n"+
			"Target Variable: %s\n"+
			"Model Fit: %.2f\n"+
			"Model RMSE: %.2f\n"+
			"Target Mean: %.2f\n"+
			"Target Stdev: %.2f\n\n"+
			"***** END OF OUTPUT *****\n\n",
		r.City, r.Target, r.FitScore, r.RMSE, r.TargetMean, r.TargetStdev)
	return err
}

// Evaluator runs Evaluate and emits each report to its collaborators.
// A nil Renderer skips the chart; a nil Out skips the console report.
type Evaluator struct {
	Seed     int64
	Out      io.Writer
	Renderer ImportanceRenderer
}

// Run evaluates one parameter record and emits the result. Nothing is
// emitted when evaluation fails.
func (e *Evaluator) Run(ds *Dataset, p Params) (*Report, error) {
	r, err := Evaluate(ds, p, e.Seed)
	if err != nil {
		return nil, err
	}
	if err := e.Emit(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Emit sends the importances to the renderer and prints the console report.
func (e *Evaluator) Emit(r *Report) error {
	if e.Renderer != nil {
		if err := e.Renderer.RenderImportances(r.Label(), ImportanceTitle, r.Importances); err != nil {
			return errors.Wrapf(err, "render importances for %s", r.Label())
		}
	}
	if e.Out != nil {
		return r.WriteText(e.Out)
	}
	return nil
}
