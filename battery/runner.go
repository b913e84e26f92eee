package battery

import (
	"context"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/collisionforest/collision"
	"github.com/YuminosukeSato/collisionforest/core/parallel"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
	"github.com/YuminosukeSato/collisionforest/pkg/log"
)

// Runner evaluates the runs of a battery and emits their reports in
// configuration order.
type Runner struct {
	Evaluator *collision.Evaluator
	// Jobs is the number of runs evaluated concurrently. Values < 1 mean 1.
	Jobs int
}

// Run evaluates every run against datasets (keyed like Run.Dataset).
// Reports are emitted in order up to the first failing run, whose error is
// returned together with the reports emitted before it. A panic inside one
// evaluation fails that run instead of the process.
func (r *Runner) Run(ctx context.Context, datasets map[string]*collision.Dataset, runs []Run) ([]*collision.Report, error) {
	if r.Evaluator == nil {
		return nil, errors.NewValidationError("Evaluator", "runner needs an evaluator", nil)
	}
	for i, run := range runs {
		if _, ok := datasets[run.Dataset]; !ok {
			return nil, errors.NewValueError("Runner.Run",
				fmt.Sprintf("run %d references unknown dataset %q", i, run.Dataset))
		}
	}

	logger := log.GetLoggerWithName("battery")
	jobs := r.Jobs
	if jobs < 1 {
		jobs = 1
	}

	reports := make([]*collision.Report, len(runs))
	errs := make([]error, len(runs))
	parallel.ParallelizeN(len(runs), jobs, func(start, end int) {
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			run := runs[i]
			errs[i] = errors.SafeExecute("battery.Run", func() (err error) {
				reports[i], err = collision.Evaluate(datasets[run.Dataset], run.Params, r.Evaluator.Seed)
				return err
			})
		}
	})

	emitted := make([]*collision.Report, 0, len(runs))
	for i, run := range runs {
		if errs[i] != nil {
			logger.Error("Run failed", errs[i],
				log.DatasetKey, run.Dataset,
				log.CityKey, run.City,
				log.TargetKey, run.Target,
			)
			return emitted, errors.Wrapf(errs[i], "run %d (%s %s %s)", i, run.Dataset, run.City, run.Target)
		}
		if err := r.Evaluator.Emit(reports[i]); err != nil {
			return emitted, err
		}
		emitted = append(emitted, reports[i])
		logger.Info("Run complete",
			log.DatasetKey, run.Dataset,
			log.CityKey, run.City,
			log.TargetKey, run.Target,
			log.R2ScoreKey, reports[i].FitScore,
			log.RMSEKey, reports[i].RMSE,
		)
	}
	return emitted, nil
}

// summaryRow is one line of the summary table.
type summaryRow struct {
	Dataset       string
	City          string
	Target        string
	ModelFit      float64
	RMSE          float64
	TargetMean    float64
	TargetStdev   float64
	TrainSize     int
	HoldoutSize   int
	TopFeature    string
	TopImportance float64
}

// WriteSummary writes one CSV row per report.
func WriteSummary(w io.Writer, reports []*collision.Report) error {
	rows := make([]summaryRow, len(reports))
	for i, rep := range reports {
		row := summaryRow{
			Dataset:     rep.Dataset,
			City:        rep.City,
			Target:      rep.Target,
			ModelFit:    rep.FitScore,
			RMSE:        rep.RMSE,
			TargetMean:  rep.TargetMean,
			TargetStdev: rep.TargetStdev,
			TrainSize:   rep.TrainSize,
			HoldoutSize: rep.HoldoutSize,
		}
		if n := len(rep.Importances); n > 0 {
			row.TopFeature = rep.Importances[n-1].Feature
			row.TopImportance = rep.Importances[n-1].Importance
		}
		rows[i] = row
	}
	if len(rows) == 0 {
		return errors.NewValueError("WriteSummary", "no reports")
	}

	df := dataframe.LoadStructs(rows)
	if df.Err != nil {
		return errors.Wrap(df.Err, "build summary")
	}
	if err := df.WriteCSV(w); err != nil {
		return errors.Wrap(err, "write summary")
	}
	return nil
}
