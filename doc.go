// Package collisionforest models traffic collision outcomes per geographic
// unit with random-forest regression.
//
// For one city and one outcome column (TotalInjuries, TotalDeaths,
// PedeInjuries, PedeDeaths, Collisions or CollisionCount) the workflow
// selects the complete rows of the city, separates predictors from
// outcomes, holds out 40% of the rows, trains a forest on the rest and
// reports the training R², the holdout RMSE, the target mean and standard
// deviation, and the feature importances ranked from least to most
// important. Every step is seeded, so identical inputs give identical
// reports.
//
// # Quick Start
//
//	ds, err := csvload.ReadFile("counts", "df_features_1.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ev := &collision.Evaluator{Seed: collision.DefaultSeed, Out: os.Stdout}
//	if _, err := ev.Run(ds, collision.DefaultParams("NYC", "TotalInjuries")); err != nil {
//	    log.Fatal(err)
//	}
//
// or from the command line:
//
//	collisionforest run --counts df_features_1.csv --normalized df_features_2.csv --plots plots/
//
// # Packages
//
//   - collision: datasets, city subgroups, Evaluate, reports and emission
//   - sklearn/ensemble: RandomForestRegressor
//   - sklearn/tree: DecisionTreeRegressor
//   - sklearn/model_selection: TrainTestSplit
//   - metrics: MSE, RMSE, MAE, R², population mean and standard deviation
//   - dataset/csvload: CSV and XLSX loading
//   - plotting: feature importance bar charts
//   - battery: YAML-defined lists of runs and a concurrent runner
//   - core/model: estimator state and interfaces
//   - core/parallel: range-splitting worker fan-out
//   - pkg/errors, pkg/log: error types and structured logging
//
// # scikit-learn Compatibility
//
// Estimators follow scikit-learn naming and defaults:
//
//	forest := ensemble.NewRandomForestRegressor(
//	    ensemble.WithNEstimators(500),
//	    ensemble.WithMaxDepth(5),
//	    ensemble.WithMaxFeatures(0.5),
//	    ensemble.WithRandomState(1234),
//	    ensemble.WithNJobs(-1), // Use all CPU cores
//	)
//
// Tree seeds are drawn from the forest seed before any tree is built, so
// the fitted forest does not depend on WithNJobs.
package collisionforest
