// Package battery describes and runs a list of collision evaluations: the
// default sixteen-run study, or one loaded from YAML.
package battery

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/collisionforest/collision"
	"github.com/YuminosukeSato/collisionforest/pkg/errors"
)

// Dataset keys used by the default battery.
const (
	Counts     = "counts"
	Normalized = "normalized"
)

// Run is one evaluation: which dataset to use plus the per-call parameters.
type Run struct {
	Dataset          string `yaml:"dataset"`
	collision.Params `yaml:",inline"`
}

// Config is a battery definition. Datasets maps dataset keys to files.
type Config struct {
	Seed     int64             `yaml:"seed"`
	Datasets map[string]string `yaml:"datasets"`
	Runs     []Run             `yaml:"runs"`
}

// DefaultRuns returns the sixteen-run study: overall risk (TotalInjuries,
// TotalDeaths) then pedestrian risk (PedeInjuries, PedeDeaths), each for
// NYC then LA, on the counts and then the normalized feature set.
func DefaultRuns() []Run {
	groups := [][]string{
		{"TotalInjuries", "TotalDeaths"},
		{"PedeInjuries", "PedeDeaths"},
	}
	var runs []Run
	for _, targets := range groups {
		for _, city := range []string{"NYC", "LA"} {
			for _, ds := range []string{Counts, Normalized} {
				for _, target := range targets {
					runs = append(runs, Run{Dataset: ds, Params: collision.DefaultParams(city, target)})
				}
			}
		}
	}
	return runs
}

// Default returns the default battery with the default seed. Dataset paths
// are left for the caller to fill.
func Default() *Config {
	return &Config{
		Seed:     collision.DefaultSeed,
		Datasets: map[string]string{},
		Runs:     DefaultRuns(),
	}
}

// rawConfig distinguishes an omitted seed and hyperparameters from zeros.
type rawConfig struct {
	Seed     *int64            `yaml:"seed"`
	Datasets map[string]string `yaml:"datasets"`
	Runs     []rawRun          `yaml:"runs"`
}

type rawRun struct {
	Dataset     string   `yaml:"dataset"`
	City        string   `yaml:"city"`
	Target      string   `yaml:"target"`
	NEstimators *int     `yaml:"n_estimators"`
	MaxDepth    *int     `yaml:"max_depth"`
	MaxFeatures *float64 `yaml:"max_features"`
}

// Load parses a YAML battery. Omitted fields take the defaults: seed 1234,
// 500 trees, depth 5, 0.5 of the features, and the default runs when the
// runs list is absent.
func Load(r io.Reader) (*Config, error) {
	var raw rawConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parse battery config")
	}

	cfg := Default()
	if raw.Seed != nil {
		cfg.Seed = *raw.Seed
	}
	for k, v := range raw.Datasets {
		cfg.Datasets[k] = v
	}
	if raw.Runs != nil {
		cfg.Runs = make([]Run, len(raw.Runs))
		for i, rr := range raw.Runs {
			p := collision.DefaultParams(rr.City, rr.Target)
			if rr.NEstimators != nil {
				p.NEstimators = *rr.NEstimators
			}
			if rr.MaxDepth != nil {
				p.MaxDepth = *rr.MaxDepth
			}
			if rr.MaxFeatures != nil {
				p.MaxFeatures = *rr.MaxFeatures
			}
			cfg.Runs[i] = Run{Dataset: rr.Dataset, Params: p}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML battery from path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read battery config %s", path)
	}
	return Load(bytes.NewReader(data))
}

// Validate checks that every run names a dataset, a city and a target and
// that its hyperparameters are in range. Targets are checked against the
// data at evaluation time.
func (c *Config) Validate() error {
	if len(c.Runs) == 0 {
		return errors.NewValidationError("runs", "must not be empty", 0)
	}
	for i, r := range c.Runs {
		if r.Dataset == "" || r.City == "" || r.Target == "" {
			return errors.NewValidationError("runs",
				"dataset, city and target are required", i)
		}
		if err := r.Params.Validate(); err != nil {
			return errors.Wrapf(err, "run %d", i)
		}
	}
	return nil
}

// DatasetKeys returns the distinct dataset keys referenced by the runs, in
// first-use order.
func (c *Config) DatasetKeys() []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range c.Runs {
		if !seen[r.Dataset] {
			seen[r.Dataset] = true
			keys = append(keys, r.Dataset)
		}
	}
	return keys
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encode battery config")
	}
	return out, nil
}
