// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"strings"

	"github.com/gorse-io/nmfbench/dataset"
	"github.com/gorse-io/nmfbench/model/nmf"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const envPrefix = "NMFBENCH"

// Config is the configuration of an experiment.
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Sample SampleConfig `mapstructure:"sample"`
	Model  ModelConfig  `mapstructure:"model"`
}

// DataConfig locates the input tables.
type DataConfig struct {
	Movies    string `mapstructure:"movies" validate:"required"`
	Users     string `mapstructure:"users" validate:"required"`
	Train     string `mapstructure:"train" validate:"required"`
	Test      string `mapstructure:"test" validate:"required"`
	Separator string `mapstructure:"separator" validate:"len=1"`
}

// SampleConfig is the size of the sampled rating matrix.
type SampleConfig struct {
	Users  int   `mapstructure:"users" validate:"gt=0"`
	Movies int   `mapstructure:"movies" validate:"gt=0"`
	Seed   int64 `mapstructure:"seed"`
}

// ModelConfig controls the factorization.
type ModelConfig struct {
	Solver     string  `mapstructure:"solver" validate:"solver"`
	Init       string  `mapstructure:"init" validate:"init"`
	Components int     `mapstructure:"components" validate:"gt=0"`
	MaxIter    int     `mapstructure:"max_iter" validate:"gt=0"`
	Seed       int64   `mapstructure:"seed"`
	Tol        float64 `mapstructure:"tol" validate:"gte=0"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Movies:    "data/movies.csv",
			Users:     "data/users.csv",
			Train:     "data/train.csv",
			Test:      "data/test.csv",
			Separator: ",",
		},
		Sample: SampleConfig{
			Users:  500,
			Movies: 500,
			Seed:   42,
		},
		Model: ModelConfig{
			Solver:     nmf.SolverCoordinateDescent,
			Init:       nmf.InitAuto,
			Components: nmf.DefaultComponents,
			MaxIter:    nmf.DefaultMaxIter,
			Seed:       nmf.DefaultSeed,
			Tol:        nmf.DefaultTol,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.movies", defaultConfig.Data.Movies)
	v.SetDefault("data.users", defaultConfig.Data.Users)
	v.SetDefault("data.train", defaultConfig.Data.Train)
	v.SetDefault("data.test", defaultConfig.Data.Test)
	v.SetDefault("data.separator", defaultConfig.Data.Separator)
	// [sample]
	v.SetDefault("sample.users", defaultConfig.Sample.Users)
	v.SetDefault("sample.movies", defaultConfig.Sample.Movies)
	v.SetDefault("sample.seed", defaultConfig.Sample.Seed)
	// [model]
	v.SetDefault("model.solver", defaultConfig.Model.Solver)
	v.SetDefault("model.init", defaultConfig.Model.Init)
	v.SetDefault("model.components", defaultConfig.Model.Components)
	v.SetDefault("model.max_iter", defaultConfig.Model.MaxIter)
	v.SetDefault("model.seed", defaultConfig.Model.Seed)
	v.SetDefault("model.tol", defaultConfig.Model.Tol)
}

// bindEnv maps every key to NMFBENCH_<SECTION>_<KEY>, e.g. model.max_iter to
// NMFBENCH_MODEL_MAX_ITER.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return errors.Annotatef(err, "failed to bind %s to an environment variable", key)
		}
	}
	return nil
}

// LoadConfig reads a TOML file on top of default values and environment
// variables take precedence over both. The file is optional if path is empty.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	if err := bindEnv(v); err != nil {
		return nil, errors.Trace(err)
	}
	if path != "" {
		// check if file exist
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Trace(err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Paths of the input tables.
func (config *Config) Paths() dataset.Paths {
	return dataset.Paths{
		Movies: config.Data.Movies,
		Users:  config.Data.Users,
		Train:  config.Data.Train,
		Test:   config.Data.Test,
	}
}

// Separator returns the field separator as a rune.
func (config *Config) Separator() rune {
	return []rune(config.Data.Separator)[0]
}

// Params converts the model section into factorization parameters.
func (config *Config) Params() nmf.Params {
	return nmf.Params{
		Components: config.Model.Components,
		MaxIter:    config.Model.MaxIter,
		Seed:       config.Model.Seed,
		Tol:        config.Model.Tol,
		Init:       config.Model.Init,
	}
}
