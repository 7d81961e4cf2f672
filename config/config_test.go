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
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorse-io/nmfbench/model/nmf"
	"github.com/juju/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	data, err := os.ReadFile("config.toml.template")
	require.NoError(t, err)
	text := string(data)
	text = strings.Replace(text, "solver = \"cd\"", "solver = \"mu\"", -1)
	text = strings.Replace(text, "init = \"\"", "init = \"nndsvd\"", -1)
	text = strings.Replace(text, "separator = \",\"", "separator = \"\\t\"", -1)
	v := viper.New()
	v.SetConfigType("toml")
	err = v.ReadConfig(strings.NewReader(text))
	require.NoError(t, err)
	var config Config
	err = v.Unmarshal(&config)
	require.NoError(t, err)

	// [data]
	assert.Equal(t, "data/movies.csv", config.Data.Movies)
	assert.Equal(t, "data/users.csv", config.Data.Users)
	assert.Equal(t, "data/train.csv", config.Data.Train)
	assert.Equal(t, "data/test.csv", config.Data.Test)
	assert.Equal(t, "\t", config.Data.Separator)
	assert.Equal(t, '\t', config.Separator())
	// [sample]
	assert.Equal(t, 500, config.Sample.Users)
	assert.Equal(t, 500, config.Sample.Movies)
	assert.Equal(t, int64(42), config.Sample.Seed)
	// [model]
	assert.Equal(t, nmf.SolverMultiplicativeUpdate, config.Model.Solver)
	assert.Equal(t, nmf.InitNNDSVD, config.Model.Init)
	assert.Equal(t, 20, config.Model.Components)
	assert.Equal(t, 200, config.Model.MaxIter)
	assert.Equal(t, int64(42), config.Model.Seed)
	assert.Equal(t, 1e-4, config.Model.Tol)
	assert.NoError(t, config.Validate())
}

func TestSetDefault(t *testing.T) {
	v := viper.New()
	setDefault(v)
	v.SetConfigType("toml")
	err := v.ReadConfig(strings.NewReader(""))
	require.NoError(t, err)
	var config Config
	err = v.Unmarshal(&config)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), &config)
}

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, nmf.NewParams(), GetDefaultConfig().Params())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte(`
[sample]
users = 100

[model]
max_iter = 50
`), 0644)
	require.NoError(t, err)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 100, config.Sample.Users)
	assert.Equal(t, 50, config.Model.MaxIter)
	// check default values
	assert.Equal(t, 500, config.Sample.Movies)
	assert.Equal(t, 20, config.Model.Components)
	assert.Equal(t, ',', config.Separator())

	// file is optional
	config, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type environmentVariable struct {
	key   string
	value string
}

func TestBindEnv(t *testing.T) {
	variables := []environmentVariable{
		{"NMFBENCH_DATA_MOVIES", "<movies>"},
		{"NMFBENCH_DATA_TRAIN", "<train>"},
		{"NMFBENCH_SAMPLE_USERS", "123"},
		{"NMFBENCH_MODEL_SOLVER", "mu"},
		{"NMFBENCH_MODEL_MAX_ITER", "456"},
		{"NMFBENCH_MODEL_TOL", "0.5"},
	}
	for _, variable := range variables {
		t.Setenv(variable.key, variable.value)
	}

	config, err := LoadConfig("config.toml.template")
	require.NoError(t, err)
	assert.Equal(t, "<movies>", config.Data.Movies)
	assert.Equal(t, "<train>", config.Data.Train)
	assert.Equal(t, 123, config.Sample.Users)
	assert.Equal(t, nmf.SolverMultiplicativeUpdate, config.Model.Solver)
	assert.Equal(t, 456, config.Model.MaxIter)
	assert.Equal(t, 0.5, config.Model.Tol)

	// check default values
	assert.Equal(t, 500, config.Sample.Movies)
}

func TestValidate(t *testing.T) {
	config := GetDefaultConfig()
	assert.NoError(t, config.Validate())

	config = GetDefaultConfig()
	config.Model.Solver = "als"
	err := config.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Contains(t, err.Error(), "Config.Model.Solver must be one of [cd,mu]")

	config = GetDefaultConfig()
	config.Model.Init = "svd"
	err = config.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Contains(t, err.Error(), "Config.Model.Init")

	config = GetDefaultConfig()
	config.Sample.Users = 0
	config.Model.Tol = -1
	err = config.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Contains(t, err.Error(), "Config.Sample.Users must satisfy gt=0")
	assert.Contains(t, err.Error(), "Config.Model.Tol must satisfy gte=0")

	config = GetDefaultConfig()
	config.Data.Test = ""
	config.Data.Separator = ",;"
	err = config.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Contains(t, err.Error(), "Config.Data.Test must not be empty")
	assert.Contains(t, err.Error(), "Config.Data.Separator must satisfy len=1")

	config = GetDefaultConfig()
	config.Data.Separator = ""
	err = config.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))
}
