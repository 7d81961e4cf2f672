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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/gorse-io/nmfbench/base/log"
	"github.com/gorse-io/nmfbench/cmd/version"
	"github.com/gorse-io/nmfbench/config"
	"github.com/gorse-io/nmfbench/model/nmf"
	"github.com/gorse-io/nmfbench/pipeline"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:          "nmfbench",
	Short:        "Evaluate non-negative matrix factorization on sampled movie ratings.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
		defer func() { _ = log.Logger().Sync() }()

		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			return errors.Trace(err)
		}
		if err = overrideConfig(cmd.Flags(), conf); err != nil {
			return errors.Trace(err)
		}

		p, err := pipeline.New(conf)
		if err != nil {
			return errors.Trace(err)
		}
		p.Progress, _ = cmd.Flags().GetBool("progress")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		report, err := p.Run(ctx)
		if err != nil {
			return errors.Trace(err)
		}
		if summary, _ := cmd.Flags().GetBool("summary"); summary {
			if err = report.Render(cmd.OutOrStdout()); err != nil {
				return errors.Trace(err)
			}
		}
		if metricsPath, _ := cmd.Flags().GetString("metrics-path"); metricsPath != "" {
			if err = pipeline.WriteMetrics(metricsPath); err != nil {
				return errors.Trace(err)
			}
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), report.String())
		return err
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
	},
}

// configFlag overrides a config value if the flag is set.
type configFlag struct {
	name  string
	apply func(flags *pflag.FlagSet, conf *config.Config) error
}

func stringFlag(name string, field func(*config.Config) *string) configFlag {
	return configFlag{name, func(flags *pflag.FlagSet, conf *config.Config) (err error) {
		*field(conf), err = flags.GetString(name)
		return
	}}
}

func intFlag(name string, field func(*config.Config) *int) configFlag {
	return configFlag{name, func(flags *pflag.FlagSet, conf *config.Config) (err error) {
		*field(conf), err = flags.GetInt(name)
		return
	}}
}

var configFlags = []configFlag{
	stringFlag("movies", func(c *config.Config) *string { return &c.Data.Movies }),
	stringFlag("users", func(c *config.Config) *string { return &c.Data.Users }),
	stringFlag("train", func(c *config.Config) *string { return &c.Data.Train }),
	stringFlag("test", func(c *config.Config) *string { return &c.Data.Test }),
	stringFlag("sep", func(c *config.Config) *string { return &c.Data.Separator }),
	intFlag("n-users", func(c *config.Config) *int { return &c.Sample.Users }),
	intFlag("n-movies", func(c *config.Config) *int { return &c.Sample.Movies }),
	intFlag("n-components", func(c *config.Config) *int { return &c.Model.Components }),
	intFlag("max-iter", func(c *config.Config) *int { return &c.Model.MaxIter }),
	stringFlag("solver", func(c *config.Config) *string { return &c.Model.Solver }),
	stringFlag("init", func(c *config.Config) *string { return &c.Model.Init }),
	{"tol", func(flags *pflag.FlagSet, conf *config.Config) (err error) {
		conf.Model.Tol, err = flags.GetFloat64("tol")
		return
	}},
	// one seed for both sampling and initialization
	{"seed", func(flags *pflag.FlagSet, conf *config.Config) error {
		seed, err := flags.GetInt64("seed")
		conf.Sample.Seed, conf.Model.Seed = seed, seed
		return err
	}},
}

func overrideConfig(flags *pflag.FlagSet, conf *config.Config) error {
	changed := false
	for _, flag := range configFlags {
		if flags.Changed(flag.name) {
			if err := flag.apply(flags, conf); err != nil {
				return errors.Trace(err)
			}
			changed = true
		}
	}
	if changed {
		return errors.Trace(conf.Validate())
	}
	return nil
}

func addConfigFlags(flagSet *pflag.FlagSet) {
	flagSet.String("movies", "", "path of movie table")
	flagSet.String("users", "", "path of user table")
	flagSet.String("train", "", "path of training ratings")
	flagSet.String("test", "", "path of test ratings")
	flagSet.String("sep", ",", "field separator of tables")
	flagSet.Int("n-users", 500, "number of sampled users")
	flagSet.Int("n-movies", 500, "number of sampled movies")
	flagSet.Int64("seed", 42, "seed of sampling and initialization")
	flagSet.Int("n-components", nmf.DefaultComponents, "number of latent components")
	flagSet.Int("max-iter", nmf.DefaultMaxIter, "maximum number of iterations")
	flagSet.Float64("tol", nmf.DefaultTol, "tolerance of the stopping condition")
	flagSet.String("solver", nmf.SolverCoordinateDescent,
		fmt.Sprintf("solver of factorization (%s)", strings.Join(nmf.Solvers(), ", ")))
	flagSet.String("init", nmf.InitAuto, "initialization of factors (random, nndsvd, nndsvda or empty for auto)")
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	addConfigFlags(rootCommand.Flags())
	rootCommand.Flags().Bool("summary", false, "print a summary table")
	rootCommand.Flags().Bool("progress", false, "show progress bars while loading tables")
	rootCommand.Flags().String("metrics-path", "", "write metrics of the run to a file in Prometheus text format")
	rootCommand.AddCommand(versionCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
