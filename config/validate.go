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
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/nmfbench/model/nmf"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// oneOf accepts a string field with one of the expected values. Unlike the
// builtin oneof, the empty string can be one of them.
func oneOf(expectedValues []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return lo.Contains(expectedValues, fl.Field().String())
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()
	lo.Must0(validate.RegisterValidation("solver", oneOf(nmf.Solvers())))
	lo.Must0(validate.RegisterValidation("init", oneOf(nmf.Inits())))
	return validate
}

// Validate checks the values of the config.
func (config *Config) Validate() error {
	err := newValidator().Struct(config)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.Trace(err)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, describe(fieldError))
	}
	return errors.NotValidf("config: %s", strings.Join(messages, "; "))
}

func describe(fieldError validator.FieldError) string {
	name := fieldError.Namespace()
	switch fieldError.Tag() {
	case "solver":
		return fmt.Sprintf("%s must be one of [%s], but the current value is %q",
			name, strings.Join(nmf.Solvers(), ","), fieldError.Value())
	case "init":
		return fmt.Sprintf("%s must be one of [%s], but the current value is %q",
			name, strings.Join(nmf.Inits(), ","), fieldError.Value())
	case "required":
		return fmt.Sprintf("%s must not be empty", name)
	default:
		return fmt.Sprintf("%s must satisfy %s=%s, but the current value is %v",
			name, fieldError.Tag(), fieldError.Param(), fieldError.Value())
	}
}
