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

package dataset

import "fmt"

// DataAccessError means an input table is missing, unreadable or malformed.
type DataAccessError struct {
	Path string
	Err  error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("failed to access %s: %v", e.Path, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// InsufficientDataError means fewer distinct values are available than requested.
type InsufficientDataError struct {
	What      string
	Requested int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient %s: requested %d, available %d", e.What, e.Requested, e.Available)
}
