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

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorse-io/nmfbench/base"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"modernc.org/strutil"
)

// Column names of rating tables.
const (
	UserColumn   = "uID"
	MovieColumn  = "mID"
	RatingColumn = "rating"
)

const maxLineSize = 1024 * 1024

// Table is a delimited file held in memory. Rows keep the file order.
type Table struct {
	Path    string
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the position of a column.
func (t *Table) Column(name string) (int, bool) {
	for i, column := range t.Columns {
		if column == name {
			return i, true
		}
	}
	return -1, false
}

// Ratings extracts user ids, movie ids and ratings from the uID, mID and rating columns.
func (t *Table) Ratings() ([]Rating, error) {
	var columns [3]int
	for i, name := range []string{UserColumn, MovieColumn, RatingColumn} {
		var ok bool
		if columns[i], ok = t.Column(name); !ok {
			return nil, &DataAccessError{Path: t.Path, Err: errors.NotFoundf("column %s", name)}
		}
	}
	ratings := make([]Rating, 0, len(t.Rows))
	for i, row := range t.Rows {
		value, err := strconv.ParseFloat(strings.TrimSpace(row[columns[2]]), 64)
		if err != nil {
			return nil, &DataAccessError{Path: t.Path, Err: errors.Annotatef(err, "row %d", i+1)}
		}
		ratings = append(ratings, Rating{
			UserId:  row[columns[0]],
			MovieId: row[columns[1]],
			Value:   value,
		})
	}
	return ratings, nil
}

type options struct {
	sep      rune
	progress bool
}

type Option func(*options)

// WithSeparator sets the field separator. The default is ','.
func WithSeparator(sep rune) Option {
	return func(o *options) {
		o.sep = sep
	}
}

// WithProgress shows a progress bar on stderr while reading.
func WithProgress(progress bool) Option {
	return func(o *options) {
		o.progress = progress
	}
}

// LoadTable reads a delimited file whose first record is the header.
func LoadTable(path string, opts ...Option) (*Table, error) {
	o := options{sep: ','}
	for _, opt := range opts {
		opt(&o)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataAccessError{Path: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if o.progress {
		stat, err := f.Stat()
		if err != nil {
			return nil, &DataAccessError{Path: path, Err: err}
		}
		pbReader := progressbar.NewReader(f, progressbar.DefaultBytes(stat.Size(), "loading "+filepath.Base(path)))
		r = &pbReader
	}

	table := &Table{Path: path}
	pool := strutil.NewPool()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	err = base.ReadLines(sc, o.sep, func(i int, fields []string) error {
		if i == 0 {
			table.Columns = make([]string, len(fields))
			for j, field := range fields {
				table.Columns[j] = strings.TrimSpace(field)
			}
			return nil
		}
		// skip blank lines
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return nil
		}
		if len(fields) != len(table.Columns) {
			return errors.Errorf("record %d has %d fields, header has %d", i, len(fields), len(table.Columns))
		}
		for j := range fields {
			fields[j] = pool.Align(fields[j])
		}
		table.Rows = append(table.Rows, fields)
		return nil
	})
	if err != nil {
		return nil, &DataAccessError{Path: path, Err: err}
	}
	if table.Columns == nil {
		return nil, &DataAccessError{Path: path, Err: errors.New("missing header")}
	}
	return table, nil
}

// Tables are the inputs of an experiment.
type Tables struct {
	Movies *Table
	Users  *Table
	Train  *Table
	Test   *Table
}

// Paths locate the input tables.
type Paths struct {
	Movies string
	Users  string
	Train  string
	Test   string
}

// LoadTables loads movies, users, training ratings and test ratings.
func LoadTables(paths Paths, opts ...Option) (*Tables, error) {
	var (
		tables Tables
		err    error
	)
	for _, target := range []struct {
		table **Table
		path  string
	}{
		{&tables.Movies, paths.Movies},
		{&tables.Users, paths.Users},
		{&tables.Train, paths.Train},
		{&tables.Test, paths.Test},
	} {
		if *target.table, err = LoadTable(target.path, opts...); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return &tables, nil
}
