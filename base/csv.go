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

package base

import (
	"bufio"
	"strings"

	"github.com/juju/errors"
)

// ErrStopReading can be returned by a line handler to stop ReadLines without error.
var ErrStopReading = errors.New("stop reading")

// ReadLines parses fields of each record of a delimited file. Fields may be
// quoted with '"', a quoted field may contain separators and line breaks and
// '""' stands for a literal quote. The handler receives the zero-based record
// number and its fields.
func ReadLines(sc *bufio.Scanner, sep rune, handler func(int, []string) error) error {
	lineCount := 0               // record number of current position
	fields := make([]string, 0)  // fields for current record
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(sc.Text())
		// a record continues on the next line
		if quoted {
			builder.WriteString("\r\n")
		}
		for i := 0; i < len(line); i++ {
			if line[i] == sep && !quoted {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						// end of quoted
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					// start of quoted
					quoted = true
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		// end of record
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if err := handler(lineCount, fields); err != nil {
				if errors.Is(err, ErrStopReading) {
					return nil
				}
				return err
			}
			fields = []string{}
			lineCount++
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Trace(err)
	}
	if quoted {
		return errors.Errorf("unterminated quoted field in record %d", lineCount)
	}
	return nil
}
