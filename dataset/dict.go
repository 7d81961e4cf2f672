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

// FreqDict maps sparse ids to dense indices [0, n) in first-seen order and
// counts how many times each id has been added.
type FreqDict struct {
	si  map[string]int
	is  []string
	cnt []int
}

func NewFreqDict() *FreqDict {
	return &FreqDict{si: map[string]int{}}
}

// Count returns the number of distinct ids.
func (d *FreqDict) Count() int {
	return len(d.is)
}

// Id returns the index of s, assigning the next index if s is new, and
// increases its frequency.
func (d *FreqDict) Id(s string) int {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}
	y := len(d.is)
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return y
}

// Index looks up s without inserting it.
func (d *FreqDict) Index(s string) (int, bool) {
	y, ok := d.si[s]
	return y, ok
}

func (d *FreqDict) String(id int) (string, bool) {
	if id < 0 || id >= len(d.is) {
		return "", false
	}
	return d.is[id], true
}

func (d *FreqDict) Freq(id int) int {
	if id < 0 || id >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}

// Ids returns ids ordered by index.
func (d *FreqDict) Ids() []string {
	return d.is
}
