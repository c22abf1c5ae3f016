/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "goscreenwriter/internal/script"

// toggleMark flips m over the rune span [start,end). If every covered rune
// already carries the mark it is cleared, otherwise it is set on the whole
// span.
func toggleMark(runs []script.Run, start, end int, m script.Mark) []script.Run {
	if end <= start {
		return runs
	}
	all := true
	pos := 0
	for _, r := range runs {
		n := len([]rune(r.Text))
		if pos < end && pos+n > start && r.Marks&m == 0 {
			all = false
		}
		pos += n
	}

	var out []script.Run
	pos = 0
	for _, r := range runs {
		rr := []rune(r.Text)
		rStart, rEnd := pos, pos+len(rr)
		pos = rEnd
		if rEnd <= start || rStart >= end {
			out = appendRun(out, r)
			continue
		}
		lo := max(start, rStart) - rStart
		hi := min(end, rEnd) - rStart
		if lo > 0 {
			out = appendRun(out, script.Run{Text: string(rr[:lo]), Marks: r.Marks})
		}
		marks := r.Marks
		if all {
			marks &^= m
		} else {
			marks |= m
		}
		out = appendRun(out, script.Run{Text: string(rr[lo:hi]), Marks: marks})
		if hi < len(rr) {
			out = appendRun(out, script.Run{Text: string(rr[hi:]), Marks: r.Marks})
		}
	}
	return out
}

func appendRun(runs []script.Run, r script.Run) []script.Run {
	if r.Text == "" {
		return runs
	}
	if n := len(runs); n > 0 && runs[n-1].Marks == r.Marks {
		runs[n-1].Text += r.Text
		return runs
	}
	return append(runs, r)
}
