/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// Emphasis markers in the plain-text form: **bold**, *italic*, _underline_.
// Matching is toggle-based, so unbalanced markers degrade to literal text of
// the run they opened rather than failing the parse.

// parseEmphasis converts marked-up text into runs.
func parseEmphasis(text string) []Run {
	if text == "" {
		return nil
	}
	var runs []Run
	var cur strings.Builder
	var marks Mark
	flush := func() {
		if cur.Len() > 0 {
			runs = appendRun(runs, Run{Text: cur.String(), Marks: marks})
			cur.Reset()
		}
	}
	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		switch {
		case rs[i] == '*' && i+1 < len(rs) && rs[i+1] == '*':
			flush()
			marks ^= Bold
			i++
		case rs[i] == '*':
			flush()
			marks ^= Italic
		case rs[i] == '_':
			flush()
			marks ^= Underline
		default:
			cur.WriteRune(rs[i])
		}
	}
	flush()
	return runs
}

// renderEmphasis is the inverse of parseEmphasis for runs this system
// produces (markers are emitted innermost-first and closed in reverse).
func renderEmphasis(runs []Run) string {
	var sb strings.Builder
	var open Mark
	toggle := func(diff Mark) {
		if diff&Bold != 0 {
			sb.WriteString("**")
		}
		if diff&Italic != 0 {
			sb.WriteString("*")
		}
		if diff&Underline != 0 {
			sb.WriteString("_")
		}
	}
	for _, r := range runs {
		if diff := open ^ r.Marks; diff != 0 {
			toggle(diff)
			open = r.Marks
		}
		sb.WriteString(r.Text)
	}
	if open != 0 {
		toggle(open)
	}
	return sb.String()
}

// appendRun merges adjacent runs with identical marks.
func appendRun(runs []Run, r Run) []Run {
	if r.Text == "" {
		return runs
	}
	if n := len(runs); n > 0 && runs[n-1].Marks == r.Marks {
		runs[n-1].Text += r.Text
		return runs
	}
	return append(runs, r)
}

// SpliceRuns replaces the rune span [start,end) of the run sequence with
// text. The replacement inherits the marks of the run containing start (or of
// the preceding run when inserting at a boundary), so typing inside bold text
// stays bold. Offsets are clamped; adjacent runs with equal marks merge.
func SpliceRuns(runs []Run, start, end int, text string) []Run {
	total := 0
	for _, r := range runs {
		total += len([]rune(r.Text))
	}
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if end < start {
		end = start
	}

	var out []Run
	pos := 0
	inherit := Mark(0)
	inserted := false
	for _, r := range runs {
		rr := []rune(r.Text)
		rStart, rEnd := pos, pos+len(rr)
		pos = rEnd

		if rStart < start {
			keep := min(start, rEnd) - rStart
			out = appendRun(out, Run{Text: string(rr[:keep]), Marks: r.Marks})
			inherit = r.Marks
		}
		if !inserted && rEnd >= start {
			if rStart <= start {
				inherit = r.Marks
			}
			out = appendRun(out, Run{Text: text, Marks: inherit})
			inserted = true
		}
		if rEnd > end {
			from := max(end, rStart) - rStart
			out = appendRun(out, Run{Text: string(rr[from:]), Marks: r.Marks})
		}
	}
	if !inserted {
		out = appendRun(out, Run{Text: text, Marks: inherit})
	}
	return out
}
