/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"testing"
)

func TestParseTextBasicScreenplay(t *testing.T) {
	input := `INT. KITCHEN - NIGHT #4#

Rain hammers the window. ALICE stares at a cold cup of coffee.

ALICE (V.O.)
I never meant to come back here.

ALICE
(quietly)
But here we are.

CUT TO:

EXT. STREET - DAY`

	d := ParseText(input)
	if len(d.Blocks) != 9 {
		t.Fatalf("expected 9 blocks, got %d: %+v", len(d.Blocks), d.Blocks)
	}
	h := d.Blocks[0]
	if h.Type != SceneHeading || h.Intro != IntroInt || h.Location != "KITCHEN" || h.TimeOfDay != "NIGHT" || h.SceneNumber != "4" {
		t.Fatalf("unexpected heading: %+v", h)
	}
	if d.Blocks[1].Type != Action {
		t.Fatalf("expected action, got %+v", d.Blocks[1])
	}
	cue := d.Blocks[2]
	if cue.Type != Character || cue.CharacterID != "alice" || cue.Extension != "V.O." {
		t.Fatalf("unexpected cue: %+v", cue)
	}
	if d.Blocks[3].Type != Dialogue || d.Blocks[3].CharacterID != "alice" {
		t.Fatalf("unexpected dialogue: %+v", d.Blocks[3])
	}
	if d.Blocks[5].Type != Parenthetical || d.Blocks[5].Text() != "(quietly)" {
		t.Fatalf("unexpected parenthetical: %+v", d.Blocks[5])
	}
	if d.Blocks[7].Type != Transition || d.Blocks[7].Text() != "CUT TO:" {
		t.Fatalf("unexpected transition: %+v", d.Blocks[7])
	}
	if d.Blocks[8].Type != SceneHeading || d.Blocks[8].Intro != IntroExt || d.Blocks[8].TimeOfDay != "DAY" {
		t.Fatalf("unexpected trailing heading: %+v", d.Blocks[8])
	}
}

func TestParseTextTrailingHeadingWithoutBody(t *testing.T) {
	d := ParseText("EXT. STREET - DAY")
	if len(d.Blocks) != 1 || d.Blocks[0].Type != SceneHeading || d.Blocks[0].Intro != IntroExt {
		t.Fatalf("unexpected document: %+v", d.Blocks)
	}
}

func TestParseTextAllCapsActionIsNotACue(t *testing.T) {
	// An ALL-CAPS line with no dialogue after it stays action.
	d := ParseText("BANG!")
	if d.Blocks[0].Type != Action {
		t.Fatalf("expected action for bare caps line, got %v", d.Blocks[0].Type)
	}
}

func TestParseTextDualDialogueFolding(t *testing.T) {
	input := `ALICE
You first.

BOB ^
No, you.`
	d := ParseText(input)
	if len(d.Blocks) != 1 {
		t.Fatalf("expected one container, got %d blocks", len(d.Blocks))
	}
	c := d.Blocks[0]
	if c.Type != DualDialogueContainer || len(c.Children) != 2 {
		t.Fatalf("expected container with two columns, got %+v", c)
	}
	left, right := c.Children[0], c.Children[1]
	if left.Type != DualDialogueColumn || left.Children[0].CharacterID != "alice" {
		t.Fatalf("unexpected left column: %+v", left)
	}
	if right.Children[0].CharacterID != "bob" || !right.Children[0].IsDual {
		t.Fatalf("unexpected right column: %+v", right)
	}
}

func TestSerializeTextRoundTrip(t *testing.T) {
	input := `INT. KITCHEN - NIGHT

Rain hammers the window.

ALICE (V.O.)
I never meant to come back here.

CUT TO:
`
	d := ParseText(input)
	out := SerializeText(d)
	if strings.TrimSpace(out) != strings.TrimSpace(input) {
		t.Fatalf("round trip mismatch:\n--- in ---\n%s\n--- out ---\n%s", input, out)
	}
	// Parsing the serialized form yields the same document again.
	d2 := ParseText(out)
	if Serialize(d2) != Serialize(d) {
		t.Fatalf("reparse of serialized text diverged")
	}
}

func TestEmphasisMarks(t *testing.T) {
	runs := parseEmphasis("plain **bold** and *italic* and _under_")
	want := []Run{
		{Text: "plain "},
		{Text: "bold", Marks: Bold},
		{Text: " and "},
		{Text: "italic", Marks: Italic},
		{Text: " and "},
		{Text: "under", Marks: Underline},
	}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d: %+v", len(want), len(runs), runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Fatalf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}
	if got := renderEmphasis(runs); got != "plain **bold** and *italic* and _under_" {
		t.Fatalf("render mismatch: %q", got)
	}
}

func TestSplitCue(t *testing.T) {
	cases := []struct {
		in, name, ext string
	}{
		{"ALICE", "ALICE", ""},
		{"ALICE (V.O.)", "ALICE", "V.O."},
		{"BOB (CONT'D)", "BOB", "CONT'D"},
	}
	for _, c := range cases {
		name, ext := SplitCue(c.in)
		if name != c.name || ext != c.ext {
			t.Fatalf("SplitCue(%q) = %q/%q, want %q/%q", c.in, name, ext, c.name, c.ext)
		}
	}
}
