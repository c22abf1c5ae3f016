/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"

	"goscreenwriter/internal/script"
)

// typeInto simulates typing text into the block at the caret and running the
// rule pipeline, the way the session does.
func typeInto(d script.Document, sel script.Selection, text string) Transaction {
	return Rules().Run(InsertText(d, sel, text), d)
}

func TestScenePrefixRetypes(t *testing.T) {
	cases := []struct {
		typed string
		intro script.IntroType
	}{
		{"INT. ", script.IntroInt},
		{"EXT. ", script.IntroExt},
		{"INT/EXT. ", script.IntroIntExt},
		{"I/E. ", script.IntroIntExt},
		{"int. ", script.IntroInt},
	}
	for _, c := range cases {
		d := docOf(script.Block{Type: script.Action})
		tx := typeInto(d, caretAt(0, 0), c.typed)
		b := tx.Doc.Blocks[0]
		if b.Type != script.SceneHeading {
			t.Fatalf("%q: type = %v", c.typed, b.Type)
		}
		if b.Intro != c.intro {
			t.Fatalf("%q: intro = %v, want %v", c.typed, b.Intro, c.intro)
		}
		if b.Text() != "" {
			t.Fatalf("%q: trigger not consumed, text = %q", c.typed, b.Text())
		}
		if !tx.HeadingSeeded {
			t.Fatalf("%q: heading not marked seeded", c.typed)
		}
		if tx.Sel.Head.Offset != 0 {
			t.Fatalf("%q: caret = %d", c.typed, tx.Sel.Head.Offset)
		}
	}
}

func TestScenePrefixMidSentenceDoesNotFire(t *testing.T) {
	d := docOf(script.Block{Type: script.Action, Runs: []script.Run{{Text: "go "}}})
	tx := typeInto(d, caretAt(0, 3), "INT. ")
	if tx.Doc.Blocks[0].Type != script.Action {
		t.Fatalf("mid-sentence prefix fired: %+v", tx.Doc.Blocks[0])
	}
}

func TestTransitionKeywordRetypes(t *testing.T) {
	d := docOf(script.Block{Type: script.Action})
	tx := typeInto(d, caretAt(0, 0), "cut to:")
	b := tx.Doc.Blocks[0]
	if b.Type != script.Transition || b.Text() != "CUT TO:" {
		t.Fatalf("block = %+v", b)
	}
}

func TestParentheticalAfterCue(t *testing.T) {
	d := docOf(
		script.Block{Type: script.Character, Runs: []script.Run{{Text: "ALICE"}}},
		script.Block{Type: script.Dialogue},
	)
	tx := typeInto(d, caretAt(1, 0), "(beat)")
	if b := tx.Doc.Blocks[1]; b.Type != script.Parenthetical || b.Text() != "(beat)" {
		t.Fatalf("block = %+v", b)
	}
}

func TestParentheticalWithoutCueDoesNotFire(t *testing.T) {
	d := docOf(
		script.Block{Type: script.Action},
		script.Block{Type: script.Action},
	)
	tx := typeInto(d, caretAt(1, 0), "(beat)")
	if tx.Doc.Blocks[1].Type != script.Action {
		t.Fatalf("parenthetical fired after action: %+v", tx.Doc.Blocks[1])
	}
}

func TestCurlyQuotesByContext(t *testing.T) {
	d := docOf(script.Block{Type: script.Dialogue})
	tx := typeInto(d, caretAt(0, 0), "He said ")
	tx = typeInto(tx.Doc, tx.Sel, `"`)
	if got := tx.Doc.Blocks[0].Text(); got != "He said “" {
		t.Fatalf("open quote: %q", got)
	}
	tx = typeInto(tx.Doc, tx.Sel, "hi")
	tx = typeInto(tx.Doc, tx.Sel, `"`)
	if got := tx.Doc.Blocks[0].Text(); got != "He said “hi”" {
		t.Fatalf("close quote: %q", got)
	}
}

func TestApostropheClosesInsideWord(t *testing.T) {
	d := docOf(script.Block{Type: script.Dialogue})
	tx := typeInto(d, caretAt(0, 0), "don")
	tx = typeInto(tx.Doc, tx.Sel, "'")
	if got := tx.Doc.Blocks[0].Text(); got != "don’" {
		t.Fatalf("apostrophe: %q", got)
	}
}

func TestEmDashAndEllipsis(t *testing.T) {
	d := docOf(script.Block{Type: script.Dialogue})
	tx := typeInto(d, caretAt(0, 0), "wait-")
	tx = typeInto(tx.Doc, tx.Sel, "-")
	if got := tx.Doc.Blocks[0].Text(); got != "wait—" {
		t.Fatalf("em dash: %q", got)
	}
	tx = typeInto(tx.Doc, tx.Sel, " no..")
	tx = typeInto(tx.Doc, tx.Sel, ".")
	if got := tx.Doc.Blocks[0].Text(); got != "wait— no…" {
		t.Fatalf("ellipsis: %q", got)
	}
}

func TestRulesIdempotentOnConvertedContent(t *testing.T) {
	d := docOf(script.Block{Type: script.Transition, Runs: []script.Run{{Text: "CUT TO:"}}})
	tx := Rules().Run(Transaction{Doc: d, Sel: caretAt(0, 7), DocChanged: true, TextInserted: true}, d)
	if got := tx.Doc.Blocks[0]; got.Type != script.Transition || got.Text() != "CUT TO:" {
		t.Fatalf("rerun changed block: %+v", got)
	}
	h := docOf(script.Block{Type: script.SceneHeading, Intro: script.IntroExt,
		Location: "STREET", TimeOfDay: "NIGHT", Runs: []script.Run{{Text: "STREET - NIGHT"}}})
	tx = Rules().Run(Transaction{Doc: h, Sel: caretAt(0, 14), DocChanged: true, TextInserted: true}, h)
	b := tx.Doc.Blocks[0]
	if b.Type != script.SceneHeading || b.Intro != script.IntroExt || b.Location != "STREET" {
		t.Fatalf("rerun changed heading: %+v", b)
	}
}

func TestHeadingAttrsTrackTypedText(t *testing.T) {
	d := docOf(script.Block{Type: script.Action})
	tx := typeInto(d, caretAt(0, 0), "EXT. ")
	tx = typeInto(tx.Doc, tx.Sel, "ROOFTOP - NIGHT")
	b := tx.Doc.Blocks[0]
	if b.Location != "ROOFTOP" || b.TimeOfDay != "NIGHT" || b.Intro != script.IntroExt {
		t.Fatalf("heading attrs = %+v", b)
	}
}

func TestCueAttrsTrackTypedText(t *testing.T) {
	d := docOf(script.Block{Type: script.Character})
	tx := typeInto(d, caretAt(0, 0), "ALICE (V.O.)")
	b := tx.Doc.Blocks[0]
	if b.CharacterID != "alice" || b.Extension != "V.O." {
		t.Fatalf("cue attrs = %+v", b)
	}
}
