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

func caretAt(block, offset int) script.Selection {
	return script.Caret(script.Position{Block: block, Offset: offset})
}

func docOf(blocks ...script.Block) script.Document {
	return script.WithBlocks(blocks)
}

func TestTabCycleClosure(t *testing.T) {
	for _, start := range tabCycle {
		d := docOf(script.Block{Type: start, Runs: []script.Run{{Text: "x"}}})
		sel := caretAt(0, 0)
		for i := 0; i < len(tabCycle); i++ {
			tx := Tab(d, sel)
			d, sel = tx.Doc, tx.Sel
		}
		if got := d.Blocks[0].Type; got != start {
			t.Fatalf("six tabs from %v ended at %v", start, got)
		}
	}
}

func TestShiftTabIsTabInverse(t *testing.T) {
	for _, start := range tabCycle {
		d := docOf(script.Block{Type: start})
		tx := Tab(d, caretAt(0, 0))
		tx = ShiftTab(tx.Doc, tx.Sel)
		if got := tx.Doc.Blocks[0].Type; got != start {
			t.Fatalf("tab then shift-tab from %v ended at %v", start, got)
		}
	}
}

func TestTabPreservesContent(t *testing.T) {
	d := docOf(script.Block{Type: script.Action, Runs: []script.Run{{Text: "some text", Marks: script.Bold}}})
	tx := Tab(d, caretAt(0, 4))
	b := tx.Doc.Blocks[0]
	if b.Type != script.Character || b.Text() != "some text" || b.Runs[0].Marks != script.Bold {
		t.Fatalf("tab altered content: %+v", b)
	}
}

func TestTabOnDualContainerIsNoop(t *testing.T) {
	d := docOf(script.Block{Type: script.DualDialogueContainer, Children: []script.Block{
		{Type: script.DualDialogueColumn}, {Type: script.DualDialogueColumn},
	}})
	tx := Tab(d, caretAt(0, 0))
	if tx.DocChanged || tx.Doc.Blocks[0].Type != script.DualDialogueContainer {
		t.Fatalf("dual container was retyped: %+v", tx.Doc.Blocks[0])
	}
}

func TestSetTypeToHeadingSeedsDefaults(t *testing.T) {
	d := docOf(script.Block{Type: script.Action, Runs: []script.Run{{Text: "WAREHOUSE - NIGHT"}}})
	tx := SetType(d, caretAt(0, 0), script.SceneHeading)
	b := tx.Doc.Blocks[0]
	if b.Intro != script.IntroInt || b.Location != "WAREHOUSE" || b.TimeOfDay != "NIGHT" {
		t.Fatalf("heading attrs = %+v", b)
	}
}

func TestSetTypeToHeadingDefaultsDay(t *testing.T) {
	d := docOf(script.Block{Type: script.Action, Runs: []script.Run{{Text: "WAREHOUSE"}}})
	tx := SetType(d, caretAt(0, 0), script.SceneHeading)
	if b := tx.Doc.Blocks[0]; b.TimeOfDay != "DAY" {
		t.Fatalf("time of day = %q, want DAY", b.TimeOfDay)
	}
}

func TestEnterEmptyNonActionConvertsInPlace(t *testing.T) {
	d := docOf(script.Block{Type: script.Character})
	tx := Enter(d, caretAt(0, 0))
	if len(tx.Doc.Blocks) != 1 || tx.Doc.Blocks[0].Type != script.Action {
		t.Fatalf("blocks = %+v", tx.Doc.Blocks)
	}
}

func TestEnterDefaults(t *testing.T) {
	cases := []struct {
		from, want script.BlockType
	}{
		{script.Character, script.Dialogue},
		{script.Dialogue, script.Character},
		{script.Parenthetical, script.Dialogue},
		{script.SceneHeading, script.Action},
		{script.Transition, script.SceneHeading},
		{script.Action, script.Action},
	}
	for _, c := range cases {
		d := docOf(script.Block{Type: c.from, Runs: []script.Run{{Text: "x"}}})
		tx := Enter(d, caretAt(0, 1))
		if len(tx.Doc.Blocks) != 2 {
			t.Fatalf("%v: blocks = %d", c.from, len(tx.Doc.Blocks))
		}
		if got := tx.Doc.Blocks[1].Type; got != c.want {
			t.Fatalf("enter after %v inserted %v, want %v", c.from, got, c.want)
		}
		if tx.Sel.Head.Block != 1 || tx.Sel.Head.Offset != 0 {
			t.Fatalf("%v: caret = %+v, want start of new block", c.from, tx.Sel.Head)
		}
	}
}

func TestEnterAfterCueCarriesCharacterID(t *testing.T) {
	d := docOf(script.Block{Type: script.Character, CharacterID: "alice", Runs: []script.Run{{Text: "ALICE"}}})
	tx := Enter(d, caretAt(0, 5))
	if b := tx.Doc.Blocks[1]; b.Type != script.Dialogue || b.CharacterID != "alice" {
		t.Fatalf("dialogue block = %+v", b)
	}
}

func TestInsertTextReplacesRange(t *testing.T) {
	d := docOf(script.Block{Type: script.Action, Runs: []script.Run{{Text: "hello world"}}})
	sel := script.Selection{Anchor: script.Position{Block: 0, Offset: 6}, Head: script.Position{Block: 0, Offset: 11}}
	tx := InsertText(d, sel, "there")
	if got := tx.Doc.Blocks[0].Text(); got != "hello there" {
		t.Fatalf("text = %q", got)
	}
	if tx.Sel.Head.Offset != 11 {
		t.Fatalf("caret = %d", tx.Sel.Head.Offset)
	}
}

func TestInsertTextInsideBoldStaysBold(t *testing.T) {
	d := docOf(script.Block{Type: script.Action, Runs: []script.Run{
		{Text: "ab", Marks: script.Bold}, {Text: "cd"},
	}})
	tx := InsertText(d, caretAt(0, 1), "X")
	b := tx.Doc.Blocks[0]
	if b.Text() != "aXbcd" {
		t.Fatalf("text = %q", b.Text())
	}
	if b.Runs[0].Marks != script.Bold || b.Runs[0].Text != "aXb" {
		t.Fatalf("runs = %+v", b.Runs)
	}
}

func TestDeleteBackwardMergesBlocks(t *testing.T) {
	d := docOf(
		script.Block{Type: script.Action, Runs: []script.Run{{Text: "one"}}},
		script.Block{Type: script.Action, Runs: []script.Run{{Text: "two"}}},
	)
	tx := DeleteBackward(d, caretAt(1, 0))
	if len(tx.Doc.Blocks) != 1 || tx.Doc.Blocks[0].Text() != "onetwo" {
		t.Fatalf("blocks = %+v", tx.Doc.Blocks)
	}
	if tx.Sel.Head.Offset != 3 {
		t.Fatalf("caret = %d", tx.Sel.Head.Offset)
	}
}

func TestDeleteBackwardRune(t *testing.T) {
	d := docOf(script.Block{Type: script.Action, Runs: []script.Run{{Text: "abc"}}})
	tx := DeleteBackward(d, caretAt(0, 2))
	if got := tx.Doc.Blocks[0].Text(); got != "ac" {
		t.Fatalf("text = %q", got)
	}
}

func TestToggleMarkSetsThenClears(t *testing.T) {
	d := docOf(script.Block{Type: script.Dialogue, Runs: []script.Run{{Text: "hello"}}})
	sel := script.Selection{Anchor: script.Position{Block: 0, Offset: 1}, Head: script.Position{Block: 0, Offset: 4}}
	tx := ToggleMark(d, sel, script.Italic)
	b := tx.Doc.Blocks[0]
	if len(b.Runs) != 3 || b.Runs[1].Text != "ell" || b.Runs[1].Marks != script.Italic {
		t.Fatalf("runs after set = %+v", b.Runs)
	}
	tx = ToggleMark(tx.Doc, sel, script.Italic)
	b = tx.Doc.Blocks[0]
	if b.Text() != "hello" || len(b.Runs) != 1 || b.Runs[0].Marks != 0 {
		t.Fatalf("runs after clear = %+v", b.Runs)
	}
}

func TestToggleMarkCaretIsNoop(t *testing.T) {
	d := docOf(script.Block{Type: script.Dialogue, Runs: []script.Run{{Text: "hello"}}})
	tx := ToggleMark(d, caretAt(0, 2), script.Bold)
	if tx.DocChanged {
		t.Fatal("caret toggle changed the document")
	}
}
