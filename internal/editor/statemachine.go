/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "goscreenwriter/internal/script"

// tabCycle is the Tab order over the six editable element types. Dual
// dialogue containers sit outside the cycle and are not retypable.
var tabCycle = []script.BlockType{
	script.SceneHeading,
	script.Action,
	script.Character,
	script.Dialogue,
	script.Parenthetical,
	script.Transition,
}

// enterDefault maps the current type to the type of the block Enter inserts.
var enterDefault = map[script.BlockType]script.BlockType{
	script.Character:     script.Dialogue,
	script.Dialogue:      script.Character,
	script.Parenthetical: script.Dialogue,
	script.SceneHeading:  script.Action,
	script.Transition:    script.SceneHeading,
	script.Action:        script.Action,
}

// Tab retypes the caret block to the next type in the cycle.
func Tab(d script.Document, sel script.Selection) Transaction {
	return cycleType(d, sel, 1)
}

// ShiftTab retypes the caret block to the previous type in the cycle.
func ShiftTab(d script.Document, sel script.Selection) Transaction {
	return cycleType(d, sel, -1)
}

func cycleType(d script.Document, sel script.Selection, dir int) Transaction {
	sel = sel.Clamp(d)
	b := d.Blocks[sel.Head.Block]
	idx := -1
	for i, t := range tabCycle {
		if t == b.Type {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Transaction{Doc: d, Sel: sel}
	}
	next := tabCycle[(idx+dir+len(tabCycle))%len(tabCycle)]
	return SetType(d, sel, next)
}

// SetType retypes the caret block, preserving content. Retagging to
// SceneHeading seeds the default attributes and derives location and time of
// day from whatever text the block already holds.
func SetType(d script.Document, sel script.Selection, t script.BlockType) Transaction {
	sel = sel.Clamp(d)
	b := d.Blocks[sel.Head.Block]
	if b.Type == t || b.Type == script.DualDialogueContainer || b.Type == script.DualDialogueColumn {
		return Transaction{Doc: d, Sel: sel}
	}
	nb := retag(b, t)
	return Transaction{Doc: d.ReplaceBlock(sel.Head.Block, nb), Sel: sel, DocChanged: true}
}

func retag(b script.Block, t script.BlockType) script.Block {
	nb := b.WithType(t)
	switch t {
	case script.SceneHeading:
		nb.Intro = script.IntroInt
		nb.Location, nb.TimeOfDay = script.SplitHeading(nb.Text())
		if nb.TimeOfDay == "" {
			nb.TimeOfDay = "DAY"
		}
	case script.Character:
		name, ext := script.SplitCue(nb.Text())
		nb.CharacterID = script.CharacterIDFor(name)
		nb.Extension = ext
	case script.Dialogue:
		nb.CharacterID = b.CharacterID
	}
	return nb
}

// Enter converts an empty non-Action block to Action in place; otherwise it
// inserts a new block after the caret block with the contextual default type
// and moves the caret into it.
func Enter(d script.Document, sel script.Selection) Transaction {
	sel = sel.Clamp(d)
	i := sel.Head.Block
	b := d.Blocks[i]
	if b.Type == script.DualDialogueContainer {
		return Transaction{Doc: d, Sel: sel}
	}
	if b.IsEmpty() && b.Type != script.Action {
		nb := b.WithType(script.Action)
		return Transaction{
			Doc:        d.ReplaceBlock(i, nb),
			Sel:        script.Caret(script.Position{Block: i}),
			DocChanged: true,
		}
	}
	next := enterDefault[b.Type]
	nb := script.Block{Type: next}
	if next == script.Dialogue && b.Type == script.Character {
		nb.CharacterID = b.CharacterID
	}
	return Transaction{
		Doc:        d.InsertBlock(i+1, nb),
		Sel:        script.Caret(script.Position{Block: i + 1}),
		DocChanged: true,
	}
}

// InsertText splices text at the selection, replacing a ranged selection
// first. The caret ends after the inserted text.
func InsertText(d script.Document, sel script.Selection, text string) Transaction {
	sel = sel.Clamp(d)
	start, end := sel.Anchor.Offset, sel.Head.Offset
	if sel.Anchor.Block != sel.Head.Block {
		// Cross-block ranges collapse to the head caret before inserting.
		sel = script.Caret(sel.Head)
		start, end = sel.Head.Offset, sel.Head.Offset
	}
	if start > end {
		start, end = end, start
	}
	i := sel.Head.Block
	b := d.Blocks[i]
	if b.Type == script.DualDialogueContainer {
		return Transaction{Doc: d, Sel: sel}
	}
	nb := b
	nb.Runs = script.SpliceRuns(b.Runs, start, end, text)
	caret := script.Position{Block: i, Offset: start + len([]rune(text))}
	return Transaction{
		Doc:          d.ReplaceBlock(i, nb),
		Sel:          script.Caret(caret),
		DocChanged:   true,
		TextInserted: true,
	}
}

// DeleteBackward removes the rune before a caret, or the selected span. At
// block start it merges the caret block into its predecessor.
func DeleteBackward(d script.Document, sel script.Selection) Transaction {
	sel = sel.Clamp(d)
	i := sel.Head.Block
	b := d.Blocks[i]
	if b.Type == script.DualDialogueContainer {
		return Transaction{Doc: d, Sel: sel}
	}
	if !sel.IsCaret() && sel.Anchor.Block == sel.Head.Block {
		start, end := sel.Anchor.Offset, sel.Head.Offset
		if start > end {
			start, end = end, start
		}
		nb := b
		nb.Runs = script.SpliceRuns(b.Runs, start, end, "")
		return Transaction{
			Doc:        d.ReplaceBlock(i, nb),
			Sel:        script.Caret(script.Position{Block: i, Offset: start}),
			DocChanged: true,
		}
	}
	off := sel.Head.Offset
	if off > 0 {
		nb := b
		nb.Runs = script.SpliceRuns(b.Runs, off-1, off, "")
		return Transaction{
			Doc:        d.ReplaceBlock(i, nb),
			Sel:        script.Caret(script.Position{Block: i, Offset: off - 1}),
			DocChanged: true,
		}
	}
	if i == 0 {
		return Transaction{Doc: d, Sel: sel}
	}
	prev := d.Blocks[i-1]
	if prev.Type == script.DualDialogueContainer {
		return Transaction{Doc: d, Sel: sel}
	}
	joinAt := len([]rune(prev.Text()))
	merged := prev
	merged.Runs = script.SpliceRuns(prev.Runs, joinAt, joinAt, b.Text())
	nd := d.ReplaceBlock(i-1, merged).RemoveBlock(i)
	return Transaction{
		Doc:        nd,
		Sel:        script.Caret(script.Position{Block: i - 1, Offset: joinAt}),
		DocChanged: true,
	}
}

// ToggleMark flips an inline mark over the selected span. A caret selection
// is a no-op.
func ToggleMark(d script.Document, sel script.Selection, m script.Mark) Transaction {
	sel = sel.Clamp(d)
	if sel.IsCaret() || sel.Anchor.Block != sel.Head.Block {
		return Transaction{Doc: d, Sel: sel}
	}
	start, end := sel.Anchor.Offset, sel.Head.Offset
	if start > end {
		start, end = end, start
	}
	i := sel.Head.Block
	b := d.Blocks[i]
	if b.Type == script.DualDialogueContainer {
		return Transaction{Doc: d, Sel: sel}
	}
	nb := b
	nb.Runs = toggleMark(b.Runs, start, end, m)
	return Transaction{Doc: d.ReplaceBlock(i, nb), Sel: sel, DocChanged: true}
}
