/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script defines the typed block model for a screenplay document and
// its stored forms. A Document is an immutable value: every edit produces a
// new Document, never a mutation of an existing one, which makes undo/redo a
// matter of keeping references to old values.
package script

import (
	"strings"
	"unicode"
)

// BlockType is the tag of a Block variant.
type BlockType int

const (
	SceneHeading BlockType = iota
	Action
	Character
	Dialogue
	Parenthetical
	Transition
	DualDialogueContainer
	DualDialogueColumn
)

var blockTypeNames = map[BlockType]string{
	SceneHeading:          "scene_heading",
	Action:                "action",
	Character:             "character",
	Dialogue:              "dialogue",
	Parenthetical:         "parenthetical",
	Transition:            "transition",
	DualDialogueContainer: "dual_dialogue",
	DualDialogueColumn:    "dual_dialogue_column",
}

var blockTypeByName = func() map[string]BlockType {
	m := make(map[string]BlockType, len(blockTypeNames))
	for k, v := range blockTypeNames {
		m[v] = k
	}
	return m
}()

func (t BlockType) String() string {
	if s, ok := blockTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Mark is a bitmask of inline text decorations.
type Mark uint8

const (
	Bold Mark = 1 << iota
	Italic
	Underline
)

// Run is a span of text carrying uniform marks.
type Run struct {
	Text  string `json:"text"`
	Marks Mark   `json:"marks,omitempty"`
}

// IntroType classifies a scene heading prefix.
type IntroType string

const (
	IntroInt    IntroType = "INT"
	IntroExt    IntroType = "EXT"
	IntroIntExt IntroType = "INT/EXT"
)

// Extension values recognized after a character cue.
var Extensions = []string{"V.O.", "O.S.", "O.C.", "CONT'D"}

// Block is a tagged variant over the screenplay paragraph kinds. Only the
// fields relevant to the tagged type carry meaning; the rest stay zero.
// Blocks hold no references to neighbors; position in Document.Blocks is the
// only ordering.
type Block struct {
	Type BlockType
	Runs []Run

	// SceneHeading
	SceneID     string
	Intro       IntroType
	Location    string
	TimeOfDay   string
	SceneNumber string

	// Character / Dialogue
	CharacterID string
	Extension   string
	IsDual      bool

	// DualDialogueContainer holds exactly two DualDialogueColumn children;
	// a DualDialogueColumn holds (Character, Dialogue?, Parenthetical?) groups.
	Children []Block
}

// Text concatenates the block's runs, ignoring marks. For container blocks it
// joins child text with newlines.
func (b Block) Text() string {
	if len(b.Children) > 0 {
		parts := make([]string, 0, len(b.Children))
		for _, c := range b.Children {
			parts = append(parts, c.Text())
		}
		return strings.Join(parts, "\n")
	}
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// WithText returns a copy of the block whose content is a single unmarked run.
func (b Block) WithText(text string) Block {
	nb := b
	if text == "" {
		nb.Runs = nil
	} else {
		nb.Runs = []Run{{Text: text}}
	}
	return nb
}

// WithType returns a copy retagged to t. Content is preserved; attributes of
// the old tag are cleared and defaults of the new tag are left to the caller
// (the state machine seeds scene heading defaults).
func (b Block) WithType(t BlockType) Block {
	nb := Block{Type: t, Runs: append([]Run(nil), b.Runs...)}
	return nb
}

// IsEmpty reports whether the block has no text content.
func (b Block) IsEmpty() bool { return strings.TrimSpace(b.Text()) == "" }

// LegalInColumn reports whether a block type may appear inside a
// DualDialogueColumn.
func LegalInColumn(t BlockType) bool {
	return t == Character || t == Dialogue || t == Parenthetical
}

// Document is an ordered sequence of blocks. The zero Document is not valid;
// use New or Normalize. Invariant: at least one block, and an "empty"
// document is exactly one empty Action block.
type Document struct {
	Blocks []Block
}

// New returns the canonical empty document.
func New() Document {
	return Document{Blocks: []Block{{Type: Action}}}
}

// Normalize enforces the non-empty invariant on a parsed or edited document.
func Normalize(d Document) Document {
	if len(d.Blocks) == 0 {
		return New()
	}
	return d
}

// WithBlocks returns a new Document over the given blocks (normalized).
func WithBlocks(blocks []Block) Document {
	return Normalize(Document{Blocks: blocks})
}

// ReplaceBlock returns a new Document with block i replaced. Out-of-range
// indexes return the document unchanged.
func (d Document) ReplaceBlock(i int, b Block) Document {
	if i < 0 || i >= len(d.Blocks) {
		return d
	}
	nb := make([]Block, len(d.Blocks))
	copy(nb, d.Blocks)
	nb[i] = b
	return Document{Blocks: nb}
}

// InsertBlock returns a new Document with b inserted at index i (clamped).
func (d Document) InsertBlock(i int, b Block) Document {
	if i < 0 {
		i = 0
	}
	if i > len(d.Blocks) {
		i = len(d.Blocks)
	}
	nb := make([]Block, 0, len(d.Blocks)+1)
	nb = append(nb, d.Blocks[:i]...)
	nb = append(nb, b)
	nb = append(nb, d.Blocks[i:]...)
	return Document{Blocks: nb}
}

// RemoveBlock returns a new Document with block i removed, keeping the
// non-empty invariant.
func (d Document) RemoveBlock(i int) Document {
	if i < 0 || i >= len(d.Blocks) {
		return d
	}
	nb := make([]Block, 0, len(d.Blocks)-1)
	nb = append(nb, d.Blocks[:i]...)
	nb = append(nb, d.Blocks[i+1:]...)
	return Normalize(Document{Blocks: nb})
}

// WordCount returns the whitespace-delimited token count over all block text.
func (d Document) WordCount() int {
	n := 0
	for _, b := range d.Blocks {
		n += len(strings.FieldsFunc(b.Text(), unicode.IsSpace))
	}
	return n
}

// Position addresses a rune offset within a block. Derived markers are always
// recomputed from the live document; a Position is never cached across a
// document-changing transaction.
type Position struct {
	Block  int
	Offset int
}

// Selection is a position or range resolved against the current Document.
// Ephemeral: recomputed every transaction, never persisted.
type Selection struct {
	Anchor Position
	Head   Position
}

// Caret returns a collapsed selection at p.
func Caret(p Position) Selection { return Selection{Anchor: p, Head: p} }

// IsCaret reports whether the selection is collapsed.
func (s Selection) IsCaret() bool { return s.Anchor == s.Head }

// Clamp bounds the selection against d so both ends address valid offsets.
func (s Selection) Clamp(d Document) Selection {
	clamp := func(p Position) Position {
		if p.Block < 0 {
			p.Block = 0
		}
		if p.Block >= len(d.Blocks) {
			p.Block = len(d.Blocks) - 1
		}
		if p.Offset < 0 {
			p.Offset = 0
		}
		if n := len([]rune(d.Blocks[p.Block].Text())); p.Offset > n {
			p.Offset = n
		}
		return p
	}
	return Selection{Anchor: clamp(s.Anchor), Head: clamp(s.Head)}
}
