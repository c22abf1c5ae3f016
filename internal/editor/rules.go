/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"strings"
	"unicode"

	"goscreenwriter/internal/script"
)

// Rules returns the standard pipeline: typographic normalization first, then
// the block-initial retype triggers, then attribute derivation for the edited
// block. All steps are no-ops on transactions that did not insert text.
func Rules() Pipeline {
	return Pipeline{normalizeTypography, applyTriggers, deriveAttrs}
}

var introByPrefix = map[string]script.IntroType{
	"INT. ":     script.IntroInt,
	"EXT. ":     script.IntroExt,
	"INT/EXT. ": script.IntroIntExt,
	"I/E. ":     script.IntroIntExt,
}

// normalizeTypography rewrites the characters just typed: straight quotes
// become curly by preceding-character context, "--" an em dash, "..." an
// ellipsis. It inspects only the text ending at the caret, which keeps the
// step idempotent.
func normalizeTypography(tx Transaction, _ script.Document) Transaction {
	if !tx.TextInserted || !tx.Sel.IsCaret() {
		return tx
	}
	i := tx.Sel.Head.Block
	b := tx.Doc.Blocks[i]
	text := []rune(b.Text())
	off := tx.Sel.Head.Offset
	if off > len(text) {
		off = len(text)
	}

	repl, width := "", 0
	switch {
	case off >= 3 && string(text[off-3:off]) == "...":
		repl, width = "…", 3
	case off >= 2 && string(text[off-2:off]) == "--":
		repl, width = "—", 2
	case off >= 1 && text[off-1] == '"':
		if opensQuote(text, off-1) {
			repl, width = "“", 1
		} else {
			repl, width = "”", 1
		}
	case off >= 1 && text[off-1] == '\'':
		if opensQuote(text, off-1) {
			repl, width = "‘", 1
		} else {
			repl, width = "’", 1
		}
	default:
		return tx
	}

	nb := b
	nb.Runs = script.SpliceRuns(b.Runs, off-width, off, repl)
	tx.Doc = tx.Doc.ReplaceBlock(i, nb)
	tx.Sel = script.Caret(script.Position{Block: i, Offset: off - width + len([]rune(repl))})
	return tx
}

// opensQuote reports whether a quote at index i starts a word: preceded by
// nothing, whitespace, or an opening bracket or dash.
func opensQuote(text []rune, i int) bool {
	if i == 0 {
		return true
	}
	p := text[i-1]
	return unicode.IsSpace(p) || strings.ContainsRune("([{—–-", p)
}

// applyTriggers checks the block-initial retype rules: scene prefixes,
// transition keywords, and a complete parenthesized span after a cue or
// dialogue. The match must cover the block text up to the caret exactly, so
// the rules never fire mid-sentence and re-running on converted content is a
// no-op.
func applyTriggers(tx Transaction, _ script.Document) Transaction {
	if !tx.TextInserted || !tx.Sel.IsCaret() {
		return tx
	}
	i := tx.Sel.Head.Block
	b := tx.Doc.Blocks[i]
	if b.Type == script.DualDialogueContainer || b.Type == script.DualDialogueColumn {
		return tx
	}
	text := []rune(b.Text())
	off := tx.Sel.Head.Offset
	if off > len(text) {
		off = len(text)
	}
	typed := string(text[:off])
	upper := strings.ToUpper(typed)

	if b.Type != script.SceneHeading {
		for _, prefix := range script.ScenePrefixes {
			if upper != prefix {
				continue
			}
			nb := retag(b, script.SceneHeading)
			nb.Runs = script.SpliceRuns(nb.Runs, 0, len([]rune(prefix)), "")
			nb.Intro = introByPrefix[prefix]
			nb.Location, nb.TimeOfDay = script.SplitHeading(nb.Text())
			if nb.TimeOfDay == "" {
				nb.TimeOfDay = "DAY"
			}
			tx.Doc = tx.Doc.ReplaceBlock(i, nb)
			tx.Sel = script.Caret(script.Position{Block: i})
			tx.HeadingSeeded = true
			return tx
		}
	}

	if b.Type != script.Transition && off == len(text) {
		for _, kw := range script.TransitionKeywords {
			if upper != kw {
				continue
			}
			nb := retag(b, script.Transition).WithText(kw)
			tx.Doc = tx.Doc.ReplaceBlock(i, nb)
			tx.Sel = script.Caret(script.Position{Block: i, Offset: len([]rune(kw))})
			return tx
		}
	}

	if b.Type != script.Parenthetical && off == len(text) &&
		len(typed) >= 2 && strings.HasPrefix(typed, "(") && strings.HasSuffix(typed, ")") {
		if prev, ok := previousBlock(tx.Doc, i); ok &&
			(prev.Type == script.Character || prev.Type == script.Dialogue) {
			tx.Doc = tx.Doc.ReplaceBlock(i, retag(b, script.Parenthetical))
			return tx
		}
	}
	return tx
}

func previousBlock(d script.Document, i int) (script.Block, bool) {
	if i <= 0 || i > len(d.Blocks)-1 {
		return script.Block{}, false
	}
	return d.Blocks[i-1], true
}

// deriveAttrs re-derives the tagged attributes of the edited block from its
// text, so heading location/time and cue identity track what the user types.
// Heading attributes seeded by a trigger in the same transaction are kept.
func deriveAttrs(tx Transaction, _ script.Document) Transaction {
	if !tx.DocChanged {
		return tx
	}
	i := tx.Sel.Head.Block
	if i < 0 || i >= len(tx.Doc.Blocks) {
		return tx
	}
	b := tx.Doc.Blocks[i]
	switch b.Type {
	case script.SceneHeading:
		if tx.HeadingSeeded {
			return tx
		}
		nb := b
		nb.Location, nb.TimeOfDay = script.SplitHeading(b.Text())
		if nb.TimeOfDay == "" {
			nb.TimeOfDay = "DAY"
		}
		if nb.Intro == "" {
			nb.Intro = script.IntroInt
		}
		tx.Doc = tx.Doc.ReplaceBlock(i, nb)
	case script.Character:
		name, ext := script.SplitCue(b.Text())
		nb := b
		nb.CharacterID = script.CharacterIDFor(name)
		nb.Extension = ext
		tx.Doc = tx.Doc.ReplaceBlock(i, nb)
	}
	return tx
}
