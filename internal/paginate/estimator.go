/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package paginate

import (
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/textlayout"
)

// Config carries the estimator constants. They model the Courier 12pt
// US Letter convention but are configuration, not invariants; the
// authoritative engine is free to disagree.
type Config struct {
	LinesPerPage     int
	ActionCols       int
	DialogueCols     int
	MinDialogueLines int
}

// DefaultConfig matches the industry convention: 57 usable lines per page,
// 61-character action column, 35-character dialogue column, and at least two
// dialogue lines kept on a page before a split is allowed.
func DefaultConfig() Config {
	return Config{LinesPerPage: 57, ActionCols: 61, DialogueCols: 35, MinDialogueLines: 2}
}

// Estimator walks blocks in order and accumulates estimated lines against a
// per-page budget. It is deliberately cheap: wrap counts plus per-type
// spacing, no shaping. The external layout engine owns exact breaking.
type Estimator struct {
	cfg Config
	m   *textlayout.Measurer
}

func NewEstimator(cfg Config, m *textlayout.Measurer) *Estimator {
	if cfg.LinesPerPage <= 0 {
		cfg = DefaultConfig()
	}
	if m == nil {
		m = textlayout.NewMeasurer(nil)
	}
	return &Estimator{cfg: cfg, m: m}
}

// cols returns the column width for a block type.
func (e *Estimator) cols(t script.BlockType) int {
	switch t {
	case script.Dialogue, script.Character, script.Parenthetical:
		return e.cfg.DialogueCols
	default:
		return e.cfg.ActionCols
	}
}

// spacing is the blank-line allowance above a block of the given type.
func spacing(t script.BlockType) int {
	switch t {
	case script.SceneHeading, script.Transition:
		return 2
	case script.Action, script.Character:
		return 1
	default:
		return 0
	}
}

// textLines counts the wrapped text lines of a block, without spacing.
func (e *Estimator) textLines(b script.Block) int {
	if b.Type == script.DualDialogueContainer {
		// columns render side by side; the container is as tall as its
		// taller column plus a cue allowance
		tallest := 0
		for _, col := range b.Children {
			h := 0
			for _, cb := range col.Children {
				h += e.m.WrapCount(cb.Text(), e.cfg.DialogueCols)
			}
			if h > tallest {
				tallest = h
			}
		}
		if tallest == 0 {
			tallest = 1
		}
		return tallest
	}
	return e.m.WrapCount(b.Text(), e.cols(b.Type))
}

// BlockLines returns the estimated total lines a block occupies, spacing
// included. Exported for consumers that render the fallback layout (PDF
// export, stats).
func (e *Estimator) BlockLines(b script.Block) int {
	return e.textLines(b) + spacing(b.Type)
}

// Paginate computes the fallback pagination state for d.
func (e *Estimator) Paginate(d script.Document) State {
	st := State{Source: SourceFallback, Version: ContentVersion(d)}
	budget := e.cfg.LinesPerPage
	used := 0
	page := 1

	newPage := func(br PageBreak) {
		page++
		br.PageNumber = page
		br.PageID = pageID(page)
		st.Breaks = append(st.Breaks, br)
		used = 0
	}

	for i := 0; i < len(d.Blocks); i++ {
		b := d.Blocks[i]
		lines := e.BlockLines(b)
		if used+lines <= budget || used == 0 {
			used += lines
			continue
		}
		remaining := budget - used

		switch {
		case b.Type == script.Dialogue && remaining-spacing(b.Type) < e.cfg.MinDialogueLines:
			// Not enough room for a meaningful split: move the break before
			// the cue so Character and Dialogue travel together.
			cue := i
			for cue > 0 && (d.Blocks[cue-1].Type == script.Parenthetical || d.Blocks[cue-1].Type == script.Character) {
				cue--
				if d.Blocks[cue].Type == script.Character {
					break
				}
			}
			newPage(PageBreak{Position: script.Position{Block: cue}, Kind: KindNormal})
			for j := cue; j <= i; j++ {
				used += e.BlockLines(d.Blocks[j])
			}
		case b.Type == script.Dialogue:
			// Split mid-dialogue with MORE/CONT'D continuation markers.
			fit := remaining - spacing(b.Type) - 1 // reserve a line for (MORE)
			if fit < e.cfg.MinDialogueLines {
				fit = e.cfg.MinDialogueLines
			}
			off := e.splitOffset(b, fit)
			newPage(PageBreak{
				Position:      script.Position{Block: i, Offset: off},
				Kind:          KindDialogueSplit,
				CharacterName: characterNameFor(d, i),
			})
			used += lines - fit
		case b.Type == script.Character && remaining < lines+e.cfg.MinDialogueLines:
			// Never leave a bare cue at the bottom of a page.
			newPage(PageBreak{Position: script.Position{Block: i}, Kind: KindNormal})
			used += lines
		default:
			newPage(PageBreak{Position: script.Position{Block: i}, Kind: KindNormal})
			used += lines
		}
	}

	st.PageCount = page
	return st
}

// splitOffset approximates the rune offset where the first keepLines wrapped
// lines of dialogue end.
func (e *Estimator) splitOffset(b script.Block, keepLines int) int {
	text := []rune(b.Text())
	approx := keepLines * e.cfg.DialogueCols
	if approx >= len(text) {
		return len(text)
	}
	// back up to the previous word boundary so CONT'D starts cleanly
	for i := approx; i > 0; i-- {
		if text[i-1] == ' ' || text[i-1] == '\n' {
			return i
		}
	}
	return approx
}

// characterNameFor finds the display name of the speaker whose dialogue block
// sits at index i.
func characterNameFor(d script.Document, i int) string {
	for j := i - 1; j >= 0; j-- {
		switch d.Blocks[j].Type {
		case script.Character:
			name, _ := script.SplitCue(d.Blocks[j].Text())
			return name
		case script.Parenthetical, script.Dialogue:
			continue
		default:
			return ""
		}
	}
	return ""
}
