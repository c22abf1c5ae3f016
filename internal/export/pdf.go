/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes screenplay PDFs. The layout follows the US Letter
// Courier convention: 12pt fixed pitch, 1.5in left margin, six lines per
// inch, with the per-element indents screenwriting software has used for
// decades. Page boundaries come from the caller's pagination state so the PDF
// agrees with what the editor shows.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"goscreenwriter/internal/paginate"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

// Page geometry in points. Courier 12pt is 10 characters per inch, so one
// character cell is 7.2pt and one line is 12pt (six lines per inch).
const (
	pageW      = 612.0 // US Letter
	pageH      = 792.0
	marginTop  = 72.0
	marginLeft = 108.0 // 1.5in binding edge
	charW      = 7.2
	lineH      = 12.0
)

// indents are measured from the paper's left edge, per element type.
var indents = map[script.BlockType]float64{
	script.SceneHeading:  marginLeft,
	script.Action:        marginLeft,
	script.Character:     marginLeft + 158.4, // 2.2in past the margin
	script.Dialogue:      marginLeft + 72.0,
	script.Parenthetical: marginLeft + 115.2,
	script.Transition:    marginLeft + 288.0,
}

// PDFOptions controls PDF export behavior.
type PDFOptions struct {
	Title  string
	Author string
	// SkipPageNumbers suppresses the top-right page numbers.
	SkipPageNumbers bool
}

// WriteScriptPDF renders the document to outPath using the given pagination
// state and estimator configuration. Relative paths land in the project's
// exports folder.
func WriteScriptPDF(ph *storage.ProjectHandle, d script.Document, st paginate.State, cfg paginate.Config, outPath string, opt PDFOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if cfg.LinesPerPage <= 0 {
		cfg = paginate.DefaultConfig()
	}
	st = st.FilterValid(d)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetAutoPageBreak(false, 0)
	// Plain text streams; a screenplay is small and stays inspectable.
	pdf.SetCompression(false)
	pdf.SetFont("Courier", "", 12)

	w := &pageWriter{pdf: pdf, opt: opt}
	w.newPage()

	breaks := map[int]paginate.PageBreak{}
	for _, br := range st.Breaks {
		breaks[br.Position.Block] = br
	}

	for i, b := range d.Blocks {
		br, hasBreak := breaks[i]
		if hasBreak && br.Kind == paginate.KindNormal {
			w.newPage()
		}
		if i > 0 && !w.atPageTop {
			w.advance(spacingLines(b.Type))
		}
		switch {
		case hasBreak && br.Kind == paginate.KindDialogueSplit:
			w.writeSplitDialogue(b, br, cfg)
		default:
			w.writeBlock(b, cfg)
		}
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF is the one-call convenience: estimate pagination and write the
// PDF next to the project.
func ExportPDF(ph *storage.ProjectHandle, stored string, outPath string, opt PDFOptions) error {
	d := script.Parse(stored)
	cfg := paginate.DefaultConfig()
	st := paginate.NewEstimator(cfg, nil).Paginate(d)
	return WriteScriptPDF(ph, d, st, cfg, outPath, opt)
}

type pageWriter struct {
	pdf       *gofpdf.Fpdf
	opt       PDFOptions
	y         float64
	page      int
	atPageTop bool
}

func (w *pageWriter) newPage() {
	w.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: pageW, Ht: pageH})
	w.page++
	w.y = marginTop
	w.atPageTop = true
	if w.page > 1 && !w.opt.SkipPageNumbers {
		num := fmt.Sprintf("%d.", w.page)
		w.pdf.SetFont("Courier", "", 12)
		w.pdf.Text(pageW-72.0-charW*float64(len(num)), marginTop-24.0, num)
	}
}

func (w *pageWriter) advance(lines int) {
	w.y += float64(lines) * lineH
}

func spacingLines(t script.BlockType) int {
	switch t {
	case script.SceneHeading, script.Transition:
		return 2
	case script.Action, script.Character, script.DualDialogueContainer:
		return 1
	default:
		return 0
	}
}

func (w *pageWriter) writeBlock(b script.Block, cfg paginate.Config) {
	if b.Type == script.DualDialogueContainer {
		w.writeDual(b, cfg)
		return
	}
	x := indents[b.Type]
	if x == 0 {
		x = marginLeft
	}
	for _, line := range wrapRuns(displayRuns(b), colsFor(b.Type, cfg)) {
		w.writeLine(x, line)
	}
	w.atPageTop = false
}

// displayRuns reconstructs the printed form of a block: headings get their
// intro prefix and scene number back, everything else prints as stored.
func displayRuns(b script.Block) []script.Run {
	if b.Type != script.SceneHeading {
		return b.Runs
	}
	intro := b.Intro
	if intro == "" {
		intro = script.IntroInt
	}
	text := string(intro) + ". " + b.Text()
	if b.SceneNumber != "" {
		text += "  #" + b.SceneNumber + "#"
	}
	return []script.Run{{Text: text}}
}

// writeSplitDialogue renders a dialogue block whose pagination break falls
// mid-speech: the head with a MORE marker, a page turn, then a CONT'D cue and
// the tail.
func (w *pageWriter) writeSplitDialogue(b script.Block, br paginate.PageBreak, cfg paginate.Config) {
	head, tail := splitRuns(b.Runs, br.Position.Offset)
	x := indents[script.Dialogue]
	for _, line := range wrapRuns(head, cfg.DialogueCols) {
		w.writeLine(x, line)
	}
	w.writeLine(indents[script.Character], []seg{{text: paginate.MarkerMore}})
	w.newPage()
	if br.CharacterName != "" {
		cue := br.CharacterName + " " + paginate.MarkerContd
		w.writeLine(indents[script.Character], []seg{{text: cue}})
	}
	for _, line := range wrapRuns(tail, cfg.DialogueCols) {
		w.writeLine(x, line)
	}
	w.atPageTop = false
}

// writeDual lays the two columns side by side, left column at the dialogue
// indent and right column past the page center.
func (w *pageWriter) writeDual(b script.Block, cfg paginate.Config) {
	if len(b.Children) != 2 {
		return
	}
	cols := cfg.DialogueCols / 2
	if cols < 12 {
		cols = 12
	}
	startY := w.y
	bottom := startY
	xs := []float64{marginLeft, pageW/2 + 18.0}
	for ci, col := range b.Children {
		w.y = startY
		for _, child := range col.Children {
			for _, line := range wrapRuns(child.Runs, cols) {
				w.writeLine(xs[ci], line)
			}
		}
		if w.y > bottom {
			bottom = w.y
		}
	}
	w.y = bottom
	w.atPageTop = false
}

func (w *pageWriter) writeLine(x float64, line []seg) {
	w.y += lineH
	cx := x
	for _, s := range line {
		style := ""
		if s.marks&script.Bold != 0 {
			style += "B"
		}
		if s.marks&script.Italic != 0 {
			style += "I"
		}
		if s.marks&script.Underline != 0 {
			style += "U"
		}
		w.pdf.SetFont("Courier", style, 12)
		w.pdf.Text(cx, w.y, s.text)
		cx += charW * float64(len([]rune(s.text)))
	}
	w.atPageTop = false
}

func colsFor(t script.BlockType, cfg paginate.Config) int {
	switch t {
	case script.Dialogue, script.Parenthetical:
		return cfg.DialogueCols
	default:
		return cfg.ActionCols
	}
}

// seg is a styled fragment of one output line.
type seg struct {
	text  string
	marks script.Mark
}

// wrapRuns word-wraps styled runs to the column width, preserving marks
// across line boundaries. The monospace cell makes width arithmetic exact.
func wrapRuns(runs []script.Run, cols int) [][]seg {
	if cols <= 0 {
		cols = 61
	}
	text := make([]rune, 0, 64)
	marks := make([]script.Mark, 0, 64)
	for _, r := range runs {
		for _, ch := range r.Text {
			text = append(text, ch)
			marks = append(marks, r.Marks)
		}
	}
	if len(text) == 0 {
		return [][]seg{{{text: ""}}}
	}

	var lines [][]seg
	start := 0
	for start < len(text) {
		end := start + cols
		if end >= len(text) {
			end = len(text)
		} else {
			brk := -1
			for j := end; j > start; j-- {
				if text[j-1] == ' ' {
					brk = j
					break
				}
			}
			if brk > start {
				end = brk
			}
		}
		// Hard newlines inside the slice force an earlier break.
		for j := start; j < end; j++ {
			if text[j] == '\n' {
				end = j + 1
				break
			}
		}
		lines = append(lines, segsOf(text[start:end], marks[start:end]))
		start = end
	}
	return lines
}

func segsOf(text []rune, marks []script.Mark) []seg {
	var out []seg
	for i := 0; i < len(text); {
		j := i
		for j < len(text) && marks[j] == marks[i] {
			j++
		}
		out = append(out, seg{text: string(text[i:j]), marks: marks[i]})
		i = j
	}
	// Trailing whitespace only matters at the end of the line.
	for len(out) > 0 {
		last := strings.TrimRight(out[len(out)-1].text, " \n")
		if last != "" {
			out[len(out)-1].text = last
			break
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		out = []seg{{text: ""}}
	}
	return out
}

// splitRuns cuts a run sequence at a rune offset.
func splitRuns(runs []script.Run, off int) (head, tail []script.Run) {
	pos := 0
	for _, r := range runs {
		rr := []rune(r.Text)
		switch {
		case pos+len(rr) <= off:
			head = append(head, r)
		case pos >= off:
			tail = append(tail, r)
		default:
			cut := off - pos
			head = append(head, script.Run{Text: string(rr[:cut]), Marks: r.Marks})
			tail = append(tail, script.Run{Text: strings.TrimLeft(string(rr[cut:]), " "), Marks: r.Marks})
		}
		pos += len(rr)
	}
	return head, tail
}
