/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout isolates text measurement behind deterministic
// interfaces. The pagination estimator relies on it for wrap counting against
// screenplay column widths; keeping measurement behind Provider means the
// estimator stays bit-identical across platforms and in tests.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image basicfont Face7x13: a fixed-advance face, which
// matches the screenplay convention of a monospace Courier grid and keeps
// measurement deterministic.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Measurer counts wrapped lines for a column measured in character cells.
// The column width is converted to device units through the provider's face
// so a proportional face still wraps sensibly.
type Measurer struct {
	Provider Provider
}

func NewMeasurer(p Provider) *Measurer {
	if p == nil {
		p = BasicProvider{}
	}
	return &Measurer{Provider: p}
}

// CellWidth returns the advance of a reference cell ("M") for the default face.
func (m *Measurer) CellWidth() float32 {
	face, _ := m.Provider.Resolve(FontSpec{})
	return advance(&font.Drawer{Face: face}, "M")
}

// WrapCount returns the number of lines text occupies when word-wrapped into
// a column of cols character cells. Hard newlines always break; a word longer
// than the column takes a line of its own. Empty text occupies one line.
func (m *Measurer) WrapCount(text string, cols int) int {
	if cols <= 0 {
		return 1
	}
	face, _ := m.Provider.Resolve(FontSpec{})
	d := &font.Drawer{Face: face}
	maxWidth := float32(cols) * m.CellWidth()

	total := 0
	for _, hard := range strings.Split(text, "\n") {
		total += wrapOne(d, hard, maxWidth)
	}
	if total == 0 {
		total = 1
	}
	return total
}

func wrapOne(d *font.Drawer, line string, maxWidth float32) int {
	words := strings.Fields(line)
	if len(words) == 0 {
		return 1
	}
	space := advance(d, " ")
	lines := 1
	var width float32
	for _, w := range words {
		ww := advance(d, w)
		if width > 0 && width+space+ww > maxWidth {
			lines++
			width = ww
			continue
		}
		if width > 0 {
			width += space
		}
		width += ww
	}
	return lines
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}
