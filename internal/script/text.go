/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"regexp"
	"strings"
)

// Plain-text stored form. It follows common screenplay text conventions:
// scene headings start with INT./EXT., character cues are ALL-CAPS lines
// followed directly by their dialogue, parentheticals sit in (parens) inside
// a dialogue group, transitions are ALL-CAPS lines ending in "TO:" (plus the
// FADE IN:/FADE OUT. forms), and everything else is action. The form is lossy
// with respect to block attributes; ParseText reconstructs them heuristically.

// TimeSeparator splits location from time-of-day inside a scene heading.
const TimeSeparator = " - "

var (
	reScenePrefix = regexp.MustCompile(`(?i)^(INT\./EXT\.|INT/EXT\.|I/E\.|INT\.|EXT\.)\s*`)
	reSceneNumber = regexp.MustCompile(`\s*#([^#]+)#\s*$`)
	reCueLine     = regexp.MustCompile(`^([^a-z()]{1,40}?)(?:\s*\(([^)]+)\))?\s*(\^)?$`)
	reTransition  = regexp.MustCompile(`^[^a-z]+TO:$|^FADE (IN:|OUT\.)$`)
)

// ParseText reconstructs a Document from the plain-text stored form. It never
// fails: unrecognized lines land in Action blocks so no content is lost.
func ParseText(input string) Document {
	var blocks []Block
	lastCueID := "" // most recent Character cue awaiting dialogue

	appendBlock := func(b Block) {
		blocks = append(blocks, b)
		if b.Type == Character {
			lastCueID = b.CharacterID
		} else if b.Type != Dialogue && b.Type != Parenthetical {
			lastCueID = ""
		}
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}

	inGroup := false // inside a Character/Parenthetical/Dialogue run
	for li, line := range lines {
		trim := strings.TrimSpace(line)
		if trim == "" {
			inGroup = false
			continue
		}

		// Scene heading
		if m := reScenePrefix.FindStringSubmatch(trim); m != nil {
			rest := strings.TrimSpace(trim[len(m[0]):])
			b := Block{Type: SceneHeading, Intro: introFromPrefix(m[1]), TimeOfDay: "DAY"}
			if nm := reSceneNumber.FindStringSubmatch(rest); nm != nil {
				b.SceneNumber = strings.TrimSpace(nm[1])
				rest = strings.TrimSpace(rest[:len(rest)-len(nm[0])])
			}
			b.Runs = parseEmphasis(rest)
			b.Location, b.TimeOfDay = SplitHeading(rest)
			appendBlock(b)
			inGroup = false
			continue
		}

		// Transition
		if reTransition.MatchString(trim) {
			appendBlock(Block{Type: Transition, Runs: parseEmphasis(trim)})
			inGroup = false
			continue
		}

		// Parenthetical inside a dialogue group
		if inGroup && strings.HasPrefix(trim, "(") && strings.HasSuffix(trim, ")") {
			appendBlock(Block{Type: Parenthetical, Runs: parseEmphasis(trim)})
			continue
		}

		// Dialogue following a cue or parenthetical
		if inGroup {
			if n := len(blocks); n > 0 && blocks[n-1].Type == Dialogue {
				// wrapped dialogue continues the open block
				prev := blocks[n-1]
				blocks[n-1] = prev.WithText(prev.Text() + "\n" + trim)
				continue
			}
			appendBlock(Block{Type: Dialogue, Runs: parseEmphasis(trim), CharacterID: lastCueID})
			continue
		}

		// Character cue: ALL-CAPS line with something to say next
		if isCueLine(trim) && li+1 < len(lines) && strings.TrimSpace(lines[li+1]) != "" {
			b := cueFromLine(trim)
			appendBlock(b)
			inGroup = true
			continue
		}

		// Action; adjacent action lines inside a paragraph share a block
		if n := len(blocks); n > 0 && blocks[n-1].Type == Action && !strings.Contains(blocks[n-1].Text(), "\n\n") {
			// single newline joins wrapped action text
			prev := blocks[n-1]
			blocks[n-1] = prev.WithText(prev.Text() + "\n" + trim)
			continue
		}
		appendBlock(Block{Type: Action, Runs: parseEmphasis(trim)})
	}

	return Normalize(Document{Blocks: foldDualDialogue(blocks)})
}

// SerializeText renders the Document in the canonical plain-text form.
func SerializeText(d Document) string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 && !joinsPrevious(d.Blocks[i-1], b) {
			sb.WriteString("\n")
		}
		writeBlockText(&sb, b, false)
	}
	return sb.String()
}

func writeBlockText(sb *strings.Builder, b Block, dualSecond bool) {
	switch b.Type {
	case SceneHeading:
		intro := b.Intro
		if intro == "" {
			intro = IntroInt
		}
		sb.WriteString(string(intro))
		sb.WriteString(". ")
		sb.WriteString(renderEmphasis(b.Runs))
		if b.SceneNumber != "" {
			sb.WriteString(" #")
			sb.WriteString(b.SceneNumber)
			sb.WriteString("#")
		}
		sb.WriteString("\n")
	case Character:
		sb.WriteString(renderEmphasis(b.Runs))
		if dualSecond {
			sb.WriteString(" ^")
		}
		sb.WriteString("\n")
	case DualDialogueContainer:
		for ci, col := range b.Children {
			if ci > 0 {
				sb.WriteString("\n")
			}
			for _, cb := range col.Children {
				writeBlockText(sb, cb, ci == 1 && cb.Type == Character)
			}
		}
	default:
		sb.WriteString(renderEmphasis(b.Runs))
		sb.WriteString("\n")
	}
}

// joinsPrevious reports whether b continues prev's dialogue group (no blank
// line between them in the text form).
func joinsPrevious(prev, b Block) bool {
	switch b.Type {
	case Dialogue, Parenthetical:
		return prev.Type == Character || prev.Type == Dialogue || prev.Type == Parenthetical
	}
	return false
}

// SplitHeading separates a scene heading body into location and time-of-day.
func SplitHeading(text string) (location, timeOfDay string) {
	if i := strings.LastIndex(text, TimeSeparator); i >= 0 {
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+len(TimeSeparator):])
	}
	return strings.TrimSpace(text), ""
}

func introFromPrefix(p string) IntroType {
	switch strings.ToUpper(strings.TrimRight(p, ". ")) {
	case "EXT":
		return IntroExt
	case "INT/EXT", "INT./EXT", "I/E":
		return IntroIntExt
	default:
		return IntroInt
	}
}

// isCueLine reports whether a paragraph-initial line looks like a character
// cue: upper-case, short, and not a heading or transition.
func isCueLine(line string) bool {
	if strings.ToUpper(line) != line {
		return false
	}
	m := reCueLine.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	name := strings.TrimSpace(m[1])
	if name == "" || !strings.ContainsFunc(name, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		return false
	}
	return true
}

func cueFromLine(line string) Block {
	b := Block{Type: Character, Runs: parseEmphasis(strings.TrimSuffix(strings.TrimSpace(line), " ^"))}
	if strings.HasSuffix(line, "^") {
		b.IsDual = true
	}
	name, ext := SplitCue(b.Text())
	b.CharacterID = CharacterIDFor(name)
	b.Extension = ext
	return b
}

// SplitCue separates a character cue into its name and extension ("V.O.",
// "CONT'D", ...). The extension parens are not part of the returned value.
func SplitCue(text string) (name, extension string) {
	t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "^"))
	if i := strings.LastIndex(t, "("); i >= 0 && strings.HasSuffix(t, ")") {
		return strings.TrimSpace(t[:i]), strings.TrimSpace(t[i+1 : len(t)-1])
	}
	return t, ""
}

// CharacterIDFor normalizes a display name into a stable identifier.
func CharacterIDFor(name string) string {
	f := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(f) == 0 {
		return ""
	}
	return strings.Join(f, "-")
}

// foldDualDialogue pairs a dual-marked cue group with the group before it into
// a DualDialogueContainer with two column children.
func foldDualDialogue(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for i := 0; i < len(blocks); i++ {
		b := blocks[i]
		if b.Type != Character || !b.IsDual {
			out = append(out, b)
			continue
		}
		// right column: this cue plus its group
		right := []Block{b}
		for i+1 < len(blocks) && (blocks[i+1].Type == Dialogue || blocks[i+1].Type == Parenthetical) {
			i++
			right = append(right, blocks[i])
		}
		// left column: trailing cue group already emitted
		start := len(out)
		for start > 0 && LegalInColumn(out[start-1].Type) {
			start--
			if out[start].Type == Character {
				break
			}
		}
		if start == len(out) || out[start].Type != Character {
			// no partner group; keep as a plain cue
			out = append(out, right...)
			continue
		}
		left := append([]Block(nil), out[start:]...)
		out = out[:start]
		out = append(out, Block{Type: DualDialogueContainer, Children: []Block{
			{Type: DualDialogueColumn, Children: left},
			{Type: DualDialogueColumn, Children: right},
		}})
	}
	return out
}
