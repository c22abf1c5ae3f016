/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package autocomplete derives suggestion context from the cursor position
// and a live index of known character and location names. Resolve is a pure
// function over (document, selection, index); the returned State is replaced
// wholesale on every transaction, never patched.
package autocomplete

import (
	"strings"

	"goscreenwriter/internal/script"
)

// Context classifies what kind of suggestion is relevant at the cursor.
type Context string

const (
	CtxNone        Context = "none"
	CtxScenePrefix Context = "scene-prefix"
	CtxLocation    Context = "location"
	CtxTimeOfDay   Context = "time-of-day"
	CtxCharacter   Context = "character"
	CtxExtension   Context = "extension"
	CtxTransition  Context = "transition"
)

// maxNameSuggestions caps index-backed candidate lists.
const maxNameSuggestions = 5

// Index carries the known names the resolver draws candidates from. It is the
// debounced output of scene/character extraction.
type Index struct {
	Locations  []string
	Characters []string
}

// Suggestion is one accepted-as-is candidate value.
type Suggestion struct {
	Value string
}

// State is the derived autocomplete state for the current selection.
type State struct {
	Active        bool
	Context       Context
	Query         string
	Anchor        script.Position // word start the query is anchored at
	Suggestions   []Suggestion
	SelectedIndex int
}

// none is the hidden-panel state.
func none() State { return State{Context: CtxNone} }

var scenePrefixPartial = map[string]bool{
	"": true, "I": true, "IN": true, "INT": true, "E": true, "EX": true, "EXT": true,
}

// Resolve classifies the cursor context and computes candidates.
func Resolve(d script.Document, sel script.Selection, idx Index) State {
	if !sel.IsCaret() {
		return none()
	}
	sel = sel.Clamp(d)
	pos := sel.Head
	b := d.Blocks[pos.Block]
	prefix := string([]rune(b.Text())[:pos.Offset])

	switch b.Type {
	case script.SceneHeading:
		return resolveHeading(b, pos, prefix, idx)
	case script.Action:
		if scenePrefixPartial[strings.ToUpper(prefix)] {
			return filtered(CtxScenePrefix, prefix, script.Position{Block: pos.Block}, script.ScenePrefixes, prefixMatch)
		}
		return none()
	case script.Character:
		return resolveCharacter(pos, prefix, idx)
	case script.Transition:
		return filtered(CtxTransition, prefix, script.Position{Block: pos.Block}, script.TransitionKeywords, substringMatch)
	default:
		return none()
	}
}

func resolveHeading(b script.Block, pos script.Position, prefix string, idx Index) State {
	if scenePrefixPartial[strings.ToUpper(prefix)] && b.Location == "" {
		return filtered(CtxScenePrefix, prefix, script.Position{Block: pos.Block}, script.ScenePrefixes, prefixMatch)
	}
	if i := strings.LastIndex(prefix, script.TimeSeparator); i >= 0 {
		q := prefix[i+len(script.TimeSeparator):]
		anchor := script.Position{Block: pos.Block, Offset: len([]rune(prefix[:i+len(script.TimeSeparator)]))}
		return filtered(CtxTimeOfDay, q, anchor, script.TimesOfDay, prefixMatch)
	}
	return filtered(CtxLocation, prefix, script.Position{Block: pos.Block}, idx.Locations, substringMatch)
}

func resolveCharacter(pos script.Position, prefix string, idx Index) State {
	if strings.Contains(prefix, "(") {
		return none()
	}
	// A space after a name, or a full known name, ends the cue; what follows
	// is an extension query. Bare partial text is still a name being typed,
	// all-caps or not, since cues are entered in upper case.
	sp := strings.LastIndex(prefix, " ")
	cueComplete := (sp >= 0 && strings.TrimSpace(prefix[:sp]) != "") || hasName(idx.Characters, strings.TrimSpace(prefix))
	if cueComplete {
		start := sp + 1
		q := prefix[start:]
		if start == 0 {
			// the whole prefix is the name; extensions anchor after it
			start = len(prefix)
			q = ""
		}
		anchor := script.Position{Block: pos.Block, Offset: len([]rune(prefix[:start]))}
		if st := filtered(CtxExtension, q, anchor, script.Extensions, prefixMatch); st.Active {
			return st
		}
	}
	return filtered(CtxCharacter, prefix, script.Position{Block: pos.Block}, idx.Characters, prefixMatch)
}

func hasName(names []string, s string) bool {
	if s == "" {
		return false
	}
	for _, n := range names {
		if strings.EqualFold(n, s) {
			return true
		}
	}
	return false
}

func filtered(ctx Context, query string, anchor script.Position, vocab []string, match func(candidate, query string) bool) State {
	st := State{Context: ctx, Query: query, Anchor: anchor}
	for _, v := range vocab {
		if match(v, query) {
			st.Suggestions = append(st.Suggestions, Suggestion{Value: v})
		}
		if len(st.Suggestions) == maxNameSuggestions && (ctx == CtxLocation || ctx == CtxCharacter) {
			break
		}
	}
	st.Active = len(st.Suggestions) > 0
	if !st.Active {
		return none()
	}
	return st
}

func prefixMatch(candidate, query string) bool {
	return strings.HasPrefix(strings.ToUpper(candidate), strings.ToUpper(strings.TrimSpace(query)))
}

func substringMatch(candidate, query string) bool {
	return strings.Contains(strings.ToUpper(candidate), strings.ToUpper(strings.TrimSpace(query)))
}

// Accept applies suggestion s to the document. The span [Anchor, Anchor+len(Query))
// must still equal the query that produced the state and the caret must still
// sit at its end; if the user kept typing between suggestion computation and
// acceptance, the acceptance is stale and Accept returns the document
// unchanged with ok=false.
func Accept(d script.Document, sel script.Selection, st State, s Suggestion) (script.Document, bool) {
	if !st.Active || !sel.IsCaret() || st.Anchor.Block < 0 || st.Anchor.Block >= len(d.Blocks) {
		return d, false
	}
	b := d.Blocks[st.Anchor.Block]
	text := []rune(b.Text())
	q := []rune(st.Query)
	start := st.Anchor.Offset
	end := start + len(q)
	if start < 0 || end > len(text) || string(text[start:end]) != st.Query {
		return d, false // stale anchor: reject as a no-op
	}
	if sel.Head.Block != st.Anchor.Block || sel.Head.Offset != end {
		return d, false // caret moved on: the query no longer reflects it
	}
	nb := b
	// splice through the run sequence so marks elsewhere in the block survive
	nb.Runs = script.SpliceRuns(b.Runs, start, end, s.Value)
	return d.ReplaceBlock(st.Anchor.Block, nb), true
}
