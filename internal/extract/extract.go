/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package extract builds the derived scene and character read model. The
// rebuild is a plain scan over the document; scheduling (debounce, superseding
// stale runs) lives in Debouncer so the scan itself stays pure and testable.
package extract

import (
	"fmt"
	"hash/fnv"
	"sort"

	"goscreenwriter/internal/script"
)

// SceneSummary is one scene heading projected for navigation and suggestion
// seeding.
type SceneSummary struct {
	ID          string
	Intro       script.IntroType
	Location    string
	TimeOfDay   string
	SceneNumber string
	Position    int // block index in the live document
}

// CharacterSummary aggregates one speaking character.
type CharacterSummary struct {
	ID            string
	Name          string
	DialogueCount int
}

// Result is a full-replacement snapshot, never an incremental diff.
type Result struct {
	Scenes     []SceneSummary
	Characters []CharacterSummary
}

// Build scans the document once for scenes and once for characters.
func Build(d script.Document) Result {
	return Result{Scenes: Scenes(d), Characters: Characters(d)}
}

// Scenes lists scene headings in document order. Identifiers combine the
// structural position with a short content hash, so they are stable across
// rebuilds of an unchanged document and change when content moves.
func Scenes(d script.Document) []SceneSummary {
	var out []SceneSummary
	for i, b := range d.Blocks {
		if b.Type != script.SceneHeading {
			continue
		}
		out = append(out, SceneSummary{
			ID:          sceneID(i, b),
			Intro:       b.Intro,
			Location:    b.Location,
			TimeOfDay:   b.TimeOfDay,
			SceneNumber: b.SceneNumber,
			Position:    i,
		})
	}
	return out
}

func sceneID(pos int, b script.Block) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(string(b.Intro)))
	_, _ = h.Write([]byte(b.Text()))
	return fmt.Sprintf("s%d-%08x", pos, h.Sum32())
}

// Characters aggregates speakers by normalized identifier, counting their
// dialogue blocks. Sorted by descending count; ties keep first-appearance
// order.
func Characters(d script.Document) []CharacterSummary {
	type acc struct {
		summary CharacterSummary
		first   int
	}
	byID := map[string]*acc{}
	order := 0

	var walk func(blocks []script.Block)
	walk = func(blocks []script.Block) {
		for _, b := range blocks {
			if len(b.Children) > 0 {
				walk(b.Children)
				continue
			}
			switch b.Type {
			case script.Character:
				name, _ := script.SplitCue(b.Text())
				id := b.CharacterID
				if id == "" {
					id = script.CharacterIDFor(name)
				}
				if id == "" {
					continue
				}
				if _, ok := byID[id]; !ok {
					byID[id] = &acc{summary: CharacterSummary{ID: id, Name: name}, first: order}
					order++
				}
			case script.Dialogue:
				if b.CharacterID == "" {
					continue
				}
				a, ok := byID[b.CharacterID]
				if !ok {
					a = &acc{summary: CharacterSummary{ID: b.CharacterID, Name: b.CharacterID}, first: order}
					order++
					byID[b.CharacterID] = a
				}
				a.summary.DialogueCount++
			}
		}
	}
	walk(d.Blocks)

	accs := make([]*acc, 0, len(byID))
	for _, a := range byID {
		accs = append(accs, a)
	}
	sort.SliceStable(accs, func(i, j int) bool {
		if accs[i].summary.DialogueCount != accs[j].summary.DialogueCount {
			return accs[i].summary.DialogueCount > accs[j].summary.DialogueCount
		}
		return accs[i].first < accs[j].first
	})
	out := make([]CharacterSummary, 0, len(accs))
	for _, a := range accs {
		out = append(out, a.summary)
	}
	return out
}

// Locations returns the distinct scene locations in first-appearance order,
// feeding the autocomplete index.
func Locations(scenes []SceneSummary) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range scenes {
		if s.Location == "" || seen[s.Location] {
			continue
		}
		seen[s.Location] = true
		out = append(out, s.Location)
	}
	return out
}

// Names returns the character display names in summary order.
func Names(chars []CharacterSummary) []string {
	out := make([]string, 0, len(chars))
	for _, c := range chars {
		out = append(out, c.Name)
	}
	return out
}
