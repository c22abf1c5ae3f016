/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package paginate computes page boundaries for a screenplay document. The
// estimator here is the fallback used until an authoritative result arrives
// from the external layout engine; both produce the same State shape so the
// display layer never cares which one it is showing.
package paginate

import (
	"fmt"
	"hash/fnv"

	"goscreenwriter/internal/script"
)

// Source tells which engine produced a State.
type Source string

const (
	SourceFallback Source = "fallback"
	SourceExternal Source = "external"
)

// BreakKind distinguishes a plain boundary from a split inside dialogue.
type BreakKind string

const (
	KindNormal        BreakKind = "normal"
	KindDialogueSplit BreakKind = "dialogue-split"
)

// Continuation markers placed around a dialogue split.
const (
	MarkerMore  = "(MORE)"
	MarkerContd = "(CONT'D)"
)

// PageBreak is a derived decoration: the position where a new page starts.
// Positions are {block, offset} pairs against the live document and are never
// cached across a document-changing transaction.
type PageBreak struct {
	Position      script.Position
	PageNumber    int // number of the page that starts at Position (1-based; page 1 has no break)
	PageID        string
	Kind          BreakKind
	CharacterName string // dialogue-split only: whose speech continues
}

// State is the derived pagination result, replaced wholesale on every
// recomputation or authoritative delivery.
type State struct {
	Breaks    []PageBreak
	PageCount int
	Source    Source
	Version   uint64 // content version of the document this was computed for
}

// ContentVersion fingerprints document content. Responses from the external
// engine are gated on it: a result computed for another version is stale and
// discarded on arrival.
func ContentVersion(d script.Document) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(script.Serialize(d)))
	return h.Sum64()
}

// FilterValid drops breaks whose positions fall outside the live document.
// Transiently possible between an async result and further edits; recovery is
// to drop the decoration, never to fail.
func (s State) FilterValid(d script.Document) State {
	out := s
	out.Breaks = nil
	for _, b := range s.Breaks {
		if b.Position.Block < 0 || b.Position.Block >= len(d.Blocks) {
			continue
		}
		if b.Position.Offset < 0 || b.Position.Offset > len([]rune(d.Blocks[b.Position.Block].Text())) {
			continue
		}
		out.Breaks = append(out.Breaks, b)
	}
	return out
}

func pageID(n int) string { return fmt.Sprintf("p%d", n) }
