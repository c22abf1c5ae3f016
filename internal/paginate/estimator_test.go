/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package paginate

import (
	"strings"
	"testing"

	"goscreenwriter/internal/script"
)

func testConfig() Config {
	return Config{LinesPerPage: 10, ActionCols: 60, DialogueCols: 35, MinDialogueLines: 2}
}

func action(text string) script.Block {
	return script.Block{Type: script.Action, Runs: []script.Run{{Text: text}}}
}

func cue(name string) script.Block {
	return script.Block{Type: script.Character, CharacterID: script.CharacterIDFor(name), Runs: []script.Run{{Text: name}}}
}

func dialogue(text string) script.Block {
	return script.Block{Type: script.Dialogue, Runs: []script.Run{{Text: text}}}
}

// nLines builds action text that occupies exactly n wrapped lines.
func nLines(n int) string {
	return strings.TrimSuffix(strings.Repeat("line\n", n), "\n")
}

func TestBreakBeforeOverflowingBlock(t *testing.T) {
	// Each short action block is 1 text line + 1 spacing = 2 lines; five fill
	// the 10-line page exactly, the sixth forces exactly one break before it.
	var blocks []script.Block
	for i := 0; i < 6; i++ {
		blocks = append(blocks, action("beat"))
	}
	st := NewEstimator(testConfig(), nil).Paginate(script.WithBlocks(blocks))
	if len(st.Breaks) != 1 {
		t.Fatalf("expected exactly one break, got %d", len(st.Breaks))
	}
	br := st.Breaks[0]
	if br.Position.Block != 5 || br.Kind != KindNormal || br.PageNumber != 2 {
		t.Fatalf("unexpected break: %+v", br)
	}
	if st.PageCount != 2 || st.Source != SourceFallback {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestDialogueBreakRelocatesToCue(t *testing.T) {
	// Page is full after the cue; the dialogue would get fewer than the
	// minimum lines, so cue and dialogue travel to the next page together.
	blocks := []script.Block{
		action(nLines(7)), // 8 lines with spacing
		cue("ALICE"),      // 2 lines -> page full at 10
		dialogue(nLines(4)),
	}
	st := NewEstimator(testConfig(), nil).Paginate(script.WithBlocks(blocks))
	if len(st.Breaks) != 1 {
		t.Fatalf("expected one break, got %+v", st.Breaks)
	}
	br := st.Breaks[0]
	if br.Position.Block != 1 || br.Kind != KindNormal {
		t.Fatalf("break should relocate to the cue block: %+v", br)
	}
}

func TestDialogueSplitRecordsContinuation(t *testing.T) {
	blocks := []script.Block{
		action(nLines(4)), // 5 lines
		cue("ALICE"),      // 2 lines -> used 7, 3 remaining
		dialogue(nLines(6)),
	}
	st := NewEstimator(testConfig(), nil).Paginate(script.WithBlocks(blocks))
	if len(st.Breaks) != 1 {
		t.Fatalf("expected one break, got %+v", st.Breaks)
	}
	br := st.Breaks[0]
	if br.Kind != KindDialogueSplit || br.Position.Block != 2 {
		t.Fatalf("expected dialogue split inside block 2: %+v", br)
	}
	if br.CharacterName != "ALICE" {
		t.Fatalf("split must carry the speaker, got %q", br.CharacterName)
	}
	if br.Position.Offset <= 0 {
		t.Fatalf("split offset must be inside the block, got %d", br.Position.Offset)
	}
}

func TestBareCueNeverEndsAPage(t *testing.T) {
	blocks := []script.Block{
		action(nLines(8)), // 9 lines
		cue("BOB"),        // would leave the cue alone at page bottom
		dialogue("Fine."),
	}
	st := NewEstimator(testConfig(), nil).Paginate(script.WithBlocks(blocks))
	if len(st.Breaks) != 1 {
		t.Fatalf("expected one break, got %+v", st.Breaks)
	}
	if st.Breaks[0].Position.Block != 1 {
		t.Fatalf("break must land before the cue: %+v", st.Breaks[0])
	}
}

func TestFilterValidDropsOutOfBounds(t *testing.T) {
	d := script.WithBlocks([]script.Block{action("x")})
	st := State{Breaks: []PageBreak{
		{Position: script.Position{Block: 0}, PageNumber: 2},
		{Position: script.Position{Block: 9}, PageNumber: 3},
		{Position: script.Position{Block: 0, Offset: 999}, PageNumber: 4},
	}}
	got := st.FilterValid(d)
	if len(got.Breaks) != 1 || got.Breaks[0].PageNumber != 2 {
		t.Fatalf("expected only the in-bounds break to survive: %+v", got.Breaks)
	}
}

func TestContentVersionTracksContent(t *testing.T) {
	d := script.WithBlocks([]script.Block{action("one")})
	if ContentVersion(d) != ContentVersion(d) {
		t.Fatalf("version must be deterministic")
	}
	d2 := script.WithBlocks([]script.Block{action("two")})
	if ContentVersion(d) == ContentVersion(d2) {
		t.Fatalf("different content must produce different versions")
	}
}
