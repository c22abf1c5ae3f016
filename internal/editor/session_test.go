/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"
	"time"

	"goscreenwriter/internal/autocomplete"
	"goscreenwriter/internal/backend"
	"goscreenwriter/internal/config"
	"goscreenwriter/internal/extract"
	"goscreenwriter/internal/paginate"
	"goscreenwriter/internal/script"
)

func newTestSession(t *testing.T, stored string, cb Callbacks) *Session {
	t.Helper()
	cfg := config.Defaults()
	cfg.General.ExtractDebounceMs = 10
	s := NewSession(stored, cfg, cb)
	t.Cleanup(s.Close)
	return s
}

func TestSessionStartsFromStoredForm(t *testing.T) {
	s := newTestSession(t, "INT. LAB - DAY\n\nBeakers bubble.", Callbacks{})
	d := s.Document()
	if len(d.Blocks) != 2 || d.Blocks[0].Type != script.SceneHeading {
		t.Fatalf("blocks = %+v", d.Blocks)
	}
}

func TestSessionMalformedStoredFormFallsBack(t *testing.T) {
	s := newTestSession(t, `{"not": "a document"`, Callbacks{})
	if len(s.Document().Blocks) == 0 {
		t.Fatal("document invalid after malformed input")
	}
}

func TestSessionCommitFiresOnUpdate(t *testing.T) {
	var stored []string
	s := newTestSession(t, "", Callbacks{OnUpdate: func(f string) { stored = append(stored, f) }})
	s.InsertText("Something happens.")
	if len(stored) != 1 {
		t.Fatalf("OnUpdate fired %d times, want 1", len(stored))
	}
	got := script.Parse(stored[0])
	if got.Blocks[0].Text() != "Something happens." {
		t.Fatalf("stored form = %q", stored[0])
	}
}

func TestSessionSelectionMoveDoesNotFireOnUpdate(t *testing.T) {
	fired := 0
	s := newTestSession(t, "Hello there.", Callbacks{OnUpdate: func(string) { fired++ }})
	s.Select(caretAt(0, 3))
	if fired != 0 {
		t.Fatalf("OnUpdate fired %d times on selection move", fired)
	}
}

func TestSessionUndoRedo(t *testing.T) {
	s := newTestSession(t, "", Callbacks{})
	s.InsertText("INT. ")
	if s.Document().Blocks[0].Type != script.SceneHeading {
		t.Fatalf("trigger did not fire: %+v", s.Document().Blocks[0])
	}
	if !s.Undo() {
		t.Fatal("undo failed")
	}
	if got := s.Document().Blocks[0]; got.Type != script.Action || got.Text() != "" {
		t.Fatalf("after undo: %+v", got)
	}
	if !s.Redo() {
		t.Fatal("redo failed")
	}
	if s.Document().Blocks[0].Type != script.SceneHeading {
		t.Fatalf("after redo: %+v", s.Document().Blocks[0])
	}
	if s.Undo(); s.Undo() {
		t.Fatal("second undo succeeded past history bottom")
	}
}

func TestSessionPaginationRevertsToFallbackOnEdit(t *testing.T) {
	s := newTestSession(t, "INT. LAB - DAY\n\nBeakers.", Callbacks{})
	res := backend.LayoutResult{
		Version: paginate.ContentVersion(s.Document()),
		Pages: []backend.LayoutPage{
			{Identifier: "a", Elements: []int{0}},
			{Identifier: "b", Elements: []int{1}, StartBlock: 1},
		},
	}
	s.ApplyLayout(res)
	if s.Pagination().Source != paginate.SourceExternal {
		t.Fatalf("source = %v, want external", s.Pagination().Source)
	}
	s.InsertText("x")
	if s.Pagination().Source != paginate.SourceFallback {
		t.Fatalf("source after edit = %v, want fallback", s.Pagination().Source)
	}
}

func TestSessionDiscardsStaleLayout(t *testing.T) {
	s := newTestSession(t, "INT. LAB - DAY", Callbacks{})
	res := backend.LayoutResult{
		Version: paginate.ContentVersion(s.Document()) + 1,
		Pages:   []backend.LayoutPage{{Identifier: "a"}, {Identifier: "b", StartBlock: 9}},
	}
	s.ApplyLayout(res)
	if s.Pagination().Source != paginate.SourceFallback {
		t.Fatalf("stale result was applied: %v", s.Pagination().Source)
	}
}

func TestSessionExtractionFeedsAutocompleteIndex(t *testing.T) {
	done := make(chan extract.Result, 4)
	s := newTestSession(t, "ALICE\nPass the salt.", Callbacks{
		OnScenesChange: func(r extract.Result) { done <- r },
	})
	s.InsertText("")

	var r extract.Result
	select {
	case r = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("extraction never fired")
	}
	if len(r.Characters) != 1 || r.Characters[0].ID != "alice" {
		t.Fatalf("characters = %+v", r.Characters)
	}

	// The index now knows ALICE; resolving in a fresh cue block suggests her.
	d := docOf(script.Block{Type: script.Character, Runs: []script.Run{{Text: "AL"}}})
	st := autocomplete.Resolve(d, caretAt(0, 2), autocomplete.Index{Characters: []string{"ALICE"}})
	if !st.Active || len(st.Suggestions) != 1 || st.Suggestions[0].Value != "ALICE" {
		t.Fatalf("state = %+v", st)
	}
}

func TestSessionConcurrentAsyncDeliveries(t *testing.T) {
	cfg := config.Defaults()
	cfg.General.ExtractDebounceMs = 1
	s := NewSession("", cfg, Callbacks{OnScenesChange: func(extract.Result) {}})
	t.Cleanup(s.Close)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			_ = s.Document()
			_ = s.Pagination()
			_ = s.Autocomplete()
			s.ApplyLayout(backend.LayoutResult{Version: 1}) // stale, discarded
		}
	}()
	for i := 0; i < 300; i++ {
		s.InsertText("a")
		if i%25 == 0 {
			s.Flush()
		}
	}
	<-done
	s.Flush()
	if got := len([]rune(s.Document().Blocks[0].Text())); got != 300 {
		t.Fatalf("document text length = %d, want 300", got)
	}
	if s.Pagination().Source != paginate.SourceFallback {
		t.Fatalf("stale layout was applied: %v", s.Pagination().Source)
	}
}

func TestSessionEngineClientCarriesToken(t *testing.T) {
	cfg := config.Defaults()
	cfg.Engine.BaseURL = "http://localhost:9999"
	cfg.Engine.Token = "keyring-token"
	s := NewSession("", cfg, Callbacks{})
	t.Cleanup(s.Close)
	if s.engine == nil || s.engine.Token != "keyring-token" {
		t.Fatalf("engine client token not threaded: %+v", s.engine)
	}
}
