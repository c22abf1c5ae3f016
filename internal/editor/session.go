/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"sync"
	"time"

	"goscreenwriter/internal/autocomplete"
	"goscreenwriter/internal/backend"
	"goscreenwriter/internal/config"
	"goscreenwriter/internal/extract"
	"goscreenwriter/internal/log"
	"goscreenwriter/internal/paginate"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/telemetry"
	"goscreenwriter/internal/textlayout"
	"goscreenwriter/internal/undo"
)

// Callbacks are the session's outward boundaries. Nil entries are skipped.
// Every callback fires outside the session mutex, so handlers may call back
// into the Session. OnScenesChange arrives on the extraction timer goroutine
// and OnPagination may arrive on the engine delivery goroutine.
type Callbacks struct {
	OnUpdate             func(stored string)
	OnScenesChange       func(extract.Result)
	OnAutocompleteChange func(autocomplete.State)
	OnPagination         func(paginate.State)
}

// Session owns the live document and applies user actions as transactions.
// A mutex guards all state: the debounced extraction and the external layout
// engine deliver on their own goroutines, and those deliveries interleave
// with the editing thread. Documents are immutable values, so holding the
// lock only while swapping references keeps edits cheap.
type Session struct {
	cfg config.AppConfig
	cb  Callbacks

	mu  sync.Mutex
	doc script.Document
	sel script.Selection

	rules   Pipeline
	history *undo.Manager

	est    *paginate.Estimator
	pag    paginate.State
	engine *backend.Client

	index   autocomplete.Index
	acState autocomplete.State

	deb *extract.Debouncer
}

// NewSession parses the stored form (malformed structured input falls back to
// plain text, so this cannot fail) and primes pagination and autocomplete.
func NewSession(stored string, cfg config.AppConfig, cb Callbacks) *Session {
	m := textlayout.NewMeasurer(nil)
	s := &Session{
		cfg:   cfg,
		cb:    cb,
		doc:   script.Parse(stored),
		rules: Rules(),
		history: undo.NewManager(undo.Config{
			MinInterval: 250 * time.Millisecond,
		}),
		est: paginate.NewEstimator(paginate.Config{
			LinesPerPage:     cfg.Pagination.LinesPerPage,
			ActionCols:       cfg.Pagination.ActionCols,
			DialogueCols:     cfg.Pagination.DialogueCols,
			MinDialogueLines: cfg.Pagination.MinDialogueLines,
		}, m),
	}
	if cfg.Engine.BaseURL != "" {
		s.engine = backend.NewClient(cfg.Engine.BaseURL, cfg.Engine.Token, time.Duration(cfg.Engine.TimeoutMs)*time.Millisecond)
	}
	quiet := time.Duration(cfg.General.ExtractDebounceMs) * time.Millisecond
	if quiet <= 0 {
		quiet = 300 * time.Millisecond
	}
	s.deb = extract.NewDebouncer(quiet, s.Document, s.deliverExtraction)
	s.pag = s.est.Paginate(s.doc)
	s.acState = autocomplete.Resolve(s.doc, s.sel, s.index)
	return s
}

// Document returns the current immutable snapshot.
func (s *Session) Document() script.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Selection returns the current selection.
func (s *Session) Selection() script.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// StoredForm serializes the current document to its persistent JSON form.
func (s *Session) StoredForm() string {
	return script.Serialize(s.Document())
}

// Pagination returns the pagination decorations bounds-checked against the
// live document.
func (s *Session) Pagination() paginate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pag.FilterValid(s.doc)
}

// Autocomplete returns the last resolved autocomplete state.
func (s *Session) Autocomplete() autocomplete.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acState
}

// Select moves the selection without touching the document.
func (s *Session) Select(sel script.Selection) {
	s.mu.Lock()
	notes := s.commitLocked(Transaction{Doc: s.doc, Sel: sel.Clamp(s.doc)})
	s.mu.Unlock()
	runAll(notes)
}

// InsertText applies a keystroke or paste at the selection.
func (s *Session) InsertText(text string) {
	s.edit(func() Transaction { return InsertText(s.doc, s.sel, text) })
}

// DeleteBackward handles Backspace.
func (s *Session) DeleteBackward() {
	s.edit(func() Transaction { return DeleteBackward(s.doc, s.sel) })
}

// Tab, ShiftTab and Enter drive the element-type state machine.
func (s *Session) Tab() Transaction {
	return s.edit(func() Transaction { return Tab(s.doc, s.sel) })
}

func (s *Session) ShiftTab() Transaction {
	return s.edit(func() Transaction { return ShiftTab(s.doc, s.sel) })
}

func (s *Session) Enter() Transaction {
	return s.edit(func() Transaction { return Enter(s.doc, s.sel) })
}

// SetType is the Mod-1..Mod-6 direct shortcut.
func (s *Session) SetType(t script.BlockType) {
	s.edit(func() Transaction { return SetType(s.doc, s.sel, t) })
}

// ToggleMark is the Mod-B/I/U shortcut.
func (s *Session) ToggleMark(m script.Mark) {
	s.edit(func() Transaction { return ToggleMark(s.doc, s.sel, m) })
}

// Undo restores the previous snapshot, if any.
func (s *Session) Undo() bool {
	s.mu.Lock()
	snap, ok := s.history.Undo(undo.Snapshot{Doc: s.doc, Sel: s.sel, TS: time.Now()})
	if !ok {
		s.mu.Unlock()
		return false
	}
	notes := s.restoreLocked(snap)
	s.mu.Unlock()
	runAll(notes)
	return true
}

// Redo reverses the most recent Undo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	snap, ok := s.history.Redo(undo.Snapshot{Doc: s.doc, Sel: s.sel, TS: time.Now()})
	if !ok {
		s.mu.Unlock()
		return false
	}
	notes := s.restoreLocked(snap)
	s.mu.Unlock()
	runAll(notes)
	return true
}

func (s *Session) restoreLocked(snap undo.Snapshot) []func() {
	s.doc = script.Normalize(snap.Doc)
	s.sel = snap.Sel.Clamp(s.doc)
	notes := s.afterDocChangeLocked()
	return append(notes, s.refreshAutocompleteLocked()...)
}

// AcceptSuggestion applies an autocomplete pick. A stale acceptance (the user
// kept typing since the state was computed) is a silent no-op.
func (s *Session) AcceptSuggestion(sug autocomplete.Suggestion) bool {
	s.mu.Lock()
	nd, ok := autocomplete.Accept(s.doc, s.sel, s.acState, sug)
	if !ok {
		s.mu.Unlock()
		return false
	}
	end := s.acState.Anchor.Offset + len([]rune(sug.Value))
	notes := s.commitLocked(Transaction{
		Doc:        nd,
		Sel:        script.Caret(script.Position{Block: s.acState.Anchor.Block, Offset: end}),
		DocChanged: true,
	})
	s.mu.Unlock()
	runAll(notes)
	return true
}

// SetIndex replaces the autocomplete name index, normally from an extraction
// snapshot.
func (s *Session) SetIndex(idx autocomplete.Index) {
	s.mu.Lock()
	s.index = idx
	notes := s.refreshAutocompleteLocked()
	s.mu.Unlock()
	runAll(notes)
}

// edit runs the transaction builder and the rule pipeline under the lock,
// commits, and fires the collected notifications after the lock is released.
func (s *Session) edit(build func() Transaction) Transaction {
	s.mu.Lock()
	tx := s.rules.Run(build(), s.doc)
	notes := s.commitLocked(tx)
	s.mu.Unlock()
	runAll(notes)
	return tx
}

// commitLocked installs the transaction result and collects the derived-state
// notifications. Selection-only transactions skip the document side effects.
func (s *Session) commitLocked(tx Transaction) []func() {
	old, oldSel := s.doc, s.sel
	s.doc = script.Normalize(tx.Doc)
	s.sel = tx.Sel.Clamp(s.doc)
	var notes []func()
	if tx.DocChanged {
		s.history.Push(undo.Snapshot{Doc: old, Sel: oldSel, TS: time.Now()})
		notes = s.afterDocChangeLocked()
	}
	return append(notes, s.refreshAutocompleteLocked()...)
}

func (s *Session) afterDocChangeLocked() []func() {
	// Any edit invalidates an authoritative external result; display reverts
	// to the fallback estimator until a fresh result arrives.
	s.pag = s.est.Paginate(s.doc)
	var notes []func()
	if s.cb.OnPagination != nil {
		st := s.pag.FilterValid(s.doc)
		notes = append(notes, func() { s.cb.OnPagination(st) })
	}
	if s.cb.OnUpdate != nil {
		stored := script.Serialize(s.doc)
		notes = append(notes, func() { s.cb.OnUpdate(stored) })
	}
	s.deb.Trigger()
	return notes
}

func (s *Session) refreshAutocompleteLocked() []func() {
	st := autocomplete.Resolve(s.doc, s.sel, s.index)
	if statesEqual(st, s.acState) {
		return nil
	}
	s.acState = st
	if s.cb.OnAutocompleteChange == nil {
		return nil
	}
	return []func(){func() { s.cb.OnAutocompleteChange(st) }}
}

// deliverExtraction arrives on the debouncer's timer goroutine.
func (s *Session) deliverExtraction(r extract.Result) {
	s.mu.Lock()
	s.index = autocomplete.Index{
		Locations:  extract.Locations(r.Scenes),
		Characters: extract.Names(r.Characters),
	}
	notes := s.refreshAutocompleteLocked()
	s.mu.Unlock()
	if s.cb.OnScenesChange != nil {
		s.cb.OnScenesChange(r)
	}
	runAll(notes)
}

// RequestLayout submits the current document to the external engine and
// applies the result if the document has not changed in the meantime. The
// fallback state stays in place on any failure.
func (s *Session) RequestLayout(ctx context.Context) {
	if s.engine == nil {
		return
	}
	req := backend.NewRequest(s.Document(), backend.LayoutConfig{
		LinesPerPage:     s.cfg.Pagination.LinesPerPage,
		ActionCols:       s.cfg.Pagination.ActionCols,
		DialogueCols:     s.cfg.Pagination.DialogueCols,
		MinDialogueLines: s.cfg.Pagination.MinDialogueLines,
	})
	go func() {
		start := time.Now()
		res, err := s.engine.Paginate(ctx, req)
		if err != nil {
			log.L().Warn("layout engine request failed", "request_id", req.RequestID, "err", err)
			return
		}
		telemetry.Event("layout_result", map[string]any{"ms": time.Since(start).Milliseconds(), "pages": res.Stats.PageCount})
		s.ApplyLayout(res)
	}()
}

// ApplyLayout installs an external pagination result. Results computed for a
// superseded content version are discarded; a valid result replaces the
// decorations wholesale.
func (s *Session) ApplyLayout(res backend.LayoutResult) {
	st := backend.ToState(res)
	s.mu.Lock()
	if st.Version != paginate.ContentVersion(s.doc) {
		s.mu.Unlock()
		log.L().Debug("discarding stale layout result", "version", st.Version)
		return
	}
	s.pag = st
	var note func()
	if s.cb.OnPagination != nil {
		v := st.FilterValid(s.doc)
		note = func() { s.cb.OnPagination(v) }
	}
	s.mu.Unlock()
	if note != nil {
		note()
	}
}

// Flush forces a pending extraction, used before save and shutdown.
func (s *Session) Flush() { s.deb.Flush() }

// Close stops the background timers.
func (s *Session) Close() { s.deb.Stop() }

func runAll(notes []func()) {
	for _, n := range notes {
		n()
	}
}

func statesEqual(a, b autocomplete.State) bool {
	if a.Active != b.Active || a.Context != b.Context || a.Query != b.Query ||
		a.Anchor != b.Anchor || a.SelectedIndex != b.SelectedIndex ||
		len(a.Suggestions) != len(b.Suggestions) {
		return false
	}
	for i := range a.Suggestions {
		if a.Suggestions[i] != b.Suggestions[i] {
			return false
		}
	}
	return true
}
