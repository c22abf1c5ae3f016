/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package extract

import (
	"sync"
	"time"

	"goscreenwriter/internal/script"
)

// Debouncer coalesces rebuild requests: each Trigger restarts the quiet
// period, and when it elapses the fetch callback supplies the current
// document, so intermediate revisions are never scanned. Stop discards any
// pending rebuild.
type Debouncer struct {
	quiet  time.Duration
	fetch  func() script.Document
	notify func(Result)

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer wires a rebuild pipeline. fetch must be safe to call from the
// timer goroutine; notify receives the finished snapshot on that goroutine.
func NewDebouncer(quiet time.Duration, fetch func() script.Document, notify func(Result)) *Debouncer {
	return &Debouncer{quiet: quiet, fetch: fetch, notify: notify}
}

// Trigger records a document change. The rebuild fires once the quiet period
// passes without another Trigger.
func (db *Debouncer) Trigger() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.quiet, db.fire)
}

func (db *Debouncer) fire() {
	db.mu.Lock()
	db.timer = nil
	db.mu.Unlock()
	db.notify(Build(db.fetch()))
}

// Flush runs any pending rebuild immediately. Used on save and shutdown so
// the persisted index is never behind the document.
func (db *Debouncer) Flush() {
	db.mu.Lock()
	pending := db.timer != nil
	if pending {
		db.timer.Stop()
		db.timer = nil
	}
	db.mu.Unlock()
	if pending {
		db.notify(Build(db.fetch()))
	}
}

// Stop cancels without rebuilding.
func (db *Debouncer) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
