/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps a bounded history of document snapshots. Because the
// document is an immutable value, a snapshot is just a reference plus the
// selection to restore; no diffing or blob encoding is involved.
package undo

import (
	"sync"
	"time"

	"goscreenwriter/internal/script"
)

// Snapshot is one restorable editor state. Cost approximates memory held by
// the snapshot's text, used for the history cap.
type Snapshot struct {
	Doc script.Document
	Sel script.Selection
	TS  time.Time
}

func (s Snapshot) cost() int {
	n := 0
	for _, b := range s.Doc.Blocks {
		n += len(b.Text())
	}
	return n + 64
}

// Config controls depth and memory caps and coalescing behavior.
type Config struct {
	// MaxCost is a soft byte cap; the oldest entries are pruned past it.
	MaxCost int
	// MaxDepth limits the undo stack length (0 means unlimited).
	MaxDepth int
	// MinInterval coalesces snapshots pushed within the interval, replacing
	// the previous entry so rapid typing collapses into one undo step.
	MinInterval time.Duration
}

// Manager is an in-memory undo/redo stack. Safe for concurrent use.
type Manager struct {
	cfg Config

	mu        sync.Mutex
	undo      []Snapshot
	redo      []Snapshot
	totalCost int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg}
}

// Push records the state to return to on undo. Pushing within MinInterval of
// the previous entry replaces it instead of growing the stack; the original
// first-of-burst state is kept so undo jumps over the whole burst. Any push
// clears the redo stack.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.undo); n > 0 {
		last := m.undo[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			m.redo = nil
			return
		}
	}
	m.undo = append(m.undo, s)
	m.totalCost += s.cost()
	m.redo = nil
	m.enforceCapsLocked()
}

// Undo pops the most recent snapshot, moving current onto the redo stack.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.undo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := m.undo[n-1]
	m.undo = m.undo[:n-1]
	m.totalCost -= s.cost()
	m.redo = append(m.redo, current)
	return s, true
}

// Redo reverses the most recent Undo.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.redo)
	if n == 0 {
		return Snapshot{}, false
	}
	s := m.redo[n-1]
	m.redo = m.redo[:n-1]
	m.undo = append(m.undo, current)
	m.totalCost += current.cost()
	m.enforceCapsLocked()
	return s, true
}

// Clear drops both stacks, e.g. when a new document is loaded.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
	m.totalCost = 0
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (undoDepth, redoDepth, totalCost int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo), m.totalCost
}

func (m *Manager) enforceCapsLocked() {
	if m.cfg.MaxDepth > 0 {
		for len(m.undo) > m.cfg.MaxDepth {
			m.totalCost -= m.undo[0].cost()
			m.undo = m.undo[1:]
		}
	}
	for m.totalCost > m.cfg.MaxCost && len(m.undo) > 1 {
		m.totalCost -= m.undo[0].cost()
		m.undo = m.undo[1:]
	}
}
