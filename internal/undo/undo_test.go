/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"

	"goscreenwriter/internal/script"
)

func snap(text string, ts time.Time) Snapshot {
	return Snapshot{Doc: script.ParseText(text), TS: ts}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Push(snap("one", t0))
	m.Push(snap("two", t0.Add(time.Second)))
	current := snap("three", t0.Add(2*time.Second))

	s, ok := m.Undo(current)
	if !ok || s.Doc.Blocks[0].Text() != "two" {
		t.Fatalf("undo = %v %v", s.Doc.Blocks, ok)
	}
	s2, ok := m.Redo(s)
	if !ok || s2.Doc.Blocks[0].Text() != "three" {
		t.Fatalf("redo = %v %v", s2.Doc.Blocks, ok)
	}
}

func TestUndoEmpty(t *testing.T) {
	m := NewManager(Config{})
	if _, ok := m.Undo(Snapshot{}); ok {
		t.Fatal("undo on empty stack succeeded")
	}
	if _, ok := m.Redo(Snapshot{}); ok {
		t.Fatal("redo on empty stack succeeded")
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Push(snap("one", t0))
	if _, ok := m.Undo(snap("two", t0.Add(time.Second))); !ok {
		t.Fatal("undo failed")
	}
	m.Push(snap("three", t0.Add(2*time.Second)))
	if _, ok := m.Redo(Snapshot{}); ok {
		t.Fatal("redo survived a push")
	}
}

func TestCoalescingKeepsFirstOfBurst(t *testing.T) {
	m := NewManager(Config{MinInterval: 100 * time.Millisecond})
	t0 := time.Now()
	m.Push(snap("a", t0))
	m.Push(snap("ab", t0.Add(10*time.Millisecond)))
	m.Push(snap("abc", t0.Add(20*time.Millisecond)))

	undoDepth, _, _ := m.Stats()
	if undoDepth != 1 {
		t.Fatalf("depth = %d, want 1 after coalescing", undoDepth)
	}
	s, ok := m.Undo(snap("abcd", t0.Add(30*time.Millisecond)))
	if !ok || s.Doc.Blocks[0].Text() != "a" {
		t.Fatalf("undo = %q, want first-of-burst", s.Doc.Blocks[0].Text())
	}
}

func TestDepthCap(t *testing.T) {
	m := NewManager(Config{MaxDepth: 2, MinInterval: time.Nanosecond})
	t0 := time.Now()
	for i, text := range []string{"one", "two", "three", "four"} {
		m.Push(snap(text, t0.Add(time.Duration(i)*time.Second)))
	}
	undoDepth, _, _ := m.Stats()
	if undoDepth != 2 {
		t.Fatalf("depth = %d, want 2", undoDepth)
	}
	s, _ := m.Undo(Snapshot{})
	if s.Doc.Blocks[0].Text() != "four" {
		t.Fatalf("top = %q, want newest kept", s.Doc.Blocks[0].Text())
	}
}

func TestCostCapPrunesOldest(t *testing.T) {
	m := NewManager(Config{MaxCost: 200, MinInterval: time.Nanosecond})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.Push(snap("some action text that costs a few dozen bytes", t0.Add(time.Duration(i)*time.Second)))
	}
	undoDepth, _, cost := m.Stats()
	if undoDepth >= 10 {
		t.Fatalf("depth = %d, expected pruning", undoDepth)
	}
	if cost > 200+128 {
		t.Fatalf("cost = %d, way over cap", cost)
	}
}
