/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"goscreenwriter/internal/script"
)

func TestInitProjectScaffolds(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj")
	ph, err := InitProject(root)
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	if _, err := os.Stat(ph.ScriptPath); err != nil {
		t.Fatalf("script file missing: %v", err)
	}
	for _, d := range standardSubDirs {
		if fi, err := os.Stat(filepath.Join(root, d)); err != nil || !fi.IsDir() {
			t.Fatalf("subdir %s missing", d)
		}
	}
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj")
	ph, err := InitProject(root)
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	d := script.ParseText("INT. LAB - DAY\n\nBeakers bubble.")
	if err := SaveScript(ph, script.Serialize(d)); err != nil {
		t.Fatalf("SaveScript: %v", err)
	}
	_, stored, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := script.Parse(stored)
	if len(got.Blocks) != 2 || got.Blocks[0].Location != "LAB" {
		t.Fatalf("blocks = %+v", got.Blocks)
	}
}

func TestOpenFallsBackToBackup(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj")
	ph, err := InitProject(root)
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	// Second save creates a backup of the first.
	if err := SaveScript(ph, script.Serialize(script.ParseText("Second version."))); err != nil {
		t.Fatalf("SaveScript: %v", err)
	}
	if err := os.Remove(ph.ScriptPath); err != nil {
		t.Fatalf("remove script: %v", err)
	}
	_, stored, err := Open(root)
	if err != nil {
		t.Fatalf("Open with backup: %v", err)
	}
	if stored == "" {
		t.Fatal("empty stored form from backup")
	}
}

func TestOpenMissingProjectFails(t *testing.T) {
	if _, _, err := Open(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Open succeeded on missing project")
	}
}
