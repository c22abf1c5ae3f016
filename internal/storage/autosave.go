/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AutosaveCrashSnapshot writes the given stored form to a timestamped
// autosave file in the backups folder, bypassing the normal save path so it
// cannot clobber the canonical script during a crash. Returns the path
// written.
func AutosaveCrashSnapshot(ph *ProjectHandle, stored string) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.autosave-%s", ScriptFileName, stamp))
	if err := writeFileSync(path, []byte(stored)); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	return path, nil
}

// LatestAutosave returns the newest crash autosave, or ok=false if none.
func LatestAutosave(ph *ProjectHandle) (string, bool, error) {
	if ph == nil {
		return "", false, errors.New("nil ProjectHandle")
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	entries, err := os.ReadDir(bdir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	newest := ""
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), ScriptFileName+".autosave-") {
			continue
		}
		if e.Name() > newest {
			newest = e.Name()
		}
	}
	if newest == "" {
		return "", false, nil
	}
	b, err := os.ReadFile(filepath.Join(bdir, newest))
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}
