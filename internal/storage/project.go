/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists screenplay projects on disk. A project is a
// directory holding the canonical stored form (screenplay.gsw) plus an
// embedded SQLite index under .gsw/ for snapshot history and dialogue search.
// The index is derived data and can always be rebuilt from the script file.
package storage

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goscreenwriter/internal/script"
)

const (
	ScriptFileName = "screenplay.gsw"
	BackupsDirName = "backups"
)

var standardSubDirs = []string{
	"exports",
	BackupsDirName,
}

// ProjectHandle tracks a project directory on disk.
type ProjectHandle struct {
	Root       string
	ScriptPath string
}

// InitProject creates a new project directory at root, scaffolds the standard
// subfolders, and writes an empty script transactionally.
func InitProject(root string) (*ProjectHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	ph := &ProjectHandle{Root: root, ScriptPath: filepath.Join(root, ScriptFileName)}
	if err := SaveScript(ph, script.Serialize(script.New())); err != nil {
		return nil, err
	}
	return ph, nil
}

// Open loads an existing project. A missing or unreadable script file falls
// back to the most recent backup; parse failures are not an error here
// because script.Parse degrades to plain text on its own.
func Open(root string) (*ProjectHandle, string, error) {
	ph := &ProjectHandle{Root: root, ScriptPath: filepath.Join(root, ScriptFileName)}
	b, err := os.ReadFile(ph.ScriptPath)
	if err != nil {
		stored, berr := latestBackup(root)
		if berr != nil {
			return nil, "", fmt.Errorf("open script: %w; backup attempt: %v", err, berr)
		}
		return ph, stored, nil
	}
	return ph, string(b), nil
}

// SaveScript writes the stored form with transactional semantics and keeps a
// timestamped backup of the previous version.
func SaveScript(ph *ProjectHandle, stored string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if ph.Root == "" || ph.ScriptPath == "" {
		return errors.New("invalid ProjectHandle: missing paths")
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(ph.ScriptPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", ScriptFileName, stamp))
		if cerr := copyFile(ph.ScriptPath, bpath); cerr != nil {
			return fmt.Errorf("backup current script: %w", cerr)
		}
	}

	dir := filepath.Dir(ph.ScriptPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ScriptFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, []byte(stored)); werr != nil {
		return fmt.Errorf("write temp script: %w", werr)
	}
	// On Windows, rename cannot replace an existing file.
	if _, err := os.Stat(ph.ScriptPath); err == nil {
		_ = os.Remove(ph.ScriptPath)
	}
	if rerr := os.Rename(temp, ph.ScriptPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace script: %w", rerr)
	}
	return nil
}

func latestBackup(root string) (string, error) {
	bdir := filepath.Join(root, BackupsDirName)
	entries, err := os.ReadDir(bdir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), ScriptFileName+".") && strings.HasSuffix(e.Name(), ".bak") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", errors.New("no backups found")
	}
	// Timestamped names sort lexicographically; take the newest.
	newest := names[0]
	for _, n := range names[1:] {
		if n > newest {
			newest = n
		}
	}
	b, err := os.ReadFile(filepath.Join(bdir, newest))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileSync(dst, b)
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
