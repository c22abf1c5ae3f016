/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO script_snapshots(ts, content_version, stored) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, content_version, stored FROM script_snapshots ORDER BY id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, content_version, stored FROM script_snapshots ORDER BY id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneSnapshotsSQL = `DELETE FROM script_snapshots WHERE id NOT IN (
	SELECT id FROM script_snapshots ORDER BY id DESC LIMIT ?
)`

// Snapshot is one persisted stored-form revision.
type Snapshot struct {
	TS             time.Time
	ContentVersion uint64
	Stored         string
}

// SaveSnapshot persists a stored-form revision with a timestamp. The index
// database is derived and ephemeral; this history is for editor change
// tracking, not canonical storage.
func SaveSnapshot(ctx context.Context, ph *ProjectHandle, stored string, contentVersion uint64, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, ts.UTC().Format(time.RFC3339Nano), int64(contentVersion), stored)
	return err
}

// LatestSnapshot returns the most recent revision, or ok=false if none exists.
func LatestSnapshot(ctx context.Context, ph *ProjectHandle) (Snapshot, bool, error) {
	if ph == nil {
		return Snapshot{}, false, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var cv int64
	var stored string
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL).Scan(&tsStr, &cv, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	ts, perr := time.Parse(time.RFC3339Nano, tsStr)
	if perr != nil {
		ts = time.Time{}
	}
	return Snapshot{TS: ts, ContentVersion: uint64(cv), Stored: stored}, true, nil
}

// ListSnapshots returns up to limit most recent revisions, newest first.
func ListSnapshots(ctx context.Context, ph *ProjectHandle, limit int) ([]Snapshot, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		var tsStr, stored string
		var cv int64
		if err := rows.Scan(&tsStr, &cv, &stored); err != nil {
			return nil, err
		}
		ts, perr := time.Parse(time.RFC3339Nano, tsStr)
		if perr != nil {
			ts = time.Time{}
		}
		out = append(out, Snapshot{TS: ts, ContentVersion: uint64(cv), Stored: stored})
	}
	return out, rows.Err()
}

// PruneSnapshots keeps only the newest keep revisions.
func PruneSnapshots(ctx context.Context, ph *ProjectHandle, keep int) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if keep <= 0 {
		keep = 1
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, pruneSnapshotsSQL, keep)
	return err
}
