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
	"fmt"
	"strings"

	"goscreenwriter/internal/extract"
	"goscreenwriter/internal/script"
)

// UpdateIndex replaces the derived tables from the stored form. Called on the
// extraction cadence, not per keystroke.
func UpdateIndex(ctx context.Context, ph *ProjectHandle, stored string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	return updateIndexDB(ctx, db, stored)
}

func updateIndexDB(ctx context.Context, db *sql.DB, stored string) error {
	d := script.Parse(stored)
	r := extract.Build(d)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{
		"DELETE FROM scenes;",
		"DELETE FROM characters;",
		"DELETE FROM dialogue;",
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear derived tables: %w", err)
		}
	}

	insScene, err := tx.PrepareContext(ctx, `INSERT INTO scenes(scene_id, position, intro, location, time_of_day, scene_number) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare scenes insert: %w", err)
	}
	defer insScene.Close()
	for _, s := range r.Scenes {
		if _, err := insScene.ExecContext(ctx, s.ID, s.Position, string(s.Intro), s.Location, s.TimeOfDay, s.SceneNumber); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert scene: %w", err)
		}
	}

	insChar, err := tx.PrepareContext(ctx, `INSERT INTO characters(character_id, name, dialogue_count) VALUES(?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare characters insert: %w", err)
	}
	defer insChar.Close()
	for _, c := range r.Characters {
		if _, err := insChar.ExecContext(ctx, c.ID, c.Name, c.DialogueCount); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert character: %w", err)
		}
	}

	insLine, err := tx.PrepareContext(ctx, `INSERT INTO dialogue(block_pos, character_id, text) VALUES(?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare dialogue insert: %w", err)
	}
	defer insLine.Close()
	if err := insertDialogue(ctx, insLine, d.Blocks, 0); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertDialogue(ctx context.Context, ins *sql.Stmt, blocks []script.Block, pos int) error {
	for i, b := range blocks {
		if len(b.Children) > 0 {
			if err := insertDialogue(ctx, ins, b.Children, pos+i); err != nil {
				return err
			}
			continue
		}
		if b.Type != script.Dialogue {
			continue
		}
		text := strings.TrimSpace(b.Text())
		if text == "" {
			continue
		}
		charID := sql.NullString{String: b.CharacterID, Valid: b.CharacterID != ""}
		if _, err := ins.ExecContext(ctx, pos+i, charID, text); err != nil {
			return fmt.Errorf("insert dialogue: %w", err)
		}
	}
	return nil
}

// SearchQuery describes a dialogue search. Text uses SQLite FTS5 syntax
// (simple terms, phrases in quotes, AND/OR/NOT); Character restricts to a
// normalized character id. Limit/Offset paginate, with defaults when zero.
type SearchQuery struct {
	Text      string
	Character string
	Limit     int
	Offset    int
}

// SearchResult is a single matching dialogue line. Snippet highlights the
// match using [ ] markers when FTS text is used.
type SearchResult struct {
	LineID      int64
	BlockPos    int
	CharacterID string
	Text        string
	Snippet     string
}

// SearchDialogue performs full-text search over dialogue lines. With empty
// query text it falls back to a plain filtered scan.
func SearchDialogue(ctx context.Context, ph *ProjectHandle, q SearchQuery) ([]SearchResult, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT l.line_id, l.block_pos, COALESCE(l.character_id,''), l.text, snippet(fts_dialogue, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_dialogue JOIN dialogue l ON fts_dialogue.rowid = l.line_id\n")
		sb.WriteString("WHERE fts_dialogue MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT l.line_id, l.block_pos, COALESCE(l.character_id,''), l.text, ''\n")
		sb.WriteString("FROM dialogue l\nWHERE 1=1\n")
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		sb.WriteString(" AND lower(COALESCE(l.character_id,'')) = ?\n")
		args = append(args, strings.ToLower(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if useFTS {
		sb.WriteString(" ORDER BY bm25(fts_dialogue), l.block_pos\n")
	} else {
		sb.WriteString(" ORDER BY l.block_pos\n")
	}
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.LineID, &r.BlockPos, &r.CharacterID, &r.Text, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Scenes reads the persisted scene read model in document order.
func Scenes(ctx context.Context, ph *ProjectHandle) ([]extract.SceneSummary, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT scene_id, position, COALESCE(intro,''), COALESCE(location,''), COALESCE(time_of_day,''), COALESCE(scene_number,'') FROM scenes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()
	var out []extract.SceneSummary
	for rows.Next() {
		var s extract.SceneSummary
		var intro string
		if err := rows.Scan(&s.ID, &s.Position, &intro, &s.Location, &s.TimeOfDay, &s.SceneNumber); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		s.Intro = script.IntroType(intro)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Characters reads the persisted character read model, ordered as extracted.
func Characters(ctx context.Context, ph *ProjectHandle) ([]extract.CharacterSummary, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT character_id, name, dialogue_count FROM characters ORDER BY dialogue_count DESC, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()
	var out []extract.CharacterSummary
	for rows.Next() {
		var c extract.CharacterSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.DialogueCount); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
