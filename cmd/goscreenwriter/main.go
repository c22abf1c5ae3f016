/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"goscreenwriter/internal/config"
	"goscreenwriter/internal/crash"
	"goscreenwriter/internal/export"
	"goscreenwriter/internal/extract"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/paginate"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
	"goscreenwriter/internal/textlayout"
	"goscreenwriter/internal/version"
)

func usage() {
	fmt.Println("Go Screenwriter — screenplay editing core")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  goscreenwriter version|-v|--version         Show version")
	fmt.Println("  goscreenwriter init <dir>                   Create a new screenplay project at <dir>")
	fmt.Println("  goscreenwriter open <dir>                   Open project at <dir> and print a summary")
	fmt.Println("  goscreenwriter stats <dir>                  Print scene and character statistics")
	fmt.Println("  goscreenwriter paginate <dir>               Print estimated page breaks")
	fmt.Println("  goscreenwriter export <dir> [out.pdf]       Export the screenplay as PDF")
	fmt.Println("  goscreenwriter search <dir> <text> [name]   Search dialogue, optionally for one character")
	fmt.Println("  goscreenwriter import <dir> <file.txt>      Replace the screenplay from a plain text file")
	fmt.Println("  goscreenwriter text <dir>                   Print the screenplay as plain text")
	fmt.Println("  goscreenwriter snapshots <dir> [n]          List the n newest snapshots (default 10)")
	fmt.Println("  goscreenwriter reindex <dir>                Rebuild the search index from the script")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var ph *storage.ProjectHandle
	var stored string
	defer func() { crash.Recover(ph, func() string { return stored }) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	ctx := context.Background()

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Go Screenwriter — screenplay editing core")
		fmt.Println(version.String())
		return

	case "init":
		dir := mustDir(args, 2, "init")
		l.Info("init project", slog.String("root", dir))
		h, err := storage.InitProject(dir)
		if err != nil {
			fail(l, "init failed", err)
		}
		ph = h
		telemetry.Event("project_init", nil)
		fmt.Println("Created project at", dir)
		return

	case "open":
		h, st := mustOpen(l, args)
		ph, stored = h, st
		d := script.Parse(st)
		r := extract.Build(d)
		fmt.Println("Opened project at", h.Root)
		fmt.Printf("Blocks: %d  Scenes: %d  Characters: %d\n", len(d.Blocks), len(r.Scenes), len(r.Characters))
		return

	case "stats":
		h, st := mustOpen(l, args)
		ph, stored = h, st
		d := script.Parse(st)
		r := extract.Build(d)
		est := paginate.NewEstimator(paginate.DefaultConfig(), textlayout.NewMeasurer(nil))
		fmt.Printf("Words: %d  Estimated pages: %d\n", d.WordCount(), est.Paginate(d).PageCount)
		fmt.Printf("Scenes (%d):\n", len(r.Scenes))
		for _, sc := range r.Scenes {
			num := ""
			if sc.SceneNumber != "" {
				num = " #" + sc.SceneNumber
			}
			fmt.Printf("  %-28s %s%s\n", sc.Location, sc.TimeOfDay, num)
		}
		fmt.Printf("Characters (%d):\n", len(r.Characters))
		for _, c := range r.Characters {
			fmt.Printf("  %-28s %d lines\n", c.Name, c.DialogueCount)
		}
		return

	case "paginate":
		h, st := mustOpen(l, args)
		ph, stored = h, st
		cfg, _, err := config.Load()
		if err != nil {
			l.Warn("config load failed, using defaults", slog.Any("err", err))
			cfg = config.Defaults()
		}
		est := paginate.NewEstimator(paginate.Config{
			LinesPerPage:     cfg.Pagination.LinesPerPage,
			ActionCols:       cfg.Pagination.ActionCols,
			DialogueCols:     cfg.Pagination.DialogueCols,
			MinDialogueLines: cfg.Pagination.MinDialogueLines,
		}, textlayout.NewMeasurer(nil))
		d := script.Parse(st)
		state := est.Paginate(d)
		fmt.Printf("Pages: %d (%s)\n", state.PageCount, state.Source)
		for _, b := range state.Breaks {
			if b.Kind == paginate.KindDialogueSplit {
				fmt.Printf("  page %d starts mid-dialogue of %s at block %d offset %d\n",
					b.PageNumber, b.CharacterName, b.Position.Block, b.Position.Offset)
				continue
			}
			fmt.Printf("  page %d starts at block %d\n", b.PageNumber, b.Position.Block)
		}
		return

	case "export":
		h, st := mustOpen(l, args)
		ph, stored = h, st
		out := "screenplay.pdf"
		if len(args) >= 4 {
			out = args[3]
		}
		start := time.Now()
		if err := export.ExportPDF(h, st, out, export.PDFOptions{}); err != nil {
			fail(l, "export failed", err)
		}
		l.Info("pdf exported", slog.String("out", out), slog.Duration("took", time.Since(start)))
		telemetry.Event("export_pdf", nil)
		if !filepath.IsAbs(out) {
			out = filepath.Join(h.Root, "exports", out)
		}
		fmt.Println("Exported to", out)
		return

	case "search":
		if len(args) < 4 {
			fmt.Println("search requires <dir> and <text>")
			usage()
			os.Exit(2)
		}
		h, st := mustOpen(l, args)
		ph, stored = h, st
		if _, err := storage.DetectAndRebuildIndex(ctx, h, st); err != nil {
			fail(l, "index check failed", err)
		}
		if err := storage.UpdateIndex(ctx, h, st); err != nil {
			fail(l, "index update failed", err)
		}
		q := storage.SearchQuery{Text: args[3]}
		if len(args) >= 5 {
			q.Character = args[4]
		}
		results, err := storage.SearchDialogue(ctx, h, q)
		if err != nil {
			fail(l, "search failed", err)
		}
		for _, r := range results {
			fmt.Printf("  block %d  %s: %s\n", r.BlockPos, r.CharacterID, r.Snippet)
		}
		fmt.Printf("%d match(es)\n", len(results))
		return

	case "import":
		if len(args) < 4 {
			fmt.Println("import requires <dir> and <file.txt>")
			usage()
			os.Exit(2)
		}
		h, st := mustOpen(l, args)
		ph, stored = h, st
		b, err := os.ReadFile(args[3])
		if err != nil {
			fail(l, "read input failed", err)
		}
		d := script.ParseText(string(b))
		next := script.Serialize(d)
		if err := storage.SaveScript(h, next); err != nil {
			fail(l, "save failed", err)
		}
		if err := storage.SaveSnapshot(ctx, h, next, paginate.ContentVersion(d), time.Now()); err != nil {
			l.Warn("snapshot failed", slog.Any("err", err))
		}
		stored = next
		fmt.Printf("Imported %d blocks from %s\n", len(d.Blocks), args[3])
		return

	case "text":
		h, st := mustOpen(l, args)
		ph, stored = h, st
		fmt.Print(script.SerializeText(script.Parse(st)))
		return

	case "snapshots":
		h, st := mustOpen(l, args)
		ph, stored = h, st
		limit := 10
		if len(args) >= 4 {
			if n, err := strconv.Atoi(args[3]); err == nil && n > 0 {
				limit = n
			}
		}
		snaps, err := storage.ListSnapshots(ctx, h, limit)
		if err != nil {
			fail(l, "list snapshots failed", err)
		}
		for _, s := range snaps {
			fmt.Printf("  %s  version %016x  %d bytes\n", s.TS.Format(time.RFC3339), s.ContentVersion, len(s.Stored))
		}
		fmt.Printf("%d snapshot(s)\n", len(snaps))
		return

	case "reindex":
		h, st := mustOpen(l, args)
		ph, stored = h, st
		if err := storage.RebuildIndex(ctx, h, st); err != nil {
			fail(l, "rebuild failed", err)
		}
		fmt.Println("Search index rebuilt.")
		return
	}

	usage()
}

func mustDir(args []string, i int, cmd string) string {
	if len(args) <= i {
		fmt.Printf("%s requires <dir>\n", cmd)
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[i])
	return abs
}

func mustOpen(l *slog.Logger, args []string) (*storage.ProjectHandle, string) {
	dir := mustDir(args, 2, args[1])
	h, stored, err := storage.Open(dir)
	if err != nil {
		fail(l, "open failed", err)
	}
	return h, stored
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}
