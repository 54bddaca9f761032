package index

import (
	"fmt"
	"os"
	"time"

	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

// Stats summarizes one reconcile pass over the scanned session logs.
type Stats struct {
	Scanned int `json:"scanned"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Removed int `json:"removed"`
	Errors  int `json:"errors"`
}

// SummaryFunc produces a stored summary for a record that is about to
// be indexed. It is only invoked for new or changed files, so expensive
// implementations are amortized across incremental runs.
type SummaryFunc func(*session.Record) string

// Reconcile brings the index in line with the scanned records. Files
// whose size and mtime are unchanged are skipped, new and modified
// files are re-indexed, and rows whose files no longer appear in the
// scan are removed. The whole pass commits as a single transaction.
func (ix *Index) Reconcile(records []*session.Record, parsers []session.Parser, summarize SummaryFunc) (Stats, error) {
	ix.reconcileMu.Lock()
	defer ix.reconcileMu.Unlock()

	stats := Stats{Scanned: len(records)}

	existing, err := ix.fingerprints()
	if err != nil {
		return stats, err
	}

	tx, err := ix.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("index: begin reconcile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	update, err := tx.Prepare(`
		UPDATE sessions
		SET tool = ?, session_id = ?, project_path = ?, start_time = ?,
		    last_time = ?, message_count = ?, first_message = ?, summary = ?,
		    file_size = ?, model = ?, mtime = ?
		WHERE id = ?
	`)
	if err != nil {
		return stats, fmt.Errorf("index: prepare update: %w", err)
	}
	defer update.Close()

	insert, err := tx.Prepare(`
		INSERT INTO sessions (tool, session_id, project_path, start_time,
		    last_time, message_count, first_message, summary, file_path,
		    file_size, model, mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return stats, fmt.Errorf("index: prepare insert: %w", err)
	}
	defer insert.Close()

	ftsDelete, err := tx.Prepare("DELETE FROM sessions_fts WHERE rowid = ?")
	if err != nil {
		return stats, fmt.Errorf("index: prepare fts delete: %w", err)
	}
	defer ftsDelete.Close()

	ftsInsert, err := tx.Prepare(`
		INSERT INTO sessions_fts (rowid, content, project_path, session_id, tool)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return stats, fmt.Errorf("index: prepare fts insert: %w", err)
	}
	defer ftsInsert.Close()

	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		if rec.FilePath == "" {
			stats.Errors++
			continue
		}
		// Mark before stat: a file that vanishes mid-pass keeps its
		// row until a later pass no longer scans it at all.
		seen[rec.FilePath] = struct{}{}

		info, err := os.Stat(rec.FilePath)
		if err != nil {
			stats.Errors++
			ix.log.Warn("stat failed during reconcile", "file", rec.FilePath, "error", err)
			continue
		}
		size := info.Size()
		mtime := info.ModTime().Unix()

		prev, known := existing[rec.FilePath]
		if known && prev.size == size && prev.mtime == mtime {
			stats.Skipped++
			continue
		}

		parser, ok := session.ParserFor(parsers, rec.Tool)
		if !ok {
			stats.Errors++
			ix.log.Warn("no parser for tool", "tool", rec.Tool, "file", rec.FilePath)
			continue
		}
		searchText := parser.SearchText(rec.FilePath)

		if summarize != nil {
			rec.Summary = summarize(rec)
		}

		rowID := prev.id
		if known {
			if _, err := update.Exec(
				rec.Tool, rec.SessionID, rec.ProjectPath,
				nullableTime(rec.StartTime), nullableTime(rec.LastTime),
				rec.MessageCount, rec.FirstMessage, rec.Summary,
				size, rec.Model, mtime, prev.id,
			); err != nil {
				return stats, fmt.Errorf("index: update session: %w", err)
			}
		} else {
			res, err := insert.Exec(
				rec.Tool, rec.SessionID, rec.ProjectPath,
				nullableTime(rec.StartTime), nullableTime(rec.LastTime),
				rec.MessageCount, rec.FirstMessage, rec.Summary,
				rec.FilePath, size, rec.Model, mtime,
			)
			if err != nil {
				return stats, fmt.Errorf("index: insert session: %w", err)
			}
			rowID, err = res.LastInsertId()
			if err != nil {
				return stats, fmt.Errorf("index: insert rowid: %w", err)
			}
		}

		if _, err := ftsDelete.Exec(rowID); err != nil {
			return stats, fmt.Errorf("index: clear fts row: %w", err)
		}
		if _, err := ftsInsert.Exec(rowID, searchText, rec.ProjectPath, rec.SessionID, rec.Tool); err != nil {
			return stats, fmt.Errorf("index: insert fts row: %w", err)
		}
		stats.Indexed++
	}

	for path, fp := range existing {
		if _, ok := seen[path]; ok {
			continue
		}
		if _, err := tx.Exec("DELETE FROM sessions WHERE id = ?", fp.id); err != nil {
			return stats, fmt.Errorf("index: delete session: %w", err)
		}
		if _, err := ftsDelete.Exec(fp.id); err != nil {
			return stats, fmt.Errorf("index: delete fts row: %w", err)
		}
		stats.Removed++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("index: commit reconcile: %w", err)
	}

	ix.log.Info("reconcile complete",
		"scanned", stats.Scanned,
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
		"removed", stats.Removed,
		"errors", stats.Errors,
	)
	return stats, nil
}

// nullableTime converts an optional timestamp to its storage form,
// mapping nil to SQL NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return session.FormatStorageTime(t)
}
