package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

const sessionColumns = `s.id, s.tool, s.session_id, s.project_path, s.start_time,
	s.last_time, s.message_count, s.first_message, s.summary, s.file_path,
	s.file_size, s.model, s.mtime`

// Query returns indexed sessions matching the filter, newest first.
// Search terms go through the FTS table; project, date range, and tool
// narrow the result in SQL. A non-positive limit returns everything.
func (ix *Index) Query(filter *session.QueryFilter, tool string, limit int) ([]*session.Record, error) {
	var clauses []string
	var args []any
	joinFTS := false

	if filter.HasSearch() {
		if match := ftsQuery(filter.Search); match != "" {
			joinFTS = true
			clauses = append(clauses, "sessions_fts MATCH ?")
			args = append(args, match)
		}
	}
	if filter.HasProject() {
		clauses = append(clauses, "s.project_path LIKE ?")
		args = append(args, "%"+strings.TrimSpace(filter.Project)+"%")
	}
	if filter != nil && filter.Since != nil {
		clauses = append(clauses, "s.start_time >= ?")
		args = append(args, session.FormatStorageTime(filter.Since))
	}
	if filter != nil && filter.Until != nil {
		clauses = append(clauses, "s.start_time <= ?")
		args = append(args, session.FormatStorageTime(filter.Until))
	}
	if tool != "" && tool != session.ToolAll {
		clauses = append(clauses, "s.tool = ?")
		args = append(args, tool)
	}

	query := "SELECT " + sessionColumns + " FROM sessions s"
	if joinFTS {
		query += " JOIN sessions_fts ON sessions_fts.rowid = s.id"
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY COALESCE(s.last_time, s.start_time) DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := ix.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query sessions: %w", err)
	}
	defer rows.Close()

	var records []*session.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Find resolves a session by its full ID, falling back to prefix match.
// Returns nil when nothing matches.
func (ix *Index) Find(sessionID string) (*session.Record, error) {
	row := ix.db.QueryRow(
		"SELECT "+sessionColumns+" FROM sessions s WHERE s.session_id = ? "+
			"ORDER BY COALESCE(s.last_time, s.start_time) DESC LIMIT 1",
		sessionID,
	)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	row = ix.db.QueryRow(
		"SELECT "+sessionColumns+" FROM sessions s WHERE s.session_id LIKE ? ESCAPE '\\' "+
			"ORDER BY COALESCE(s.last_time, s.start_time) DESC LIMIT 1",
		likePrefix(sessionID),
	)
	rec, err = scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Count returns the number of indexed sessions.
func (ix *Index) Count() (int, error) {
	var n int
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count sessions: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*session.Record, error) {
	var rec session.Record
	var id int64
	var projectPath, startTime, lastTime sql.NullString
	var firstMessage, summary, model sql.NullString
	var messageCount, fileSize, mtime sql.NullInt64

	err := row.Scan(
		&id, &rec.Tool, &rec.SessionID, &projectPath, &startTime,
		&lastTime, &messageCount, &firstMessage, &summary, &rec.FilePath,
		&fileSize, &model, &mtime,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("index: scan session: %w", err)
	}

	rec.ProjectPath = projectPath.String
	rec.StartTime = session.ParseStorageTime(startTime.String)
	rec.LastTime = session.ParseStorageTime(lastTime.String)
	rec.MessageCount = int(messageCount.Int64)
	rec.FirstMessage = firstMessage.String
	rec.Summary = summary.String
	rec.FileSize = fileSize.Int64
	rec.FileMtime = mtime.Int64
	rec.Model = model.String
	return &rec, nil
}

// ftsQuery builds the MATCH expression from free-text search input.
// Each token is quoted so FTS treats it as a plain term rather than
// query syntax, and tokens are ANDed together.
func ftsQuery(search string) string {
	tokens := session.SearchTokens(search)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " AND ")
}

func likePrefix(s string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
	return escaped + "%"
}
