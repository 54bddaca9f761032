package session

import (
	"sort"

	"github.com/zbsdsb/ai-session-viewer/internal/logging"
)

// ScanAll streams sessions for every parser without touching the
// index, keyed by tool. The limit applies per tool. A parser that
// fails outright contributes an empty list rather than aborting the
// other tools.
func ScanAll(parsers []Parser, filter *QueryFilter, limit int) map[string][]*Record {
	out := make(map[string][]*Record, len(parsers))
	for _, p := range parsers {
		records, err := p.Scan(filter, limit)
		if err != nil {
			logging.ForComponent(logging.CompScan).Warn("scan failed",
				"tool", p.ToolKey(), "error", err)
			records = nil
		}
		out[p.ToolKey()] = records
	}
	return out
}

// FlattenRecords merges per-tool scan results into one slice, in
// parser order.
func FlattenRecords(parsers []Parser, byTool map[string][]*Record) []*Record {
	var out []*Record
	for _, p := range parsers {
		out = append(out, byTool[p.ToolKey()]...)
	}
	return out
}

// SortRecords orders records newest first by last activity, falling
// back to the start time. Records with neither sort last.
func SortRecords(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SortTime().After(records[j].SortTime())
	})
}

// ClampRecords applies a result limit, where non-positive means
// unlimited.
func ClampRecords(records []*Record, limit int) []*Record {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}
