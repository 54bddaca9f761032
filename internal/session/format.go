package session

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatSize renders a byte count as B, KB, or MB.
func FormatSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d B", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/1024/1024)
	}
}

// FormatRecord renders one record as a list entry. The index is the
// record's position across all tools so the detail prompt can address
// it.
func FormatRecord(r *Record, resumeCmd string, index int, showDetail bool) string {
	lines := []string{
		fmt.Sprintf("📌 [%d] %s", index, r.Title()),
		fmt.Sprintf("   ⏰ %s | 💬 %d messages | 📊 %s",
			FormatLocalTime(r.LastTime), r.MessageCount, FormatSize(r.FileSize)),
		fmt.Sprintf("   📁 %s", orDefault(r.ProjectPath, "(no project)")),
	}
	if r.Model != "" {
		lines = append(lines, "   🤖 "+r.Model)
	}
	lines = append(lines, "   🔄 "+resumeCmd)
	if showDetail {
		lines = append(lines, "   📄 "+r.FilePath)
	}
	return strings.Join(lines, "\n")
}

// FormatOverview renders the per-tool totals banner shown before a
// listing. Tools appear in parser order.
func FormatOverview(parsers []Parser, records map[string][]*Record) string {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("🔍 AI session overview\n")
	b.WriteString(rule + "\n")

	totalSessions := 0
	totalMessages := 0
	for _, p := range parsers {
		recs := records[p.ToolKey()]
		messages := 0
		for _, r := range recs {
			messages += r.MessageCount
		}
		totalSessions += len(recs)
		totalMessages += messages

		fmt.Fprintf(&b, "\n📦 %s: %d sessions, %d messages\n", p.ToolName(), len(recs), messages)
		if len(recs) > 0 {
			fmt.Fprintf(&b, "   └─ latest: %s\n", FormatLocalTime(recs[0].LastTime))
		}
	}

	fmt.Fprintf(&b, "\n📊 total: %d sessions, %d messages\n", totalSessions, totalMessages)
	b.WriteString(rule)
	return b.String()
}

// FormatDetail renders the full view of one record, including its
// manual user messages. Messages that look injected are skipped but
// keep their original numbering.
func FormatDetail(r *Record, resumeCmd string) string {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "📖 session %s...\n", TruncateRunes(r.SessionID, 8))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "⏰ last:     %s\n", FormatLocalTime(r.LastTime))
	fmt.Fprintf(&b, "🕘 start:    %s\n", FormatLocalTime(r.StartTime))
	fmt.Fprintf(&b, "📁 project:  %s\n", orDefault(r.ProjectPath, "(none)"))
	fmt.Fprintf(&b, "🤖 model:    %s\n", orDefault(r.Model, "(unknown)"))
	fmt.Fprintf(&b, "💬 messages: %d\n", r.MessageCount)
	fmt.Fprintf(&b, "🔄 resume:   %s\n", resumeCmd)
	if r.Summary != "" {
		b.WriteString("🧠 summary:\n")
		for _, line := range strings.Split(strings.TrimSpace(r.Summary), "\n") {
			b.WriteString("   " + line + "\n")
		}
	}
	b.WriteString(strings.Repeat("─", 60) + "\n")

	if len(r.UserMessages) == 0 {
		b.WriteString("\n(no user messages)\n")
	} else {
		b.WriteString("\n📝 user messages:\n\n")
		for i, msg := range r.UserMessages {
			clean := strings.TrimSpace(msg)
			if strings.HasPrefix(clean, "<") || strings.HasPrefix(clean, "You are") {
				continue
			}
			if utf8.RuneCountInString(clean) > 200 {
				clean = TruncateRunes(clean, 200) + "..."
			}
			fmt.Fprintf(&b, "  [%d] %s\n\n", i+1, clean)
		}
	}
	b.WriteString(rule)
	return b.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
