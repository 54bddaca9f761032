package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/zbsdsb/ai-session-viewer/internal/clipboard"
	"github.com/zbsdsb/ai-session-viewer/internal/logging"
	"github.com/zbsdsb/ai-session-viewer/internal/session"
)

var uiLog = logging.ForComponent(logging.CompUI)

// themeChangedMsg arrives when the OS switches between dark and light mode.
type themeChangedMsg struct {
	dark bool
}

// statusExpiredMsg clears a status flash. The id guards against a
// stale timer wiping a newer message.
type statusExpiredMsg struct {
	id int
}

type viewMode int

const (
	modeList viewMode = iota
	modeDetail
)

// recordSource implements fuzzy.Source over the record list.
type recordSource []*session.Record

func (s recordSource) String(i int) string {
	r := s[i]
	return r.FirstMessage + " " + r.ProjectPath + " " + r.SessionID
}

func (s recordSource) Len() int {
	return len(s)
}

// Browser is the interactive session list. It holds the full record set
// and narrows it with fuzzy matching as the user types. Selecting a
// session opens a scrollable detail pane; resuming quits the program
// with the resume command recorded for the caller to print or run.
type Browser struct {
	records []*session.Record
	visible []*session.Record
	parsers []session.Parser

	input        textinput.Model
	cursor       int
	offset       int
	width        int
	height       int
	mode         viewMode
	detailScroll int

	themes   *ThemeWatcher
	resume   string
	status   string
	statusID int
	quitting bool
}

// NewBrowser creates the browser over a scanned record set. The theme
// watcher may be nil when the theme is fixed.
func NewBrowser(records []*session.Record, parsers []session.Parser, themes *ThemeWatcher) *Browser {
	ti := textinput.New()
	ti.Placeholder = "Filter sessions..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return &Browser{
		records: records,
		visible: records,
		parsers: parsers,
		input:   ti,
		themes:  themes,
	}
}

// ResumeCommand returns the command chosen during the session, or ""
// when the user quit without resuming. Read after the program exits.
func (b *Browser) ResumeCommand() string {
	return b.resume
}

// Selected returns the record under the cursor.
func (b *Browser) Selected() *session.Record {
	if len(b.visible) == 0 {
		return nil
	}
	if b.cursor >= len(b.visible) {
		b.cursor = len(b.visible) - 1
	}
	return b.visible[b.cursor]
}

func (b *Browser) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, b.waitForTheme())
}

// waitForTheme blocks on the watcher channel and converts OS dark mode
// flips into messages. Re-armed after every delivery.
func (b *Browser) waitForTheme() tea.Cmd {
	if b.themes == nil {
		return nil
	}
	ch := b.themes.ChangeChannel()
	return func() tea.Msg {
		isDark, ok := <-ch
		if !ok {
			return nil
		}
		return themeChangedMsg{dark: isDark}
	}
}

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		return b, nil

	case themeChangedMsg:
		theme := "light"
		if msg.dark {
			theme = "dark"
		}
		InitTheme(theme)
		uiLog.Info("theme switched", slog.String("theme", theme))
		return b, b.waitForTheme()

	case statusExpiredMsg:
		if msg.id == b.statusID {
			b.status = ""
		}
		return b, nil

	case tea.KeyMsg:
		if b.mode == modeDetail {
			return b.updateDetail(msg)
		}
		return b.updateList(msg)
	}

	return b, nil
}

func (b *Browser) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		b.quitting = true
		return b, tea.Quit

	case "esc":
		if b.input.Value() != "" {
			b.input.SetValue("")
			b.applyFilter()
			return b, nil
		}
		b.quitting = true
		return b, tea.Quit

	case "enter":
		if b.Selected() != nil {
			b.mode = modeDetail
			b.detailScroll = 0
			b.input.Blur()
		}
		return b, nil

	case "up", "ctrl+k":
		if b.cursor > 0 {
			b.cursor--
			b.ensureVisible()
		}
		return b, nil

	case "down", "ctrl+j":
		if b.cursor < len(b.visible)-1 {
			b.cursor++
			b.ensureVisible()
		}
		return b, nil

	case "ctrl+r":
		return b.resumeSelected()

	case "ctrl+y":
		return b.copySelected()

	default:
		before := b.input.Value()
		var cmd tea.Cmd
		b.input, cmd = b.input.Update(msg)
		if b.input.Value() != before {
			b.applyFilter()
		}
		return b, cmd
	}
}

func (b *Browser) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		b.quitting = true
		return b, tea.Quit

	case "esc", "q":
		b.mode = modeList
		b.detailScroll = 0
		b.input.Focus()
		return b, nil

	case "up", "k":
		if b.detailScroll > 0 {
			b.detailScroll--
		}
		return b, nil

	case "down", "j":
		b.detailScroll++
		return b, nil

	case "[", "pgup":
		b.detailScroll -= 5
		if b.detailScroll < 0 {
			b.detailScroll = 0
		}
		return b, nil

	case "]", "pgdown":
		b.detailScroll += 5
		return b, nil

	case "r":
		return b.resumeSelected()

	case "c":
		return b.copySelected()
	}

	return b, nil
}

func (b *Browser) resumeSelected() (tea.Model, tea.Cmd) {
	rec := b.Selected()
	if rec == nil {
		return b, nil
	}
	if p, ok := session.ParserFor(b.parsers, rec.Tool); ok {
		b.resume = p.ResumeCommand(rec.SessionID)
	}
	b.quitting = true
	return b, tea.Quit
}

// copySelected puts the resume command of the record under the cursor
// on the system clipboard and flashes the result.
func (b *Browser) copySelected() (tea.Model, tea.Cmd) {
	rec := b.Selected()
	if rec == nil {
		return b, nil
	}
	resumeCmd := ""
	if p, ok := session.ParserFor(b.parsers, rec.Tool); ok {
		resumeCmd = p.ResumeCommand(rec.SessionID)
	}
	if resumeCmd == "" {
		return b.flashStatus(DimStyle.Render("nothing to copy"))
	}
	method, err := clipboard.Copy(resumeCmd)
	if err != nil {
		uiLog.Warn("clipboard copy failed", slog.String("error", err.Error()))
		return b.flashStatus(ErrorStyle.Render("✕ copy failed: " + err.Error()))
	}
	uiLog.Info("resume command copied",
		slog.String("session", rec.SessionID), slog.String("method", method))
	return b.flashStatus(SuccessStyle.Render(fmt.Sprintf("✓ copied %q (%s)", resumeCmd, method)))
}

// flashStatus shows a transient status line that clears itself after
// a couple of seconds.
func (b *Browser) flashStatus(text string) (tea.Model, tea.Cmd) {
	b.status = text
	b.statusID++
	id := b.statusID
	return b, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return statusExpiredMsg{id: id}
	})
}

// applyFilter narrows the visible set with a fuzzy match over title,
// project, and session id. Results keep fuzzy score order.
func (b *Browser) applyFilter() {
	query := strings.TrimSpace(b.input.Value())
	if query == "" {
		b.visible = b.records
	} else {
		matches := fuzzy.FindFrom(query, recordSource(b.records))
		visible := make([]*session.Record, 0, len(matches))
		for _, m := range matches {
			visible = append(visible, b.records[m.Index])
		}
		b.visible = visible
	}
	b.cursor = 0
	b.offset = 0
}

// listCapacity is the number of list rows that fit under the header,
// filter box, count, and hint lines.
func (b *Browser) listCapacity() int {
	rows := b.height - 11
	if rows < 4 {
		rows = 4
	}
	return rows
}

// ensureVisible scrolls the list window so the cursor stays on screen.
func (b *Browser) ensureVisible() {
	capacity := b.listCapacity()
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+capacity {
		b.offset = b.cursor - capacity + 1
	}
	if b.offset < 0 {
		b.offset = 0
	}
}

func (b *Browser) View() string {
	if b.quitting {
		return ""
	}
	if b.mode == modeDetail {
		return b.viewDetail()
	}
	return b.viewList()
}

func (b *Browser) viewList() string {
	var view strings.Builder

	header := TitleStyle.Render("AI sessions")
	view.WriteString(header + "  " + DimStyle.Render(fmt.Sprintf("%d total", len(b.records))) + "\n\n")

	boxWidth := b.width - 4
	if boxWidth > 64 {
		boxWidth = 64
	}
	if boxWidth < 20 {
		boxWidth = 20
	}
	view.WriteString(SearchBoxStyle.Width(boxWidth).Render(b.input.View()) + "\n\n")

	if len(b.visible) == 0 {
		if b.input.Value() != "" {
			view.WriteString(DimStyle.Render("  No matches") + "\n")
		} else {
			view.WriteString(lipgloss.NewStyle().
				Foreground(ColorComment).
				Italic(true).
				Render("  No sessions found") + "\n")
		}
	} else {
		capacity := b.listCapacity()
		end := b.offset + capacity
		if end > len(b.visible) {
			end = len(b.visible)
		}
		rowWidth := b.width - 10
		if rowWidth < 20 {
			rowWidth = 20
		}
		for i := b.offset; i < end; i++ {
			rec := b.visible[i]
			title := runewidth.Truncate(rec.Title(), rowWidth, "...")
			icon := ToolIcon(rec.Tool)

			if i == b.cursor {
				view.WriteString(ListItemSelectedStyle.Render(fmt.Sprintf("› %s %s", icon, title)) + "\n")
				meta := fmt.Sprintf("    %s • %s • %d messages",
					formatRelativeTime(rec.SortTime()), projectOrDash(rec.ProjectPath), rec.MessageCount)
				view.WriteString(ListMetaStyle.Render(runewidth.Truncate(meta, b.width-2, "...")) + "\n")
			} else {
				view.WriteString(ListItemStyle.Render(fmt.Sprintf("%s %s", icon, title)) + "\n")
			}
		}
	}

	view.WriteString("\n")
	if b.input.Value() != "" {
		switch len(b.visible) {
		case 0:
			view.WriteString(DimStyle.Render("No results") + "\n")
		case 1:
			view.WriteString(DimStyle.Render("1 result") + "\n")
		default:
			view.WriteString(DimStyle.Render(fmt.Sprintf("%d results", len(b.visible))) + "\n")
		}
	}
	if b.status != "" {
		view.WriteString(b.status + "\n")
	}
	view.WriteString(DimStyle.Render("[↑↓] Select  [Enter] Details  [Ctrl+R] Resume  [Ctrl+Y] Copy  [Esc] Quit"))

	return view.String()
}

func (b *Browser) viewDetail() string {
	rec := b.Selected()
	if rec == nil {
		b.mode = modeList
		return b.viewList()
	}

	var view strings.Builder

	toolName := rec.Tool
	if p, ok := session.ParserFor(b.parsers, rec.Tool); ok {
		toolName = p.ToolName()
	}
	header := fmt.Sprintf("%s %s", ToolIcon(rec.Tool), GetToolStyle(rec.Tool).Render(toolName))
	view.WriteString(header + DetailHeaderStyle.Render(" · "+rec.SessionID) + "\n\n")

	resumeCmd := ""
	if p, ok := session.ParserFor(b.parsers, rec.Tool); ok {
		resumeCmd = p.ResumeCommand(rec.SessionID)
	}
	meta := []string{
		"project:  " + projectOrDash(rec.ProjectPath),
		"start:    " + session.FormatLocalTime(rec.StartTime),
		"last:     " + session.FormatLocalTime(rec.LastTime),
		fmt.Sprintf("messages: %d", rec.MessageCount),
		"model:    " + orDash(rec.Model),
		"size:     " + session.FormatSize(rec.FileSize),
		"resume:   " + resumeCmd,
	}
	for _, line := range meta {
		view.WriteString(DetailMetaStyle.Render(line) + "\n")
	}
	view.WriteString("\n")

	contentWidth := b.width - 4
	if contentWidth < 30 {
		contentWidth = 30
	}
	lines := b.messageLines(rec, contentWidth)

	visibleLines := b.height - len(meta) - 8
	if visibleLines < 5 {
		visibleLines = 5
	}
	maxScroll := len(lines) - visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if b.detailScroll > maxScroll {
		b.detailScroll = maxScroll
	}
	end := b.detailScroll + visibleLines
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[b.detailScroll:end] {
		view.WriteString(line + "\n")
	}

	if len(lines) > visibleLines {
		view.WriteString(DimStyle.Render(fmt.Sprintf("─── %d/%d lines ───", b.detailScroll+1, len(lines))) + "\n")
	}
	view.WriteString("\n")
	if b.status != "" {
		view.WriteString(b.status + "\n")
	}
	view.WriteString(DimStyle.Render("[↑↓] Scroll  [r] Resume  [c] Copy  [Esc] Back"))

	return view.String()
}

// messageLines renders the manual user messages wrapped to the pane
// width. Injected system text is skipped, as in the plain detail view.
func (b *Browser) messageLines(rec *session.Record, maxWidth int) []string {
	if len(rec.UserMessages) == 0 {
		return []string{DimStyle.Render("(no user messages)")}
	}

	var lines []string
	prefix := "👤 "
	indent := strings.Repeat(" ", runewidth.StringWidth(prefix))
	for _, msg := range rec.UserMessages {
		clean := strings.TrimSpace(msg)
		if clean == "" || strings.HasPrefix(clean, "<") || strings.HasPrefix(clean, "You are") {
			continue
		}
		for j, wrapped := range wrapText(clean, maxWidth-runewidth.StringWidth(prefix)) {
			if j == 0 {
				lines = append(lines, lipgloss.NewStyle().Foreground(ColorGreen).Render(prefix)+DetailMessageStyle.Render(wrapped))
			} else {
				lines = append(lines, indent+DetailMessageStyle.Render(wrapped))
			}
		}
		lines = append(lines, "")
	}
	if len(lines) == 0 {
		return []string{DimStyle.Render("(no user messages)")}
	}
	return lines
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
func wrapText(text string, maxWidth int) []string {
	if maxWidth < 1 || runewidth.StringWidth(text) <= maxWidth {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder
	currentWidth := 0

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)
		if currentWidth == 0 {
			currentLine.WriteString(word)
			currentWidth = wordWidth
		} else if currentWidth+1+wordWidth <= maxWidth {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
			currentWidth += 1 + wordWidth
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
			currentWidth = wordWidth
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return lines
}

// formatRelativeTime renders an age like "2h ago" or "3d ago".
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(diff.Hours()/(24*7)))
	default:
		return t.Format("Jan 2")
	}
}

func projectOrDash(p string) string {
	if p == "" {
		return "(no project)"
	}
	return p
}

func orDash(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
