package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	dark "github.com/thiagokokada/dark-mode-go"
)

// Theme names the active color scheme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

var currentTheme Theme = ThemeDark

// palette is one complete color scheme.
type palette struct {
	Bg      lipgloss.Color
	Surface lipgloss.Color
	Border  lipgloss.Color
	Text    lipgloss.Color
	TextDim lipgloss.Color
	Accent  lipgloss.Color
	Purple  lipgloss.Color
	Cyan    lipgloss.Color
	Green   lipgloss.Color
	Yellow  lipgloss.Color
	Orange  lipgloss.Color
	Red     lipgloss.Color
	Comment lipgloss.Color
}

// Tokyo Night
var tokyoNight = palette{
	Bg:      lipgloss.Color("#1a1b26"),
	Surface: lipgloss.Color("#24283b"),
	Border:  lipgloss.Color("#414868"),
	Text:    lipgloss.Color("#c0caf5"),
	TextDim: lipgloss.Color("#787fa0"),
	Accent:  lipgloss.Color("#7aa2f7"),
	Purple:  lipgloss.Color("#bb9af7"),
	Cyan:    lipgloss.Color("#7dcfff"),
	Green:   lipgloss.Color("#9ece6a"),
	Yellow:  lipgloss.Color("#e0af68"),
	Orange:  lipgloss.Color("#ff9e64"),
	Red:     lipgloss.Color("#f7768e"),
	Comment: lipgloss.Color("#787fa0"),
}

// Tokyo Night Light
var tokyoNightLight = palette{
	Bg:      lipgloss.Color("#d5d6db"),
	Surface: lipgloss.Color("#e9e9ec"),
	Border:  lipgloss.Color("#9699a3"),
	Text:    lipgloss.Color("#343b58"),
	TextDim: lipgloss.Color("#6a6d7c"),
	Accent:  lipgloss.Color("#34548a"),
	Purple:  lipgloss.Color("#7847bd"),
	Cyan:    lipgloss.Color("#166775"),
	Green:   lipgloss.Color("#485e30"),
	Yellow:  lipgloss.Color("#8f5e15"),
	Orange:  lipgloss.Color("#965027"),
	Red:     lipgloss.Color("#8c4351"),
	Comment: lipgloss.Color("#6a6d7c"),
}

// Colors of the active palette, assigned by InitTheme.
var (
	ColorBg      lipgloss.Color
	ColorSurface lipgloss.Color
	ColorBorder  lipgloss.Color
	ColorText    lipgloss.Color
	ColorTextDim lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorPurple  lipgloss.Color
	ColorCyan    lipgloss.Color
	ColorGreen   lipgloss.Color
	ColorYellow  lipgloss.Color
	ColorOrange  lipgloss.Color
	ColorRed     lipgloss.Color
	ColorComment lipgloss.Color
)

// themeMu guards the color and style globals while a live theme switch
// rebuilds them. InitTheme takes the write lock, GetToolStyle the read lock.
var themeMu sync.RWMutex

// InitTheme activates the palette for the given theme name ("dark" or
// "light") and rebuilds every style from it. Must run before rendering.
func InitTheme(theme string) {
	themeMu.Lock()
	defer themeMu.Unlock()

	p := tokyoNight
	currentTheme = ThemeDark
	if theme == "light" {
		p = tokyoNightLight
		currentTheme = ThemeLight
	}

	ColorBg = p.Bg
	ColorSurface = p.Surface
	ColorBorder = p.Border
	ColorText = p.Text
	ColorTextDim = p.TextDim
	ColorAccent = p.Accent
	ColorPurple = p.Purple
	ColorCyan = p.Cyan
	ColorGreen = p.Green
	ColorYellow = p.Yellow
	ColorOrange = p.Orange
	ColorRed = p.Red
	ColorComment = p.Comment

	initStyles()
}

// GetCurrentTheme reports which palette is active.
func GetCurrentTheme() Theme {
	return currentTheme
}

// ResolveTheme maps a configured theme name to "dark" or "light".
// "system" asks the OS for its dark mode setting and falls back to
// "dark" when detection fails.
func ResolveTheme(configured string) string {
	switch configured {
	case "light":
		return "light"
	case "system":
		isDark, err := dark.IsDarkMode()
		if err != nil {
			return "dark"
		}
		if isDark {
			return "dark"
		}
		return "light"
	default:
		return "dark"
	}
}

func init() {
	InitTheme("dark")
}

// Base Styles
var (
	TitleStyle   lipgloss.Style
	DimStyle     lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
)

// Search Styles
var SearchBoxStyle lipgloss.Style

// List Item Styles
var (
	ListItemStyle         lipgloss.Style
	ListItemSelectedStyle lipgloss.Style
	ListMetaStyle         lipgloss.Style
)

// Detail Pane Styles
var (
	DetailHeaderStyle  lipgloss.Style
	DetailMetaStyle    lipgloss.Style
	DetailMessageStyle lipgloss.Style
)

// ToolStyleCache holds one prebuilt style per tool so View calls don't
// allocate.
var ToolStyleCache map[string]lipgloss.Style

// DefaultToolStyle covers tools without a cached style.
var DefaultToolStyle lipgloss.Style

// Tool icons
const (
	IconClaude = "🤖"
	IconCodex  = "💻"
)

// initStyles rebuilds the style variables from the active colors. Runs under
// themeMu via InitTheme.
func initStyles() {
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent).
		Background(ColorSurface).
		Padding(0, 1)

	DimStyle = lipgloss.NewStyle().
		Foreground(ColorComment)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(ColorRed).
		Bold(true)

	SuccessStyle = lipgloss.NewStyle().
		Foreground(ColorGreen)

	SearchBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(0, 1).
		Foreground(ColorText)

	ListItemStyle = lipgloss.NewStyle().
		Foreground(ColorText).
		PaddingLeft(2)

	ListItemSelectedStyle = lipgloss.NewStyle().
		Foreground(ColorBg).
		Background(ColorAccent).
		Bold(true)

	ListMetaStyle = lipgloss.NewStyle().
		Foreground(ColorPurple)

	DetailHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorCyan).
		Bold(true)

	DetailMetaStyle = lipgloss.NewStyle().
		Foreground(ColorComment)

	DetailMessageStyle = lipgloss.NewStyle().
		Foreground(ColorText)

	// Claude=orange (Anthropic), Codex=cyan (OpenAI)
	ToolStyleCache = map[string]lipgloss.Style{
		"claude": lipgloss.NewStyle().Foreground(ColorOrange).Bold(true),
		"codex":  lipgloss.NewStyle().Foreground(ColorCyan).Bold(true),
	}

	DefaultToolStyle = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
}

// ToolIcon returns the marker shown next to a session's tool.
func ToolIcon(tool string) string {
	switch tool {
	case "claude":
		return IconClaude
	case "codex":
		return IconCodex
	default:
		return "•"
	}
}

// GetToolStyle returns the cached style for a tool, or the default one.
func GetToolStyle(tool string) lipgloss.Style {
	themeMu.RLock()
	defer themeMu.RUnlock()
	if style, ok := ToolStyleCache[tool]; ok {
		return style
	}
	return DefaultToolStyle
}
