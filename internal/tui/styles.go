// Package tui provides the terminal user interface for megamente.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/megamente/internal/render"
)

// Color variables (updated from theme)
var (
	colorSurface   lipgloss.Color
	colorBorder    lipgloss.Color
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorText      lipgloss.Color
	colorTextDim   lipgloss.Color
	colorTextMute  lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	// Sidebar
	sidebarStyle         lipgloss.Style
	brandStyle           lipgloss.Style
	newChatStyle         lipgloss.Style
	sectionLabelStyle    lipgloss.Style
	sessionItemStyle     lipgloss.Style
	sessionActiveStyle   lipgloss.Style
	sessionSelectedStyle lipgloss.Style
	emptyListStyle       lipgloss.Style

	// Header
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	// Messages
	messagesAreaStyle    lipgloss.Style
	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style
	timestampStyle       lipgloss.Style

	// Images
	imageFrameStyle   lipgloss.Style
	imageLoadingStyle lipgloss.Style
	imageInfoStyle    lipgloss.Style

	// Input
	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	// Status bar
	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style
	noticeStyle     lipgloss.Style
	confirmStyle    lipgloss.Style
	errorStyle      lipgloss.Style

	// Welcome
	welcomeTitleStyle      lipgloss.Style
	welcomeTextStyle       lipgloss.Style
	welcomeIconStyle       lipgloss.Style
	suggestionStyle        lipgloss.Style
	suggestionKeyStyle     lipgloss.Style
	suggestionHeadingStyle lipgloss.Style
)

// Gradient colors for the loading animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#1e3a8a"),
	lipgloss.Color("#1d4ed8"),
	lipgloss.Color("#2563eb"),
	lipgloss.Color("#3b82f6"),
	lipgloss.Color("#60a5fa"),
	lipgloss.Color("#93c5fd"),
	lipgloss.Color("#60a5fa"),
	lipgloss.Color("#3b82f6"),
}

func init() {
	ApplyTheme(render.MegaMenteTheme)
}

// ApplyTheme refreshes all styles from theme
func ApplyTheme(theme render.TUITheme) {
	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute

	rebuildStyles()
}

func rebuildStyles() {
	sidebarStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	brandStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true).
		MarginBottom(1)

	newChatStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorPrimary).
		Bold(true).
		Padding(0, 1).
		MarginBottom(1)

	sectionLabelStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Bold(true)

	sessionItemStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	sessionActiveStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true)

	sessionSelectedStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Background(colorSurface)

	emptyListStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		Padding(1, 1).
		Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorSecondary)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Foreground(colorText).
		Padding(0, 1).
		MarginLeft(6)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginLeft(6)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(6)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true)

	timestampStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Bold(true)

	imageFrameStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1)

	imageLoadingStyle = lipgloss.NewStyle().
		Foreground(colorSecondary)

	imageInfoStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	noticeStyle = lipgloss.NewStyle().
		Foreground(colorSecondary)

	confirmStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true).
		MarginBottom(1)

	welcomeTextStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	welcomeIconStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	suggestionStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Foreground(colorText).
		Padding(0, 1)

	suggestionKeyStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	suggestionHeadingStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Bold(true)
}
