package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/megamente/internal/chat"
	"github.com/diogo/megamente/internal/models"
	"github.com/diogo/megamente/internal/render"
)

// DefaultTitle is shown in the header when no session is active
const DefaultTitle = "Mega Mente AI"

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Inicializando...")
	}

	main := m.renderMain()
	sidebar := m.renderSidebar(lipgloss.Height(main) - 2)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (m Model) renderMain() string {
	contentWidth := m.mainWidth() - 2
	var sections []string

	// Header
	title := DefaultTitle
	if sess, ok := m.activeSession(); ok {
		title = sess.Title
	}
	headerContent := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		lipgloss.JoinHorizontal(lipgloss.Center,
			subtitleStyle.Render("● Protocolo Neural Ativo"),
			hintStyle.Render("  •  "+m.opts.ModelName),
		),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Messages
	var messagesContent string
	if !m.hasActiveMessages() {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input
	var inputContent string
	if m.state.Busy {
		inputContent = lipgloss.JoinVertical(lipgloss.Left,
			m.renderLoadingAnimation(),
			m.textarea.View(),
		)
	} else {
		inputContent = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("Você"),
			m.textarea.View(),
		)
	}
	panel := inputPanelStyle
	if m.focus == focusComposer {
		panel = panel.BorderForeground(colorPrimary)
	}
	sections = append(sections, panel.Width(contentWidth).Render(inputContent))

	// Status
	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen shown before the first message
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 2

	var cards []string
	for i, s := range Suggestions {
		card := lipgloss.JoinVertical(lipgloss.Left,
			suggestionKeyStyle.Render(fmt.Sprintf("alt+%d", i+1))+"  "+suggestionHeadingStyle.Render(strings.ToUpper(s.Title)),
			s.Text,
		)
		cards = append(cards, suggestionStyle.Width(width).Render(card))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		welcomeIconStyle.Render("✦"),
		"",
		welcomeTitleStyle.Render("O que vamos criar hoje?"),
		welcomeTextStyle.Width(width).Align(lipgloss.Center).Render(
			"Sou a Mega Mente, agora também posso transformar suas palavras em imagens incríveis."),
		"",
		lipgloss.JoinVertical(lipgloss.Left, cards...),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// updateViewport refreshes the viewport with the active session's messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	sess, ok := m.activeSession()
	if !ok {
		m.viewport.SetContent("")
		return
	}

	bubbleWidth := m.viewport.Width - 8
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}
	opts := m.opts.Render.WithWidth(bubbleWidth - 4)

	var content strings.Builder
	for i, msg := range sess.Messages {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(m.renderMessage(msg, bubbleWidth, opts))
		content.WriteString("\n")
	}
	m.viewport.SetContent(content.String())
}

func (m Model) renderMessage(msg models.Message, width int, opts render.Options) string {
	stamp := timestampStyle.Render(formatTimestamp(msg))

	if msg.Role == models.RoleUser {
		label := userLabelStyle.Render("● Você") + "  " + stamp
		return label + "\n" + userBubbleStyle.Width(width).Render(msg.Content)
	}

	label := assistantLabelStyle.Render("✦ Mega Mente") + "  " + stamp

	var body []string
	switch {
	case msg.HasImage():
		body = append(body, m.renderImage(msg, width-4))
		if msg.Content != "" {
			body = append(body, render.MarkdownOrPlain(msg.Content, opts))
		}
	case msg.EffectiveKind() == models.KindImage && msg.IsPlaceholder():
		body = append(body, m.renderImagePending(width-4))
	case msg.IsPlaceholder():
		body = append(body, m.spinner.View()+hintStyle.Render(" pensando..."))
	default:
		body = append(body, render.MarkdownOrPlain(msg.Content, opts))
	}

	bubble := assistantBubbleStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, body...))
	return label + "\n" + bubble
}

// formatTimestamp renders the local HH:MM of a message
func formatTimestamp(msg models.Message) string {
	if msg.Timestamp.IsZero() {
		return ""
	}
	return msg.Timestamp.Local().Format("15:04")
}

// renderLoadingAnimation renders the animated busy indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	frame := m.animationFrame

	spin := lipgloss.NewStyle().
		Foreground(gradientColors[frame%len(gradientColors)]).
		Bold(true).
		Render(chars[frame%len(chars)])

	text := "Mega Mente está pensando"
	if m.state.Phase == chat.PhaseGeneratingImage {
		text = "Mega Mente está criando sua imagem"
	}

	numDots := (frame / 3) % 4
	dots := strings.Repeat("●", numDots) + strings.Repeat("○", 3-numDots)

	return fmt.Sprintf("%s %s %s", spin,
		lipgloss.NewStyle().Foreground(colorText).Render(text),
		lipgloss.NewStyle().Foreground(colorSecondary).Render(dots))
}

// renderStatusBar renders the shortcuts, or the pending confirmation, notice or error
func (m Model) renderStatusBar(width int) string {
	switch {
	case m.confirmDelete != "":
		return statusBarStyle.Width(width).Render(
			confirmStyle.Render(DeletePrompt) + statusDescStyle.Render(" (y/n)"))
	case m.err != nil:
		return statusBarStyle.Width(width).Render(errorStyle.Render("⚠ " + m.err.Error()))
	case m.notice != "":
		return statusBarStyle.Width(width).Render(noticeStyle.Render(m.notice))
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Enviar"},
		{"Alt+Enter", "Nova linha"},
		{"Ctrl+G", "Imagem"},
		{"Ctrl+N", "Novo chat"},
		{"Tab", "Conversas"},
		{"Ctrl+S", "Baixar"},
		{"Ctrl+Y", "Copiar"},
	}
	if m.focus == focusSidebar {
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"↑↓", "Navegar"},
			{"Enter", "Abrir"},
			{"D", "Apagar"},
			{"Tab", "Voltar"},
		}
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Render(strings.Join(items, "  │  "))
}
