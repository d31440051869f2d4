package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// DeletePrompt is shown before a session is removed
const DeletePrompt = "Deseja apagar esta conversa?"

// updateSidebar handles keys while the session list has focus
func (m Model) updateSidebar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sessions := m.state.Sessions

	switch msg.String() {
	case "esc":
		m.focusComposer()

	case "up", "k":
		if len(sessions) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(sessions) - 1
			}
		}

	case "down", "j":
		if len(sessions) > 0 {
			m.cursor++
			if m.cursor >= len(sessions) {
				m.cursor = 0
			}
		}

	case "enter":
		if m.cursor < len(sessions) {
			if err := m.orch.Select(sessions[m.cursor].ID); err != nil {
				m.err = err
			} else {
				m.err = nil
				m.notice = ""
			}
			m.refresh()
			m.viewport.GotoBottom()
			m.focusComposer()
		}

	case "d", "delete":
		if m.cursor < len(sessions) {
			m.confirmDelete = sessions[m.cursor].ID
		}
	}

	return m, nil
}

// updateConfirm resolves a pending delete
func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "s", "S":
		id := m.confirmDelete
		m.confirmDelete = ""
		if err := m.orch.Delete(id); err != nil {
			m.logger.Warn("delete failed", zap.String("session", id), zap.Error(err))
			m.err = err
		} else {
			m.notice = "Conversa apagada"
		}
		delete(m.reveal, id)
		m.refresh()

	case "n", "N", "esc":
		m.confirmDelete = ""

	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// renderSidebar renders the brand, the new-chat hint and the session list
func (m Model) renderSidebar(height int) string {
	inner := sidebarWidth - 4
	var b strings.Builder

	b.WriteString(brandStyle.Render("✦ Mega Mente"))
	b.WriteString("\n")
	b.WriteString(newChatStyle.Render("+ Novo Chat") + hintStyle.Render(" ctrl+n"))
	b.WriteString("\n\n")
	b.WriteString(sectionLabelStyle.Render("RECENTES"))
	b.WriteString("\n")

	sessions := m.state.Sessions
	if len(sessions) == 0 {
		b.WriteString(emptyListStyle.Width(inner).Render("Sua lista está vazia"))
	} else {
		// rows available below the header lines
		maxItems := height - 7
		if maxItems < 1 {
			maxItems = 1
		}
		start := 0
		if m.cursor >= maxItems {
			start = m.cursor - maxItems + 1
		}
		end := start + maxItems
		if end > len(sessions) {
			end = len(sessions)
		}

		if start > 0 {
			b.WriteString(hintStyle.Render("↑ mais"))
			b.WriteString("\n")
		}
		for i := start; i < end; i++ {
			s := sessions[i]
			marker := "  "
			style := sessionItemStyle
			if s.ID == m.state.ActiveID {
				marker = "● "
				style = sessionActiveStyle
			}
			line := marker + truncate(s.Title, inner-2)
			if m.focus == focusSidebar && i == m.cursor {
				style = sessionSelectedStyle
				line = "▸ " + truncate(s.Title, inner-2)
			}
			b.WriteString(style.Width(inner).Render(line))
			b.WriteString("\n")
		}
		if end < len(sessions) {
			b.WriteString(hintStyle.Render(fmt.Sprintf("↓ mais %d", len(sessions)-end)))
		}
	}

	return sidebarStyle.
		Width(sidebarWidth - 2).
		Height(height).
		Render(b.String())
}

// truncate shortens s to width characters
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
