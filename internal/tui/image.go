package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/megamente/internal/download"
	"github.com/diogo/megamente/internal/models"
)

// renderImagePending renders the loading block of an image still being generated
func (m Model) renderImagePending(width int) string {
	frame := m.animationFrame
	var dots strings.Builder
	for i := 0; i < 3; i++ {
		// each dot bounces a little later than the previous one
		if (frame+i*2)%6 < 3 {
			dots.WriteString("● ")
		} else {
			dots.WriteString("· ")
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		imageLoadingStyle.Render(m.spinner.View()+" gerando imagem"),
		imageLoadingStyle.Render(strings.TrimSpace(dots.String())),
	)
	return imageFrameStyle.Width(width).Align(lipgloss.Center).Render(content)
}

// renderImage renders a generated image card. Right after generation the card
// fills in over a few animation frames before showing its details.
func (m Model) renderImage(msg models.Message, width int) string {
	if left, revealing := m.reveal[msg.ID]; revealing {
		barWidth := width - 6
		if barWidth < 10 {
			barWidth = 10
		}
		filled := barWidth * (revealFrames - left) / revealFrames
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		return imageFrameStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
			imageLoadingStyle.Render("revelando imagem"),
			lipgloss.NewStyle().Foreground(gradientColors[m.animationFrame%len(gradientColors)]).Render(bar),
		))
	}

	mime, size := describeDataURI(msg.ImageURL)
	info := fmt.Sprintf("🖼  Imagem gerada  %s  %s", mime, formatBytes(size))
	return imageFrameStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		imageInfoStyle.Render(info),
		hintStyle.Render("ctrl+s para baixar "+download.DefaultFilename),
	))
}

// describeDataURI returns the MIME type and approximate decoded size of a
// base64 data URI without decoding it
func describeDataURI(uri string) (string, int) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return "imagem", 0
	}
	mime := strings.TrimSuffix(header, ";base64")
	size := len(payload) * 3 / 4
	size -= strings.Count(payload[max(0, len(payload)-2):], "=")
	return mime, size
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// downloadLatestImage saves the newest image of the active session
func (m Model) downloadLatestImage() tea.Cmd {
	msg, ok := m.latestModelMessage(models.Message.HasImage)
	if !ok {
		return func() tea.Msg {
			return downloadedMsg{err: fmt.Errorf("nenhuma imagem nesta conversa")}
		}
	}

	uri, dir := msg.ImageURL, m.opts.DownloadDir
	return func() tea.Msg {
		path, err := download.SaveDataURI(uri, dir, download.DefaultFilename)
		return downloadedMsg{path: path, err: err}
	}
}

// copyLatestReply copies the newest model text of the active session
func (m Model) copyLatestReply() tea.Cmd {
	msg, ok := m.latestModelMessage(func(msg models.Message) bool { return msg.Content != "" })
	if !ok {
		return func() tea.Msg {
			return copiedMsg{err: fmt.Errorf("nenhuma resposta para copiar")}
		}
	}
	return m.copyText(msg.Content)
}

func (m Model) copyText(text string) tea.Cmd {
	write := m.writeClipboard
	return func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}
