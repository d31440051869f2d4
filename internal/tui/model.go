package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/megamente/internal/chat"
	apierrors "github.com/diogo/megamente/internal/errors"
	"github.com/diogo/megamente/internal/models"
	"github.com/diogo/megamente/internal/render"
	"github.com/diogo/megamente/internal/router"
)

const (
	sidebarWidth = 30
	revealFrames = 12
	eventBuffer  = 64
)

// Suggestion is a welcome-screen prompt
type Suggestion struct {
	Title string
	Text  string
}

// Suggestions are offered on the welcome screen, selectable with alt+1..alt+4
var Suggestions = []Suggestion{
	{Title: "Arte Visual", Text: "Gere uma imagem de um astronauta surfando no espaço"},
	{Title: "Programação", Text: "Como criar um carrossel em React?"},
	{Title: "Design", Text: "Gere uma imagem de uma cidade cyberpunk"},
	{Title: "Conversa", Text: "Qual o sentido da vida?"},
}

// Message types for the TUI
type (
	animationTickMsg time.Time

	// eventMsg carries one orchestrator event
	eventMsg chat.Event

	// eventsClosedMsg is sent once the turn's event channel is drained
	eventsClosedMsg struct{}

	downloadedMsg struct {
		path string
		err  error
	}

	copiedMsg struct {
		err error
	}
)

type focusArea int

const (
	focusComposer focusArea = iota
	focusSidebar
)

// Options configures the TUI
type Options struct {
	ModelName       string
	DownloadDir     string
	Render          render.Options
	CopyToClipboard bool // copy every finished text reply
	Logger          *zap.Logger
}

// Model represents the TUI state
type Model struct {
	orch   *chat.Orchestrator
	opts   Options
	logger *zap.Logger

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	state          chat.State
	focus          focusArea
	cursor         int    // sidebar selection
	confirmDelete  string // session awaiting y/n
	events         <-chan chat.Event
	reveal         map[string]int // message id -> remaining reveal frames
	animating      bool
	animationFrame int
	notice         string
	err            error
	ready          bool

	// Dimensions
	width  int
	height int

	writeClipboard func(string) error
}

// NewModel creates the chat TUI over orch
func NewModel(orch *chat.Orchestrator, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Pergunte algo ou peça: 'Gere uma imagem de...'"
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Render.Style == "" {
		opts.Render = render.DefaultOptions()
	}

	m := Model{
		orch:           orch,
		opts:           opts,
		logger:         logger,
		textarea:       ta,
		spinner:        s,
		reveal:         make(map[string]int),
		writeClipboard: clipboard.WriteAll,
	}
	m.refresh()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// waitForEvent blocks on the turn's channel and delivers the next event
func waitForEvent(ch <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.confirmDelete != "" {
			return m.updateConfirm(msg)
		}
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
		if m.focus == focusSidebar {
			return m.updateSidebar(msg)
		}
		if handled, next, cmd := m.handleComposerKey(msg); handled {
			return next, cmd
		}
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)

	case eventMsg:
		cmds = append(cmds, m.handleEvent(chat.Event(msg)))

	case eventsClosedMsg:
		m.events = nil
		m.refresh()

	case downloadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.notice = ""
		} else {
			m.err = nil
			m.notice = "Imagem salva em " + msg.path
		}

	case copiedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.notice = "Resposta copiada"
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case animationTickMsg:
		m.animationFrame++
		for id, left := range m.reveal {
			if left <= 1 {
				delete(m.reveal, id)
			} else {
				m.reveal[id] = left - 1
			}
		}
		m.updateViewport()
		if m.state.Busy || len(m.reveal) > 0 {
			cmds = append(cmds, animationTick())
		} else {
			m.animating = false
		}
	}

	if _, isKey := msg.(tea.KeyMsg); !isKey {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4
	inputHeight := 5
	statusHeight := 1

	vpHeight := height - headerHeight - inputHeight - statusHeight - 2
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.mainWidth() - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 2)
	m.updateViewport()
	m.viewport.GotoBottom()
}

func (m Model) mainWidth() int {
	w := m.width - sidebarWidth
	if w < 30 {
		w = 30
	}
	return w
}

// handleGlobalKey processes keys that work in every focus area
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return true, m, tea.Quit

	case "ctrl+n":
		m.orch.NewChat()
		m.notice = ""
		m.err = nil
		m.refresh()
		m.focusComposer()
		return true, m, nil

	case "tab":
		if m.focus == focusSidebar {
			m.focusComposer()
		} else {
			m.focus = focusSidebar
			m.textarea.Blur()
			m.cursor = m.activeIndex()
		}
		return true, m, nil

	case "ctrl+s":
		return true, m, m.downloadLatestImage()

	case "ctrl+y":
		return true, m, m.copyLatestReply()
	}
	return false, m, nil
}

// handleComposerKey processes keys for the input area
func (m Model) handleComposerKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if strings.TrimSpace(m.textarea.Value()) == "" && !m.state.Busy {
			return true, m, tea.Quit
		}
		m.textarea.Reset()
		return true, m, nil

	case "enter":
		next, cmd := m.submit()
		return true, next, cmd

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return true, m, cmd

	case "ctrl+g":
		m.textarea.SetValue(router.ImagePromptPrefix)
		m.textarea.CursorEnd()
		return true, m, nil

	case "alt+1", "alt+2", "alt+3", "alt+4":
		if m.hasActiveMessages() {
			return false, m, nil
		}
		idx := int(msg.Runes[0] - '1')
		m.textarea.SetValue(Suggestions[idx].Text)
		m.textarea.CursorEnd()
		return true, m, nil
	}
	return false, m, nil
}

// submit starts a turn for the composer text
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := m.textarea.Value()
	if strings.TrimSpace(input) == "" {
		return m, nil
	}

	turn, err := m.orch.Begin(input)
	if err != nil {
		if errors.Is(err, apierrors.ErrBusy) {
			m.notice = "Aguarde a resposta atual terminar"
			return m, nil
		}
		m.err = err
		return m, nil
	}

	m.textarea.Reset()
	m.notice = ""
	m.err = nil
	m.refresh()
	m.viewport.GotoBottom()

	ch := make(chan chat.Event, eventBuffer)
	m.events = ch

	orch := m.orch
	run := func() tea.Msg {
		orch.Run(context.Background(), turn, ch)
		return nil
	}

	cmds := []tea.Cmd{run, waitForEvent(ch), m.spinner.Tick}
	if !m.animating {
		m.animating = true
		cmds = append(cmds, animationTick())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleEvent(ev chat.Event) tea.Cmd {
	m.refresh()

	var cmds []tea.Cmd
	switch ev.Type {
	case chat.EventImage:
		if msg, ok := m.findMessage(ev.SessionID, ev.MessageID); ok && msg.HasImage() {
			m.reveal[ev.MessageID] = revealFrames
			if !m.animating {
				m.animating = true
				cmds = append(cmds, animationTick())
			}
		}

	case chat.EventSettled:
		if ev.Err != nil {
			m.logger.Debug("turn settled with error", zap.Error(ev.Err))
		} else if m.opts.CopyToClipboard {
			if msg, ok := m.findMessage(ev.SessionID, ev.MessageID); ok && msg.Kind == models.KindText && msg.Content != "" {
				cmds = append(cmds, m.copyText(msg.Content))
			}
		}
	}

	if ev.SessionID == m.state.ActiveID {
		m.viewport.GotoBottom()
	}
	if m.events != nil {
		cmds = append(cmds, waitForEvent(m.events))
	}
	return tea.Batch(cmds...)
}

// refresh reloads the orchestrator snapshot and re-renders messages
func (m *Model) refresh() {
	m.state = m.orch.State()
	if m.cursor >= len(m.state.Sessions) {
		m.cursor = len(m.state.Sessions) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.updateViewport()
}

func (m *Model) focusComposer() {
	m.focus = focusComposer
	m.textarea.Focus()
}

func (m Model) activeIndex() int {
	for i, s := range m.state.Sessions {
		if s.ID == m.state.ActiveID {
			return i
		}
	}
	return 0
}

func (m Model) activeSession() (models.Session, bool) {
	return m.state.ActiveSession()
}

func (m Model) hasActiveMessages() bool {
	sess, ok := m.activeSession()
	if !ok {
		return false
	}
	_, ok = sess.LastMessage()
	return ok
}

func (m Model) findMessage(sessionID, messageID string) (models.Message, bool) {
	for _, s := range m.state.Sessions {
		if s.ID != sessionID {
			continue
		}
		if i := s.FindMessage(messageID); i >= 0 {
			return s.Messages[i], true
		}
	}
	return models.Message{}, false
}

// latestModelMessage returns the newest model message in the active session accepted by keep
func (m Model) latestModelMessage(keep func(models.Message) bool) (models.Message, bool) {
	sess, ok := m.activeSession()
	if !ok {
		return models.Message{}, false
	}
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		msg := sess.Messages[i]
		if msg.Role == models.RoleModel && keep(msg) {
			return msg, true
		}
	}
	return models.Message{}, false
}

// RunChat starts the chat TUI
func RunChat(orch *chat.Orchestrator, opts Options) error {
	p := tea.NewProgram(
		NewModel(orch, opts),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
