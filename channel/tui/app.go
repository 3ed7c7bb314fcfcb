package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/nagochat/composer"
	"github.com/linanwx/nagochat/session"
)

const (
	defaultLogRatio = 0.25
	defaultPrompt   = "> "
)

var separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// AppConfig wires the TUI to the shared connection and chat state.
type AppConfig struct {
	Prompt         string
	Conn           composer.Conn
	State          *session.State
	NoticeDuration time.Duration
	// OnUserMessage is called after a message has been handed to the
	// connection. It must not block.
	OnUserMessage func(composer.LocalMessage)
}

// App is the root bubbletea model that orchestrates panels and layout.
type App struct {
	logPanel    *LogPanel
	chatPanel   *ChatPanel
	statusPanel *StatusPanel
	toastPanel  *ToastPanel
	inputPanel  *InputPanel

	composer      *composer.Composer
	state         *session.State
	onUserMessage func(composer.LocalMessage)

	// pending collects commands raised by composer callbacks during Update.
	pending []tea.Cmd

	width, height int
	logRatio      float64
}

// NewApp creates the root TUI model.
func NewApp(cfg AppConfig) *App {
	if cfg.Prompt == "" {
		cfg.Prompt = defaultPrompt
	}
	if cfg.State == nil {
		cfg.State = session.NewState("")
	}
	m := &App{
		logPanel:      NewLogPanel(),
		chatPanel:     NewChatPanel(),
		statusPanel:   NewStatusPanel(cfg.State),
		toastPanel:    NewToastPanel(cfg.NoticeDuration),
		inputPanel:    NewInputPanel(cfg.Prompt),
		state:         cfg.State,
		onUserMessage: cfg.OnUserMessage,
		logRatio:      defaultLogRatio,
	}
	m.composer = composer.New(composer.Config{
		Conn:             cfg.Conn,
		ChatID:           cfg.State.ChatID,
		OnNewUserMessage: m.handleUserMessage,
		SetLoading:       cfg.State.SetLoading,
		Notifier:         composer.NotifierFunc(m.notify),
	})
	return m
}

// Composer exposes the draft owner, mainly for tests.
func (m *App) Composer() *composer.Composer {
	return m.composer
}

func (m *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.statusPanel.Init())
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			_, cmd := m.chatPanel.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		default:
			_, cmd := m.inputPanel.Update(msg)
			m.composer.SetDraft(m.inputPanel.Value())
			cmds = append(cmds, cmd)
		}

	case LogLineMsg:
		_, cmd := m.logPanel.Update(msg)
		cmds = append(cmds, cmd)

	case ChatMsg, SystemMsg, ClearChatMsg:
		_, cmd := m.chatPanel.Update(msg)
		cmds = append(cmds, cmd)

	case ConnStateMsg:
		_, cmd := m.statusPanel.Update(msg)
		cmds = append(cmds, cmd)

	case NoticeMsg, noticeExpiredMsg:
		_, cmd := m.toastPanel.Update(msg)
		cmds = append(cmds, cmd)

	default:
		// Spinner ticks and cursor blinks.
		_, cmd := m.statusPanel.Update(msg)
		cmds = append(cmds, cmd)
		_, cmd = m.inputPanel.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.pending...)
	m.pending = nil
	return m, tea.Batch(cmds...)
}

// submit handles Enter. The field is synced to the composer's draft before
// returning so a repeated Enter never sees the submitted text again.
func (m *App) submit() tea.Cmd {
	text := m.inputPanel.Value()
	if c, ok := session.ParseCommand(text); ok {
		return m.runCommand(c)
	}
	m.composer.SetDraft(text)
	m.composer.Submit()
	m.inputPanel.SetValue(m.composer.Draft())
	return nil
}

func (m *App) runCommand(c session.Command) tea.Cmd {
	res := m.state.Execute(c)
	if res.Quit {
		return tea.Quit
	}

	level := composer.LevelInfo
	if res.IsError {
		level = composer.LevelError
	}

	switch c.Kind {
	case session.CommandHelp:
		m.chatPanel.Update(SystemMsg{Text: res.Feedback})
	case session.CommandSelect, session.CommandNew:
		if !res.IsError {
			m.chatPanel.Update(ClearChatMsg{})
		}
	}
	if !res.IsError {
		m.inputPanel.SetValue("")
		m.composer.SetDraft("")
	}
	if c.Kind == session.CommandHelp {
		return nil
	}
	return m.toastPanel.Show(composer.Notice{Level: level, Text: res.Feedback})
}

func (m *App) handleUserMessage(msg composer.LocalMessage) {
	m.state.AppendMessage(msg)
	m.chatPanel.Update(ChatMsg{Sender: msg.Sender, Text: msg.Content, IsUser: msg.IsUser()})
	if m.onUserMessage != nil {
		m.onUserMessage(msg)
	}
}

func (m *App) notify(n composer.Notice) {
	m.pending = append(m.pending, m.toastPanel.Show(n))
}

func (m *App) View() string {
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	sep := separatorStyle.Render(strings.Repeat("─", m.width))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.logPanel.View(),
		sep,
		m.chatPanel.View(),
		sep,
		m.statusPanel.View(),
		m.toastPanel.View(),
		m.inputPanel.View(),
	)
}

func (m *App) recalcLayout() {
	const lineH = 1 // status, toast and input rows
	const sepLines = 2

	usable := max(m.height-3*lineH-sepLines, 2)
	logH := max(int(float64(usable)*m.logRatio), 1)
	chatH := max(usable-logH, 1)

	m.logPanel.SetSize(m.width, logH)
	m.chatPanel.SetSize(m.width, chatH)
	m.statusPanel.SetSize(m.width, lineH)
	m.toastPanel.SetSize(m.width, lineH)
	m.inputPanel.SetSize(m.width, lineH)
}
