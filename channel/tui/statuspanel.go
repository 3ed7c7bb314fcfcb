package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/nagochat/session"
)

var (
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	disconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// StatusPanel is a one-line summary: active chat, connection state and a
// spinner while a reply is awaited.
type StatusPanel struct {
	state     *session.State
	spinner   spinner.Model
	connState string
	width     int
}

// NewStatusPanel creates a status line reading from state.
func NewStatusPanel(state *session.State) *StatusPanel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &StatusPanel{state: state, spinner: sp, connState: "connecting"}
}

// Init starts the spinner animation.
func (p *StatusPanel) Init() tea.Cmd {
	return p.spinner.Tick
}

func (p *StatusPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case ConnStateMsg:
		p.connState = msg.State
		return p, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *StatusPanel) View() string {
	chat := p.state.ChatID()
	if chat == "" {
		chat = "none (/new or /chat <id>)"
	}

	conn := disconnectedStyle.Render(p.connState)
	if p.connState == "connected" {
		conn = connectedStyle.Render(p.connState)
	}

	parts := []string{"chat: " + chat, conn}
	if p.state.Loading() {
		parts = append(parts, p.spinner.View()+" waiting for reply")
	}
	line := strings.Join(parts, statusStyle.Render(" · "))
	return statusStyle.MaxWidth(max(p.width, 1)).Render(line)
}

func (p *StatusPanel) SetSize(width, _ int) {
	p.width = width
}
