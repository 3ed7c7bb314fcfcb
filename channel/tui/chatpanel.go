package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/nagochat/mdterm"
)

var (
	userMsgStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // cyan
	senderStyle    = lipgloss.NewStyle().Bold(true)
	systemMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// ChatPanel displays conversation history in a scrollable viewport.
type ChatPanel struct {
	viewport viewport.Model
	entries  []string
	width    int
}

// NewChatPanel creates a chat panel.
func NewChatPanel() *ChatPanel {
	vp := viewport.New(0, 0)
	vp.SetContent("")
	return &ChatPanel{viewport: vp}
}

func (p *ChatPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case ChatMsg:
		if msg.IsUser {
			p.add(userMsgStyle.Render("> " + msg.Text))
		} else {
			label := msg.Sender
			if label == "" {
				label = "Assistant"
			}
			p.add(senderStyle.Render(label+":") + "\n" + mdterm.Render(msg.Text))
		}
		return p, nil
	case SystemMsg:
		p.add(systemMsgStyle.Render(msg.Text))
		return p, nil
	case ClearChatMsg:
		p.entries = nil
		p.refresh()
		return p, nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

func (p *ChatPanel) add(entry string) {
	p.entries = append(p.entries, entry)
	p.refresh()
}

func (p *ChatPanel) refresh() {
	content := strings.Join(p.entries, "\n")
	if p.width > 0 {
		content = lipgloss.NewStyle().Width(p.width).Render(content)
	}
	p.viewport.SetContent(content)
	p.viewport.GotoBottom()
}

func (p *ChatPanel) View() string {
	return p.viewport.View()
}

func (p *ChatPanel) SetSize(width, height int) {
	p.width = width
	p.viewport.Width = width
	p.viewport.Height = height
	p.refresh()
}
