package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/nagochat/composer"
)

const defaultNoticeDuration = 3 * time.Second

var (
	toastErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	toastInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

// ToastPanel shows the latest notice until it expires. A newer notice
// replaces the current one and restarts the timer.
type ToastPanel struct {
	notice   *composer.Notice
	seq      int
	duration time.Duration
	width    int
}

// NewToastPanel creates a toast line whose notices last for d.
func NewToastPanel(d time.Duration) *ToastPanel {
	if d <= 0 {
		d = defaultNoticeDuration
	}
	return &ToastPanel{duration: d}
}

// Show displays n and returns the command that expires it.
func (p *ToastPanel) Show(n composer.Notice) tea.Cmd {
	p.seq++
	seq := p.seq
	p.notice = &n
	return tea.Tick(p.duration, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })
}

// Current returns the visible notice, if any.
func (p *ToastPanel) Current() (composer.Notice, bool) {
	if p.notice == nil {
		return composer.Notice{}, false
	}
	return *p.notice, true
}

func (p *ToastPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case NoticeMsg:
		return p, p.Show(msg.Notice)
	case noticeExpiredMsg:
		if msg.seq == p.seq {
			p.notice = nil
		}
	}
	return p, nil
}

func (p *ToastPanel) View() string {
	if p.notice == nil {
		return ""
	}
	style := toastInfoStyle
	prefix := "• "
	if p.notice.Level == composer.LevelError {
		style = toastErrorStyle
		prefix = "✗ "
	}
	return style.MaxWidth(max(p.width, 1)).Render(prefix + p.notice.Text)
}

func (p *ToastPanel) SetSize(width, _ int) {
	p.width = width
}
