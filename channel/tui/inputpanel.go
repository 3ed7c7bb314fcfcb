package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/nagochat/composer"
)

var sendLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

// InputPanel is the single-line message field with a send label.
// Enter is handled by the App so submission and clearing happen in one step.
type InputPanel struct {
	input         textinput.Model
	label         string
	width, height int
}

// NewInputPanel creates an input panel with the given prompt.
func NewInputPanel(prompt string) *InputPanel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = composer.Placeholder
	ti.Focus()
	return &InputPanel{input: ti, label: "[" + composer.SubmitLabel + "]"}
}

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// Value returns the text currently in the field.
func (p *InputPanel) Value() string {
	return p.input.Value()
}

// SetValue replaces the field text and moves the cursor to the end.
func (p *InputPanel) SetValue(s string) {
	p.input.SetValue(s)
	p.input.CursorEnd()
}

func (p *InputPanel) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, p.input.View(), " ", sendLabelStyle.Render(p.label))
}

func (p *InputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(width-lipgloss.Width(p.input.Prompt)-lipgloss.Width(p.label)-2, 1)
}
