package session

import (
	"fmt"
	"strings"
)

// CommandKind identifies a slash command typed into the composer.
type CommandKind int

const (
	CommandSelect CommandKind = iota + 1
	CommandNew
	CommandQuit
	CommandHelp
)

// Command is a parsed slash command.
type Command struct {
	Kind CommandKind
	Arg  string
}

// HelpText lists the slash commands.
const HelpText = `/chat <id>  switch to an existing chat
/new        start a new chat
/help       show this help
/quit       leave nagochat`

// ParseCommand recognises slash commands. Any other input, including unknown
// slash words, is a regular message and returns false.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}
	switch strings.ToLower(fields[0]) {
	case "/chat":
		return Command{Kind: CommandSelect, Arg: strings.Join(fields[1:], " ")}, true
	case "/new":
		return Command{Kind: CommandNew}, true
	case "/quit", "/exit":
		return Command{Kind: CommandQuit}, true
	case "/help":
		return Command{Kind: CommandHelp}, true
	}
	return Command{}, false
}

// Result is the visible effect of running a command.
type Result struct {
	Feedback string
	IsError  bool
	Quit     bool
}

// Execute applies cmd to the state.
func (s *State) Execute(cmd Command) Result {
	switch cmd.Kind {
	case CommandSelect:
		if cmd.Arg == "" {
			return Result{Feedback: "usage: /chat <id>", IsError: true}
		}
		s.SelectChat(cmd.Arg)
		return Result{Feedback: fmt.Sprintf("switched to chat %s", s.ChatID())}
	case CommandNew:
		id := s.NewChat()
		return Result{Feedback: fmt.Sprintf("started chat %s", id)}
	case CommandQuit:
		return Result{Quit: true}
	case CommandHelp:
		return Result{Feedback: HelpText}
	}
	return Result{Feedback: "unknown command", IsError: true}
}
