package client

import (
	"errors"
	"fmt"
	"strings"
)

// CommandKind identifies a parsed input line.
type CommandKind int

const (
	CmdSay CommandKind = iota
	CmdJoin
	CmdLeave
	CmdSwitch
	CmdList
	CmdWho
	CmdExit
	CmdEmpty
)

var ErrUnknownCommand = errors.New("unknown command")

// UsageError reports a command missing its argument.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "Usage: " + e.Usage
}

// Command is one line of user input.
type Command struct {
	Kind    CommandKind
	Channel string
	Text    string
}

// commandWithChannel lists the slash commands that take a channel argument
// and their usage text.
var commandWithChannel = map[string]struct {
	kind  CommandKind
	usage string
}{
	"/join":   {CmdJoin, "/join <channel>"},
	"/leave":  {CmdLeave, "/leave <channel>"},
	"/switch": {CmdSwitch, "/switch <channel>"},
	"/who":    {CmdWho, "/who <channel>"},
}

// ParseCommand interprets a line typed at the prompt. Lines not starting
// with '/' are chat text for the active channel.
func ParseCommand(line string) (Command, error) {
	if !strings.HasPrefix(line, "/") {
		if strings.TrimSpace(line) == "" {
			return Command{Kind: CmdEmpty}, nil
		}
		return Command{Kind: CmdSay, Text: line}, nil
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/list":
		return Command{Kind: CmdList}, nil
	case "/exit":
		return Command{Kind: CmdExit}, nil
	}

	entry, ok := commandWithChannel[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if arg == "" {
		return Command{}, &UsageError{Usage: entry.usage}
	}
	return Command{Kind: entry.kind, Channel: arg}, nil
}
