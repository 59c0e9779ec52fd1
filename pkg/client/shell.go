package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pterm/pterm"

	"github.com/NicolasHaas/chanrelay/pkg/protocol"
)

// Prompt is printed before every input line.
const Prompt = "> "

// Sender is the subset of Client the shell drives.
type Sender interface {
	Logout() error
	Join(channel string) error
	Leave(channel string) error
	Say(channel, text string) error
	List() error
	Who(channel string) error
}

// Shell maps typed commands onto requests and prints server output. Output
// from the receive loop and from command handling share one writer.
type Shell struct {
	sender Sender
	subs   *Subscriptions

	mu  sync.Mutex
	out io.Writer
}

func NewShell(sender Sender, out io.Writer) *Shell {
	return &Shell{sender: sender, subs: NewSubscriptions(), out: out}
}

// Subscriptions exposes the shell's channel state.
func (sh *Shell) Subscriptions() *Subscriptions {
	return sh.subs
}

// JoinDefault joins the startup channel.
func (sh *Shell) JoinDefault(channel string) error {
	if err := sh.sender.Join(channel); err != nil {
		return err
	}
	sh.subs.Join(channel)
	sh.println(pterm.Info.Sprintf("Joined channel '%s'", channel))
	return nil
}

// Execute runs one input line. It returns done once the user has exited.
func (sh *Shell) Execute(line string) (done bool, err error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		sh.warn(err)
		return false, nil
	}

	switch cmd.Kind {
	case CmdEmpty:
		return false, nil
	case CmdExit:
		if err := sh.sender.Logout(); err != nil {
			return true, err
		}
		sh.println("Goodbye.")
		return true, nil
	case CmdJoin:
		if err := sh.sender.Join(cmd.Channel); err != nil {
			return false, err
		}
		sh.subs.Join(cmd.Channel)
		sh.println(pterm.Info.Sprintf("Switched to channel '%s'", cmd.Channel))
	case CmdLeave:
		if err := sh.subs.Leave(cmd.Channel); err != nil {
			sh.warn(err)
			return false, nil
		}
		if err := sh.sender.Leave(cmd.Channel); err != nil {
			return false, err
		}
		if _, err := sh.subs.Active(); err != nil {
			sh.warn(err)
		}
	case CmdSwitch:
		if err := sh.subs.Switch(cmd.Channel); err != nil {
			sh.warn(err)
			return false, nil
		}
		sh.println(pterm.Info.Sprintf("Switched to %s", cmd.Channel))
	case CmdList:
		return false, sh.sender.List()
	case CmdWho:
		return false, sh.sender.Who(cmd.Channel)
	case CmdSay:
		channel, err := sh.subs.Active()
		if err != nil {
			sh.warn(err)
			return false, nil
		}
		return false, sh.sender.Say(channel, cmd.Text)
	}
	return false, nil
}

// HandleResponse prints a server datagram and redraws the prompt.
func (sh *Shell) HandleResponse(resp *protocol.Response) {
	text, ok := FormatResponse(resp)
	if !ok {
		return
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, _ = fmt.Fprintln(sh.out, "\n"+text)
	_, _ = fmt.Fprint(sh.out, Prompt)
}

// Run reads lines from in until /exit, EOF or ctx cancellation.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		sh.mu.Lock()
		_, _ = fmt.Fprint(sh.out, Prompt)
		sh.mu.Unlock()

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("client: read input: %w", err)
			}
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		done, err := sh.Execute(scanner.Text())
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (sh *Shell) println(s string) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, _ = fmt.Fprintln(sh.out, s)
}

func (sh *Shell) warn(err error) {
	sh.println(pterm.Warning.Sprint(err.Error()))
}
