package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/jonathan/site-assistant/internal/prompts"
)

// terminalUI shows a waiting indicator while a reply is pending.
type terminalUI struct {
	out io.Writer
}

//nolint:errcheck // writing to stderr; errors are not recoverable
func (u *terminalUI) SetPending(pending bool) {
	if pending {
		fmt.Fprint(u.out, "Thinking...\r")
		return
	}
	fmt.Fprint(u.out, "           \r")
}

func (u *terminalUI) Focus() {}

// terminalPrompter reads the API key from a line of input.
type terminalPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *terminalPrompter) PromptCredential(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chat, err := prompts.LoadChat()
	if err != nil {
		return "", err
	}
	_, _ = fmt.Fprint(p.out, chat.CredentialPrompt)

	scanner := bufio.NewScanner(p.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return "", fmt.Errorf("no API key entered")
	}
	return scanner.Text(), nil
}
