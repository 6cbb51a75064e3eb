package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/site-assistant/internal/llm"
	"github.com/jonathan/site-assistant/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat <message...>",
	Short: "Ask a question about the loaded sources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the conversation",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(chatCmd, historyCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if a.state.Registry.Len() == 0 {
			return errNoSources
		}
		chat, err := a.chatSession(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}

		turn, err := chat.Send(ctx, strings.Join(args, " "))
		if errors.Is(err, llm.ErrModelBackend) {
			// The failure is already part of the transcript
			a.printer.PrintTurn(turn)
			return err
		}
		if errors.Is(err, session.ErrMissingCredential) {
			return fmt.Errorf("%w: set GEMINI_API_KEY or enter a key when prompted", err)
		}
		if err != nil {
			return err
		}
		a.printer.PrintTurn(turn)
		return nil
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		a.printer.PrintTranscript(a.state.History)
		return nil
	})
}
