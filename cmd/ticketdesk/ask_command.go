package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
	"ticketdesk/internal/desk"
	"ticketdesk/internal/services/chat"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	var modelFlag string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the chat assistant about the current tickets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var doc desk.Document
			if err := ctx.withContainer(cmd, func(c *client.Container) error {
				doc = c.State()
				return nil
			}); err != nil {
				return err
			}

			model := strings.TrimSpace(modelFlag)
			if model == "" {
				model = doc.Settings.LMStudioModel
			}
			chatClient := chat.NewClient(chat.Config{
				BaseURL:        cfg.Chat.BaseURL,
				Model:          cfg.Chat.Model,
				Temperature:    cfg.Chat.Temperature,
				MaxTokens:      cfg.Chat.MaxTokens,
				TimeoutSeconds: cfg.Chat.TimeoutSeconds,
			})

			stdout := cmd.OutOrStdout()
			messages := chat.AssistantMessages(desk.Digest(doc), nil, question)
			_, err = chatClient.Stream(cmd.Context(), model, messages, func(chunk string) error {
				_, werr := fmt.Fprint(stdout, chunk)
				return werr
			})
			fmt.Fprintln(stdout)
			if err != nil {
				return fmt.Errorf("chat with %s: %w", cfg.Chat.BaseURL, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modelFlag, "model", "", "Model id (default settings.lmStudioModel, then chat.model)")
	return cmd
}
