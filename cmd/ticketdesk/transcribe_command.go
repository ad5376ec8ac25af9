package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
	"ticketdesk/internal/desk"
	"ticketdesk/internal/services/transcribe"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var speakerLabels bool
	var summarize bool
	var apiKeyFlag string

	cmd := &cobra.Command{
		Use:   "transcribe <ticket> <audio-file>",
		Short: "Transcribe a recording with AssemblyAI and attach it as a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			audio, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open audio: %w", err)
			}
			defer audio.Close()

			tr := transcribe.NewClient(transcribe.Config{
				BaseURL:             cfg.Transcription.BaseURL,
				PollIntervalSeconds: cfg.Transcription.PollIntervalSeconds,
				TimeoutSeconds:      cfg.Transcription.TimeoutSeconds,
			})

			return ctx.withContainer(cmd, func(c *client.Container) error {
				doc := c.State()
				ticket, err := resolveTicket(doc, args[0])
				if err != nil {
					return err
				}
				apiKey := firstNonEmpty(apiKeyFlag, cfg.Transcription.APIKey, doc.Settings.AssemblyAIKey)
				if apiKey == "" {
					return errors.New("no AssemblyAI key: pass --api-key, set transcription.api_key or save one in the web UI settings")
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "Transcribing %s...\n", args[1])
				result, err := tr.Transcribe(cmd.Context(), transcribe.Request{
					APIKey:        apiKey,
					Audio:         audio,
					SpeakerLabels: speakerLabels,
					Summarization: summarize,
				})
				if err != nil {
					return fmt.Errorf("transcribe: %w", err)
				}

				if strings.TrimSpace(result.Text) == "" {
					return errors.New("transcription returned no text")
				}
				id := c.AddNoteWithMetadata(ticket.ID, client.NoteInput{
					Content:    result.Text,
					Source:     desk.SourceAssemblyTranscription,
					Utterances: result.Utterances,
					Summary:    result.Summary,
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Added transcript note %s to ticket %s\n", shortID(id), shortID(ticket.ID))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&speakerLabels, "speakers", true, "Label speakers in the transcript")
	cmd.Flags().BoolVar(&summarize, "summary", false, "Request a bullet summary")
	cmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "AssemblyAI key (default transcription.api_key, then the saved settings key)")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
