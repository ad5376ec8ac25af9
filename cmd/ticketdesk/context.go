package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ticketdesk/internal/client"
	"ticketdesk/internal/config"
	"ticketdesk/internal/desk"
	"ticketdesk/internal/logging"
	"ticketdesk/internal/services"
)

type commandContext struct {
	configFlag   *string
	serverFlag   *string
	documentFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, serverFlag, documentFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		serverFlag:   serverFlag,
		documentFlag: documentFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) serverURL() string {
	if c.serverFlag != nil {
		if url := strings.TrimRight(strings.TrimSpace(*c.serverFlag), "/"); url != "" {
			return url
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return ""
	}
	return cfg.ServerURL()
}

func (c *commandContext) layout() (desk.Layout, error) {
	name := "tickets"
	if c.documentFlag != nil && strings.TrimSpace(*c.documentFlag) != "" {
		name = strings.ToLower(strings.TrimSpace(*c.documentFlag))
	}
	for _, layout := range desk.Layouts() {
		if layout.Name == name {
			return layout, nil
		}
	}
	return desk.Layout{}, fmt.Errorf("unknown document %q (expected tickets or incidents)", name)
}

// cliLogger reports warnings on the command's stderr; the server keeps the
// detailed log.
func (c *commandContext) cliLogger() *slog.Logger {
	format := "console"
	if cfg, err := c.ensureConfig(); err == nil && cfg.Logging.Format != "" {
		format = cfg.Logging.Format
	}
	logger, err := logging.New(logging.Options{Level: "warn", Format: format})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withContainer loads the selected document from the server, runs fn and
// flushes any edits before returning.
func (c *commandContext) withContainer(cmd *cobra.Command, fn func(*client.Container) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	layout, err := c.layout()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend := client.NewHTTPBackend(c.serverURL(), layout)
	container := client.New(backend,
		client.WithDebounce(cfg.Debounce()),
		client.WithLogger(c.cliLogger()),
	)
	defer container.Close()

	// Bail out before fn runs so a failed fetch never pushes the default
	// document over the server copy.
	if err := container.Load(ctx); err != nil {
		return wrapServerError(err, backend.BaseURL)
	}
	if err := fn(container); err != nil {
		return err
	}
	if err := container.Flush(ctx); err != nil {
		return fmt.Errorf("save %s: %w", layout.Name, err)
	}
	return nil
}

func wrapServerError(err error, url string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if services.Retryable(err) {
		return fmt.Errorf("reach ticketdesk server at %s: %w (start it with `ticketdesk serve`)", url, err)
	}
	return fmt.Errorf("ticketdesk server at %s: %w", url, err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
