package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateUpstreams(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return errors.New("chat.temperature must be between 0 and 2")
	}
	if c.Sync.DebounceMS < 0 {
		return errors.New("sync.debounce_ms must not be negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q must be host:port: %w", c.Server.Bind, err)
	}
	return ensurePositiveMap(map[string]int{
		"server.shutdown_timeout_seconds":     c.Server.ShutdownTimeoutSeconds,
		"chat.timeout_seconds":                c.Chat.TimeoutSeconds,
		"chat.max_tokens":                     c.Chat.MaxTokens,
		"transcription.poll_interval_seconds": c.Transcription.PollIntervalSeconds,
		"transcription.timeout_seconds":       c.Transcription.TimeoutSeconds,
	})
}

func (c *Config) validateUpstreams() error {
	for key, value := range map[string]string{
		"chat.base_url":          c.Chat.BaseURL,
		"transcription.base_url": c.Transcription.BaseURL,
		"sync.server_url":        c.Sync.ServerURL,
	} {
		if value == "" && key == "sync.server_url" {
			continue
		}
		parsed, err := url.Parse(value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("%s %q must be an http(s) URL", key, value)
		}
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
