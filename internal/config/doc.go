// Package config loads, normalizes, and validates ticketdesk's TOML
// configuration.
//
// Load resolves the config file (explicit path, ~/.config/ticketdesk/config.toml,
// then ./ticketdesk.toml), decodes it over Default, expands ~ in paths, applies
// environment fallbacks such as ASSEMBLYAI_API_KEY, and runs Validate.
// CreateSample writes the embedded, commented sample for `ticketdesk config init`.
package config
