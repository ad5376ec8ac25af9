package config

const (
	defaultDataDir                 = "~/.local/share/ticketdesk/data"
	defaultLogDir                  = "~/.local/share/ticketdesk/logs"
	defaultBind                    = "127.0.0.1:3000"
	defaultMaxBodyBytes            = 10 << 20
	defaultShutdownTimeoutSeconds  = 10
	defaultChatBaseURL             = "http://localhost:1234/v1"
	defaultChatModel               = "llama-3.2-3b"
	defaultChatTimeoutSeconds      = 30
	defaultChatTemperature         = 0.7
	defaultChatMaxTokens           = 2048
	defaultTranscriptionBaseURL    = "https://api.assemblyai.com"
	defaultTranscriptionPollSecs   = 3
	defaultTranscriptionTimeoutSec = 600
	defaultDebounceMS              = 500
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultBackupRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:                   defaultBind,
			MaxBodyBytes:           defaultMaxBodyBytes,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		Chat: Chat{
			BaseURL:        defaultChatBaseURL,
			Model:          defaultChatModel,
			TimeoutSeconds: defaultChatTimeoutSeconds,
			Temperature:    defaultChatTemperature,
			MaxTokens:      defaultChatMaxTokens,
		},
		Transcription: Transcription{
			BaseURL:             defaultTranscriptionBaseURL,
			PollIntervalSeconds: defaultTranscriptionPollSecs,
			TimeoutSeconds:      defaultTranscriptionTimeoutSec,
		},
		Sync: Sync{
			DebounceMS: defaultDebounceMS,
		},
		Backup: Backup{
			RetentionDays: defaultBackupRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
