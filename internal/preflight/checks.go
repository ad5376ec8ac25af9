package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"ticketdesk/internal/config"
	"ticketdesk/internal/services/chat"
)

const chatCheckTimeout = 5 * time.Second

// CheckChatUpstream verifies the chat completion server answers /models.
// It uses a short timeout and a single attempt.
func CheckChatUpstream(ctx context.Context, cfg config.Chat) Result {
	checkCtx, cancel := context.WithTimeout(ctx, chatCheckTimeout)
	defer cancel()

	client := chat.NewClient(chat.Config{
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		TimeoutSeconds: int(chatCheckTimeout / time.Second),
	}, chat.WithRetryMaxAttempts(1))

	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: NameChat, Detail: summarizeUpstreamError(cfg.BaseURL, err)}
	}
	return Result{Name: NameChat, Passed: true, Detail: fmt.Sprintf("%s (model %s)", cfg.BaseURL, client.Model())}
}

// CheckTranscriptionKey reports whether a default AssemblyAI key is
// configured. Requests may still carry their own key, so a missing one
// passes with a note.
func CheckTranscriptionKey(cfg config.Transcription) Result {
	if cfg.APIKey == "" {
		return Result{Name: NameTranscription, Passed: true, Detail: "no default api key (requests must supply one)"}
	}
	return Result{Name: NameTranscription, Passed: true, Detail: "default api key configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

func summarizeUpstreamError(baseURL string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s (timed out)", baseURL)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("%s (timed out)", baseURL)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("%s (unreachable)", baseURL)
	}
	return err.Error()
}
