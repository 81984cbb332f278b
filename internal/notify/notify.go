// Package notify shows desktop notifications for failures that happen while
// the user may not be looking at the terminal.
package notify

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

const maxMessage = 100

// send is swapped in tests.
var send = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

type Notifier struct {
	app     string
	enabled bool
	logger  *slog.Logger
}

func New(app string, enabled bool, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{app: app, enabled: enabled, logger: logger}
}

// Error reports a failed pipeline stage.
func (n *Notifier) Error(stage, message string) {
	n.notify(stage+" failed", message)
}

// Info shows a plain message.
func (n *Notifier) Info(message string) {
	n.notify("", message)
}

func (n *Notifier) notify(title, message string) {
	if n == nil || !n.enabled {
		return
	}

	message = strings.TrimSpace(message)
	if len(message) > maxMessage {
		message = message[:maxMessage] + "..."
	}

	full := n.app
	if title != "" {
		full += ": " + title
	}

	// Notifications are best effort.
	if err := send(full, message); err != nil {
		n.logger.Debug("desktop notification failed", "error", err)
	}
}
