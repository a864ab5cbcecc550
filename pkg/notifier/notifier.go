// Package notifier sends desktop notifications when a run finishes
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/poltergeist/cmakext/pkg/logger"
)

// SendFunc delivers one notification
type SendFunc func(title, message string) error

// BuildNotifier handles build notifications
type BuildNotifier struct {
	enabled bool
	beep    bool
	logger  logger.Logger
	send    SendFunc
	alert   func() error
}

// Config represents notification configuration
type Config struct {
	Enabled bool
	// Beep plays the system beep on failure
	Beep bool
}

// New creates a notifier backed by beeep
func New(config Config, log logger.Logger) *BuildNotifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &BuildNotifier{
		enabled: config.Enabled,
		beep:    config.Beep,
		logger:  log,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		alert: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
}

// WithSender replaces the delivery function, mainly for tests
func (n *BuildNotifier) WithSender(send SendFunc) *BuildNotifier {
	n.send = send
	n.alert = func() error { return nil }
	return n
}

// NotifyRunSuccess reports a finished run
func (n *BuildNotifier) NotifyRunSuccess(count int, duration time.Duration) {
	if !n.enabled {
		return
	}
	n.sendNotification("✅ cmakext", fmt.Sprintf("%d extension(s) built in %s", count, formatDuration(duration)))
}

// NotifyRunFailure reports the extension that stopped the run
func (n *BuildNotifier) NotifyRunFailure(extension string, err error) {
	if !n.enabled {
		return
	}
	n.sendNotification("❌ cmakext", fmt.Sprintf("%s: %v", extension, err))
	if n.beep {
		if err := n.alert(); err != nil {
			n.logger.Debug("Failed to play sound", logger.WithField("error", err))
		}
	}
}

func (n *BuildNotifier) sendNotification(title, message string) {
	if err := n.send(title, message); err != nil {
		// Headless hosts have no notification daemon; fall back to the log
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
		n.logger.Info(fmt.Sprintf("%s: %s", title, message))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
