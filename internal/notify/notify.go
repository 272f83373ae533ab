// Package notify provides Notifier implementations for the configuration
// screen: a collector drained by HTTP responses and a logger-backed sink for
// the CLI.
package notify

import (
	"sync"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// Notification is one user-facing message.
type Notification struct {
	Level   interfaces.NotificationLevel `json:"level"`
	Message string                       `json:"message"`
}

// Collector buffers notifications until they are drained.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

var _ interfaces.Notifier = (*Collector)(nil)

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Success(message string) { c.add(interfaces.NotificationSuccess, message) }
func (c *Collector) Warning(message string) { c.add(interfaces.NotificationWarning, message) }
func (c *Collector) Error(message string)   { c.add(interfaces.NotificationError, message) }

func (c *Collector) add(level interfaces.NotificationLevel, message string) {
	c.mu.Lock()
	c.items = append(c.items, Notification{Level: level, Message: message})
	c.mu.Unlock()
}

// Drain returns the buffered notifications and empties the buffer.
func (c *Collector) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items
	c.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

// Peek returns a copy of the buffered notifications.
func (c *Collector) Peek() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification{}, c.items...)
}

type logNotifier struct {
	logger interfaces.Logger
}

// Log writes notifications to logger.
func Log(logger interfaces.Logger) interfaces.Notifier {
	if logger == nil {
		logger = logging.NoOp()
	}
	return logNotifier{logger: logger}
}

func (l logNotifier) Success(message string) { l.logger.Info("notification", "level", "success", "message", message) }
func (l logNotifier) Warning(message string) { l.logger.Warn("notification", "level", "warning", "message", message) }
func (l logNotifier) Error(message string)   { l.logger.Error("notification", "level", "error", "message", message) }

type fanout []interfaces.Notifier

// Multi forwards every notification to each non-nil notifier.
func Multi(notifiers ...interfaces.Notifier) interfaces.Notifier {
	out := make(fanout, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (f fanout) Success(message string) {
	for _, n := range f {
		n.Success(message)
	}
}

func (f fanout) Warning(message string) {
	for _, n := range f {
		n.Warning(message)
	}
}

func (f fanout) Error(message string) {
	for _, n := range f {
		n.Error(message)
	}
}

// Discard drops every notification.
func Discard() interfaces.Notifier { return fanout(nil) }
