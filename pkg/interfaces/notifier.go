package interfaces

// NotificationLevel classifies user-facing notifications.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Notifier surfaces messages to whoever drives the configuration screen
// (HTTP client, CLI). It is the only channel for user-visible validation
// outcomes.
type Notifier interface {
	Success(message string)
	Warning(message string)
	Error(message string)
}
