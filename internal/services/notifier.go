package services

// Notifier delivers messages outside the request/reply flow, such as
// announcements and operator alerts. The telegram layer provides the real
// implementation.
type Notifier interface {
	Notify(message string) error
}

// NopNotifier discards every message. Used in tests and before the transport
// is wired up.
type NopNotifier struct{}

func (NopNotifier) Notify(string) error { return nil }
