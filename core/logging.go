package core

// Logger is any service that can log leveled messages.
// Extra args are attached to the message as-is; an args entry may carry
// the acting principal so implementations can tag reports with it.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
