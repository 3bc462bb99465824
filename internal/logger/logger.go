package logger

type Fields map[string]any

// Logger is the logging surface used across ytscribe.
type Logger interface {
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	WithFields(fields Fields) Logger
	WithField(key string, value any) Logger
	WithError(err error) Logger
}

// Noop discards everything. Used by the one-shot CLI when logs are muted.
type Noop struct{}

func (Noop) Trace(...any)                   {}
func (Noop) Debug(...any)                   {}
func (Noop) Info(...any)                    {}
func (Noop) Warn(...any)                    {}
func (Noop) Error(...any)                   {}
func (Noop) Fatal(...any)                   {}
func (n Noop) WithFields(Fields) Logger     { return n }
func (n Noop) WithField(string, any) Logger { return n }
func (n Noop) WithError(error) Logger       { return n }
