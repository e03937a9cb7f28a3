package logging

import "github.com/sirupsen/logrus"

// Logrus adapts a *logrus.Logger to the Logger interface. Apart from
// cmd/ibsimd, which imports logrus only to hand its standard logger to
// NewLogrus, this is the only file in this module that imports logrus.
type Logrus struct {
	L *logrus.Logger
}

func NewLogrus(l *logrus.Logger) Logrus {
	return Logrus{L: l}
}

func (a Logrus) Log(level Level, msg string, kv ...any) {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	entry := a.L.WithFields(fields)
	switch level {
	case LevelDebug:
		entry.Debug(msg)
	case LevelWarn:
		entry.Warn(msg)
	case LevelError:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}
