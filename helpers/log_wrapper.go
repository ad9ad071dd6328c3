package helpers

import (
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/rs/zerolog"
)

type gokitLogger struct {
	logger zerolog.Logger
}

// Log writes go-kit key/value pairs as fields of one debug event.
func (l gokitLogger) Log(keyvals ...interface{}) error {
	e := l.logger.Debug()
	for i := 0; i+1 < len(keyvals); i += 2 {
		e = e.Interface(fmt.Sprintf("%v", keyvals[i]), keyvals[i+1])
	}
	if len(keyvals)%2 == 1 {
		e = e.Interface("extra", keyvals[len(keyvals)-1])
	}
	e.Msg("")
	return nil
}

// WrapDebug adapts zerolog for libraries that log through go-kit.
func WrapDebug(logger zerolog.Logger) log.Logger {
	return gokitLogger{logger: logger}
}
