package badgerstore

import (
	"fmt"
	"log/slog"
	"strings"
)

// logger routes Badger's printf-style logging into slog.
type logger struct {
	log *slog.Logger
}

func newLogger(l *slog.Logger) logger {
	return logger{log: l}
}

func (l logger) Errorf(format string, args ...interface{}) {
	l.log.Error(message(format, args))
}

func (l logger) Warningf(format string, args ...interface{}) {
	l.log.Warn(message(format, args))
}

func (l logger) Infof(format string, args ...interface{}) {
	l.log.Info(message(format, args))
}

func (l logger) Debugf(format string, args ...interface{}) {
	l.log.Debug(message(format, args))
}

func message(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
