package api

import (
	"fmt"
	"io"

	echolog "github.com/labstack/gommon/log"

	"github.com/tphakala/orderlens/internal/logger"
)

// echoLogger routes echo's own log output, such as recovered panics and
// server errors, through the application logger. The embedded gommon logger
// only backs the methods echo never calls on the request path and writes
// nowhere.
type echoLogger struct {
	*echolog.Logger
	log logger.Logger
}

func newEchoLogger(log logger.Logger) *echoLogger {
	base := echolog.New("echo")
	base.SetOutput(io.Discard)
	return &echoLogger{Logger: base, log: log}
}

func (l *echoLogger) Print(i ...any)                 { l.log.Info(fmt.Sprint(i...)) }
func (l *echoLogger) Printf(format string, a ...any) { l.log.Info(fmt.Sprintf(format, a...)) }
func (l *echoLogger) Debug(i ...any)                 { l.log.Debug(fmt.Sprint(i...)) }
func (l *echoLogger) Debugf(format string, a ...any) { l.log.Debug(fmt.Sprintf(format, a...)) }
func (l *echoLogger) Info(i ...any)                  { l.log.Info(fmt.Sprint(i...)) }
func (l *echoLogger) Infof(format string, a ...any)  { l.log.Info(fmt.Sprintf(format, a...)) }
func (l *echoLogger) Warn(i ...any)                  { l.log.Warn(fmt.Sprint(i...)) }
func (l *echoLogger) Warnf(format string, a ...any)  { l.log.Warn(fmt.Sprintf(format, a...)) }
func (l *echoLogger) Error(i ...any)                 { l.log.Error(fmt.Sprint(i...)) }
func (l *echoLogger) Errorf(format string, a ...any) { l.log.Error(fmt.Sprintf(format, a...)) }

// Output reports where echo would write; everything goes to the application logger.
func (l *echoLogger) Output() io.Writer { return io.Discard }

// Level keeps echo from filtering; the application logger applies levels.
func (l *echoLogger) Level() echolog.Lvl { return echolog.DEBUG }
