package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Printf adapts a slog.Logger to printf-style logger interfaces such as goose.Logger.
type Printf struct {
	log *slog.Logger
}

// New returns a printf adapter tagged with the component name.
func New(base *slog.Logger, component string) *Printf {
	if base == nil {
		base = slog.Default()
	}
	return &Printf{log: base.With("component", component)}
}

// Printf logs at info level.
func (p *Printf) Printf(format string, v ...any) {
	p.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level and exits.
func (p *Printf) Fatalf(format string, v ...any) {
	p.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}
