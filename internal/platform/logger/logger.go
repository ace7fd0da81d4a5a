package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type Options struct {
	Level  string // debug|info|warn|error (default info)
	Format string // text|json (default text)
	App    string
}

// New construye el logger del servicio sobre zerolog.
// Formato text usa ConsoleWriter (dev); json va directo a stdout (prod).
func New(opts Options) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var l zerolog.Logger
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		l = zerolog.New(os.Stdout)
	default:
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	ctx := l.Level(lvl).With().Timestamp()
	if app := strings.TrimSpace(opts.App); app != "" {
		ctx = ctx.Str("app", app)
	}
	return ctx.Logger()
}

// Nop devuelve un logger que descarta todo (útil en tests).
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
