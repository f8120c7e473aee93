package telemetry

import (
	"io"
	"log/slog"
	"os"
	"time"

	"ecourts-casestatus/internal/chrono"
)

// NewSlogHandler returns a text handler whose timestamps are rendered in IST, the timezone
// the courts and the people reading these logs work in.
func NewSlogHandler(w io.Writer, verbose bool) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				return slog.String(slog.TimeKey, a.Value.Time().In(chrono.IST()).Format(time.RFC3339))
			}
			return a
		},
	})
}

// InitSlog installs the IST text handler on stderr as the default logger.
func InitSlog(verbose bool) {
	slog.SetDefault(slog.New(NewSlogHandler(os.Stderr, verbose)))
}
