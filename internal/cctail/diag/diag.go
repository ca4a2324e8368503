// Package diag is cctail's structured diagnostic channel: a thin slog
// wrapper for diagnostic conditions (ParseError, Truncated, NewFile watcher
// events, and startup failures). `cctail stream` logs its startup failures
// through it; the watcher reports its diagnostics as Events and does not
// call this package, and the Streamer prints verbose parse errors to its
// own sink. Grounded on the teacher's
// debug_watcher.go, which tees its own watcher errors to a dedicated
// channel rather than crashing the UI; generalized here into the leveled
// slog handler vanducng-goclaw and boozedog-sidecar both use for their own
// process diagnostics.
package diag

import (
	"io"
	"log/slog"

	"github.com/kenfdev/cctail/internal/cctail/watcher"
)

// New builds the process-wide diagnostic logger. verbose raises the level
// to Debug; without it only Warn and above surface: LogFatal's errors and
// Truncated watcher events. New-file notices and parse errors (including
// per-file read errors such as permission denied, which the watcher reports
// as KindParseError) are logged at Debug.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// LogWatcherEvent records a diagnostic-kind watcher.Event. KindEntry and
// KindShutdown carry no diagnostic content and are ignored; the rest map to
// the log level their severity warrants.
func LogWatcherEvent(logger *slog.Logger, ev watcher.Event) {
	switch ev.Kind {
	case watcher.KindNewFile:
		logger.Debug("watcher: new file discovered", "path", ev.Path)
	case watcher.KindTruncated:
		logger.Warn("watcher: file truncated", "path", ev.Path)
	case watcher.KindParseError:
		logger.Debug("watcher: parse error", "path", ev.Path, "error", ev.Err)
	}
}

// LogFatal records a startup condition that is about to abort the process
// (PathNotFound, PermissionDenied class errors from pathresolve/filetail),
// at Error level so it surfaces even without --verbose.
func LogFatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
}
