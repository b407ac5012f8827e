package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logHooks forwards pipeline, cache and HTTP events to the debug log.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnLoadStart(_ context.Context, path string) {
	h.logger.Debug("loading registry", "path", path)
}

func (h *logHooks) OnLoadComplete(_ context.Context, path string, extensions int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("registry load failed", "path", path, "error", err)
		return
	}
	h.logger.Debug("registry decoded", "extensions", extensions, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnResolveStart(_ context.Context, items int) {
	h.logger.Debug("resolving", "items", items)
}

func (h *logHooks) OnResolveComplete(_ context.Context, items, warnings int, d time.Duration, err error) {
	h.logger.Debug("resolve finished", "items", items, "warnings", warnings, "duration", d.Round(time.Millisecond), "error", err)
}

func (h *logHooks) OnEmitStart(_ context.Context, formats []string) {
	h.logger.Debug("emitting", "formats", formats)
}

func (h *logHooks) OnEmitComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("emit finished", "formats", formats, "duration", d.Round(time.Millisecond), "error", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) OnRequest(context.Context, string, string) {}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Info("request", "method", method, "path", path, "status", status, "duration", d.Round(time.Microsecond))
}
