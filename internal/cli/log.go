package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/graphsim/fuzzygraph/pkg/observability"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation when it completes.
// Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Computed results (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability hooks
// =============================================================================

// logHooks reports editor, cache and HTTP events at debug level.
type logHooks struct {
	logger *log.Logger
}

func installLogHooks(l *log.Logger) {
	h := &logHooks{logger: l.WithPrefix("hooks")}
	observability.SetEditorHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *logHooks) OnCommand(_ context.Context, op, slot string, err error) {
	if err != nil {
		h.logger.Debug("command rejected", "op", op, "slot", slot, "err", err)
	}
}

func (h *logHooks) OnAnalysisStart(_ context.Context, field string) {
	h.logger.Debug("analysis started", "field", field)
}

func (h *logHooks) OnAnalysisComplete(_ context.Context, field string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("analysis failed", "field", field, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("analysis complete", "field", field, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnStaleResult(_ context.Context, field string) {
	h.logger.Debug("stale result discarded", "field", field)
}

func (h *logHooks) OnCacheHit(_ context.Context, endpoint string) {
	h.logger.Debug("cache hit", "endpoint", endpoint)
}

func (h *logHooks) OnCacheMiss(_ context.Context, endpoint string) {
	h.logger.Debug("cache miss", "endpoint", endpoint)
}

func (h *logHooks) OnCacheSet(_ context.Context, endpoint string, size int) {
	h.logger.Debug("cache store", "endpoint", endpoint, "bytes", size)
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request error", "method", method, "host", host, "path", path, "err", err)
}
