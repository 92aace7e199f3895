package log

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// pathKeys contains attribute keys whose values are filesystem paths and
// should be rewritten relative to the handler's base directory.
var pathKeys = map[string]bool{
	"path":     true,
	"file":     true,
	"document": true,
	"root":     true,
	"output":   true,
	"config":   true,
	"db":       true,
}

// RelPathHandler wraps an slog.Handler to rewrite absolute filesystem
// paths into base-relative form. It intercepts log records and rewrites
// attribute values under path-like keys before passing them to the
// underlying handler.
//
// Design decision: We use a handler wrapper rather than rewriting paths at
// every call site because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay free of presentation concerns
type RelPathHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler

	// base is the directory paths are made relative to.
	base string
}

// NewRelPathHandler creates a new RelPathHandler wrapping the given handler.
// Path-like attributes are rewritten relative to base before being passed
// to the underlying handler. If handler is nil, the returned RelPathHandler
// will use slog.Default().Handler().
func NewRelPathHandler(handler slog.Handler, base string) *RelPathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RelPathHandler{handler: handler, base: base}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *RelPathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's path attributes and passes it to the
// underlying handler.
func (h *RelPathHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})

	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are rewritten before being added.
func (h *RelPathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewrittenAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewrittenAttrs[i] = h.rewriteAttr(a)
	}
	return &RelPathHandler{handler: h.handler.WithAttrs(rewrittenAttrs), base: h.base}
}

// WithGroup returns a new handler with the given group name.
func (h *RelPathHandler) WithGroup(name string) slog.Handler {
	return &RelPathHandler{handler: h.handler.WithGroup(name), base: h.base}
}

// rewriteAttr rewrites a single attribute, recursively handling groups.
func (h *RelPathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		rewrittenAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewrittenAttrs[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewrittenAttrs...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	if !pathKeys[strings.ToLower(a.Key)] {
		return a
	}

	return slog.String(a.Key, h.relativize(a.Value.String()))
}

// relativize rewrites one path value relative to the base directory.
// Paths outside the base, relative paths, and values filepath.Rel cannot
// handle are returned unchanged.
func (h *RelPathHandler) relativize(value string) string {
	if h.base == "" || !filepath.IsAbs(value) {
		return value
	}

	rel, err := filepath.Rel(h.base, value)
	if err != nil || strings.HasPrefix(rel, "..") {
		return value
	}
	return rel
}

// NewLogger creates a new slog.Logger with path rewriting.
// Absolute paths under base are logged relative to it.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - base: The directory to relativize path attributes against
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, base string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	relHandler := NewRelPathHandler(textHandler, base)

	return slog.New(relHandler)
}
