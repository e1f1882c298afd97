package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiReset     = "\033[0m"
	ansiRed       = "\033[31m"
	ansiGreen     = "\033[32m"
	ansiYellow    = "\033[33m"
	ansiCyan      = "\033[36m"
	ansiGray      = "\033[90m"
	ansiUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var levelColors = map[slog.Level]string{
	slog.LevelDebug: ansiCyan,
	slog.LevelInfo:  ansiGreen,
	slog.LevelWarn:  ansiYellow,
	slog.LevelError: ansiRed,
}

// ConsoleHandler writes colored single-record blocks meant for a developer
// terminal. Records of loggers listed in PkgLevels are filtered against
// their own minimum level.
type ConsoleHandler struct {
	// Output receives the formatted records
	Output io.Writer
	// Level is the global minimum level
	Level slog.Leveler
	// PkgLevels maps dotted logger names to minimum levels
	PkgLevels map[string]slog.Level

	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	attrs = append(attrs, h.attrs...)

	if !h.pkgEnabled(loggerName(attrs), r.Level) {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(ansiGray + r.Time.Format("15:04:05.000000") + ansiReset)
	sb.WriteString(" " + levelColors[r.Level] + "[" + r.Level.String() + "]" + ansiReset)
	sb.WriteString(" " + r.Message)

	if len(attrs) > 0 {
		var prefix string
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		sb.WriteString(" " + ansiGray + "|" + ansiReset)
		writeAttrs(&sb, prefix, attrs)
	}

	frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
	fn := frame.Function[strings.LastIndex(frame.Function, string(os.PathSeparator))+1:]

	sb.WriteString("\n-> " + ansiGray + fn + "()")
	sb.WriteString(" in " + ansiUnderline + frame.File + ":" + strconv.Itoa(frame.Line) + ansiReset + "\n")

	if h.mu != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	_, err := io.WriteString(h.Output, sb.String())

	//nolint:wrapcheck
	return err
}

// pkgEnabled walks the dotted logger name from the most to the least
// specific prefix and applies the first configured level.
func (h *ConsoleHandler) pkgEnabled(name string, level slog.Level) bool {
	parts := strings.Split(name, ".")

	for i := len(parts); i >= 0; i-- {
		minLevel, ok := h.PkgLevels[strings.Join(parts[:i], ".")]
		if ok {
			return level >= minLevel
		}
	}

	return true
}

func loggerName(attrs []slog.Attr) string {
	for _, attr := range attrs {
		if attr.Key == "logger" {
			return attr.Value.String()
		}
	}

	return ""
}

func writeAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			writeAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key + "=" + ansiGray + attr.Value.String() + ansiReset)
	}
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)

	return &clone
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)

	return &clone
}

// Enabled implements slog.Handler.Enabled.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.Level.Level() <= level
}
