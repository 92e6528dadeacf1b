package notify

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// LogNotifier writes events to a slog logger. It is always part of the set
// Build returns.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

// Notify implements Notifier. Empty fields are left out of the record and
// metadata is grouped under "metadata" in key order.
func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	attrs := []slog.Attr{slog.String("event", string(event.Type))}
	for _, f := range [...]struct{ key, val string }{
		{"item_id", event.ItemID},
		{"brand_id", event.BrandID},
		{"actor", event.Actor},
		{"role", event.Role},
	} {
		if f.val != "" {
			attrs = append(attrs, slog.String(f.key, f.val))
		}
	}
	if len(event.Metadata) > 0 {
		meta := make([]any, 0, len(event.Metadata))
		for _, k := range slices.Sorted(maps.Keys(event.Metadata)) {
			meta = append(meta, slog.Any(k, event.Metadata[k]))
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}

	n.Logger.LogAttrs(ctx, severityLevel(event.Severity), event.Message, attrs...)
	return nil
}

func severityLevel(severity string) slog.Level {
	switch severity {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
