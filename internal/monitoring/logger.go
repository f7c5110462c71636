package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with engine-specific helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ScoreLogger logs one bid scoring run
func (l *Logger) ScoreLogger(bidID, missionID string, finalScore, confidence int, duration time.Duration) {
	l.Info("Bid Scored",
		"bid_id", bidID,
		"mission_id", missionID,
		"final_score", finalScore,
		"confidence", confidence,
		"duration_ms", duration.Milliseconds(),
	)
}

// IntegrityLogger logs one integrity analysis run
func (l *Logger) IntegrityLogger(missionID string, bidCount, skipped int, severity string, collusionConfidence int, duration time.Duration) {
	l.Info("Integrity Analysis Completed",
		"mission_id", missionID,
		"bid_count", bidCount,
		"skipped_bids", skipped,
		"dumping_severity", severity,
		"collusion_confidence", collusionConfidence,
		"duration_ms", duration.Milliseconds(),
	)
}

// DispatchLogger logs dispatcher lifecycle events
func (l *Logger) DispatchLogger(event, missionID string, version uint64) {
	l.Info("Dispatch Event",
		"event", event,
		"mission_id", missionID,
		"snapshot_version", version,
	)
}

// CacheLogger logs report cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	shortKey := key
	if len(shortKey) > 8 {
		shortKey = shortKey[:8] + "..."
	}
	l.Debug("Cache Operation",
		"operation", operation,
		"key", shortKey,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
