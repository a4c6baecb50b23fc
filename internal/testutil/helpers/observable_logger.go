package helpers

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/douhashi/steward/internal/logger"
)

// NewObservableLogger creates a logger whose entries are captured for assertions.
// The returned logger goes through logger.FromZap, so secrets are masked the
// same way as in production.
func NewObservableLogger(level zapcore.Level) (logger.Logger, *observer.ObservedLogs) {
	core, recorded := observer.New(level)
	return logger.FromZap(zap.New(core)), recorded
}

// EntriesWithField はフィールド key の値が value のログを返す
func EntriesWithField(logs *observer.ObservedLogs, key string, value interface{}) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, entry := range logs.All() {
		if v, ok := entry.ContextMap()[key]; ok && v == value {
			out = append(out, entry)
		}
	}
	return out
}
