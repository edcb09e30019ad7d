package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// OpenErrorLog открывает append-only файл ошибок (JSON строки).
// Возвращает логгер и closer, который надо закрыть при остановке.
func OpenErrorLog(path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		path = "logs/error.log"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create error log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open error log: %w", err)
	}
	return NewErrorLog(f), f, nil
}

// NewErrorLog пишет только уровень Error и выше
func NewErrorLog(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelError}))
}
