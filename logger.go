package match

import (
	"io"
	"log/slog"
	"os"
)

// logger writes to stderr, stdout carries scenario transcripts.
var logger = slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "exchange")

// SetLogger replaces the package logger. A nil l discards everything.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = l
}
