package main

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLogger_Level(t *testing.T) {
	if got := newLogger(config{LogLevel: "DEBUG"}).GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", got)
	}
	if got := newLogger(config{LogLevel: "verbose", LogFormat: "console"}).GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", got)
	}
}
