package diag

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kenfdev/cctail/internal/cctail/watcher"
)

func TestNew_VerboseEnablesDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	logger.Debug("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected debug line to be written, got %q", buf.String())
	}
}

func TestNew_NonVerboseSuppressesDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug("hello")
	if buf.String() != "" {
		t.Fatalf("expected debug line to be suppressed, got %q", buf.String())
	}
	logger.Warn("still shows")
	if !strings.Contains(buf.String(), "still shows") {
		t.Fatal("expected warn line to pass the non-verbose threshold")
	}
}

func TestLogWatcherEvent_TruncatedWarnsWithPath(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	LogWatcherEvent(logger, watcher.Event{Kind: watcher.KindTruncated, Path: "/tmp/s1.jsonl"})
	if !strings.Contains(buf.String(), "/tmp/s1.jsonl") {
		t.Fatalf("expected path in log output, got %q", buf.String())
	}
}

func TestLogWatcherEvent_EntryAndShutdownAreIgnored(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)
	LogWatcherEvent(logger, watcher.Event{Kind: watcher.KindEntry})
	LogWatcherEvent(logger, watcher.Event{Kind: watcher.KindShutdown})
	if buf.String() != "" {
		t.Fatalf("expected no output for non-diagnostic kinds, got %q", buf.String())
	}
}

func TestLogFatal_AlwaysSurfacesWithoutVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	LogFatal(logger, "could not resolve project directory", errors.New("no such directory"))
	if !strings.Contains(buf.String(), "could not resolve project directory") {
		t.Fatalf("expected fatal message to surface at Warn threshold, got %q", buf.String())
	}
}
